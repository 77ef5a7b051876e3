package vault

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// inventoryFile is the on-disk bootstrap format.
type inventoryFile struct {
	Devices []Entry `yaml:"devices"`
}

// LoadInventoryFile reads a YAML inventory of the form
//
//	devices:
//	  - ip: 10.0.0.1
//	    username: admin
//	    password: secret
func LoadInventoryFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read inventory %q: %w", path, err)
	}
	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse inventory %q: %w", path, err)
	}
	return f.Devices, nil
}
