package restconf

import (
	"encoding/json"
	"strings"
)

type hostnameResponse struct {
	Hostname string `json:"Cisco-IOS-XE-native:hostname"`
}

type hardwareResponse struct {
	Hardware struct {
		Inventory []struct {
			PartNumber   string `json:"part-number"`
			SerialNumber string `json:"serial-number"`
		} `json:"device-inventory"`
		SystemData struct {
			SoftwareVersion string `json:"software-version"`
		} `json:"device-system-data"`
	} `json:"Cisco-IOS-XE-device-hardware-oper:device-hardware"`
}

type switchportResponse struct {
	Switchport *switchportContainer `json:"Cisco-IOS-XE-native:switchport"`
}

type switchportContainer struct {
	Mode   map[string]json.RawMessage `json:"Cisco-IOS-XE-switch:mode"`
	Access *accessContainer           `json:"Cisco-IOS-XE-switch:access,omitempty"`
	Trunk  *trunkContainer            `json:"Cisco-IOS-XE-switch:trunk,omitempty"`
}

type accessContainer struct {
	Vlan struct {
		Vlan scalar `json:"vlan"`
	} `json:"vlan"`
}

type trunkContainer struct {
	Allowed struct {
		Vlan struct {
			Vlans scalar `json:"vlans"`
		} `json:"vlan"`
	} `json:"allowed"`
}

type vlanListResponse struct {
	Vlans []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"Cisco-IOS-XE-vlan:vlan-list"`
}

// scalar accepts a YANG leaf encoded either as a JSON string or number.
type scalar string

func (s *scalar) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = scalar(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*s = scalar(num.String())
	return nil
}

func modeBody(mode string) map[string]any {
	return map[string]any{
		"Cisco-IOS-XE-switch:mode": map[string]any{mode: map[string]any{}},
	}
}

func trunkBody(vlans string) map[string]any {
	if vlans == "" {
		vlans = "none"
	}
	return map[string]any{
		"Cisco-IOS-XE-switch:trunk": map[string]any{
			"allowed": map[string]any{
				"vlan": map[string]any{"vlans": vlans},
			},
		},
	}
}

func accessBody(id int) map[string]any {
	return map[string]any{
		"Cisco-IOS-XE-switch:access": map[string]any{
			"vlan": map[string]any{"vlan": id},
		},
	}
}

// firstKey returns the only key of a YANG presence container such as
// {"trunk": {}}.
func firstKey(m map[string]json.RawMessage) string {
	for k := range m {
		return strings.TrimSpace(k)
	}
	return ""
}
