package server

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig reads configuration from path (optional), SWITCHCONNECTOR_*
// environment variables and the bare PORT, MODE and LOG_LEVEL variables.
func LoadConfig(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SWITCHCONNECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("switchconnector")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/switchconnector")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	applyLegacyEnv(v)
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("mode", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("inventory.file", "")

	v.SetDefault("plugins.vault.enabled", true)

	v.SetDefault("plugins.switches.enabled", true)
	v.SetDefault("plugins.switches.restconf.port", 443)
	v.SetDefault("plugins.switches.restconf.timeout", "5s")
	v.SetDefault("plugins.switches.restconf.rate_limit", 10.0)
	v.SetDefault("plugins.switches.restconf.burst", 5)
	v.SetDefault("plugins.switches.ssh.port", 22)
	v.SetDefault("plugins.switches.ssh.dial_timeout", "5s")
	v.SetDefault("plugins.switches.ssh.command_timeout", "30s")
	v.SetDefault("plugins.switches.audit.path", ":memory:")
	v.SetDefault("plugins.switches.pulse.timeout", "3s")
	v.SetDefault("plugins.switches.pulse.count", 3)
}

// applyLegacyEnv honours the unprefixed variables used by earlier deployments.
func applyLegacyEnv(v *viper.Viper) {
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
	}
	if mode := os.Getenv("MODE"); mode != "" {
		v.Set("mode", mode)
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		v.Set("log.level", strings.ToLower(level))
	}
}
