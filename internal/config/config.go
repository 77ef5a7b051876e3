// Package config wraps viper behind a small read-only interface so plugins
// receive only their own configuration subtree.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is read-only access to a configuration tree.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetFloat64(key string) float64
	GetBool(key string) bool
	GetDuration(key string) time.Duration
	IsSet(key string) bool
	Sub(key string) Config
	Unmarshal(target any) error
}

// ViperConfig implements Config on top of a *viper.Viper.
type ViperConfig struct {
	v *viper.Viper
}

// Compile-time interface guard.
var _ Config = (*ViperConfig)(nil)

// New wraps v. A nil v behaves as an empty configuration.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string          { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                { return c.v.GetInt(key) }
func (c *ViperConfig) GetFloat64(key string) float64        { return c.v.GetFloat64(key) }
func (c *ViperConfig) GetBool(key string) bool              { return c.v.GetBool(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }
func (c *ViperConfig) IsSet(key string) bool                { return c.v.IsSet(key) }
func (c *ViperConfig) Unmarshal(target any) error           { return c.v.Unmarshal(target) }

// Sub returns the subtree at key, or an empty Config when it does not exist.
// Values are resolved key by key so defaults survive a partial config file.
func (c *ViperConfig) Sub(key string) Config {
	prefix := strings.ToLower(key) + "."
	sub := viper.New()
	for _, k := range c.v.AllKeys() {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			sub.Set(rest, c.v.Get(k))
		}
	}
	return New(sub)
}

// Viper exposes the underlying instance.
func (c *ViperConfig) Viper() *viper.Viper {
	return c.v
}
