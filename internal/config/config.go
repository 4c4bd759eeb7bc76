// Package config provides read access to layered configuration backed by
// viper, plus the typed Settings of the dnsswitch binary.
package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is a read-only view over a viper instance.
type Config struct {
	v *viper.Viper
}

// New wraps v. A nil v yields an empty Config.
func New(v *viper.Viper) *Config {
	if v == nil {
		v = viper.New()
	}
	return &Config{v: v}
}

// GetString returns the value of key as a string.
func (c *Config) GetString(key string) string { return c.v.GetString(key) }

// GetInt returns the value of key as an int.
func (c *Config) GetInt(key string) int { return c.v.GetInt(key) }

// GetBool returns the value of key as a bool.
func (c *Config) GetBool(key string) bool { return c.v.GetBool(key) }

// GetDuration returns the value of key as a duration.
func (c *Config) GetDuration(key string) time.Duration { return c.v.GetDuration(key) }

// GetStringSlice returns the value of key as a string slice.
func (c *Config) GetStringSlice(key string) []string { return c.v.GetStringSlice(key) }

// IsSet reports whether key has a value from any source.
func (c *Config) IsSet(key string) bool { return c.v.IsSet(key) }

// Sub returns the subtree at key. A missing subtree yields an empty Config,
// never nil.
func (c *Config) Sub(key string) *Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole tree into target using mapstructure tags.
func (c *Config) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Viper exposes the underlying instance for flag binding.
func (c *Config) Viper() *viper.Viper { return c.v }
