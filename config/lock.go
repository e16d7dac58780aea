package config

import (
	"strings"
	"time"
)

// RunLockConfig controls the optional Redis lock that keeps two runs off the same matter.
type RunLockConfig struct {
	Enabled  bool          `env:"ENABLED"   envDefault:"false"`
	RedisURI string        `env:"REDIS_URI"`
	Password string        `env:"PASSWORD,unset"`
	DB       int           `env:"DB"        envDefault:"0"`
	TTL      time.Duration `env:"TTL"       envDefault:"2h"`
	Prefix   string        `env:"PREFIX"    envDefault:"vaultsync:run:"`
}

// Sanitize applies safe defaults.
func (c *RunLockConfig) Sanitize() {
	c.RedisURI = strings.TrimSpace(c.RedisURI)
	if c.TTL <= 0 {
		c.TTL = 2 * time.Hour
	}
	if c.Prefix = strings.TrimSpace(c.Prefix); c.Prefix == "" {
		c.Prefix = "vaultsync:run:"
	}
}

// IsEnabled returns true when the lock is active after sanitisation.
func (c *RunLockConfig) IsEnabled() bool {
	return c.Enabled && c.RedisURI != ""
}
