package config

import (
	"errors"
	"fmt"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - google.go: service account, impersonation, API endpoints, matter and folder
//   - pipeline.go: staging paths, media filter and optional extraction features
//   - lock.go: optional Redis run lock
//   - observability.go: logging, metrics and failure notifications
type AppConfig struct {
	// Google credentials and API endpoints
	Google GoogleConfig

	// Source export service
	Vault VaultConfig

	// Destination document store
	Drive DriveConfig

	// Staging and extraction behaviour
	Pipeline PipelineConfig

	// Single-run guard
	RunLock RunLockConfig `envPrefix:"RUN_LOCK_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.Google.Sanitize()
	c.Vault.Sanitize()
	c.Drive.Sanitize()
	c.Pipeline.Sanitize()
	c.RunLock.Sanitize()
	c.Observability.Sanitize()
}

// Validate reports every missing or malformed setting at once.
func (c *AppConfig) Validate() error {
	var errs []error
	errs = append(errs, c.Google.validate()...)
	if c.Vault.MatterID == "" {
		errs = append(errs, errors.New("VAULT_MATTER_ID is required"))
	}
	if c.Drive.FolderID == "" {
		errs = append(errs, errors.New("DRIVE_FOLDER_ID is required"))
	}
	if len(c.Pipeline.MediaExtensions) == 0 {
		errs = append(errs, errors.New("MEDIA_EXTENSIONS must list at least one extension"))
	}
	if c.RunLock.Enabled && c.RunLock.RedisURI == "" {
		errs = append(errs, errors.New("RUN_LOCK_REDIS_URI is required when RUN_LOCK_ENABLED=true"))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
