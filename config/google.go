package config

import (
	"encoding/json"
	"errors"
	"strings"
)

// Default OAuth scopes needed to list exports, read the export bucket and write to Drive.
const (
	ScopeEDiscovery      = "https://www.googleapis.com/auth/ediscovery"
	ScopeStorageReadOnly = "https://www.googleapis.com/auth/devstorage.read_only"
	ScopeDriveFile       = "https://www.googleapis.com/auth/drive.file"
)

// GoogleConfig holds the service account credential and API endpoints.
type GoogleConfig struct {
	// ServiceAccountJSON is the raw service account key.
	ServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON,required,unset"`

	// AdminEmail is the Workspace administrator the service account impersonates.
	AdminEmail string `env:"WORKSPACE_ADMIN_EMAIL"`

	Scopes []string `env:"GOOGLE_SCOPES" envDefault:"https://www.googleapis.com/auth/ediscovery,https://www.googleapis.com/auth/devstorage.read_only,https://www.googleapis.com/auth/drive.file"`

	// Endpoint overrides, mostly useful against emulators.
	VaultEndpoint   string `env:"VAULT_ENDPOINT"`
	StorageEndpoint string `env:"STORAGE_ENDPOINT" envDefault:"https://storage.googleapis.com"`
	DriveEndpoint   string `env:"DRIVE_ENDPOINT"`
}

// Sanitize trims values and restores defaults that were blanked.
func (c *GoogleConfig) Sanitize() {
	c.ServiceAccountJSON = strings.TrimSpace(c.ServiceAccountJSON)
	c.AdminEmail = strings.TrimSpace(c.AdminEmail)
	c.Scopes = trimAll(c.Scopes)
	if len(c.Scopes) == 0 {
		c.Scopes = []string{ScopeEDiscovery, ScopeStorageReadOnly, ScopeDriveFile}
	}
	c.VaultEndpoint = strings.TrimSpace(c.VaultEndpoint)
	c.StorageEndpoint = strings.TrimRight(strings.TrimSpace(c.StorageEndpoint), "/")
	if c.StorageEndpoint == "" {
		c.StorageEndpoint = "https://storage.googleapis.com"
	}
	c.DriveEndpoint = strings.TrimSpace(c.DriveEndpoint)
}

// CredentialsJSON returns the service account key as bytes.
func (c *GoogleConfig) CredentialsJSON() []byte {
	return []byte(c.ServiceAccountJSON)
}

func (c *GoogleConfig) validate() []error {
	if c.ServiceAccountJSON == "" {
		return []error{errors.New("GOOGLE_SERVICE_ACCOUNT_JSON is required")}
	}
	var probe struct {
		Type        string `json:"type"`
		ClientEmail string `json:"client_email"`
	}
	if err := json.Unmarshal([]byte(c.ServiceAccountJSON), &probe); err != nil {
		return []error{errors.New("GOOGLE_SERVICE_ACCOUNT_JSON is not valid JSON")}
	}
	if probe.ClientEmail == "" {
		return []error{errors.New("GOOGLE_SERVICE_ACCOUNT_JSON has no client_email")}
	}
	return nil
}

// VaultConfig identifies the matter whose exports are retrieved.
type VaultConfig struct {
	MatterID string `env:"VAULT_MATTER_ID,required"`

	// ExportFilter is an optional JMESPath expression an export must satisfy, e.g.
	// "starts_with(name, 'daily-voice')".
	ExportFilter string `env:"VAULT_EXPORT_FILTER"`
}

// Sanitize trims values.
func (c *VaultConfig) Sanitize() {
	c.MatterID = strings.TrimSpace(c.MatterID)
	c.ExportFilter = strings.TrimSpace(c.ExportFilter)
}

// DriveConfig identifies the destination folder. Shared-drive folders are supported.
type DriveConfig struct {
	FolderID string `env:"DRIVE_FOLDER_ID,required"`
}

// Sanitize trims values.
func (c *DriveConfig) Sanitize() {
	c.FolderID = strings.TrimSpace(c.FolderID)
}
