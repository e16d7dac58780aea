package bootstrap

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Liad-hossain/test-voice-export/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account","client_email":"sync@p.iam.gserviceaccount.com"}`)
	t.Setenv("VAULT_MATTER_ID", " matter-7 ")
	t.Setenv("DRIVE_FOLDER_ID", "folder-7")
	t.Setenv("MEDIA_EXTENSIONS", "WAV,m4a")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "matter-7", cfg.Vault.MatterID)
	assert.Equal(t, []string{".wav", ".m4a"}, cfg.Pipeline.MediaExtensions)
}

func TestLoadConfig_InvalidCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "{}")
	t.Setenv("VAULT_MATTER_ID", "matter-7")
	t.Setenv("DRIVE_FOLDER_ID", "folder-7")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client_email")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.ObservabilityLoggingConfig{Level: "warn", Format: "json"})
	logger.Info("dropped")
	logger.Warn("kept", "k", "v")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "kept", line["msg"])
	assert.Equal(t, "v", line["k"])

	buf.Reset()
	NewLogger(&buf, config.ObservabilityLoggingConfig{Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
