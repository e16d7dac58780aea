package main

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestRun_MissingRequiredEnv(t *testing.T) {
	unsetEnv(t, "GOOGLE_SERVICE_ACCOUNT_JSON", "VAULT_MATTER_ID", "DRIVE_FOLDER_ID")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_MATTER_ID")
}

func TestRun_BlankMatterID(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account","client_email":"sync@p.iam.gserviceaccount.com"}`)
	t.Setenv("VAULT_MATTER_ID", "   ")
	t.Setenv("DRIVE_FOLDER_ID", "folder-7")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VAULT_MATTER_ID is required")
}
