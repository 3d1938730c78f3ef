package commands

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/secretmap/internal/config"
	"github.com/systmms/secretmap/tests/testutil"
)

func planManifest(t *testing.T) *testutil.ManifestBuilder {
	t.Helper()

	return testutil.NewManifest(t).
		WithSecret(config.SecretSpec{
			Name:   "app-login",
			Kind:   "basic_credentials",
			Source: `literal://{"username":"app","password":"pw"}`,
		}).
		WithSecret(config.SecretSpec{
			Name:    "prod-db",
			Kind:    "database_credentials",
			Source:  "aws-sm://prod/db",
			Mapping: map[string]string{"host": "PRIMARY_DB_HOST"},
			Verify:  true,
		})
}

func TestPlanCommand_TableOutput(t *testing.T) {
	cfg := newTestConfig(planManifest(t).Write())

	output, err := executeCommand(NewPlanCommand(cfg))
	require.NoError(t, err)

	assert.Contains(t, output, "app-login")
	assert.Contains(t, output, "prod-db")
	assert.Contains(t, output, "aws-sm")
	assert.Contains(t, output, "PRIMARY_DB_HOST")
	assert.Contains(t, output, "verify")
	assert.Contains(t, output, "✓ OK")
	assert.Contains(t, output, "Total secrets: 2")
	assert.Contains(t, output, "Ready to map: 2")
	assert.Contains(t, output, "✓ All secrets ready to map!")
}

func TestPlanCommand_JSONOutput(t *testing.T) {
	cfg := newTestConfig(planManifest(t).Write())

	output, err := executeCommand(NewPlanCommand(cfg), "--json")
	require.NoError(t, err)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(output), &result))

	summary := result["summary"].(map[string]interface{})
	assert.Equal(t, float64(2), summary["total_secrets"])
	assert.Equal(t, float64(0), summary["error_count"])

	secrets := result["secrets"].([]interface{})
	require.Len(t, secrets, 2)

	first := secrets[0].(map[string]interface{})
	assert.Equal(t, "app-login", first["name"])
	assert.Equal(t, "basic_credentials", first["kind"])
	assert.Equal(t, "literal", first["scheme"])
	assert.Equal(t, []interface{}{"PASSWORD", "USERNAME"}, first["variables"])

	second := secrets[1].(map[string]interface{})
	assert.Equal(t, "prod-db", second["name"])
	assert.Equal(t, true, second["verify"])
}

func TestPlanCommand_UnknownScheme(t *testing.T) {
	path := planManifest(t).
		WithSecret(config.SecretSpec{
			Name:   "mystery",
			Kind:   "key_value",
			Source: "vault://mystery",
			Mapping: map[string]string{
				"token": "VAULT_TOKEN",
			},
		}).
		Write()
	cfg := newTestConfig(path)

	output, err := executeCommand(NewPlanCommand(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "plan completed with 1 errors")

	assert.Contains(t, output, "✗ ERROR")
	assert.Contains(t, output, `unsupported source scheme "vault"`)
	assert.Contains(t, output, "Errors: 1")
}

func TestPlanCommand_MissingManifest(t *testing.T) {
	cfg := newTestConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := executeCommand(NewPlanCommand(cfg))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
