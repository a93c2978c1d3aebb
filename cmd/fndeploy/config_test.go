package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Settings Loading Tests
// =============================================================================

func TestLoadSettings_DefaultValues(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.AWS.Region)
	assert.Empty(t, cfg.AWS.Profile)
	assert.Equal(t, "npm run build", cfg.Build.Command)
	assert.Equal(t, ".", cfg.Artifact.Dir)
	assert.Equal(t, time.Duration(0), cfg.GC.MinAge)
	assert.Equal(t, ".", cfg.Repo.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "pretty", cfg.Log.Format)
}

func TestLoadSettings_FromFile(t *testing.T) {
	clearEnv(t)

	content := `
aws:
  region: "eu-west-1"
  endpoint: "http://localhost:4566"

build:
  command: "pnpm build"
  dir: "web"

gc:
  min_age: 72h

log:
  level: "debug"
  format: "json"
`
	path := filepath.Join(t.TempDir(), "fndeploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.AWS.Region)
	assert.Equal(t, "http://localhost:4566", cfg.AWS.Endpoint)
	assert.Equal(t, "pnpm build", cfg.Build.Command)
	assert.Equal(t, "web", cfg.Build.Dir)
	assert.Equal(t, 72*time.Hour, cfg.GC.MinAge)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadSettings_TOMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "fndeploy.toml")
	require.NoError(t, os.WriteFile(path, []byte("[aws]\nregion = \"ap-south-1\"\n"), 0644))

	cfg, err := LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "ap-south-1", cfg.AWS.Region)
}

func TestLoadSettings_EnvironmentOverride(t *testing.T) {
	clearEnv(t)

	t.Setenv("FNDEPLOY_AWS_REGION", "us-west-2")
	t.Setenv("FNDEPLOY_BUILD_COMMAND", "make bundle")
	t.Setenv("FNDEPLOY_GC_MIN_AGE", "24h")
	t.Setenv("FNDEPLOY_REPO_PATH", "/srv/app")
	t.Setenv("FNDEPLOY_LOG_LEVEL", "warn")

	cfg, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "us-west-2", cfg.AWS.Region)
	assert.Equal(t, "make bundle", cfg.Build.Command)
	assert.Equal(t, 24*time.Hour, cfg.GC.MinAge)
	assert.Equal(t, "/srv/app", cfg.Repo.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadSettings_FileNotFound_UsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadSettings("/nonexistent/path/fndeploy.yaml")
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.AWS.Region)
}

func TestLoadSettings_InvalidFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invalid: yaml: content: [[["), 0644))

	_, err := LoadSettings(path)
	assert.Error(t, err)
}

func TestLoadSettings_NegativeMinAge(t *testing.T) {
	clearEnv(t)
	t.Setenv("FNDEPLOY_GC_MIN_AGE", "-1h")

	_, err := LoadSettings("")
	assert.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FNDEPLOY_AWS_REGION=ca-central-1\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("FNDEPLOY_AWS_REGION") })

	require.NoError(t, loadDotEnv(path))
	cfg, err := LoadSettings("")
	require.NoError(t, err)
	assert.Equal(t, "ca-central-1", cfg.AWS.Region)
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("FNDEPLOY_AWS_REGION", "us-west-1")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("FNDEPLOY_AWS_REGION=ca-central-1\n"), 0644))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "us-west-1", os.Getenv("FNDEPLOY_AWS_REGION"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NoError(t, loadDotEnv(filepath.Join(t.TempDir(), ".env")))
}

// =============================================================================
// Logger Setup Tests
// =============================================================================

func TestSetupLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogSettings{Level: "info", Format: "json"}, &buf)

	logger.Info("hello", "function", "api")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"function":"api"`)
}

func TestSetupLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogSettings{Level: "info", Format: "text"}, &buf)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestSetupLogger_PrettyFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogSettings{Level: "info", Format: "pretty"}, &buf)

	logger.Info("hello", "version", "12")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "version=12")
	assert.NotContains(t, buf.String(), "\x1b[", "no colors when not writing to a terminal")
}

func TestSetupLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogSettings{Level: "warn", Format: "text"}, &buf)

	logger.Info("quiet")
	logger.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "loud")
}

func TestSetupLogger_InvalidLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(LogSettings{Level: "invalid", Format: "text"}, &buf)

	logger.Debug("hidden")
	logger.Info("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

// =============================================================================
// Test Helpers
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	envVars := []string{
		"FNDEPLOY_AWS_REGION",
		"FNDEPLOY_AWS_PROFILE",
		"FNDEPLOY_AWS_ENDPOINT",
		"FNDEPLOY_AWS_ACCESS_KEY_ID",
		"FNDEPLOY_AWS_SECRET_ACCESS_KEY",
		"FNDEPLOY_BUILD_COMMAND",
		"FNDEPLOY_BUILD_DIR",
		"FNDEPLOY_ARTIFACT_DIR",
		"FNDEPLOY_GC_MIN_AGE",
		"FNDEPLOY_REPO_PATH",
		"FNDEPLOY_LOG_LEVEL",
		"FNDEPLOY_LOG_FORMAT",
	}
	for _, v := range envVars {
		os.Unsetenv(v)
	}
}
