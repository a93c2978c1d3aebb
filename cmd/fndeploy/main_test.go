package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artpar/fndeploy/internal/core/manifest"
)

// =============================================================================
// Test Helpers
// =============================================================================

const testManifest = `
[[functions]]
name = "api"
bundle = "dist/index.js"

[[functions]]
name = "worker"
bundle = "dist/worker.js"
`

// newProject creates a committed git repository with a manifest and a bundle
// and points the settings at it.
func newProject(t *testing.T) (string, *git.Repository) {
	t.Helper()
	clearEnv(t)
	dir := t.TempDir()

	g, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	files := map[string]string{
		"functions.toml": testManifest,
		"dist/index.js":  "exports.handler = async () => 'ok';\n",
	}
	wt, err := g.Worktree()
	require.NoError(t, err)
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := wt.Add(name)
		require.NoError(t, err)
	}
	_, err = wt.Commit("initial", &git.CommitOptions{Author: &object.Signature{
		Name: "Deploy Test", Email: "deploy@example.com", When: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC),
	}})
	require.NoError(t, err)

	t.Setenv("FNDEPLOY_REPO_PATH", dir)
	t.Setenv("FNDEPLOY_AWS_ACCESS_KEY_ID", "AKIDTEST")
	t.Setenv("FNDEPLOY_AWS_SECRET_ACCESS_KEY", "secret")
	t.Setenv("FNDEPLOY_AWS_ENDPOINT", "http://127.0.0.1:1")
	t.Setenv("FNDEPLOY_LOG_FORMAT", "text")
	return dir, g
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// =============================================================================
// Exit Code Tests
// =============================================================================

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, exitCode(nil))
	assert.Equal(t, ExitConfigError, exitCode(errors.New("unknown flag")))
	assert.Equal(t, ExitAborted, exitCode(&CommandError{Op: "deploy", Err: errors.New("x"), ExitCode: ExitAborted}))
	assert.Equal(t, ExitPartialFailure, exitCode(&CommandError{Op: "deploy", Err: errors.New("x"), ExitCode: ExitPartialFailure}))
}

func TestCLI_Version(t *testing.T) {
	clearEnv(t)
	code, stdout, _ := runCLI(t, "version")

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "fndeploy dev")
}

func TestCLI_DeployWrongArgs(t *testing.T) {
	clearEnv(t)
	code, _, stderr := runCLI(t, "deploy", "functions.toml")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "accepts 2 arg(s)")
}

func TestCLI_DeployMissingConfig(t *testing.T) {
	clearEnv(t)
	code, _, stderr := runCLI(t, "deploy", filepath.Join(t.TempDir(), "missing.toml"), "api")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "load functions")
}

func TestCLI_DeployUnknownFunction(t *testing.T) {
	dir, _ := newProject(t)
	code, _, stderr := runCLI(t, "deploy", filepath.Join(dir, "functions.toml"), "billing")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "billing")
}

func TestCLI_DeployDirtyTreeAborts(t *testing.T) {
	dir, _ := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dist/index.js"), []byte("changed\n"), 0o644))

	code, stdout, _ := runCLI(t, "deploy", filepath.Join(dir, "functions.toml"), "api")

	assert.Equal(t, ExitAborted, code)
	assert.Contains(t, stdout, "There are uncommitted files")
	assert.Contains(t, stdout, "dist/index.js")
}

func TestCLI_DeployAlreadyDeployedJSON(t *testing.T) {
	dir, g := newProject(t)
	head, err := g.Head()
	require.NoError(t, err)
	_, err = g.CreateTag("api@7", head.Hash(), nil)
	require.NoError(t, err)

	code, stdout, _ := runCLI(t, "deploy", filepath.Join(dir, "functions.toml"), "api", "--json")

	assert.Equal(t, ExitAborted, code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Equal(t, "already_deployed", doc["reason"])
}

func TestCLI_Status(t *testing.T) {
	dir, g := newProject(t)
	head, err := g.Head()
	require.NoError(t, err)
	_, err = g.CreateTag("api@12", head.Hash(), nil)
	require.NoError(t, err)

	code, stdout, _ := runCLI(t, "status", filepath.Join(dir, "functions.toml"))

	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, "deployed: version 12")
	assert.Contains(t, stdout, "not deployed at this commit")
}

func TestCLI_StatusNotARepository(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "functions.toml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o644))
	t.Setenv("FNDEPLOY_REPO_PATH", dir)

	code, _, stderr := runCLI(t, "status", path)

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, stderr, "not a git repository")
}

// =============================================================================
// Manifest Loading Tests
// =============================================================================

func TestLoadFunctions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "functions.toml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o644))

	m, err := loadFunctions(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"api", "worker"}, m.Names())
}

func TestLoadFunctions_UnknownExtensionIsTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lambdas.conf")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o644))

	m, err := loadFunctions(path)
	require.NoError(t, err)
	assert.Len(t, m.Functions, 2)
}

func TestLoadFunctions_Errors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte("[[functions]\nname ="), 0o644))

	_, err := loadFunctions(filepath.Join(dir, "missing.toml"))
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = loadFunctions(bad)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, bad, cfgErr.Path)
	assert.ErrorIs(t, err, manifest.ErrInvalidSyntax)
}
