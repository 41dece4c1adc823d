package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func TestLoad_MergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivr.yaml", `
scheduler:
  tick_interval: 30s
providers:
  github:
    token: ${DELIVR_TEST_GH_TOKEN}
    owner: acme
    repo: widgets
`)
	t.Setenv("DELIVR_TEST_GH_TOKEN", "secret-token")

	doc, err := Load(dir)
	require.NoError(t, err)

	// User override wins for the field it set...
	assert.Equal(t, 30*time.Second, doc.Scheduler.TickInterval)
	// ...and defaults survive for fields the user didn't mention.
	assert.Equal(t, 5*time.Minute, doc.Scheduler.SlotMatchWindow)
	assert.Equal(t, 16, doc.Scheduler.MaxConcurrentTicks)

	assert.Equal(t, "secret-token", doc.Providers.GitHub.Token)
	assert.Equal(t, "acme", doc.Providers.GitHub.Owner)
}

func TestLoad_MissingFileReturnsLoadError(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, filepath.Join(dir, "delivr.yaml"), loadErr.File)
}

func TestLoad_InvalidYAMLReturnsLoadError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivr.yaml", "scheduler: [not, a, map}")

	_, err := Load(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestLoad_LoadsReleaseTemplatesByFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivr.yaml", minimalValidYAML())
	writeFile(t, dir, "release-configs/default.yaml", `
ci_config_id: default-ci
test_mgmt_id: default-test
pm_ids_by_platform:
  android: ANDROID
notification_channels:
  - releases
kick_off_reminder_offset: 24h
`)
	writeFile(t, dir, "release-configs/hotfix.yaml", `
ci_config_id: hotfix-ci
test_mgmt_id: hotfix-test
kick_off_reminder_offset: 1h
`)

	doc, err := Load(dir)
	require.NoError(t, err)
	require.Contains(t, doc.ReleaseConfig, "default")
	require.Contains(t, doc.ReleaseConfig, "hotfix")
	assert.Equal(t, "default-ci", doc.ReleaseConfig["default"].CIConfigID)
	assert.Equal(t, 24*time.Hour, doc.ReleaseConfig["default"].KickOffReminderOffset)
	assert.Equal(t, "hotfix-ci", doc.ReleaseConfig["hotfix"].CIConfigID)
}

func TestLoad_MissingReleaseConfigsDirIsNotAnError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "delivr.yaml", minimalValidYAML())

	doc, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, doc.ReleaseConfig)
}

func minimalValidYAML() string {
	return `
scheduler:
  tick_interval: 10s
  slot_match_window: 5m
  provider_timeout: 8s
  max_concurrent_ticks: 16
polling:
  pending_poll_interval: 20s
  running_poll_interval: 30s
  status_call_timeout: 8s
`
}
