package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	BindFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t, "--data-dir", t.TempDir()))
	require.NoError(t, err)

	assert.Equal(t, StoreDiskv, cfg.Store)
	assert.Equal(t, "drafts", cfg.DraftsKey)
	assert.Equal(t, "uploadSurveys", cfg.SurveysKey)
	assert.Equal(t, "uploadSurveys", cfg.Endpoint)
	assert.Equal(t, "http://localhost:8080/api/health", cfg.ProbeURL)
	assert.Equal(t, 1, cfg.SpecializedTemplate)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
	assert.Equal(t, "http://localhost:8080", cfg.Url())
}

func TestLoadEnvironmentOverridesDefault(t *testing.T) {
	t.Setenv("FIELDSURVEY_STORE", "memory")
	t.Setenv("FIELDSURVEY_SPECIALIZED_TEMPLATE", "4")

	cfg, err := Load(newFlags(t, "--remote", "http://example.test/api/"))
	require.NoError(t, err)

	assert.Equal(t, StoreMemory, cfg.Store)
	assert.Equal(t, 4, cfg.SpecializedTemplate)
	assert.Equal(t, "http://example.test/api", cfg.Remote)
	assert.Equal(t, "http://example.test/api/health", cfg.ProbeURL)
}

func TestLoadLocalRemote(t *testing.T) {
	cfg, err := Load(newFlags(t, "--remote", "local"))
	require.NoError(t, err)
	assert.True(t, cfg.LocalRemote())
	assert.Empty(t, cfg.ProbeURL)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	_, err := Load(newFlags(t, "--store", "floppy"))
	assert.Error(t, err)

	_, err = Load(newFlags(t, "--drafts-key", "same", "--surveys-key", "same"))
	assert.Error(t, err)
}
