package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "formdb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Fallback.Host)
	assert.Equal(t, 3000, cfg.Fallback.Port)
	assert.Equal(t, "formsg", cfg.Fallback.Database)
	assert.Equal(t, ModeEphemeral, cfg.Mode())
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
db:
  uri: mongodb://db.internal:27017/formsg
  options:
    appName: formsg
    maxPoolSize: 20
    retryWrites: false
seed:
  initAgency:
    domain: agency.gov.sg
    shortName: agency
    fullName: The Agency
models:
  - name: Submission
    collection: submissions
    readPreference: secondary
journal:
  path: /var/lib/formdb/journal.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db.internal:27017/formsg", cfg.DB.URI)
	assert.Equal(t, "formsg", cfg.DB.Options.AppName)
	assert.Equal(t, uint64(20), cfg.DB.Options.MaxPoolSize)
	require.NotNil(t, cfg.DB.Options.RetryWrites)
	assert.False(t, *cfg.DB.Options.RetryWrites)
	assert.True(t, cfg.Seed.InitAgency.Complete())
	require.Len(t, cfg.Models, 1)
	assert.Equal(t, "secondary", cfg.Models[0].ReadPreference)
	assert.Equal(t, "/var/lib/formdb/journal.db", cfg.Journal.Path)

	// Fallback defaults survive a file that does not mention them.
	assert.Equal(t, 3000, cfg.Fallback.Port)
	assert.Equal(t, ModeConnected, cfg.Mode())
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_UnknownKey(t *testing.T) {
	_, err := Load(writeConfig(t, "db:\n  url: mongodb://x\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_MissingDefaultPath(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.Journal.Path = "from-file.db"

	cfg.ApplyEnv(envMap(map[string]string{
		EnvDBHost:             "mongodb://env:27017/formsg",
		EnvMongoBinaryVersion: "7.0.14",
		EnvInitAgencyDomain:   "tech.gov.sg",
		EnvInitAgencyShort:    "tech",
		EnvInitAgencyFull:     "Tech Agency",
		EnvJournalPath:        "",
	}))

	assert.Equal(t, "mongodb://env:27017/formsg", cfg.DB.URI)
	assert.Equal(t, "7.0.14", cfg.Fallback.BinaryVersion)
	assert.Equal(t, InitAgency{Domain: "tech.gov.sg", ShortName: "tech", FullName: "Tech Agency"}, cfg.Seed.InitAgency)
	assert.Equal(t, "from-file.db", cfg.Journal.Path, "empty env value must not override")
}

func TestInitAgency_Complete(t *testing.T) {
	tests := []struct {
		name string
		in   InitAgency
		want bool
	}{
		{"all set", InitAgency{"a.gov.sg", "a", "A"}, true},
		{"missing domain", InitAgency{"", "a", "A"}, false},
		{"missing short name", InitAgency{"a.gov.sg", "", "A"}, false},
		{"missing full name", InitAgency{"a.gov.sg", "a", ""}, false},
		{"none", InitAgency{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Complete())
		})
	}
}
