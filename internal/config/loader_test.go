package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocdoc/vocdoc/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".vocdoc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	// An explicit path that does not exist is an error; the search-path
	// case tolerates absence, but tests cannot rely on the CWD being
	// clean, so defaults are checked through a minimal file instead.
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	cfg, err := config.Load(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Empty(t, cfg.Packages)
	assert.Empty(t, cfg.Build.Include)
	assert.Equal(t, 0, cfg.Build.Workers)
	assert.Equal(t, "docs", cfg.Output.Dir)
	assert.Equal(t, config.FormatMarkdown, cfg.Output.Format)
}

func TestLoadFullConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `packages:
  - dir: knausj_talon
    name: knausj
    namespace: user
  - dir: extra
build:
  include:
    - "**/*.talon"
  exclude:
    - "**/test/**"
  workers: 2
output:
  dir: site
  format: json
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Packages, 2)
	assert.Equal(t, "knausj_talon", cfg.Packages[0].Dir)
	assert.Equal(t, "knausj", cfg.Packages[0].Name)
	assert.Equal(t, "user", cfg.Packages[0].Namespace)
	assert.Equal(t, "extra", cfg.Packages[1].Dir)

	assert.Equal(t, []string{"**/*.talon"}, cfg.Build.Include)
	assert.Equal(t, []string{"**/test/**"}, cfg.Build.Exclude)
	assert.Equal(t, 2, cfg.Build.Workers)

	assert.Equal(t, "site", cfg.Output.Dir)
	assert.Equal(t, config.FormatJSON, cfg.Output.Format)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "negative workers",
			content: "build:\n  workers: -1\n",
			wantErr: config.ErrInvalidWorkers,
		},
		{
			name:    "unknown format",
			content: "output:\n  format: pdf\n",
			wantErr: config.ErrInvalidFormat,
		},
		{
			name:    "package without dir",
			content: "packages:\n  - name: foo\n",
			wantErr: config.ErrMissingPackageDir,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Output: config.OutputConfig{Format: config.FormatYAML},
	}

	require.NoError(t, cfg.Validate())
}
