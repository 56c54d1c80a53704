package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/deskshell/common"
)

func TestLoad_MissingFileWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deskshell", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, common.ThemeSystem, cfg.ThemeMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, common.DefaultLogMaxSizeMB, cfg.LogMaxSizeMB)
	assert.True(t, cfg.ShowTray)
	assert.Equal(t, path, cfg.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Config
		wantErr bool
	}{
		{
			name:    "valid",
			content: "theme_mode: dark\nlog_level: debug\nlog_max_size_mb: 5\nheadless: true\nshow_tray: false\n",
			want:    &Config{ThemeMode: "dark", LogLevel: "debug", LogMaxSizeMB: 5, Headless: true, ShowTray: false},
		},
		{
			name:    "partial keeps defaults",
			content: "theme_mode: light\n",
			want:    &Config{ThemeMode: "light", LogLevel: "info", LogMaxSizeMB: common.DefaultLogMaxSizeMB, ShowTray: true},
		},
		{
			name:    "invalid values fall back",
			content: "theme_mode: auto\nlog_level: trace\nlog_max_size_mb: -1\n",
			want:    &Config{ThemeMode: "system", LogLevel: "info", LogMaxSizeMB: common.DefaultLogMaxSizeMB, ShowTray: true},
		},
		{
			name:    "unknown field",
			content: "theme: dark\n",
			wantErr: true,
		},
		{
			name:    "malformed",
			content: "theme_mode: [dark\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			cfg, err := Load(path)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrConfigLoad)
				return
			}
			require.NoError(t, err)
			tt.want.path = path
			assert.Equal(t, tt.want, cfg)
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := Load(path)
	require.NoError(t, err)

	cfg.ThemeMode = common.ThemeDark
	require.NoError(t, cfg.Save())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, common.ThemeDark, again.ThemeMode)
}
