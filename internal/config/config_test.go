package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CONFIGFILE", "PORT", "LOGLEVEL", "DATAFILE", "STORAGE", "PROJECTID", "WATCHDATAFILE", "CORSORIGINS", "DASHBOARD_API_URL", "RENDERDELAY"} {
		t.Setenv(k, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
	assert.Equal(t, "data.json", cfg.DataFile)
	assert.Equal(t, StorageFile, cfg.Storage)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, 1500*time.Millisecond, cfg.RenderDelay)
	assert.False(t, cfg.WatchDataFile)
}

func TestNew_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "8081")
	t.Setenv("WATCHDATAFILE", "true")
	t.Setenv("CORSORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RENDERDELAY", "10ms")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Port)
	assert.True(t, cfg.WatchDataFile)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.Equal(t, 10*time.Millisecond, cfg.RenderDelay)
}

func TestNew_FileOverlayThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"9000\"\ndataFile: /tmp/widgets.json\nwatchDataFile: true\nrenderDelay: 2s\n"), 0o644))
	t.Setenv("CONFIGFILE", path)
	t.Setenv("PORT", "9100")

	cfg, err := New()
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port, "env wins over file")
	assert.Equal(t, "/tmp/widgets.json", cfg.DataFile)
	assert.True(t, cfg.WatchDataFile)
	assert.Equal(t, 2*time.Second, cfg.RenderDelay)
}

func TestNew_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown storage":        {"STORAGE": "s3"},
		"firestore no project":   {"STORAGE": "firestore"},
		"bad watch flag":         {"WATCHDATAFILE": "maybe"},
		"bad port":               {"PORT": "http"},
		"bad render delay":       {"RENDERDELAY": "soon"},
		"missing config overlay": {"CONFIGFILE": "/nonexistent/config.yaml"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}
