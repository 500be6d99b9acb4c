package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", c.HTTPAddr)
	assert.Equal(t, "snackfly_scratch_game", c.StorageKey)
	assert.Equal(t, 300, c.SurfaceWidth)
	assert.Equal(t, 200, c.SurfaceHeight)
	assert.Equal(t, 30.0, c.BrushSize)
	assert.Equal(t, 40.0, c.MobileBrushSize)
	assert.Equal(t, 0.7, c.Threshold())
	assert.Equal(t, time.Hour, c.SessionTTL)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_DSN", "scratch.db")
	t.Setenv("REVEAL_THRESHOLD", "50")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_VERBOSE", "true")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", c.HTTPAddr)
	assert.Equal(t, "sqlite", c.StoreDriver)
	assert.Equal(t, "scratch.db", c.StoreDSN)
	assert.Equal(t, 0.5, c.Threshold())
	assert.Equal(t, 15*time.Minute, c.SessionTTL)
	assert.True(t, c.LogVerbose)

	loc, err := c.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scratchcard.toml")
	content := `
http_addr = ":7070"
store_driver = "memory"
surface_width = 100
surface_height = 50
brush_size = 12.5
session_ttl = "2h"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("SCRATCH_CONFIG", path)
	// Environment still wins over the file.
	t.Setenv("SURFACE_HEIGHT", "60")

	c, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":7070", c.HTTPAddr)
	assert.Equal(t, "memory", c.StoreDriver)
	assert.Equal(t, 100, c.SurfaceWidth)
	assert.Equal(t, 60, c.SurfaceHeight)
	assert.Equal(t, 12.5, c.BrushSize)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][2]string{
		"threshold above 100":  {"REVEAL_THRESHOLD", "120"},
		"threshold not number": {"REVEAL_THRESHOLD", "most"},
		"bad width":            {"SURFACE_WIDTH", "wide"},
		"bad ttl":              {"SESSION_TTL", "forever"},
		"bad driver":           {"STORE_DRIVER", "etcd"},
		"bad timezone":         {"TIMEZONE", "Mars/Olympus"},
		"bad verbose":          {"LOG_VERBOSE", "loud"},
		"zero brush":           {"BRUSH_SIZE", "0"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_MissingConfigFile(t *testing.T) {
	t.Setenv("SCRATCH_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))
	_, err := Load()
	require.Error(t, err)
}

func TestLoad_TOMLSessionTTL(t *testing.T) {
	write := func(t *testing.T, ttl string) {
		path := filepath.Join(t.TempDir(), "scratchcard.toml")
		require.NoError(t, os.WriteFile(path, []byte(`session_ttl = "`+ttl+`"`), 0o644))
		t.Setenv("SCRATCH_CONFIG", path)
	}

	t.Run("Duration string sets SessionTTL", func(t *testing.T) {
		write(t, "45m")
		c, err := Load()
		require.NoError(t, err)
		assert.Equal(t, 45*time.Minute, c.SessionTTL)
	})

	t.Run("Invalid duration is rejected", func(t *testing.T) {
		write(t, "forever")
		_, err := Load()
		require.ErrorContains(t, err, "session_ttl")
	})

	t.Run("Raw form is not part of Config", func(t *testing.T) {
		for i := 0; i < reflect.TypeOf(Config{}).NumField(); i++ {
			f := reflect.TypeOf(Config{}).Field(i)
			assert.NotEqual(t, "session_ttl", f.Tag.Get("toml"), "field %s", f.Name)
		}
	})
}
