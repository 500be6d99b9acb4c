package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config is the runtime configuration of the scratch card server.
type Config struct {
	HTTPAddr        string        `toml:"http_addr"`
	StoreDriver     string        `toml:"store_driver"`
	StoreDSN        string        `toml:"store_dsn"`
	StorageKey      string        `toml:"storage_key"`
	SurfaceWidth    int           `toml:"surface_width"`
	SurfaceHeight   int           `toml:"surface_height"`
	BrushSize       float64       `toml:"brush_size"`
	MobileBrushSize float64       `toml:"mobile_brush_size"`
	RevealThreshold float64       `toml:"reveal_threshold"` // percent
	SessionTTL      time.Duration `toml:"-"`
	CleanupSchedule string        `toml:"cleanup_schedule"`
	SessionSecret   string        `toml:"session_secret"`
	Timezone        string        `toml:"timezone"`
	LogVerbose      bool          `toml:"log_verbose"`
}

// fileDurations holds the TOML keys written as duration strings.
type fileDurations struct {
	SessionTTL string `toml:"session_ttl"`
}

// Default returns the settings of the published widget.
func Default() Config {
	return Config{
		HTTPAddr:        ":8080",
		StoreDriver:     "file",
		StoreDSN:        "data",
		StorageKey:      "snackfly_scratch_game",
		SurfaceWidth:    300,
		SurfaceHeight:   200,
		BrushSize:       30,
		MobileBrushSize: 40,
		RevealThreshold: 70,
		SessionTTL:      time.Hour,
		CleanupSchedule: "@every 10m",
		SessionSecret:   "scratchcard-dev-secret",
		Timezone:        "Local",
	}
}

// Load reads .env (if present), then the TOML file named by SCRATCH_CONFIG
// (if set), then individual environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	c := Default()

	if path := os.Getenv("SCRATCH_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := c.loadEnv(); err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	var durations fileDurations
	if err := toml.Unmarshal(b, &durations); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if durations.SessionTTL != "" {
		d, err := time.ParseDuration(durations.SessionTTL)
		if err != nil {
			return fmt.Errorf("invalid session_ttl %q: %w", durations.SessionTTL, err)
		}
		c.SessionTTL = d
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.HTTPAddr = envOr("HTTP_ADDR", c.HTTPAddr)
	c.StoreDriver = envOr("STORE_DRIVER", c.StoreDriver)
	c.StoreDSN = envOr("STORE_DSN", c.StoreDSN)
	c.StorageKey = envOr("STORAGE_KEY", c.StorageKey)
	c.CleanupSchedule = envOr("CLEANUP_SCHEDULE", c.CleanupSchedule)
	c.SessionSecret = envOr("SESSION_SECRET", c.SessionSecret)
	c.Timezone = envOr("TIMEZONE", c.Timezone)

	var err error
	if c.SurfaceWidth, err = envInt("SURFACE_WIDTH", c.SurfaceWidth); err != nil {
		return err
	}
	if c.SurfaceHeight, err = envInt("SURFACE_HEIGHT", c.SurfaceHeight); err != nil {
		return err
	}
	if c.BrushSize, err = envFloat("BRUSH_SIZE", c.BrushSize); err != nil {
		return err
	}
	if c.MobileBrushSize, err = envFloat("MOBILE_BRUSH_SIZE", c.MobileBrushSize); err != nil {
		return err
	}
	if c.RevealThreshold, err = envFloat("REVEAL_THRESHOLD", c.RevealThreshold); err != nil {
		return err
	}

	if v := os.Getenv("SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL %q: %w", v, err)
		}
		c.SessionTTL = d
	}

	if v := os.Getenv("LOG_VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_VERBOSE %q: %w", v, err)
		}
		c.LogVerbose = b
	}
	return nil
}

// Validate rejects settings the service cannot run with. A zero-sized
// surface is left to the session start, which reports it to the client.
func (c Config) Validate() error {
	if c.RevealThreshold <= 0 || c.RevealThreshold > 100 {
		return fmt.Errorf("REVEAL_THRESHOLD must be in (0, 100], got %v", c.RevealThreshold)
	}
	if c.BrushSize <= 0 {
		return fmt.Errorf("BRUSH_SIZE must be positive, got %v", c.BrushSize)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %v", c.SessionTTL)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.StoreDriver) {
	case "memory", "file", "sqlite", "redis", "postgres":
	default:
		return fmt.Errorf("invalid STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// Threshold returns the reveal threshold as a fraction.
func (c Config) Threshold() float64 {
	return c.RevealThreshold / 100
}

// Location resolves Timezone; "Local" and "" mean the process zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return f, nil
}
