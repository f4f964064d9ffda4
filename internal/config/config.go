package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/GregMSThompson/dashboard-builder/pkg/helpers"
)

const (
	StorageFile      = "file"
	StorageFirestore = "firestore"
)

type Config struct {
	Port          string
	LogLevel      string
	DataFile      string
	Storage       string
	ProjectID     string
	WatchDataFile bool
	CORSOrigins   []string
	APIURL        string
	RenderDelay   time.Duration
}

// fileConfig is the optional YAML overlay named by CONFIGFILE. Unset fields
// keep the defaults; environment variables win over the file.
type fileConfig struct {
	Port          *string  `yaml:"port"`
	LogLevel      *string  `yaml:"logLevel"`
	DataFile      *string  `yaml:"dataFile"`
	Storage       *string  `yaml:"storage"`
	ProjectID     *string  `yaml:"projectId"`
	WatchDataFile *bool    `yaml:"watchDataFile"`
	CORSOrigins   []string `yaml:"corsOrigins"`
	APIURL        *string  `yaml:"apiUrl"`
	RenderDelay   *string  `yaml:"renderDelay"`
}

func defaults() *Config {
	return &Config{
		Port:        "3000",
		LogLevel:    "info",
		DataFile:    "data.json",
		Storage:     StorageFile,
		CORSOrigins: []string{"*"},
		APIURL:      "http://localhost:3000",
		RenderDelay: 1500 * time.Millisecond,
	}
}

func New() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIGFILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Addr is the server listen address.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	c.Port = helpers.ValueOr(fc.Port, c.Port)
	c.LogLevel = helpers.ValueOr(fc.LogLevel, c.LogLevel)
	c.DataFile = helpers.ValueOr(fc.DataFile, c.DataFile)
	c.Storage = helpers.ValueOr(fc.Storage, c.Storage)
	c.ProjectID = helpers.ValueOr(fc.ProjectID, c.ProjectID)
	c.WatchDataFile = helpers.ValueOr(fc.WatchDataFile, c.WatchDataFile)
	c.APIURL = helpers.ValueOr(fc.APIURL, c.APIURL)
	if len(fc.CORSOrigins) > 0 {
		c.CORSOrigins = fc.CORSOrigins
	}
	if fc.RenderDelay != nil {
		d, err := time.ParseDuration(*fc.RenderDelay)
		if err != nil {
			return fmt.Errorf("parse renderDelay: %w", err)
		}
		c.RenderDelay = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Port = helpers.FirstNonEmpty(os.Getenv("PORT"), c.Port)
	c.LogLevel = helpers.FirstNonEmpty(os.Getenv("LOGLEVEL"), c.LogLevel)
	c.DataFile = helpers.FirstNonEmpty(os.Getenv("DATAFILE"), c.DataFile)
	c.Storage = helpers.FirstNonEmpty(strings.ToLower(os.Getenv("STORAGE")), c.Storage)
	c.ProjectID = helpers.FirstNonEmpty(os.Getenv("PROJECTID"), c.ProjectID)
	c.APIURL = helpers.FirstNonEmpty(os.Getenv("DASHBOARD_API_URL"), c.APIURL)

	if v := os.Getenv("WATCHDATAFILE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse WATCHDATAFILE: %w", err)
		}
		c.WatchDataFile = b
	}
	if v := os.Getenv("CORSORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	if v := os.Getenv("RENDERDELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse RENDERDELAY: %w", err)
		}
		c.RenderDelay = d
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageFile:
		if c.DataFile == "" {
			return fmt.Errorf("DATAFILE is required for file storage")
		}
	case StorageFirestore:
		if c.ProjectID == "" {
			return fmt.Errorf("PROJECTID is required for firestore storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.RenderDelay < 0 {
		return fmt.Errorf("render delay must not be negative")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
