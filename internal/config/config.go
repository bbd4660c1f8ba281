// Package config loads and validates the optional .shellcap YAML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/deixis/shellcap/internal/charset"
)

// FileName is the name of the configuration file.
const FileName = ".shellcap"

// DefaultStoreCapacity is the number of runs kept in memory.
const DefaultStoreCapacity = 5

// Config holds the parsed .shellcap configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version          int    `yaml:"version"`
	RawEncoding      string `yaml:"encoding"`       // WHATWG label, e.g. "utf-8", "latin1"
	SpoolDir         string `yaml:"spool_dir"`      // stderr spool files; default os temp dir
	StoreDir         string `yaml:"store_dir"`      // run records; default <os temp>/shellcap-runs
	RawStoreCapacity int    `yaml:"store_capacity"` // runs cached in memory
	Verbose          bool   `yaml:"verbose"`
}

// Encoding returns the configured output encoding or UTF-8.
func (c *Config) Encoding() string {
	if c.RawEncoding != "" {
		return c.RawEncoding
	}
	return charset.UTF8
}

// StoreCapacity returns the configured in-memory store size or the default.
func (c *Config) StoreCapacity() int {
	if c.RawStoreCapacity > 0 {
		return c.RawStoreCapacity
	}
	return DefaultStoreCapacity
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := charset.Lookup(c.RawEncoding); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if c.RawStoreCapacity < 0 {
		return fmt.Errorf("store_capacity must not be negative, got %d", c.RawStoreCapacity)
	}
	return nil
}

// LoadResult holds the parsed config and where it was found.
type LoadResult struct {
	Config *Config
	Path   string // file that was read; empty when defaults are used
}

// Load finds the nearest .shellcap file by walking upward from dir and
// parses it. If there is none, a default Config is returned.
func Load(dir string) (*LoadResult, error) {
	path, err := find(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: &Config{}}, nil
		}
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

// LoadFile parses and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return cfg, nil
}

// find walks upward from dir looking for a directory containing FileName.
func find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found: %w", FileName, fs.ErrNotExist)
		}
		dir = parent
	}
}
