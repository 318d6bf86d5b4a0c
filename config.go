package emola

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is shared by the emola binaries. Values come from an optional YAML
// file, then from EMOLA_* environment variables.
type Config struct {
	SockPath  string `yaml:"sock"`
	HTTPAddr  string `yaml:"http"`
	LogPath   string `yaml:"log"`
	DBPath    string `yaml:"db"`
	History   string `yaml:"history"`
	MaxDepth  int    `yaml:"max_depth"`
	MaxTraces int    `yaml:"max_traces"`
}

func DefaultConfig() Config {
	return Config{
		SockPath:  "/tmp/emola.sock",
		HTTPAddr:  "127.0.0.1:8087",
		MaxDepth:  DefaultMaxDepth,
		MaxTraces: DefaultMaxTraces,
	}
}

// LoadConfig reads path (when non-empty) over the defaults and then applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"EMOLA_SOCK", &c.SockPath},
		{"EMOLA_HTTP", &c.HTTPAddr},
		{"EMOLA_LOG", &c.LogPath},
		{"EMOLA_DB", &c.DBPath},
		{"EMOLA_HISTORY", &c.History},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok && v != "" {
			*s.dst = v
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"EMOLA_MAX_DEPTH", &c.MaxDepth},
		{"EMOLA_MAX_TRACES", &c.MaxTraces},
	}
	for _, s := range ints {
		v, ok := lookup(s.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		*s.dst = n
	}
	return nil
}
