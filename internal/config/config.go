// Package config holds the viewer settings read from a YAML or JSON(C)
// file and overridden by command-line flags.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"resultsview/internal/artifact"
	"resultsview/internal/logging"
	"resultsview/internal/manifest"
)

// Config is the complete viewer configuration.
type Config struct {
	Addr string `json:"addr" yaml:"addr"`

	// Origin is an HTTP origin serving the results tree. When empty,
	// artifacts are read from the local web root Root.
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
	Root   string `json:"root,omitempty" yaml:"root,omitempty"`

	// Dir is a local results folder served as if the user had selected it.
	Dir   string `json:"dir,omitempty" yaml:"dir,omitempty"`
	Watch bool   `json:"watch,omitempty" yaml:"watch,omitempty"`

	Candidates  []string `json:"candidates" yaml:"candidates"`
	ShapCases   []string `json:"shap_cases" yaml:"shap_cases"`
	ReportCases []string `json:"report_cases" yaml:"report_cases"`

	Timeout        Duration `json:"timeout" yaml:"timeout"`
	WatchDebounce  Duration `json:"watch_debounce" yaml:"watch_debounce"`
	MaxUploadBytes int64    `json:"max_upload_bytes" yaml:"max_upload_bytes"`

	Log Log `json:"log" yaml:"log"`
}

// Log selects the slog level and handler format.
type Log struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:           "127.0.0.1:8080",
		Root:           ".",
		Candidates:     slices.Clone(artifact.DefaultCandidates),
		ShapCases:      slices.Clone(manifest.ShapCases),
		ReportCases:    slices.Clone(manifest.ReportCases),
		Timeout:        Duration(10 * time.Second),
		WatchDebounce:  Duration(300 * time.Millisecond),
		MaxUploadBytes: 512 << 20,
		Log:            Log{Level: "info", Format: "text"},
	}
}

// LoadFromPath reads a config file (YAML, JSON or JSONC) over the defaults.
// Format is detected by extension (.yaml/.yml, .json/.jsonc) or by content.
func LoadFromPath(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses config bytes over the defaults. ext is a format hint; empty
// means detect from content.
func Load(data []byte, ext string) (Config, error) {
	cfg := Default()
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return cfg, decodeYAML(data, &cfg)
	case ".json", ".jsonc":
		return cfg, decodeJSON(data, &cfg)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "/*") {
		return cfg, decodeJSON(data, &cfg)
	}
	return cfg, decodeYAML(data, &cfg)
}

func decodeYAML(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

func decodeJSON(data []byte, cfg *Config) error {
	if err := json.Unmarshal(jsonc.ToJSON(data), cfg); err != nil {
		return fmt.Errorf("parse config json: %w", err)
	}
	return nil
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is empty"))
	}
	if c.Origin != "" && !strings.HasPrefix(c.Origin, "http://") && !strings.HasPrefix(c.Origin, "https://") {
		errs = append(errs, fmt.Errorf("origin %q is not an http(s) URL", c.Origin))
	}
	if len(c.Candidates) == 0 {
		errs = append(errs, errors.New("candidates is empty"))
	}
	if c.Watch && c.Dir == "" {
		errs = append(errs, errors.New("watch requires dir"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max_upload_bytes must be positive"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if !logging.ValidFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log format %q: want text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// Fetcher builds the remote fetcher selected by Origin or Root.
func (c Config) Fetcher() artifact.Fetcher {
	if c.Origin != "" {
		return artifact.NewHTTPFetcher(c.Origin, c.Timeout.Std())
	}
	root := c.Root
	if root == "" {
		root = "."
	}
	return artifact.DirFetcher{Root: root}
}
