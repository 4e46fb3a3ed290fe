// Package config contains the loader and typed model for kdapps.yaml.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	envparse "github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/codex-k8s/kdapps/internal/env"
)

const (
	// DefaultPath is the configuration file looked up in the working directory.
	DefaultPath = "kdapps.yaml"
	// DefaultLogLevel is used when no level is configured.
	DefaultLogLevel = "info"
)

// Config holds kdapps settings.
type Config struct {
	// StoreDir is the root directory of the template store.
	StoreDir string `yaml:"storeDir,omitempty" env:"KDAPPS_STORE"`
	// Owner selects a per-owner subdirectory of the store.
	Owner string `yaml:"owner,omitempty" env:"KDAPPS_OWNER"`
	// CatalogPath is a YAML or TOML kube type catalog; empty uses the built-in catalog.
	CatalogPath string `yaml:"catalog,omitempty" env:"KDAPPS_CATALOG"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel,omitempty" env:"KDAPPS_LOG_LEVEL"`
	// EnvFiles lists .env files loaded before KDAPPS_* variables are read.
	EnvFiles []string `yaml:"envFiles,omitempty"`
}

// LoadOptions controls where configuration is read from.
type LoadOptions struct {
	// Path is the configuration file. An explicit path must exist; when empty,
	// DefaultPath is used if present.
	Path string
	// Environ is the process environment; nil reads os.Environ.
	Environ env.Vars
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		StoreDir: defaultStoreDir(),
		LogLevel: DefaultLogLevel,
	}
}

func defaultStoreDir() string {
	if dir, err := os.UserConfigDir(); err == nil && dir != "" {
		return filepath.Join(dir, "kdapps", "templates")
	}
	return filepath.Join(".kdapps", "templates")
}

// Load builds the configuration from defaults, the YAML file, its envFiles and KDAPPS_* variables,
// later sources overriding earlier ones. Relative paths in the file are resolved against its directory.
func Load(opts LoadOptions) (*Config, error) {
	cfg := Defaults()
	environ := opts.Environ
	if environ == nil {
		environ = env.FromOS()
	}

	path := strings.TrimSpace(opts.Path)
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	baseDir := "."
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		absPath, absErr := filepath.Abs(path)
		if absErr != nil {
			return nil, fmt.Errorf("resolve config path: %w", absErr)
		}
		baseDir = filepath.Dir(absPath)
		rendered, err := RenderTemplate(path, raw, environ)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(rendered, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
		cfg.resolvePaths(baseDir)
	case os.IsNotExist(err) && !explicit:
	default:
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}

	fileVars, err := env.LoadEnvFiles(baseDir, cfg.EnvFiles)
	if err != nil {
		return nil, err
	}
	vars := env.Merge(fileVars, environ)
	if err := envparse.ParseWithOptions(&cfg, envparse.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse KDAPPS_* environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) resolvePaths(baseDir string) {
	if c.StoreDir != "" && !filepath.IsAbs(c.StoreDir) {
		c.StoreDir = filepath.Join(baseDir, c.StoreDir)
	}
	if c.CatalogPath != "" && !filepath.IsAbs(c.CatalogPath) {
		c.CatalogPath = filepath.Join(baseDir, c.CatalogPath)
	}
}

// RenderTemplate executes the configuration file as a Go template with access to environment
// variables through `env "NAME"` and `envOr "NAME" "fallback"`.
func RenderTemplate(name string, raw []byte, environ env.Vars) ([]byte, error) {
	tpl, err := template.New(filepath.Base(name)).Option("missingkey=zero").Funcs(template.FuncMap{
		"env":   func(key string) string { return environ[key] },
		"envOr": funcEnvOr(environ),
	}).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parse config template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, nil); err != nil {
		return nil, fmt.Errorf("render config template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

func funcEnvOr(environ env.Vars) func(key, def string) string {
	return func(key, def string) string {
		if v := strings.TrimSpace(environ[key]); v != "" {
			return v
		}
		return def
	}
}
