// Package config loads application configuration from layered sources.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/codeassist-ai/codeassist/pkg/types"
)

// Defaults for the conversation and session policies.
const (
	DefaultMaxHistory           = 10
	DefaultTemperature          = 0.7
	DefaultContextFiles         = 5
	DefaultContextCharBudget    = 24000
	DefaultContextRefreshWindow = 3
	DefaultSessionTimeout       = 3600 // seconds
	DefaultSweepInterval        = 300  // seconds
)

// Load merges configuration from, in priority order:
//
//  1. built-in defaults
//  2. global config (~/.config/codeassist/)
//  3. project config (<directory>/)
//  4. CODEASSIST_CONFIG file override
//  5. environment variables
//
// Config files may be JSON, JSONC, or YAML; string values support
// {env:VAR} interpolation.
func Load(directory string) (*types.Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		globalDir := filepath.Join(home, ".config", "codeassist")
		loadFirst(cfg, globalDir)
	}

	if directory != "" {
		loadFirst(cfg, directory)
	}

	if path := os.Getenv("CODEASSIST_CONFIG"); path != "" {
		loadFile(path, cfg)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *types.Config {
	return &types.Config{
		Provider:             make(map[string]types.ProviderConfig),
		MaxHistory:           DefaultMaxHistory,
		Temperature:          DefaultTemperature,
		ContextFiles:         DefaultContextFiles,
		ContextCharBudget:    DefaultContextCharBudget,
		ContextRefreshWindow: DefaultContextRefreshWindow,
		SessionTimeout:       DefaultSessionTimeout,
		SweepInterval:        DefaultSweepInterval,
		UploadDir:            "uploads",
	}
}

// loadFirst loads the first config file found in dir.
func loadFirst(cfg *types.Config, dir string) {
	for _, name := range []string{"codeassist.json", "codeassist.jsonc", "codeassist.yaml", "codeassist.yml"} {
		if loadFile(filepath.Join(dir, name), cfg) == nil {
			return
		}
	}
}

// loadFile parses one config file into cfg.
func loadFile(path string, cfg *types.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	data = interpolate(data)

	var fileCfg types.Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fileCfg)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &fileCfg)
	}
	if err != nil {
		return err
	}

	merge(cfg, &fileCfg)
	return nil
}

var envPattern = regexp.MustCompile(`\{env:([^}]+)\}`)

// interpolate replaces {env:VAR} placeholders with environment values.
func interpolate(data []byte) []byte {
	return envPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envPattern.FindSubmatch(match)[1]
		return []byte(os.Getenv(string(name)))
	})
}

// merge overlays non-zero fields of src onto dst.
func merge(dst, src *types.Config) {
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.MaxHistory > 0 {
		dst.MaxHistory = src.MaxHistory
	}
	if src.Temperature > 0 {
		dst.Temperature = src.Temperature
	}
	if src.ContextFiles > 0 {
		dst.ContextFiles = src.ContextFiles
	}
	if src.ContextCharBudget > 0 {
		dst.ContextCharBudget = src.ContextCharBudget
	}
	if src.ContextRefreshWindow > 0 {
		dst.ContextRefreshWindow = src.ContextRefreshWindow
	}
	if src.SessionTimeout > 0 {
		dst.SessionTimeout = src.SessionTimeout
	}
	if src.SweepInterval > 0 {
		dst.SweepInterval = src.SweepInterval
	}
	if src.UploadDir != "" {
		dst.UploadDir = src.UploadDir
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Pretty {
		dst.Log.Pretty = true
	}
	for id, pc := range src.Provider {
		existing := dst.Provider[id]
		if pc.APIKey != "" {
			existing.APIKey = pc.APIKey
		}
		if pc.BaseURL != "" {
			existing.BaseURL = pc.BaseURL
		}
		if pc.Model != "" {
			existing.Model = pc.Model
		}
		if pc.MaxTokens > 0 {
			existing.MaxTokens = pc.MaxTokens
		}
		dst.Provider[id] = existing
	}
}

// applyEnvOverrides applies CODEASSIST_* environment variables, the
// highest-priority source.
func applyEnvOverrides(cfg *types.Config) {
	if v := os.Getenv("CODEASSIST_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("CODEASSIST_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CODEASSIST_SESSION_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SessionTimeout = n
		}
	}
	if v := os.Getenv("CODEASSIST_UPLOAD_DIR"); v != "" {
		cfg.UploadDir = v
	}
}
