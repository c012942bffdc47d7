// Package config loads haira.yml: the AI model/endpoint, cache
// directory, and per-build call limits. The CLI passes the model,
// endpoint and cache directory on to the driver (internal/build);
// CallTimeout and CallBudget are loaded and defaulted here but are not
// passed on, and the AI Intent Engine runs with
// aiengine.DefaultOptions' 30 s timeout and 100-call budget whatever
// haira.yml sets. Grounded on the teacher's eval_harness.LoadModelsConfig (a
// flat os.ReadFile + yaml.Unmarshal loader returning a struct of plain
// fields), the only YAML-config reader in the teacher's own tree.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is haira.yml's shape (spec §6 env vars mirror these fields so
// either source can set them; env vars win, see Load).
type Config struct {
	AIModel      string        `yaml:"ai_model"`
	AIEndpoint   string        `yaml:"ai_endpoint"`
	CacheDir     string        `yaml:"cache_dir"`
	CallTimeout  time.Duration `yaml:"call_timeout"`
	CallBudget   int           `yaml:"call_budget"`
}

// Default mirrors the teacher's pattern of a single always-valid zero
// state (DefaultOptions in aiengine) rather than requiring a config
// file to exist.
func Default() Config {
	return Config{
		AIModel:     "gemini-2.0-flash",
		CacheDir:    ".haira-cache",
		CallTimeout: 30 * time.Second,
		CallBudget:  100,
	}
}

// Load reads haira.yml at path, falling back to Default() for any field
// the file doesn't set, then applies the three spec §6 environment
// variable overrides (HAIRA_AI_ENDPOINT, HAIRA_AI_MODEL,
// HAIRA_CACHE_DIR), which always win over both the file and the
// built-in default. A missing file is not an error — a project without
// haira.yml still builds with defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if v := os.Getenv("HAIRA_AI_ENDPOINT"); v != "" {
		cfg.AIEndpoint = v
	}
	if v := os.Getenv("HAIRA_AI_MODEL"); v != "" {
		cfg.AIModel = v
	}
	if v := os.Getenv("HAIRA_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	return cfg, nil
}
