package config

import (
	"os"

	"gopkg.in/yaml.v3"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
)

// loadAndMerge loads a YAML file and merges it into the config.
func loadAndMerge(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var override Config
	if err := yaml.Unmarshal(data, &override); err != nil {
		return logiserrors.Wrap(err, logiserrors.ErrCodeConfigParse, "parsing YAML").
			WithContext("path", path)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return logiserrors.Wrap(err, logiserrors.ErrCodeConfigParse, "parsing YAML").
			WithContext("path", path)
	}

	mergeConfigs(cfg, &override, raw)
	return nil
}

// mergeConfigs merges override into base. Booleans and zero-valid numbers
// only override when the key is present in raw.
func mergeConfigs(base, override *Config, raw map[string]any) {
	if override == nil {
		return
	}

	if override.Commit.Template != "" {
		base.Commit.Template = override.Commit.Template
	}
	if override.Commit.Strategy != "" {
		base.Commit.Strategy = override.Commit.Strategy
	}
	if override.Commit.AuthorName != "" {
		base.Commit.AuthorName = override.Commit.AuthorName
	}
	if override.Commit.AuthorEmail != "" {
		base.Commit.AuthorEmail = override.Commit.AuthorEmail
	}
	if boolFieldSet(raw, "commit", "dry_run") {
		base.Commit.DryRun = override.Commit.DryRun
	}

	if boolFieldSet(raw, "query", "default_limit") {
		base.Query.DefaultLimit = override.Query.DefaultLimit
	}
	if boolFieldSet(raw, "query", "full_sha") {
		base.Query.FullSHA = override.Query.FullSHA
	}
	if override.Query.ShortSHALength != 0 {
		base.Query.ShortSHALength = override.Query.ShortSHALength
	}

	if boolFieldSet(raw, "logging", "enabled") {
		base.Logging.Enabled = override.Logging.Enabled
	}
	if override.Logging.Dir != "" {
		base.Logging.Dir = override.Logging.Dir
	}
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if boolFieldSet(raw, "output", "color") {
		base.Output.Color = override.Output.Color
	}
}

func boolFieldSet(raw map[string]any, path ...string) bool {
	if len(path) == 0 || raw == nil {
		return false
	}
	current := any(raw)
	for _, key := range path {
		m, ok := current.(map[string]any)
		if !ok {
			return false
		}
		val, ok := m[key]
		if !ok {
			return false
		}
		current = val
	}
	return true
}
