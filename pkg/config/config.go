package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	logiserrors "github.com/odvcencio/logis/pkg/errors"
	"github.com/odvcencio/logis/pkg/history"
	"github.com/odvcencio/logis/pkg/logging"
)

const (
	// DirName is the per-user and per-project configuration directory.
	DirName = ".logis"
	// FileName is the configuration file inside DirName.
	FileName = "config.yaml"
	// EnvDryRun turns every commit into a dry run when set to a true value.
	EnvDryRun = "LOGIS_DRY_RUN"
)

// Config represents the complete logis configuration
type Config struct {
	Commit  CommitConfig  `yaml:"commit"`
	Query   QueryConfig   `yaml:"query"`
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
}

// CommitConfig controls how runs are committed
type CommitConfig struct {
	Template    string `yaml:"template"`
	Strategy    string `yaml:"strategy"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	DryRun      bool   `yaml:"dry_run"`
}

// QueryConfig controls query defaults
type QueryConfig struct {
	DefaultLimit   int  `yaml:"default_limit"`
	FullSHA        bool `yaml:"full_sha"`
	ShortSHALength int  `yaml:"short_sha_length"`
}

// LoggingConfig controls the JSONL session logs
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
	Level   string `yaml:"level"`
}

// OutputConfig controls terminal output
type OutputConfig struct {
	Color bool `yaml:"color"`
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() *Config {
	return &Config{
		Commit: CommitConfig{
			Template: "run {name}",
			Strategy: string(history.StageAll),
		},
		Query: QueryConfig{
			DefaultLimit:   0,
			ShortSHALength: 7,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Dir:     filepath.Join("~", DirName, "logs"),
			Level:   string(logging.LevelInfo),
		},
		Output: OutputConfig{
			Color: true,
		},
	}
}

// Load builds the configuration for the current directory.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, logiserrors.Wrap(err, logiserrors.ErrCodeConfigLoad, "resolve working directory")
	}
	return LoadFrom(ResolveProjectRoot(cwd))
}

// LoadFrom layers, in order: defaults, ~/.logis/config.yaml,
// <projectRoot>/.logis/config.yaml and LOGIS_* environment variables.
func LoadFrom(projectRoot string) (*Config, error) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	if home != "" {
		userConfigPath := filepath.Join(home, DirName, FileName)
		if err := loadAndMerge(cfg, userConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, wrapLoadError(err, userConfigPath)
		}
	}

	if projectRoot != "" {
		projectConfigPath := filepath.Join(projectRoot, DirName, FileName)
		if err := loadAndMerge(cfg, projectConfigPath); err != nil && !os.IsNotExist(err) {
			return nil, wrapLoadError(err, projectConfigPath)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file path
func LoadFromPath(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := loadAndMerge(cfg, path); err != nil {
		return nil, wrapLoadError(err, path)
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func wrapLoadError(err error, path string) error {
	if logiserrors.GetCode(err) == logiserrors.ErrCodeConfigParse {
		return err
	}
	return logiserrors.Wrap(err, logiserrors.ErrCodeConfigLoad, "read config file").
		WithContext("path", path)
}

func applyEnvOverrides(cfg *Config) error {
	if val, ok := envBool(EnvDryRun); ok {
		cfg.Commit.DryRun = val
	}
	if v := os.Getenv("LOGIS_COMMIT_TEMPLATE"); v != "" {
		cfg.Commit.Template = v
	}
	if v := os.Getenv("LOGIS_STAGE_STRATEGY"); v != "" {
		cfg.Commit.Strategy = v
	}
	if v := os.Getenv("LOGIS_AUTHOR_NAME"); v != "" {
		cfg.Commit.AuthorName = v
	}
	if v := os.Getenv("LOGIS_AUTHOR_EMAIL"); v != "" {
		cfg.Commit.AuthorEmail = v
	}
	if v := os.Getenv("LOGIS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LOGIS_LOG_DIR"); v != "" {
		cfg.Logging.Dir = v
	}
	if v := strings.TrimSpace(os.Getenv("LOGIS_QUERY_LIMIT")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return logiserrors.Wrap(err, logiserrors.ErrCodeConfigInvalid, "LOGIS_QUERY_LIMIT must be an integer").
				WithContext("value", v)
		}
		cfg.Query.DefaultLimit = limit
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.Output.Color = false
	}
	return nil
}

// DryRunFromEnv reports whether LOGIS_DRY_RUN asks for commits to be
// suppressed.
func DryRunFromEnv() bool {
	val, ok := envBool(EnvDryRun)
	return ok && val
}

func envBool(key string) (bool, bool) {
	val := os.Getenv(key)
	if val == "" {
		return false, false
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// StageStrategy returns the parsed commit.strategy.
func (c *Config) StageStrategy() history.StageStrategy {
	s, err := history.ParseStageStrategy(c.Commit.Strategy)
	if err != nil {
		return history.StageAll
	}
	return s
}

// LogLevel returns the parsed logging.level.
func (c *Config) LogLevel() logging.Level {
	level, ok := logging.ParseLevel(c.Logging.Level)
	if !ok {
		return logging.LevelInfo
	}
	return level
}

// LogDir returns logging.dir with ~ expanded.
func (c *Config) LogDir() string {
	return expandHomeDir(c.Logging.Dir)
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Commit.Template) == "" {
		return invalid("commit.template must not be empty")
	}
	if strings.ContainsAny(c.Commit.Template, "\r\n") {
		return invalid("commit.template must be a single line")
	}
	if _, err := history.ParseStageStrategy(c.Commit.Strategy); err != nil {
		return invalid("commit.strategy must be one of: all, tracked, none").
			WithContext("value", c.Commit.Strategy)
	}
	if c.Query.DefaultLimit < 0 {
		return invalid("query.default_limit must be zero (unlimited) or positive")
	}
	if c.Query.ShortSHALength < 4 || c.Query.ShortSHALength > 40 {
		return invalid("query.short_sha_length must be between 4 and 40").
			WithContext("value", c.Query.ShortSHALength)
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok {
		return invalid("logging.level must be one of: debug, info, warn, error").
			WithContext("value", c.Logging.Level)
	}
	if c.Logging.Enabled && strings.TrimSpace(c.Logging.Dir) == "" {
		return invalid("logging.dir is required when logging is enabled")
	}
	return nil
}

func invalid(message string) *logiserrors.Error {
	return logiserrors.New(logiserrors.ErrCodeConfigInvalid, message).
		WithRemediation("Fix the value in ~/.logis/config.yaml, .logis/config.yaml or the LOGIS_* environment")
}
