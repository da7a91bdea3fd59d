package main

import (
	"fmt"
	"os"

	"github.com/odvcencio/logis/pkg/config"
	"github.com/odvcencio/logis/pkg/history"
	"github.com/odvcencio/logis/pkg/logging"
	"github.com/odvcencio/logis/pkg/query"
	"github.com/odvcencio/logis/pkg/terminal"
)

type runtimeDeps struct {
	cfg    *config.Config
	repo   *history.Repository
	logger *logging.Logger
	out    *terminal.Writer
	errOut *terminal.Writer
}

// initDependenciesFn allows tests to stub dependency initialization.
var initDependenciesFn = initDependencies

func initDependencies() (*runtimeDeps, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if noColor {
		cfg.Output.Color = false
	}

	logger := openLogger(cfg)

	repo, err := history.Open(repoPath,
		history.WithStageStrategy(cfg.StageStrategy()),
		history.WithAuthor(cfg.Commit.AuthorName, cfg.Commit.AuthorEmail),
		history.WithLogger(logger),
	)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	return &runtimeDeps{
		cfg:    cfg,
		repo:   repo,
		logger: logger,
		out:    terminal.NewWithOptions(os.Stdout, terminal.Options{Color: cfg.Output.Color}),
		errOut: terminal.NewWithOptions(os.Stderr, terminal.Options{Color: cfg.Output.Color}),
	}, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.LoadFrom(config.ResolveProjectRoot(repoPath))
}

// openLogger returns nil when session logging is disabled or unavailable.
func openLogger(cfg *config.Config) *logging.Logger {
	if !cfg.Logging.Enabled {
		return nil
	}
	logger, err := logging.NewLogger(cfg.LogDir(), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: session logging disabled: %v\n", err)
		return nil
	}
	logger.SetMinLevel(cfg.LogLevel())
	return logger
}

func (d *runtimeDeps) queryService() *query.Service {
	return query.NewService(d.repo, d.logger)
}

// shaWidth is the number of characters used when printing commit ids.
func (d *runtimeDeps) shaWidth(full bool) int {
	if full || d.cfg.Query.FullSHA {
		return 40
	}
	return d.cfg.Query.ShortSHALength
}

func (d *runtimeDeps) Close() {
	if d == nil {
		return
	}
	_ = d.logger.Close()
}
