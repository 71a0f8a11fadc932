package app

import (
	"errors"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
// Zero values mean "not set"; settings from a graph file's service block fill
// them in before defaults apply.
type Config struct {
	GraphPaths []string // .hcl / .json files or directories; empty selects the built-in graph

	ServiceURL   string
	PollInterval time.Duration
	Timeout      time.Duration
	HistorySize  int

	// Dataset and Bands seed the graph's dataset node. Both are needed.
	Dataset string
	Bands   []string

	Preview   bool
	OutputDir string

	NotifyURL       string
	NotifyNamespace string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
}

const (
	defaultTimeout   = 60 * time.Second
	defaultOutputDir = "."
)

func NewConfig(cfg Config) (*Config, error) {
	if cfg.PollInterval < 0 {
		return nil, errors.New("poll interval cannot be negative")
	}
	if cfg.HistorySize < 0 {
		return nil, errors.New("history size cannot be negative")
	}
	if (cfg.Dataset == "") != (len(cfg.Bands) == 0) {
		return nil, errors.New("dataset and bands must be given together")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = defaultOutputDir
	}
	return &cfg, nil
}
