package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/specialistvlad/graphquery/internal/graphfile"
	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/service"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW       io.Writer
	logger     *slog.Logger
	ctx        context.Context
	config     *Config
	nodes      []*node.Node
	client     *service.Client
	httpServer *http.Server
}

// NewApp loads the graph and service settings and builds the service client.
// Settings given in cfg win over a graph file's service block.
func NewApp(outW io.Writer, cfg *Config) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	doc := &graphfile.Document{}
	if len(cfg.GraphPaths) > 0 {
		loaded, err := graphfile.Load(ctx, cfg.GraphPaths...)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph: %w", err)
		}
		doc = loaded
	} else {
		logger.Debug("No graph given, using the built-in graph.")
		doc.Nodes = graphfile.DefaultGraph()
	}

	effective := *cfg
	var endpoints service.Endpoints
	if svc := doc.Service; svc != nil {
		endpoints = svc.Endpoints
		if effective.ServiceURL == "" {
			effective.ServiceURL = svc.URL
		}
		if effective.PollInterval == 0 {
			effective.PollInterval = svc.PollInterval
		}
		if effective.Timeout == 0 {
			effective.Timeout = svc.Timeout
		}
		if effective.HistorySize == 0 {
			effective.HistorySize = svc.HistorySize
		}
	}
	if effective.ServiceURL == "" {
		return nil, fmt.Errorf("no service url: pass --service-url or add a service block to the graph")
	}
	if effective.Timeout == 0 {
		effective.Timeout = defaultTimeout
	}

	client, err := service.New(effective.ServiceURL, effective.Timeout, service.WithEndpoints(endpoints))
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded.", "nodes", len(doc.Nodes), "service_url", effective.ServiceURL)

	return &App{
		outW:   outW,
		logger: logger,
		ctx:    ctx,
		config: &effective,
		nodes:  doc.Nodes,
		client: client,
	}, nil
}

// Config returns the effective configuration. This is primarily for testing.
func (a *App) Config() *Config {
	return a.config
}
