package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/graphquery/internal/app"
	"github.com/specialistvlad/graphquery/internal/graphfile"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// envPrefix names the environment variables that supply flag defaults:
// -service-url is read from GRAPHQUERY_SERVICE_URL, and so on.
const envPrefix = "GRAPHQUERY_"

// pathList collects a repeatable path flag. Paths taken from the
// environment are replaced, not extended, by the first command-line value.
type pathList struct {
	paths   []string
	fromEnv bool
}

func (p *pathList) String() string {
	if p == nil {
		return ""
	}
	return strings.Join(p.paths, ",")
}

func (p *pathList) Set(v string) error {
	if p.fromEnv {
		p.paths, p.fromEnv = nil, false
	}
	p.paths = append(p.paths, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("graphquery", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
graphquery - Submit an image-processing graph to a raster query service.

Usage:
  graphquery [options] [GRAPH_PATH...]

Arguments:
  GRAPH_PATH
    A .hcl or .json graph file, or a directory of them. Without one the
    built-in Landsat graph is used.

Options:
`)
		flagSet.PrintDefaults()
	}

	var graphs pathList
	flagSet.Var(&graphs, "graph", "Path to a graph file or directory. Repeatable.")
	flagSet.Var(&graphs, "g", "Path to a graph file or directory (shorthand).")
	serviceURLFlag := flagSet.String("service-url", "", "Base URL of the query service, e.g. http://localhost:8080/rsa.")
	previewFlag := flagSet.Bool("preview", true, "Request a preview image. With -preview=false a full output is produced and downloaded.")
	outputDirFlag := flagSet.String("output-dir", ".", "Directory previews and downloads are written to.")
	datasetFlag := flagSet.String("dataset", "", "Qualified dataset name to seed the graph with, e.g. rsa:landsat/25m.")
	bandsFlag := flagSet.String("bands", "", "Comma-separated bands of -dataset.")
	linkFlag := flagSet.String("link", "", "Editor link query string carrying dataset and bands, e.g. 'dataset=rsa:x/25m&bands=B30,B40'.")
	pollFlag := flagSet.Duration("poll-interval", 0, "How often a running task is polled (default 5s).")
	timeoutFlag := flagSet.Duration("timeout", 0, "Timeout of a single service request (default 60s).")
	historyFlag := flagSet.Int("history-size", 0, "Number of results kept in the preview history (default 6).")
	notifyURLFlag := flagSet.String("notify-url", "", "Socket.IO server that receives progress events. Empty is disabled.")
	notifyNSFlag := flagSet.String("notify-namespace", "/", "Socket.IO namespace for progress events.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := applyEnv(flagSet); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	graphs.fromEnv = len(graphs.paths) > 0
	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := append([]string(nil), graphs.paths...)
	if graphs.fromEnv && flagSet.NArg() > 0 {
		paths = nil
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Graph paths determined.", "paths", paths)

	if len(paths) == 0 && *serviceURLFlag == "" {
		slog.Debug("Neither a graph nor a service URL given, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	dataset, bands := *datasetFlag, splitBands(*bandsFlag)
	if *linkFlag != "" {
		if dataset != "" || len(bands) > 0 {
			return nil, false, &ExitError{Code: 2, Message: "-link cannot be combined with -dataset or -bands"}
		}
		link, ok := graphfile.ParseDeepLink(*linkFlag)
		if !ok {
			return nil, false, &ExitError{Code: 2, Message: "invalid link: both dataset and bands are required"}
		}
		dataset, bands = link.Dataset, link.Bands
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		GraphPaths:      paths,
		ServiceURL:      *serviceURLFlag,
		PollInterval:    *pollFlag,
		Timeout:         nonNegative(*timeoutFlag),
		HistorySize:     *historyFlag,
		Dataset:         dataset,
		Bands:           bands,
		Preview:         *previewFlag,
		OutputDir:       *outputDirFlag,
		NotifyURL:       *notifyURLFlag,
		NotifyNamespace: *notifyNSFlag,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}

// applyEnv sets every flag that has a matching environment variable. Flags on
// the command line are parsed afterwards and win.
func applyEnv(fs *flag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || len(f.Name) == 1 {
			return
		}
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
		v, ok := os.LookupEnv(name)
		if !ok {
			return
		}
		slog.Debug("Flag default taken from environment.", "flag", f.Name, "env", name)
		if setErr := fs.Set(f.Name, v); setErr != nil {
			err = fmt.Errorf("invalid %s: %w", name, setErr)
		}
	})
	return err
}

func splitBands(s string) []string {
	var bands []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			bands = append(bands, b)
		}
	}
	return bands
}

func nonNegative(d time.Duration) time.Duration {
	return max(d, 0)
}
