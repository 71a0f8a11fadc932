// Package graphfile reads editor graphs and service settings from disk.
//
// Two formats are accepted. JSON files hold the editor's own representation
// of a graph: either a bare array of nodes or an object with a "nodes" key.
// HCL files describe the same graph as blocks and may also carry a `service`
// block:
//
//	service {
//	  url           = "http://localhost:8080/rsa"
//	  poll_interval = "5s"
//	  history_size  = 6
//	}
//
//	node "input" "small_landsat" {
//	  id       = "small_landsat_0"
//	  qualname = "rsa:small_landsat/100m"
//
//	  output "B30" {
//	    type        = "scalar"
//	    connections = ["#Blur_0/input"]
//	  }
//	}
//
// A socket's mode follows from which attribute is present, exactly like the
// JSON form: `value` alone makes it literal, `connections` makes it connected.
package graphfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/graphquery/internal/ctxlog"
	"github.com/specialistvlad/graphquery/internal/node"
	"github.com/specialistvlad/graphquery/internal/service"
)

// ErrNoGraphFiles is returned when none of the given paths holds a graph.
var ErrNoGraphFiles = errors.New("graphfile: no .hcl or .json files found")

// Document is everything loaded from a set of files.
type Document struct {
	Nodes []*node.Node
	// Service is nil unless a file carried a service block.
	Service *ServiceConfig
}

// ServiceConfig holds the settings of a `service` block. Zero values mean
// "not set".
type ServiceConfig struct {
	URL          string
	PollInterval time.Duration
	Timeout      time.Duration
	HistorySize  int
	Endpoints    service.Endpoints
}

type fileRoot struct {
	Services []*serviceBlock `hcl:"service,block"`
	Nodes    []*nodeBlock    `hcl:"node,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type serviceBlock struct {
	URL          string          `hcl:"url"`
	PollInterval string          `hcl:"poll_interval,optional"`
	Timeout      string          `hcl:"timeout,optional"`
	HistorySize  int             `hcl:"history_size,optional"`
	Endpoints    *endpointsBlock `hcl:"endpoints,block"`
}

type endpointsBlock struct {
	Preview  string `hcl:"preview,optional"`
	Output   string `hcl:"output,optional"`
	Task     string `hcl:"task,optional"`
	Download string `hcl:"download,optional"`
}

type nodeBlock struct {
	Type        string         `hcl:"type,label"`
	Name        string         `hcl:"name,label"`
	ID          string         `hcl:"id,optional"`
	Qualname    string         `hcl:"qualname,optional"`
	Description string         `hcl:"description,optional"`
	Position    *positionBlock `hcl:"position,block"`
	Inputs      []*socketBlock `hcl:"input,block"`
	Outputs     []*socketBlock `hcl:"output,block"`
}

type positionBlock struct {
	X    float64 `hcl:"x,optional"`
	Y    float64 `hcl:"y,optional"`
	Left float64 `hcl:"left,optional"`
	Top  float64 `hcl:"top,optional"`
}

type socketBlock struct {
	Name        string   `hcl:"name,label"`
	Type        string   `hcl:"type"`
	Connections []string `hcl:"connections,optional"`
	Value       *string  `hcl:"value,optional"`
	Synthetic   bool     `hcl:"synthetic,optional"`
}

// Load reads every .hcl and .json file under paths, in lexical order within
// each directory, and concatenates their nodes. A later service block
// overrides an earlier one.
func Load(ctx context.Context, paths ...string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := findGraphFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %v", ErrNoGraphFiles, paths)
	}
	logger.Debug("Discovered graph files.", "count", len(files))

	doc := &Document{}
	parser := hclparse.NewParser()
	for _, file := range files {
		switch filepath.Ext(file) {
		case ".json":
			data, err := os.ReadFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", file, err)
			}
			nodes, err := decodeJSONNodes(data)
			if err != nil {
				return nil, fmt.Errorf("failed to decode JSON graph %s: %w", file, err)
			}
			doc.Nodes = append(doc.Nodes, nodes...)
		case ".hcl":
			hclFile, diags := parser.ParseHCLFile(file)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
			}
			if err := decodeHCL(hclFile.Body, doc); err != nil {
				return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, err)
			}
		}
	}

	logger.Debug("Graph loading complete.", "nodes", len(doc.Nodes), "service", doc.Service != nil)
	return doc, nil
}

func decodeHCL(body hcl.Body, doc *Document) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, nil, &root); diags.HasErrors() {
		return diags
	}
	for _, svc := range root.Services {
		cfg, err := translateService(svc)
		if err != nil {
			return err
		}
		doc.Service = cfg
	}
	for _, nb := range root.Nodes {
		n, err := translateNode(nb)
		if err != nil {
			return err
		}
		doc.Nodes = append(doc.Nodes, n)
	}
	return nil
}

func translateService(b *serviceBlock) (*ServiceConfig, error) {
	cfg := &ServiceConfig{URL: b.URL, HistorySize: b.HistorySize}
	var err error
	if b.PollInterval != "" {
		if cfg.PollInterval, err = time.ParseDuration(b.PollInterval); err != nil {
			return nil, fmt.Errorf("invalid poll_interval: %w", err)
		}
	}
	if b.Timeout != "" {
		if cfg.Timeout, err = time.ParseDuration(b.Timeout); err != nil {
			return nil, fmt.Errorf("invalid timeout: %w", err)
		}
	}
	if b.Endpoints != nil {
		cfg.Endpoints = service.Endpoints{
			Preview:  b.Endpoints.Preview,
			Output:   b.Endpoints.Output,
			Task:     b.Endpoints.Task,
			Download: b.Endpoints.Download,
		}
	}
	return cfg, nil
}

func translateNode(b *nodeBlock) (*node.Node, error) {
	t := node.Type(b.Type)
	switch t {
	case node.TypeInput, node.TypeOutput, node.TypeFilter:
	default:
		return nil, fmt.Errorf("node %q has unknown type %q", b.Name, b.Type)
	}
	n := &node.Node{
		ID:          b.ID,
		Name:        b.Name,
		Type:        t,
		Qualname:    b.Qualname,
		Description: b.Description,
		Inputs:      translateSockets(b.Inputs),
		Outputs:     translateSockets(b.Outputs),
	}
	if b.Position != nil {
		n.Position = &node.Position{X: b.Position.X, Y: b.Position.Y, Left: b.Position.Left, Top: b.Position.Top}
	}
	return n, nil
}

func translateSockets(blocks []*socketBlock) []*node.Socket {
	sockets := make([]*node.Socket, 0, len(blocks))
	for _, b := range blocks {
		s := &node.Socket{Name: b.Name, Type: b.Type, Synthetic: b.Synthetic}
		switch {
		case b.Connections != nil:
			s.Mode = node.ModeConnected
			s.Connections = b.Connections
		case b.Value != nil:
			s.Mode = node.ModeLiteral
			s.Value = *b.Value
		}
		sockets = append(sockets, s)
	}
	return sockets
}

func decodeJSONNodes(data []byte) ([]*node.Node, error) {
	trimmed := bytes.TrimSpace(data)
	var nodes []*node.Node
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, err
		}
		return nodes, nil
	}
	var wrapped struct {
		Nodes []*node.Node `json:"nodes"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Nodes, nil
}

// findGraphFiles expands paths into a flat, de-duplicated list of graph
// files. Paths that do not exist are skipped.
func findGraphFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		all = append(all, p)
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}
		if !info.IsDir() {
			if isGraphFile(path) {
				add(path)
			}
			continue
		}
		var found []string
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isGraphFile(p) {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}

func isGraphFile(p string) bool {
	switch filepath.Ext(p) {
	case ".hcl", ".json":
		return true
	}
	return false
}
