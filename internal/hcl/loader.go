package hcl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/pzscripts/internal/config"
	"github.com/specialistvlad/pzscripts/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot is the top level of a configuration file.
type fileRoot struct {
	MinVersion *string      `hcl:"min_version,optional"`
	LogLevel   *string      `hcl:"log_level,optional"`
	LogFormat  *string      `hcl:"log_format,optional"`
	Schema     *schemaBlock `hcl:"schema,block"`
	Lint       *lintBlock   `hcl:"lint,block"`
	Serve      *serveBlock  `hcl:"serve,block"`
}

type schemaBlock struct {
	Path     *string        `hcl:"path,optional"`
	URL      *string        `hcl:"url,optional"`
	CacheDir *string        `hcl:"cache_dir,optional"`
	TTL      hcl.Expression `hcl:"ttl,optional"`
}

type lintBlock struct {
	Extensions *[]string `hcl:"extensions,optional"`
	Hints      *bool     `hcl:"hints,optional"`
	Ignore     *[]string `hcl:"ignore,optional"`
	Workers    *int      `hcl:"workers,optional"`
	Format     *string   `hcl:"format,optional"`
}

type serveBlock struct {
	Address *string `hcl:"address,optional"`
	Watch   *bool   `hcl:"watch,optional"`
}

// Load parses each existing file in paths and merges its settings over a
// copy of base. Settings absent from a file keep their previous value.
func (l *Loader) Load(ctx context.Context, base *config.Model, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := *base
	model.Lint.Extensions = append([]string(nil), base.Lint.Extensions...)
	model.Lint.Ignore = append([]string(nil), base.Lint.Ignore...)
	model.Files = append([]string(nil), base.Files...)

	parser := hclparse.NewParser()
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				logger.Debug("Configuration file not found, skipping.", "path", path)
				continue
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		file, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(file.Body, nil, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
		}

		if diags := translate(&root, &model); diags.HasErrors() {
			return nil, fmt.Errorf("invalid configuration in %s: %w", path, diags)
		}
		model.Files = append(model.Files, path)
		logger.Debug("Configuration file loaded.", "path", path)
	}

	logger.Debug("HCL loading complete.", "files", len(model.Files))
	return &model, nil
}
