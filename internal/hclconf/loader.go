// Package hclconf loads runtime settings from an HCL file. Attributes may
// reference process environment variables as env.<NAME>.
package hclconf

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/reloadgo/internal/config"
	"github.com/vk/reloadgo/internal/ctxlog"
)

// fileSettings is the HCL shape of the settings file. Pointer fields stay
// nil when the attribute is absent, so unset values keep their defaults.
type fileSettings struct {
	Root      *string  `hcl:"root,optional"`
	Extension *string  `hcl:"extension,optional"`
	Interval  *float64 `hcl:"interval,optional"`
	LogFormat *string  `hcl:"log_format,optional"`
	LogLevel  *string  `hcl:"log_level,optional"`
	Watch     *bool    `hcl:"watch,optional"`
}

// Loader implements config.Loader for HCL settings files.
type Loader struct{}

// NewLoader creates an HCL settings loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses the file at path and merges it over the defaults. An empty
// path returns the defaults untouched.
func (l *Loader) Load(ctx context.Context, path string) (*config.Settings, error) {
	settings := config.Default()
	if path == "" {
		return &settings, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse settings file: %w", diags)
	}

	var raw fileSettings
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decode settings file: %w", diags)
	}

	if raw.Root != nil {
		settings.Root = *raw.Root
	}
	if raw.Extension != nil {
		settings.Extension = *raw.Extension
	}
	if raw.Interval != nil {
		settings.Interval = *raw.Interval
	}
	if raw.LogFormat != nil {
		settings.LogFormat = *raw.LogFormat
	}
	if raw.LogLevel != nil {
		settings.LogLevel = *raw.LogLevel
	}
	if raw.Watch != nil {
		settings.Watch = *raw.Watch
	}

	ctxlog.FromContext(ctx).Debug("Settings file loaded.", "path", path)
	return &settings, nil
}

// evalContext exposes the process environment as the env object.
func evalContext() *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		vars[key] = cty.StringVal(value)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}
