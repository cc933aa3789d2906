// Package config loads genbackend's CUE configuration.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "genbackend.cue"

//go:embed schema.cue
var schemaCUE []byte

type Config struct {
	Descriptor            Descriptor `json:"descriptor"`
	Service               string     `json:"service"`
	Target                string     `json:"target"`
	Markers               Markers    `json:"markers"`
	Namespaces            Namespaces `json:"namespaces"`
	Unroll                Unroll     `json:"unroll"`
	Receiver              string     `json:"receiver"`
	Dispatch              string     `json:"dispatch"`
	Indent                string     `json:"indent"`
	StrictDispatchIndices bool       `json:"strict_dispatch_indices"`

	// Dir is the directory relative paths are resolved against: the
	// directory of the configuration file, or the working directory.
	Dir string `json:"-"`
}

type Descriptor struct {
	Set         string   `json:"set"`
	Files       []string `json:"files"`
	ImportPaths []string `json:"import_paths"`
}

type Markers struct {
	Begin string `json:"begin"`
	End   string `json:"end"`
}

type Namespaces struct {
	ProtoPackage    string `json:"proto_package"`
	Binding         string `json:"binding"`
	LocalizedMarker string `json:"localized_marker"`
	Localized       string `json:"localized"`
}

type Unroll struct {
	SimpleInputSuffix string   `json:"simple_input_suffix"`
	Skip              []string `json:"skip"`
}

// Load reads the configuration at path. An empty path yields the defaults
// with paths relative to the working directory.
func Load(path string) (*Config, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileBytes(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("invalid built-in schema: %w", err)
	}
	v := schema.LookupPath(cue.ParsePath("#Config"))

	var dir string
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		user, err := compile(ctx, path, data)
		if err != nil {
			return nil, err
		}
		v = v.Unify(user)
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		dir = filepath.Dir(abs)
	}

	if err := v.Validate(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, err
	}
	cfg.Dir = dir
	return &cfg, nil
}

// compile builds the user's file. YAML is accepted for files ending in
// .yaml or .yml; anything else is CUE.
func compile(ctx *cue.Context, path string, data []byte) (cue.Value, error) {
	var v cue.Value
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		f, err := yaml.Extract(path, data)
		if err != nil {
			return cue.Value{}, err
		}
		v = ctx.BuildFile(f)
	default:
		v = ctx.CompileBytes(data, cue.Filename(path))
	}
	return v, v.Err()
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	return Load("")
}

// Resolve returns path relative to the configuration directory.
func (c *Config) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir, path)
}

// ResolveAll applies Resolve to each path.
func (c *Config) ResolveAll(paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = c.Resolve(p)
	}
	return out
}
