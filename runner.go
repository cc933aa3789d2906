// Package genbackend regenerates the Python wrappers of a protobuf service
// inside a host source file.
package genbackend

import (
	"fmt"
	"os"

	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rogpeppe/retry"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/stuartcarnie/genbackend/codegen"
	"github.com/stuartcarnie/genbackend/config"
	"github.com/stuartcarnie/genbackend/descriptor"
	"github.com/stuartcarnie/genbackend/splice"
)

const (
	// Version the version of genbackend
	Version = "1.0"
)

// Runner performs generation runs for one configuration.
type Runner struct {
	cfg    *config.Config
	gen    *codegen.Generator
	writer *splice.Writer

	// retry paces repeated attempts in Watch when descriptors cannot be
	// loaded, typically because a compiler is still writing them.
	retry retry.Strategy
}

// Result describes a completed run.
type Result struct {
	Service protoreflect.FullName
	Target  string
	Methods []*codegen.Method
	// Changed reports whether the target file was rewritten.
	Changed bool
	// IndexChanges lists methods whose dispatch index moved.
	IndexChanges []codegen.IndexChange
}

// NewRunner returns a Runner for cfg. Target files are read and written
// through fs; nil means the OS file system.
func NewRunner(cfg *config.Config, fs afero.Fs) *Runner {
	return &Runner{
		cfg: cfg,
		gen: codegen.New(Options(cfg)),
		writer: splice.NewWriter(fs, splice.Markers{
			Begin: cfg.Markers.Begin,
			End:   cfg.Markers.End,
		}),
		retry: defaultRetry,
	}
}

// Options returns the generator options described by cfg.
func Options(cfg *config.Config) codegen.Options {
	return codegen.Options{
		ProtoPackage:       cfg.Namespaces.ProtoPackage,
		BindingNamespace:   cfg.Namespaces.Binding,
		LocalizedMarker:    cfg.Namespaces.LocalizedMarker,
		LocalizedNamespace: cfg.Namespaces.Localized,
		SimpleInputSuffix:  cfg.Unroll.SimpleInputSuffix,
		SkipUnroll:         cfg.Unroll.Skip,
		Receiver:           cfg.Receiver,
		Dispatch:           cfg.Dispatch,
		Indent:             cfg.Indent,
	}
}

// Source returns where cfg reads descriptors from. Proto sources take
// precedence over a descriptor set.
func Source(cfg *config.Config) descriptor.Source {
	if len(cfg.Descriptor.Files) > 0 {
		return descriptor.Source{
			Files:       cfg.Descriptor.Files,
			ImportPaths: cfg.ResolveAll(cfg.Descriptor.ImportPaths),
		}
	}
	return descriptor.Source{Set: cfg.Resolve(cfg.Descriptor.Set)}
}

// Service loads the descriptors and returns the configured service.
func (r *Runner) Service() (protoreflect.ServiceDescriptor, error) {
	files, err := descriptor.Load(Source(r.cfg))
	if err != nil {
		return nil, err
	}
	return descriptor.FindService(files, protoreflect.FullName(r.cfg.Service))
}

// Methods returns the method plans of the configured service without
// touching the target.
func (r *Runner) Methods() ([]*codegen.Method, error) {
	svc, err := r.Service()
	if err != nil {
		return nil, err
	}
	return r.gen.Plan(svc)
}

// Run regenerates the target file. Nothing is written unless every method
// renders.
func (r *Runner) Run() (*Result, error) {
	svc, err := r.Service()
	if err != nil {
		return nil, err
	}
	text, methods, err := r.gen.Generate(svc)
	if err != nil {
		return nil, fmt.Errorf("cannot generate %s: %w", svc.FullName(), err)
	}

	res := &Result{
		Service: svc.FullName(),
		Target:  r.cfg.Resolve(r.cfg.Target),
		Methods: methods,
	}
	res.Changed, err = r.writer.Update(res.Target, func(region string) (string, error) {
		res.IndexChanges = codegen.CompareIndices(r.gen.ScanIndices(region), methods)
		return text, r.checkIndices(res.IndexChanges)
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Generated backend methods",
		zap.String("service", string(res.Service)),
		zap.String("target", res.Target),
		zap.Int("methods", len(methods)),
		zap.Bool("changed", res.Changed))
	return res, nil
}

// checkIndices reports moved dispatch indices: fatal in strict mode, a
// warning otherwise.
func (r *Runner) checkIndices(changes []codegen.IndexChange) error {
	if len(changes) == 0 {
		return nil
	}
	if r.cfg.StrictDispatchIndices {
		return &codegen.IndexChangeError{Changes: changes}
	}
	for _, c := range changes {
		zap.L().Warn("Dispatch index changed",
			zap.String("method", c.Name),
			zap.Int("old", c.Old),
			zap.Int("new", c.New))
	}
	return nil
}

// ConfigError is returned when there was a problem loading the
// configuration file.
type ConfigError struct {
	Err error
}

func (ce ConfigError) Error() string {
	return ce.Err.Error()
}

func (ce ConfigError) Unwrap() error {
	return ce.Err
}

// LoadConfig loads the configuration at path. An empty path selects
// config.DefaultFile in the working directory when it exists, and the
// built-in defaults otherwise.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultFile); err == nil {
			path = config.DefaultFile
		}
	}
	var (
		cfg *config.Config
		err error
	)
	if path == "" {
		cfg, err = config.Default()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		errs := cueerrors.Errors(err)
		if len(errs) > 1 {
			zap.L().Error("Error loading configuration", zap.String("path", path))
			for _, err := range errs {
				zap.L().Error("Configuration file error", zap.Error(err))
			}
		} else {
			zap.L().Error("Error loading configuration", zap.String("path", path), zap.Error(err))
		}
		return nil, ConfigError{Err: err}
	}
	return cfg, nil
}
