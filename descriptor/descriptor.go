// Package descriptor loads the protobuf descriptors a generation run reads
// from. Descriptors come either from a binary FileDescriptorSet written by
// protoc, or from .proto sources compiled in-process.
package descriptor

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// LoadError is returned when descriptors cannot be read, parsed or resolved.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("cannot load descriptors from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Source names where descriptors are read from. Exactly one of Set and Files
// must be given.
type Source struct {
	// Set is the path of a binary FileDescriptorSet. It must be produced
	// with --include_imports so every dependency is present.
	Set string

	// Files are .proto files to compile, relative to ImportPaths.
	Files       []string
	ImportPaths []string

	// Accessor overrides how Files are opened. Nil reads from disk.
	Accessor protoparse.FileAccessor
}

func (s Source) String() string {
	if s.Set != "" {
		return s.Set
	}
	return strings.Join(s.Files, ", ")
}

// Load returns a registry holding every file described by src.
func Load(src Source) (*protoregistry.Files, error) {
	var (
		set *descriptorpb.FileDescriptorSet
		err error
	)
	switch {
	case src.Set != "" && len(src.Files) > 0:
		err = errors.New("both a descriptor set and .proto files were given")
	case src.Set != "":
		set, err = readSet(src.Set)
	case len(src.Files) > 0:
		set, err = parseFiles(src)
	default:
		err = errors.New("no descriptor set or .proto files given")
	}
	if err != nil {
		return nil, &LoadError{Source: src.String(), Err: err}
	}
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, &LoadError{Source: src.String(), Err: err}
	}
	return files, nil
}

func readSet(path string) (*descriptorpb.FileDescriptorSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	set := &descriptorpb.FileDescriptorSet{}
	if err := proto.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parsing descriptor set: %w", err)
	}
	return set, nil
}

func parseFiles(src Source) (*descriptorpb.FileDescriptorSet, error) {
	p := protoparse.Parser{
		ImportPaths: src.ImportPaths,
		Accessor:    src.Accessor,
	}
	fds, err := p.ParseFiles(src.Files...)
	if err != nil {
		return nil, err
	}
	return desc.ToFileDescriptorSet(fds...), nil
}

// FindService looks up the service with the given full name.
func FindService(files *protoregistry.Files, name protoreflect.FullName) (protoreflect.ServiceDescriptor, error) {
	d, err := files.FindDescriptorByName(name)
	if err != nil {
		return nil, &LoadError{Source: string(name), Err: err}
	}
	svc, ok := d.(protoreflect.ServiceDescriptor)
	if !ok {
		return nil, &LoadError{Source: string(name), Err: fmt.Errorf("%s is not a service", name)}
	}
	return svc, nil
}
