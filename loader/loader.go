// Package loader compiles .proto sources into full descriptors with
// protocompile, for use with the pbreflect provider.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// ErrNotFound is returned when a name does not resolve to a message in the Set.
var ErrNotFound = errors.New("loader: descriptor not found")

// Set is a group of compiled files and everything they import.
type Set struct {
	files    linker.Files
	registry *protoregistry.Files
	types    *dynamicpb.Types
}

// Load compiles files, resolved against importPaths. The google/protobuf
// well-known files are always available.
func Load(ctx context.Context, importPaths []string, files ...string) (*Set, error) {
	return compile(ctx, &protocompile.SourceResolver{ImportPaths: importPaths}, files)
}

// LoadSources compiles files whose contents are taken from sources, keyed by
// path.
func LoadSources(ctx context.Context, sources map[string]string, files ...string) (*Set, error) {
	return compile(ctx, &protocompile.SourceResolver{Accessor: protocompile.SourceAccessorFromMap(sources)}, files)
}

func compile(ctx context.Context, r protocompile.Resolver, files []string) (*Set, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("loader: no files given")
	}
	compiler := protocompile.Compiler{Resolver: protocompile.WithStandardImports(r)}
	compiled, err := compiler.Compile(ctx, files...)
	if err != nil {
		return nil, fmt.Errorf("failed to compile proto files: %w", err)
	}
	registry := new(protoregistry.Files)
	seen := make(map[string]bool)
	for _, f := range compiled {
		if err := register(registry, f, seen); err != nil {
			return nil, err
		}
	}
	return &Set{files: compiled, registry: registry, types: dynamicpb.NewTypes(registry)}, nil
}

// register adds fd and its transitive imports to registry, imports first.
func register(registry *protoregistry.Files, fd protoreflect.FileDescriptor, seen map[string]bool) error {
	if seen[fd.Path()] {
		return nil
	}
	seen[fd.Path()] = true
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		if err := register(registry, imports.Get(i).FileDescriptor, seen); err != nil {
			return err
		}
	}
	if err := registry.RegisterFile(fd); err != nil {
		return fmt.Errorf("failed to register %s: %w", fd.Path(), err)
	}
	return nil
}

// Files returns the compiled files in the order they were requested.
func (s *Set) Files() linker.Files { return s.files }

// FindMessage returns the descriptor of the named message. A leading dot is
// accepted.
func (s *Set) FindMessage(name string) (protoreflect.MessageDescriptor, error) {
	full := protoreflect.FullName(strings.TrimPrefix(name, "."))
	d, err := s.registry.FindDescriptorByName(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, full)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a message", ErrNotFound, full)
	}
	return md, nil
}

// NewMessage returns an empty dynamic message of the named type.
func (s *Set) NewMessage(name string) (*dynamicpb.Message, error) {
	md, err := s.FindMessage(name)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md), nil
}

// Unmarshal decodes a binary payload as the named message type.
func (s *Set) Unmarshal(data []byte, name string) (*dynamicpb.Message, error) {
	msg, err := s.NewMessage(name)
	if err != nil {
		return nil, err
	}
	if err := (proto.UnmarshalOptions{Resolver: s.types}).Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", name, err)
	}
	return msg, nil
}
