// Package registry parses .proto sources into schema definitions and resolves
// type references between them.
package registry

import (
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protoserde/schema"
)

// Registry allows us to store the schema of the protobuf messages. We look this up when we need to parse or view a message.
// It is safe for concurrent use; loading takes the write lock.
type Registry struct {
	mu        sync.RWMutex
	protoDirs []string
	repo      *schema.ProtoRepo
	messages  map[string]*schema.Message // fully qualified name -> message
	enums     map[string]*schema.Enum    // fully qualified name -> enum
	services  map[string]*schema.Service // fully qualified name -> service
}

// NewRegistry returns a registry resolving imports against protoDirs, in order.
// The google.protobuf well-known types are always registered.
func NewRegistry(protoDirs []string) *Registry {
	r := &Registry{
		protoDirs: slices.Clone(protoDirs),
		repo:      &schema.ProtoRepo{ProtoFiles: make(map[string]*schema.ProtoFile)},
		messages:  make(map[string]*schema.Message),
		enums:     make(map[string]*schema.Enum),
		services:  make(map[string]*schema.Service),
	}
	if err := r.addFiles(wellKnownFiles()); err != nil {
		panic(fmt.Sprintf("registry: well-known types: %v", err))
	}
	return r
}

// LoadSchema Given a path it will recursively scan all *proto files inside it and register their definitions.
// Imports must be loaded by the same call or an earlier one.
func (r *Registry) LoadSchema(protoPath string) error {
	info, err := os.Stat(protoPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	var paths []string
	if !info.IsDir() {
		if !strings.HasSuffix(protoPath, ".proto") {
			return fmt.Errorf("file %s is not a .proto file", protoPath)
		}
		paths = append(paths, protoPath)
	} else {
		err = filepath.WalkDir(protoPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			// Skip directories and non-proto files
			if d.IsDir() || !strings.HasSuffix(path, ".proto") {
				return nil
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	}

	parsed := make(map[string]*protoparserparser.Proto, len(paths))
	for _, path := range paths {
		body, err := parseProtoFile(path)
		if err != nil {
			return fmt.Errorf("failed to load proto file %s: %w", path, err)
		}
		parsed[path] = body
	}
	return r.addParsed(paths, parsed)
}

// LoadSchemaFromFile loads protoFile and, transitively, every file it imports.
// Relative paths are looked up in the proto directories.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	paths, parsed, err := r.collectImports(protoFile)
	if err != nil {
		return err
	}
	return r.addParsed(paths, parsed)
}

// LoadRepo registers an already built repository. Type references may be
// unresolved, as written in a .proto file, or fully qualified.
func (r *Registry) LoadRepo(repo *schema.ProtoRepo) error {
	if repo == nil {
		return fmt.Errorf("nil repo")
	}
	names := slices.Sorted(maps.Keys(repo.ProtoFiles))
	files := make([]*schema.ProtoFile, 0, len(names))
	for _, name := range names {
		files = append(files, repo.ProtoFiles[name])
	}
	return r.addFiles(files)
}

func (r *Registry) addParsed(paths []string, parsed map[string]*protoparserparser.Proto) error {
	files := make([]*schema.ProtoFile, 0, len(paths))
	r.mu.RLock()
	for _, path := range paths {
		if _, loaded := r.repo.ProtoFiles[path]; loaded {
			continue
		}
		file, err := convertProtoFile(path, parsed[path])
		if err != nil {
			r.mu.RUnlock()
			return fmt.Errorf("failed to load proto file %s: %w", path, err)
		}
		files = append(files, file)
	}
	r.mu.RUnlock()
	return r.addFiles(files)
}

// addFiles registers files and resolves their references. On error the registry
// is left unchanged.
func (r *Registry) addFiles(files []*schema.ProtoFile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := &Registry{
		repo:     &schema.ProtoRepo{ProtoFiles: maps.Clone(r.repo.ProtoFiles)},
		messages: maps.Clone(r.messages),
		enums:    maps.Clone(r.enums),
		services: maps.Clone(r.services),
	}
	for _, file := range files {
		staged.repo.ProtoFiles[file.Name] = file
		staged.registerNames(file)
	}
	entities := staged.entities()
	for _, file := range files {
		if err := staged.buildDefinitions(file, entities); err != nil {
			return fmt.Errorf("failed to build symbol table: %s: %w", file.Name, err)
		}
		if err := staged.buildServices(file, entities); err != nil {
			return fmt.Errorf("failed to build symbol table: %s: %w", file.Name, err)
		}
	}

	r.repo, r.messages, r.enums, r.services = staged.repo, staged.messages, staged.enums, staged.services
	return nil
}

// registerNames registers all message, enum, and service names
func (r *Registry) registerNames(protoFile *schema.ProtoFile) {
	pkg := protoFile.Package
	for _, msg := range protoFile.Messages {
		r.registerMessage(getFullName(pkg, msg.Name), msg)
	}
	for _, enum := range protoFile.Enums {
		enum.FullName = getFullName(pkg, enum.Name)
		r.enums[enum.FullName] = enum
	}
	for _, service := range protoFile.Services {
		r.services[getFullName(pkg, service.Name)] = service
	}
}

// registerMessage registers msg and its nested types under fullName
func (r *Registry) registerMessage(fullName string, msg *schema.Message) {
	msg.FullName = fullName
	r.messages[fullName] = msg
	for _, nested := range msg.NestedTypes {
		r.registerMessage(fullName+"."+nested.Name, nested)
	}
	for _, enum := range msg.NestedEnums {
		enum.FullName = fullName + "." + enum.Name
		r.enums[enum.FullName] = enum
	}
}

func (r *Registry) entities() map[string]struct{} {
	all := make(map[string]struct{}, len(r.messages)+len(r.enums))
	for name := range r.messages {
		all[name] = struct{}{}
	}
	for name := range r.enums {
		all[name] = struct{}{}
	}
	return all
}

// buildDefinitions resolves every field type of the file's messages
func (r *Registry) buildDefinitions(protoFile *schema.ProtoFile, entities map[string]struct{}) error {
	for _, msg := range protoFile.Messages {
		if err := r.resolveMessageFields(msg, entities); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveMessageFields(msg *schema.Message, entities map[string]struct{}) error {
	for _, field := range msg.Fields {
		if err := r.resolveType(&field.Type, msg.FullName, entities); err != nil {
			return fmt.Errorf("message %s field %s: %w", msg.FullName, field.Name, err)
		}
		if field.Type.Kind == schema.KindMap {
			if _, err := r.getOrCreateMapEntry(msg.FullName+"."+mapEntryName(field.Name), field.Type.MapKey, field.Type.MapValue); err != nil {
				return err
			}
		}
	}
	for _, nested := range msg.NestedTypes {
		if err := r.resolveMessageFields(nested, entities); err != nil {
			return err
		}
	}
	return nil
}

// resolveType replaces a type reference with its fully qualified name and settles
// whether it names a message, an enum or a wrapper.
func (r *Registry) resolveType(ft *schema.FieldType, scope string, entities map[string]struct{}) error {
	var ref string
	switch ft.Kind {
	case schema.KindPrimitive, schema.KindWrapper:
		return nil
	case schema.KindMap:
		if ft.MapKey == nil || ft.MapValue == nil {
			return fmt.Errorf("map type without key or value")
		}
		if ft.MapKey.Kind != schema.KindPrimitive || ft.MapKey.PrimitiveType == schema.TypeFloat ||
			ft.MapKey.PrimitiveType == schema.TypeDouble || ft.MapKey.PrimitiveType == schema.TypeBytes {
			return fmt.Errorf("invalid map key type %v", ft.MapKey)
		}
		return r.resolveType(ft.MapValue, scope, entities)
	case schema.KindEnum:
		ref = ft.EnumType
	case schema.KindMessage, schema.KindGroup:
		ref = ft.MessageType
	default:
		return fmt.Errorf("unknown type kind %q", ft.Kind)
	}

	fullName, err := getReferencedType(ref, scope, entities)
	if err != nil {
		return err
	}
	if _, ok := r.enums[fullName]; ok {
		if ft.Kind == schema.KindGroup {
			return fmt.Errorf("group type %s is an enum", fullName)
		}
		*ft = schema.FieldType{Kind: schema.KindEnum, EnumType: fullName}
		return nil
	}
	if ft.Kind == schema.KindEnum {
		return fmt.Errorf("enum type %s is a message", fullName)
	}
	if _, ok := schema.WrapperType(fullName).Primitive(); ok && ft.Kind == schema.KindMessage {
		*ft = schema.FieldType{Kind: schema.KindWrapper, WrapperType: schema.WrapperType(fullName)}
		return nil
	}
	ft.MessageType = fullName
	return nil
}

// buildServices qualifies the request and response types of every method
func (r *Registry) buildServices(protoFile *schema.ProtoFile, entities map[string]struct{}) error {
	for _, service := range protoFile.Services {
		for _, method := range service.Methods {
			in, err := getReferencedType(method.InputType, protoFile.Package, entities)
			if err != nil {
				return fmt.Errorf("service %s method %s: %w", service.Name, method.Name, err)
			}
			out, err := getReferencedType(method.OutputType, protoFile.Package, entities)
			if err != nil {
				return fmt.Errorf("service %s method %s: %w", service.Name, method.Name, err)
			}
			method.InputType, method.OutputType = in, out
		}
	}
	return nil
}

// GetMessage retrieves a message definition by fully qualified name. A leading
// dot is accepted, and an unqualified name matches when it is unambiguous.
func (r *Registry) GetMessage(name string) (*schema.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.messages, name, "message")
}

// GetEnum retrieves an enum definition by name
func (r *Registry) GetEnum(name string) (*schema.Enum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.enums, name, "enum")
}

// GetService retrieves a service definition by name
func (r *Registry) GetService(name string) (*schema.Service, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lookup(r.services, name, "service")
}

func lookup[T any](defs map[string]*T, name, what string) (*T, error) {
	name = strings.TrimPrefix(name, ".")
	if def, exists := defs[name]; exists {
		return def, nil
	}

	// Try without package prefix
	var (
		found *T
		match string
	)
	for fullName, def := range defs {
		if !strings.HasSuffix(fullName, "."+name) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("%s name %s is ambiguous: %s, %s", what, name, match, fullName)
		}
		found, match = def, fullName
	}
	if found == nil {
		return nil, fmt.Errorf("%s not found: %s", what, name)
	}
	return found, nil
}

// ListMessages returns all registered message names, sorted
func (r *Registry) ListMessages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.messages))
}

// ListEnums returns all registered enum names, sorted
func (r *Registry) ListEnums() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.enums))
}

// ListServices returns all registered service names, sorted
func (r *Registry) ListServices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.services))
}

// MapEntryFor returns the entry message of map field f declared in msg.
func (r *Registry) MapEntryFor(msg *schema.Message, f *schema.Field) (*schema.Message, error) {
	if f.Type.Kind != schema.KindMap {
		return nil, fmt.Errorf("field %s of %s is not a map", f.Name, msg.FullName)
	}
	return r.GetOrCreateMapEntryMessage(getFullName(msg.FullName, mapEntryName(f.Name)), f.Type.MapKey, f.Type.MapValue)
}

// GetOrCreateMapEntryMessage returns the synthetic message type for map entries
// registered under entryName, creating it from keyType and valueType if needed.
func (r *Registry) GetOrCreateMapEntryMessage(entryName string, keyType, valueType *schema.FieldType) (*schema.Message, error) {
	r.mu.RLock()
	msg, exists := r.messages[entryName]
	r.mu.RUnlock()
	if exists {
		if !msg.MapEntry {
			return nil, fmt.Errorf("message %s exists and is not a map entry", entryName)
		}
		return msg, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.getOrCreateMapEntry(entryName, keyType, valueType)
}

func (r *Registry) getOrCreateMapEntry(entryName string, keyType, valueType *schema.FieldType) (*schema.Message, error) {
	if msg, exists := r.messages[entryName]; exists {
		if !msg.MapEntry {
			return nil, fmt.Errorf("message %s exists and is not a map entry", entryName)
		}
		return msg, nil
	}
	if keyType == nil || valueType == nil {
		return nil, fmt.Errorf("map entry %s needs a key and a value type", entryName)
	}

	name := entryName
	if i := strings.LastIndexByte(entryName, '.'); i >= 0 {
		name = entryName[i+1:]
	}
	mapEntryMessage := &schema.Message{
		Name:     name,
		FullName: entryName,
		MapEntry: true,
		Fields: []*schema.Field{
			{Name: "key", Number: 1, Label: schema.LabelOptional, Type: *keyType, OneofIndex: -1},
			{Name: "value", Number: 2, Label: schema.LabelOptional, Type: *valueType, OneofIndex: -1},
		},
	}
	r.messages[entryName] = mapEntryMessage
	return mapEntryMessage, nil
}
