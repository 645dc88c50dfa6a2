// Package protoserde renders protobuf messages into any serde.Encoder without
// generated code.
//
// Two engines feed the same walk. The lite engine parses .proto files into a
// registry, decodes payloads with package wire and views the result through
// package mapview. The reflection engine walks any protoreflect.Message through
// package pbreflect.
package protoserde

import (
	"fmt"
	"log/slog"

	"google.golang.org/protobuf/proto"

	"github.com/anirudhraja/protoserde/mapview"
	"github.com/anirudhraja/protoserde/pbreflect"
	"github.com/anirudhraja/protoserde/registry"
	"github.com/anirudhraja/protoserde/schema"
	"github.com/anirudhraja/protoserde/serde"
	"github.com/anirudhraja/protoserde/wire"
)

var logger *slog.Logger

// SetLogger sets the logger used by this package and by serde.
func SetLogger(l *slog.Logger) {
	logger = l
	serde.SetLogger(l)
}

func log() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// ===== SCHEMA-AWARE API =====

// Protoserde serializes binary protobuf payloads described by .proto schemas.
type Protoserde struct {
	registry *registry.Registry
	opts     []serde.Option
}

// Option configures a Protoserde.
type Option func(*Protoserde)

// WithSerdeOptions applies opts to every serialization pass.
func WithSerdeOptions(opts ...serde.Option) Option {
	return func(p *Protoserde) { p.opts = append(p.opts, opts...) }
}

// New creates a Protoserde resolving imports against protoDirs.
func New(protoDirs []string, opts ...Option) *Protoserde {
	p := &Protoserde{registry: registry.NewRegistry(protoDirs)}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LoadSchema loads a .proto file or every .proto file under a directory.
func (p *Protoserde) LoadSchema(path string) error {
	if err := p.registry.LoadSchema(path); err != nil {
		return err
	}
	log().Debug("schema loaded", "path", path, "messages", len(p.registry.ListMessages()))
	return nil
}

// LoadSchemaFromFile loads a .proto file and its imports.
func (p *Protoserde) LoadSchemaFromFile(file string) error {
	if err := p.registry.LoadSchemaFromFile(file); err != nil {
		return err
	}
	log().Debug("schema loaded", "file", file, "messages", len(p.registry.ListMessages()))
	return nil
}

// LoadRepo loads a protobuf repository (collection of .proto files)
func (p *Protoserde) LoadRepo(repo *schema.ProtoRepo) error {
	return p.registry.LoadRepo(repo)
}

// Parse decodes protobuf bytes using schema-aware decoder
func (p *Protoserde) Parse(data []byte, messageType string) (map[string]interface{}, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.DecodeMessage(data, msg, p.registry)
}

// View decodes protobuf bytes and returns them as a serde.Message.
func (p *Protoserde) View(data []byte, messageType string) (*mapview.Message, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	decoded, err := wire.DecodeMessage(data, msg, p.registry)
	if err != nil {
		return nil, err
	}
	return mapview.New(decoded, msg, p.registry), nil
}

// ViewMap returns decoded data, as produced by Parse, as a serde.Message.
func (p *Protoserde) ViewMap(data map[string]interface{}, messageType string) (*mapview.Message, error) {
	msg, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return mapview.New(data, msg, p.registry), nil
}

// Serialize decodes protobuf bytes and writes the message to enc.
func (p *Protoserde) Serialize(enc serde.Encoder, data []byte, messageType string) error {
	view, err := p.View(data, messageType)
	if err != nil {
		return err
	}
	return serde.Serialize(enc, view, p.opts...)
}

// SerializeMap writes decoded data, as produced by Parse, to enc.
func (p *Protoserde) SerializeMap(enc serde.Encoder, data map[string]interface{}, messageType string) error {
	view, err := p.ViewMap(data, messageType)
	if err != nil {
		return err
	}
	return serde.Serialize(enc, view, p.opts...)
}

// SerializeProto writes a protobuf message, generated or dynamic, to enc.
func SerializeProto(enc serde.Encoder, m proto.Message, opts ...serde.Option) error {
	return serde.Serialize(enc, pbreflect.Of(m), opts...)
}

// ===== REGISTRY ACCESS =====

func (p *Protoserde) GetRegistry() *registry.Registry { return p.registry }
func (p *Protoserde) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Protoserde) ListEnums() []string             { return p.registry.ListEnums() }
func (p *Protoserde) ListServices() []string          { return p.registry.ListServices() }
