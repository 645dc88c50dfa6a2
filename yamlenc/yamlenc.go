// Package yamlenc is a serde.Encoder that builds a yaml.v3 node document.
//
// Integers, floats and bools are plain scalars, strings are quoted only where
// YAML would read them as another type, bytes are !!binary base64 and enums are
// their variant names.
package yamlenc

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anirudhraja/protoserde/serde"
)

// ErrIncomplete is returned when a close call does not match the open node, or
// the document is read while incomplete.
var ErrIncomplete = errors.New("yamlenc: document is incomplete")

// Encoder implements serde.Encoder.
type Encoder struct {
	root  *yaml.Node
	stack []*yaml.Node
}

var _ serde.Encoder = (*Encoder)(nil)

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Document returns the finished document node.
func (e *Encoder) Document() (*yaml.Node, error) {
	if e.root == nil || len(e.stack) != 0 {
		return nil, ErrIncomplete
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{e.root}}, nil
}

// Encode writes the document to w with the given indentation.
func (e *Encoder) Encode(w io.Writer, indent int) error {
	doc, err := e.Document()
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Marshal serializes m to a YAML document indented by two spaces.
func Marshal(m serde.Message, opts ...serde.Option) ([]byte, error) {
	e := NewEncoder()
	if err := serde.Serialize(e, m, opts...); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := e.Encode(&buf, 2); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Encoder) put(n *yaml.Node) error {
	if len(e.stack) == 0 {
		if e.root != nil {
			return fmt.Errorf("yamlenc: second root value")
		}
		e.root = n
		return nil
	}
	top := e.stack[len(e.stack)-1]
	top.Content = append(top.Content, n)
	return nil
}

func (e *Encoder) open(n *yaml.Node) error {
	if err := e.put(n); err != nil {
		return err
	}
	e.stack = append(e.stack, n)
	return nil
}

func (e *Encoder) close(kind yaml.Kind) error {
	if len(e.stack) == 0 || e.stack[len(e.stack)-1].Kind != kind {
		return ErrIncomplete
	}
	e.stack = e.stack[:len(e.stack)-1]
	return nil
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func (e *Encoder) BeginMap(n int) error {
	return e.open(&yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: make([]*yaml.Node, 0, 2*n)})
}

func (e *Encoder) MapKey(key string) error {
	if len(e.stack) == 0 || e.stack[len(e.stack)-1].Kind != yaml.MappingNode {
		return fmt.Errorf("yamlenc: key %q outside a map", key)
	}
	return e.put(scalar("!!str", key))
}

func (e *Encoder) EndMap() error { return e.close(yaml.MappingNode) }

func (e *Encoder) BeginSeq(n int) error {
	return e.open(&yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: make([]*yaml.Node, 0, n)})
}

func (e *Encoder) EndSeq() error { return e.close(yaml.SequenceNode) }

func (e *Encoder) Int32(v int32) error   { return e.put(scalar("!!int", strconv.FormatInt(int64(v), 10))) }
func (e *Encoder) Int64(v int64) error   { return e.put(scalar("!!int", strconv.FormatInt(v, 10))) }
func (e *Encoder) Uint32(v uint32) error { return e.put(scalar("!!int", strconv.FormatUint(uint64(v), 10))) }
func (e *Encoder) Uint64(v uint64) error { return e.put(scalar("!!int", strconv.FormatUint(v, 10))) }
func (e *Encoder) Bool(v bool) error     { return e.put(scalar("!!bool", strconv.FormatBool(v))) }
func (e *Encoder) String(v string) error { return e.put(scalar("!!str", v)) }

func (e *Encoder) Float32(v float32) error { return e.put(scalar("!!float", formatFloat(float64(v), 32))) }
func (e *Encoder) Float64(v float64) error { return e.put(scalar("!!float", formatFloat(v, 64))) }

func (e *Encoder) Bytes(v []byte) error {
	return e.put(scalar("!!binary", base64.StdEncoding.EncodeToString(v)))
}

func (e *Encoder) Enum(_, variant string) error { return e.put(scalar("!!str", variant)) }

// formatFloat renders f so that YAML resolves it back to a float.
func formatFloat(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
