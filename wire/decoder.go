package wire

import (
	"fmt"
	"math"
	"strconv"

	"github.com/anirudhraja/protoserde/registry"
	"github.com/anirudhraja/protoserde/schema"
)

// MaxNesting bounds how deep embedded messages may nest.
const MaxNesting = 10000

// Decoder handles low-level protobuf wire format decoding
type Decoder struct {
	buf      []byte
	pos      int
	registry *registry.Registry
	cfg      Config
	depth    int
}

// NewDecoder creates a new wire format decoder
func NewDecoder(data []byte) *Decoder {
	return &Decoder{buf: data, cfg: CurrentConfig()}
}

// NewDecoderWithRegistry creates a decoder with schema registry
func NewDecoderWithRegistry(data []byte, registry *registry.Registry) *Decoder {
	return &Decoder{buf: data, registry: registry, cfg: CurrentConfig()}
}

// WithConfig overrides the global configuration for this decoder.
func (d *Decoder) WithConfig(c Config) *Decoder {
	d.cfg = c
	return d
}

// DecodeMessage decodes protobuf bytes using schema - main entry point
func DecodeMessage(data []byte, msg *schema.Message, registry *registry.Registry) (map[string]interface{}, error) {
	return NewDecoderWithRegistry(data, registry).DecodeWithSchema(msg)
}

// nested returns a decoder over data sharing d's registry and configuration.
func (d *Decoder) nested(data []byte) *Decoder {
	return &Decoder{buf: data, registry: d.registry, cfg: d.cfg, depth: d.depth + 1}
}

// DecodeWithSchema decodes the remaining bytes as one message of type msg.
// Repeated fields decode to []interface{}, map fields to map[interface{}]interface{},
// embedded messages to map[string]interface{} and enums to their value name.
func (d *Decoder) DecodeWithSchema(msg *schema.Message) (map[string]interface{}, error) {
	if d.depth > MaxNesting {
		return nil, fmt.Errorf("%w: %s", ErrNestingTooDeep, msg.Name)
	}
	result := make(map[string]interface{})
	var unknown []byte

	for d.pos < len(d.buf) {
		start := d.pos
		fieldNumber, wireType, err := d.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
		}

		field := msg.FieldByNumber(int32(fieldNumber))
		if field == nil {
			// Unknown field - skip it
			if err := d.skipField(fieldNumber, wireType); err != nil {
				return nil, fmt.Errorf("failed to decode message %s: %w", msg.Name, err)
			}
			if d.cfg.PreserveUnknownBytesOnDecode {
				unknown = append(unknown, d.buf[start:d.pos]...)
			}
			continue
		}

		if err := d.decodeField(result, msg, field, wireType); err != nil {
			return nil, wrapWithField(err, field.Name)
		}
	}

	if unknown != nil {
		result[UnknownFieldsKey] = unknown
	}
	if d.cfg.PopulateDefaultsOnDecode {
		if err := d.populateDefaults(result, msg); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (d *Decoder) decodeField(result map[string]interface{}, msg *schema.Message, field *schema.Field, wireType WireType) error {
	switch {
	case field.Type.Kind == schema.KindGroup:
		// groups carry no length; skip to the matching end tag
		if d.cfg.StrictWireTypeOnDecode && wireType != WireStartGroup {
			return fmt.Errorf("%w: group field uses wire type %d", ErrWireType, wireType)
		}
		return d.skipField(FieldNumber(field.Number), wireType)

	case field.Type.Kind == schema.KindMap:
		key, value, err := d.decodeMapEntry(field.Type.MapKey, field.Type.MapValue, wireType)
		if err != nil {
			return err
		}
		entries, _ := result[field.Name].(map[interface{}]interface{})
		if entries == nil {
			entries = make(map[interface{}]interface{})
			result[field.Name] = entries
		}
		entries[key] = value
		return nil

	case field.IsRepeated():
		list, _ := result[field.Name].([]interface{})
		if wireType == WireBytes && packable(&field.Type) {
			values, err := d.decodePacked(&field.Type, len(list))
			if err != nil {
				return err
			}
			result[field.Name] = append(list, values...)
			return nil
		}
		value, err := d.DecodeTypedField(&field.Type, wireType)
		if err != nil {
			return wrapWithIndex(err, len(list))
		}
		result[field.Name] = append(list, value)
		return nil

	default:
		value, err := d.DecodeTypedField(&field.Type, wireType)
		if err != nil {
			return err
		}
		if field.OneofIndex >= 0 && int(field.OneofIndex) < len(msg.OneofGroups) {
			// last member seen wins
			for _, member := range msg.OneofGroups[field.OneofIndex].Fields {
				if member.Name != field.Name {
					delete(result, member.Name)
				}
			}
		}
		result[field.Name] = merge(result[field.Name], value)
		return nil
	}
}

// merge combines repeated occurrences of a singular field. Embedded messages
// merge field by field; anything else takes the last value.
func merge(prev, next interface{}) interface{} {
	dst, ok1 := prev.(map[string]interface{})
	src, ok2 := next.(map[string]interface{})
	if !ok1 || !ok2 {
		return next
	}
	for k, v := range src {
		switch old := dst[k].(type) {
		case []interface{}:
			if add, ok := v.([]interface{}); ok {
				dst[k] = append(old, add...)
				continue
			}
		case map[interface{}]interface{}:
			if add, ok := v.(map[interface{}]interface{}); ok {
				for mk, mv := range add {
					old[mk] = mv
				}
				continue
			}
		}
		dst[k] = merge(dst[k], v)
	}
	return dst
}

// DecodeTypedField routes to the appropriate decoder based on field type
func (d *Decoder) DecodeTypedField(fieldType *schema.FieldType, wireType WireType) (interface{}, error) {
	if d.cfg.StrictWireTypeOnDecode {
		if want := ExpectedWireType(fieldType); wireType != want {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrWireType, want, wireType)
		}
	}

	switch fieldType.Kind {
	case schema.KindPrimitive:
		return d.decodePrimitive(fieldType.PrimitiveType, wireType)
	case schema.KindEnum:
		if wireType != WireVarint {
			return nil, fmt.Errorf("%w: enum uses wire type %d", ErrWireType, wireType)
		}
		v, err := d.DecodeVarint()
		if err != nil {
			return nil, err
		}
		return d.decodeEnum(fieldType.EnumType, int32(v))
	case schema.KindMessage:
		if wireType != WireBytes {
			return nil, fmt.Errorf("%w: message uses wire type %d", ErrWireType, wireType)
		}
		data, err := d.DecodeBytes()
		if err != nil {
			return nil, err
		}
		return d.decodeEmbedded(fieldType.MessageType, data)
	case schema.KindWrapper:
		return d.decodeWrapper(fieldType.WrapperType, wireType)
	default:
		return nil, fmt.Errorf("cannot decode a %s value", fieldType.Kind)
	}
}

func (d *Decoder) decodeEmbedded(messageType string, data []byte) (map[string]interface{}, error) {
	if d.registry == nil {
		return nil, fmt.Errorf("no registry to resolve message %s", messageType)
	}
	msg, err := d.registry.GetMessage(messageType)
	if err != nil {
		return nil, err
	}
	return d.nested(data).DecodeWithSchema(msg)
}

// decodePrimitive decodes a primitive type from whatever wire type carried it
func (d *Decoder) decodePrimitive(primitiveType schema.PrimitiveType, wireType WireType) (interface{}, error) {
	raw, data, err := d.readRaw(wireType)
	if err != nil {
		return nil, err
	}
	if wireType != WireBytes {
		return convertScalar(primitiveType, raw)
	}
	switch primitiveType {
	case schema.TypeString:
		return string(data), nil
	case schema.TypeBytes:
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s in a length-delimited field", ErrWireType, primitiveType)
	}
}

// convertScalar interprets raw varint or fixed-width bits as primitiveType
func convertScalar(primitiveType schema.PrimitiveType, raw uint64) (interface{}, error) {
	switch primitiveType {
	case schema.TypeInt32, schema.TypeSfixed32:
		return int32(raw), nil
	case schema.TypeInt64, schema.TypeSfixed64:
		return int64(raw), nil
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(raw), nil
	case schema.TypeUint64, schema.TypeFixed64:
		return raw, nil
	case schema.TypeSint32:
		return DecodeZigZag32(raw), nil
	case schema.TypeSint64:
		return DecodeZigZag64(raw), nil
	case schema.TypeBool:
		return raw != 0, nil
	case schema.TypeFloat:
		return math.Float32frombits(uint32(raw)), nil
	case schema.TypeDouble:
		return math.Float64frombits(raw), nil
	default:
		return nil, fmt.Errorf("%w: %s in a scalar field", ErrWireType, primitiveType)
	}
}

func (d *Decoder) decodeEnum(enumType string, n int32) (interface{}, error) {
	if d.registry == nil {
		return nil, fmt.Errorf("no registry to resolve enum %s", enumType)
	}
	enum, err := d.registry.GetEnum(enumType)
	if err != nil {
		return nil, err
	}
	if v := enum.ValueByNumber(n); v != nil {
		return v.Name, nil
	}
	if d.cfg.AllowUnknownEnumNumberDecode {
		return n, nil
	}
	return nil, fmt.Errorf("%w %d for enum %s", ErrUnknownEnumNumber, n, enumType)
}

// packable reports whether repeated values of the type may use packed encoding
func packable(fieldType *schema.FieldType) bool {
	switch fieldType.Kind {
	case schema.KindEnum:
		return true
	case schema.KindPrimitive:
		return schema.IsPackedType(fieldType.PrimitiveType)
	default:
		return false
	}
}

// decodePacked decodes a packed run of scalars; offset numbers the first element
func (d *Decoder) decodePacked(fieldType *schema.FieldType, offset int) ([]interface{}, error) {
	data, err := d.DecodeBytes()
	if err != nil {
		return nil, err
	}
	elemType := ExpectedWireType(fieldType)
	pd := d.nested(data)
	var values []interface{}
	for pd.pos < len(pd.buf) {
		raw, _, err := pd.readRaw(elemType)
		if err != nil {
			return nil, wrapWithIndex(err, offset+len(values))
		}
		var value interface{}
		if fieldType.Kind == schema.KindEnum {
			value, err = d.decodeEnum(fieldType.EnumType, int32(raw))
		} else {
			value, err = convertScalar(fieldType.PrimitiveType, raw)
		}
		if err != nil {
			return nil, wrapWithIndex(err, offset+len(values))
		}
		values = append(values, value)
	}
	return values, nil
}

// ExpectedWireType returns the wire type a field of the given type is written with
func ExpectedWireType(fieldType *schema.FieldType) WireType {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		switch fieldType.PrimitiveType {
		case schema.TypeDouble, schema.TypeFixed64, schema.TypeSfixed64:
			return WireFixed64
		case schema.TypeFloat, schema.TypeFixed32, schema.TypeSfixed32:
			return WireFixed32
		case schema.TypeString, schema.TypeBytes:
			return WireBytes
		default:
			return WireVarint
		}
	case schema.KindEnum:
		return WireVarint
	case schema.KindGroup:
		return WireStartGroup
	default:
		return WireBytes
	}
}

// populateDefaults fills absent singular primitive and enum fields
func (d *Decoder) populateDefaults(result map[string]interface{}, msg *schema.Message) error {
	for _, field := range msg.Fields {
		if _, ok := result[field.Name]; ok || field.IsRepeated() || field.OneofIndex >= 0 {
			continue
		}
		switch field.Type.Kind {
		case schema.KindPrimitive:
			v, err := ScalarDefault(field)
			if err != nil {
				return wrapWithField(err, field.Name)
			}
			result[field.Name] = v
		case schema.KindEnum:
			if d.registry == nil {
				continue
			}
			enum, err := d.registry.GetEnum(field.Type.EnumType)
			if err != nil {
				return wrapWithField(err, field.Name)
			}
			if field.DefaultValue != "" {
				result[field.Name] = field.DefaultValue
			} else if v := enum.Default(); v != nil {
				result[field.Name] = v.Name
			}
		}
	}
	return nil
}

// ScalarDefault returns the default of a primitive field: its proto2 default
// option when declared, the type's zero value otherwise.
func ScalarDefault(field *schema.Field) (interface{}, error) {
	pt := field.Type.PrimitiveType
	s := field.DefaultValue
	if s == "" {
		return zeroScalar(pt), nil
	}
	switch pt {
	case schema.TypeString:
		return s, nil
	case schema.TypeBytes:
		return []byte(s), nil
	case schema.TypeBool:
		return strconv.ParseBool(s)
	case schema.TypeFloat:
		f, err := parseFloat(s, 32)
		return float32(f), err
	case schema.TypeDouble:
		return parseFloat(s, 64)
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return strconv.ParseInt(s, 0, 64)
	case schema.TypeUint32, schema.TypeFixed32:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case schema.TypeUint64, schema.TypeFixed64:
		return strconv.ParseUint(s, 0, 64)
	default:
		return nil, fmt.Errorf("no default for type %s", pt)
	}
}

func parseFloat(s string, bits int) (float64, error) {
	switch s {
	case "inf":
		return math.Inf(1), nil
	case "-inf":
		return math.Inf(-1), nil
	case "nan":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, bits)
}

func zeroScalar(pt schema.PrimitiveType) interface{} {
	switch pt {
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeInt64, schema.TypeSint64, schema.TypeSfixed64:
		return int64(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	case schema.TypeUint64, schema.TypeFixed64:
		return uint64(0)
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeDouble:
		return float64(0)
	case schema.TypeBool:
		return false
	case schema.TypeString:
		return ""
	case schema.TypeBytes:
		return []byte{}
	default:
		return nil
	}
}
