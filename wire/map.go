package wire

import (
	"fmt"

	"github.com/anirudhraja/protoserde/schema"
)

// decodeMapEntry decodes one map entry message. A missing key or value takes
// the default of its type.
func (d *Decoder) decodeMapEntry(keyType, valueType *schema.FieldType, wireType WireType) (interface{}, interface{}, error) {
	if wireType != WireBytes {
		return nil, nil, fmt.Errorf("%w: map entry uses wire type %d", ErrWireType, wireType)
	}
	data, err := d.DecodeBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode map entry bytes: %w", err)
	}

	ed := d.nested(data)
	var key, value interface{}
	for ed.pos < len(ed.buf) {
		fieldNumber, fieldWireType, err := ed.readTag()
		if err != nil {
			return nil, nil, err
		}
		switch fieldNumber {
		case 1:
			if key, err = ed.DecodeTypedField(keyType, fieldWireType); err != nil {
				return nil, nil, wrapWithField(err, "key")
			}
		case 2:
			if value, err = ed.DecodeTypedField(valueType, fieldWireType); err != nil {
				return nil, nil, wrapWithField(err, "value")
			}
		default:
			if err := ed.skipField(fieldNumber, fieldWireType); err != nil {
				return nil, nil, err
			}
		}
	}

	if key == nil {
		key = zeroScalar(keyType.PrimitiveType)
	}
	if value == nil {
		if value, err = d.defaultOf(valueType); err != nil {
			return nil, nil, wrapWithField(err, "value")
		}
	}
	return key, value, nil
}

// defaultOf returns the value an absent map value decodes to
func (d *Decoder) defaultOf(fieldType *schema.FieldType) (interface{}, error) {
	switch fieldType.Kind {
	case schema.KindPrimitive:
		return zeroScalar(fieldType.PrimitiveType), nil
	case schema.KindEnum:
		if d.registry == nil {
			return nil, fmt.Errorf("no registry to resolve enum %s", fieldType.EnumType)
		}
		enum, err := d.registry.GetEnum(fieldType.EnumType)
		if err != nil {
			return nil, err
		}
		if v := enum.Default(); v != nil {
			return v.Name, nil
		}
		return d.decodeEnum(fieldType.EnumType, 0)
	case schema.KindWrapper:
		return d.wrapperResult(fieldType.WrapperType, nil)
	default:
		return map[string]interface{}{}, nil
	}
}

// decodeWrapper decodes a google.protobuf wrapper message
func (d *Decoder) decodeWrapper(wrapperType schema.WrapperType, wireType WireType) (interface{}, error) {
	// Wrapper types are encoded as length-delimited messages
	if wireType != WireBytes {
		return nil, fmt.Errorf("%w: wrapper type must use wire type bytes, got %d", ErrWireType, wireType)
	}
	primitive, ok := wrapperType.Primitive()
	if !ok {
		return nil, fmt.Errorf("unsupported wrapper type: %s", wrapperType)
	}
	data, err := d.DecodeBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to decode wrapper message bytes: %w", err)
	}

	wd := d.nested(data)
	var value interface{}
	for wd.pos < len(wd.buf) {
		fieldNumber, valueWireType, err := wd.readTag()
		if err != nil {
			return nil, fmt.Errorf("failed to decode wrapper field tag: %w", err)
		}
		if fieldNumber != 1 {
			if err := wd.skipField(fieldNumber, valueWireType); err != nil {
				return nil, err
			}
			continue
		}
		ft := schema.FieldType{Kind: schema.KindPrimitive, PrimitiveType: primitive}
		if value, err = wd.DecodeTypedField(&ft, valueWireType); err != nil {
			return nil, wrapWithField(err, "value")
		}
	}
	return d.wrapperResult(wrapperType, value)
}

// wrapperResult shapes a wrapper's value per UnwrapWrappersOnDecode. A nil value
// means the wrapper carried no value field.
func (d *Decoder) wrapperResult(wrapperType schema.WrapperType, value interface{}) (interface{}, error) {
	if value == nil {
		primitive, ok := wrapperType.Primitive()
		if !ok {
			return nil, fmt.Errorf("unsupported wrapper type: %s", wrapperType)
		}
		value = zeroScalar(primitive)
	}
	if d.cfg.UnwrapWrappersOnDecode {
		return value, nil
	}
	return map[string]interface{}{"value": value}, nil
}
