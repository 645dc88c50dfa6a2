package serde

// EnumAdapter serializes a resolved enum value by its variant name.
type EnumAdapter struct {
	value EnumValue
}

var _ Serializer = EnumAdapter{}

// NewEnumAdapter wraps v for a single serialization pass.
func NewEnumAdapter(v EnumValue) EnumAdapter {
	return EnumAdapter{value: v}
}

// Serialize implements Serializer.
func (a EnumAdapter) Serialize(enc Encoder) error {
	return settle(a.serialize(enc))
}

func (a EnumAdapter) serialize(enc Encoder) error {
	if a.value.Name == "" {
		return mismatchf("enum %s has no variant for number %d", a.value.Enum, a.value.Number)
	}
	return fromEncoder(enc.Enum(a.value.Enum, a.value.Name))
}
