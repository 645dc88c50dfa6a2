package serde

// Encoder is the destination of a serialization pass: a structured-output sink
// driven call by call.
//
// A map is BeginMap(n), then n pairs of MapKey followed by exactly one value,
// then EndMap. A sequence is BeginSeq(n), n values, EndSeq. A value is a scalar
// call, an Enum call, a map or a sequence. The length hints are exact.
//
// Errors returned by an Encoder abort the pass and are handed back to the caller
// of Serialize unchanged.
type Encoder interface {
	BeginMap(n int) error
	MapKey(key string) error
	EndMap() error

	BeginSeq(n int) error
	EndSeq() error

	Int32(v int32) error
	Int64(v int64) error
	Uint32(v uint32) error
	Uint64(v uint64) error
	Bool(v bool) error
	Float32(v float32) error
	Float64(v float64) error
	String(v string) error
	Bytes(v []byte) error

	// Enum emits a variant of the named enum type. Formats without enum tags
	// write the variant name as a string.
	Enum(enum, variant string) error
}
