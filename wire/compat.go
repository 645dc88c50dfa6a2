package wire

import (
	"os"
	"sync/atomic"
)

// Config controls optional decoding behaviors.
type Config struct {
	// AllowUnknownEnumNumberDecode: when true, enum numbers that are not present
	// in the enum definition are surfaced as their int32 value instead of failing.
	AllowUnknownEnumNumberDecode bool

	// UnwrapWrappersOnDecode: when true, wrapper messages (google.protobuf.*Value)
	// decode to their scalar. When false they decode to {"value": scalar}.
	UnwrapWrappersOnDecode bool

	// PreserveUnknownBytesOnDecode: when true, decoded messages include an
	// UnknownFieldsKey []byte entry holding the raw bytes of unknown fields.
	PreserveUnknownBytesOnDecode bool

	// PopulateDefaultsOnDecode: when true, absent singular primitive and enum
	// fields outside a oneof get their default value in the result map.
	PopulateDefaultsOnDecode bool

	// StrictWireTypeOnDecode: when true, the decoder rejects fields whose wire type
	// does not match the declared type. When false it decodes best-effort.
	StrictWireTypeOnDecode bool
}

// UnknownFieldsKey holds preserved unknown field bytes in a decoded message.
const UnknownFieldsKey = "__unknown"

var config atomic.Pointer[Config]

// SetConfig sets the global wire configuration used by decoders created afterwards.
func SetConfig(c Config) { config.Store(&c) }

// CurrentConfig returns the global wire configuration.
func CurrentConfig() Config { return *config.Load() }

func init() {
	c := Config{UnwrapWrappersOnDecode: true}
	// Optional env toggles for test harnesses; defaults remain unchanged if unset.
	c.AllowUnknownEnumNumberDecode = envFlag("PROTOSERDE_ALLOW_UNKNOWN_ENUM_DECODE", c.AllowUnknownEnumNumberDecode)
	c.UnwrapWrappersOnDecode = envFlag("PROTOSERDE_UNWRAP_WRAPPERS", c.UnwrapWrappersOnDecode)
	c.PreserveUnknownBytesOnDecode = envFlag("PROTOSERDE_PRESERVE_UNKNOWN", c.PreserveUnknownBytesOnDecode)
	c.PopulateDefaultsOnDecode = envFlag("PROTOSERDE_POPULATE_DEFAULTS_ON_DECODE", c.PopulateDefaultsOnDecode)
	c.StrictWireTypeOnDecode = envFlag("PROTOSERDE_STRICT_WIRE", c.StrictWireTypeOnDecode)
	SetConfig(c)
}

func envFlag(name string, def bool) bool {
	switch os.Getenv(name) {
	case "1", "true":
		return true
	case "0", "false":
		return false
	default:
		return def
	}
}
