// Package serde walks a message through its runtime schema and replays it into a
// format-agnostic Encoder as a tree of maps, sequences, scalars and enum variants.
//
// The walk never knows the concrete message type. A provider implements Message
// (field listing and typed value access) and a destination implements Encoder
// (map, sequence, scalar and enum emission); the three adapters in this package
// connect the two:
//
//	MessageAdapter  map of field name -> field, in declaration order
//	FieldAdapter    kind/repetition dispatch for one field
//	EnumAdapter     enum value emitted by variant name
//
// Protobuf schemas are assumed acyclic. A self-referencing schema whose provider
// expands unset message fields to defaults recurses until the depth guard
// (WithMaxDepth) stops it with ErrMaxDepth.
package serde
