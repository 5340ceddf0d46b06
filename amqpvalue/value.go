// Package amqpvalue implements the AMQP 1.0 value model used to describe
// message bodies, annotations, and application properties: a tagged
// union over every AMQP primitive type, an insertion-order-preserving
// map keyed by that union, and the described-value wrapper AMQP uses for
// extension types.
package amqpvalue

import (
	"time"

	"github.com/google/uuid"
)

// Symbol is an AMQP symbol: an ASCII string used for type names,
// annotation keys, and content types.
type Symbol string

// Tag identifies which variant of the Value union is populated.
type Tag int

const (
	TagNull Tag = iota
	TagBoolean
	TagUByte
	TagUShort
	TagUInt
	TagULong
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagChar
	TagTimestamp
	TagUUID
	TagBinary
	TagString
	TagSymbol
	TagList
	TagMap
	TagArray
	TagDescribed
	TagUnknown
)

// Value is the tagged union over every AMQP primitive type plus List,
// Map, Array, and Described composites. Exactly one payload field is
// meaningful for a given Tag; constructors below are the supported way
// to build one.
type Value struct {
	Tag       Tag
	Boolean   bool
	UByte     uint8
	UShort    uint16
	UInt      uint32
	ULong     uint64
	Byte      int8
	Short     int16
	Int       int32
	Long      int64
	Float     float32
	Double    float64
	Char      rune
	Timestamp time.Time
	UUID      uuid.UUID
	Binary    []byte
	String    string
	Symbol    Symbol
	List      []Value
	Map       *OrderedMap
	Array     []Value
	Described *Described
}

func Null() Value                 { return Value{Tag: TagNull} }
func Bool(v bool) Value           { return Value{Tag: TagBoolean, Boolean: v} }
func UByteVal(v uint8) Value      { return Value{Tag: TagUByte, UByte: v} }
func UShortVal(v uint16) Value    { return Value{Tag: TagUShort, UShort: v} }
func UIntVal(v uint32) Value      { return Value{Tag: TagUInt, UInt: v} }
func ULongVal(v uint64) Value     { return Value{Tag: TagULong, ULong: v} }
func ByteVal(v int8) Value        { return Value{Tag: TagByte, Byte: v} }
func ShortVal(v int16) Value      { return Value{Tag: TagShort, Short: v} }
func IntVal(v int32) Value        { return Value{Tag: TagInt, Int: v} }
func LongVal(v int64) Value       { return Value{Tag: TagLong, Long: v} }
func FloatVal(v float32) Value    { return Value{Tag: TagFloat, Float: v} }
func DoubleVal(v float64) Value   { return Value{Tag: TagDouble, Double: v} }
func CharVal(v rune) Value        { return Value{Tag: TagChar, Char: v} }
func TimestampVal(v time.Time) Value { return Value{Tag: TagTimestamp, Timestamp: v} }
func UUIDVal(v uuid.UUID) Value   { return Value{Tag: TagUUID, UUID: v} }
func BinaryVal(v []byte) Value    { return Value{Tag: TagBinary, Binary: v} }
func StringVal(v string) Value    { return Value{Tag: TagString, String: v} }
func SymbolVal(v Symbol) Value    { return Value{Tag: TagSymbol, Symbol: v} }
func ListVal(v []Value) Value     { return Value{Tag: TagList, List: v} }
func MapVal(v *OrderedMap) Value  { return Value{Tag: TagMap, Map: v} }
func ArrayVal(v []Value) Value    { return Value{Tag: TagArray, Array: v} }
func DescribedVal(v *Described) Value { return Value{Tag: TagDescribed, Described: v} }
func Unknown() Value               { return Value{Tag: TagUnknown} }

// Equal reports whether v and other hold the same tag and payload. Maps
// and Described values compare by their own Equal methods since they
// contain nested Values.
func (v Value) Equal(other Value) bool {
	if v.Tag != other.Tag {
		return false
	}
	switch v.Tag {
	case TagBoolean:
		return v.Boolean == other.Boolean
	case TagUByte:
		return v.UByte == other.UByte
	case TagUShort:
		return v.UShort == other.UShort
	case TagUInt:
		return v.UInt == other.UInt
	case TagULong:
		return v.ULong == other.ULong
	case TagByte:
		return v.Byte == other.Byte
	case TagShort:
		return v.Short == other.Short
	case TagInt:
		return v.Int == other.Int
	case TagLong:
		return v.Long == other.Long
	case TagFloat:
		return v.Float == other.Float
	case TagDouble:
		return v.Double == other.Double
	case TagChar:
		return v.Char == other.Char
	case TagTimestamp:
		return v.Timestamp.Equal(other.Timestamp)
	case TagUUID:
		return v.UUID == other.UUID
	case TagBinary:
		return bytesEqual(v.Binary, other.Binary)
	case TagString:
		return v.String == other.String
	case TagSymbol:
		return v.Symbol == other.Symbol
	case TagList, TagArray:
		return valueSliceEqual(listOf(v), listOf(other))
	case TagMap:
		return v.Map.Equal(other.Map)
	case TagDescribed:
		return v.Described.Equal(other.Described)
	default:
		return true
	}
}

func listOf(v Value) []Value {
	if v.Tag == TagArray {
		return v.Array
	}
	return v.List
}

func valueSliceEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Descriptor identifies a Described value by either a numeric AMQP type
// code or a symbolic name; exactly one is meaningful, selected by
// HasCode.
type Descriptor struct {
	HasCode bool
	Code    uint64
	Name    Symbol
}

// CodeDescriptor builds a Descriptor from a numeric AMQP type code.
func CodeDescriptor(code uint64) Descriptor { return Descriptor{HasCode: true, Code: code} }

// NameDescriptor builds a Descriptor from a symbolic type name.
func NameDescriptor(name Symbol) Descriptor { return Descriptor{Name: name} }

// Described pairs a Descriptor with the Value it annotates, AMQP's
// mechanism for extension and domain-specific types.
type Described struct {
	Descriptor Descriptor
	Value      Value
}

// NewDescribed builds a Described value.
func NewDescribed(descriptor Descriptor, value Value) *Described {
	return &Described{Descriptor: descriptor, Value: value}
}

// Equal compares two Described values by descriptor and nested value.
func (d *Described) Equal(other *Described) bool {
	if d == nil || other == nil {
		return d == other
	}
	if d.Descriptor.HasCode != other.Descriptor.HasCode {
		return false
	}
	if d.Descriptor.HasCode {
		return d.Descriptor.Code == other.Descriptor.Code && d.Value.Equal(other.Value)
	}
	return d.Descriptor.Name == other.Descriptor.Name && d.Value.Equal(other.Value)
}

// OrderedMap is a linear, insertion-order-preserving map keyed by Value,
// matching AMQP's map encoding where key order is part of the wire
// representation. Lookups are O(n); this is the grounded tradeoff for
// maps that are small (message annotations, application properties)
// and must round-trip their key order exactly.
type OrderedMap struct {
	entries []mapEntry
}

type mapEntry struct {
	key   Value
	value Value
}

// NewOrderedMap returns an empty OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{}
}

// Insert appends key/value, or overwrites the value in place if key
// already exists (keeping its original position).
func (m *OrderedMap) Insert(key, value Value) {
	for i := range m.entries {
		if m.entries[i].key.Equal(key) {
			m.entries[i].value = value
			return
		}
	}
	m.entries = append(m.entries, mapEntry{key: key, value: value})
}

// Get returns the value for key and whether it was present.
func (m *OrderedMap) Get(key Value) (Value, bool) {
	for _, entry := range m.entries {
		if entry.key.Equal(key) {
			return entry.value, true
		}
	}
	return Value{}, false
}

// Remove deletes key, shifting subsequent entries left to preserve
// order, and returns the removed value if it was present.
func (m *OrderedMap) Remove(key Value) (Value, bool) {
	for i, entry := range m.entries {
		if entry.key.Equal(key) {
			removed := entry.value
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return removed, true
		}
	}
	return Value{}, false
}

// ContainsKey reports whether key is present.
func (m *OrderedMap) ContainsKey(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *OrderedMap) Len() int { return len(m.entries) }

// Range calls fn for each entry in insertion order. Stops early if fn
// returns false.
func (m *OrderedMap) Range(fn func(key, value Value) bool) {
	for _, entry := range m.entries {
		if !fn(entry.key, entry.value) {
			return
		}
	}
}

// Equal compares two maps entry-by-entry in order; differing order with
// the same keys/values is not equal, matching AMQP's encoded
// representation.
func (m *OrderedMap) Equal(other *OrderedMap) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.entries) != len(other.entries) {
		return false
	}
	for i := range m.entries {
		if !m.entries[i].key.Equal(other.entries[i].key) || !m.entries[i].value.Equal(other.entries[i].value) {
			return false
		}
	}
	return true
}
