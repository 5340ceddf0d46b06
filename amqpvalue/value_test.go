package amqpvalue

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarEqualitySameValue(t *testing.T) {
	assert.True(t, IntVal(42).Equal(IntVal(42)))
	assert.True(t, StringVal("hello").Equal(StringVal("hello")))
	assert.True(t, Bool(true).Equal(Bool(true)))
	assert.True(t, Null().Equal(Null()))
}

func TestScalarEqualityDifferentValue(t *testing.T) {
	assert.False(t, IntVal(42).Equal(IntVal(43)))
	assert.False(t, StringVal("hello").Equal(StringVal("world")))
	assert.False(t, Bool(true).Equal(Bool(false)))
}

func TestScalarEqualityDifferentTag(t *testing.T) {
	assert.False(t, IntVal(42).Equal(LongVal(42)))
	assert.False(t, Null().Equal(Bool(false)))
}

func TestUUIDEquality(t *testing.T) {
	id := uuid.New()
	assert.True(t, UUIDVal(id).Equal(UUIDVal(id)))
	assert.False(t, UUIDVal(id).Equal(UUIDVal(uuid.New())))
}

func TestTimestampEquality(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	assert.True(t, TimestampVal(now).Equal(TimestampVal(now)))
	assert.False(t, TimestampVal(now).Equal(TimestampVal(now.Add(time.Second))))
}

func TestBinaryEquality(t *testing.T) {
	assert.True(t, BinaryVal([]byte{1, 2, 3}).Equal(BinaryVal([]byte{1, 2, 3})))
	assert.False(t, BinaryVal([]byte{1, 2, 3}).Equal(BinaryVal([]byte{1, 2, 4})))
	assert.False(t, BinaryVal([]byte{1, 2, 3}).Equal(BinaryVal([]byte{1, 2})))
}

func TestListEquality(t *testing.T) {
	a := ListVal([]Value{IntVal(1), StringVal("x")})
	b := ListVal([]Value{IntVal(1), StringVal("x")})
	c := ListVal([]Value{IntVal(1), StringVal("y")})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestArrayEquality(t *testing.T) {
	a := ArrayVal([]Value{IntVal(1), IntVal(2)})
	b := ArrayVal([]Value{IntVal(1), IntVal(2)})
	c := ArrayVal([]Value{IntVal(1), IntVal(2), IntVal(3)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestDescribedEquality(t *testing.T) {
	a := DescribedVal(NewDescribed(CodeDescriptor(0x77), IntVal(5)))
	b := DescribedVal(NewDescribed(CodeDescriptor(0x77), IntVal(5)))
	c := DescribedVal(NewDescribed(CodeDescriptor(0x78), IntVal(5)))
	d := DescribedVal(NewDescribed(NameDescriptor(Symbol("x")), IntVal(5)))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.False(t, a.Equal(d))
}

func TestOrderedMapInsertPreservesOrderAndOverwrites(t *testing.T) {
	m := NewOrderedMap()
	m.Insert(StringVal("a"), IntVal(1))
	m.Insert(StringVal("b"), IntVal(2))
	m.Insert(StringVal("a"), IntVal(99))

	require.Equal(t, 2, m.Len())
	v, ok := m.Get(StringVal("a"))
	require.True(t, ok)
	assert.True(t, v.Equal(IntVal(99)))

	var keys []string
	m.Range(func(key, value Value) bool {
		keys = append(keys, key.String)
		return true
	})
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestOrderedMapRemoveShiftsEntries(t *testing.T) {
	m := NewOrderedMap()
	m.Insert(StringVal("a"), IntVal(1))
	m.Insert(StringVal("b"), IntVal(2))
	m.Insert(StringVal("c"), IntVal(3))

	removed, ok := m.Remove(StringVal("b"))
	require.True(t, ok)
	assert.True(t, removed.Equal(IntVal(2)))
	assert.False(t, m.ContainsKey(StringVal("b")))

	var keys []string
	m.Range(func(key, value Value) bool {
		keys = append(keys, key.String)
		return true
	})
	assert.Equal(t, []string{"a", "c"}, keys)
}

func TestOrderedMapRemoveMissingKey(t *testing.T) {
	m := NewOrderedMap()
	m.Insert(StringVal("a"), IntVal(1))
	_, ok := m.Remove(StringVal("missing"))
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestOrderedMapEqualityRequiresSameOrder(t *testing.T) {
	a := NewOrderedMap()
	a.Insert(StringVal("a"), IntVal(1))
	a.Insert(StringVal("b"), IntVal(2))

	b := NewOrderedMap()
	b.Insert(StringVal("b"), IntVal(2))
	b.Insert(StringVal("a"), IntVal(1))

	assert.False(t, a.Equal(b))

	c := NewOrderedMap()
	c.Insert(StringVal("a"), IntVal(1))
	c.Insert(StringVal("b"), IntVal(2))
	assert.True(t, a.Equal(c))
}

func TestMapValueEquality(t *testing.T) {
	m1 := NewOrderedMap()
	m1.Insert(StringVal("k"), IntVal(1))
	m2 := NewOrderedMap()
	m2.Insert(StringVal("k"), IntVal(1))

	assert.True(t, MapVal(m1).Equal(MapVal(m2)))
}
