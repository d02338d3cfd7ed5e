package openapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeJSONObject(t *testing.T) {
	t.Run("members keep authoring order", func(t *testing.T) {
		v, ok := decodeJSONObject(`{"zebra": 1, "alpha": 2, "mid": 3}`)

		require.True(t, ok)
		require.Len(t, v.members, 3)
		assert.Equal(t, "zebra", v.members[0].key)
		assert.Equal(t, "alpha", v.members[1].key)
		assert.Equal(t, "mid", v.members[2].key)
	})

	t.Run("duplicate keys replace in place", func(t *testing.T) {
		v, ok := decodeJSONObject(`{"a": 1, "b": 2, "a": 3}`)

		require.True(t, ok)
		require.Len(t, v.members, 2)
		assert.Equal(t, "a", v.members[0].key)
		got, found := v.get("a")
		require.True(t, found)
		assert.InDelta(t, 3.0, got.num, 0)
	})

	t.Run("trailing garbage rejects the document", func(t *testing.T) {
		_, ok := decodeJSONObject(`{"a": 1} trailing`)
		assert.False(t, ok)
	})

	t.Run("non-object roots are rejected", func(t *testing.T) {
		_, ok := decodeJSONObject(`[1, 2, 3]`)
		assert.False(t, ok)
	})

	t.Run("numbers keep their literal form", func(t *testing.T) {
		v, ok := decodeJSONObject(`{"version": 3.0, "count": 12}`)

		require.True(t, ok)
		version, _ := v.get("version")
		assert.Equal(t, "3.0", version.stringify())
		count, _ := v.get("count")
		assert.Equal(t, "12", count.stringify())
	})
}

func TestDecodeYAMLObject(t *testing.T) {
	t.Run("mapping order survives", func(t *testing.T) {
		v, ok := decodeYAMLObject("paths:\n  /b: {}\n  /a: {}\n")

		require.True(t, ok)
		paths, found := v.get("paths")
		require.True(t, found)
		require.Len(t, paths.members, 2)
		assert.Equal(t, "/b", paths.members[0].key)
		assert.Equal(t, "/a", paths.members[1].key)
	})

	t.Run("integer keys are iterable but not gettable", func(t *testing.T) {
		v, ok := decodeYAMLObject("responses:\n  202:\n    description: accepted\n")

		require.True(t, ok)
		responses, found := v.get("responses")
		require.True(t, found)

		// String lookup misses the bare-integer key.
		assert.False(t, responses.has("202"))

		// Iteration still renders it.
		require.Len(t, responses.members, 1)
		assert.Equal(t, "202", responses.members[0].key)
		assert.False(t, responses.members[0].strKey)
	})

	t.Run("quoted status keys stay string keyed", func(t *testing.T) {
		v, ok := decodeYAMLObject("responses:\n  \"202\":\n    description: accepted\n")

		require.True(t, ok)
		responses, _ := v.get("responses")
		assert.True(t, responses.has("202"))
	})

	t.Run("scalars map onto the tree kinds", func(t *testing.T) {
		v, ok := decodeYAMLObject("s: text\nn: 42\nf: 1.5\nb: true\nnothing: null\n")

		require.True(t, ok)
		s, _ := v.get("s")
		assert.Equal(t, kindString, s.kind)
		n, _ := v.get("n")
		assert.Equal(t, kindNumber, n.kind)
		assert.Equal(t, "42", n.lit)
		b, _ := v.get("b")
		assert.Equal(t, kindBool, b.kind)
		nothing, _ := v.get("nothing")
		assert.Equal(t, kindNull, nothing.kind)
	})

	t.Run("scalar documents are rejected", func(t *testing.T) {
		_, ok := decodeYAMLObject("just a sentence")
		assert.False(t, ok)
	})
}

func TestParseSpecFallback(t *testing.T) {
	t.Run("json first, yaml second", func(t *testing.T) {
		fromJSON := parseSpec(`{"openapi": "3.0.3"}`)
		assert.True(t, fromJSON.has("openapi"))

		fromYAML := parseSpec("openapi: 3.0.3\n")
		assert.True(t, fromYAML.has("openapi"))
	})

	t.Run("unparseable content collapses to an empty object", func(t *testing.T) {
		v := parseSpec("{broken: [")

		assert.Equal(t, kindObject, v.kind)
		assert.Empty(t, v.members)
	})
}

func TestValueTruthy(t *testing.T) {
	assert.False(t, value{kind: kindNull}.truthy())
	assert.False(t, value{kind: kindString}.truthy())
	assert.False(t, value{kind: kindObject}.truthy())
	assert.True(t, value{kind: kindString, str: "x"}.truthy())
	assert.True(t, value{kind: kindNumber, num: 2}.truthy())
	assert.False(t, value{kind: kindNumber}.truthy())
}

func TestStringifyBooleans(t *testing.T) {
	assert.Equal(t, "True", value{kind: kindBool, boolean: true}.stringify())
	assert.Equal(t, "False", value{kind: kindBool}.stringify())
}
