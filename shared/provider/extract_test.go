package provider

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func TestExtractArrayIndex(t *testing.T) {
	v := decode(t, `{"choices":[{"message":{"content":"hi"}}]}`)

	got, ok := Extract(v, "choices.0.message.content")
	assert.True(t, ok)
	assert.Equal(t, "hi", got)
}

func TestExtractAbsent(t *testing.T) {
	v := decode(t, `{"choices":[]}`)

	_, ok := Extract(v, "choices.0.message.content")
	assert.False(t, ok)

	_, ok = Extract(nil, "a")
	assert.False(t, ok)

	_, ok = Extract(decode(t, `{"a":null}`), "a.b")
	assert.False(t, ok)
}

func TestExtractSkipsEmptySegments(t *testing.T) {
	v := decode(t, `{"a":{"b":"x"}}`)

	got, ok := Extract(v, "a..b.")
	assert.True(t, ok)
	assert.Equal(t, "x", got)
}

func TestExtractNumericObjectKey(t *testing.T) {
	v := decode(t, `{"0":{"name":"first"}}`)

	got, ok := Extract(v, "0.name")
	assert.True(t, ok)
	assert.Equal(t, "first", got)
}

func TestExtractNoCoercion(t *testing.T) {
	v := decode(t, `{"response":42}`)

	got, ok := Extract(v, "response")
	assert.True(t, ok)
	assert.Equal(t, float64(42), got)

	_, ok = ExtractString(v, "response")
	assert.False(t, ok)
}

func TestExtractNonNumericSegmentOnArray(t *testing.T) {
	v := decode(t, `{"items":["a","b"]}`)

	_, ok := Extract(v, "items.first")
	assert.False(t, ok)

	got, ok := Extract(v, "items.1")
	assert.True(t, ok)
	assert.Equal(t, "b", got)
}
