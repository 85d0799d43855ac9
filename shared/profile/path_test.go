package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePathValid(t *testing.T) {
	p, err := ParsePath(" openai/gpt-4o/p1.json ")
	require.NoError(t, err)

	assert.Equal(t, Path{Provider: "openai", Model: "gpt-4o", File: "p1.json"}, p)
	assert.Equal(t, "openai/gpt-4o/p1.json", p.String())
	assert.Equal(t, "openai/gpt-4o", p.ModelKey())
}

func TestParsePathRejects(t *testing.T) {
	bad := []string{
		"",
		"   ",
		"../../etc/passwd",
		"a/b/../c.json",
		"/openai/gpt/p.json",
		`openai\gpt\p.json`,
		"openai/gpt/p.txt",
		"openai/p.json",
		"openai/gpt/x/p.json",
		"openai/gpt 4/p.json",
		"openai/./p.json",
		"openai//p.json",
		"a..b/gpt/p.json",
	}
	for _, rel := range bad {
		_, err := ParsePath(rel)
		assert.ErrorIs(t, err, ErrInvalidPath, rel)
	}
}

func TestSafeSegment(t *testing.T) {
	assert.True(t, SafeSegment("deepseek-coder_6.7b"))
	assert.False(t, SafeSegment("."))
	assert.False(t, SafeSegment(".."))
	assert.False(t, SafeSegment("a:b"))
	assert.False(t, SafeSegment(""))
}
