package edit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatch_Exact(t *testing.T) {
	content := "line one\nline two\nline three\n"
	result, err := FindMatch(content, "line two")
	require.NoError(t, err)
	assert.Equal(t, LevelExact, result.Level)
	assert.Equal(t, "line two", result.Original)
}

func TestFindMatch_LineTrimmed(t *testing.T) {
	content := "func foo() {\n    return 1\n}\n"
	result, err := FindMatch(content, "  return 1  ")
	require.NoError(t, err)
	assert.Equal(t, LevelLineTrimmed, result.Level)
}

func TestFindMatch_WhitespaceNormalized(t *testing.T) {
	content := "x := a   +   b\ny := 2\n"
	result, err := FindMatch(content, "x := a + b")
	require.NoError(t, err)
	assert.Equal(t, LevelWhitespaceNormalized, result.Level)
}

func TestFindMatch_Fuzzy(t *testing.T) {
	content := "the quick brown fox\njumps over the lazy dog\n"
	result, err := FindMatch(content, "the quikc brown fox")
	require.NoError(t, err)
	assert.Equal(t, LevelFuzzy, result.Level)
}

func TestFindMatch_NoMatch(t *testing.T) {
	content := "alpha\nbeta\ngamma\n"
	_, err := FindMatch(content, "completely unrelated text that shares nothing")
	assert.Error(t, err)
}

func TestFindMatch_EmptySearch(t *testing.T) {
	_, err := FindMatch("anything", "")
	assert.Error(t, err)
}

func TestFindMatch_Elided(t *testing.T) {
	content := "func big() {\n  step1()\n  step2()\n  step3()\n  step4()\n  return\n}\n"
	search := "func big() {\n  step1()...step4()\n  return\n}\n"
	result, err := FindMatch(content, search)
	require.NoError(t, err)
	assert.Equal(t, LevelElided, result.Level)
	assert.Contains(t, result.Original, "step1()")
	assert.Contains(t, result.Original, "step4()")
}

func TestFindMatch_ElidedMissingSide(t *testing.T) {
	_, err := FindMatch("content", "...trailing only")
	assert.Error(t, err)
}

func TestApplyMatch_SplicesAtSpan(t *testing.T) {
	content := "before\nmiddle\nafter\n"
	result, err := FindMatch(content, "middle")
	require.NoError(t, err)
	out := ApplyMatch(content, result, "replaced")
	assert.Equal(t, "before\nreplaced\nafter\n", out)
}

func TestMatchLevel_String(t *testing.T) {
	assert.Equal(t, "exact", LevelExact.String())
	assert.Equal(t, "line-trimmed", LevelLineTrimmed.String())
	assert.Equal(t, "whitespace-normalized", LevelWhitespaceNormalized.String())
	assert.Equal(t, "fuzzy", LevelFuzzy.String())
	assert.Equal(t, "elided", LevelElided.String())
	assert.Equal(t, "unknown", MatchLevel(99).String())
}
