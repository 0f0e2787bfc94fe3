// Package edit implements the deterministic string-replacement half of
// edit_file: finding where old_text occurs in a file's content, tolerating
// the small drifts a model's quoted old_text commonly has from the file on
// disk (trailing whitespace, re-indentation, a character typo), and the
// <<<elided>>> wildcard for skipping unchanged spans.
package edit

import (
	"fmt"
	"strings"
)

// MatchLevel records which of the five matching strategies FindMatch used,
// loosest last. Tools surface it so a caller can tell how literal the match
// actually was.
type MatchLevel int

const (
	LevelExact MatchLevel = iota
	LevelLineTrimmed
	LevelWhitespaceNormalized
	LevelFuzzy
	LevelElided
)

func (l MatchLevel) String() string {
	switch l {
	case LevelExact:
		return "exact"
	case LevelLineTrimmed:
		return "line-trimmed"
	case LevelWhitespaceNormalized:
		return "whitespace-normalized"
	case LevelFuzzy:
		return "fuzzy"
	case LevelElided:
		return "elided"
	default:
		return "unknown"
	}
}

// Result locates a match of the search text within content.
type Result struct {
	Level    MatchLevel
	Original string // the actual content matched, byte-for-byte from content
	Start    int    // byte offset of the match in content
	End      int    // byte offset one past the match
}

// fuzzySimilarityThreshold is the minimum per-line Levenshtein similarity
// (0.0-1.0) for the fuzzy level to accept a candidate window.
const fuzzySimilarityThreshold = 0.85

// FindMatch locates search within content using, in order: an exact
// substring match, a match ignoring leading/trailing whitespace on each
// line, a match ignoring all whitespace-run differences, and a
// Levenshtein-similarity match. If search contains the literal "..."
// wildcard (edit_file's <<<elided>>> token, already substituted by the
// caller) it is matched instead by anchoring on the text before and after
// the wildcard.
func FindMatch(content, search string) (Result, error) {
	if search == "" {
		return Result{}, fmt.Errorf("old_text is empty")
	}

	if strings.Contains(search, "...") {
		return findElided(content, search)
	}

	if idx := strings.Index(content, search); idx >= 0 {
		return Result{Level: LevelExact, Original: search, Start: idx, End: idx + len(search)}, nil
	}

	lines := strings.Split(content, "\n")
	searchLines := strings.Split(search, "\n")
	if len(searchLines) > len(lines) {
		return Result{}, fmt.Errorf("could not find old_text in file")
	}

	if r, ok := findWindow(lines, searchLines, LevelLineTrimmed, func(a, b string) bool {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}); ok {
		return r, nil
	}

	if r, ok := findWindow(lines, searchLines, LevelWhitespaceNormalized, func(a, b string) bool {
		return normalizeWhitespace(a) == normalizeWhitespace(b)
	}); ok {
		return r, nil
	}

	if r, ok := findWindow(lines, searchLines, LevelFuzzy, func(a, b string) bool {
		return lineSimilarity(a, b) >= fuzzySimilarityThreshold
	}); ok {
		return r, nil
	}

	return Result{}, fmt.Errorf("could not find old_text in file")
}

// ApplyMatch splices newText into content at the span result located.
func ApplyMatch(content string, result Result, newText string) string {
	return content[:result.Start] + newText + content[result.End:]
}

// findWindow slides a window of len(searchLines) over lines, accepting the
// first position where eq holds for every line pair.
func findWindow(lines, searchLines []string, level MatchLevel, eq func(a, b string) bool) (Result, bool) {
	n := len(searchLines)
	for i := 0; i+n <= len(lines); i++ {
		matched := true
		for j := 0; j < n; j++ {
			if !eq(lines[i+j], searchLines[j]) {
				matched = false
				break
			}
		}
		if matched {
			start, end := windowSpan(lines, i, n)
			return Result{
				Level:    level,
				Original: strings.Join(lines[i:i+n], "\n"),
				Start:    start,
				End:      end,
			}, true
		}
	}
	return Result{}, false
}

// windowSpan computes the byte offsets of lines[i:i+n] (joined by the "\n"
// separators that strings.Split dropped) within the original content.
func windowSpan(lines []string, i, n int) (start, end int) {
	for j := 0; j < i; j++ {
		start += len(lines[j]) + 1
	}
	end = start
	for j := i; j < i+n; j++ {
		end += len(lines[j])
		if j < i+n-1 {
			end++
		}
	}
	return start, end
}

// normalizeWhitespace collapses every run of whitespace to a single space
// and trims the ends, so differing indentation or inter-token spacing
// doesn't defeat the match.
func normalizeWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// lineSimilarity returns a 0.0-1.0 similarity ratio based on Levenshtein
// distance normalized by the longer line's length.
func lineSimilarity(a, b string) float64 {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == b {
		return 1.0
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(a, b))/float64(maxLen)
}

func levenshtein(a, b string) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// findElided handles search strings containing the "..." wildcard: the
// text before it must anchor the match start, the text after it must
// anchor the match end, and everything between is replaced wholesale.
func findElided(content, search string) (Result, error) {
	idx := strings.Index(search, "...")
	prefix := search[:idx]
	suffix := search[idx+len("..."):]
	if strings.TrimSpace(prefix) == "" || strings.TrimSpace(suffix) == "" {
		return Result{}, fmt.Errorf("elided old_text needs non-empty text on both sides of the elision")
	}

	start := strings.Index(content, prefix)
	if start < 0 {
		return Result{}, fmt.Errorf("could not find start of elided old_text")
	}

	searchFrom := start + len(prefix)
	suffixIdx := strings.Index(content[searchFrom:], suffix)
	if suffixIdx < 0 {
		return Result{}, fmt.Errorf("could not find end of elided old_text")
	}

	end := searchFrom + suffixIdx + len(suffix)
	return Result{Level: LevelElided, Original: content[start:end], Start: start, End: end}, nil
}
