package udiff

import (
	"fmt"
	"strings"
)

// Parse reads the project's unified-diff dialect (see package doc) and
// returns one FileDiff per "--- "/"+++ " pair, in document order. Lines
// outside any file/hunk block (stray commentary an LLM wraps around the
// diff, blank separators) are ignored rather than rejected.
func Parse(text string) ([]FileDiff, error) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")

	var diffs []FileDiff
	var cur *FileDiff
	var hunk *Hunk

	flushHunk := func() {
		if cur != nil && hunk != nil {
			cur.Hunks = append(cur.Hunks, *hunk)
			hunk = nil
		}
	}
	flushFile := func() {
		flushHunk()
		if cur != nil {
			diffs = append(diffs, *cur)
			cur = nil
		}
	}

	i := 0
	for i < len(lines) {
		line := lines[i]

		switch {
		case strings.HasPrefix(line, "--- "):
			if i+1 >= len(lines) || !strings.HasPrefix(lines[i+1], "+++ ") {
				return nil, fmt.Errorf("line %d: %q not followed by a +++ line", i+1, line)
			}
			flushFile()
			path := trimDiffPath(lines[i+1][len("+++ "):])
			cur = &FileDiff{Path: path}
			i += 2
			continue

		case strings.HasPrefix(line, "@@"):
			if cur == nil {
				return nil, fmt.Errorf("line %d: hunk header before any --- /+++ file header", i+1)
			}
			flushHunk()
			h := Hunk{Context: parseHunkContext(line)}
			hunk = &h

		case cur != nil && hunk != nil && strings.HasPrefix(line, " "):
			hunk.Lines = append(hunk.Lines, Line{Type: Context, Content: line[1:]})

		case cur != nil && hunk != nil && strings.HasPrefix(line, "-"):
			body := line[1:]
			if strings.TrimSpace(body) == "..." {
				hunk.Lines = append(hunk.Lines, Line{Type: Elision})
			} else {
				hunk.Lines = append(hunk.Lines, Line{Type: Remove, Content: body})
			}

		case cur != nil && hunk != nil && strings.HasPrefix(line, "+"):
			hunk.Lines = append(hunk.Lines, Line{Type: Add, Content: line[1:]})

		case cur != nil && hunk != nil && line == "":
			hunk.Lines = append(hunk.Lines, Line{Type: Context, Content: ""})

		default:
			// Text outside a recognized block: commentary around the diff,
			// ignored.
		}
		i++
	}

	flushFile()
	return diffs, nil
}

// trimDiffPath strips the conventional a/ b/ prefixes git-style diffs use,
// plus any trailing tab (timestamp separator some generators emit).
func trimDiffPath(p string) string {
	if idx := strings.IndexByte(p, '\t'); idx >= 0 {
		p = p[:idx]
	}
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "a/")
	p = strings.TrimPrefix(p, "b/")
	return p
}

// parseHunkContext extracts the text between the two @@ delimiters.
func parseHunkContext(line string) string {
	rest := strings.TrimPrefix(line, "@@")
	if idx := strings.LastIndex(rest, "@@"); idx >= 0 {
		rest = rest[:idx]
	}
	return strings.TrimSpace(rest)
}
