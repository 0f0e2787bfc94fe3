package composer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
	difftext "github.com/shogoki/gotextdiff"
)

// diffMarkerPrefix is the sentinel write.go/edit.go embed in their tool
// output when a before/after pair is small enough to preview inline.
const diffMarkerPrefix = "__DIFF__:"

// diffPayload is the JSON shape encoded after the marker prefix.
type diffPayload struct {
	File string `json:"f"`
	Old  string `json:"o"`
	New  string `json:"n"`
	Line int    `json:"l"`
}

// printDiffMarkers scans toolResult line by line and, for each __DIFF__:
// marker found, renders the embedded before/after pair as a unified diff to
// w instead of the raw marker text. Lines without a marker pass through
// unchanged.
func printDiffMarkers(w io.Writer, toolResult string) {
	lines := strings.Split(strings.TrimSuffix(toolResult, "\n"), "\n")
	for _, line := range lines {
		encoded, ok := strings.CutPrefix(line, diffMarkerPrefix)
		if !ok {
			fmt.Fprintln(w, line)
			continue
		}
		raw, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			continue
		}
		var p diffPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		renderUnifiedDiff(w, p.File, p.Old, p.New)
	}
}

// renderUnifiedDiff writes a unified diff between oldContent and newContent
// behind a blank gutter as wide as the largest line number (the numbers
// themselves are not printed), wrapping any line wider than termWidth so
// the preview never runs past the edge of a narrow terminal.
func renderUnifiedDiff(w io.Writer, filePath, oldContent, newContent string) {
	if oldContent == newContent {
		return
	}

	diffBytes := difftext.Diff(filePath, []byte(oldContent), filePath, []byte(newContent))
	if len(diffBytes) == 0 {
		return
	}

	oldLines := strings.Count(oldContent, "\n") + 1
	newLines := strings.Count(newContent, "\n") + 1
	maxLine := oldLines
	if newLines > maxLine {
		maxLine = newLines
	}
	numWidth := len(strconv.Itoa(maxLine))
	if numWidth < 3 {
		numWidth = 3
	}

	fmt.Fprintf(w, "--- edit: %s ---\n", filePath)
	for _, line := range strings.Split(string(diffBytes), "\n") {
		if strings.HasPrefix(line, "diff ") || strings.HasPrefix(line, "--- ") ||
			strings.HasPrefix(line, "+++ ") || line == "" {
			continue
		}
		sign := " "
		body := line
		if len(line) > 0 && (line[0] == '+' || line[0] == '-' || line[0] == '@') {
			sign = line[:1]
			body = line[1:]
		}
		padded := fmt.Sprintf("%s %*s", sign, numWidth, "")
		wrapped := wordwrap.String(body, termWidth-visibleWidth(padded))
		for i, wl := range strings.Split(wrapped, "\n") {
			if i == 0 {
				fmt.Fprintln(w, padded+wl)
			} else {
				fmt.Fprintln(w, strings.Repeat(" ", len(padded))+wl)
			}
		}
	}
}

// termWidth is the assumed terminal width used to wrap diff previews when
// the composer isn't attached to a real TTY to query.
const termWidth = 100

// visibleWidth returns the rune-display width of s, accounting for
// double-width CJK runes the way the teacher's chat renderer does for
// alignment of line-number gutters.
func visibleWidth(s string) int {
	return runewidth.StringWidth(s)
}
