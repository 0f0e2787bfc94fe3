package composer

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeMarker(t *testing.T, p diffPayload) string {
	t.Helper()
	raw, err := json.Marshal(p)
	require.NoError(t, err)
	return diffMarkerPrefix + base64.StdEncoding.EncodeToString(raw)
}

func TestPrintDiffMarkers_PassesThroughPlainLines(t *testing.T) {
	var buf bytes.Buffer
	printDiffMarkers(&buf, "tool ran successfully\nno changes here\n")
	assert.Equal(t, "tool ran successfully\nno changes here\n", buf.String())
}

func TestPrintDiffMarkers_RendersEmbeddedDiff(t *testing.T) {
	marker := encodeMarker(t, diffPayload{
		File: "main.go",
		Old:  "func main() {\n\tfmt.Println(\"old\")\n}\n",
		New:  "func main() {\n\tfmt.Println(\"new\")\n}\n",
		Line: 1,
	})

	var buf bytes.Buffer
	printDiffMarkers(&buf, marker)
	out := buf.String()
	assert.Contains(t, out, "--- edit: main.go ---")
	assert.Contains(t, out, "new")
}

func TestPrintDiffMarkers_SkipsInvalidBase64(t *testing.T) {
	var buf bytes.Buffer
	printDiffMarkers(&buf, diffMarkerPrefix+"not-valid-base64!!!")
	assert.Empty(t, buf.String())
}

func TestRenderUnifiedDiff_NoOpWhenContentIdentical(t *testing.T) {
	var buf bytes.Buffer
	renderUnifiedDiff(&buf, "f.go", "same\n", "same\n")
	assert.Empty(t, buf.String())
}

func TestRenderUnifiedDiff_ShowsHeaderForChangedContent(t *testing.T) {
	var buf bytes.Buffer
	renderUnifiedDiff(&buf, "f.go", "one\n", "two\n")
	assert.Contains(t, buf.String(), "--- edit: f.go ---")
}

func TestVisibleWidth_AccountsForWideRunes(t *testing.T) {
	assert.Equal(t, 4, visibleWidth("abcd"))
	assert.Greater(t, visibleWidth("文字"), 2)
}
