package mcp

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedToolName_Basic(t *testing.T) {
	assert.Equal(t, "filesystem_read_file", QualifiedToolName("filesystem", "read_file"))
	assert.Equal(t, "my_server_do_thing", QualifiedToolName("my server!!", "do.thing"))
}

func TestSplitQualifiedName_RoundTrip(t *testing.T) {
	known := []string{"filesystem", "github"}
	qualified := QualifiedToolName("filesystem", "read_file")
	server, tool, ok := SplitQualifiedName(qualified, known)
	require.True(t, ok)
	assert.Equal(t, "filesystem", server)
	assert.Equal(t, "read_file", tool)
}

// TestQualifiedToolName_Stable checks property T2: the qualified name for a
// given (server, tool) pair is stable no matter how many times it is
// recomputed, regardless of punctuation noise in the inputs.
func TestQualifiedToolName_Stable(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("qualified name is deterministic", prop.ForAll(
		func(server, tool string) bool {
			a := QualifiedToolName(server, tool)
			b := QualifiedToolName(server, tool)
			return a == b
		},
		gen.RegexMatch(`[a-zA-Z0-9 ._-]{1,20}`),
		gen.RegexMatch(`[a-zA-Z0-9 ._-]{1,20}`),
	))

	properties.TestingRun(t)
}
