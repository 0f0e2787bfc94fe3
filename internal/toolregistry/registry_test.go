package toolregistry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name       string
	finishing  bool
	isFinisher bool
}

func (s *stubTool) Spec() chatmodel.ToolSpec {
	return chatmodel.ToolSpec{Name: s.name}
}

func (s *stubTool) Execute(ctx context.Context, args json.RawMessage) (ToolOutput, error) {
	return ToolOutput{Content: "ok"}, nil
}

func (s *stubTool) Preview(args json.RawMessage) string {
	return s.name
}

func (s *stubTool) IsFinishingTool() bool {
	return s.isFinisher
}

func TestRegister_DuplicateName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("read_file", &stubTool{name: "read_file"}))
	err := r.Register("read_file", &stubTool{name: "read_file"})
	require.Error(t, err)
	var dup *DuplicateTool
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, "read_file", dup.Name)
}

func TestGet_UnknownName(t *testing.T) {
	r := New()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}

func TestUnregister_RemovesTool(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("shell", &stubTool{name: "shell"}))
	r.Unregister("shell")
	_, ok := r.Get("shell")
	assert.False(t, ok)
}

func TestUnregister_UnknownIsNoop(t *testing.T) {
	r := New()
	r.Unregister("nonexistent")
}

func TestIsFinishingTool(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("finish_task", &stubTool{name: "finish_task", isFinisher: true}))
	require.NoError(t, r.Register("shell", &stubTool{name: "shell"}))

	assert.True(t, r.IsFinishingTool("finish_task"))
	assert.False(t, r.IsFinishingTool("shell"))
	assert.False(t, r.IsFinishingTool("missing"))
}

func TestAllSpecs_SortedByName(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("zeta", &stubTool{name: "zeta"}))
	require.NoError(t, r.Register("alpha", &stubTool{name: "alpha"}))
	require.NoError(t, r.Register("mid", &stubTool{name: "mid"}))

	specs := r.AllSpecs()
	require.Len(t, specs, 3)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, []string{specs[0].Name, specs[1].Name, specs[2].Name})
}

func TestReplaceGroup_SwapsOwnedTools(t *testing.T) {
	r := New()
	r.ReplaceGroup("filesystem", map[string]Tool{
		"filesystem_read_file": &stubTool{name: "filesystem_read_file"},
		"filesystem_write_file": &stubTool{name: "filesystem_write_file"},
	})
	_, ok := r.Get("filesystem_read_file")
	assert.True(t, ok)

	r.ReplaceGroup("filesystem", map[string]Tool{
		"filesystem_list_dir": &stubTool{name: "filesystem_list_dir"},
	})

	_, ok = r.Get("filesystem_read_file")
	assert.False(t, ok, "old group member should be gone after replace")
	_, ok = r.Get("filesystem_write_file")
	assert.False(t, ok)
	_, ok = r.Get("filesystem_list_dir")
	assert.True(t, ok)
}

func TestReplaceGroup_DoesNotAffectOtherGroups(t *testing.T) {
	r := New()
	require.NoError(t, r.Register("shell", &stubTool{name: "shell"}))
	r.ReplaceGroup("github", map[string]Tool{
		"github_create_issue": &stubTool{name: "github_create_issue"},
	})

	r.ReplaceGroup("github", map[string]Tool{})

	_, ok := r.Get("shell")
	assert.True(t, ok, "local tool outside any group must survive an unrelated group replace")
}

func TestClearGroup_RemovesAllGroupMembers(t *testing.T) {
	r := New()
	r.ReplaceGroup("github", map[string]Tool{
		"github_create_issue": &stubTool{name: "github_create_issue"},
		"github_list_prs":     &stubTool{name: "github_list_prs"},
	})
	r.ClearGroup("github")

	_, ok := r.Get("github_create_issue")
	assert.False(t, ok)
	_, ok = r.Get("github_list_prs")
	assert.False(t, ok)
}
