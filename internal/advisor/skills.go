package advisor

import (
	"context"
	"strings"

	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/agentcore/agentcore/internal/skills"
)

// SkillsAdvisor appends an <available_skills> block to the leading system
// message, listing every non-disabled skill and instructing the model to
// call activate_skill when one matches. Idempotent: never appends a second
// block if one is already present, so re-running the chain against an
// already-tagged transcript (e.g. after a checkpoint restore) is safe.
type SkillsAdvisor struct {
	BaseAdvisor

	Registry *skills.Registry
}

func NewSkillsAdvisor(reg *skills.Registry) *SkillsAdvisor {
	return &SkillsAdvisor{Registry: reg}
}

func (a *SkillsAdvisor) Name() string { return "skills" }

func (a *SkillsAdvisor) BeforeCall(ctx context.Context, req *llmprovider.Request) error {
	if a.Registry == nil || len(req.Messages) == 0 {
		return nil
	}

	sys := &req.Messages[0]
	if sys.Role != chatmodel.RoleSystem {
		return nil
	}
	if strings.Contains(sys.Text(), "<available_skills>") {
		return nil
	}

	all, err := a.Registry.List()
	if err != nil {
		// Skills are best-effort: a scan failure must not block the turn.
		return nil
	}

	enabled := make([]*skills.Skill, 0, len(all))
	for _, s := range all {
		if !s.Disabled {
			enabled = append(enabled, s)
		}
	}

	block := skills.GenerateAvailableSkillsXML(enabled)
	if block == "" {
		return nil
	}

	appendSystemText(sys, "\n\n"+block)
	return nil
}
