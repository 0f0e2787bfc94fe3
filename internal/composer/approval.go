package composer

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	"github.com/agentcore/agentcore/internal/localtools"
)

// PromptApproval implements localtools.ApprovalManager's PromptUIFunc using
// huh for the interactive select, opening /dev/tty directly so it works
// even when stdin/stdout are themselves piped (the agent's own input/output
// streams), the same TTY-bypass the teacher's approval UI relies on.
func PromptApproval(pathOrCommand string, isWrite, isShell bool) (localtools.ApprovalResult, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return localtools.ApprovalResult{Cancelled: true}, fmt.Errorf("no TTY available: %w", err)
	}
	defer tty.Close()

	var repoInfo *localtools.GitRepoInfo
	if isShell {
		cwd, _ := os.Getwd()
		if info := localtools.DetectGitRepo(cwd); info.IsRepo {
			repoInfo = &info
		}
	} else if info := localtools.DetectGitRepo(pathOrCommand); info.IsRepo {
		repoInfo = &info
	}

	var options []localtools.ApprovalOption
	title := "Read access request"
	switch {
	case isShell:
		title = "Shell command request"
		options = localtools.BuildShellOptions(pathOrCommand, repoInfo)
	case isWrite:
		title = "Write access request"
		options = localtools.BuildFileOptions(pathOrCommand, repoInfo, true)
	default:
		options = localtools.BuildFileOptions(pathOrCommand, repoInfo, false)
	}

	huhOptions := make([]huh.Option[int], len(options))
	for i, opt := range options {
		huhOptions[i] = huh.NewOption(fmt.Sprintf("%s — %s", opt.Label, opt.Description), i)
	}

	selected := 0
	field := huh.NewSelect[int]().
		Title(fmt.Sprintf("%s: %s", title, pathOrCommand)).
		Options(huhOptions...).
		Value(&selected)

	form := huh.NewForm(huh.NewGroup(field)).
		WithTheme(huh.ThemeBase()).
		WithInput(tty).
		WithOutput(tty)
	if err := form.Run(); err != nil {
		return localtools.ApprovalResult{Choice: localtools.ApprovalChoiceCancelled, Cancelled: true}, nil
	}

	chosen := options[selected]
	return localtools.ApprovalResult{
		Choice:     chosen.Choice,
		Path:       chosen.Path,
		Pattern:    chosen.Pattern,
		SaveToRepo: chosen.SaveToRepo,
	}, nil
}
