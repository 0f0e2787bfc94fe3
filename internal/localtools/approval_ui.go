package localtools

// ApprovalChoice represents a user's approval selection. The concrete
// prompt widget lives outside this package (internal/composer); this
// package only defines the contract ApprovalManager.PromptUIFunc speaks.
type ApprovalChoice int

const (
	ApprovalChoiceDeny      ApprovalChoice = iota // Deny the request
	ApprovalChoiceOnce                            // Allow once, no memory
	ApprovalChoiceFile                            // Allow this file only (session)
	ApprovalChoiceDirectory                       // Allow this directory (session)
	ApprovalChoiceRepoRead                        // Allow read for entire repo (remembered)
	ApprovalChoiceRepoWrite                       // Allow write for entire repo (remembered)
	ApprovalChoicePattern                         // Allow shell pattern in repo (remembered)
	ApprovalChoiceCommand                         // Allow this specific command (session)
	ApprovalChoiceCancelled                       // User cancelled with esc/ctrl+c
)

// ApprovalResult contains the result of an approval prompt.
type ApprovalResult struct {
	Choice     ApprovalChoice
	Path       string // Selected path (for file/directory)
	Pattern    string // Selected pattern (for shell)
	SaveToRepo bool   // Whether to save to project approvals
	Cancelled  bool   // Whether user cancelled
}

// ApprovalOption describes one offered choice, for a prompt implementation
// to render and pick from.
type ApprovalOption struct {
	Label       string
	Description string
	Choice      ApprovalChoice
	Path        string
	Pattern     string
	SaveToRepo  bool
}

// BuildFileOptions lists the offered choices for a file read/write request,
// tailoring remembered (repo-scoped) options to whether path sits inside a
// git repository.
func BuildFileOptions(path string, repoInfo *GitRepoInfo, isWrite bool) []ApprovalOption {
	accessType := "read"
	if isWrite {
		accessType = "write"
	}
	dir := getDirectoryForApproval(path)

	var options []ApprovalOption
	if repoInfo != nil && repoInfo.IsRepo {
		relPath := GetRelativePath(path, repoInfo.Root)
		relDir := GetRelativePath(dir, repoInfo.Root)

		repoChoice := ApprovalChoiceRepoRead
		if isWrite {
			repoChoice = ApprovalChoiceRepoWrite
		}
		options = append(options,
			ApprovalOption{
				Label:       "Allow " + accessType + " for entire repo",
				Description: "Approve all files in " + repoInfo.RepoName + " (remembered)",
				Choice:      repoChoice,
				Path:        repoInfo.Root,
				SaveToRepo:  true,
			},
			ApprovalOption{
				Label:       "Allow " + accessType + " for this directory",
				Description: "Approve " + relDir + " (session only)",
				Choice:      ApprovalChoiceDirectory,
				Path:        dir,
			},
			ApprovalOption{
				Label:       "Allow this file only",
				Description: "Approve " + relPath + " (session only)",
				Choice:      ApprovalChoiceFile,
				Path:        path,
			},
		)
	} else {
		options = append(options,
			ApprovalOption{
				Label:       "Allow " + accessType + " for this directory",
				Description: "Approve " + dir + " (session only)",
				Choice:      ApprovalChoiceDirectory,
				Path:        dir,
			},
			ApprovalOption{
				Label:       "Allow this file only",
				Description: "Approve " + path + " (session only)",
				Choice:      ApprovalChoiceFile,
				Path:        path,
			},
		)
	}

	return append(options,
		ApprovalOption{Label: "Allow once", Description: "Single access, no memory", Choice: ApprovalChoiceOnce},
		ApprovalOption{Label: "Deny", Description: "Block this access request", Choice: ApprovalChoiceDeny},
	)
}

// BuildShellOptions lists the offered choices for a shell command request.
func BuildShellOptions(command string, repoInfo *GitRepoInfo) []ApprovalOption {
	var options []ApprovalOption
	pattern := GenerateShellPattern(command)

	if repoInfo != nil && repoInfo.IsRepo {
		options = append(options, ApprovalOption{
			Label:       "Allow \"" + pattern + "\" pattern",
			Description: "Approve matching commands in " + repoInfo.RepoName + " (remembered)",
			Choice:      ApprovalChoicePattern,
			Pattern:     pattern,
			SaveToRepo:  true,
		})
	}

	return append(options,
		ApprovalOption{Label: "Allow this specific command", Description: "Approve \"" + command + "\" (session only)", Choice: ApprovalChoiceCommand, Pattern: command},
		ApprovalOption{Label: "Allow once", Description: "Single execution, no memory", Choice: ApprovalChoiceOnce},
		ApprovalOption{Label: "Deny", Description: "Block this command", Choice: ApprovalChoiceDeny},
	)
}
