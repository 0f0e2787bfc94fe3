package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/composer"
	"github.com/agentcore/agentcore/internal/session"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect, resume, and restore past sessions",
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions for this workspace",
	RunE:  sessionList,
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume [session_id]",
	Short: "Resume a past session; picks interactively if no ID is given",
	Args:  cobra.MaximumNArgs(1),
	RunE:  sessionResume,
}

var sessionRestoreCmd = &cobra.Command{
	Use:   "restore <commit>",
	Short: "Restore the workspace to a checkpoint commit taken during a past run",
	Args:  cobra.ExactArgs(1),
	RunE:  sessionRestore,
}

func init() {
	sessionCmd.AddCommand(sessionListCmd, sessionResumeCmd, sessionRestoreCmd)
}

func openSessionStore() (*session.FileStore, string, error) {
	workspace, err := os.Getwd()
	if err != nil {
		return nil, "", err
	}
	store, err := session.NewDefaultStore(workspace, "")
	if err != nil {
		return nil, "", err
	}
	return store, workspace, nil
}

func sessionList(cmd *cobra.Command, args []string) error {
	store, _, err := openSessionStore()
	if err != nil {
		return err
	}
	summaries, err := store.ListRecent(20)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No sessions recorded for this workspace yet.")
		return nil
	}
	for _, s := range summaries {
		fmt.Printf("%s  %s  (%d messages)  %s\n", s.ID, s.UpdatedAt.Format("2006-01-02 15:04"), s.MessageCount, s.LastUserMessagePreview)
	}
	return nil
}

// sessionResume loads the given session ID, or — if none was given —
// offers an interactive pick of the most recent sessions, the same
// most-recent-first selection a resume flow offers when launched bare.
func sessionResume(cmd *cobra.Command, args []string) error {
	store, workspace, err := openSessionStore()
	if err != nil {
		return err
	}

	var id string
	if len(args) == 1 {
		id = args[0]
	} else {
		summaries, err := store.ListRecent(10)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			return fmt.Errorf("no sessions to resume")
		}
		options := make([]huh.Option[string], len(summaries))
		for i, s := range summaries {
			label := fmt.Sprintf("%s — %s", s.UpdatedAt.Format("2006-01-02 15:04"), s.LastUserMessagePreview)
			options[i] = huh.NewOption(label, s.ID)
		}
		field := huh.NewSelect[string]().Title("Resume which session?").Options(options...).Value(&id)
		if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
			return fmt.Errorf("selection cancelled: %w", err)
		}
	}

	sess, err := store.Load(id)
	if err != nil {
		return fmt.Errorf("load session %s: %w", id, err)
	}

	closeLog := setupLogging()
	defer closeLog()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, checkInterrupted := signalContext()
	c, err := composer.New(composer.Options{
		Config:        cfg,
		WorkspacePath: workspace,
		Yolo:          yoloFlag,
		Resume:        sess,
		In:            os.Stdin,
		Out:           os.Stdout,
	})
	if err != nil {
		return err
	}
	if err := c.Run(ctx); err != nil {
		if checkInterrupted() {
			return errInterrupted
		}
		return err
	}
	return nil
}

// sessionRestore rolls the workspace back to a checkpoint commit taken by
// the shadow git repo during a past run. Checkpoints are identified by
// commit hash rather than a named snapshot file: Snapshot returns the hash
// it just created so a later "restore" only ever needs that value, logged
// to the session transcript or copied from 'git log' in the checkpoint
// git-dir.
func sessionRestore(cmd *cobra.Command, args []string) error {
	commit := args[0]
	workspace, err := os.Getwd()
	if err != nil {
		return err
	}
	checkpoints, err := session.NewDefaultCheckpointStore(workspace)
	if err != nil {
		return err
	}
	if err := checkpoints.Restore(cmd.Context(), commit); err != nil {
		return fmt.Errorf("restore %s: %w", commit, err)
	}
	fmt.Printf("Workspace restored to %s\n", commit)
	return nil
}
