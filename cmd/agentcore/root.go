package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/applog"
	"github.com/agentcore/agentcore/internal/config"
)

var errInterrupted = errors.New("interrupted")

var yoloFlag bool

var rootCmd = &cobra.Command{
	Use:   "agentcore",
	Short: "An autonomous coding agent for your terminal",
	Long: `agentcore drives an LLM-backed coding agent against your local workspace:
it reads and edits files, runs shell commands under approval, and calls out
to MCP servers, all from an interactive terminal session.

Running with no subcommand starts an interactive chat. Use "agentcore mcp"
to manage MCP servers and "agentcore session" to resume or inspect past
sessions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runChat,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&yoloFlag, "yolo", false, "skip all approval prompts (dangerous)")
	rootCmd.AddCommand(mcpCmd, sessionCmd, initCmd)
}

// exitCodeFor maps a returned error to a process exit code: 130 for the
// user having interrupted the run, 1 for anything else, per how an
// interactive CLI should behave under Ctrl-C vs. a real failure.
func exitCodeFor(err error) int {
	if errors.Is(err, errInterrupted) {
		return 130
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, and a func
// reporting whether cancellation came from a signal rather than the work
// finishing on its own.
func signalContext() (context.Context, func() bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return ctx, func() bool {
		stop()
		return ctx.Err() != nil
	}
}

func loadConfig() (*config.Config, error) {
	if config.NeedsSetup() {
		return nil, fmt.Errorf("no config found at %s; run 'agentcore init' first", mustConfigPath())
	}
	return config.Load()
}

func mustConfigPath() string {
	path, err := config.GetConfigPath()
	if err != nil {
		return "(unknown)"
	}
	return path
}

func setupLogging() func() error {
	dataDir, err := applog.DefaultDataDir()
	if err != nil {
		return func() error { return nil }
	}
	closeFn, err := applog.Setup(dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "warning: logging setup failed:", err)
	}
	return closeFn
}
