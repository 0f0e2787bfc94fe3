package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentcore/agentcore/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Manage configured MCP servers",
}

var mcpListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured MCP servers",
	RunE:  mcpList,
}

var mcpAddCmd = &cobra.Command{
	Use:   "add <name> <command> [args...]",
	Short: "Add a stdio MCP server",
	Args:  cobra.MinimumNArgs(2),
	RunE:  mcpAdd,
}

var mcpAddURLCmd = &cobra.Command{
	Use:   "add-url <name> <url>",
	Short: "Add an HTTP/SSE MCP server",
	Args:  cobra.ExactArgs(2),
	RunE:  mcpAddURL,
}

var mcpRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a configured MCP server",
	Args:  cobra.ExactArgs(1),
	RunE:  mcpRemove,
}

var mcpInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Start a server and list the tools it exposes",
	Args:  cobra.ExactArgs(1),
	RunE:  mcpInfo,
}

var mcpPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the MCP config file path",
	RunE:  mcpPath,
}

func init() {
	mcpCmd.AddCommand(mcpListCmd, mcpAddCmd, mcpAddURLCmd, mcpRemoveCmd, mcpInfoCmd, mcpPathCmd)
}

func mcpList(cmd *cobra.Command, args []string) error {
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	names := cfg.ServerNames()
	if len(names) == 0 {
		fmt.Println("No MCP servers configured. Add one with 'agentcore mcp add'.")
		return nil
	}
	for _, name := range names {
		server := cfg.Servers[name]
		switch server.TransportType() {
		case "http", "sse":
			fmt.Printf("%s (%s): %s\n", name, server.TransportType(), server.URL)
		default:
			fmt.Printf("%s (stdio): %s %s\n", name, server.Command, strings.Join(server.Args, " "))
		}
		if len(server.Env) > 0 {
			fmt.Printf("  %d env var(s) set\n", len(server.Env))
		}
	}
	path, _ := mcp.DefaultConfigPath()
	fmt.Printf("\nConfig file: %s\n", path)
	return nil
}

func mcpAdd(cmd *cobra.Command, args []string) error {
	name, command, rest := args[0], args[1], args[2:]
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	server := mcp.ServerConfig{Command: command, Args: rest}
	if err := server.Validate(); err != nil {
		return err
	}
	cfg.AddServer(name, server)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	fmt.Printf("Added MCP server %q\n", name)
	return nil
}

func mcpAddURL(cmd *cobra.Command, args []string) error {
	name, url := args[0], args[1]
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	server := mcp.ServerConfig{Type: "http", URL: url}
	if err := server.Validate(); err != nil {
		return err
	}
	cfg.AddServer(name, server)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	fmt.Printf("Added MCP server %q\n", name)
	return nil
}

func mcpRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	if !cfg.RemoveServer(name) {
		return fmt.Errorf("server %q not found in config", name)
	}
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("save mcp config: %w", err)
	}
	fmt.Printf("Removed MCP server %q\n", name)
	return nil
}

func mcpInfo(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("load mcp config: %w", err)
	}
	server, ok := cfg.Servers[name]
	if !ok {
		return fmt.Errorf("server %q not found in config", name)
	}

	pool := mcp.NewPool()
	pool.SetConfig(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), server.RequestTimeout()+5*time.Second)
	defer cancel()
	if err := pool.Enable(ctx, name); err != nil {
		return fmt.Errorf("start server: %w", err)
	}
	defer pool.StopAll()

	deadline := time.Now().Add(server.RequestTimeout())
	for time.Now().Before(deadline) {
		status, err := pool.ServerStatus(name)
		if err != nil {
			return fmt.Errorf("server %q failed to start: %w", name, err)
		}
		if status == mcp.StatusReady {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}

	tools := pool.ToolsForServer(name)
	fmt.Printf("MCP server %q (%d tool(s)):\n", name, len(tools))
	for _, t := range tools {
		fmt.Printf("  %s: %s\n", t.Name, t.Description)
	}
	return nil
}

func mcpPath(cmd *cobra.Command, args []string) error {
	path, err := mcp.DefaultConfigPath()
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
