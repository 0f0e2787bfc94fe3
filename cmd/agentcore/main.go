// Command agentcore is the interactive coding-agent CLI: a default chat
// loop plus subcommands for managing MCP servers and sessions.
package main

import "os"

func main() {
	os.Exit(run())
}

func run() int {
	if err := rootCmd.Execute(); err != nil {
		return exitCodeFor(err)
	}
	return 0
}
