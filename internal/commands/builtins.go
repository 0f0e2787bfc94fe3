package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentcore/agentcore/internal/config"
	"github.com/agentcore/agentcore/internal/events"
)

// RegisterModel registers the built-in /model command, which switches the
// active provider/model by emitting events.EventConfigLLMChanged onto bus —
// it never calls the provider or config layer directly, so switching the
// model takes effect the same way whether it's driven by this command or by
// any other future caller of the bus.
func RegisterModel(r *Registry, bus *events.Bus, cfg *config.Config) {
	r.Register(Command{
		Name:        "model",
		Aliases:     []string{"m"},
		Description: "Switch provider/model",
		Usage:       "/model <provider:model>",
		Handler: func(ctx context.Context, args []string) (string, error) {
			if len(args) == 0 {
				active := cfg.GetActiveProviderConfig()
				model := ""
				if active != nil {
					model = active.Model
				}
				return fmt.Sprintf("Current model: %s:%s\nUsage: /model <provider:model>", cfg.DefaultProvider, model), nil
			}

			provider, model := config.ParseProviderModel(args[0])
			if provider == "" || model == "" {
				return "", fmt.Errorf("usage: /model <provider:model>")
			}

			bus.Emit(events.Event{Type: events.EventConfigLLMChanged, Provider: provider, Model: model})
			return fmt.Sprintf("Switched to %s:%s", provider, model), nil
		},
	})
}

// RegisterHelp registers the built-in /help command, listing every other
// registered command. The handler calls All() each time /help runs, so the
// list reflects every command registered by then, whatever the order of
// registration.
func RegisterHelp(r *Registry) {
	r.Register(Command{
		Name:        "help",
		Aliases:     []string{"h", "?"},
		Description: "Show available commands",
		Usage:       "/help",
		Handler: func(ctx context.Context, args []string) (string, error) {
			var b strings.Builder
			b.WriteString("Available commands:\n")
			for _, c := range r.All() {
				b.WriteString(fmt.Sprintf("  %s", c.Usage))
				if len(c.Aliases) > 0 {
					b.WriteString(fmt.Sprintf(" (aliases: %s)", strings.Join(c.Aliases, ", ")))
				}
				b.WriteString(fmt.Sprintf(" - %s\n", c.Description))
			}
			return b.String(), nil
		},
	})
}
