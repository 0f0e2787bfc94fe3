package commands

import (
	"context"
	"testing"

	"github.com/agentcore/agentcore/internal/config"
	"github.com/agentcore/agentcore/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoHandler(s string) Handler {
	return func(ctx context.Context, args []string) (string, error) { return s, nil }
}

func TestDispatch_ExactNameMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "clear", Handler: echoHandler("cleared")})

	out, handled, err := r.Dispatch(context.Background(), "/clear")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "cleared", out)
}

func TestDispatch_AliasMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "quit", Aliases: []string{"q", "exit"}, Handler: echoHandler("bye")})

	out, handled, err := r.Dispatch(context.Background(), "/q")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "bye", out)
}

func TestDispatch_UnambiguousPrefixMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "sessions", Handler: echoHandler("sessions listed")})

	out, handled, err := r.Dispatch(context.Background(), "/sess")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "sessions listed", out)
}

func TestDispatch_AmbiguousPrefixReturnsError(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "save", Handler: echoHandler("")})
	r.Register(Command{Name: "search", Handler: echoHandler("")})

	_, handled, err := r.Dispatch(context.Background(), "/sa")
	assert.True(t, handled)
	require.Error(t, err)
	var ambigErr *AmbiguousCommandError
	require.ErrorAs(t, err, &ambigErr)
	assert.ElementsMatch(t, []string{"save", "search"}, ambigErr.Candidates)
}

func TestDispatch_UnknownCommandReturnsError(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "clear", Handler: echoHandler("")})

	_, handled, err := r.Dispatch(context.Background(), "/nope")
	assert.True(t, handled)
	require.Error(t, err)
	var unknownErr *UnknownCommandError
	require.ErrorAs(t, err, &unknownErr)
}

func TestDispatch_PassesArgsToHandler(t *testing.T) {
	r := NewRegistry()
	var gotArgs []string
	r.Register(Command{Name: "save", Handler: func(ctx context.Context, args []string) (string, error) {
		gotArgs = args
		return "", nil
	}})

	_, _, err := r.Dispatch(context.Background(), "/save my session name")
	require.NoError(t, err)
	assert.Equal(t, []string{"my", "session", "name"}, gotArgs)
}

func TestFind_FuzzyMatchesCommandNames(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "model", Handler: echoHandler("")})
	r.Register(Command{Name: "mcp", Handler: echoHandler("")})
	r.Register(Command{Name: "skills", Handler: echoHandler("")})

	results := r.Find("/m")
	var names []string
	for _, c := range results {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "model")
	assert.Contains(t, names, "mcp")
	assert.NotContains(t, names, "skills")
}

func TestRegister_ReplacesExistingCommandWithSameName(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "model", Handler: echoHandler("first")})
	r.Register(Command{Name: "model", Handler: echoHandler("second")})

	require.Len(t, r.All(), 1)
	out, _, err := r.Dispatch(context.Background(), "/model")
	require.NoError(t, err)
	assert.Equal(t, "second", out)
}

func TestModelCommand_EmitsConfigLLMChanged(t *testing.T) {
	r := NewRegistry()
	bus := events.NewBus()
	defer bus.Shutdown(true)
	cfg := &config.Config{DefaultProvider: "openai", Providers: map[string]config.ProviderConfig{
		"openai": {Model: "gpt-5"},
	}}
	RegisterModel(r, bus, cfg)

	received := make(chan events.Event, 1)
	bus.Subscribe(events.EventConfigLLMChanged, func(ev events.Event) { received <- ev }, 0)

	out, handled, err := r.Dispatch(context.Background(), "/model anthropic:claude-opus")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Contains(t, out, "anthropic:claude-opus")

	ev := <-received
	assert.Equal(t, "anthropic", ev.Provider)
	assert.Equal(t, "claude-opus", ev.Model)
}

func TestModelCommand_NoArgsShowsCurrentModel(t *testing.T) {
	r := NewRegistry()
	bus := events.NewBus()
	defer bus.Shutdown(true)
	cfg := &config.Config{DefaultProvider: "openai", Providers: map[string]config.ProviderConfig{
		"openai": {Model: "gpt-5"},
	}}
	RegisterModel(r, bus, cfg)

	out, _, err := r.Dispatch(context.Background(), "/model")
	require.NoError(t, err)
	assert.Contains(t, out, "openai:gpt-5")
}

func TestHelpCommand_ListsRegisteredCommands(t *testing.T) {
	r := NewRegistry()
	r.Register(Command{Name: "clear", Usage: "/clear", Description: "Clear history", Handler: echoHandler("")})
	RegisterHelp(r)

	out, _, err := r.Dispatch(context.Background(), "/help")
	require.NoError(t, err)
	assert.Contains(t, out, "/clear")
	assert.Contains(t, out, "Clear history")
}
