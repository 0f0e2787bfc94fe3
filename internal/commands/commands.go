// Package commands implements the slash-command registry: input beginning
// with "/" is matched against a registered command (by exact name, alias,
// or unambiguous prefix) and dispatched to its handler instead of being sent
// to the model as a prompt. Fuzzy search is offered separately by Find.
package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Handler runs a command's body. args is whatever followed the command name
// on the input line, already whitespace-split. It returns the text to show
// the user (empty if nothing need be shown) or an error.
type Handler func(ctx context.Context, args []string) (string, error)

// Command describes one slash command.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Handler     Handler
}

// matches reports whether name or one of c's aliases equals query.
func (c Command) matches(query string) bool {
	if c.Name == query {
		return true
	}
	for _, a := range c.Aliases {
		if a == query {
			return true
		}
	}
	return false
}

// Registry is the live set of slash commands for a session. It is not safe
// for concurrent Register calls racing Dispatch, but in normal use all
// registration happens once at startup before any input is processed.
type Registry struct {
	commands []Command
}

// NewRegistry builds an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds cmd. A later Register with the same Name replaces the
// earlier one, so built-ins can be overridden by re-registering.
func (r *Registry) Register(cmd Command) {
	for i, existing := range r.commands {
		if existing.Name == cmd.Name {
			r.commands[i] = cmd
			return
		}
	}
	r.commands = append(r.commands, cmd)
}

// All returns every registered command, sorted by name.
func (r *Registry) All() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// commandSource adapts []Command to fuzzy.Source.
type commandSource []Command

func (s commandSource) String(i int) string { return s[i].Name }
func (s commandSource) Len() int            { return len(s) }

// Find returns commands matching query, in relevance order: for a query
// longer than one character, an exact name/alias match short-circuits to a
// single result; otherwise fuzzy
// matching over command names, falling back to a plain prefix scan if fuzzy
// finds nothing. Used to drive a command palette's live filtering.
func (r *Registry) Find(query string) []Command {
	query = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(query)), "/")
	if query == "" {
		return r.All()
	}

	if len(query) > 1 {
		for _, c := range r.commands {
			if c.matches(query) {
				return []Command{c}
			}
		}
	}

	matches := fuzzy.FindFrom(query, commandSource(r.commands))
	if len(matches) > 0 {
		result := make([]Command, 0, len(matches))
		for _, m := range matches {
			result = append(result, r.commands[m.Index])
		}
		return result
	}

	var prefixed []Command
	for _, c := range r.commands {
		if strings.HasPrefix(c.Name, query) {
			prefixed = append(prefixed, c)
		}
	}
	return prefixed
}

// UnknownCommandError is returned by Dispatch when input names no
// registered command.
type UnknownCommandError struct{ Name string }

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: /%s", e.Name)
}

// AmbiguousCommandError is returned by Dispatch when a command-name prefix
// matches more than one registered command.
type AmbiguousCommandError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguousCommandError) Error() string {
	return fmt.Sprintf("ambiguous command /%s: matches %s", e.Name, strings.Join(e.Candidates, ", "))
}

// Dispatch resolves and runs the command named at the start of input (which
// must begin with "/"). handled is false only when input is empty; any
// named command reports true, and a name that matches no command or more
// than one comes back as an UnknownCommandError or AmbiguousCommandError.
func (r *Registry) Dispatch(ctx context.Context, input string) (output string, handled bool, err error) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return "", false, nil
	}

	name := strings.ToLower(strings.TrimPrefix(fields[0], "/"))
	args := fields[1:]

	cmd, err := r.resolve(name)
	if err != nil {
		return "", true, err
	}

	out, err := cmd.Handler(ctx, args)
	return out, true, err
}

// resolve finds the single command named by name: an exact name/alias match
// first, then an unambiguous prefix match.
func (r *Registry) resolve(name string) (Command, error) {
	for _, c := range r.commands {
		if c.matches(name) {
			return c, nil
		}
	}

	var prefixMatches []Command
	for _, c := range r.commands {
		if strings.HasPrefix(c.Name, name) {
			prefixMatches = append(prefixMatches, c)
		}
	}
	switch len(prefixMatches) {
	case 0:
		return Command{}, &UnknownCommandError{Name: name}
	case 1:
		return prefixMatches[0], nil
	default:
		names := make([]string, len(prefixMatches))
		for i, c := range prefixMatches {
			names[i] = c.Name
		}
		return Command{}, &AmbiguousCommandError{Name: name, Candidates: names}
	}
}
