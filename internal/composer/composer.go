// Package composer implements the thin terminal front-end that drives an
// Orchestrator interactively: a readline loop over stdin, slash-command
// dispatch via internal/commands, and plain lines sent to the orchestrator
// as a turn. The concrete widget tree (inline diffs, syntax highlighting,
// a full-screen TUI) is out of scope — this is the minimal loop the core
// engine needs to be exercised from a terminal, grounded on the shape of
// the teacher's runChat loop without its bubbletea view layer.
package composer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/agentcore/agentcore/internal/advisor"
	"github.com/agentcore/agentcore/internal/chatmodel"
	"github.com/agentcore/agentcore/internal/commands"
	"github.com/agentcore/agentcore/internal/config"
	"github.com/agentcore/agentcore/internal/contextmgr"
	"github.com/agentcore/agentcore/internal/events"
	"github.com/agentcore/agentcore/internal/llmprovider"
	"github.com/agentcore/agentcore/internal/localtools"
	"github.com/agentcore/agentcore/internal/orchestrator"
	"github.com/agentcore/agentcore/internal/session"
	"github.com/agentcore/agentcore/internal/skills"
	"github.com/agentcore/agentcore/internal/toolregistry"
)

// Composer wires every core component into one interactive loop: config,
// provider, tool registry, advisor chain, checkpoint/session stores, the
// event bus, and the command registry.
type Composer struct {
	cfg       *config.Config
	orch      *orchestrator.Orchestrator
	registry  *commands.Registry
	bus       *events.Bus
	store     session.Store
	sess      *session.Session
	transcript []chatmodel.Message

	in  *bufio.Scanner
	out io.Writer
}

// Options configures a new Composer.
type Options struct {
	Config        *config.Config
	WorkspacePath string
	Yolo          bool
	Resume        *session.Session
	In            io.Reader
	Out           io.Writer
}

// New wires a Composer from cfg: builds the local tool registry under
// approval gating (PromptApproval unless Yolo), a checkpoint/session store
// pair rooted at WorkspacePath, and an Orchestrator bound to the active
// provider.
func New(opts Options) (*Composer, error) {
	cfg := opts.Config
	active := cfg.GetActiveProviderConfig()
	if active == nil {
		return nil, fmt.Errorf("no active provider configured")
	}

	provider := llmprovider.NewOpenAICompatProvider(active.ResolvedURL, active.ResolvedAPIKey, active.Model, cfg.DefaultProvider)

	perms, err := localtools.DefaultToolConfig().BuildPermissions()
	if err != nil {
		return nil, fmt.Errorf("build tool permissions: %w", err)
	}
	approvalMgr := localtools.NewApprovalManager(perms)
	approvalMgr.SetYoloMode(opts.Yolo)
	approvalMgr.PromptUIFunc = PromptApproval

	toolCfg := localtools.DefaultToolConfig()
	toolCfg.Enabled = localtools.AllToolNames()
	ltr, err := localtools.NewLocalToolRegistry(&toolCfg, cfg, approvalMgr)
	if err != nil {
		return nil, fmt.Errorf("build local tool registry: %w", err)
	}

	reg := toolregistry.New()
	if err := ltr.RegisterWithRegistry(reg); err != nil {
		return nil, fmt.Errorf("register local tools: %w", err)
	}

	var skillsAdvisor *advisor.SkillsAdvisor
	if setup, err := skills.NewSetup(&cfg.Skills); err == nil && setup != nil && setup.Registry != nil {
		skillsAdvisor = advisor.NewSkillsAdvisor(setup.Registry)
	}

	modelName := cfg.DefaultProvider + ":" + active.Model
	chainAdvisors := []advisor.Advisor{
		advisor.NewSystemPromptAdvisor(opts.WorkspacePath, func() string { return modelName }),
	}
	if skillsAdvisor != nil {
		chainAdvisors = append(chainAdvisors, skillsAdvisor)
	}
	chainAdvisors = append(chainAdvisors,
		advisor.NewContextAdvisor(contextmgr.New(contextmgr.DefaultConfig(), nil, contextmgr.NewProviderSummarizer(provider)), nil),
		advisor.NewFinishTaskAdvisor(),
	)
	chain := advisor.NewChain(chainAdvisors...)

	checkpoints, err := session.NewDefaultCheckpointStore(opts.WorkspacePath)
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}

	store, err := session.NewDefaultStore(opts.WorkspacePath, "")
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	bus := events.NewBus()

	sess := opts.Resume
	var transcript []chatmodel.Message
	if sess == nil {
		sess = &session.Session{ID: chatmodel.NewMessageID()}
	} else {
		transcript = append(transcript, sess.Messages...)
	}

	orch := &orchestrator.Orchestrator{
		Provider:    provider,
		Chain:       chain,
		Tools:       reg,
		Bus:         bus,
		Checkpoints: checkpoints,
		Model:       active.Model,
		Persist: func(msg chatmodel.Message) error {
			sess.Messages = append(sess.Messages, msg)
			return store.Save(sess)
		},
	}

	reader := opts.In
	if reader == nil {
		reader = strings.NewReader("")
	}
	writer := opts.Out
	if writer == nil {
		writer = io.Discard
	}

	c := &Composer{
		cfg:        cfg,
		orch:       orch,
		bus:        bus,
		store:      store,
		sess:       sess,
		transcript: transcript,
		in:         bufio.NewScanner(reader),
		out:        writer,
	}
	c.registry = c.buildCommandRegistry()
	c.subscribeStreamingOutput()
	return c, nil
}

// buildCommandRegistry registers the built-ins plus /clear and /quit, which
// need direct access to Composer state rather than just the bus.
func (c *Composer) buildCommandRegistry() *commands.Registry {
	reg := commands.NewRegistry()
	commands.RegisterModel(reg, c.bus, c.cfg)
	reg.Register(commands.Command{
		Name:        "clear",
		Description: "Clear the conversation transcript",
		Usage:       "/clear",
		Handler: func(ctx context.Context, args []string) (string, error) {
			c.transcript = nil
			return "Conversation cleared.", nil
		},
	})
	commands.RegisterHelp(reg)
	return reg
}

// subscribeStreamingOutput prints assistant text as it streams and a
// newline once the turn's last message finishes, so output reads like a
// normal terminal chat rather than arriving in one final burst.
func (c *Composer) subscribeStreamingOutput() {
	c.bus.Subscribe(events.EventAgentMessageDelta, func(ev events.Event) {
		fmt.Fprint(c.out, ev.Delta)
	}, 0)
	c.bus.Subscribe(events.EventAgentTaskStop, func(ev events.Event) {
		fmt.Fprintln(c.out)
	}, 0)
	c.bus.Subscribe(events.EventAgentToolResult, func(ev events.Event) {
		if strings.Contains(ev.ToolResult, diffMarkerPrefix) {
			printDiffMarkers(c.out, ev.ToolResult)
		}
	}, 0)
}

// Run drives the read-eval loop until EOF (Ctrl-D) or ctx is cancelled.
func (c *Composer) Run(ctx context.Context) error {
	defer c.bus.Shutdown(true)

	for {
		fmt.Fprint(c.out, "> ")
		if !c.in.Scan() {
			return c.in.Err()
		}
		line := strings.TrimSpace(c.in.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			output, handled, err := c.registry.Dispatch(ctx, line)
			var unknown *commands.UnknownCommandError
			if !handled || errors.As(err, &unknown) {
				fmt.Fprintln(c.out, "unrecognized input")
				continue
			}
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, output)
			continue
		}

		if _, err := c.orch.RunTurn(ctx, &c.transcript, line); err != nil {
			fmt.Fprintf(c.out, "error: %v\n", err)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
