package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ServerStatus represents the current state of a pooled MCP server.
type ServerStatus string

const (
	StatusStopped  ServerStatus = "stopped"
	StatusStarting ServerStatus = "starting"
	StatusReady    ServerStatus = "ready"
	StatusFailed   ServerStatus = "failed"
)

// ServerState holds the state of a pooled MCP server.
type ServerState struct {
	Name   string
	Status ServerStatus
	Error  error
	Client *Client
}

// StatusUpdate is sent when a server's status changes.
type StatusUpdate struct {
	Name   string
	Status ServerStatus
	Error  error
}

// Pool manages the lifecycle of every configured MCP server and exposes
// their tools under a single sanitized, collision-free namespace.
type Pool struct {
	config   *Config
	clients  map[string]*Client
	statuses map[string]*ServerState
	mu       sync.RWMutex

	statusChan chan StatusUpdate
}

func NewPool() *Pool {
	return &Pool{
		clients:  make(map[string]*Client),
		statuses: make(map[string]*ServerState),
	}
}

func (p *Pool) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.config = cfg
	p.mu.Unlock()
	return nil
}

func (p *Pool) SetConfig(cfg *Config) {
	p.mu.Lock()
	p.config = cfg
	p.mu.Unlock()
}

func (p *Pool) Config() *Config {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.config
}

func (p *Pool) SetStatusChannel(ch chan StatusUpdate) {
	p.mu.Lock()
	p.statusChan = ch
	p.mu.Unlock()
}

func (p *Pool) sendStatus(name string, status ServerStatus, err error) {
	p.mu.RLock()
	ch := p.statusChan
	p.mu.RUnlock()
	if ch != nil {
		select {
		case ch <- StatusUpdate{Name: name, Status: status, Error: err}:
		default:
		}
	}
}

func (p *Pool) AvailableServers() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.config == nil {
		return nil
	}
	return p.config.ServerNames()
}

func (p *Pool) ServerStatus(name string) (ServerStatus, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	state, ok := p.statuses[name]
	if !ok {
		return StatusStopped, nil
	}
	return state.Status, state.Error
}

// Enable starts a server in the background (non-blocking).
func (p *Pool) Enable(ctx context.Context, name string) error {
	p.mu.Lock()
	if p.config == nil {
		p.mu.Unlock()
		return fmt.Errorf("no MCP configuration loaded")
	}
	serverCfg, ok := p.config.Servers[name]
	if !ok {
		p.mu.Unlock()
		return fmt.Errorf("unknown MCP server: %s", name)
	}
	if state, ok := p.statuses[name]; ok {
		if state.Status == StatusStarting || state.Status == StatusReady {
			p.mu.Unlock()
			return nil
		}
	}

	client := NewClient(name, serverCfg)
	p.clients[name] = client
	p.statuses[name] = &ServerState{Name: name, Status: StatusStarting, Client: client}
	p.mu.Unlock()

	p.sendStatus(name, StatusStarting, nil)

	go func() {
		err := client.Start(ctx)

		p.mu.Lock()
		state := p.statuses[name]
		if err != nil {
			state.Status = StatusFailed
			state.Error = err
		} else {
			state.Status = StatusReady
			state.Error = nil
		}
		p.mu.Unlock()

		p.sendStatus(name, state.Status, err)
	}()

	return nil
}

// EnableAll starts every configured server concurrently and waits for each
// attempt to finish (success or failure). It always returns nil: a server
// that fails to start is recorded as StatusFailed with its error (see
// ServerStatus) rather than returned, so one failure does not cancel the
// others.
func (p *Pool) EnableAll(ctx context.Context) error {
	p.mu.RLock()
	names := make([]string, 0, len(p.config.Servers))
	for name := range p.config.Servers {
		names = append(names, name)
	}
	p.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			client := NewClient(name, p.config.Servers[name])
			p.mu.Lock()
			p.clients[name] = client
			p.statuses[name] = &ServerState{Name: name, Status: StatusStarting, Client: client}
			p.mu.Unlock()
			p.sendStatus(name, StatusStarting, nil)

			err := client.Start(gctx)

			p.mu.Lock()
			state := p.statuses[name]
			if err != nil {
				state.Status = StatusFailed
				state.Error = err
			} else {
				state.Status = StatusReady
			}
			p.mu.Unlock()
			p.sendStatus(name, state.Status, err)
			return nil // a single failed server shouldn't abort the others
		})
	}
	return g.Wait()
}

func (p *Pool) Disable(name string) error {
	p.mu.Lock()
	client, ok := p.clients[name]
	if !ok {
		p.mu.Unlock()
		return nil
	}
	delete(p.clients, name)
	if state, ok := p.statuses[name]; ok {
		state.Status = StatusStopped
		state.Error = nil
		state.Client = nil
	}
	p.mu.Unlock()

	InvalidateCache(name)
	p.sendStatus(name, StatusStopped, nil)
	return client.Stop()
}

func (p *Pool) Restart(ctx context.Context, name string) error {
	if err := p.Disable(name); err != nil {
		return err
	}
	return p.Enable(ctx, name)
}

func (p *Pool) StopAll() {
	p.mu.Lock()
	clients := make([]*Client, 0, len(p.clients))
	for _, c := range p.clients {
		clients = append(clients, c)
	}
	p.clients = make(map[string]*Client)
	p.statuses = make(map[string]*ServerState)
	p.mu.Unlock()

	for _, c := range clients {
		c.Stop()
	}
}

// AllTools returns every tool across every ready server, with provider-
// visible names produced by QualifiedToolName (T2: stable regardless of
// reconnect ordering).
func (p *Pool) AllTools() []ToolSpec {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var allTools []ToolSpec
	for name, state := range p.statuses {
		if state.Status != StatusReady || state.Client == nil {
			continue
		}
		for _, tool := range state.Client.Tools() {
			allTools = append(allTools, ToolSpec{
				Name:        QualifiedToolName(name, tool.Name),
				Description: fmt.Sprintf("[%s] %s", name, tool.Description),
				Schema:      tool.Schema,
			})
		}
	}
	return allTools
}

// ToolsForServer returns one server's tools under their qualified names,
// for use with Registry.ReplaceGroup.
func (p *Pool) ToolsForServer(name string) []ToolSpec {
	p.mu.RLock()
	defer p.mu.RUnlock()
	state, ok := p.statuses[name]
	if !ok || state.Status != StatusReady || state.Client == nil {
		return nil
	}
	tools := make([]ToolSpec, 0, len(state.Client.Tools()))
	for _, tool := range state.Client.Tools() {
		tools = append(tools, ToolSpec{
			Name:        QualifiedToolName(name, tool.Name),
			Description: fmt.Sprintf("[%s] %s", name, tool.Description),
			Schema:      tool.Schema,
		})
	}
	return tools
}

// CallTool routes a qualified tool name to the owning server.
func (p *Pool) CallTool(ctx context.Context, qualifiedName string, args json.RawMessage) (string, error) {
	p.mu.RLock()
	knownServers := make([]string, 0, len(p.statuses))
	serverBySanitized := make(map[string]string, len(p.statuses))
	for name := range p.statuses {
		knownServers = append(knownServers, sanitizeNamePart(name))
		serverBySanitized[sanitizeNamePart(name)] = name
	}
	p.mu.RUnlock()

	sanitizedServer, toolName, ok := SplitQualifiedName(qualifiedName, knownServers)
	if !ok {
		return "", fmt.Errorf("invalid MCP tool name: %s", qualifiedName)
	}
	serverName := serverBySanitized[sanitizedServer]

	p.mu.RLock()
	state, ok := p.statuses[serverName]
	p.mu.RUnlock()

	if !ok || state.Status != StatusReady || state.Client == nil {
		return "", newToolError("call", serverName, toolName, fmt.Errorf("server is not running"))
	}

	for _, tool := range state.Client.Tools() {
		if sanitizeNamePart(tool.Name) == toolName {
			toolName = tool.Name
			break
		}
	}
	return state.Client.CallTool(ctx, toolName, args)
}

func (p *Pool) GetAllStates() []ServerState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	states := make([]ServerState, 0, len(p.statuses))
	for _, state := range p.statuses {
		states = append(states, ServerState{Name: state.Name, Status: state.Status, Error: state.Error})
	}
	return states
}
