package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/exec"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolSpec describes a tool available from an MCP server.
type ToolSpec struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Client wraps a single MCP server connection over whichever transport its
// ServerConfig selects (stdio, http, or sse).
type Client struct {
	name    string
	config  ServerConfig
	client  *mcp.Client
	session *mcp.ClientSession
	tools   []ToolSpec
	mu      sync.RWMutex
	running bool
}

func NewClient(name string, config ServerConfig) *Client {
	return &Client{name: name, config: config}
}

func (c *Client) Name() string { return c.name }

// Start connects to the MCP server using the transport its config selects
// and fetches its initial tool list.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	c.client = mcp.NewClient(&mcp.Implementation{
		Name:    "agentcore",
		Version: "1.0.0",
	}, nil)

	transport, err := c.buildTransport(ctx)
	if err != nil {
		return fmt.Errorf("build transport for %s: %w", c.name, err)
	}

	session, err := c.client.Connect(ctx, transport, nil)
	if err != nil {
		return newToolError("dial", c.name, "", err)
	}
	c.session = session

	if err := c.refreshTools(ctx); err != nil {
		c.session.Close()
		c.session = nil
		return fmt.Errorf("list tools from %s: %w", c.name, err)
	}

	c.running = true
	return nil
}

func (c *Client) buildTransport(ctx context.Context) (mcp.Transport, error) {
	switch c.config.TransportType() {
	case "stdio":
		cmd := exec.CommandContext(ctx, c.config.Command, c.config.Args...)
		for k, v := range c.config.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
		return &mcp.CommandTransport{Command: cmd}, nil
	case "http":
		return &mcp.StreamableClientTransport{
			Endpoint:   c.config.URL,
			HTTPClient: httpClientWithHeaders(c.config.Headers),
		}, nil
	case "sse":
		return &mcp.SSEClientTransport{
			Endpoint:   c.config.URL,
			HTTPClient: httpClientWithHeaders(c.config.Headers),
		}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", c.config.TransportType())
	}
}

type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}

func httpClientWithHeaders(headers map[string]string) *http.Client {
	if len(headers) == 0 {
		return http.DefaultClient
	}
	return &http.Client{
		Transport: &headerTransport{headers: headers},
	}
}

func (c *Client) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}

	var err error
	if c.session != nil {
		err = c.session.Close()
		c.session = nil
	}
	c.running = false
	c.tools = nil
	return err
}

func (c *Client) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *Client) Tools() []ToolSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tools
}

func (c *Client) refreshTools(ctx context.Context) error {
	result, err := c.session.ListTools(ctx, nil)
	if err != nil {
		return err
	}

	c.tools = make([]ToolSpec, 0, len(result.Tools))
	for _, t := range result.Tools {
		schema := make(map[string]any)
		if t.InputSchema != nil {
			if m, ok := t.InputSchema.(map[string]any); ok {
				schema = m
			}
		}
		c.tools = append(c.tools, ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Schema:      schema,
		})
	}
	return nil
}

// CallTool invokes a tool on the MCP server, bounded by the server's
// configured request timeout (default 120s) regardless of transport.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	c.mu.RLock()
	session := c.session
	running := c.running
	c.mu.RUnlock()

	if !running || session == nil {
		return "", newToolError("call", c.name, name, fmt.Errorf("server is not running"))
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout())
	defer cancel()

	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return "", fmt.Errorf("invalid tool arguments: %w", err)
		}
	}

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", newToolError("timeout", c.name, name, ctx.Err())
		}
		return "", newToolError("call", c.name, name, err)
	}

	if result.IsError {
		return "", newToolError("call", c.name, name, fmt.Errorf("%s", formatContent(result.Content)))
	}

	return formatContent(result.Content), nil
}

func formatContent(content []mcp.Content) string {
	var result string
	for _, c := range content {
		switch v := c.(type) {
		case *mcp.TextContent:
			result += v.Text
		default:
			if data, err := json.Marshal(c); err == nil {
				result += string(data)
			}
		}
	}
	return result
}
