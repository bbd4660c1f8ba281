// Package mcp provides the shellcap MCP server, registering the shell tools
// and publishing model instructions.
package mcp

import (
	"context"
	_ "embed"
	"net/url"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/shellcap"
	"github.com/deixis/shellcap/internal/config"
	"github.com/deixis/shellcap/internal/log"
	"github.com/deixis/shellcap/internal/report"
	"github.com/deixis/shellcap/internal/runner"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	mu     sync.RWMutex // guards runner, replaced when the client's roots are known
	runner runner.Runner
	store  report.Store
	logger log.Logger
}

// NewServer creates an MCP server with all shellcap tools registered.
// r is copied; its settings are replaced by the client's .shellcap file,
// if the client exposes a file root that has one.
func NewServer(r *runner.Runner, store report.Store, opts ...ServerOption) *mcp.Server {
	so := serverOptions{logger: log.Discard()}
	for _, o := range opts {
		o(&so)
	}

	h := &handler{
		runner: *r,
		store:  store,
		logger: so.logger,
	}

	mcpOpts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	if so.roots {
		mcpOpts.InitializedHandler = func(ctx context.Context, req *mcp.InitializedRequest) {
			h.updateConfigFromRoots(ctx, req.Session)
		}
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "shellcap", Version: shellcap.Version}, mcpOpts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "sh_run",
		Description: `Run a command with /bin/sh -c and capture stdout and stderr separately.

Returns the exit code and the first lines of each stream. The full output is stored
under the returned run id for paging with sh_inspect. A non-zero exit code is reported,
not treated as an error; the tool only errors when the command could not be run or
its output could not be read.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "sh_inspect",
		Description: `Page through the stored output of an sh_run call.

Use the run_id from sh_run, pick stdout or stderr, and page with offset and limit
(line numbers, zero-based).`,
	}, h.inspectHandler)

	return s
}

// ServerOption configures the shellcap MCP server.
type ServerOption func(*serverOptions)

type serverOptions struct {
	logger log.Logger
	roots  bool
}

// WithLogger sets the logger used by tool handlers.
func WithLogger(l log.Logger) ServerOption {
	return func(o *serverOptions) {
		o.logger = l
	}
}

// WithRoots makes the server read .shellcap from the client's first file
// root once the session is initialized.
func WithRoots() ServerOption {
	return func(o *serverOptions) {
		o.roots = true
	}
}

// updateConfigFromRoots queries the client for MCP roots and applies the
// .shellcap file found from the first file root, if any.
// This is called during session initialization, before any tool calls.
func (h *handler) updateConfigFromRoots(ctx context.Context, session *mcp.ServerSession) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	roots, err := session.ListRoots(ctx, &mcp.ListRootsParams{})
	if err != nil {
		h.logger.Debug("listing roots", "error", err)
		return
	}
	if len(roots.Roots) == 0 {
		return
	}

	u, err := url.Parse(roots.Roots[0].URI)
	if err != nil || u.Scheme != "file" {
		return
	}

	loaded, err := config.Load(u.Path)
	if err != nil {
		h.logger.Warn("ignoring client config", "root", u.Path, "error", err)
		return
	}
	if loaded.Path == "" {
		return
	}

	h.mu.Lock()
	h.runner.Encoding = loaded.Config.Encoding()
	h.runner.SpoolDir = loaded.Config.SpoolDir
	h.mu.Unlock()
	h.logger.Debug("applied client config", "path", loaded.Path)
}

// currentRunner returns a copy of the runner so settings cannot change
// under a run in progress.
func (h *handler) currentRunner() *runner.Runner {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r := h.runner
	return &r
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
