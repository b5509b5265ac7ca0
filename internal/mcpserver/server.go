// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the memo tools, prompts and resources over stdio.
package mcpserver

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/memopad/internal/memostore"
)

// Version is reported to clients during initialization.
var Version = "0.1.0"

// Server wraps the MCP server with the memo tools.
type Server struct {
	mcp    *server.MCPServer
	store  *memostore.Store
	logger *slog.Logger

	tools    []mcp.Tool
	handlers map[string]server.ToolHandlerFunc
	prompts  map[string]server.PromptHandlerFunc

	mu sync.Mutex
	// resources maps each registered memo URI to the name and description
	// it was registered with.
	resources map[string]string
}

// New creates a new MCP server with all tools, prompts and resources registered.
func New(store *memostore.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		store:     store,
		logger:    logger,
		handlers:  make(map[string]server.ToolHandlerFunc),
		prompts:   make(map[string]server.PromptHandlerFunc),
		resources: make(map[string]string),
	}

	// The filesystem is the source of truth, so the resource list is
	// rebuilt before every listing.
	hooks := &server.Hooks{}
	hooks.AddBeforeListResources(func(ctx context.Context, _ any, _ *mcp.ListResourcesRequest) {
		s.refresh(ctx)
	})

	s.mcp = server.NewMCPServer(
		"memopad",
		Version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(false),
		server.WithRecovery(),
		server.WithHooks(hooks),
	)

	s.registerTools()
	s.registerPrompts()

	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(memoURIPrefix+"{name}", "Memo",
			mcp.WithTemplateDescription("A stored memo, addressed by its filename stem."),
			mcp.WithTemplateMIMEType(memoMIMEType),
		),
		s.readResource,
	)

	return s
}
