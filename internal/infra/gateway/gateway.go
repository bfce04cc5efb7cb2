package gateway

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
)

const (
	serverName    = "bioshelf"
	serverVersion = "0.1.0"

	cacheInfoResourceURI = "bioshelf://cache-info"
	toolListResourceURI  = "bioshelf://tools"
)

// Core is the catalog surface the gateway exposes over MCP.
type Core interface {
	FindTool(ctx context.Context, name string) (domain.ToolInfo, error)
	SearchByFunction(ctx context.Context, query string, limit int) []domain.SearchResult
	GetContainerVersions(ctx context.Context, name string) ([]domain.ContainerEntry, error)
	ListAvailableTools(ctx context.Context, limit int) []string
	Build(ctx context.Context, req domain.ModuleBuildRequest) domain.ModuleBuildResult
	BuildMany(ctx context.Context, specs []domain.ModuleBuildRequest) []domain.ModuleBuildResult
	CacheInfo(ctx context.Context) domain.CatalogInfo
}

// Gateway serves the catalog over MCP stdio. stdout carries only JSON-RPC
// frames; all logging goes through the zap logger, which callers must point
// at stderr or a file.
type Gateway struct {
	core   Core
	logger *zap.Logger
	server *mcp.Server
}

func NewGateway(core Core, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		core:   core,
		logger: logger.Named("gateway"),
	}
}

// Run serves MCP requests on stdio until the context is canceled or the
// client disconnects.
func (g *Gateway) Run(ctx context.Context) error {
	server := g.buildServer()
	g.logger.Info("gateway starting (stdio transport)")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (g *Gateway) buildServer() *mcp.Server {
	g.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, &mcp.ServerOptions{
		HasTools:     true,
		HasResources: true,
	})
	g.registerTools()
	g.registerResources()
	return g.server
}
