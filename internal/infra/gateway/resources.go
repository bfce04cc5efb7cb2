package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"bioshelf/internal/domain"
)

// listAllToolsLimit keeps the tool-list resource effectively unbounded.
const listAllToolsLimit = 1 << 20

func (g *Gateway) registerResources() {
	cacheInfo := mcp.Resource{
		URI:         cacheInfoResourceURI,
		Name:        "CVMFS Cache Information (Galaxy containers)",
		MIMEType:    "application/json",
		Description: "Information about the Singularity container cache from the CVMFS",
	}
	g.server.AddResource(&cacheInfo, g.cacheInfoResourceHandler())

	toolList := mcp.Resource{
		URI:         toolListResourceURI,
		Name:        "Tool names",
		MIMEType:    "text/plain",
		Description: "All tool names known from metadata and the container namespace",
	}
	g.server.AddResource(&toolList, g.toolListResourceHandler())
}

type cacheInfoPayload struct {
	GeneratedAt string `json:"generated_at"`
	CVMFSRoot   string `json:"cvmfs_root"`
	EntryCount  int    `json:"entry_count"`
	Revision    uint64 `json:"revision"`
	LoadedAt    string `json:"loaded_at"`
	Degraded    bool   `json:"degraded"`
}

func (g *Gateway) cacheInfoResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		info := g.core.CacheInfo(ctx)
		raw, err := json.MarshalIndent(cacheInfoJSON(info), "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      cacheInfoResourceURI,
				MIMEType: "application/json",
				Text:     string(raw),
			}},
		}, nil
	}
}

func cacheInfoJSON(info domain.CatalogInfo) cacheInfoPayload {
	return cacheInfoPayload{
		GeneratedAt: formatResourceTime(info.GeneratedAt),
		CVMFSRoot:   info.ContainerRoot,
		EntryCount:  info.EntryCount,
		Revision:    info.Revision,
		LoadedAt:    formatResourceTime(info.LoadedAt),
		Degraded:    info.Degraded,
	}
}

func formatResourceTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func (g *Gateway) toolListResourceHandler() mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		names := g.core.ListAvailableTools(ctx, listAllToolsLimit)
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      toolListResourceURI,
				MIMEType: "text/plain",
				Text:     strings.Join(names, "\n"),
			}},
		}, nil
	}
}
