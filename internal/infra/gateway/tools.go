package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"bioshelf/internal/domain"
	"bioshelf/internal/infra/telemetry"
)

func (g *Gateway) registerTools() {
	findTool := mcp.Tool{
		Name: "find_tool",
		Description: "Find a bioinformatics tool by name and get container information. " +
			"Use this when the user asks 'Where can I find X?' or 'How do I use X?'. " +
			"Returns the tool's metadata, available container versions, and usage examples.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool_name": map[string]any{
					"type":        "string",
					"description": "Name of the tool to search for (e.g., 'fastqc', 'iqtree', 'samtools')",
				},
			},
			"required": []string{"tool_name"},
		},
	}
	g.server.AddTool(&findTool, g.findToolHandler())

	searchByFunction := mcp.Tool{
		Name: "search_by_function",
		Description: "Search for tools by their function or description. " +
			"Use this when the user asks 'What can I use to do X?' or describes a task. " +
			"Examples: 'count data', 'quality control', 'alignment', 'assembly'.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{
					"type":        "string",
					"description": "Description of what the user wants to do",
				},
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of results to return",
					"default":     domain.DefaultSearchLimit,
				},
			},
			"required": []string{"description"},
		},
	}
	g.server.AddTool(&searchByFunction, g.searchByFunctionHandler())

	getVersions := mcp.Tool{
		Name: "get_container_versions",
		Description: "Get all available versions of a specific container. " +
			"Returns a sorted list of versions with their CVMFS paths.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool_name": map[string]any{
					"type":        "string",
					"description": "Name of the tool",
				},
			},
			"required": []string{"tool_name"},
		},
	}
	g.server.AddTool(&getVersions, g.getContainerVersionsHandler())

	listTools := mcp.Tool{
		Name: "list_available_tools",
		Description: "List the names of the available tools. " +
			"Use this when the user asks 'What tools are available?'",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"limit": map[string]any{
					"type":        "integer",
					"description": "Maximum number of tools to list",
					"default":     domain.DefaultListLimit,
				},
			},
			"required": []string{},
		},
	}
	g.server.AddTool(&listTools, g.listAvailableToolsHandler())

	buildModule := mcp.Tool{
		Name: "build_module",
		Description: "Generate an Lmod modulefile for a containerized tool. " +
			"The version may be an exact container tag, a version prefix like '1.21', or empty for the latest.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tool_name": map[string]any{
					"type":        "string",
					"description": "Name of the tool",
				},
				"version": map[string]any{
					"type":        "string",
					"description": "Version spec; empty selects the latest container",
				},
			},
			"required": []string{"tool_name"},
		},
	}
	g.server.AddTool(&buildModule, g.buildModuleHandler())

	buildModules := mcp.Tool{
		Name: "build_modules",
		Description: "Generate Lmod modulefiles for a batch of tools. " +
			"Each spec is 'tool' or 'tool/version'. Failures are reported per spec and do not stop the batch.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"specs": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Tool specs, e.g. ['fastqc', 'samtools/1.21']",
				},
			},
			"required": []string{"specs"},
		},
	}
	g.server.AddTool(&buildModules, g.buildModulesHandler())
}

type findToolArgs struct {
	ToolName string `json:"tool_name"`
}

type searchByFunctionArgs struct {
	Description string `json:"description"`
	Limit       int    `json:"limit"`
}

type listToolsArgs struct {
	Limit int `json:"limit"`
}

type buildModuleArgs struct {
	ToolName string `json:"tool_name"`
	Version  string `json:"version"`
}

type buildModulesArgs struct {
	Specs []string `json:"specs"`
}

func (g *Gateway) findToolHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args findToolArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(err), nil
		}
		ctx = g.requestContext(ctx, "find_tool")
		info, err := g.core.FindTool(ctx, args.ToolName)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(renderToolInfo(info)), nil
	}
}

func (g *Gateway) searchByFunctionHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args searchByFunctionArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(err), nil
		}
		ctx = g.requestContext(ctx, "search_by_function")
		results := g.core.SearchByFunction(ctx, args.Description, args.Limit)
		return textResult(renderSearchResults(args.Description, results)), nil
	}
}

func (g *Gateway) getContainerVersionsHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args findToolArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(err), nil
		}
		ctx = g.requestContext(ctx, "get_container_versions")
		versions, err := g.core.GetContainerVersions(ctx, args.ToolName)
		if err != nil {
			return errorResult(err), nil
		}
		return textResult(renderVersions(args.ToolName, versions)), nil
	}
}

func (g *Gateway) listAvailableToolsHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args listToolsArgs
		if len(req.Params.Arguments) > 0 {
			if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
				return errorResult(err), nil
			}
		}
		ctx = g.requestContext(ctx, "list_available_tools")
		names := g.core.ListAvailableTools(ctx, args.Limit)
		return textResult(renderToolList(names)), nil
	}
}

func (g *Gateway) buildModuleHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args buildModuleArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(err), nil
		}
		ctx = g.requestContext(ctx, "build_module")
		result := g.core.Build(ctx, domain.ModuleBuildRequest{
			ToolName: args.ToolName,
			Version:  args.Version,
		})
		if result.Err != nil {
			return errorResult(result.Err), nil
		}
		return textResult(renderBuildResult(result)), nil
	}
}

func (g *Gateway) buildModulesHandler() mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args buildModulesArgs
		if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
			return errorResult(err), nil
		}
		ctx = g.requestContext(ctx, "build_modules")
		specs := make([]domain.ModuleBuildRequest, 0, len(args.Specs))
		for _, spec := range args.Specs {
			specs = append(specs, domain.ParseBuildSpec(spec))
		}
		results := g.core.BuildMany(ctx, specs)
		return textResult(renderBatchResults(results)), nil
	}
}

func (g *Gateway) requestContext(ctx context.Context, tool string) context.Context {
	requestID := telemetry.NewRequestID()
	g.logger.Debug("tool call", zap.String("tool", tool), zap.String("request_id", requestID))
	return telemetry.WithRequestID(ctx, requestID)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %s", err.Error())},
		},
	}
}
