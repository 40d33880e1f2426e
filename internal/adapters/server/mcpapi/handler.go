// Package mcpapi provides a stateless MCP streamable-HTTP adapter.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/tamasystem/callpad/internal/adapters/server/common"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing the phonebook tools.
func NewHandler(cfg Config, directory common.DirectoryService) (*Handler, error) {
	if directory == nil {
		return nil, fmt.Errorf("directory service is required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerSearchTool(mcpSrv, directory)
	registerResolveTool(mcpSrv, directory)
	registerCallIntentTool(mcpSrv, directory)
	registerReloadTool(mcpSrv, directory)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "callpad"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerSearchTool registers the `callpad.search_candidates` tool.
func registerSearchTool(srv *mcpserver.MCPServer, directory common.DirectoryService) {
	srv.AddTool(
		mcp.NewTool(
			"callpad.search_candidates",
			mcp.WithDescription("List phonebook entries whose display name contains the query, case-insensitively, in phonebook order."),
			mcp.WithString("query", mcp.Description("Substring to match; empty lists every entry")),
			mcp.WithNumber("limit", mcp.Description(fmt.Sprintf("Maximum results (default %d, max %d)", common.DefaultSearchLimit, common.MaxSearchLimit))),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			found, err := directory.SearchCandidates(ctx, common.SearchCandidatesRequest{
				Query: req.GetString("query", ""),
				Limit: req.GetInt("limit", 0),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(found)
			if err != nil {
				return nil, fmt.Errorf("encode search_candidates result: %w", err)
			}
			return result, nil
		},
	)
}

// registerResolveTool registers the `callpad.resolve_identity` tool.
func registerResolveTool(srv *mcpserver.MCPServer, directory common.DirectoryService) {
	srv.AddTool(
		mcp.NewTool(
			"callpad.resolve_identity",
			mcp.WithDescription("Resolve caller-ID text to the number that will be dialed. An exact phonebook name maps to its number; anything else is used as typed."),
			mcp.WithString("from", mcp.Required(), mcp.Description("Phonebook name or raw number")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			from, err := req.RequireString("from")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			resolved, err := directory.ResolveIdentity(ctx, common.ResolveIdentityRequest{From: from})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(resolved)
			if err != nil {
				return nil, fmt.Errorf("encode resolve_identity result: %w", err)
			}
			return result, nil
		},
	)
}

// registerCallIntentTool registers the `callpad.build_call_intent` tool.
func registerCallIntentTool(srv *mcpserver.MCPServer, directory common.DirectoryService) {
	srv.AddTool(
		mcp.NewTool(
			"callpad.build_call_intent",
			mcp.WithDescription("Validate a destination and caller ID and return the dial URL. The call is not placed."),
			mcp.WithString("destination", mcp.Required(), mcp.Description("Number to call; digits, '+' and '-' only")),
			mcp.WithString("from", mcp.Required(), mcp.Description("Phonebook name or raw caller-ID number")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			destination, err := req.RequireString("destination")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			from, err := req.RequireString("from")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			intent, err := directory.BuildCallIntent(ctx, common.BuildCallIntentRequest{
				Destination: destination,
				From:        from,
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(intent)
			if err != nil {
				return nil, fmt.Errorf("encode build_call_intent result: %w", err)
			}
			return result, nil
		},
	)
}

// registerReloadTool registers the `callpad.reload_phonebook` tool.
func registerReloadTool(srv *mcpserver.MCPServer, directory common.DirectoryService) {
	srv.AddTool(
		mcp.NewTool(
			"callpad.reload_phonebook",
			mcp.WithDescription("Fetch the phonebook again from its configured source."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			info, err := directory.ReloadPhonebook(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"phonebook": info,
			})
			if err != nil {
				return nil, fmt.Errorf("encode reload_phonebook result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps service errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidNumberFormat):
		return mcp.NewToolResultError("invalid_number_format: " + err.Error())
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrReloadThrottled):
		return mcp.NewToolResultError("reload_throttled: " + err.Error())
	case errors.Is(err, common.ErrPhonebookUnavailable):
		return mcp.NewToolResultError("load_failed: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
