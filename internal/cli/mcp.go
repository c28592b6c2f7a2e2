package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/colthorp/rickmorty-cli-go/internal/cache"
	"github.com/colthorp/rickmorty-cli-go/internal/core"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	manager *cache.Manager
}

// newMCPServer configures the MCP server without starting it.
func newMCPServer(manager *cache.Manager) *server.MCPServer {
	s := server.NewMCPServer(
		"Rick and Morty Server",
		core.Version,
		server.WithLogging(),
	)

	h := &toolHandler{manager: manager}

	s.AddTool(mcp.NewTool("get_character_count",
		mcp.WithDescription("Return the number of characters. Offline, this is estimated from the cache."),
	), h.handleGetCharacterCount)

	s.AddTool(mcp.NewTool("get_character",
		mcp.WithDescription("Fetch one character by id, from the cache when available."),
		mcp.WithNumber("id", mcp.Description("Character id (1 or greater)."), mcp.Required()),
	), h.handleGetCharacter)

	s.AddTool(mcp.NewTool("get_episode",
		mcp.WithDescription("Fetch one episode by id or resource URL."),
		mcp.WithNumber("id", mcp.Description("Episode id.")),
		mcp.WithString("url", mcp.Description("Episode resource URL as found in a character record.")),
	), h.handleGetEpisode)

	s.AddTool(mcp.NewTool("erase_cache",
		mcp.WithDescription("Delete every cached character and episode."),
	), h.handleEraseCache)

	return s
}

// runMCPServer serves the MCP tools on stdio.
func runMCPServer(manager *cache.Manager) error {
	return server.ServeStdio(newMCPServer(manager))
}

func (h *toolHandler) handleGetCharacterCount(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	count, err := h.manager.Count(ctx)
	if err != nil {
		return toolError("count", err), nil
	}
	return jsonResult(map[string]any{
		"count":  count,
		"online": h.manager.Online(),
	}), nil
}

func (h *toolHandler) handleGetCharacter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetInt("id", 0)
	if id < 1 {
		return mcp.NewToolResultError("id must be a positive integer"), nil
	}

	character, err := h.manager.Character(ctx, id)
	if err != nil {
		return toolError(fmt.Sprintf("character %d", id), err), nil
	}
	return jsonResult(character), nil
}

func (h *toolHandler) handleGetEpisode(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("url", "")
	if path == "" {
		id := request.GetInt("id", 0)
		if id < 1 {
			return mcp.NewToolResultError("either id or url is required"), nil
		}
		path = core.EpisodePath(id)
	}

	ep, err := h.manager.Episode(ctx, path)
	if err != nil {
		return toolError("episode", err), nil
	}
	return jsonResult(ep), nil
}

func (h *toolHandler) handleEraseCache(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.manager.EraseCache(); err != nil {
		return toolError("erase", err), nil
	}
	return mcp.NewToolResultText("cache erased"), nil
}

func toolError(what string, err error) *mcp.CallToolResult {
	if errors.Is(err, cache.ErrNotFoundInMemory) {
		return mcp.NewToolResultError(fmt.Sprintf("%s is not cached and the API is unreachable", what))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", what, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("error encoding JSON: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
