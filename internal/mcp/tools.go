package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolDefinition describes a callable tool
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
	ReadOnly    bool           `json:"-"`
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func integerProp(description string) map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "description": description}
}

var payloadProps = map[string]any{
	"title":       stringProp("Short headline, at least 1 character"),
	"description": stringProp("What happened, at least 10 characters"),
	"location":    stringProp("Where it happened, at least 2 characters"),
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	updateProps := map[string]any{"id": integerProp("Crisis update ID")}
	for k, v := range payloadProps {
		updateProps[k] = v
	}

	return []ToolDefinition{
		{
			Name:        "ping",
			Description: "Check that the server is reachable and report the resolved caller",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},

		// Mutations
		{
			Name:        "create_crisis_update",
			Description: "Report a new crisis update. The caller becomes its author.",
			InputSchema: objectSchema(payloadProps, "title", "description", "location"),
		},
		{
			Name:        "update_crisis_update",
			Description: "Replace title, description and location of a crisis update. Author only.",
			InputSchema: objectSchema(updateProps, "id", "title", "description", "location"),
		},
		{
			Name:        "delete_crisis_update",
			Description: "Delete a crisis update and return it. Author only. IDs are never reused.",
			InputSchema: objectSchema(map[string]any{"id": integerProp("Crisis update ID")}, "id"),
		},

		// Reads
		{
			Name:        "get_crisis_update",
			Description: "Get a crisis update by ID",
			InputSchema: objectSchema(map[string]any{"id": integerProp("Crisis update ID")}, "id"),
			ReadOnly:    true,
		},
		{
			Name:        "list_crisis_updates",
			Description: "List every crisis update in ascending ID order",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "get_latest_crisis_update",
			Description: "Get the crisis update with the highest ID",
			InputSchema: objectSchema(map[string]any{}),
			ReadOnly:    true,
		},
		{
			Name:        "search_by_location",
			Description: "Find crisis updates whose location matches exactly",
			InputSchema: objectSchema(map[string]any{"location": stringProp("Exact location")}, "location"),
			ReadOnly:    true,
		},
		{
			Name:        "search_by_title",
			Description: "Find crisis updates whose title contains the query",
			InputSchema: objectSchema(map[string]any{"query": stringProp("Case-sensitive substring")}, "query"),
			ReadOnly:    true,
		},
		{
			Name:        "search_by_description",
			Description: "Find crisis updates whose description contains the query",
			InputSchema: objectSchema(map[string]any{"query": stringProp("Case-sensitive substring")}, "query"),
			ReadOnly:    true,
		},
		{
			Name:        "search_by_author",
			Description: "Find crisis updates created by an author",
			InputSchema: objectSchema(map[string]any{"author": stringProp("Caller identifier")}, "author"),
			ReadOnly:    true,
		},

		// Ranges
		{
			Name:        "get_in_timestamp_range",
			Description: "Find modified crisis updates with from <= timestamp <= to. Never-modified updates have no timestamp and are skipped. " + nanosNote,
			InputSchema: objectSchema(map[string]any{
				"from": integerProp("Inclusive lower bound"),
				"to":   integerProp("Inclusive upper bound"),
			}, "from", "to"),
			ReadOnly: true,
		},
		{
			Name:        "get_before",
			Description: "Find modified crisis updates with timestamp strictly before the given value. " + nanosNote,
			InputSchema: objectSchema(map[string]any{"timestamp": integerProp("Exclusive bound")}, "timestamp"),
			ReadOnly:    true,
		},
		{
			Name:        "get_after",
			Description: "Find modified crisis updates with timestamp strictly after the given value. " + nanosNote,
			InputSchema: objectSchema(map[string]any{"timestamp": integerProp("Exclusive bound")}, "timestamp"),
			ReadOnly:    true,
		},
		{
			Name:        "get_in_id_range",
			Description: "Find crisis updates with from <= id <= to",
			InputSchema: objectSchema(map[string]any{
				"from": integerProp("Inclusive lower bound"),
				"to":   integerProp("Inclusive upper bound"),
			}, "from", "to"),
			ReadOnly: true,
		},
	}
}

// Unix nanoseconds exceed 2^53, so float64 JSON numbers lose precision.
const nanosNote = "Timestamps are Unix nanoseconds; decode created_at and timestamp as 64-bit integers, not floating point."

var toolsByName = func() map[string]ToolDefinition {
	out := map[string]ToolDefinition{}
	for _, tool := range buildToolCatalog() {
		out[tool.Name] = tool
	}
	return out
}()

// registerTools adds every catalog entry to server, dispatching through h.
func registerTools(server *sdkmcp.Server, h *Handler) {
	for _, def := range buildToolCatalog() {
		name := def.Name
		server.AddTool(&sdkmcp.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
			Annotations: &sdkmcp.ToolAnnotations{ReadOnlyHint: def.ReadOnly},
		}, func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
			var args json.RawMessage
			if req != nil && req.Params != nil {
				args = req.Params.Arguments
			}
			result, err := h.Handle(ctx, getCaller(ctx), name, args)
			if err != nil {
				return toolError(err), nil
			}
			return toolResult(result)
		})
	}
}

func toolResult(result any) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode tool result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content:           []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		StructuredContent: json.RawMessage(data),
	}, nil
}

func toolError(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, mErr := json.Marshal(apiErr)
	if mErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: true,
	}
}
