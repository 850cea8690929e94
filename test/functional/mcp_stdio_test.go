package functional_test

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// stdioSession wraps an MCP client session for stdio transport testing
type stdioSession struct {
	session *sdkmcp.ClientSession
	cancel  context.CancelFunc
}

func newStdioSession(t *testing.T) *stdioSession {
	t.Helper()
	return newStdioSessionWithEnv(t, nil)
}

func newStdioSessionWithEnv(t *testing.T, extraEnv []string) *stdioSession {
	t.Helper()

	// Find the binary
	binaryPath := "./bin/crisisdesk"
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		binaryPath = "../../bin/crisisdesk"
		if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
			t.Skip("Server binary not found. Run 'go build -o bin/crisisdesk ./cmd/server' first.")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

	cmd := exec.CommandContext(ctx, binaryPath, "serve")
	cmd.Env = append(os.Environ(),
		"CRISISDESK_TRANSPORT=stdio",
		"CRISISDESK_STORE_BACKEND=memory",
		"CRISISDESK_AUTH_ENABLED=false",
	)
	if len(extraEnv) > 0 {
		cmd.Env = append(cmd.Env, extraEnv...)
	}

	transport := &sdkmcp.CommandTransport{Command: cmd}

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		cancel()
		t.Fatalf("Failed to connect: %v", err)
	}

	t.Cleanup(func() {
		session.Close()
		cancel()
	})

	return &stdioSession{session: session, cancel: cancel}
}

func (s *stdioSession) call(t *testing.T, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := s.session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err, "CallTool %s failed", name)
	require.NotEmpty(t, result.Content, "Tool %s returned no content", name)
	return result
}

func (s *stdioSession) callTool(t *testing.T, name string, args map[string]any) json.RawMessage {
	t.Helper()
	result := s.call(t, name, args)
	require.False(t, result.IsError, "Tool %s returned error: %s", name, textOf(t, result))
	return json.RawMessage(textOf(t, result))
}

// callToolErr calls a tool that must fail and returns the API error code.
func (s *stdioSession) callToolErr(t *testing.T, name string, args map[string]any) string {
	t.Helper()
	result := s.call(t, name, args)
	require.True(t, result.IsError, "Tool %s unexpectedly succeeded", name)

	var apiErr struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal([]byte(textOf(t, result)), &apiErr))
	return apiErr.Code
}

func textOf(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if textContent, ok := content.(*sdkmcp.TextContent); ok {
			return textContent.Text
		}
	}
	t.Fatalf("tool result has no text content")
	return ""
}

func TestStdioFunctional_Lifecycle(t *testing.T) {
	s := newStdioSession(t)

	var created update
	require.NoError(t, json.Unmarshal(s.callTool(t, "create_crisis_update", map[string]any{
		"title":       "Flood",
		"description": "River burst its banks",
		"location":    "Lagos",
	}), &created))
	require.Equal(t, uint64(0), created.ID)
	require.Equal(t, "local", created.Author)

	var edited update
	require.NoError(t, json.Unmarshal(s.callTool(t, "update_crisis_update", map[string]any{
		"id":          created.ID,
		"title":       "Flood rising",
		"description": "Water level up two meters",
		"location":    "Lagos",
	}), &edited))
	require.NotNil(t, edited.Timestamp)

	var latest update
	require.NoError(t, json.Unmarshal(s.callTool(t, "get_latest_crisis_update", nil), &latest))
	require.Equal(t, edited, latest)

	_ = s.callTool(t, "delete_crisis_update", map[string]any{"id": created.ID})
	require.Equal(t, "NOT_FOUND", s.callToolErr(t, "get_crisis_update", map[string]any{"id": created.ID}))
	require.Equal(t, "NOT_FOUND", s.callToolErr(t, "list_crisis_updates", nil))
}

func TestStdioFunctional_Validation(t *testing.T) {
	s := newStdioSession(t)

	code := s.callToolErr(t, "create_crisis_update", map[string]any{
		"title":       "Flood",
		"description": "too short",
		"location":    "Lagos",
	})
	require.Equal(t, "INPUT_VALIDATION_FAILED", code)
}

func TestStdioFunctional_SearchAndList(t *testing.T) {
	s := newStdioSession(t)

	for _, loc := range []string{"Nairobi", "Lagos", "Nairobi"} {
		_ = s.callTool(t, "create_crisis_update", map[string]any{
			"title":       "Report from " + loc,
			"description": "Situation report for " + loc,
			"location":    loc,
		})
	}

	var list updateList
	require.NoError(t, json.Unmarshal(s.callTool(t, "search_by_location", map[string]any{"location": "Nairobi"}), &list))
	require.Equal(t, []uint64{0, 2}, ids(list))

	require.NoError(t, json.Unmarshal(s.callTool(t, "search_by_title", map[string]any{"query": "Lagos"}), &list))
	require.Equal(t, []uint64{1}, ids(list))

	require.NoError(t, json.Unmarshal(s.callTool(t, "list_crisis_updates", nil), &list))
	require.Equal(t, 3, list.Count)
}

func TestStdioFunctional_MCPProtocolCompliance(t *testing.T) {
	s := newStdioSession(t)

	// Verify server info from initialization
	initResult := s.session.InitializeResult()
	require.NotNil(t, initResult)
	require.NotNil(t, initResult.ServerInfo)
	require.Equal(t, "crisisdesk", initResult.ServerInfo.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := s.session.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, tools.Tools, 15)

	toolMap := make(map[string]*sdkmcp.Tool)
	for _, tool := range tools.Tools {
		toolMap[tool.Name] = tool
	}

	require.Contains(t, toolMap, "create_crisis_update")
	require.Contains(t, toolMap, "get_in_id_range")
	require.NotEmpty(t, toolMap["create_crisis_update"].Description)
	require.True(t, toolMap["list_crisis_updates"].Annotations.ReadOnlyHint)
}

func TestStdioFunctional_LogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "crisisdesk.log")
	s := newStdioSessionWithEnv(t, []string{
		"CRISISDESK_LOG_PATH=" + logPath,
		"CRISISDESK_LOG_LEVEL=debug",
	})

	_ = s.callTool(t, "ping", nil)

	require.Eventually(t, func() bool {
		data, err := os.ReadFile(logPath)
		if err != nil {
			return false
		}
		text := string(data)
		return strings.Contains(text, `msg="mcp traffic"`) &&
			strings.Contains(text, "stage=request") &&
			strings.Contains(text, "stage=response")
	}, 5*time.Second, 100*time.Millisecond)
}

func TestStdioFunctional_DocumentationResources(t *testing.T) {
	s := newStdioSession(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resources, err := s.session.ListResources(ctx, nil)
	require.NoError(t, err)

	uris := make(map[string]*sdkmcp.Resource, len(resources.Resources))
	for _, r := range resources.Resources {
		uris[r.URI] = r
	}

	for _, uri := range []string{"crisisdesk://docs/index", "crisisdesk://docs/queries"} {
		r, ok := uris[uri]
		require.True(t, ok, "missing expected doc resource: %s", uri)
		require.NotEmpty(t, r.Name)
		require.Equal(t, "text/markdown", r.MIMEType)
		require.Greater(t, r.Size, int64(0))
	}

	read, err := s.session.ReadResource(ctx, &sdkmcp.ReadResourceParams{URI: "crisisdesk://docs/queries"})
	require.NoError(t, err)
	require.NotEmpty(t, read.Contents)
	require.Contains(t, read.Contents[0].Text, "ascending id order")
}
