package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

func setupTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewStore(store.StoreConfig{DBPath: ":memory:"})
	require.NoError(t, err, "creating test store")
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewServer(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})
	require.NotNil(t, srv)
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// callTool invokes an MCP tool through the JSON-RPC entry point.
func callTool(t *testing.T, srv *server.MCPServer, name string, args map[string]interface{}) *mcplib.CallToolResult {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params": map[string]interface{}{
			"name":      name,
			"arguments": args,
		},
	}))

	respBytes, err := json.Marshal(result)
	require.NoError(t, err)

	var resp struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *rpcError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &resp), "raw: %s", respBytes)
	require.Nil(t, resp.Error, "JSON-RPC error")

	callResult := &mcplib.CallToolResult{IsError: resp.Result.IsError}
	for _, c := range resp.Result.Content {
		if c.Type == "text" {
			callResult.Content = append(callResult.Content, mcplib.NewTextContent(c.Text))
		}
	}
	return callResult
}

func callResource(t *testing.T, srv *server.MCPServer, uri string) string {
	t.Helper()

	result := srv.HandleMessage(context.Background(), mustMarshal(t, map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "resources/read",
		"params": map[string]interface{}{
			"uri": uri,
		},
	}))

	respBytes, err := json.Marshal(result)
	require.NoError(t, err)
	var resp struct {
		Result struct {
			Contents []struct {
				Text string `json:"text"`
			} `json:"contents"`
		} `json:"result"`
		Error *rpcError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &resp), "raw: %s", respBytes)
	require.Nil(t, resp.Error, "JSON-RPC error")
	require.NotEmpty(t, resp.Result.Contents, "no contents for %s", uri)
	return resp.Result.Contents[0].Text
}

func mustMarshal(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func getTextContent(t *testing.T, result *mcplib.CallToolResult) string {
	t.Helper()
	for _, c := range result.Content {
		if tc, ok := c.(mcplib.TextContent); ok {
			return tc.Text
		}
	}
	require.FailNow(t, "no text content found")
	return ""
}

type parsedDoc struct {
	RunID       string                `json:"run_id"`
	Columns     []string              `json:"columns"`
	Records     []map[string]string   `json:"records"`
	Diagnostics assemble.Diagnostics  `json:"diagnostics"`
	Assignments []assemble.Assignment `json:"assignments"`
}

func parseTool(t *testing.T, srv *server.MCPServer, args map[string]interface{}) parsedDoc {
	t.Helper()
	result := callTool(t, srv, "coop_parse", args)
	text := getTextContent(t, result)
	require.False(t, result.IsError, "coop_parse failed: %s", text)

	var doc parsedDoc
	require.NoError(t, json.Unmarshal([]byte(text), &doc), "raw: %s", text)
	return doc
}

func TestParseTool(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})

	doc := parseTool(t, srv, map[string]interface{}{"text": assemble.ExampleInput})
	require.Len(t, doc.Records, 3)
	assert.Equal(t, "Jane Smith", doc.Records[1][schema.FieldCEOName])
	assert.Equal(t, "3", doc.Records[2][schema.FieldSerial])
	assert.Empty(t, doc.RunID, "unsaved parse returned a run id")
	assert.Equal(t, 2, doc.Diagnostics.BlocksSkipped)
	assert.Empty(t, doc.Assignments, "trace off")
}

func TestParseToolTraceAndMinFields(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})

	doc := parseTool(t, srv, map[string]interface{}{
		"text":       "NAME: John Doe\nPHONE: 08012345678",
		"min_fields": float64(3),
		"trace":      true,
	})
	assert.Empty(t, doc.Records, "record below min_fields should be dropped")
	assert.Equal(t, 1, doc.Diagnostics.RecordsDropped)
	require.Len(t, doc.Assignments, 2)
	assert.Zero(t, doc.Assignments[0].Serial, "dropped record assignment serial")
}

func TestParseToolRequiresText(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})
	result := callTool(t, srv, "coop_parse", map[string]interface{}{})
	assert.True(t, result.IsError, "expected error without text")
}

func TestParseToolRejectsDuplicateColumn(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})
	result := callTool(t, srv, "coop_parse", map[string]interface{}{
		"text":    "NAME: John",
		"columns": "sex",
	})
	assert.True(t, result.IsError, "expected error for column that duplicates SEX")
}

func TestParseToolSaveAndHistory(t *testing.T) {
	st := setupTestStore(t)
	srv := NewServer(ServerConfig{Store: st})

	doc := parseTool(t, srv, map[string]interface{}{
		"text": assemble.ExampleInput,
		"save": true,
	})
	require.NotEmpty(t, doc.RunID)

	run, err := st.GetRun(context.Background(), doc.RunID)
	require.NoError(t, err)
	assert.Equal(t, SourceMCP, run.Source)
	assert.Equal(t, 3, run.RecordCount)
	assert.Equal(t, store.HashInput(assemble.ExampleInput), run.InputHash)

	text := getTextContent(t, callTool(t, srv, "coop_history", map[string]interface{}{}))
	var runs []runSummary
	require.NoError(t, json.Unmarshal([]byte(text), &runs), "raw: %s", text)
	require.Len(t, runs, 1)
	assert.Equal(t, doc.RunID, runs[0].ID)

	text = getTextContent(t, callTool(t, srv, "coop_history", map[string]interface{}{"run": doc.RunID[:8]}))
	var detail struct {
		Run     runSummary          `json:"run"`
		Records []map[string]string `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &detail), "raw: %s", text)
	assert.Equal(t, doc.RunID, detail.Run.ID)
	require.Len(t, detail.Records, 3)
	assert.Equal(t, "First Bank", detail.Records[0][schema.FieldBankName])
}

func TestHistoryToolEmptyAndMissing(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})

	text := getTextContent(t, callTool(t, srv, "coop_history", map[string]interface{}{}))
	assert.Contains(t, text, "No saved runs")

	result := callTool(t, srv, "coop_history", map[string]interface{}{"run": "does-not-exist"})
	assert.True(t, result.IsError, "expected error for unknown run")
}

func TestColumnsTool(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})

	columns := func(args map[string]interface{}) []string {
		t.Helper()
		result := callTool(t, srv, "coop_columns", args)
		text := getTextContent(t, result)
		require.False(t, result.IsError, "coop_columns failed: %s", text)
		var out struct {
			Columns []string `json:"columns"`
		}
		require.NoError(t, json.Unmarshal([]byte(text), &out))
		return out.Columns
	}

	assert.Equal(t, schema.DefaultFields(), columns(map[string]interface{}{}))

	got := columns(map[string]interface{}{"set": "LGA, Ward"})
	assert.Equal(t, append(schema.DefaultFields(), "LGA", "Ward"), got)

	// Saved columns apply to the next parse.
	doc := parseTool(t, srv, map[string]interface{}{"text": "NAME: John Doe\nLGA: Ikeja\nPHONE: 0801"})
	require.Len(t, doc.Records, 1)
	assert.Equal(t, "Ikeja", doc.Records[0]["LGA"])

	assert.Equal(t, schema.DefaultFields(), columns(map[string]interface{}{"reset": true}))

	result := callTool(t, srv, "coop_columns", map[string]interface{}{"set": "LGA", "reset": true})
	assert.True(t, result.IsError, "set and reset together")
}

func TestSchemaResource(t *testing.T) {
	st := setupTestStore(t)
	require.NoError(t, st.SaveColumns(context.Background(), []string{"LGA"}))
	srv := NewServer(ServerConfig{Store: st})

	text := callResource(t, srv, "coopsort://schema")
	var payload struct {
		Columns []columnInfo `json:"columns"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	require.Len(t, payload.Columns, len(schema.DefaultFields())+1)

	last := payload.Columns[len(payload.Columns)-1]
	assert.Equal(t, "LGA", last.Name)
	assert.Equal(t, schema.KindText, last.Kind)
	for _, c := range payload.Columns {
		if c.Name == schema.FieldSex {
			assert.Equal(t, schema.KindGender, c.Kind)
		}
	}
}

func TestRecentRunsResource(t *testing.T) {
	srv := NewServer(ServerConfig{Store: setupTestStore(t)})
	parseTool(t, srv, map[string]interface{}{"text": assemble.ExampleInput, "save": true})

	text := callResource(t, srv, "coopsort://runs/recent")
	var payload struct {
		Runs        []runSummary `json:"runs"`
		RecordCount int64        `json:"record_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	assert.Len(t, payload.Runs, 1)
	assert.EqualValues(t, 3, payload.RecordCount)
}
