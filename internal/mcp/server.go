// Package mcp provides a Model Context Protocol server for coopsort.
//
// It exposes parsing, run history and column configuration as MCP tools, and
// the active schema and recent runs as MCP resources. The cmd layer serves it
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/config"
	"github.com/hurttlocker/coopsort/internal/export"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

// SourceMCP is the run source recorded for parses saved through the server.
const SourceMCP = "mcp"

const maxHistoryLimit = 100

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Store      store.Store
	Version    string             // version string for MCP server info
	Vocabulary *schema.Vocabulary // nil for the built-in vocabulary
	Logger     *zap.Logger
}

// dbMu serializes all MCP tool calls that touch the database.
// mcp-go dispatches handlers concurrently; column changes must be visible to
// the next parse.
var dbMu sync.Mutex

type handler struct {
	st     store.Store
	vocab  *schema.Vocabulary
	logger *zap.Logger
}

// NewServer creates a configured MCP server with all coopsort tools and
// resources.
func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := server.NewMCPServer(
		"coopsort",
		ver,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(true, false),
	)

	h := &handler{st: cfg.Store, vocab: cfg.Vocabulary, logger: logger.Named("mcp")}

	registerParseTool(s, h)
	registerHistoryTool(s, h)
	registerColumnsTool(s, h)

	registerSchemaResource(s, h)
	registerRecentRunsResource(s, h)

	return s
}

// schemaFor builds the active schema: the default columns plus explicit
// columns when given, otherwise plus the saved configuration.
func (h *handler) schemaFor(ctx context.Context, explicit []string) (*schema.Schema, error) {
	cols := explicit
	if cols == nil {
		saved, err := h.st.LoadColumns(ctx)
		if err != nil {
			return nil, err
		}
		cols = saved
	}
	if len(cols) == 0 {
		return schema.Default(), nil
	}
	return schema.Default().WithColumns(cols...)
}

// --- Tools ---

type parseResult struct {
	RunID string `json:"run_id,omitempty"`
	export.Document
}

func registerParseTool(s *server.MCPServer, h *handler) {
	tool := mcp.NewTool("coop_parse",
		mcp.WithDescription("Reconstruct cooperative member records from pasted free-form text. Returns records in schema column order with parse diagnostics."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Raw text as pasted from chat or a document"),
		),
		mcp.WithString("columns",
			mcp.Description("Comma-separated extra columns for this parse. Empty = saved column configuration."),
		),
		mcp.WithNumber("min_fields",
			mcp.Description("Fewest non-serial fields a record needs to be kept (default: 2)"),
		),
		mcp.WithBoolean("trace",
			mcp.Description("Include per-field assignment trace (default: false)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Store the run in history (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		text = strings.ReplaceAll(text, "\x00", "")

		var explicit []string
		if c, err := req.RequireString("columns"); err == nil && strings.TrimSpace(c) != "" {
			explicit = config.SplitColumns(c)
		}
		sch, err := h.schemaFor(ctx, explicit)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid columns: %v", err)), nil
		}

		minFields := 0
		if v, err := req.RequireFloat("min_fields"); err == nil {
			if v < 0 {
				return mcp.NewToolResultError("min_fields must not be negative"), nil
			}
			minFields = int(v)
		}

		a := assemble.New(assemble.Options{
			Schema:     sch,
			Vocabulary: h.vocab,
			MinFields:  minFields,
			Trace:      req.GetBool("trace", false),
			Logger:     h.logger,
		})
		res, err := a.Assemble(ctx, text)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("parse error: %v", err)), nil
		}

		out := parseResult{Document: export.NewDocument(SourceMCP, sch, res)}
		if req.GetBool("save", false) {
			id, err := h.st.SaveRun(ctx, &store.Run{
				Source:      SourceMCP,
				InputHash:   store.HashInput(text),
				Columns:     sch.Fields(),
				MinFields:   a.MinFields(),
				Diagnostics: res.Diagnostics,
				Records:     res.Records,
			})
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("save error: %v", err)), nil
			}
			out.RunID = id
			h.logger.Info("run saved", zap.String("run", id), zap.Int("records", len(res.Records)))
		}

		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

type runSummary struct {
	ID          string               `json:"id"`
	Source      string               `json:"source"`
	RecordCount int                  `json:"record_count"`
	MinFields   int                  `json:"min_fields"`
	Diagnostics assemble.Diagnostics `json:"diagnostics"`
	CreatedAt   string               `json:"created_at"`
}

func summarize(r *store.Run) runSummary {
	return runSummary{
		ID:          r.ID,
		Source:      r.Source,
		RecordCount: r.RecordCount,
		MinFields:   r.MinFields,
		Diagnostics: r.Diagnostics,
		CreatedAt:   r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

func registerHistoryTool(s *server.MCPServer, h *handler) {
	tool := mcp.NewTool("coop_history",
		mcp.WithDescription("List saved parse runs, or show one run's records by ID or unique ID prefix."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("run",
			mcp.Description("Run ID or unique prefix. Empty = list recent runs."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to list (default: 20, max: 100)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		if id, err := req.RequireString("run"); err == nil && strings.TrimSpace(id) != "" {
			run, err := h.st.GetRun(ctx, strings.TrimSpace(id))
			if errors.Is(err, store.ErrRunNotFound) || errors.Is(err, store.ErrAmbiguousRun) {
				return mcp.NewToolResultError(err.Error()), nil
			}
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
			}
			payload := map[string]interface{}{
				"run":     summarize(run),
				"columns": run.Columns,
				"records": run.Records,
			}
			data, _ := json.MarshalIndent(payload, "", "  ")
			return mcp.NewToolResultText(string(data)), nil
		}

		limit := store.DefaultListLimit
		if v, err := req.RequireFloat("limit"); err == nil && v > 0 {
			limit = int(v)
			if limit > maxHistoryLimit {
				limit = maxHistoryLimit
			}
		}
		runs, err := h.st.ListRuns(ctx, store.ListOpts{Limit: limit})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("history error: %v", err)), nil
		}
		if len(runs) == 0 {
			return mcp.NewToolResultText("No saved runs. Call coop_parse with save=true to keep one."), nil
		}
		out := make([]runSummary, 0, len(runs))
		for _, r := range runs {
			out = append(out, summarize(r))
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerColumnsTool(s *server.MCPServer, h *handler) {
	tool := mcp.NewTool("coop_columns",
		mcp.WithDescription("Show, set or reset the extra columns appended to the default schema."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("set",
			mcp.Description("Comma-separated extra columns to save, replacing the current ones"),
		),
		mcp.WithBoolean("reset",
			mcp.Description("Remove all saved extra columns (default: false)"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		reset := req.GetBool("reset", false)
		set, _ := req.RequireString("set")
		set = strings.TrimSpace(set)
		if reset && set != "" {
			return mcp.NewToolResultError("set and reset are mutually exclusive"), nil
		}

		switch {
		case reset:
			if err := h.st.ResetColumns(ctx); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("columns error: %v", err)), nil
			}
		case set != "":
			cols := config.SplitColumns(set)
			if _, err := schema.Default().WithColumns(cols...); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("invalid columns: %v", err)), nil
			}
			if err := h.st.SaveColumns(ctx, cols); err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("columns error: %v", err)), nil
			}
		}

		sch, err := h.schemaFor(ctx, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("columns error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(map[string]interface{}{"columns": sch.Fields()}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
