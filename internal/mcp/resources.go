package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hurttlocker/coopsort/internal/assemble"
	"github.com/hurttlocker/coopsort/internal/schema"
	"github.com/hurttlocker/coopsort/internal/store"
)

type columnInfo struct {
	Name     string           `json:"name"`
	Kind     schema.FieldKind `json:"kind,omitempty"`
	Synonyms []string         `json:"synonyms,omitempty"`
}

func registerSchemaResource(s *server.MCPServer, h *handler) {
	resource := mcp.NewResource(
		"coopsort://schema",
		"Active Schema",
		mcp.WithResourceDescription("Columns records are assembled into, with their value kinds and label synonyms."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		sch, err := h.schemaFor(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("loading schema: %w", err)
		}
		vocab := h.vocab
		if vocab == nil {
			vocab = schema.DefaultVocabulary()
		}

		cols := make([]columnInfo, 0, sch.Len())
		for _, f := range sch.Fields() {
			cols = append(cols, columnInfo{Name: f, Kind: vocab.Kind(f), Synonyms: vocab.Synonyms(f)})
		}
		payload := map[string]interface{}{
			"columns":    cols,
			"min_fields": assemble.DefaultMinFields,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}

func registerRecentRunsResource(s *server.MCPServer, h *handler) {
	resource := mcp.NewResource(
		"coopsort://runs/recent",
		"Recent Runs",
		mcp.WithResourceDescription("The most recent saved parse runs with their diagnostics."),
		mcp.WithMIMEType("application/json"),
	)

	s.AddResource(resource, func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dbMu.Lock()
		defer dbMu.Unlock()

		runs, err := h.st.ListRuns(ctx, store.ListOpts{Limit: store.DefaultListLimit})
		if err != nil {
			return nil, fmt.Errorf("listing runs: %w", err)
		}
		stats, err := h.st.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("reading stats: %w", err)
		}

		out := make([]runSummary, 0, len(runs))
		for _, r := range runs {
			out = append(out, summarize(r))
		}
		payload := map[string]interface{}{
			"runs":         out,
			"run_count":    stats.RunCount,
			"record_count": stats.RecordCount,
		}
		data, _ := json.MarshalIndent(payload, "", "  ")
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: req.Params.URI, MIMEType: "application/json", Text: string(data)},
		}, nil
	})
}
