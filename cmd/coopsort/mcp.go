package main

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	coopmcp "github.com/hurttlocker/coopsort/internal/mcp"
)

// mcpCmd serves the MCP tools over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve coopsort as an MCP server over stdio",
	Long: `Starts a Model Context Protocol server on stdin/stdout.

Tools: coop_parse, coop_history, coop_columns
Resources: coopsort://schema, coopsort://runs/recent

Logs go to stderr so they never mix with the protocol stream.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	vocab, err := loadVocabulary()
	if err != nil {
		return err
	}

	s := coopmcp.NewServer(coopmcp.ServerConfig{
		Store:      st,
		Version:    version,
		Vocabulary: vocab,
		Logger:     logger,
	})
	logger.Info("mcp server starting")
	return server.ServeStdio(s)
}
