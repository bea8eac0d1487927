// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the brain's capture and browse tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/halvard/muninn/internal/capture"
	"github.com/halvard/muninn/internal/inbox"
	"github.com/halvard/muninn/internal/store"
)

// recentLimit caps how many inbox items inbox_status reports.
const recentLimit = 10

// Server wraps the MCP server with the brain tools.
type Server struct {
	mcp   *server.MCPServer
	store *store.Store
	inbox *inbox.Inbox
}

// New creates a new MCP server with all brain tools registered.
func New(s *store.Store) *Server {
	srv := &Server{store: s, inbox: inbox.New(s)}

	srv.mcp = server.NewMCPServer(
		"Muninn",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithInstructions("Muninn personal knowledge brain: read and browse your "+
			"knowledge base, and capture new learnings, URLs, and text into your inbox "+
			"for review. Use get_brain_summary to see what's in the brain, list_domains "+
			"and list_knowledge to browse, and read_knowledge to read specific items. "+
			"Use capture_learnings, capture_url, and capture_text to add new knowledge."),
	)

	srv.mcp.AddTool(mcp.NewTool("capture_learnings",
		mcp.WithDescription("Capture learnings and decisions from an AI conversation session."),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Summary of the AI conversation session")),
		mcp.WithArray("learnings", mcp.Description("List of learnings/patterns discovered")),
		mcp.WithArray("decisions", mcp.Description("List of decisions made")),
		mcp.WithString("context", mcp.Description("Optional context string (e.g. \"rust programming session\")")),
	), srv.captureLearnings)

	srv.mcp.AddTool(mcp.NewTool("capture_url",
		mcp.WithDescription("Capture a knowledge item from a URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("The URL being captured")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title for the captured content")),
		mcp.WithString("summary", mcp.Required(), mcp.Description("Summary of the content")),
		mcp.WithArray("tags", mcp.Description("Optional tags to attach")),
		mcp.WithString("domain", mcp.Description("Optional domain to file under")),
	), srv.captureURL)

	srv.mcp.AddTool(mcp.NewTool("capture_text",
		mcp.WithDescription("Capture a plain text knowledge item."),
		mcp.WithString("text", mcp.Required(), mcp.Description("The text content to capture")),
		mcp.WithString("source", mcp.Description("Optional source attribution")),
		mcp.WithString("domain", mcp.Description("Optional domain to file under")),
	), srv.captureText)

	srv.mcp.AddTool(mcp.NewTool("inbox_status",
		mcp.WithDescription("Show the current inbox status and recent items."),
	), srv.inboxStatus)

	srv.mcp.AddTool(mcp.NewTool("get_brain_summary",
		mcp.WithDescription("Get a quick overview of the brain: total domains, total knowledge units, and inbox count."),
	), srv.getBrainSummary)

	srv.mcp.AddTool(mcp.NewTool("list_domains",
		mcp.WithDescription("List all knowledge domains in the brain with item counts."),
	), srv.listDomains)

	srv.mcp.AddTool(mcp.NewTool("list_knowledge",
		mcp.WithDescription("List knowledge summaries for a specific domain (id, type, tags, preview, path)."),
		mcp.WithString("domain", mcp.Required(), mcp.Description("The domain to list knowledge from (e.g. \"coding\", \"devops\")")),
	), srv.listKnowledge)

	srv.mcp.AddTool(mcp.NewTool("read_knowledge",
		mcp.WithDescription("Read the full content of a specific knowledge unit by its relative path."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the knowledge file within the brain (e.g. \"coding/ownership.md\")")),
	), srv.readKnowledge)

	return srv
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(out))
}

func (s *Server) captureLearnings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		Summary   string   `json:"summary"`
		Learnings []string `json:"learnings"`
		Decisions []string `json:"decisions"`
		Context   string   `json:"context"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.Summary == "" {
		return mcp.NewToolResultError("summary is required"), nil
	}

	paths, err := capture.FromConversation(s.inbox, args.Summary, args.Learnings, args.Decisions, args.Context)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"captured": len(paths)}), nil
}

func (s *Server) captureURL(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		URL     string   `json:"url"`
		Title   string   `json:"title"`
		Summary string   `json:"summary"`
		Tags    []string `json:"tags"`
		Domain  string   `json:"domain"`
	}
	if err := req.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.URL == "" || args.Title == "" {
		return mcp.NewToolResultError("url and title are required"), nil
	}

	path, err := capture.FromURL(s.inbox, args.URL, args.Title, args.Summary, args.Tags, args.Domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"path": path}), nil
}

func (s *Server) captureText(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	source := req.GetString("source", "")
	domain := req.GetString("domain", "")

	path, err := capture.FromText(s.inbox, text, source, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}
	return jsonResult(map[string]any{"path": path}), nil
}

type recentItem struct {
	ID         string `json:"id"`
	Kind       string `json:"type"`
	CapturedAt string `json:"captured_at"`
	Preview    string `json:"preview"`
}

func (s *Server) inboxStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.inbox.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}

	// Most recent first.
	recent := make([]recentItem, 0, recentLimit)
	for i := len(entries) - 1; i >= 0 && len(recent) < recentLimit; i-- {
		item := entries[i].Item
		recent = append(recent, recentItem{
			ID:         item.ID,
			Kind:       string(item.Kind),
			CapturedAt: item.CapturedAt.Format(time.RFC3339),
			Preview:    store.Preview(item.Body, 80),
		})
	}

	return jsonResult(map[string]any{
		"pending_count": len(entries),
		"recent_items":  recent,
	}), nil
}

func (s *Server) getBrainSummary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domains, err := s.store.ListDomains()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list domains failed: %v", err)), nil
	}

	totalUnits := 0
	for _, d := range domains {
		totalUnits += s.store.CountKnowledge(d)
	}

	entries, err := s.inbox.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list inbox failed: %v", err)), nil
	}

	return jsonResult(map[string]any{
		"total_domains": len(domains),
		"domains":       domains,
		"total_units":   totalUnits,
		"inbox_count":   len(entries),
	}), nil
}

func (s *Server) listDomains(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domains, err := s.store.ListDomains()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list domains failed: %v", err)), nil
	}

	info := make([]map[string]any, 0, len(domains))
	for _, name := range domains {
		description := ""
		if meta, metaErr := s.store.ReadDomainMeta(name); metaErr == nil {
			description = meta.Description
		}
		info = append(info, map[string]any{
			"name":        name,
			"item_count":  s.store.CountKnowledge(name),
			"description": description,
		})
	}
	return jsonResult(map[string]any{"domains": info}), nil
}

func (s *Server) listKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	domain, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries, err := s.store.ListKnowledge(domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list knowledge failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"domain": domain,
		"count":  len(summaries),
		"items":  summaries,
	}), nil
}

func (s *Server) readKnowledge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	unit, err := s.store.ReadUnit(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read failed: %v", err)), nil
	}
	return jsonResult(map[string]any{
		"id":         unit.ID,
		"type":       string(unit.Kind),
		"domain":     unit.Domain,
		"tags":       unit.Tags,
		"confidence": float64(unit.Confidence),
		"source":     unit.Source,
		"body":       unit.Body,
	}), nil
}
