package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/yanqian/papersearch/internal/domain/markingscheme"
	"github.com/yanqian/papersearch/internal/domain/questionsearch"
	"github.com/yanqian/papersearch/internal/infra/config"
)

const (
	toolSearch = "search_questions"
	toolLocate = "locate_marking_scheme"
)

// Tools adapts the domain services to MCP tool handlers.
type Tools struct {
	search  questionsearch.Service
	locator markingscheme.Service
	logger  *slog.Logger
}

// NewTools constructs the tool handlers.
func NewTools(search questionsearch.Service, locator markingscheme.Service, logger *slog.Logger) *Tools {
	return &Tools{search: search, locator: locator, logger: logger.With("component", "mcp.tools")}
}

// NewServer registers both tools on an MCP server.
func NewServer(tools *Tools, version string) *server.MCPServer {
	srv := server.NewMCPServer("papersearch", version, server.WithToolCapabilities(false))

	srv.AddTool(mcp.NewTool(toolSearch,
		mcp.WithDescription("Search past exam paper questions by topic or wording"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free text describing the question to find"),
		),
		mcp.WithNumber("numResults",
			mcp.Description("Number of questions to return, default 5"),
		),
	), tools.Search)

	srv.AddTool(mcp.NewTool(toolLocate,
		mcp.WithDescription("Find the marking scheme page that grades a question"),
		mcp.WithNumber("year",
			mcp.Required(),
			mcp.Description("Exam year, e.g. 2019"),
		),
		mcp.WithNumber("questionNumber",
			mcp.Required(),
			mcp.Description("Question number within the paper"),
		),
		mcp.WithBoolean("deferred",
			mcp.Description("Use the deferred sitting's marking scheme"),
		),
	), tools.Locate)

	return srv
}

// Search handles search_questions.
func (t *Tools) Search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resp, err := t.search.Query(ctx, questionsearch.SearchRequest{
		Query:      query,
		NumResults: request.GetInt("numResults", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(resp)
}

// Locate handles locate_marking_scheme.
func (t *Tools) Locate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	year, err := request.RequireInt("year")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	number, err := request.RequireInt("questionNumber")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := t.locator.Locate(ctx, markingscheme.Request{
		Year:           year,
		QuestionNumber: number,
		Deferred:       request.GetBool("deferred", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(raw)), nil
}

// SSEServer serves the MCP server over Server-Sent Events.
type SSEServer struct {
	sse     *server.SSEServer
	address string
	enabled bool
	logger  *slog.Logger
}

// NewSSEServer wraps srv for the configured address. A disabled config yields a no-op server.
func NewSSEServer(cfg *config.Config, srv *server.MCPServer, logger *slog.Logger) *SSEServer {
	baseURL := cfg.MCP.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost%s", cfg.MCP.Address)
	}
	return &SSEServer{
		sse:     server.NewSSEServer(srv, server.WithBaseURL(baseURL)),
		address: cfg.MCP.Address,
		enabled: cfg.MCP.Enabled,
		logger:  logger.With("component", "mcp.sse"),
	}
}

// Enabled reports whether Start will listen.
func (s *SSEServer) Enabled() bool {
	return s.enabled
}

// Start blocks serving until Shutdown. It returns nil after a clean shutdown.
func (s *SSEServer) Start() error {
	if !s.enabled {
		return nil
	}
	s.logger.Info("starting mcp sse server", "address", s.address)
	if err := s.sse.Start(s.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the SSE listener.
func (s *SSEServer) Shutdown(ctx context.Context) error {
	if !s.enabled {
		return nil
	}
	return s.sse.Shutdown(ctx)
}
