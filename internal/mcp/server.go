package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/classfind/internal/classsearch"
	"github.com/Aman-CERP/classfind/internal/config"
	cferrors "github.com/Aman-CERP/classfind/internal/errors"
	"github.com/Aman-CERP/classfind/internal/output"
	"github.com/Aman-CERP/classfind/internal/store"
	"github.com/Aman-CERP/classfind/internal/telemetry"
	"github.com/Aman-CERP/classfind/pkg/version"
)

// ServerName is the implementation name announced to MCP clients.
const ServerName = "classfind"

// metricsURI identifies the search telemetry resource.
const metricsURI = "classfind://metrics"

// Server is the MCP server for classfind.
// It exposes class-name search over the configured artifact indexes.
type Server struct {
	mcp      *mcp.Server
	searcher *classsearch.Searcher
	indexes  []store.ClassIndex
	config   *config.Config
	logger   *slog.Logger

	// Search telemetry (optional, set via SetMetrics)
	metrics *telemetry.QueryMetrics

	mu sync.RWMutex
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// NewServer creates a new MCP server. indexes are reported by index_status and
// are not closed by the server.
func NewServer(searcher *classsearch.Searcher, indexes []store.ClassIndex, cfg *config.Config) (*Server, error) {
	if searcher == nil {
		return nil, errors.New("searcher is required")
	}
	if cfg == nil {
		cfg = config.NewConfig()
	}

	s := &Server{
		searcher: searcher,
		indexes:  indexes,
		config:   cfg,
		logger:   slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()

	return s, nil
}

// SetLogger replaces the server logger.
func (s *Server) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// SetMetrics sets the telemetry collector and registers the metrics resource.
func (s *Server) SetMetrics(m *telemetry.QueryMetrics) {
	s.mu.Lock()
	first := s.metrics == nil
	s.metrics = m
	s.mu.Unlock()

	if m != nil && first {
		s.registerMetricsResource()
	}
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return []ToolInfo{
		{
			Name: ToolSearchClasses,
			Description: "Find Java classes by name across indexed artifacts. " +
				"Abbreviated packages work: 'j.u.ArrayL' finds java.util.ArrayList. " +
				"'*' matches within a name, a trailing space or exact=true requires the full class name. " +
				"Returns each class with the artifact coordinates and versions that contain it.",
		},
		{
			Name:        ToolIndexStatus,
			Description: "Report the artifact indexes in use with their artifact counts and search telemetry.",
		},
	}
}

// CallTool invokes a tool by name with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearchClasses:
		input := SearchClassesInput{}
		if p, ok := args["pattern"].(string); ok {
			input.Pattern = p
		} else if _, present := args["pattern"]; present {
			return nil, NewInvalidParamsError("pattern must be a string")
		}
		switch n := args["max_results"].(type) {
		case float64:
			input.MaxResults = int(n)
		case int:
			input.MaxResults = n
		}
		if e, ok := args["exact"].(bool); ok {
			input.Exact = e
		}
		return s.handleSearchClasses(ctx, input)
	case ToolIndexStatus:
		return s.handleIndexStatus(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

// handleSearchClasses runs one class search under the configured timeout.
func (s *Server) handleSearchClasses(ctx context.Context, input SearchClassesInput) (*SearchClassesOutput, error) {
	if input.MaxResults < 0 {
		return nil, NewInvalidParamsError("max_results must not be negative")
	}

	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()

	pattern := input.Pattern
	if input.Exact && !strings.HasSuffix(pattern, " ") {
		pattern += " "
	}
	limit := clampLimit(input.MaxResults, s.config.Search.MaxResults, maxResultsCeiling)

	if timeout := s.config.SearchTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	requestID := generateRequestID()
	start := time.Now()
	logger.Info("mcp_search_started",
		slog.String("request_id", requestID),
		slog.String("pattern", pattern),
		slog.Int("max_results", limit))

	results, err := s.searcher.Search(ctx, pattern, limit)
	if err != nil {
		logger.Warn("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		return nil, cferrors.SearchError(err)
	}

	sorted := output.SortResults(results)
	out := &SearchClassesOutput{
		Pattern:   input.Pattern,
		Count:     len(sorted),
		Truncated: len(sorted) >= limit,
		Results:   make([]ClassResultOutput, 0, len(sorted)),
	}
	for _, r := range sorted {
		out.Results = append(out.Results, toClassResultOutput(r))
	}

	logger.Info("mcp_search_complete",
		slog.String("request_id", requestID),
		slog.Int("results", out.Count),
		slog.Duration("duration", time.Since(start)))

	return out, nil
}

// handleIndexStatus reports the open indexes and the telemetry snapshot.
func (s *Server) handleIndexStatus(ctx context.Context) (*IndexStatusOutput, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	out := &IndexStatusOutput{
		DataDir: s.config.Index.DataDir,
		Indexes: store.Status(ctx, s.indexes),
	}
	if metrics != nil {
		out.Metrics = toMetricsOutput(metrics.Snapshot())
	}
	return out, nil
}

// registerTools registers all MCP tools with the SDK server.
func (s *Server) registerTools() {
	tools := s.ListTools()

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tools[0].Name,
		Description: tools[0].Description,
	}, s.mcpSearchClassesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        tools[1].Name,
		Description: tools[1].Description,
	}, s.mcpIndexStatusHandler)

	s.logger.Debug("MCP tools registered", slog.Int("count", len(tools)))
}

// mcpSearchClassesHandler is the MCP SDK handler for the search_classes tool.
func (s *Server) mcpSearchClassesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchClassesInput) (
	*mcp.CallToolResult,
	*SearchClassesOutput,
	error,
) {
	out, err := s.handleSearchClasses(ctx, input)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

// mcpIndexStatusHandler is the MCP SDK handler for the index_status tool.
func (s *Server) mcpIndexStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	out, err := s.handleIndexStatus(ctx)
	if err != nil {
		return nil, nil, MapError(err)
	}
	return nil, out, nil
}

// registerMetricsResource exposes the telemetry snapshot as a JSON resource.
func (s *Server) registerMetricsResource() {
	s.mcp.AddResource(
		&mcp.Resource{
			Name:        "metrics",
			URI:         metricsURI,
			Description: "Class search telemetry for this session",
			MIMEType:    "application/json",
		},
		s.readMetrics,
	)
}

func (s *Server) readMetrics(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	content, err := s.metricsJSON()
	if err != nil {
		return nil, MapError(err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      metricsURI,
				MIMEType: "application/json",
				Text:     content,
			},
		},
	}, nil
}

// metricsJSON renders the current telemetry snapshot.
func (s *Server) metricsJSON() (string, error) {
	s.mu.RLock()
	metrics := s.metrics
	s.mu.RUnlock()

	if metrics == nil {
		return "", NewInvalidParamsError("search metrics not available")
	}
	data, err := json.MarshalIndent(toMetricsOutput(metrics.Snapshot()), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics: %w", err)
	}
	return string(data), nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.mu.RLock()
	logger := s.logger
	s.mu.RUnlock()

	logger.Info("Starting MCP server", slog.String("transport", transport))

	switch transport {
	case "", "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("MCP server stopped with error", slog.String("error", err.Error()))
		} else {
			logger.Info("MCP server stopped gracefully")
		}
		return err
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
