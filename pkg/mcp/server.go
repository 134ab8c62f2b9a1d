// Package mcp exposes extraction and indexing as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/heefoo/loomgraph/internal/config"
	"github.com/heefoo/loomgraph/internal/graph"
	"github.com/heefoo/loomgraph/internal/indexer"
	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

type Server struct {
	config   *config.Config
	registry *parser.Registry
	indexer  *indexer.Indexer
	store    graph.Store
	logger   logrus.FieldLogger
	mcp      *server.MCPServer
}

// ServerConfig wires the server. Indexer and Store may be nil, in which case
// only the extraction tools work.
type ServerConfig struct {
	Config   *config.Config
	Registry *parser.Registry
	Indexer  *indexer.Indexer
	Store    graph.Store
	Logger   logrus.FieldLogger
	Version  string
}

func NewServer(cfg ServerConfig) *Server {
	if cfg.Config == nil {
		cfg.Config = config.DefaultConfig()
	}
	if cfg.Registry == nil {
		cfg.Registry = parser.DefaultRegistry(cfg.Config.ParserOptions())
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		config:   cfg.Config,
		registry: cfg.Registry,
		indexer:  cfg.Indexer,
		store:    cfg.Store,
		logger:   cfg.Logger,
	}

	mcpServer := server.NewMCPServer(
		"loomgraph",
		cfg.Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(mcpServer)
	s.mcp = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(mcp.Tool{
		Name:        "extract_file",
		Description: "Extract entities (modules, classes, functions, methods, types, DOM elements) and relationships (contains, member_of, imports, exports, calls, method_call, dom_reference) from one source file. Returns the parse result as JSON.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of the source file",
				},
				"include_code": map[string]interface{}{
					"type":        "boolean",
					"description": "Keep source text on entities",
					"default":     true,
				},
			},
			Required: []string{"path"},
		},
	}, s.handleExtractFile)

	mcpServer.AddTool(mcp.Tool{
		Name:        "supported_languages",
		Description: "List the languages and file extensions the extractor understands.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleSupportedLanguages)

	mcpServer.AddTool(mcp.Tool{
		Name:        "index_directory",
		Description: "Incrementally index every supported file under a directory into the configured store. Returns the final indexing status.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"directory": map[string]interface{}{
					"type":        "string",
					"description": "Directory to index",
				},
			},
			Required: []string{"directory"},
		},
	}, s.handleIndexDirectory)

	mcpServer.AddTool(mcp.Tool{
		Name:        "index_status",
		Description: "Report the status of the current or last indexing run.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleIndexStatus)

	mcpServer.AddTool(mcp.Tool{
		Name:        "file_graph",
		Description: "Return the stored entities and relationships of an indexed file.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Path of an indexed file",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleFileGraph)
}

func (s *Server) handleExtractFile(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return errorResult("path parameter is required")
	}
	if !s.registry.CanParse(path) {
		return errorResult(fmt.Sprintf("unsupported file type: %s", path))
	}

	registry := s.registry
	if !request.GetBool("include_code", true) {
		opts := s.config.ParserOptions()
		opts.OmitCode = true
		registry = parser.DefaultRegistry(opts)
	}

	result := registry.ParseFile(path, nil)
	if result.Failed() {
		return errorResult(result.Errors[0])
	}
	return jsonResult(result)
}

func (s *Server) handleSupportedLanguages(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]interface{}{
		"languages":  s.registry.Languages(),
		"extensions": s.registry.SupportedExtensions(),
	})
}

func (s *Server) handleIndexDirectory(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.indexer == nil {
		return errorResult("indexing is not configured")
	}
	dir, err := request.RequireString("directory")
	if err != nil {
		return errorResult("directory parameter is required")
	}

	// Use a fresh context so a client-side request timeout does not abort a
	// run halfway through saving.
	timeout := time.Duration(s.config.Server.IndexTimeoutMs) * time.Millisecond
	if timeout <= 0 {
		timeout = time.Minute
	}
	indexCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.indexer.IndexDirectory(indexCtx, dir, nil); err != nil {
		s.logger.WithError(err).WithField("directory", dir).Warn("Indexing failed")
		return errorResult(fmt.Sprintf("indexing %s failed: %v", dir, err))
	}
	return jsonResult(s.indexer.GetStatus())
}

func (s *Server) handleIndexStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.indexer == nil {
		return errorResult("indexing is not configured")
	}
	return jsonResult(s.indexer.GetStatus())
}

func (s *Server) handleFileGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.store == nil {
		return errorResult("storage is not configured")
	}
	path, err := request.RequireString("path")
	if err != nil {
		return errorResult("path parameter is required")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return errorResult(fmt.Sprintf("invalid path %s: %v", path, err))
	}

	rec, err := s.store.GetFile(ctx, abs)
	if errors.Is(err, graph.ErrNotFound) {
		return errorResult(fmt.Sprintf("%s is not indexed", abs))
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", abs, err)
	}
	return jsonResult(rec)
}

// errorResult reports a tool-level failure as JSON so clients can parse it
// the same way as successful output.
func errorResult(message string) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(map[string]interface{}{
		"error":   true,
		"message": message,
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to marshal error result")
		data = []byte(`{"error": true, "message": "internal error"}`)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
		IsError: true,
	}, nil
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: string(data),
			},
		},
	}, nil
}

// ServeStdio serves MCP over stdin and stdout until ctx is done.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.serveStdio(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serveStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Info("Starting MCP server on stdio")
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if ctx.Err() != nil {
		s.logger.Info("MCP server stopped")
		return nil
	}
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"languages": len(s.registry.Languages()),
	})
}

// httpHandler mounts the SSE transport and the health endpoint.
func (s *Server) httpHandler(baseURL string, srv *http.Server) http.Handler {
	sseHandler := server.NewSSEServer(s.mcp,
		server.WithBaseURL(baseURL),
		server.WithUseFullURLForMessageEndpoint(true),
		server.WithHTTPServer(srv),
	)

	mux := http.NewServeMux()
	mux.Handle("/sse", sseHandler.SSEHandler())
	mux.Handle("/message", sseHandler.MessageHandler())
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) ServeHTTP(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.WithField("addr", addr).Info("Starting MCP server over SSE")

	srv := &http.Server{Addr: addr}
	srv.Handler = s.httpHandler(fmt.Sprintf("http://127.0.0.1:%d", port), srv)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
