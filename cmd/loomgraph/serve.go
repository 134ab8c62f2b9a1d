package main

import (
	"fmt"

	"github.com/heefoo/loomgraph/internal/daemon"
	"github.com/heefoo/loomgraph/pkg/mcp"
	"github.com/spf13/cobra"
)

var (
	servePort  int
	serveWatch []string
)

var serveCmd = &cobra.Command{
	Use:   "serve [stdio|http]",
	Short: "Serve extraction and indexing as MCP tools",
	Long: `Start an MCP server. The transport defaults to server.mode from the
config. The http transport serves SSE on /sse and /message and a health
check on /health.

Examples:
  loomgraph serve
  loomgraph serve http --port 3003 --watch ./src`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"stdio", "http"},
	RunE:      runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "HTTP port (default: server.port from config)")
	serveCmd.Flags().StringSliceVar(&serveWatch, "watch", nil, "directories to index and keep current while serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	mode := cfg.Server.Mode
	if len(args) == 1 {
		mode = args[0]
	}
	port := cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	ctx, cancel := signalContext()
	defer cancel()

	registry := newRegistry()
	idx, store, err := openIndexer(ctx, registry)
	if err != nil {
		// Extraction tools still work without a store.
		logger.WithError(err).Warn("Storage unavailable, indexing tools disabled")
		idx, store = nil, nil
	} else {
		defer store.Close()
	}

	if len(serveWatch) > 0 && idx != nil {
		w, err := daemon.NewWatcher(daemon.WatcherConfig{
			Indexer:         idx,
			ExcludePatterns: cfg.Index.ExcludePatterns,
			DebounceMs:      cfg.Server.WatcherDebounceMs,
			IndexTimeoutMs:  cfg.Server.IndexTimeoutMs,
			Logger:          logger,
		})
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		defer w.Stop()
		go func() {
			for _, dir := range serveWatch {
				if err := idx.IndexDirectory(ctx, dir, nil); err != nil {
					logger.WithError(err).WithField("directory", dir).Warn("Initial index failed")
				}
			}
			if err := w.Watch(ctx, serveWatch); err != nil && ctx.Err() == nil {
				logger.WithError(err).Warn("Watcher stopped")
			}
		}()
	}

	server := mcp.NewServer(mcp.ServerConfig{
		Config:   cfg,
		Registry: registry,
		Indexer:  idx,
		Store:    store,
		Logger:   logger,
		Version:  Version,
	})

	switch mode {
	case "stdio":
		return server.ServeStdio(ctx)
	case "http":
		return server.ServeHTTP(ctx, port)
	default:
		return fmt.Errorf("unknown mode: %s", mode)
	}
}
