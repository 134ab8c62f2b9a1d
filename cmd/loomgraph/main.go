package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/heefoo/loomgraph/internal/config"
	"github.com/heefoo/loomgraph/internal/graph"
	"github.com/heefoo/loomgraph/internal/indexer"
	"github.com/heefoo/loomgraph/internal/logging"
	"github.com/heefoo/loomgraph/internal/parser"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "loomgraph",
	Short: "Extract code entities and relationships from source trees",
	Long: `loomgraph parses JavaScript, TypeScript, C++ (including Unreal Engine
headers), Python and HTML with tree-sitter and extracts modules, classes,
functions, methods, types and DOM elements together with the relationships
between them. Results can be printed, indexed into a store, kept current
with a file watcher, or served to MCP clients.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = logging.New(cfg.Log)
		for _, w := range config.Validate(cfg) {
			logger.Warn(w)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .loomgraph/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.SetVersionTemplate(`loomgraph {{.Version}}
Build time: ` + BuildTime + `
Git commit: ` + GitCommit + `
`)

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(languagesCmd)
}

func newRegistry() *parser.Registry {
	opts := cfg.ParserOptions()
	opts.Logger = logger
	return parser.DefaultRegistry(opts)
}

// openIndexer opens the configured store and an indexer over it. The caller
// closes the store.
func openIndexer(ctx context.Context, registry *parser.Registry) (*indexer.Indexer, graph.Store, error) {
	store, err := graph.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	idx := indexer.New(indexer.Config{
		Registry:        registry,
		Store:           store,
		ExcludePatterns: cfg.Index.ExcludePatterns,
		Workers:         cfg.Extract.Workers,
		Logger:          logger,
	})
	return idx, store, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
