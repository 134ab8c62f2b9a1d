package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/heefoo/loomgraph/internal/parser"
)

type Config struct {
	Extract ExtractConfig `toml:"extract"`
	Index   IndexConfig   `toml:"index"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Log     LogConfig     `toml:"log"`
}

type ExtractConfig struct {
	Languages   []string `toml:"languages"`
	MethodCalls string   `toml:"method_calls"`
	MaxDepth    int      `toml:"max_depth"`
	IncludeCode bool     `toml:"include_code"`
	Workers     int      `toml:"workers"`
}

type IndexConfig struct {
	ExcludePatterns []string `toml:"exclude_patterns"`
}

type StorageConfig struct {
	Backend   string          `toml:"backend"`
	Bolt      BoltConfig      `toml:"bolt"`
	SurrealDB SurrealDBConfig `toml:"surrealdb"`
}

type BoltConfig struct {
	Path string `toml:"path"`
}

type SurrealDBConfig struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

type ServerConfig struct {
	Mode              string `toml:"mode"`
	Port              int    `toml:"port"`
	WatcherDebounceMs int    `toml:"watcher_debounce_ms"`
	IndexTimeoutMs    int    `toml:"index_timeout_ms"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

const (
	BackendBolt      = "bolt"
	BackendSurrealDB = "surrealdb"
	BackendNone      = "none"
)

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	} else {
		locations := []string{
			".loomgraph/config.toml",
			filepath.Join(os.Getenv("HOME"), ".loomgraph/config.toml"),
			"/etc/loomgraph/config.toml",
		}
		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				if _, err := toml.DecodeFile(loc, cfg); err == nil {
					break
				}
			}
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Extract: ExtractConfig{
			MethodCalls: string(parser.MethodCallsAuto),
			MaxDepth:    parser.DefaultMaxDepth,
			IncludeCode: true,
		},
		Index: IndexConfig{
			ExcludePatterns: []string{
				".git", "node_modules", "vendor", "__pycache__", ".venv",
				"dist", "build", "Intermediate", "Binaries", "*.min.js", ".loomgraph",
			},
		},
		Storage: StorageConfig{
			Backend: BackendBolt,
			Bolt: BoltConfig{
				Path: ".loomgraph/graph.db",
			},
			SurrealDB: SurrealDBConfig{
				URL:       "ws://localhost:3004",
				Namespace: "loomgraph",
				Database:  "main",
				Username:  "root",
				Password:  "root",
			},
		},
		Server: ServerConfig{
			Mode:              "stdio",
			Port:              3003,
			WatcherDebounceMs: 100,
			IndexTimeoutMs:    60000,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ParserOptions converts the [extract] section into extractor options.
func (c *Config) ParserOptions() parser.Options {
	opts := parser.Options{
		MethodCalls: parser.MethodCallMode(c.Extract.MethodCalls),
		MaxDepth:    c.Extract.MaxDepth,
		OmitCode:    !c.Extract.IncludeCode,
	}
	for _, l := range c.Extract.Languages {
		opts.Languages = append(opts.Languages, parser.Language(strings.ToLower(strings.TrimSpace(l))))
	}
	return opts
}

func Validate(cfg *Config) []string {
	var warnings []string

	switch parser.MethodCallMode(cfg.Extract.MethodCalls) {
	case parser.MethodCallsAuto, parser.MethodCallsAll, parser.MethodCallsNone:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown method_calls mode %q, expected auto, all or none", cfg.Extract.MethodCalls))
	}
	if cfg.Extract.MaxDepth < 1 {
		warnings = append(warnings, "Extract max_depth must be at least 1")
	}
	if cfg.Extract.Workers < 0 {
		warnings = append(warnings, "Extract workers cannot be negative")
	}
	known := parser.DefaultRegistry(parser.DefaultOptions()).Languages()
	for _, l := range cfg.Extract.Languages {
		if !knownLanguage(known, l) {
			warnings = append(warnings, fmt.Sprintf("Unknown language %q in extract.languages", l))
		}
	}

	switch cfg.Storage.Backend {
	case BackendBolt:
		if cfg.Storage.Bolt.Path == "" {
			warnings = append(warnings, "Bolt path cannot be empty")
		}
	case BackendSurrealDB:
		if cfg.Storage.SurrealDB.URL == "" {
			warnings = append(warnings, "SurrealDB URL cannot be empty")
		}
		if cfg.Storage.SurrealDB.Namespace == "" {
			warnings = append(warnings, "SurrealDB namespace cannot be empty")
		}
		if cfg.Storage.SurrealDB.Database == "" {
			warnings = append(warnings, "SurrealDB database cannot be empty")
		}
	case BackendNone:
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown storage backend %q", cfg.Storage.Backend))
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		warnings = append(warnings, "Server port must be between 1 and 65535")
	}
	if cfg.Server.WatcherDebounceMs < 10 {
		warnings = append(warnings, "Watcher debounce must be at least 10ms")
	}
	if cfg.Server.WatcherDebounceMs > 60000 {
		warnings = append(warnings, "Watcher debounce exceeds reasonable maximum (60000ms)")
	}
	if cfg.Server.IndexTimeoutMs < 1000 {
		warnings = append(warnings, "Index timeout must be at least 1 second")
	}
	if cfg.Server.IndexTimeoutMs > 300000 {
		warnings = append(warnings, "Index timeout exceeds reasonable maximum (300 seconds)")
	}

	switch cfg.Log.Format {
	case "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("Unknown log format %q, expected text or json", cfg.Log.Format))
	}

	return warnings
}

func knownLanguage(known []parser.Language, name string) bool {
	for _, l := range known {
		if string(l) == strings.ToLower(strings.TrimSpace(name)) {
			return true
		}
	}
	return false
}

func applyEnvOverrides(cfg *Config) {
	// Extraction
	if v := os.Getenv("LOOMGRAPH_LANGUAGES"); v != "" {
		cfg.Extract.Languages = splitList(v)
	}
	if v := os.Getenv("LOOMGRAPH_METHOD_CALLS"); v != "" {
		cfg.Extract.MethodCalls = v
	}
	if v := os.Getenv("LOOMGRAPH_MAX_DEPTH"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Extract.MaxDepth = i
		}
	}
	if v := os.Getenv("LOOMGRAPH_WORKERS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Extract.Workers = i
		}
	}
	if v := os.Getenv("LOOMGRAPH_INCLUDE_CODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Extract.IncludeCode = b
		}
	}

	if v := os.Getenv("LOOMGRAPH_EXCLUDE"); v != "" {
		cfg.Index.ExcludePatterns = splitList(v)
	}

	// Storage
	if v := os.Getenv("LOOMGRAPH_STORAGE"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("LOOMGRAPH_BOLT_PATH"); v != "" {
		cfg.Storage.Bolt.Path = v
	}
	if v := os.Getenv("LOOMGRAPH_SURREALDB_URL"); v != "" {
		cfg.Storage.SurrealDB.URL = v
	}
	if v := os.Getenv("LOOMGRAPH_SURREALDB_NAMESPACE"); v != "" {
		cfg.Storage.SurrealDB.Namespace = v
	}
	if v := os.Getenv("LOOMGRAPH_SURREALDB_DATABASE"); v != "" {
		cfg.Storage.SurrealDB.Database = v
	}
	if v := os.Getenv("LOOMGRAPH_SURREALDB_USERNAME"); v != "" {
		cfg.Storage.SurrealDB.Username = v
	}
	if v := os.Getenv("LOOMGRAPH_SURREALDB_PASSWORD"); v != "" {
		cfg.Storage.SurrealDB.Password = v
	}

	// Server
	if v := os.Getenv("LOOMGRAPH_PORT"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = i
		}
	}
	if v := os.Getenv("LOOMGRAPH_WATCHER_DEBOUNCE_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.WatcherDebounceMs = i
		}
	}
	if v := os.Getenv("LOOMGRAPH_INDEX_TIMEOUT_MS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Server.IndexTimeoutMs = i
		}
	}

	// Logging
	if v := os.Getenv("LOOMGRAPH_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOOMGRAPH_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
