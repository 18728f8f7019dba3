// Package main is the shiori CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hyperjump/shiori/internal/cli"
	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/server"
	"github.com/hyperjump/shiori/internal/watcher"
	"github.com/hyperjump/shiori/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/shiori/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When the default path does not exist either, built-in defaults are used.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, "", err
	}
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg, err := config.Default()
			return cfg, "", err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "recommend":
		runRecommend()
	case "import":
		runImport()
	case "list":
		runList()
	case "genres":
		runGenres()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("shiori version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger, debugMode, false)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	if err := bootstrapCatalog(context.Background(), cfg, components, logger, true); err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Watch && cfg.Catalog.Path != "" {
		watchOpts := []watcher.WatcherOption{}
		if debugMode {
			watchOpts = append(watchOpts, watcher.WithLogger(logger))
		}
		idx := components.Indexer
		w := watcher.NewWatcher(cfg.Catalog.Path, func(path string) {
			if _, err := idx.Import(context.Background(), path, true); err != nil {
				logger.Warn("catalog re-import failed", zap.String("path", path), zap.Error(err))
			}
		}, watchOpts...)
		if err := w.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer w.Stop()
	}

	srv := server.NewServer(components.Engine, components.Indexer, components.Storage, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// commandEnv is what one-shot commands share: config, a quiet logger, and loaded components.
type commandEnv struct {
	cfg        *config.Config
	logger     *zap.Logger
	components *Components
}

func (e *commandEnv) Close() {
	e.components.Close()
	_ = e.logger.Sync()
}

// openCommandEnv loads config and the catalog snapshot for direct (serverless) commands.
// It never replaces stored books with the configured catalog file.
func openCommandEnv(configPath string) *commandEnv {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	var logger *zap.Logger
	if cfg.Debug {
		logger, err = utils.NewLogger(true)
	} else {
		logger, err = utils.NewLoggerAt(zapcore.WarnLevel)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(cfg, logger, cfg.Debug, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	if err := bootstrapCatalog(context.Background(), cfg, components, logger, false); err != nil {
		components.Close()
		fmt.Fprintf(os.Stderr, "Failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	return &commandEnv{cfg: cfg, logger: logger, components: components}
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: shiori search [flags] [query]\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. An empty query lists the whole category.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  shiori search garden
  shiori search --category Programming
  shiori search --mode fulltext machine learning
  shiori search --server http://localhost:8080 --output json lighthouse
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// defaultTopKFromConfig returns recommend.default_top_k from the config at path, or 4 on failure.
func defaultTopKFromConfig(path string) int {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil || cfg.Recommend.DefaultTopK <= 0 {
		return 4
	}
	return cfg.Recommend.DefaultTopK
}

// reorderArgs moves flags (and their values) ahead of the positional arguments so
// that fs.Parse sees them. Go's flag package stops at the first non-flag argument,
// so "shiori search garden --category Drama" would otherwise leave --category
// unparsed. Positional arguments keep their relative order, and everything after
// "--" stays positional.
func reorderArgs(fs *flag.FlagSet, args []string) []string {
	flags := make([]string, 0, len(args))
	var positional []string
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			positional = append([]string{"--"}, append(positional, args[i+1:]...)...)
			break
		}
		if len(a) < 2 || a[0] != '-' {
			positional = append(positional, a)
			continue
		}
		flags = append(flags, a)
		name := strings.TrimLeft(a, "-")
		if strings.Contains(name, "=") || !takesValue(fs, name) {
			continue
		}
		if i+1 < len(args) {
			flags = append(flags, args[i+1])
			i++
		}
	}
	return append(flags, positional...)
}

// takesValue reports whether the named flag consumes the following argument.
func takesValue(fs *flag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	if f == nil {
		return false
	}
	if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
		return false
	}
	return true
}

func parseOutput(value string) cli.OutputFormat {
	format, err := cli.ParseOutputFormat(value)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the catalog directly)")
	category := fs.String("category", "all", "genre to filter by (\"all\" disables the filter)")
	mode := fs.String("mode", "", "search mode: substring or fulltext (default from config)")
	limit := fs.Int("limit", 0, "maximum number of results (0 = all matches in substring mode)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	format := parseOutput(*outputFormat)
	query := &models.SearchQuery{
		Query:    buildSearchQuery(fs.Args()),
		Category: *category,
		Mode:     models.SearchMode(*mode),
		Limit:    *limit,
	}

	var (
		response *models.SearchResponse
		err      error
	)
	if *serverURL != "" {
		response, err = searchViaHTTP(*serverURL, query)
	} else {
		env := openCommandEnv(*configPath)
		defer env.Close()
		response, err = env.components.Engine.Search(context.Background(), query)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runRecommend() {
	args := os.Args[2:]
	defaultK := defaultTopKFromConfig(configPathFromArgs(args, defaultConfigPath))

	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read the catalog directly)")
	k := fs.Int("k", defaultK, "number of recommendations")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(fs, args))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: shiori recommend [--k n] [--output text|json] <book-id>")
		os.Exit(1)
	}
	if *k < 0 {
		fmt.Fprintln(os.Stderr, "--k must not be negative")
		os.Exit(1)
	}
	format := parseOutput(*outputFormat)
	baseID := fs.Arg(0)

	var (
		base     *models.Book
		response *models.RecommendResponse
	)
	if *serverURL != "" {
		var err error
		base, response, err = recommendViaHTTP(*serverURL, baseID, *k)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		env := openCommandEnv(*configPath)
		defer env.Close()
		base, _ = env.components.Engine.Get(baseID)
		response = env.components.Engine.Recommend(context.Background(), baseID, *k)
	}
	if err := cli.WriteRecommendations(os.Stdout, base, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	replace := fs.Bool("replace", false, "replace the whole catalog instead of upserting by id")
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: shiori import [--replace] <catalog.yaml|json|xlsx>")
		os.Exit(1)
	}
	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger, cfg.Debug, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer components.Close()

	n, err := components.Indexer.Import(context.Background(), fs.Arg(0), *replace)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d books from %s (catalog now has %d books)\n", n, fs.Arg(0), components.Engine.Count())
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*outputFormat)
	env := openCommandEnv(*configPath)
	defer env.Close()
	if err := cli.WriteBooks(os.Stdout, env.components.Engine.Books(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runGenres() {
	fs := flag.NewFlagSet("genres", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format := parseOutput(*outputFormat)
	env := openCommandEnv(*configPath)
	defer env.Close()
	if err := cli.WriteGenres(os.Stdout, env.components.Engine.Genres(), format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`shiori - Book catalog search and recommendations

Usage:
  shiori server [flags]              Start the HTTP server
  shiori search [flags] [query]      Search books by text and genre
  shiori recommend [flags] <id>      Recommend books similar to a book
  shiori import [flags] <file>       Import a catalog file (.yaml, .yml, .json, .xlsx)
  shiori list [flags]                List the catalog
  shiori genres [flags]              List genres ("all" first)
  shiori status [flags]              Show catalog and storage status
  shiori version                     Show version
  shiori help                        Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/shiori/config.yaml, or ./config.yaml)
  --output string    Output format: text or json (default: text)

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --category string  Genre filter; "all" disables it (default: all)
  --mode string      substring or fulltext (default from config)
  --limit int        Maximum number of results
  --server string    Query a running server instead of the catalog directly

Recommend Flags:
  --k int            Number of recommendations (default from config, or 4)
  --server string    Query a running server instead of the catalog directly

Import Flags:
  --replace          Replace the whole catalog instead of upserting by id

Status Flags:
  --server string    Query a running server instead of the catalog directly

Environment:
  SHIORI_HOST, SHIORI_PORT, SHIORI_DATABASE_PATH, SHIORI_CATALOG_PATH, SHIORI_DEBUG
  override the config file; a .env file in the working directory is loaded first.

Examples:
  shiori server
  shiori search garden
  shiori search --category Programming --output json
  shiori search --mode fulltext "machine learning"
  shiori recommend 1
  shiori recommend --k 2 --output json 1
  shiori import --replace books.xlsx
  shiori status --server http://localhost:8080`)
}
