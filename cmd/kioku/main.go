// Package main is the kioku CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kioku/internal/cli"
	"github.com/hyperjump/kioku/internal/config"
	"github.com/hyperjump/kioku/internal/embedding"
	"github.com/hyperjump/kioku/internal/indexer"
	"github.com/hyperjump/kioku/internal/keyword"
	"github.com/hyperjump/kioku/internal/models"
	"github.com/hyperjump/kioku/internal/notes"
	"github.com/hyperjump/kioku/internal/search"
	"github.com/hyperjump/kioku/internal/server"
	"github.com/hyperjump/kioku/internal/storage"
	"github.com/hyperjump/kioku/internal/vector"
	"github.com/hyperjump/kioku/internal/watcher"
	"github.com/hyperjump/kioku/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kioku/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default and config.yaml exists in the
// current directory, that file is used instead. A missing default config yields the built-in
// defaults. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
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
		if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
			cfg := &config.Config{}
			config.ApplyDefaults(cfg)
			return cfg, "", nil
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
	case "add":
		runAdd()
	case "list":
		runList()
	case "delete":
		runDelete()
	case "import":
		runImport()
	case "reindex":
		runReindex()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("kioku version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// setup loads config, builds the logger and initializes components for local commands.
func setup(configPath string, debug bool) (*config.Config, *zap.Logger, *Components) {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		fatalf("Failed to load config: %v", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || debug)
	if err != nil {
		fatalf("Failed to create logger: %v", err)
	}
	components, err := initializeComponents(cfg, logger)
	if err != nil {
		fatalf("Failed to initialize: %v", err)
	}
	return cfg, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (file imports, index updates, etc.)")
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

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Index.RebuildOnStartOrDefault() {
		report, err := components.Notes.Rebuild(ctx)
		if err != nil {
			logger.Fatal("Failed to build indices", zap.Error(err))
		}
		logger.Info("indices built",
			zap.Int("total", report.Total),
			zap.Int("indexed", report.Indexed),
			zap.Int("failed", report.Failed))
	}

	var opts []server.Option
	opts = append(opts, server.WithEmbeddingProvider(embedding.ProviderName(components.Embedder)))
	if len(cfg.Watch.Directories) > 0 {
		if n, err := components.Notes.PruneMissingFiles(ctx); err != nil {
			logger.Warn("prune missing files failed", zap.Error(err))
		} else if n > 0 {
			logger.Info("removed notes for missing files", zap.Int("count", n))
		}
		watchSvc := watcher.NewWatcher(
			cfg.Watch.Directories,
			cfg.Watch.Extensions,
			cfg.Watch.RecursiveOrDefault(),
			components.Notes,
			watcher.WithLogger(logger),
		)
		if err := watchSvc.Start(ctx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
		watchSvc.SyncExistingFiles()
		opts = append(opts, server.WithWatchService(watchSvc))
	}

	srv := server.NewServer(components.Notes, components.Engine, components.VectorIndex, cfg, logger, opts...)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kioku search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Notes are ranked by embedding similarity, then blended with literal keyword matches.
  • --keyword-weight 0 ranks by similarity only; 1 ranks by keyword matches only.
  • Keywords are query words of three or more characters.

Examples:
  kioku search budget planning
  kioku search "budget planning"                  # same as above
  kioku search --keyword-weight 0 offsite agenda  # similarity only
  kioku search --output json --limit 20 your query
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchConfigPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func searchConfigPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// searchDefaultsFromConfig returns the default result limit and keyword weight from the config at path.
// On load failure the built-in defaults are returned.
func searchDefaultsFromConfig(path string) (limit int, keywordWeight float64) {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return search.DefaultLimit, config.DefaultKeywordWeight
	}
	return cfg.Search.DefaultLimit, cfg.Search.KeywordWeightOrDefault()
}

// searchArgsReorder moves every flag (and its value) to the front of the slice so
// that flag.Parse() sees them, keeping the query words in their original order.
// Go's flag package stops at the first non-flag argument. All search flags take a
// value, so a flag without "=" consumes the next argument. Arguments after "--" are
// never treated as flags.
func searchArgsReorder(args []string) []string {
	flags := make([]string, 0, len(args))
	words := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		a := args[i]
		if a == "--" {
			words = append(words, args[i+1:]...)
			if len(words) == 0 {
				return flags
			}
			return append(append(flags, "--"), words...)
		}
		if len(a) > 1 && a[0] == '-' {
			flags = append(flags, a)
			if !strings.Contains(a, "=") && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
			continue
		}
		words = append(words, a)
	}
	return append(flags, words...)
}

func runSearch() {
	searchArgs := searchArgsReorder(os.Args[2:])
	configPath := searchConfigPathFromArgs(searchArgs, defaultConfigPath)
	defaultLimit, defaultWeight := searchDefaultsFromConfig(configPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	configPathFlag := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	limit := fs.Int("limit", defaultLimit, "number of results")
	keywordWeight := fs.Float64("keyword-weight", defaultWeight, "weight of keyword matches in [0,1]")
	outputFormat := fs.String("output", "text", "output format: text (human-readable), compact (one result per line), or json (parseable)")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(searchArgs)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	searchQuery := &models.SearchQuery{
		Query:         queryStr,
		Limit:         *limit,
		KeywordWeight: keywordWeight,
	}

	var response *models.SearchResponse
	if *serverURL != "" {
		// The server holds the database and full-text index open, so go through its API.
		response = new(models.SearchResponse)
		err = doJSON(http.MethodPost, *serverURL+"/api/v1/search", searchQuery, http.StatusOK, response)
	} else {
		_, logger, components := setup(*configPathFlag, false)
		defer logger.Sync()
		defer components.Close()
		ctx := context.Background()
		if _, err := components.Notes.Rebuild(ctx); err != nil {
			fatalf("Failed to build indices: %v", err)
		}
		response, err = components.Engine.Search(ctx, searchQuery)
	}
	if err != nil {
		fatalf("Search failed: %v", err)
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// doJSON sends body as JSON (when non-nil), checks the status code and decodes the response into out.
func doJSON(method, endpoint string, body interface{}, wantStatus int, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runAdd() {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	title := fs.String("title", "", "note title (required)")
	_ = fs.Parse(os.Args[2:])

	content := strings.Join(fs.Args(), " ")
	if content == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			fatalf("Failed to read stdin: %v", err)
		}
		content = string(b)
	}
	input := &models.NoteInput{Title: title, Content: &content}

	var note *models.Note
	var err error
	if *serverURL != "" {
		note = new(models.Note)
		err = doJSON(http.MethodPost, *serverURL+"/api/v1/notes", input, http.StatusCreated, note)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		note, err = components.Notes.Create(context.Background(), input)
	}
	if err != nil {
		fatalf("Add failed: %v", err)
	}
	fmt.Printf("Note created: %s\n", note.ID)
}

func runList() {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	filter := fs.String("q", "", "only notes matching these words (prefix match)")
	offset := fs.Int("offset", 0, "number of notes to skip")
	limit := fs.Int("limit", 50, "maximum number of notes")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	var list []*models.Note
	if *serverURL != "" {
		params := url.Values{}
		params.Set("offset", strconv.Itoa(*offset))
		params.Set("limit", strconv.Itoa(*limit))
		if *filter != "" {
			params.Set("q", *filter)
		}
		var out server.NoteList
		err = doJSON(http.MethodGet, *serverURL+"/api/v1/notes?"+params.Encode(), nil, http.StatusOK, &out)
		list = out.Notes
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		ctx := context.Background()
		if *filter != "" {
			_, err = components.Notes.Rebuild(ctx)
		}
		if err == nil {
			list, _, err = components.Notes.List(ctx, *filter, *offset, *limit)
		}
	}
	if err != nil {
		fatalf("List failed: %v", err)
	}
	if err := cli.WriteNotes(os.Stdout, list, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku delete [flags] <note-id>")
		os.Exit(1)
	}
	id := fs.Arg(0)

	var err error
	if *serverURL != "" {
		err = doJSON(http.MethodDelete, *serverURL+"/api/v1/notes/"+url.PathEscape(id), nil, http.StatusOK, nil)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		err = components.Notes.Delete(context.Background(), id)
	}
	if err != nil {
		fatalf("Deletion failed: %v", err)
	}
	fmt.Printf("Note deleted: %s\n", id)
}

// runImport reads files into notes. It opens the database directly, so the server must not be running.
func runImport() {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	recursive := fs.Bool("recursive", true, "descend into subdirectories")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kioku import [flags] <file-or-directory>...")
		os.Exit(1)
	}

	_, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	for _, path := range fs.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fatalf("Failed to stat path: %v", err)
		}
		if info.IsDir() {
			n, err := components.Notes.ImportDirectory(ctx, path, *recursive)
			if err != nil {
				fatalf("Importing directory failed: %v", err)
			}
			fmt.Printf("Imported %d file(s) from %s\n", n, path)
			continue
		}
		if err := components.Notes.ImportFile(ctx, path); err != nil {
			fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %s\n", path)
	}
}

func runReindex() {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	_ = fs.Parse(os.Args[2:])

	var report indexer.ReindexReport
	var err error
	if *serverURL != "" {
		err = doJSON(http.MethodPost, *serverURL+"/api/v1/reindex", nil, http.StatusOK, &report)
	} else {
		_, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		var r *indexer.ReindexReport
		r, err = components.Notes.Rebuild(context.Background())
		if r != nil {
			report = *r
		}
	}
	if err != nil {
		fatalf("Reindex failed: %v", err)
	}
	fmt.Printf("Reindexed %d/%d notes (%d failed)\n", report.Indexed, report.Total, report.Failed)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", defaultServerURL, "server URL (empty = open the local database)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fatalf("%v", err)
	}

	status := new(server.Status)
	if *serverURL != "" {
		if err := doJSON(http.MethodGet, *serverURL+"/api/v1/status", nil, http.StatusOK, status); err != nil {
			fatalf("Status failed: %v", err)
		}
	} else {
		cfg, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		ctx := context.Background()
		if _, err := components.Notes.Rebuild(ctx); err != nil {
			fatalf("Failed to build indices: %v", err)
		}
		count, err := components.Notes.Count(ctx)
		if err != nil {
			fatalf("Count notes failed: %v", err)
		}
		status.Notes = count
		status.VectorIndexSize = components.VectorIndex.Size()
		status.VectorIndexType = components.VectorIndex.Type()
		status.EmbeddingProvider = embedding.ProviderName(components.Embedder)
		status.Dimensions = components.VectorIndex.Dimensions()
		status.WatchDirectories = cfg.Watch.Directories
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
			status.DiskUsageBytes = diskBytes
		}
	}
	if err := cli.WriteStatus(os.Stdout, status, format); err != nil {
		fatalf("Output failed: %v", err)
	}
}

// Components holds initialized services.
type Components struct {
	Storage      storage.Storage
	Embedder     embedding.Embedder
	VectorIndex  vector.Index
	KeywordIndex keyword.KeywordIndex
	Indexer      *indexer.Indexer
	Notes        *notes.Service
	Engine       *search.Engine
}

// Close releases every component.
func (c *Components) Close() {
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.KeywordIndex != nil {
		_ = c.KeywordIndex.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.Storage = store

	c.Embedder, err = embedding.New(&cfg.Embedding, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	c.VectorIndex, err = vector.NewMemoryIndex(c.Embedder.Dimensions())
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize vector index: %w", err)
	}

	c.KeywordIndex, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize keyword index: %w", err)
	}

	c.Indexer = indexer.NewIndexer(c.Embedder, c.VectorIndex, indexer.WithLogger(logger))
	c.Notes = notes.NewService(store, c.Indexer, c.KeywordIndex,
		notes.WithLogger(logger),
		notes.WithExtensions(cfg.Watch.Extensions),
	)
	ranker := search.NewRanker(c.Embedder, c.VectorIndex,
		search.WithLogger(logger),
		search.WithCandidateMultiplier(cfg.Search.CandidateMultiplier),
	)
	c.Engine = search.NewEngine(ranker, &cfg.Search, logger)

	logger.Info("components initialized",
		zap.String("embedding_provider", embedding.ProviderName(c.Embedder)),
		zap.Int("dimensions", c.Embedder.Dimensions()),
		zap.String("vector_index", c.VectorIndex.Type()))
	return c, nil
}

func printUsage() {
	fmt.Println(`kioku - Local note store with semantic search

Usage:
  kioku server [flags]               Start the HTTP server (and file watcher)
  kioku search [flags] <query>       Search notes
  kioku add --title <t> [content]    Create a note (content "-" reads stdin)
  kioku list [flags]                 List notes
  kioku delete [flags] <id>          Delete a note
  kioku import [flags] <path>...     Import files or directories as notes
  kioku reindex [flags]              Rebuild the embedding and full-text indices
  kioku status [flags]               Show note and index status
  kioku version                      Show version
  kioku help                         Show this help

Common Flags:
  --config string    Config file path (default: /usr/local/etc/kioku/config.yaml)
  --server string    Server URL (default: http://localhost:8080). Use --server "" to open
                     the local database when the server is not running.

Server Flags:
  --debug            Enable debug logging

Search Flags:
  --limit int              Number of results (default from config, or 5)
  --keyword-weight float   Weight of keyword matches, 0 to 1 (default from config, or 0.3)
  --output string          text, compact, or json (default: text)

Import Flags:
  --recursive        Descend into subdirectories (default: true)

Examples:
  kioku server
  kioku add --title "Budget Plan" "Q3 budget planning details"
  kioku search budget planning
  kioku search --output json "offsite agenda"
  kioku list -q budg
  kioku import ~/notes
  kioku status --output json`)
}
