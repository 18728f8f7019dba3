package main

import (
	"context"
	"flag"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperjump/shiori/internal/config"
	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/server"
)

func newSearchFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.String("category", "all", "")
	fs.String("mode", "", "")
	fs.Int("limit", 0, "")
	fs.Bool("replace", false, "")
	return fs
}

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"garden", "-category", "Fiction"},
			expected: []string{"-category", "Fiction", "garden"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-category", "Fiction", "garden"},
			expected: []string{"-category", "Fiction", "garden"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"secret garden"},
			expected: []string{"secret garden"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"one", "two", "-limit", "5"},
			expected: []string{"-limit", "5", "one", "two"},
		},
		{
			name:     "flag between words keeps word order",
			args:     []string{"machine", "--mode", "fulltext", "learning"},
			expected: []string{"--mode", "fulltext", "machine", "learning"},
		},
		{
			name:     "bool flag takes no value",
			args:     []string{"books.yaml", "--replace", "extra"},
			expected: []string{"--replace", "books.yaml", "extra"},
		},
		{
			name:     "inline value",
			args:     []string{"garden", "--limit=2", "path"},
			expected: []string{"--limit=2", "garden", "path"},
		},
		{
			name:     "double dash ends flags",
			args:     []string{"a", "--mode", "fulltext", "--", "-b"},
			expected: []string{"--mode", "fulltext", "--", "a", "-b"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(newSearchFlags(), tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReorderArgs_parsesQueryInOrder(t *testing.T) {
	fs := newSearchFlags()
	if err := fs.Parse(reorderArgs(fs, []string{"machine", "--mode", "fulltext", "learning"})); err != nil {
		t.Fatal(err)
	}
	if got := buildSearchQuery(fs.Args()); got != "machine learning" {
		t.Errorf("query = %q, want %q", got, "machine learning")
	}
	if got := fs.Lookup("mode").Value.String(); got != "fulltext" {
		t.Errorf("mode = %q, want fulltext", got)
	}
}

func TestBuildSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"garden"}, "garden"},
		{"multiple words", []string{"secret", "garden"}, "secret garden"},
		{"single quoted phrase", []string{"secret garden"}, "secret garden"},
		{"empty args", []string{}, ""},
		{"blank args", []string{"  ", "  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSearchQuery(tt.args)
			if got != tt.expected {
				t.Errorf("buildSearchQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		defaultPath string
		want        string
	}{
		{"no config flag", []string{"-k", "5", "1"}, "/default.yaml", "/default.yaml"},
		{"-config present", []string{"-config", "/custom.yaml", "1"}, "/default.yaml", "/custom.yaml"},
		{"--config present", []string{"--config", "/other.yaml"}, "/default.yaml", "/other.yaml"},
		{"config at end", []string{"1", "-config", "/end.yaml"}, "/default.yaml", "/end.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := configPathFromArgs(tt.args, tt.defaultPath)
			if got != tt.want {
				t.Errorf("configPathFromArgs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDefaultTopKFromConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
recommend:
  default_top_k: 7
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	if got := defaultTopKFromConfig(configPath); got != 7 {
		t.Errorf("defaultTopKFromConfig() = %d, want 7", got)
	}
	if got := defaultTopKFromConfig(filepath.Join(dir, "nonexistent.yaml")); got != 4 {
		t.Errorf("defaultTopKFromConfig(nonexistent) = %d, want 4", got)
	}
}

func TestLoadConfig_prefersCwdConfigWhenDefaultPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
debug: true
server:
  host: "localhost"
  port: 8080
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while configPath from t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s (canon %s), want %s (canon %s)", resolved, resolvedCanon, configPath, configPathCanon)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_usesExplicitPath(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: "127.0.0.1"
  port: 9000
storage:
  database_path: "test.db"
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if resolved != configPath {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg, err := config.Default()
	if err != nil {
		t.Fatal(err)
	}
	cfg.Storage.DatabasePath = filepath.Join(dir, "shiori.db")
	cfg.Storage.BleveIndexPath = filepath.Join(dir, "bleve")
	cfg.Catalog.Path = ""
	return cfg
}

func newComponents(t *testing.T, cfg *config.Config) *Components {
	t.Helper()
	c, err := initializeComponents(cfg, zap.NewNop(), false, true)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func newTestComponents(t *testing.T) (*config.Config, *Components) {
	t.Helper()
	cfg := testConfig(t)
	c := newComponents(t, cfg)
	if err := bootstrapCatalog(context.Background(), cfg, c, zap.NewNop(), false); err != nil {
		t.Fatal(err)
	}
	return cfg, c
}

func writeCatalog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

const harborCatalog = `
books:
  - id: a
    title: Harbor Lights
    author: Ann Lee
    year: 2001
    genres: [Fiction]
  - id: b
    title: Night Harbor
    author: Ben Ray
    year: 2003
    genres: [Mystery]
`

func TestBootstrapCatalog_seedsSample(t *testing.T) {
	_, c := newTestComponents(t)
	if c.Engine.Count() != 5 {
		t.Fatalf("Count() = %d, want 5", c.Engine.Count())
	}
	n, err := c.Storage.CountBooks(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 5 {
		t.Errorf("CountBooks() = %d, want 5", n)
	}
}

func TestBootstrapCatalog_reloadOnlyWhenSeedDisabled(t *testing.T) {
	cfg := testConfig(t)
	seed := false
	cfg.Catalog.SeedSample = &seed
	c := newComponents(t, cfg)
	ctx := context.Background()

	if err := bootstrapCatalog(ctx, cfg, c, zap.NewNop(), false); err != nil {
		t.Fatal(err)
	}
	if c.Engine.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", c.Engine.Count())
	}

	if err := c.Storage.CreateBook(ctx, &models.Book{ID: "x", Title: "Stored"}); err != nil {
		t.Fatal(err)
	}
	if err := bootstrapCatalog(ctx, cfg, c, zap.NewNop(), false); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Engine.Get("x"); !ok || c.Engine.Count() != 1 {
		t.Errorf("snapshot should hold the stored book only, got %d books", c.Engine.Count())
	}
}

func TestBootstrapCatalog_importsConfiguredFileIntoEmptyStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = writeCatalog(t, t.TempDir(), "books.yaml", harborCatalog)
	c := newComponents(t, cfg)

	if err := bootstrapCatalog(context.Background(), cfg, c, zap.NewNop(), false); err != nil {
		t.Fatal(err)
	}
	if c.Engine.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Engine.Count())
	}
	if _, ok := c.Engine.Get("b"); !ok {
		t.Error("book b should be loaded")
	}
}

func TestBootstrapCatalog_readPathKeepsStoredBooks(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t)
	cfg.Catalog.Path = writeCatalog(t, dir, "books.yaml", harborCatalog)
	extra := writeCatalog(t, dir, "extra.yaml", `
- id: c
  title: Harbor Winter
  genres: [Drama]
`)
	ctx := context.Background()

	first, err := initializeComponents(cfg, zap.NewNop(), false, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := bootstrapCatalog(ctx, cfg, first, zap.NewNop(), true); err != nil {
		first.Close()
		t.Fatal(err)
	}
	if _, err := first.Indexer.Import(ctx, extra, false); err != nil {
		first.Close()
		t.Fatal(err)
	}
	if _, err := first.Indexer.AddBook(ctx, &models.BookInput{ID: "d", Title: "Added Over HTTP"}); err != nil {
		first.Close()
		t.Fatal(err)
	}
	first.Close()

	// A later one-shot command opens the same database.
	c := newComponents(t, cfg)
	if err := bootstrapCatalog(ctx, cfg, c, zap.NewNop(), false); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c", "d"} {
		if _, err := c.Storage.GetBook(ctx, id); err != nil {
			t.Errorf("GetBook(%q): %v", id, err)
		}
		if _, ok := c.Engine.Get(id); !ok {
			t.Errorf("snapshot is missing book %q", id)
		}
	}
}

func TestBootstrapCatalog_serverReplacesStoredBooks(t *testing.T) {
	cfg := testConfig(t)
	cfg.Catalog.Path = writeCatalog(t, t.TempDir(), "books.yaml", harborCatalog)
	c := newComponents(t, cfg)
	ctx := context.Background()

	if err := c.Storage.CreateBook(ctx, &models.Book{ID: "stale", Title: "Stale"}); err != nil {
		t.Fatal(err)
	}
	if err := bootstrapCatalog(ctx, cfg, c, zap.NewNop(), true); err != nil {
		t.Fatal(err)
	}
	if c.Engine.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", c.Engine.Count())
	}
	if _, err := c.Storage.GetBook(ctx, "stale"); err == nil {
		t.Error("stale book should be replaced by the catalog file")
	}
}

func TestHTTPClient(t *testing.T) {
	cfg, c := newTestComponents(t)
	srv := server.NewServer(c.Engine, c.Indexer, c.Storage, cfg, zap.NewNop())
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	t.Run("search", func(t *testing.T) {
		resp, err := searchViaHTTP(ts.URL, &models.SearchQuery{Query: "garden"})
		if err != nil {
			t.Fatal(err)
		}
		if resp.Total != 2 {
			t.Errorf("Total = %d, want 2", resp.Total)
		}
	})

	t.Run("recommend", func(t *testing.T) {
		base, resp, err := recommendViaHTTP(ts.URL, "1", 2)
		if err != nil {
			t.Fatal(err)
		}
		if base == nil || base.ID != "1" {
			t.Fatalf("base = %+v, want book 1", base)
		}
		if len(resp.Recommendations) != 2 {
			t.Fatalf("len(Recommendations) = %d, want 2", len(resp.Recommendations))
		}
		if resp.Recommendations[0].Book.ID != "5" {
			t.Errorf("first recommendation = %s, want 5", resp.Recommendations[0].Book.ID)
		}
	})

	t.Run("recommend unknown book", func(t *testing.T) {
		base, resp, err := recommendViaHTTP(ts.URL, "999", 2)
		if err != nil {
			t.Fatal(err)
		}
		if base != nil {
			t.Errorf("base = %+v, want nil", base)
		}
		if len(resp.Recommendations) != 0 {
			t.Errorf("len(Recommendations) = %d, want 0", len(resp.Recommendations))
		}
	})

	t.Run("status", func(t *testing.T) {
		status, err := statusViaHTTP(ts.URL)
		if err != nil {
			t.Fatal(err)
		}
		if status.Books != 5 || status.SnapshotBooks != 5 {
			t.Errorf("status = %+v, want 5 books", status)
		}
		if status.Config == nil || status.Config.DefaultTopK != 4 {
			t.Errorf("status config = %+v, want default_top_k 4", status.Config)
		}
	})

	t.Run("server error", func(t *testing.T) {
		_, err := searchViaHTTP(ts.URL, &models.SearchQuery{Mode: "semantic"})
		if err == nil {
			t.Error("expected error for unknown mode")
		}
	})
}
