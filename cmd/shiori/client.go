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
	"strconv"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/storage"
)

var errBookNotFound = errors.New("book not found")

func searchViaHTTP(serverURL string, query *models.SearchQuery) (*models.SearchResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}
	resp, err := http.Post(serverURL+"/api/v1/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var response models.SearchResponse
	if err := decodeResponse(resp, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// recommendViaHTTP fetches the base book and its recommendations. The base is nil
// when the server does not know the id.
func recommendViaHTTP(serverURL, id string, k int) (*models.Book, *models.RecommendResponse, error) {
	base, err := getBookViaHTTP(serverURL, id)
	if err != nil && !errors.Is(err, errBookNotFound) {
		return nil, nil, err
	}
	endpoint := serverURL + "/api/v1/books/" + url.PathEscape(id) + "/recommendations?k=" + strconv.Itoa(k)
	resp, err := http.Get(endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var response models.RecommendResponse
	if err := decodeResponse(resp, &response); err != nil {
		return nil, nil, err
	}
	return base, &response, nil
}

func getBookViaHTTP(serverURL, id string) (*models.Book, error) {
	resp, err := http.Get(serverURL + "/api/v1/books/" + url.PathEscape(id))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, errBookNotFound
	}
	var book models.Book
	if err := decodeResponse(resp, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

func decodeResponse(resp *http.Response, v interface{}) error {
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusConfigResponse holds configuration info returned by status.
type statusConfigResponse struct {
	DatabasePath   string `json:"database_path,omitempty"`
	BleveIndexPath string `json:"bleve_index_path,omitempty"`
	CatalogPath    string `json:"catalog_path,omitempty"`
	CatalogWatch   bool   `json:"catalog_watch"`
	DefaultTopK    int    `json:"default_top_k"`
	CacheEnabled   bool   `json:"cache_enabled"`
	DefaultMode    string `json:"default_mode"`
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Books          int64                 `json:"books"`
	SnapshotBooks  int                   `json:"snapshot_books"`
	Genres         int                   `json:"genres"`
	DiskUsageBytes *int64                `json:"disk_usage_bytes,omitempty"`
	Config         *statusConfigResponse `json:"config,omitempty"`
}

func statusViaHTTP(serverURL string) (*statusResponse, error) {
	resp, err := http.Get(serverURL + "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	var status statusResponse
	if err := decodeResponse(resp, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", "", "server URL (empty = read storage directly)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	var status statusResponse
	if *serverURL != "" {
		res, err := statusViaHTTP(*serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		status = *res
	} else {
		env := openCommandEnv(*configPath)
		defer env.Close()
		count, err := env.components.Storage.CountBooks(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count books failed: %v\n", err)
			os.Exit(1)
		}
		cfg := env.cfg
		status = statusResponse{
			Books:         count,
			SnapshotBooks: env.components.Engine.Count(),
			Genres:        len(env.components.Engine.Genres()) - 1,
			Config: &statusConfigResponse{
				DatabasePath:   cfg.Storage.DatabasePath,
				BleveIndexPath: cfg.Storage.BleveIndexPath,
				CatalogPath:    cfg.Catalog.Path,
				CatalogWatch:   cfg.Catalog.Watch,
				DefaultTopK:    cfg.Recommend.DefaultTopK,
				CacheEnabled:   cfg.Recommend.CacheEnabled,
				DefaultMode:    cfg.Search.DefaultMode,
			},
		}
		if diskBytes, err := storage.DiskUsageBytes(cfg.Storage.DatabasePath, cfg.Storage.BleveIndexPath); err == nil {
			status.DiskUsageBytes = &diskBytes
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("books:              %d   # books in storage\n", status.Books)
		fmt.Printf("snapshot_books:     %d   # books served by search and recommend\n", status.SnapshotBooks)
		fmt.Printf("genres:             %d\n", status.Genres)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d   # storage + indices on disk\n", *status.DiskUsageBytes)
		}
		if status.Config != nil {
			fmt.Println()
			fmt.Println("# configuration")
			if status.Config.DatabasePath != "" {
				fmt.Printf("database_path:      %s\n", status.Config.DatabasePath)
			}
			if status.Config.BleveIndexPath != "" {
				fmt.Printf("bleve_index_path:   %s\n", status.Config.BleveIndexPath)
			}
			if status.Config.CatalogPath != "" {
				fmt.Printf("catalog_path:       %s\n", status.Config.CatalogPath)
				fmt.Printf("catalog_watch:      %t\n", status.Config.CatalogWatch)
			}
			fmt.Printf("default_top_k:      %d\n", status.Config.DefaultTopK)
			fmt.Printf("cache_enabled:      %t\n", status.Config.CacheEnabled)
			fmt.Printf("default_mode:       %s\n", status.Config.DefaultMode)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}
