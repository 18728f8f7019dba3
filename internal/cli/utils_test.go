package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/hyperjump/shiori/internal/models"
)

func sampleBook(id, title string) *models.Book {
	return &models.Book{
		ID:          id,
		Title:       title,
		Author:      "A. Ivanov",
		Genres:      []string{"Fiction"},
		Tags:        []string{"garden", "family"},
		Description: strings.Repeat("long description ", 30),
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteSearchResults_JSON(t *testing.T) {
	response := &models.SearchResponse{
		Query:     "garden",
		Mode:      models.SearchModeSubstring,
		QueryTime: 3,
		Total:     1,
		Results:   []*models.SearchResult{{Rank: 1, Book: sampleBook("1", "The Silent Garden")}},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputJSON); err != nil {
		t.Fatalf("WriteSearchResults(json): %v", err)
	}
	var decoded models.SearchResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Query != "garden" || len(decoded.Results) != 1 || decoded.Results[0].Book.ID != "1" {
		t.Errorf("unexpected decoded response: %+v", decoded)
	}
}

func TestWriteSearchResults_Text(t *testing.T) {
	response := &models.SearchResponse{
		Mode:    models.SearchModeFulltext,
		Total:   1,
		Results: []*models.SearchResult{{Rank: 1, Score: 1.25, Book: sampleBook("1", "The Silent Garden")}},
	}
	var buf bytes.Buffer
	if err := WriteSearchResults(&buf, response, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Found 1 books", "category: all", "Score: 1.2500", "Title: The Silent Garden", "Tags: garden, family", "..."} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteRecommendations(t *testing.T) {
	base := sampleBook("1", "The Silent Garden")
	response := &models.RecommendResponse{
		BaseID: "1",
		Recommendations: []*models.Recommendation{
			{Rank: 1, Score: 0.5, Book: sampleBook("5", "Garden of Echoes")},
		},
	}
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, base, response, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `Books similar to "The Silent Garden"`) || !strings.Contains(buf.String(), "Similarity: 0.5000") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}

	buf.Reset()
	empty := &models.RecommendResponse{BaseID: "x", Recommendations: []*models.Recommendation{}}
	if err := WriteRecommendations(&buf, nil, empty, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `No book with id "x"`) {
		t.Errorf("unexpected output for unknown base:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteRecommendations(&buf, nil, empty, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"recommendations": []`) {
		t.Errorf("JSON should contain an empty list:\n%s", buf.String())
	}
}

func TestWriteBooksAndGenres(t *testing.T) {
	var buf bytes.Buffer
	books := []models.Book{{ID: "1", Title: "Dune", Author: "Herbert", Year: 1965}}
	if err := WriteBooks(&buf, books, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Dune by Herbert (1965)") || !strings.Contains(buf.String(), "1 books") {
		t.Errorf("unexpected listing:\n%s", buf.String())
	}

	buf.Reset()
	if err := WriteGenres(&buf, []string{"all", "Sci-Fi"}, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Genres []string `json:"genres"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Genres) != 2 || out.Genres[0] != "all" {
		t.Errorf("unexpected genres: %v", out.Genres)
	}
}
