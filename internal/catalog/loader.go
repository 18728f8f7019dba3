package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hyperjump/shiori/internal/extract"
	"github.com/hyperjump/shiori/internal/models"
)

// Loader reads catalog files (.yaml, .yml, .json, .xlsx).
type Loader struct {
	extractor *extract.Extractor
	logger    *zap.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithExtractor fills Content for books that name a content_path.
func WithExtractor(e *extract.Extractor) LoaderOption {
	return func(l *Loader) { l.extractor = e }
}

// WithLogger sets a logger for debug output.
func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) { l.logger = logger }
}

// NewLoader creates a Loader.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsCatalogFile reports whether path has a supported catalog extension.
func IsCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", ".xlsx":
		return true
	}
	return false
}

// Load reads and validates the catalog at path. Content paths are resolved
// relative to the catalog file's directory.
func (l *Loader) Load(path string) ([]models.Book, error) {
	var (
		books []models.Book
		err   error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		books, err = loadYAML(path)
	case ".json":
		books, err = loadJSON(path)
	case ".xlsx":
		books, err = loadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (supported: .yaml, .yml, .json, .xlsx)", ext)
	}
	if err != nil {
		return nil, err
	}
	if err := Validate(books); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", filepath.Base(path), err)
	}
	if err := l.fillContent(books, filepath.Dir(path)); err != nil {
		return nil, err
	}
	if l.logger != nil {
		l.logger.Debug("catalog loaded", zap.String("path", path), zap.Int("books", len(books)))
	}
	return books, nil
}

func (l *Loader) fillContent(books []models.Book, dir string) error {
	for i := range books {
		p := books[i].ContentPath
		if p == "" || l.extractor == nil {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		text, err := l.extractor.Extract(p)
		if err != nil {
			return fmt.Errorf("book %q: content: %w", books[i].ID, err)
		}
		books[i].Content = text
	}
	return nil
}

// bookID accepts both string and numeric IDs in catalog files.
type bookID string

func (id *bookID) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: id must be a scalar", node.Line)
	}
	*id = bookID(strings.TrimSpace(node.Value))
	return nil
}

func (id *bookID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = bookID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = bookID(n.String())
	return nil
}

type fileBook struct {
	ID          bookID   `yaml:"id" json:"id"`
	Title       string   `yaml:"title" json:"title"`
	Author      string   `yaml:"author" json:"author"`
	Year        int      `yaml:"year" json:"year"`
	Genres      []string `yaml:"genres" json:"genres"`
	Tags        []string `yaml:"tags" json:"tags"`
	Description string   `yaml:"description" json:"description"`
	Content     string   `yaml:"content" json:"content"`
	ContentPath string   `yaml:"content_path" json:"content_path"`
}

func (f fileBook) book() models.Book {
	return models.Book{
		ID:          string(f.ID),
		Title:       f.Title,
		Author:      f.Author,
		Year:        f.Year,
		Genres:      f.Genres,
		Tags:        f.Tags,
		Description: f.Description,
		Content:     f.Content,
		ContentPath: f.ContentPath,
	}
}

type fileCatalog struct {
	Books []fileBook `yaml:"books" json:"books"`
}

func toBooks(in []fileBook) []models.Book {
	out := make([]models.Book, len(in))
	for i := range in {
		out[i] = in[i].book()
	}
	return out
}

// loadYAML accepts either a top-level list of books or a mapping with a books key.
func loadYAML(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return []models.Book{}, nil
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var list []fileBook
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		return toBooks(list), nil
	case yaml.MappingNode:
		var fc fileCatalog
		if err := root.Decode(&fc); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		return toBooks(fc.Books), nil
	default:
		return nil, fmt.Errorf("failed to parse catalog: expected a list of books or a books mapping")
	}
}

func loadJSON(path string) ([]models.Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []models.Book{}, nil
	}
	if data[0] == '[' {
		var list []fileBook
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("failed to parse catalog: %w", err)
		}
		return toBooks(list), nil
	}
	var fc fileCatalog
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return toBooks(fc.Books), nil
}

// XLSXColumns is the header row written by WriteXLSX and understood by Load.
var XLSXColumns = []string{"id", "title", "author", "year", "genres", "tags", "description", "content_path"}

// loadXLSX reads the first sheet. The first row is a header naming the columns in
// XLSXColumns (any order, case-insensitive); genres and tags cells are split on ';' or ','.
func loadXLSX(path string) ([]models.Book, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.Book{}, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return []models.Book{}, nil
	}

	col := make(map[string]int)
	for i, name := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["title"]; !ok {
		return nil, fmt.Errorf("sheet %q: header row must contain a title column", sheets[0])
	}
	cell := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	books := make([]models.Book, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		b := models.Book{
			ID:          cell(row, "id"),
			Title:       cell(row, "title"),
			Author:      cell(row, "author"),
			Genres:      splitList(cell(row, "genres")),
			Tags:        splitList(cell(row, "tags")),
			Description: cell(row, "description"),
			ContentPath: cell(row, "content_path"),
		}
		if y := cell(row, "year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				return nil, fmt.Errorf("sheet %q row %d: invalid year %q", sheets[0], n+2, y)
			}
			b.Year = year
		}
		books = append(books, b)
	}
	return books, nil
}

// WriteXLSX writes books to path in the layout loadXLSX reads.
func WriteXLSX(path string, books []models.Book) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &XLSXColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, b := range books {
		row := []interface{}{
			b.ID, b.Title, b.Author, b.Year,
			strings.Join(b.Genres, "; "), strings.Join(b.Tags, "; "),
			b.Description, b.ContentPath,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
