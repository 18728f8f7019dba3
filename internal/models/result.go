package models

// SearchResult is a single search hit. Score is zero for substring matches.
type SearchResult struct {
	Book  *Book   `json:"book"`
	Score float64 `json:"score,omitempty"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Query     string          `json:"query"`
	Category  string          `json:"category,omitempty"`
	Mode      SearchMode      `json:"mode"`
	QueryTime int64           `json:"query_time_ms"`
}

// Recommendation is a recommended book with its cosine similarity to the base book.
type Recommendation struct {
	Book  *Book   `json:"book"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// RecommendResponse is the response for a recommendation request.
// Recommendations is empty (not an error) when the base book is unknown.
type RecommendResponse struct {
	BaseID          string            `json:"base_id"`
	Recommendations []*Recommendation `json:"recommendations"`
	QueryTime       int64             `json:"query_time_ms"`
}
