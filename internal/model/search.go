package model

// SearchHit is a transient similarity-search result. Score is a cosine
// similarity, higher means more similar.
type SearchHit struct {
	Score   float32 `json:"score"`
	ID      string  `json:"id"`
	Title   string  `json:"title,omitempty"`
	Content string  `json:"content"`
}
