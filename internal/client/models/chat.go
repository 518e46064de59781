package models

import "time"

// Source is a retrieved document fragment cited by an answer.
type Source struct {
	ID      string  `json:"id"`
	Source  string  `json:"source"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// ChatAnswer is the server's reply to a chat query.
type ChatAnswer struct {
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	LatencyMS  int64     `json:"latency_ms"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryItem is one stored question/answer pair from the user's history.
type HistoryItem struct {
	ID           int64     `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	IsBookmarked bool      `json:"is_bookmarked"`
	CreatedAt    time.Time `json:"created_at"`
}

// IndexStats describes the server-side retrieval index (admin only).
type IndexStats struct {
	DocCount       int64      `json:"doc_count"`
	IndexSizeMB    float64    `json:"index_size_mb"`
	LastUpdated    *time.Time `json:"last_updated"`
	EmbeddingModel string     `json:"embedding_model"`
	TopK           int        `json:"top_k"`
}
