package model

// CachedExchange is one prior prompt/completion pair in the semantic cache.
// Entries are append-only and never mutated; lookup re-ranks by embedding
// similarity at read time, so near-duplicate prompts may coexist.
type CachedExchange struct {
	ID               string    `json:"id"`
	Prompt           string    `json:"prompt"`
	Completion       string    `json:"completion"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	Model            string    `json:"model"`
	Embedding        []float32 `json:"-"`
	Ctime            int64     `json:"ctime"`
}
