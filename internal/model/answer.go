package model

import "time"

// Answer is the result of one pipeline invocation.
type Answer struct {
	Text    string        `json:"text"`
	Cached  bool          `json:"cached"`
	Elapsed time.Duration `json:"elapsed"`
}
