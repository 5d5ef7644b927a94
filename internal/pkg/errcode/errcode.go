package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrInternal
	ErrEmbeddingFailed
	ErrCompletionFailed
	ErrStoreQueryFailed
	ErrAIUnavailable
	ErrLoadFailed
	ErrTooMany
)
