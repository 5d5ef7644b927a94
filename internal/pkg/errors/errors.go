package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal")

	// Pipeline errors. Embedding and completion failures abort the request;
	// a store query failure aborts only when strict context is enabled.
	ErrEmbedding  = errors.New("embedding failed")
	ErrCompletion = errors.New("completion failed")
	ErrStoreQuery = errors.New("store query failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsEmbedding(err error) bool {
	return errors.Is(err, ErrEmbedding)
}

func IsCompletion(err error) bool {
	return errors.Is(err, ErrCompletion)
}
