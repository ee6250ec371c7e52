package domain

import "errors"

var (
	// ErrValidation marks a rejected request; nothing was mutated.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an item or message absent for the given user.
	ErrNotFound = errors.New("not found")
	// ErrUpstream marks a failing mailbox, AI or vector collaborator.
	ErrUpstream = errors.New("upstream unavailable")
	// ErrEmbeddingNotPersisted is returned when the vector store did not
	// confirm an embedding write; the item is left unflagged.
	ErrEmbeddingNotPersisted = errors.New("failed to persist embedding")
)

// BatchResult summarizes a batch where single failures are skipped.
type BatchResult struct {
	Succeeded int `json:"success"`
	Failed    int `json:"failed"`
}

func (r BatchResult) Total() int {
	return r.Succeeded + r.Failed
}
