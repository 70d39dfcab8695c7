package storage

import (
	"context"

	"github.com/mcoot/wordbattle/internal/model"
)

// Storage defines persistence for the word library.
// Players, rooms and sessions are process-local and never stored.
type Storage interface {
	ListWords(ctx context.Context) ([]*model.Word, error)
	GetWord(ctx context.Context, word string) (*model.Word, error)
	// AddWord stores a new word, failing with model.ErrWordExists on duplicates
	AddWord(ctx context.Context, word *model.Word) error
	// SetWordImage updates the image of an existing word in one atomic step,
	// failing with model.ErrWordNotFound if the word is gone. It never creates a word.
	SetWordImage(ctx context.Context, word, image string) error
	DeleteWord(ctx context.Context, word string) error
	CountWords(ctx context.Context) (int, error)
	// SaveWords stores a batch of words, overwriting existing entries
	SaveWords(ctx context.Context, words []*model.Word) error
}
