package memory

import (
	"context"
	"sync"

	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu    sync.RWMutex
	words map[string]model.Word
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		words: make(map[string]model.Word),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ListWords(ctx context.Context) ([]*model.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words := make([]*model.Word, 0, len(s.words))
	for _, w := range s.words {
		words = append(words, &w)
	}
	return words, nil
}

func (s *Storage) GetWord(ctx context.Context, word string) (*model.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.words[word]
	if !ok {
		return nil, model.ErrWordNotFound
	}
	return &w, nil
}

func (s *Storage) AddWord(ctx context.Context, word *model.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[word.Word]; ok {
		return model.ErrWordExists
	}
	s.words[word.Word] = *word
	return nil
}

func (s *Storage) SetWordImage(ctx context.Context, word, image string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.words[word]
	if !ok {
		return model.ErrWordNotFound
	}
	entry.Image = image
	s.words[word] = entry
	return nil
}

func (s *Storage) DeleteWord(ctx context.Context, word string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.words[word]; !ok {
		return model.ErrWordNotFound
	}
	delete(s.words, word)
	return nil
}

func (s *Storage) CountWords(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.words), nil
}

func (s *Storage) SaveWords(ctx context.Context, words []*model.Word) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range words {
		s.words[w.Word] = *w
	}
	return nil
}
