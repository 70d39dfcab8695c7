package words

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/wordbattle/internal/dependencies/clock"
	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/storage"
)

// MaxWordLength is the longest accepted library entry
const MaxWordLength = 40

var validWord = regexp.MustCompile(`^[a-z](?:[a-z' -]*[a-z])?$`)

// ImageFetcher resolves an image URL for a word
type ImageFetcher interface {
	Enabled() bool
	Fetch(ctx context.Context, word string) (string, error)
}

// ImageNotifier receives the outcome of each background image resolution
type ImageNotifier func(result model.ImageResult)

// Service manages the word library
type Service struct {
	storage      storage.Storage
	fetcher      ImageFetcher
	clock        clock.Clock
	logger       *slog.Logger
	imageTimeout time.Duration

	mu     sync.RWMutex
	notify ImageNotifier

	// In-flight image resolutions
	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new word library Service. fetcher may be nil.
func New(storage storage.Storage, fetcher ImageFetcher, clock clock.Clock, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		storage:      storage,
		fetcher:      fetcher,
		clock:        clock,
		logger:       logger.With(slog.String("component", "words")),
		imageTimeout: 15 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetImageNotifier registers the callback for image resolution outcomes
func (s *Service) SetImageNotifier(fn ImageNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Normalize trims, lowercases and validates a raw word
func Normalize(raw string) (string, error) {
	word := strings.ToLower(strings.Join(strings.Fields(raw), " "))
	if word == "" || len(word) > MaxWordLength || !validWord.MatchString(word) {
		return "", model.ErrInvalidWord
	}
	return word, nil
}

// List returns all library entries sorted alphabetically
func (s *Service) List(ctx context.Context) ([]*model.Word, error) {
	words, err := s.storage.ListWords(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(words, func(i, j int) bool { return words[i].Word < words[j].Word })
	return words, nil
}

// Words returns the bare word strings of the library, sorted
func (s *Service) Words(ctx context.Context) ([]string, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Word
	}
	return out, nil
}

// Images maps each word that has a resolved image to its URL
func (s *Service) Images(ctx context.Context) (map[string]string, error) {
	entries, err := s.storage.ListWords(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.Image != "" {
			out[e.Word] = e.Image
		}
	}
	return out, nil
}

// Add stores a new word and resolves its image in the background.
// It returns as soon as the word is stored.
func (s *Service) Add(ctx context.Context, raw string) (*model.Word, error) {
	word, err := Normalize(raw)
	if err != nil {
		return nil, err
	}

	entry := &model.Word{Word: word, AddedAt: s.clock.Now()}
	if err := s.storage.AddWord(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("word added", slog.String("word", word))

	if s.fetcher != nil && s.fetcher.Enabled() {
		s.wg.Add(1)
		go s.resolveImage(word)
	}
	return entry, nil
}

// Delete removes a word from the library
func (s *Service) Delete(ctx context.Context, raw string) error {
	word, err := Normalize(raw)
	if err != nil {
		return model.ErrWordNotFound
	}
	if err := s.storage.DeleteWord(ctx, word); err != nil {
		return err
	}
	s.logger.Info("word deleted", slog.String("word", word))
	return nil
}

// LoadWords stores a slice of words, skipping invalid entries (useful for testing)
func (s *Service) LoadWords(ctx context.Context, words []string) error {
	entries := make([]*model.Word, 0, len(words))
	for _, raw := range words {
		word, err := Normalize(raw)
		if err != nil {
			continue
		}
		entries = append(entries, &model.Word{Word: word, AddedAt: s.clock.Now()})
	}
	return s.storage.SaveWords(ctx, entries)
}

// Seed loads the word file into storage when the library is empty.
// It returns the number of words stored; a non-empty library is left untouched.
func (s *Service) Seed(ctx context.Context, path string) (int, error) {
	count, err := s.storage.CountWords(ctx)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	entries, err := readSeedFile(path)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	words := make([]*model.Word, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		word, err := Normalize(e.Word)
		if err != nil {
			s.logger.Warn("skipping invalid seed word", slog.String("word", e.Word))
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, &model.Word{Word: word, Image: e.Image, AddedAt: now})
	}

	if err := s.storage.SaveWords(ctx, words); err != nil {
		return 0, err
	}
	s.logger.Info("word library seeded",
		slog.String("path", path),
		slog.Int("words", len(words)))
	return len(words), nil
}

// Wait blocks until all in-flight image resolutions have finished
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close cancels in-flight image resolutions and waits for them
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) resolveImage(word string) {
	defer s.wg.Done()

	ctx, cancel := context.WithTimeout(s.ctx, s.imageTimeout)
	defer cancel()

	result := model.ImageResult{Word: word}
	image, err := s.fetcher.Fetch(ctx, word)
	if err == nil {
		err = s.attachImage(ctx, word, image)
	}

	switch {
	case err == nil:
		result.Success = true
		result.Message = "downloaded"
	case errors.Is(err, model.ErrWordNotFound):
		// Deleted while resolving
		return
	case errors.Is(err, model.ErrImageNotFound):
		result.Message = "not found"
	default:
		result.Message = "download failed"
		s.logger.Warn("image resolution failed",
			slog.String("word", word),
			slog.String("error", err.Error()))
	}

	s.mu.RLock()
	notify := s.notify
	s.mu.RUnlock()
	if notify != nil {
		notify(result)
	}
}

func (s *Service) attachImage(ctx context.Context, word, image string) error {
	return s.storage.SetWordImage(ctx, word, image)
}

// seedEntry is one word in a seed file; YAML accepts a bare string or {word, image}
type seedEntry struct {
	Word  string `yaml:"word"`
	Image string `yaml:"image"`
}

// UnmarshalYAML accepts both scalar and mapping forms
func (e *seedEntry) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		e.Word = value.Value
		return nil
	}
	type plain seedEntry
	return value.Decode((*plain)(e))
}

func readSeedFile(path string) ([]seedEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = file.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var entries []seedEntry
		if err := yaml.NewDecoder(file).Decode(&entries); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return entries, nil
	default:
		var entries []seedEntry
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			entries = append(entries, seedEntry{Word: line})
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return entries, nil
	}
}
