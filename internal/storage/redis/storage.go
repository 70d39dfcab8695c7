package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/wordbattle/internal/model"
	"github.com/mcoot/wordbattle/internal/storage"
)

// maxTxAttempts bounds optimistic retries when a watched key changes mid-update
const maxTxAttempts = 3

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ListWords(ctx context.Context) ([]*model.Word, error) {
	members, err := s.client.SMembers(ctx, wordIndexKey()).Result()
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []*model.Word{}, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = wordKey(m)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	words := make([]*model.Word, 0, len(values))
	for _, v := range values {
		// Index entries whose record vanished are skipped
		str, ok := v.(string)
		if !ok {
			continue
		}
		var w model.Word
		if err := json.Unmarshal([]byte(str), &w); err != nil {
			return nil, err
		}
		words = append(words, &w)
	}
	return words, nil
}

func (s *Storage) GetWord(ctx context.Context, word string) (*model.Word, error) {
	data, err := s.client.Get(ctx, wordKey(word)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrWordNotFound
		}
		return nil, err
	}

	var w model.Word
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *Storage) AddWord(ctx context.Context, word *model.Word) error {
	data, err := json.Marshal(word)
	if err != nil {
		return err
	}

	created, err := s.client.SetNX(ctx, wordKey(word.Word), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrWordExists
	}
	return s.client.SAdd(ctx, wordIndexKey(), word.Word).Err()
}

// SetWordImage rewrites the word record under WATCH so a concurrent delete
// aborts the update instead of being undone by it
func (s *Storage) SetWordImage(ctx context.Context, word, image string) error {
	key := wordKey(word)
	update := func(tx *redis.Tx) error {
		member, err := tx.SIsMember(ctx, wordIndexKey(), word).Result()
		if err != nil {
			return err
		}
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) || (err == nil && !member) {
			return model.ErrWordNotFound
		}
		if err != nil {
			return err
		}

		var w model.Word
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		w.Image = image
		updated, err := json.Marshal(&w)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetXX(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	for range maxTxAttempts {
		err := s.client.Watch(ctx, update, key, wordIndexKey())
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("set image for %q: %w", word, redis.TxFailedErr)
}

func (s *Storage) DeleteWord(ctx context.Context, word string) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, wordKey(word))
	pipe.SRem(ctx, wordIndexKey(), word)
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return model.ErrWordNotFound
	}
	return nil
}

func (s *Storage) CountWords(ctx context.Context) (int, error) {
	n, err := s.client.SCard(ctx, wordIndexKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Storage) SaveWords(ctx context.Context, words []*model.Word) error {
	if len(words) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	members := make([]interface{}, len(words))
	for i, w := range words {
		data, err := json.Marshal(w)
		if err != nil {
			return err
		}
		pipe.Set(ctx, wordKey(w.Word), data, 0)
		members[i] = w.Word
	}
	pipe.SAdd(ctx, wordIndexKey(), members...)

	_, err := pipe.Exec(ctx)
	return err
}
