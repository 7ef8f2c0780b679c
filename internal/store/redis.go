package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"velo/internal/model"
)

// RedisConfig selects the server and key namespace for RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStore keeps records as plain string values:
//
//	<prefix>:index
//	<prefix>:cp:<doc>:<tab>
//	<prefix>:tabs:<doc>   set of tab ids with a stored checkpoint
//	<prefix>:img:<id>
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.Prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "velo"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) indexKey() string { return s.prefix + ":index" }

func (s *RedisStore) cpKey(doc, tab uuid.UUID) string {
	return fmt.Sprintf("%s:cp:%s:%s", s.prefix, doc, tab)
}

func (s *RedisStore) tabsKey(doc uuid.UUID) string {
	return fmt.Sprintf("%s:tabs:%s", s.prefix, doc)
}

func (s *RedisStore) imageKey(id uuid.UUID) string {
	return fmt.Sprintf("%s:img:%s", s.prefix, id)
}

func (s *RedisStore) SaveCheckpoint(ctx context.Context, doc, tab uuid.UUID, cp *model.Checkpoint) error {
	data, err := EncodeCheckpoint(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.cpKey(doc, tab), data, 0)
		pipe.SAdd(ctx, s.tabsKey(doc), tab.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save checkpoint: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadCheckpoint(ctx context.Context, doc, tab uuid.UUID) (*model.Checkpoint, error) {
	data, err := s.get(ctx, s.cpKey(doc, tab))
	if err != nil {
		return nil, err
	}
	return DecodeCheckpoint(data)
}

func (s *RedisStore) SaveIndex(ctx context.Context, idx Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := s.client.Set(ctx, s.indexKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("redis save index: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadIndex(ctx context.Context) (Index, error) {
	data, err := s.get(ctx, s.indexKey())
	if err != nil {
		return Index{}, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return Index{}, fmt.Errorf("parse index: %w", err)
	}
	return idx, nil
}

func (s *RedisStore) SaveImage(ctx context.Context, id uuid.UUID, png []byte) error {
	if err := s.client.Set(ctx, s.imageKey(id), png, 0).Err(); err != nil {
		return fmt.Errorf("redis save image: %w", err)
	}
	return nil
}

func (s *RedisStore) LoadImage(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return s.get(ctx, s.imageKey(id))
}

func (s *RedisStore) DeleteTab(ctx context.Context, doc, tab uuid.UUID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.cpKey(doc, tab))
		pipe.SRem(ctx, s.tabsKey(doc), tab.String())
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete tab: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteDocument(ctx context.Context, doc uuid.UUID) error {
	tabs, err := s.client.SMembers(ctx, s.tabsKey(doc)).Result()
	if err != nil {
		return fmt.Errorf("redis list tabs: %w", err)
	}
	keys := []string{s.tabsKey(doc)}
	for _, t := range tabs {
		id, err := uuid.Parse(t)
		if err != nil {
			continue
		}
		keys = append(keys, s.cpKey(doc, id))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete document: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error { return s.client.Close() }

func (s *RedisStore) get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

var _ Store = (*RedisStore)(nil)
