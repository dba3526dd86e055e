package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/example/ephemeral-chat/domain/room"
)

const redisKeyPrefix = "room:"

// RedisStore keeps room records as JSON values in Redis. Version-checked
// writes run inside WATCH/MULTI transactions so a concurrent writer aborts
// the exec instead of being overwritten.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(id string) string {
	return redisKeyPrefix + id
}

// Create stores a new record with SETNX semantics.
func (s *RedisStore) Create(ctx context.Context, rec *room.Room) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(rec.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("store room: %w", err)
	}
	if !ok {
		return ErrAlreadyExists
	}
	return nil
}

// Get returns the stored record.
func (s *RedisStore) Get(ctx context.Context, id string) (*room.Room, error) {
	data, err := s.client.Get(ctx, redisKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, room.ErrNotFound
		}
		return nil, fmt.Errorf("get room: %w", err)
	}

	var rec room.Room
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	return &rec, nil
}

// Update replaces the record inside a WATCH transaction guarded by the
// embedded version counter.
func (s *RedisStore) Update(ctx context.Context, rec *room.Room, expectedVersion int64) error {
	key := redisKey(rec.ID)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return room.ErrNotFound
			}
			return err
		}

		var stored room.Room
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("unmarshal room: %w", err)
		}
		if stored.Version != expectedVersion {
			return room.ErrConflict
		}

		next, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal room: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txn, key)
	if err == redis.TxFailedErr {
		// The key changed between WATCH and EXEC.
		return room.ErrConflict
	}
	return err
}

// CompareAndDelete removes the record inside a WATCH transaction guarded by
// the embedded version counter.
func (s *RedisStore) CompareAndDelete(ctx context.Context, id string, expectedVersion int64) error {
	key := redisKey(id)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return nil
			}
			return err
		}

		var stored room.Room
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("unmarshal room: %w", err)
		}
		if stored.Version != expectedVersion {
			return room.ErrConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txn, key)
	if err == redis.TxFailedErr {
		return room.ErrConflict
	}
	return err
}

// Delete removes the record unconditionally.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

// IDs scans for every stored room id.
func (s *RedisStore) IDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan rooms: %w", err)
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, redisKeyPrefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
