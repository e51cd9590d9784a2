package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCredentialStore keeps the session record in Redis. Used for shared
// kiosk deployments where several storefront processes serve one login.
type RedisCredentialStore struct {
	client *redis.Client
	key    string
}

// NewRedisCredentialStore builds a Redis-backed credential store. key is the
// Redis key holding the serialized record, typically scoped per profile.
func NewRedisCredentialStore(addr, password, key string) *RedisCredentialStore {
	return &RedisCredentialStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		key: key,
	}
}

func (s *RedisCredentialStore) Load() (Record, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("load session record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return Record{}, false, fmt.Errorf("parse session record: %w", err)
	}
	return rec, true, nil
}

func (s *RedisCredentialStore) Save(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("save session record: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.client.Del(ctx, s.key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("clear session record: %w", err)
	}
	return nil
}
