package kv

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"li-post-bot/internal/domain"
)

// Redis реализует сессионную область KV-хранилища: значения живут по TTL
// и не обязаны переживать перезапуск инфраструктуры.
type Redis struct {
	client *redis.Client
	prefix string
}

var _ domain.KVStore = (*Redis)(nil)

// NewRedis создаёт сессионное хранилище.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

// Get возвращает значение ключа.
func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// Set задаёт значение без срока жизни.
func (r *Redis) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.key(key), value, 0).Err()
}

// SetTTL задаёт значение со сроком жизни.
func (r *Redis) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

// Remove удаляет ключ.
func (r *Redis) Remove(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}
