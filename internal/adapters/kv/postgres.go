package kv

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"li-post-bot/internal/domain"
	"li-post-bot/internal/infra/metrics"
)

// Postgres реализует долговременную область KV-хранилища поверх pgxpool.
// Схема: kv_store(key text primary key, value bytea, expires_at timestamptz null).
// Просроченные записи лениво вычищаются при чтении.
type Postgres struct {
	pool *pgxpool.Pool
}

var _ domain.KVStore = (*Postgres)(nil)

// NewPostgres создаёт долговременное хранилище.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// EnsureSchema создаёт таблицу kv_store, если её ещё нет.
// Вызывается на старте процесса; миграций у сервиса нет.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS kv_store (
    key        text PRIMARY KEY,
    value      bytea NOT NULL,
    expires_at timestamptz
)
`)
	return err
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Get возвращает значение ключа, отбрасывая просроченные записи.
func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	var value []byte
	err := p.pool.QueryRow(ctx, `
SELECT value FROM kv_store
WHERE key = $1 AND (expires_at IS NULL OR expires_at > now())
`, key).Scan(&value)
	metrics.ObserveNetworkRequest("postgres", "kv_get", "kv_store", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set задаёт значение без срока жизни.
func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	return p.upsert(ctx, key, value, nil)
}

// SetTTL задаёт значение со сроком жизни.
func (p *Postgres) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	expires := time.Now().UTC().Add(ttl)
	return p.upsert(ctx, key, value, &expires)
}

func (p *Postgres) upsert(ctx context.Context, key string, value []byte, expires *time.Time) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO kv_store (key, value, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
`, key, value, expires)
	metrics.ObserveNetworkRequest("postgres", "kv_set", "kv_store", start, err)
	return err
}

// Remove удаляет ключ.
func (p *Postgres) Remove(ctx context.Context, key string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	metrics.ObserveNetworkRequest("postgres", "kv_remove", "kv_store", start, err)
	return err
}
