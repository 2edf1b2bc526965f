// Package store holds the per-session shared state that outlives a single
// request but not a logout: the quiz chosen for play, the quiz set chosen
// for authoring, and the last completed attempt. Each value is owned by one
// gateway session and replaced wholesale, never mutated in place.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
)

const defaultTTL = 24 * time.Hour

type Config struct {
	Redis  redis.UniversalClient
	Prefix string
	TTL    time.Duration
}

// Selection tracks the id of the quiz chosen for play and the quiz set
// chosen for authoring.
type Selection struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewSelection(c Config) *Selection {
	return &Selection{redis: c.Redis, prefix: c.Prefix, ttl: ttlOrDefault(c.TTL)}
}

func (s *Selection) SetQuizID(ctx context.Context, sid, quizID string) error {
	return set(ctx, s.redis, s.key(sid, "quiz"), quizID, s.ttl)
}

func (s *Selection) QuizID(ctx context.Context, sid string) (string, error) {
	return get[string](ctx, s.redis, s.key(sid, "quiz"), "no quiz selected")
}

func (s *Selection) SetQuizSetID(ctx context.Context, sid, quizSetID string) error {
	return set(ctx, s.redis, s.key(sid, "quizset"), quizSetID, s.ttl)
}

func (s *Selection) QuizSetID(ctx context.Context, sid string) (string, error) {
	return get[string](ctx, s.redis, s.key(sid, "quizset"), "no quiz set selected")
}

func (s *Selection) Clear(ctx context.Context, sid string) error {
	return s.redis.Del(ctx, s.key(sid, "quiz"), s.key(sid, "quizset")).Err()
}

func (s *Selection) key(sid, kind string) string {
	return fmt.Sprintf("%s:selection:%s:%s", s.prefix, sid, kind)
}

// Results holds the last completed attempt per session, overwritten by any
// later attempt. Not meant to survive past the session itself.
type Results struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewResults(c Config) *Results {
	return &Results{redis: c.Redis, prefix: c.Prefix, ttl: ttlOrDefault(c.TTL)}
}

func (r *Results) Put(ctx context.Context, sid string, res domain.AttemptResult) error {
	return set(ctx, r.redis, r.key(sid), res, r.ttl)
}

func (r *Results) Last(ctx context.Context, sid string) (*domain.AttemptResult, error) {
	res, err := get[domain.AttemptResult](ctx, r.redis, r.key(sid), "no completed attempt")
	if err != nil {
		return nil, err
	}

	return &res, nil
}

func (r *Results) Clear(ctx context.Context, sid string) error {
	return r.redis.Del(ctx, r.key(sid)).Err()
}

func (r *Results) key(sid string) string {
	return fmt.Sprintf("%s:result:%s", r.prefix, sid)
}

func set(ctx context.Context, rc redis.UniversalClient, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}

	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}

	return nil
}

func get[T any](ctx context.Context, rc redis.UniversalClient, key, missing string) (T, error) {
	var v T

	b, err := rc.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return v, errors.New(errors.CodeNotFound, errors.WithMessagef("%s", missing))
	}
	if err != nil {
		return v, fmt.Errorf("store: get %s: %w", key, err)
	}

	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("store: decode %s: %w", key, err)
	}

	return v, nil
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultTTL
	}

	return ttl
}
