// Package leaderboard derives the ranked view of a quiz's attempts from the
// platform's raw attempt records.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/buzzrhq/buzzr/internal/auth"
	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

const (
	defaultCacheTTL = 30 * time.Second
	publishInterval = 200 * time.Millisecond
)

type Config struct {
	Upstream *upstream.Client
	Auth     *auth.Service
	Redis    redis.UniversalClient
	Prefix   string
	EventBus *event.Bus
	CacheTTL time.Duration
}

type Service struct {
	up     *upstream.Client
	auth   *auth.Service
	redis  redis.UniversalClient
	prefix string
	eb     *event.Bus
	ttl    time.Duration
}

func NewService(c Config) *Service {
	ttl := c.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	s := &Service{
		up:     c.Upstream,
		auth:   c.Auth,
		redis:  c.Redis,
		prefix: c.Prefix,
		eb:     c.EventBus,
		ttl:    ttl,
	}

	if s.eb != nil {
		s.eb.Subscribe(domain.EventNameAttemptSubmitted, func(ctx context.Context, e event.Event) error {
			return s.OnAttemptSubmitted(ctx, e.(domain.EventAttemptSubmitted))
		})
	}

	return s
}

type GetLeaderboardRequest struct {
	SID    string
	QuizID string
	// ViewerID is the viewer's own attempt record id, supplied explicitly by
	// the caller. The viewer is never inferred from record order.
	ViewerID string
	// Top truncates Entries to a prefix of the ranking when > 0.
	Top int
}

// GetLeaderboard returns the ranked leaderboard for a quiz. The aggregated
// entries are cached briefly; the viewer entry and any top-N truncation are
// derived per request on top of the cached ranking.
func (s *Service) GetLeaderboard(ctx context.Context, req GetLeaderboardRequest) (*domain.Leaderboard, error) {
	records, err := s.cachedRecords(ctx, req.SID, req.QuizID)
	if err != nil {
		return nil, err
	}

	lb := Build(req.QuizID, records, req.ViewerID)
	if req.Top > 0 && req.Top < len(lb.Entries) {
		lb.Entries = lb.Entries[:req.Top]
	}

	return lb, nil
}

// OnAttemptSubmitted invalidates the cached records for the quiz and
// publishes a fresh ranking, throttled so a burst of submissions produces
// one publish per interval instead of one per attempt.
func (s *Service) OnAttemptSubmitted(ctx context.Context, e domain.EventAttemptSubmitted) error {
	if err := s.redis.Del(ctx, s.recordsKey(e.Result.QuizID)).Err(); err != nil {
		return fmt.Errorf("leaderboard: invalidate cache: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, s.timeKey(e.Result.QuizID), time.Now().UnixMilli(), publishInterval).Result()
	if err != nil {
		return fmt.Errorf("leaderboard: setnx: %w", err)
	}
	if !ok {
		return nil
	}

	lb, err := s.GetLeaderboard(ctx, GetLeaderboardRequest{
		SID:    e.SID,
		QuizID: e.Result.QuizID,
	})
	if err != nil {
		return fmt.Errorf("leaderboard: rebuild after submit: quiz=%s: %w", e.Result.QuizID, err)
	}

	s.eb.Publish(ctx, domain.EventLeaderboardUpdated{Leaderboard: *lb})
	return nil
}

func (s *Service) cachedRecords(ctx context.Context, sid, quizID string) ([]domain.AttemptRecord, error) {
	b, err := s.redis.Get(ctx, s.recordsKey(quizID)).Bytes()
	if err == nil {
		var records []domain.AttemptRecord
		if err := json.Unmarshal(b, &records); err == nil {
			return records, nil
		}
		// Unreadable cache entry: fall through to a fresh fetch.
	}
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("leaderboard: read cache: %w", err)
	}

	token, err := s.auth.Guard(ctx, sid)
	if err != nil {
		return nil, err
	}

	records, err := s.up.ListAttempts(ctx, token, quizID)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(records); err == nil {
		if err := s.redis.Set(ctx, s.recordsKey(quizID), b, s.ttl).Err(); err != nil {
			return nil, fmt.Errorf("leaderboard: write cache: %w", err)
		}
	}

	return records, nil
}

func (s *Service) recordsKey(quizID string) string {
	return fmt.Sprintf("%s:%s:attempts", s.prefix, quizID)
}

func (s *Service) timeKey(quizID string) string {
	return fmt.Sprintf("%s:%s:time", s.prefix, quizID)
}
