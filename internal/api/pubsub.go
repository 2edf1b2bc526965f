package api

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/buzzrhq/buzzr/internal/domain"
)

const maxConcurrent = 100

type Notification struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// PublishLeaderboardUpdated fans a refreshed ranking out over redis pubsub:
// once on the quiz-wide channel the websocket relay listens to, and once per
// ranked participant on their personal channel.
func (a *API) PublishLeaderboardUpdated(ctx context.Context, e domain.EventLeaderboardUpdated) error {
	lb := e.Leaderboard
	data := toLeaderboardView(&lb)

	b, err := json.Marshal(Notification{Event: e.Name(), Data: data})
	if err != nil {
		return fmt.Errorf("pubsub: marshal %s: %v", e.Name(), err)
	}

	if err := a.redis.Publish(ctx, a.quizChannel(lb.QuizID), b).Err(); err != nil {
		return fmt.Errorf("pubsub: publish quiz channel: %w", err)
	}

	var eg errgroup.Group
	eg.SetLimit(maxConcurrent)

	for _, entry := range data.Entries {
		eg.Go(func() error {
			return a.redis.Publish(ctx, a.userChannel(entry.ID), b).Err()
		})
	}

	return eg.Wait()
}

func (a *API) quizChannel(quizID string) string {
	return fmt.Sprintf("%s:quiz:%s:leaderboard", a.prefix, quizID)
}

func (a *API) userChannel(participantID string) string {
	return fmt.Sprintf("%s:user:%s", a.prefix, participantID)
}
