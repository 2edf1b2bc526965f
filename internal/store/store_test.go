package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/store"
)

func TestSelection(t *testing.T) {
	s := store.NewSelection(makeConfig(t))
	ctx := context.Background()

	t.Run("should miss with not found before anything is selected", func(t *testing.T) {
		_, err := s.QuizID(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("should keep quiz and quiz set selections independently per session", func(t *testing.T) {
		require.NoError(t, s.SetQuizID(ctx, "sid-1", "quiz-1"))
		require.NoError(t, s.SetQuizSetID(ctx, "sid-1", "set-9"))
		require.NoError(t, s.SetQuizID(ctx, "sid-2", "quiz-2"))

		quizID, err := s.QuizID(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, "quiz-1", quizID)

		setID, err := s.QuizSetID(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, "set-9", setID)

		quizID, err = s.QuizID(ctx, "sid-2")
		require.NoError(t, err)
		require.Equal(t, "quiz-2", quizID)
	})

	t.Run("should replace an earlier selection wholesale", func(t *testing.T) {
		require.NoError(t, s.SetQuizID(ctx, "sid-1", "quiz-3"))

		quizID, err := s.QuizID(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, "quiz-3", quizID)
	})

	t.Run("should drop both selections on clear", func(t *testing.T) {
		require.NoError(t, s.Clear(ctx, "sid-1"))

		_, err := s.QuizID(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound))
		_, err = s.QuizSetID(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound))
	})
}

func TestResults(t *testing.T) {
	r := store.NewResults(makeConfig(t))
	ctx := context.Background()

	t.Run("should miss with not found before any attempt completed", func(t *testing.T) {
		_, err := r.Last(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("should return the most recent attempt only", func(t *testing.T) {
		require.NoError(t, r.Put(ctx, "sid-1", domain.AttemptResult{QuizID: "quiz-1", Score: 5}))
		require.NoError(t, r.Put(ctx, "sid-1", domain.AttemptResult{QuizID: "quiz-2", Score: 10}))

		last, err := r.Last(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, "quiz-2", last.QuizID)
		require.Equal(t, 10, last.Score)
	})

	t.Run("should forget the attempt on clear", func(t *testing.T) {
		require.NoError(t, r.Clear(ctx, "sid-1"))

		_, err := r.Last(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound))
	})
}

func makeConfig(t *testing.T) store.Config {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	return store.Config{Redis: rc, Prefix: "test"}
}
