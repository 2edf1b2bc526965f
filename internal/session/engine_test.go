package session

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
)

func TestShuffleOptions(t *testing.T) {
	t.Run("should permute without losing or duplicating options", func(t *testing.T) {
		opts := []string{"a", "b", "c", "d", "e"}

		got := shuffleOptions(opts, rand.IntN)

		require.ElementsMatch(t, opts, got)
		require.Equal(t, []string{"a", "b", "c", "d", "e"}, opts, "input must stay untouched")
	})

	t.Run("should apply the chosen swaps deterministically", func(t *testing.T) {
		// Swapping with index 0 at every step rotates the slice left by one.
		got := shuffleOptions([]string{"a", "b", "c", "d"}, func(int) int { return 0 })

		require.Equal(t, []string{"b", "c", "d", "a"}, got)
	})

	t.Run("should leave a single option alone", func(t *testing.T) {
		require.Equal(t, []string{"only"}, shuffleOptions([]string{"only"}, rand.IntN))
	})
}

func TestNewSession(t *testing.T) {
	quiz := &domain.Quiz{ID: "quiz-1", Title: "Capitals", Description: "Geography"}
	questions := []domain.Question{
		{ID: "q1", Prompt: "Capital of France?", Options: []string{"Paris", "Lyon", "Nice"}},
		{ID: "q2", Prompt: "Capital of Peru?", Options: []string{"Lima", "Cusco"}},
	}

	s := newSession("sess-1", quiz, questions, rand.IntN)

	require.Equal(t, domain.SessionInProgress, s.State)
	require.Equal(t, "quiz-1", s.QuizID)
	require.Zero(t, s.Pointer)
	require.Empty(t, s.Answers)
	require.Equal(t, 1, s.Generation)

	require.Len(t, s.Questions, 2)
	require.ElementsMatch(t, []string{"Paris", "Lyon", "Nice"}, s.Questions[0].Options)
	require.ElementsMatch(t, []string{"Lima", "Cusco"}, s.Questions[1].Options)
	require.Equal(t, []string{"Paris", "Lyon", "Nice"}, questions[0].Options, "source questions must stay untouched")
}

func TestApplyAnswer(t *testing.T) {
	base := func() domain.QuizSession {
		return domain.QuizSession{
			ID:    "sess-1",
			State: domain.SessionInProgress,
			Questions: []domain.Question{
				{ID: "q1", Options: []string{"a", "b"}},
				{ID: "q2", Options: []string{"x", "y"}},
			},
			Answers:    map[string]string{"q1": "a"},
			Generation: 3,
		}
	}

	t.Run("should record the answer and bump the generation", func(t *testing.T) {
		s := base()

		next, err := applyAnswer(s, "q2", "y")

		require.NoError(t, err)
		require.Equal(t, map[string]string{"q1": "a", "q2": "y"}, next.Answers)
		require.Equal(t, 4, next.Generation)
		require.Zero(t, next.Pointer, "answering must not move the pointer")
	})

	t.Run("should overwrite an earlier answer for the same question", func(t *testing.T) {
		next, err := applyAnswer(base(), "q1", "b")

		require.NoError(t, err)
		require.Equal(t, "b", next.Answers["q1"])
	})

	t.Run("should reject an option the question does not offer", func(t *testing.T) {
		s := base()

		_, err := applyAnswer(s, "q1", "z")

		require.True(t, errors.Is(err, errors.CodeInvalidArgument))
		require.Equal(t, map[string]string{"q1": "a"}, s.Answers, "a rejected answer must change nothing")
	})

	t.Run("should reject a question outside the quiz", func(t *testing.T) {
		_, err := applyAnswer(base(), "q9", "a")

		require.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("should not alias the previous answer map", func(t *testing.T) {
		s := base()

		next, err := applyAnswer(s, "q2", "x")

		require.NoError(t, err)
		require.NotContains(t, s.Answers, "q2")
		require.Contains(t, next.Answers, "q2")
	})
}

func TestApplyAdvance(t *testing.T) {
	base := func() domain.QuizSession {
		return domain.QuizSession{
			Questions:  []domain.Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}},
			Pointer:    1,
			Generation: 2,
		}
	}

	t.Run("should move the pointer to the next question", func(t *testing.T) {
		next, err := applyAdvance(base())

		require.NoError(t, err)
		require.Equal(t, 2, next.Pointer)
		require.Equal(t, 3, next.Generation)
	})

	t.Run("should refuse to advance past the last question", func(t *testing.T) {
		s := base()
		s.Pointer = 2

		_, err := applyAdvance(s)

		require.True(t, errors.Is(err, errors.CodeInvalidArgument))
	})
}

func TestSubmission(t *testing.T) {
	t.Run("should send the answer map as-is, gaps included", func(t *testing.T) {
		s := domain.QuizSession{
			Questions: []domain.Question{{ID: "q1"}, {ID: "q2"}, {ID: "q3"}},
			Answers:   map[string]string{"q1": "a", "q3": "c"},
		}

		got := submission(s)

		require.Equal(t, map[string]string{"q1": "a", "q3": "c"}, got)
		require.NotContains(t, got, "q2")
	})
}
