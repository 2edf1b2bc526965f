package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/session"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

func TestService_PlayThrough(t *testing.T) {
	eb := event.NewBus()

	var mu sync.Mutex
	var submitted []domain.EventAttemptSubmitted
	eb.Subscribe(domain.EventNameAttemptSubmitted, func(ctx context.Context, e event.Event) error {
		mu.Lock()
		submitted = append(submitted, e.(domain.EventAttemptSubmitted))
		mu.Unlock()
		return nil
	})

	s := makeService(t, withEventBus(eb))
	ctx := context.Background()

	ss, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-1"})
	require.NoError(t, err)
	require.Equal(t, domain.SessionInProgress, ss.State)
	require.Len(t, ss.Questions, 3)
	require.ElementsMatch(t, []string{"Paris", "Lyon", "Nice"}, ss.Questions[0].Options, "shuffling must keep the option set")

	ss, err = s.SelectAnswer(ctx, session.SelectAnswerRequest{SID: "sid-1", QuestionID: "q1", Option: "Paris"})
	require.NoError(t, err)

	ss, err = s.Advance(ctx, session.AdvanceRequest{SID: "sid-1"})
	require.NoError(t, err)
	require.Equal(t, 1, ss.Pointer)

	_, err = s.SelectAnswer(ctx, session.SelectAnswerRequest{SID: "sid-1", QuestionID: "q2", Option: "Lima"})
	require.NoError(t, err)

	// The third question stays unanswered.
	result, err := s.Submit(ctx, session.SubmitRequest{SID: "sid-1", Token: "tok"})
	require.NoError(t, err)

	require.Equal(t, 3, result.TotalQuestions)
	require.Equal(t, 2, result.AttemptedQuestions)
	require.Equal(t, 10, result.Score)
	require.Equal(t, map[string]string{"q1": "Paris", "q2": "Lima"}, result.SubmittedAnswers)
	require.Equal(t, "Paris", questionByID(t, result.Questions, "q1").CorrectAnswer,
		"grading must be folded back onto the presented questions")

	_, err = s.Get(ctx, "sid-1")
	require.True(t, errors.Is(err, errors.CodeNotFound), "a submitted session must be gone")

	eb.Stop()
	require.Len(t, submitted, 1)
	require.Equal(t, "sid-1", submitted[0].SID)
}

func TestService_Start(t *testing.T) {
	t.Run("should refuse to replay an attempted quiz", func(t *testing.T) {
		s := makeService(t)

		_, err := s.Start(context.Background(), session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-done"})

		require.True(t, errors.Is(err, errors.CodeAlreadyExists))
	})

	t.Run("should refuse a quiz with no questions instead of opening an unplayable session", func(t *testing.T) {
		s := makeService(t)
		ctx := context.Background()

		_, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-empty"})

		require.True(t, errors.Is(err, errors.CodeInvalidArgument))

		_, err = s.Get(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound), "no session may be left behind")
	})

	t.Run("should replace an existing session with a fresh one", func(t *testing.T) {
		s := makeService(t)
		ctx := context.Background()

		first, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-1"})
		require.NoError(t, err)

		second, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-1"})
		require.NoError(t, err)
		require.NotEqual(t, first.ID, second.ID)

		cur, err := s.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, second.ID, cur.ID)
	})
}

func TestService_SelectAnswer(t *testing.T) {
	t.Run("should fail without a session in progress", func(t *testing.T) {
		s := makeService(t)

		_, err := s.SelectAnswer(context.Background(), session.SelectAnswerRequest{SID: "sid-1", QuestionID: "q1", Option: "Paris"})

		require.True(t, errors.Is(err, errors.CodeNotFound))
	})

	t.Run("should keep the stored session intact when the answer is rejected", func(t *testing.T) {
		s := makeService(t)
		ctx := context.Background()

		started, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-1"})
		require.NoError(t, err)

		_, err = s.SelectAnswer(ctx, session.SelectAnswerRequest{SID: "sid-1", QuestionID: "q1", Option: "Atlantis"})
		require.True(t, errors.Is(err, errors.CodeInvalidArgument))

		cur, err := s.Get(ctx, "sid-1")
		require.NoError(t, err)
		require.Equal(t, started.Generation, cur.Generation)
		require.Empty(t, cur.Answers)
	})
}

func TestService_Submit(t *testing.T) {
	t.Run("should discard the session when the platform rejects the attempt", func(t *testing.T) {
		s := makeService(t)
		ctx := context.Background()

		_, err := s.Start(ctx, session.StartRequest{SID: "sid-1", Token: "tok", QuizID: "quiz-1"})
		require.NoError(t, err)

		_, err = s.Submit(ctx, session.SubmitRequest{SID: "sid-1", Token: "reject"})
		require.True(t, errors.Is(err, errors.CodeAlreadyExists))

		_, err = s.Get(ctx, "sid-1")
		require.True(t, errors.Is(err, errors.CodeNotFound), "a failed submission is terminal for the session")
	})
}

// fakePlatform serves a three-question quiz and grades q1=Paris, q2=Lima,
// q3=Seven. A "reject" token makes the attempt endpoint answer 409.
func fakePlatform(t *testing.T) *upstream.Client {
	writeData := func(w http.ResponseWriter, data any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/quizzes", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, []map[string]any{
			{"id": "quiz-1", "title": "Capitals", "total_questions": 3, "is_attempted": false},
			{"id": "quiz-done", "title": "Done", "total_questions": 1, "is_attempted": true},
			{"id": "quiz-empty", "title": "Empty", "total_questions": 0, "is_attempted": false},
		})
	})

	mux.HandleFunc("GET /api/quizzes/quiz-empty", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{
			"id":        "quiz-empty",
			"title":     "Empty",
			"questions": []map[string]any{},
		})
	})

	mux.HandleFunc("GET /api/quizzes/quiz-1", func(w http.ResponseWriter, r *http.Request) {
		writeData(w, map[string]any{
			"id":          "quiz-1",
			"title":       "Capitals",
			"description": "Geography",
			"questions": []map[string]any{
				{"id": "q1", "question": "Capital of France?", "options": []string{"Paris", "Lyon", "Nice"}},
				{"id": "q2", "question": "Capital of Peru?", "options": []string{"Lima", "Cusco"}},
				{"id": "q3", "question": "Days in a week?", "options": []string{"Seven", "Five"}},
			},
		})
	})

	mux.HandleFunc("POST /api/quizzes/quiz-1/attempt", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer reject" {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(map[string]any{"message": "already attempted"})
			return
		}

		var in struct {
			Answers map[string]string `json:"answers"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))

		correct := map[string]string{"q1": "Paris", "q2": "Lima", "q3": "Seven"}
		score := 0
		var submitted []map[string]string
		for id, a := range in.Answers {
			submitted = append(submitted, map[string]string{"question_id": id, "answer": a})
			if correct[id] == a {
				score += 5
			}
		}
		var graded []map[string]string
		for id, a := range correct {
			graded = append(graded, map[string]string{"question_id": id, "answer": a})
		}

		writeData(w, map[string]any{
			"score":             score,
			"total_questions":   3,
			"correct_answers":   graded,
			"submitted_answers": submitted,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return upstream.NewClient(upstream.Config{BaseURL: srv.URL})
}

func makeService(t *testing.T, opts ...options) *session.Service {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	rs := miniredis.RunT(t)
	rc := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: []string{rs.Addr()},
	})
	require.NoError(t, rc.Ping(ctx).Err(), "should be able to ping redis")

	c := session.Config{
		Upstream: fakePlatform(t),
		Redis:    rc,
		Prefix:   "test",
		EventBus: event.NewBus(),
	}

	for _, opt := range opts {
		opt(&c)
	}

	return session.NewService(c)
}

type options func(c *session.Config)

func withEventBus(eb *event.Bus) options {
	return func(c *session.Config) {
		c.EventBus = eb
	}
}

func questionByID(t *testing.T, questions []domain.Question, id string) domain.Question {
	t.Helper()
	for _, q := range questions {
		if q.ID == id {
			return q
		}
	}
	t.Fatalf("question %s not found", id)
	return domain.Question{}
}
