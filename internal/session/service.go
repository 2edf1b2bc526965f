// Package session is the quiz session engine: it loads a quiz from the
// platform, shuffles each question's options, tracks the pointer and the
// learner's answers, and turns the final answer map into a submission.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

const defaultTTL = 2 * time.Hour

type Config struct {
	Upstream *upstream.Client
	Redis    redis.UniversalClient
	Prefix   string
	EventBus *event.Bus
	TTL      time.Duration

	// IntN overrides the shuffle's random source in tests.
	IntN func(n int) int
}

type Service struct {
	up     *upstream.Client
	redis  redis.UniversalClient
	prefix string
	eb     *event.Bus
	ttl    time.Duration
	intn   func(n int) int
}

func NewService(c Config) *Service {
	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	intn := c.IntN
	if intn == nil {
		intn = rand.IntN
	}

	return &Service{
		up:     c.Upstream,
		redis:  c.Redis,
		prefix: c.Prefix,
		eb:     c.EventBus,
		ttl:    ttl,
		intn:   intn,
	}
}

type StartRequest struct {
	SID    string
	Token  string
	QuizID string
}

// Start loads a quiz and opens a fresh session for it, replacing any session
// the caller already had. A quiz the learner already attempted cannot be
// replayed; the caller should route to the stored result instead.
func (s *Service) Start(ctx context.Context, req StartRequest) (*domain.QuizSession, error) {
	quizzes, err := s.up.ListQuizzes(ctx, req.Token)
	if err != nil {
		return nil, err
	}
	for _, q := range quizzes {
		if q.ID == req.QuizID && q.Attempted {
			return nil, errors.New(errors.CodeAlreadyExists,
				errors.WithMessagef("quiz %s was already attempted", req.QuizID))
		}
	}

	quiz, questions, err := s.up.GetQuiz(ctx, req.Token, req.QuizID)
	if err != nil {
		return nil, err
	}
	// The pointer and the current-question view both assume at least one
	// question exists.
	if len(questions) == 0 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("quiz %s has no questions to play", req.QuizID))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate session id: %w", err))
	}

	ss := newSession(id.String(), quiz, questions, s.intn)
	if err := s.put(ctx, req.SID, ss); err != nil {
		return nil, err
	}

	return ss, nil
}

// Get returns the caller's current session.
func (s *Service) Get(ctx context.Context, sid string) (*domain.QuizSession, error) {
	return s.load(ctx, sid)
}

type SelectAnswerRequest struct {
	SID        string
	QuestionID string
	Option     string
}

// SelectAnswer records (or overwrites) the learner's answer for a question.
func (s *Service) SelectAnswer(ctx context.Context, req SelectAnswerRequest) (*domain.QuizSession, error) {
	cur, err := s.loadInProgress(ctx, req.SID)
	if err != nil {
		return nil, err
	}

	next, err := applyAnswer(*cur, req.QuestionID, req.Option)
	if err != nil {
		return nil, err
	}

	if err := s.replace(ctx, req.SID, cur, next); err != nil {
		return nil, err
	}

	return next, nil
}

type AdvanceRequest struct {
	SID string
}

// Advance moves the session to the next question.
func (s *Service) Advance(ctx context.Context, req AdvanceRequest) (*domain.QuizSession, error) {
	cur, err := s.loadInProgress(ctx, req.SID)
	if err != nil {
		return nil, err
	}

	next, err := applyAdvance(*cur)
	if err != nil {
		return nil, err
	}

	if err := s.replace(ctx, req.SID, cur, next); err != nil {
		return nil, err
	}

	return next, nil
}

type SubmitRequest struct {
	SID   string
	Token string
}

// Submit sends the answer map upstream for grading and folds the graded
// response into an AttemptResult. Both outcomes are terminal for the
// session: on success it is submitted, on failure errored; either way the
// stored session is discarded and play must restart with Start.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*domain.AttemptResult, error) {
	cur, err := s.loadInProgress(ctx, req.SID)
	if err != nil {
		return nil, err
	}

	grading, err := s.up.SubmitAttempt(ctx, req.Token, cur.QuizID, submission(*cur))
	if err != nil {
		// Error is terminal for this session instance.
		_ = s.discard(ctx, req.SID)
		return nil, err
	}

	result := foldResult(cur, grading)
	if err := s.discard(ctx, req.SID); err != nil {
		return nil, err
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventAttemptSubmitted{SID: req.SID, Result: *result})
	}

	return result, nil
}

// foldResult merges the session's presented questions with the platform's
// grading. Presented questions gain their correct answer for rendering.
func foldResult(s *domain.QuizSession, g *upstream.Grading) *domain.AttemptResult {
	submitted := make(map[string]string, len(g.SubmittedAnswers))
	for _, p := range g.SubmittedAnswers {
		submitted[p.QuestionID] = p.Answer
	}
	correct := make(map[string]string, len(g.CorrectAnswers))
	for _, p := range g.CorrectAnswers {
		correct[p.QuestionID] = p.Answer
	}

	questions := make([]domain.Question, len(s.Questions))
	copy(questions, s.Questions)
	for i := range questions {
		questions[i].CorrectAnswer = correct[questions[i].ID]
	}

	total := g.TotalQuestions
	if total == 0 {
		total = len(s.Questions)
	}
	attempted := len(s.Answers)
	if attempted > total {
		attempted = total
	}

	return &domain.AttemptResult{
		QuizID:             s.QuizID,
		Title:              s.Title,
		Description:        s.Description,
		Questions:          questions,
		TotalQuestions:     total,
		AttemptedQuestions: attempted,
		Score:              g.Score,
		SubmittedAnswers:   submitted,
		CorrectAnswers:     correct,
	}
}

func (s *Service) loadInProgress(ctx context.Context, sid string) (*domain.QuizSession, error) {
	cur, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}
	if cur.State != domain.SessionInProgress {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("session is %s, not in progress", cur.State))
	}

	return cur, nil
}

func (s *Service) load(ctx context.Context, sid string) (*domain.QuizSession, error) {
	b, err := s.redis.Get(ctx, s.key(sid)).Bytes()
	if err == redis.Nil {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("no quiz in progress"))
	}
	if err != nil {
		return nil, fmt.Errorf("session: load: %w", err)
	}

	var ss domain.QuizSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}

	return &ss, nil
}

// replace writes next only if the stored session is still the snapshot the
// transition was computed from. A completion racing a newer session (the
// learner navigated away and started over) is discarded, not applied.
func (s *Service) replace(ctx context.Context, sid string, prev, next *domain.QuizSession) error {
	cur, err := s.load(ctx, sid)
	if err != nil {
		return err
	}
	if cur.ID != prev.ID || cur.Generation != prev.Generation {
		return errors.New(errors.CodeAlreadyExists,
			errors.WithMessagef("session changed underneath, transition discarded"))
	}

	return s.put(ctx, sid, next)
}

func (s *Service) put(ctx context.Context, sid string, ss *domain.QuizSession) error {
	b, err := json.Marshal(ss)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(sid), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: store: %w", err)
	}

	return nil
}

// Discard drops the caller's session, if any. Used on logout teardown.
func (s *Service) Discard(ctx context.Context, sid string) error {
	return s.discard(ctx, sid)
}

func (s *Service) discard(ctx context.Context, sid string) error {
	if err := s.redis.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("session: discard: %w", err)
	}

	return nil
}

func (s *Service) key(sid string) string {
	return fmt.Sprintf("%s:session:%s", s.prefix, sid)
}
