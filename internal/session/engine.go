package session

import (
	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
)

// The transition functions below are pure: they take a session value and
// return a replacement, bumping Generation so a stale snapshot can never be
// written back over a newer one.

// shuffleOptions returns a copy of opts permuted by Fisher-Yates: for i from
// last down to 1, swap with a uniformly chosen index in [0, i].
func shuffleOptions(opts []string, intn func(int) int) []string {
	out := make([]string, len(opts))
	copy(out, opts)

	for i := len(out) - 1; i > 0; i-- {
		j := intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}

// newSession builds an in-progress session for a fetched quiz, shuffling
// each question's options independently.
func newSession(id string, quiz *domain.Quiz, questions []domain.Question, intn func(int) int) *domain.QuizSession {
	shuffled := make([]domain.Question, 0, len(questions))
	for _, q := range questions {
		q.Options = shuffleOptions(q.Options, intn)
		shuffled = append(shuffled, q)
	}

	return &domain.QuizSession{
		ID:          id,
		QuizID:      quiz.ID,
		Title:       quiz.Title,
		Description: quiz.Description,
		State:       domain.SessionInProgress,
		Questions:   shuffled,
		Pointer:     0,
		Answers:     make(map[string]string),
		Generation:  1,
	}
}

// applyAnswer records an answer for a question. The option must be one of
// that question's shuffled options; the pointer is untouched either way.
func applyAnswer(s domain.QuizSession, questionID, option string) (*domain.QuizSession, error) {
	var q *domain.Question
	for i := range s.Questions {
		if s.Questions[i].ID == questionID {
			q = &s.Questions[i]
			break
		}
	}
	if q == nil {
		return nil, errors.New(errors.CodeNotFound,
			errors.WithMessagef("question %s is not part of this quiz", questionID))
	}

	valid := false
	for _, o := range q.Options {
		if o == option {
			valid = true
			break
		}
	}
	if !valid {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("%q is not an option of question %s", option, questionID))
	}

	answers := make(map[string]string, len(s.Answers)+1)
	for k, v := range s.Answers {
		answers[k] = v
	}
	answers[questionID] = option

	s.Answers = answers
	s.Generation++
	return &s, nil
}

// applyAdvance moves the pointer to the next question. The pointer never
// leaves [0, len-1]; advancing past the last question is an error.
func applyAdvance(s domain.QuizSession) (*domain.QuizSession, error) {
	if s.Pointer >= len(s.Questions)-1 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("already at the last question"))
	}

	s.Pointer++
	s.Generation++
	return &s, nil
}

// submission returns the answer map for transmission as-is, unanswered gaps
// included. No local grading happens here.
func submission(s domain.QuizSession) map[string]string {
	return s.Answers
}
