// Package upstream is the typed client for the quiz platform API, the
// external owner of all persistence and grading.
package upstream

import (
	"context"
	"net/http"
	"time"

	"github.com/buzzrhq/buzzr/internal/domain"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	base string
	hc   *http.Client
}

func NewClient(c Config) *Client {
	t := c.Timeout
	if t <= 0 {
		t = defaultTimeout
	}

	return &Client{
		base: c.BaseURL,
		hc:   &http.Client{Timeout: t},
	}
}

type quizDTO struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Thumbnail      string `json:"thumbnail"`
	TotalQuestions int    `json:"total_questions"`
	IsAttempted    bool   `json:"is_attempted"`
}

type questionDTO struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer,omitempty"`
}

type answerPairDTO struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// ListQuizzes returns the public quiz catalog. Attempted flags are only
// meaningful when a token is supplied.
func (c *Client) ListQuizzes(ctx context.Context, token string) ([]domain.Quiz, error) {
	var out []quizDTO
	if err := c.do(ctx, http.MethodGet, "/api/quizzes", token, nil, &out); err != nil {
		return nil, err
	}

	quizzes := make([]domain.Quiz, 0, len(out))
	for _, q := range out {
		quizzes = append(quizzes, domain.Quiz{
			ID:             q.ID,
			Title:          q.Title,
			Description:    q.Description,
			Thumbnail:      q.Thumbnail,
			TotalQuestions: q.TotalQuestions,
			Attempted:      q.IsAttempted,
		})
	}

	return quizzes, nil
}

// GetQuiz fetches a quiz with its questions for play. Option order is
// whatever the platform stored; shuffling is the session engine's job.
func (c *Client) GetQuiz(ctx context.Context, token, quizID string) (*domain.Quiz, []domain.Question, error) {
	var out struct {
		ID          string        `json:"id"`
		Title       string        `json:"title"`
		Description string        `json:"description"`
		Questions   []questionDTO `json:"questions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+quizID, token, nil, &out); err != nil {
		return nil, nil, err
	}

	quiz := &domain.Quiz{
		ID:          out.ID,
		Title:       out.Title,
		Description: out.Description,
	}

	questions := make([]domain.Question, 0, len(out.Questions))
	for _, q := range out.Questions {
		questions = append(questions, domain.Question{
			ID:      q.ID,
			Prompt:  q.Question,
			Options: q.Options,
		})
	}

	return quiz, questions, nil
}

// Grading is the platform's response to a submitted attempt.
type Grading struct {
	Score            int
	TotalQuestions   int
	CorrectAnswers   []domain.AnswerPair
	SubmittedAnswers []domain.AnswerPair
}

// SubmitAttempt submits the answer map (gaps included) and returns the
// platform's grading. A repeated attempt surfaces as AlreadyExists.
func (c *Client) SubmitAttempt(ctx context.Context, token, quizID string, answers map[string]string) (*Grading, error) {
	in := struct {
		Answers map[string]string `json:"answers"`
	}{Answers: answers}

	var out struct {
		Score            int             `json:"score"`
		TotalQuestions   int             `json:"total_questions"`
		CorrectAnswers   []answerPairDTO `json:"correct_answers"`
		SubmittedAnswers []answerPairDTO `json:"submitted_answers"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/quizzes/"+quizID+"/attempt", token, in, &out); err != nil {
		return nil, err
	}

	return &Grading{
		Score:            out.Score,
		TotalQuestions:   out.TotalQuestions,
		CorrectAnswers:   toPairs(out.CorrectAnswers),
		SubmittedAnswers: toPairs(out.SubmittedAnswers),
	}, nil
}

// ListAttempts returns the raw attempt records for a quiz. Records may be
// malformed (missing answer lists); callers decide how to treat them.
func (c *Client) ListAttempts(ctx context.Context, token, quizID string) ([]domain.AttemptRecord, error) {
	var out struct {
		Attempts []struct {
			ID   string `json:"id"`
			User struct {
				FullName string `json:"full_name"`
			} `json:"user"`
			CorrectAnswers   []answerPairDTO `json:"correct_answers"`
			SubmittedAnswers []answerPairDTO `json:"submitted_answers"`
		} `json:"attempts"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/quizzes/"+quizID+"/attempts", token, nil, &out); err != nil {
		return nil, err
	}

	records := make([]domain.AttemptRecord, 0, len(out.Attempts))
	for _, a := range out.Attempts {
		records = append(records, domain.AttemptRecord{
			ID:               a.ID,
			FullName:         a.User.FullName,
			CorrectAnswers:   toPairs(a.CorrectAnswers),
			SubmittedAnswers: toPairs(a.SubmittedAnswers),
		})
	}

	return records, nil
}

func toPairs(dtos []answerPairDTO) []domain.AnswerPair {
	if dtos == nil {
		return nil
	}

	pairs := make([]domain.AnswerPair, 0, len(dtos))
	for _, d := range dtos {
		pairs = append(pairs, domain.AnswerPair{QuestionID: d.QuestionID, Answer: d.Answer})
	}

	return pairs
}
