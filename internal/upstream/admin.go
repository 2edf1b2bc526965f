package upstream

import (
	"context"
	"net/http"

	"github.com/buzzrhq/buzzr/internal/domain"
)

// QuizSet is the authoring-side view of a quiz under construction.
type QuizSet struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Published   bool   `json:"published"`
}

func (c *Client) CreateQuizSet(ctx context.Context, token, title, description string) (*QuizSet, error) {
	in := struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}{Title: title, Description: description}

	var out QuizSet
	if err := c.do(ctx, http.MethodPost, "/api/admin/quizzes", token, in, &out); err != nil {
		return nil, err
	}

	return &out, nil
}

func (c *Client) ListQuizSets(ctx context.Context, token string) ([]QuizSet, error) {
	var out []QuizSet
	if err := c.do(ctx, http.MethodGet, "/api/admin/quizzes", token, nil, &out); err != nil {
		return nil, err
	}

	return out, nil
}

type questionPayload struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (c *Client) CreateQuestion(ctx context.Context, token, quizSetID string, q domain.Question) (*domain.Question, error) {
	in := questionPayload{
		Question:      q.Prompt,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}

	var out questionDTO
	if err := c.do(ctx, http.MethodPost, "/api/admin/quizzes/"+quizSetID+"/questions", token, in, &out); err != nil {
		return nil, err
	}

	return toQuestion(out), nil
}

func (c *Client) UpdateQuestion(ctx context.Context, token string, q domain.Question) (*domain.Question, error) {
	in := questionPayload{
		Question:      q.Prompt,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}

	var out questionDTO
	if err := c.do(ctx, http.MethodPatch, "/api/admin/questions/"+q.ID, token, in, &out); err != nil {
		return nil, err
	}

	return toQuestion(out), nil
}

func (c *Client) DeleteQuestion(ctx context.Context, token, questionID string) error {
	return c.do(ctx, http.MethodDelete, "/api/admin/questions/"+questionID, token, nil, nil)
}

func toQuestion(d questionDTO) *domain.Question {
	return &domain.Question{
		ID:            d.ID,
		Prompt:        d.Question,
		Options:       d.Options,
		CorrectAnswer: d.CorrectAnswer,
	}
}
