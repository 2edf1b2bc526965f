package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
)

// createQuizSet opens a new quiz set for authoring and remembers it as the
// session's current one, so question entry can follow without re-selecting.
func (a *API) createQuizSet(c *gin.Context) {
	ctx := c.Request.Context()

	var in struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed quiz set payload"), errors.WithCause(err)))
		return
	}

	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("a quiz set needs a title")))
		return
	}

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	qs, err := a.up.CreateQuizSet(ctx, token, in.Title, strings.TrimSpace(in.Description))
	if err != nil {
		renderError(c, err)
		return
	}

	if err := a.selection.SetQuizSetID(ctx, sid(c), qs.ID); err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusCreated, qs)
}

func (a *API) listQuizSets(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	sets, err := a.up.ListQuizSets(ctx, token)
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, sets)
}

type questionForm struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

// validate enforces the authoring invariants before anything is sent
// upstream: a prompt, at least two options, and the correct answer present
// among the options exactly once.
func (f questionForm) validate() (*domain.Question, error) {
	prompt := strings.TrimSpace(f.Question)
	if prompt == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("a question needs a prompt"))
	}

	options := make([]string, 0, len(f.Options))
	for _, o := range f.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return nil, errors.New(errors.CodeInvalidArgument,
				errors.WithMessagef("options cannot be blank"))
		}
		options = append(options, o)
	}
	if len(options) < 2 {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("a question needs at least two options"))
	}

	correct := strings.TrimSpace(f.CorrectAnswer)
	occurrences := 0
	for _, o := range options {
		if o == correct {
			occurrences++
		}
	}
	switch {
	case occurrences == 0:
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("mark one option as the correct answer"))
	case occurrences > 1:
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("the correct answer appears more than once among the options"))
	}

	return &domain.Question{
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
	}, nil
}

func (a *API) createQuestion(c *gin.Context) {
	ctx := c.Request.Context()

	var in questionForm
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed question payload"), errors.WithCause(err)))
		return
	}

	q, err := in.validate()
	if err != nil {
		renderError(c, err)
		return
	}

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	created, err := a.up.CreateQuestion(ctx, token, c.Param("quizSetID"), *q)
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusCreated, toAuthoredQuestionView(created))
}

func (a *API) updateQuestion(c *gin.Context) {
	ctx := c.Request.Context()

	var in questionForm
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed question payload"), errors.WithCause(err)))
		return
	}

	q, err := in.validate()
	if err != nil {
		renderError(c, err)
		return
	}
	q.ID = c.Param("questionID")

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	updated, err := a.up.UpdateQuestion(ctx, token, *q)
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toAuthoredQuestionView(updated))
}

func (a *API) deleteQuestion(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	if err := a.up.DeleteQuestion(ctx, token, c.Param("questionID")); err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, gin.H{"ok": true})
}

type authoredQuestionView struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func toAuthoredQuestionView(q *domain.Question) authoredQuestionView {
	return authoredQuestionView{
		ID:            q.ID,
		Question:      q.Prompt,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	}
}
