package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/session"
)

type questionView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type sessionView struct {
	ID             string            `json:"id"`
	QuizID         string            `json:"quiz_id"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	State          string            `json:"state"`
	TotalQuestions int               `json:"total_questions"`
	Pointer        int               `json:"pointer"`
	Remaining      int               `json:"remaining"`
	Current        questionView      `json:"current"`
	Answers        map[string]string `json:"answers"`
}

func toSessionView(s *domain.QuizSession) sessionView {
	cur := s.Current()

	return sessionView{
		ID:             s.ID,
		QuizID:         s.QuizID,
		Title:          s.Title,
		Description:    s.Description,
		State:          string(s.State),
		TotalQuestions: len(s.Questions),
		Pointer:        s.Pointer,
		Remaining:      len(s.Questions) - s.Pointer - 1,
		Current: questionView{
			ID:       cur.ID,
			Question: cur.Prompt,
			Options:  cur.Options,
		},
		Answers: s.Answers,
	}
}

func (a *API) startQuiz(c *gin.Context) {
	ctx := c.Request.Context()
	quizID := c.Param("quizID")

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	ss, err := a.sessions.Start(ctx, session.StartRequest{
		SID:    sid(c),
		Token:  token,
		QuizID: quizID,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	if err := a.selection.SetQuizID(ctx, sid(c), quizID); err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusCreated, toSessionView(ss))
}

func (a *API) currentSession(c *gin.Context) {
	ss, err := a.sessions.Get(c.Request.Context(), sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toSessionView(ss))
}

func (a *API) selectAnswer(c *gin.Context) {
	var in struct {
		QuestionID string `json:"question_id"`
		Option     string `json:"option"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed answer payload"), errors.WithCause(err)))
		return
	}

	ss, err := a.sessions.SelectAnswer(c.Request.Context(), session.SelectAnswerRequest{
		SID:        sid(c),
		QuestionID: in.QuestionID,
		Option:     in.Option,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toSessionView(ss))
}

func (a *API) advance(c *gin.Context) {
	ss, err := a.sessions.Advance(c.Request.Context(), session.AdvanceRequest{SID: sid(c)})
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toSessionView(ss))
}

func (a *API) submit(c *gin.Context) {
	ctx := c.Request.Context()

	token, err := a.auth.Guard(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	result, err := a.sessions.Submit(ctx, session.SubmitRequest{SID: sid(c), Token: token})
	if err != nil {
		renderError(c, err)
		return
	}

	// The result store holds the attempt for the result and leaderboard
	// views until a later attempt overwrites it.
	if err := a.results.Put(ctx, sid(c), *result); err != nil {
		renderError(c, err)
		return
	}

	attemptsSubmitted.Inc()

	renderData(c, http.StatusOK, toResultView(result))
}
