package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/leaderboard"
	"github.com/buzzrhq/buzzr/internal/score"
)

type quizView struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	Thumbnail      string `json:"thumbnail"`
	TotalQuestions int    `json:"total_questions"`
	IsAttempted    bool   `json:"is_attempted"`
}

// listQuizzes serves the catalog. It works without a session; with one, the
// platform marks which quizzes the learner already attempted so the client
// can route straight to the result view.
func (a *API) listQuizzes(c *gin.Context) {
	ctx := c.Request.Context()

	token := ""
	if s := bearer(c); s != "" {
		// An expired session degrades to the anonymous catalog.
		if t, err := a.auth.Guard(ctx, s); err == nil {
			token = t
		}
	}

	quizzes, err := a.up.ListQuizzes(ctx, token)
	if err != nil {
		renderError(c, err)
		return
	}

	views := make([]quizView, 0, len(quizzes))
	for _, q := range quizzes {
		views = append(views, quizView{
			ID:             q.ID,
			Title:          q.Title,
			Description:    q.Description,
			Thumbnail:      q.Thumbnail,
			TotalQuestions: q.TotalQuestions,
			IsAttempted:    q.Attempted,
		})
	}

	renderData(c, http.StatusOK, views)
}

type optionView struct {
	Text    string `json:"text"`
	Verdict string `json:"verdict"`
}

type resultQuestionView struct {
	ID       string       `json:"id"`
	Question string       `json:"question"`
	Options  []optionView `json:"options"`
}

type resultView struct {
	QuizID             string               `json:"quiz_id"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	TotalQuestions     int                  `json:"total_questions"`
	AttemptedQuestions int                  `json:"attempted_questions"`
	Score              int                  `json:"score"`
	Correct            int                  `json:"correct"`
	Wrong              int                  `json:"wrong"`
	Percentage         int                  `json:"percentage"`
	Mark               int                  `json:"mark"`
	MaxMark            int                  `json:"max_mark"`
	Questions          []resultQuestionView `json:"questions"`
}

func toResultView(r *domain.AttemptResult) resultView {
	sum := score.Summarize(*r)

	questions := make([]resultQuestionView, 0, len(r.Questions))
	for _, q := range r.Questions {
		submitted := r.SubmittedAnswers[q.ID]
		options := make([]optionView, 0, len(q.Options))
		for _, o := range q.Options {
			options = append(options, optionView{
				Text:    o,
				Verdict: string(score.ClassifyOption(o, q.CorrectAnswer, submitted)),
			})
		}

		questions = append(questions, resultQuestionView{
			ID:       q.ID,
			Question: q.Prompt,
			Options:  options,
		})
	}

	return resultView{
		QuizID:             r.QuizID,
		Title:              r.Title,
		Description:        r.Description,
		TotalQuestions:     r.TotalQuestions,
		AttemptedQuestions: r.AttemptedQuestions,
		Score:              r.Score,
		Correct:            sum.Correct,
		Wrong:              sum.Wrong,
		Percentage:         sum.Percentage,
		Mark:               sum.Mark,
		MaxMark:            sum.MaxMark,
		Questions:          questions,
	}
}

func (a *API) latestResult(c *gin.Context) {
	result, err := a.results.Last(c.Request.Context(), sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toResultView(result))
}

type entryView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Correct int    `json:"correct"`
	Wrong   int    `json:"wrong"`
	Score   int    `json:"score"`
	Rank    int    `json:"rank"`
}

type leaderboardView struct {
	QuizID  string      `json:"quiz_id"`
	Entries []entryView `json:"entries"`
	TopFive []entryView `json:"top_five"`
	Me      *entryView  `json:"me,omitempty"`
}

func toLeaderboardView(lb *domain.Leaderboard) leaderboardView {
	view := leaderboardView{
		QuizID:  lb.QuizID,
		Entries: toEntryViews(lb.Entries),
		TopFive: toEntryViews(lb.TopFive),
	}
	if lb.Viewer != nil {
		me := toEntryView(*lb.Viewer)
		view.Me = &me
	}

	return view
}

func toEntryViews(entries []domain.LeaderboardEntry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, toEntryView(e))
	}

	return views
}

func toEntryView(e domain.LeaderboardEntry) entryView {
	return entryView{
		ID:      e.ParticipantID,
		Name:    e.FullName,
		Correct: e.Correct,
		Wrong:   e.Wrong,
		Score:   e.Score,
		Rank:    e.Rank,
	}
}

// getLeaderboard serves the ranking. The viewer's own attempt id comes from
// the `viewer` query parameter: attempt records carry only an attempt id and
// a display name, so the gateway has nothing session-side to resolve the
// viewer's record from, and matching on display name would pick the wrong
// record whenever two participants share a name. An unknown or absent id
// just omits the "me" entry; it grants access to nothing.
func (a *API) getLeaderboard(c *gin.Context) {
	top, _ := strconv.Atoi(c.Query("top"))

	lb, err := a.ls.GetLeaderboard(c.Request.Context(), leaderboard.GetLeaderboardRequest{
		SID:      sid(c),
		QuizID:   c.Param("quizID"),
		ViewerID: c.Query("viewer"),
		Top:      top,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, toLeaderboardView(lb))
}
