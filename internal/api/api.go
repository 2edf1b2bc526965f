// Package api is the HTTP surface of the gateway: the play, result,
// leaderboard, auth and authoring flows a browser drives.
package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/buzzrhq/buzzr/internal/auth"
	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/leaderboard"
	"github.com/buzzrhq/buzzr/internal/session"
	"github.com/buzzrhq/buzzr/internal/store"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

type Config struct {
	Engine       *gin.Engine
	EventBus     *event.Bus
	Auth         *auth.Service
	Sessions     *session.Service
	Leaderboard  *leaderboard.Service
	Upstream     *upstream.Client
	Selection    *store.Selection
	Results      *store.Results
	Redis        Redis
	PubsubPrefix string
}

type Redis interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

type API struct {
	auth      *auth.Service
	sessions  *session.Service
	ls        *leaderboard.Service
	up        *upstream.Client
	selection *store.Selection
	results   *store.Results

	redis  Redis
	prefix string
}

func New(c Config) *API {
	a := &API{
		auth:      c.Auth,
		sessions:  c.Sessions,
		ls:        c.Leaderboard,
		up:        c.Upstream,
		selection: c.Selection,
		results:   c.Results,
		redis:     c.Redis,
		prefix:    c.PubsubPrefix,
	}

	r := c.Engine.Group("/api")

	r.GET("/quizzes", a.listQuizzes)
	r.GET("/quizzes/:quizID/leaderboard", a.requireSession, a.getLeaderboard)
	r.GET("/quizzes/:quizID/leaderboard/live", a.requireSession, a.liveLeaderboard)

	ar := r.Group("/auth")
	ar.POST("/login", a.login)
	ar.POST("/register", a.register)
	ar.POST("/logout", a.requireSession, a.logout)
	ar.POST("/refresh", a.requireSession, a.refresh)

	play := r.Group("/play", a.requireSession)
	play.POST("/:quizID", a.startQuiz)
	play.GET("", a.currentSession)
	play.POST("/answers", a.selectAnswer)
	play.POST("/next", a.advance)
	play.POST("/submit", a.submit)

	r.GET("/results/latest", a.requireSession, a.latestResult)

	admin := r.Group("/admin", a.requireSession, a.requireAdmin)
	admin.POST("/quizzes", a.createQuizSet)
	admin.GET("/quizzes", a.listQuizSets)
	admin.POST("/quizzes/:quizSetID/questions", a.createQuestion)
	admin.PATCH("/questions/:questionID", a.updateQuestion)
	admin.DELETE("/questions/:questionID", a.deleteQuestion)

	// Register event handlers
	c.EventBus.Subscribe(domain.EventNameLeaderboardUpdated, func(ctx context.Context, e event.Event) error {
		return a.PublishLeaderboardUpdated(ctx, e.(domain.EventLeaderboardUpdated))
	})

	return a
}

// renderData wraps payloads the way the platform API does, so the browser
// client reads both through the same envelope.
func renderData(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

func renderError(c *gin.Context, err error) {
	e := errors.Convert(err)
	if e.HTTPStatusCode() >= 500 {
		slog.ErrorContext(c.Request.Context(), "api: request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(e.HTTPStatusCode(), gin.H{
		"code":    e.Code.String(),
		"message": e.Message,
	})
}
