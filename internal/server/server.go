package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/buzzrhq/buzzr/internal/api"
	"github.com/buzzrhq/buzzr/internal/auth"
	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/leaderboard"
	"github.com/buzzrhq/buzzr/internal/session"
	"github.com/buzzrhq/buzzr/internal/store"
	"github.com/buzzrhq/buzzr/internal/telemetry"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

type Config struct {
	HTTP struct {
		Port int32
	}

	Upstream struct {
		BaseURL string
		Timeout time.Duration
	}

	Redis struct {
		State struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Pubsub struct {
			Addrs  []string
			Pass   string
			Prefix string
		}
	}

	Auth struct {
		SessionTTL    time.Duration
		RefreshLeeway time.Duration
	}

	Session struct {
		TTL time.Duration
	}

	Leaderboard struct {
		CacheTTL time.Duration
	}
}

type Server struct {
	c Config

	eb *event.Bus

	infra struct {
		redis struct {
			state  redis.UniversalClient
			pubsub redis.UniversalClient
		}

		upstream *upstream.Client
	}

	service struct {
		auth        *auth.Service
		session     *session.Service
		leaderboard *leaderboard.Service
		selection   *store.Selection
		results     *store.Results
	}

	http *http.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	if err := s.initRedis(); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	s.infra.upstream = upstream.NewClient(upstream.Config{
		BaseURL: s.c.Upstream.BaseURL,
		Timeout: s.c.Upstream.Timeout,
	})

	return nil
}

func (s *Server) initRedis() error {
	connect := func(addrs []string, pass string) (redis.UniversalClient, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    addrs,
			Password: pass,
		})

		if err := telemetry.MonitorRedis(r); err != nil {
			return nil, err
		}

		if err := r.Ping(ctx).Err(); err != nil {
			return nil, err
		}

		return r, nil
	}

	var err error
	s.infra.redis.state, err = connect(s.c.Redis.State.Addrs, s.c.Redis.State.Pass)
	if err != nil {
		return fmt.Errorf("state: %w", err)
	}

	s.infra.redis.pubsub, err = connect(s.c.Redis.Pubsub.Addrs, s.c.Redis.Pubsub.Pass)
	if err != nil {
		return fmt.Errorf("pubsub: %w", err)
	}

	return nil
}

func (s *Server) initService() {
	prefix := s.c.Redis.State.Prefix

	s.service.auth = auth.NewService(auth.Config{
		Upstream:      s.infra.upstream,
		Redis:         s.infra.redis.state,
		Prefix:        prefix,
		EventBus:      s.eb,
		SessionTTL:    s.c.Auth.SessionTTL,
		RefreshLeeway: s.c.Auth.RefreshLeeway,
	})

	s.service.session = session.NewService(session.Config{
		Upstream: s.infra.upstream,
		Redis:    s.infra.redis.state,
		Prefix:   prefix,
		EventBus: s.eb,
		TTL:      s.c.Session.TTL,
	})

	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		Upstream: s.infra.upstream,
		Auth:     s.service.auth,
		Redis:    s.infra.redis.state,
		Prefix:   prefix + ":leaderboard",
		EventBus: s.eb,
		CacheTTL: s.c.Leaderboard.CacheTTL,
	})

	s.service.selection = store.NewSelection(store.Config{
		Redis:  s.infra.redis.state,
		Prefix: prefix,
	})

	s.service.results = store.NewResults(store.Config{
		Redis:  s.infra.redis.state,
		Prefix: prefix,
	})

	// Logout tears down everything the session owned.
	s.eb.Subscribe(domain.EventNameAuthRevoked, func(ctx context.Context, e event.Event) error {
		sid := e.(domain.EventAuthRevoked).SID

		return errors.Join(
			s.service.session.Discard(ctx, sid),
			s.service.selection.Clear(ctx, sid),
			s.service.results.Clear(ctx, sid),
		)
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.HTTPServerLogger(), api.Metrics())

	api.New(api.Config{
		Engine:       e,
		EventBus:     s.eb,
		Auth:         s.service.auth,
		Sessions:     s.service.session,
		Leaderboard:  s.service.leaderboard,
		Upstream:     s.infra.upstream,
		Selection:    s.service.selection,
		Results:      s.service.results,
		Redis:        s.infra.redis.pubsub,
		PubsubPrefix: s.c.Redis.Pubsub.Prefix,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}
}

func (s *Server) Start() {
	ctx := context.TODO()

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}

	s.eb.Stop()

	slog.InfoContext(ctx, "server: shutdown completed")
}
