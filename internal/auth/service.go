// Package auth owns the gateway's authentication state: the platform-issued
// token bundle and display identity, keyed by a gateway session id. This is
// the only state that survives a browser reload; everything else the
// gateway holds is ephemeral by design.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/buzzrhq/buzzr/internal/domain"
	"github.com/buzzrhq/buzzr/internal/errors"
	"github.com/buzzrhq/buzzr/internal/event"
	"github.com/buzzrhq/buzzr/internal/upstream"
)

const (
	defaultSessionTTL    = 7 * 24 * time.Hour
	defaultRefreshLeeway = 30 * time.Second
)

type Config struct {
	Upstream *upstream.Client
	Redis    redis.UniversalClient
	Prefix   string
	EventBus *event.Bus

	// SessionTTL bounds how long a gateway session may live without a login.
	SessionTTL time.Duration
	// RefreshLeeway refreshes the access token when it expires within this window.
	RefreshLeeway time.Duration
}

type Service struct {
	up     *upstream.Client
	redis  redis.UniversalClient
	prefix string
	eb     *event.Bus
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
}

func NewService(c Config) *Service {
	ttl := c.SessionTTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	leeway := c.RefreshLeeway
	if leeway <= 0 {
		leeway = defaultRefreshLeeway
	}

	return &Service{
		up:     c.Upstream,
		redis:  c.Redis,
		prefix: c.Prefix,
		eb:     c.EventBus,
		ttl:    ttl,
		leeway: leeway,
		now:    time.Now,
	}
}

// record is the persisted shape of one gateway session.
type record struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	FullName     string `json:"full_name"`
	Role         string `json:"role"`
}

type LoginRequest struct {
	Email    string
	Password string
	// AsAdmin mirrors the admin checkbox on the sign-in form: an admin
	// account must check it and a learner account must not.
	AsAdmin bool
}

type LoginResponse struct {
	SID      string
	Identity domain.Identity
}

// Login authenticates against the platform and opens a gateway session.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("email and password are required"))
	}

	creds, err := s.up.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	isAdmin := creds.User.Role == domain.RoleAdmin
	if req.AsAdmin && !isAdmin {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("this account is not registered as an admin"))
	}
	if !req.AsAdmin && isAdmin {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("admin accounts must sign in as admin"))
	}

	return s.open(ctx, creds)
}

type RegisterRequest struct {
	FullName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Register creates a platform account and opens a gateway session.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	if req.FullName == "" || req.Email == "" || req.Password == "" {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("full name, email and password are required"))
	}
	if req.Password != req.ConfirmPassword {
		return nil, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("passwords do not match"))
	}

	creds, err := s.up.Register(ctx, req.FullName, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	return s.open(ctx, creds)
}

func (s *Service) open(ctx context.Context, creds *upstream.Credentials) (*LoginResponse, error) {
	sid, err := uuid.NewV7()
	if err != nil {
		return nil, errors.Internal(fmt.Errorf("generate session id: %w", err))
	}

	rec := record{
		AccessToken:  creds.Tokens.AccessToken,
		RefreshToken: creds.Tokens.RefreshToken,
		FullName:     creds.User.FullName,
		Role:         creds.User.Role,
	}
	if err := s.save(ctx, sid.String(), rec); err != nil {
		return nil, err
	}

	return &LoginResponse{
		SID:      sid.String(),
		Identity: domain.Identity{FullName: creds.User.FullName, Role: creds.User.Role},
	}, nil
}

// Logout closes the gateway session. The revocation event lets dependent
// stores tear down their per-session state.
func (s *Service) Logout(ctx context.Context, sid string) error {
	if err := s.redis.Del(ctx, s.key(sid)).Err(); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}

	if s.eb != nil {
		s.eb.Publish(ctx, domain.EventAuthRevoked{SID: sid})
	}

	return nil
}

// Identity returns the display identity of a gateway session.
func (s *Service) Identity(ctx context.Context, sid string) (*domain.Identity, error) {
	rec, err := s.load(ctx, sid)
	if err != nil {
		return nil, err
	}

	return &domain.Identity{FullName: rec.FullName, Role: rec.Role}, nil
}

// RequireAdmin fails unless the session belongs to an admin account.
func (s *Service) RequireAdmin(ctx context.Context, sid string) error {
	id, err := s.Identity(ctx, sid)
	if err != nil {
		return err
	}
	if id.Role != domain.RoleAdmin {
		return errors.New(errors.CodePermissionDenied,
			errors.WithMessagef("admin role required"))
	}

	return nil
}

// Guard returns an access token good for an upstream call, refreshing it
// first when it is expired or about to expire. Refresh is an explicit
// transition: a failed refresh closes the session and surfaces as
// unauthenticated, it never limps along with a dead token.
func (s *Service) Guard(ctx context.Context, sid string) (string, error) {
	rec, err := s.load(ctx, sid)
	if err != nil {
		return "", err
	}

	if !s.expiringSoon(rec.AccessToken) {
		return rec.AccessToken, nil
	}

	tokens, err := s.up.Refresh(ctx, rec.RefreshToken)
	if err != nil {
		_ = s.Logout(ctx, sid)
		return "", errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("session expired, sign in again"),
			errors.WithCause(err),
		)
	}

	rec.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		rec.RefreshToken = tokens.RefreshToken
	}
	if err := s.save(ctx, sid, rec); err != nil {
		return "", err
	}

	return rec.AccessToken, nil
}

// expiringSoon inspects the unverified exp claim. Signature verification is
// the platform's job; the gateway only schedules the refresh. Tokens without
// a readable exp claim are treated as live and left for upstream to reject.
func (s *Service) expiringSoon(accessToken string) bool {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return false
	}

	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}

	return s.now().Add(s.leeway).After(exp.Time)
}

func (s *Service) load(ctx context.Context, sid string) (record, error) {
	var rec record

	b, err := s.redis.Get(ctx, s.key(sid)).Bytes()
	if err == redis.Nil {
		return rec, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("no active session"))
	}
	if err != nil {
		return rec, fmt.Errorf("auth: load session: %w", err)
	}

	if err := json.Unmarshal(b, &rec); err != nil {
		return rec, fmt.Errorf("auth: decode session: %w", err)
	}

	return rec, nil
}

func (s *Service) save(ctx context.Context, sid string, rec record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("auth: encode session: %w", err)
	}

	if err := s.redis.Set(ctx, s.key(sid), b, s.ttl).Err(); err != nil {
		return fmt.Errorf("auth: store session: %w", err)
	}

	return nil
}

func (s *Service) key(sid string) string {
	return fmt.Sprintf("%s:auth:%s", s.prefix, sid)
}
