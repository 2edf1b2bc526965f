package upstream

import (
	"context"
	"net/http"

	"github.com/buzzrhq/buzzr/internal/domain"
)

// Credentials is what the platform issues on login or registration.
type Credentials struct {
	Tokens domain.TokenBundle
	User   domain.Identity
}

type credentialsDTO struct {
	Tokens struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	} `json:"tokens"`
	User struct {
		FullName string `json:"full_name"`
		Role     string `json:"role"`
	} `json:"user"`
}

func (d credentialsDTO) toCredentials() *Credentials {
	return &Credentials{
		Tokens: domain.TokenBundle{
			AccessToken:  d.Tokens.AccessToken,
			RefreshToken: d.Tokens.RefreshToken,
		},
		User: domain.Identity{
			FullName: d.User.FullName,
			Role:     d.User.Role,
		},
	}
}

func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	in := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var out credentialsDTO
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", in, &out); err != nil {
		return nil, err
	}

	return out.toCredentials(), nil
}

func (c *Client) Register(ctx context.Context, fullName, email, password string) (*Credentials, error) {
	in := struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}{FullName: fullName, Email: email, Password: password}

	var out credentialsDTO
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", in, &out); err != nil {
		return nil, err
	}

	return out.toCredentials(), nil
}

// Refresh exchanges a refresh token for a fresh token bundle.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*domain.TokenBundle, error) {
	in := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: refreshToken}

	var out credentialsDTO
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "", in, &out); err != nil {
		return nil, err
	}

	return &domain.TokenBundle{
		AccessToken:  out.Tokens.AccessToken,
		RefreshToken: out.Tokens.RefreshToken,
	}, nil
}
