package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/buzzrhq/buzzr/internal/auth"
	"github.com/buzzrhq/buzzr/internal/errors"
)

type identityView struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func (a *API) login(c *gin.Context) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Admin    bool   `json:"admin"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed login payload"), errors.WithCause(err)))
		return
	}

	resp, err := a.auth.Login(c.Request.Context(), auth.LoginRequest{
		Email:    in.Email,
		Password: in.Password,
		AsAdmin:  in.Admin,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, gin.H{
		"sid":  resp.SID,
		"user": identityView{FullName: resp.Identity.FullName, Role: resp.Identity.Role},
	})
}

func (a *API) register(c *gin.Context) {
	var in struct {
		FullName        string `json:"full_name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirm_password"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		renderError(c, errors.New(errors.CodeInvalidArgument,
			errors.WithMessagef("malformed registration payload"), errors.WithCause(err)))
		return
	}

	resp, err := a.auth.Register(c.Request.Context(), auth.RegisterRequest{
		FullName:        in.FullName,
		Email:           in.Email,
		Password:        in.Password,
		ConfirmPassword: in.ConfirmPassword,
	})
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusCreated, gin.H{
		"sid":  resp.SID,
		"user": identityView{FullName: resp.Identity.FullName, Role: resp.Identity.Role},
	})
}

func (a *API) logout(c *gin.Context) {
	if err := a.auth.Logout(c.Request.Context(), sid(c)); err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, gin.H{"ok": true})
}

// refresh forces the token refresh transition now instead of waiting for the
// next guarded call, and reports the session's identity while at it.
func (a *API) refresh(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := a.auth.Guard(ctx, sid(c)); err != nil {
		renderError(c, err)
		return
	}

	id, err := a.auth.Identity(ctx, sid(c))
	if err != nil {
		renderError(c, err)
		return
	}

	renderData(c, http.StatusOK, gin.H{
		"user": identityView{FullName: id.FullName, Role: id.Role},
	})
}
