package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/buzzrhq/buzzr/internal/errors"
)

const sidKey = "buzzr.sid"

// requireSession extracts the gateway session id from the bearer header.
// Whether the session still exists is checked by whoever needs a token; a
// protected view failing here sends the browser back to the login flow.
func (a *API) requireSession(c *gin.Context) {
	sid := bearer(c)
	if sid == "" {
		renderError(c, errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("sign in required")))
		return
	}

	c.Set(sidKey, sid)
	c.Next()
}

func (a *API) requireAdmin(c *gin.Context) {
	if err := a.auth.RequireAdmin(c.Request.Context(), sid(c)); err != nil {
		renderError(c, err)
		return
	}

	c.Next()
}

func sid(c *gin.Context) string {
	return c.GetString(sidKey)
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return ""
	}

	return strings.TrimSpace(strings.TrimPrefix(h, prefix))
}
