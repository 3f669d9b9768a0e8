// Package identity resolves the requester from the signed session cookie.
package identity

import (
	"context"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

const (
	sessionKey  = "username"
	contextKey  = "username"
	SessionName = "MessengerSession"
)

// DirectoryResolver accepts a credential only if it names an existing user.
type DirectoryResolver struct {
	Users core.UserDirectory
}

var _ core.IdentityResolver = DirectoryResolver{}

func (r DirectoryResolver) Resolve(ctx context.Context, credential string) (domain.Username, error) {
	if credential == "" {
		return "", domain.ErrUnauthorized
	}
	ok, err := r.Users.Exists(ctx, domain.Username(credential))
	if err != nil {
		return "", errors.Wrap(err, "resolve identity")
	}
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return domain.Username(credential), nil
}

// Middleware resolves the session credential and stores the username on the
// gin context. It never aborts; handlers decide whether identity is required.
func Middleware(resolver core.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		cred, _ := sessions.Default(c).Get(sessionKey).(string)
		if cred != "" {
			u, err := resolver.Resolve(c.Request.Context(), cred)
			switch {
			case err == nil:
				c.Set(contextKey, u)
			case errors.Is(err, domain.ErrUnauthorized):
				log.Debug().Str("module", "adapters.identity").Str("user", cred).Msg("stale session")
			default:
				log.Error().Err(err).Str("module", "adapters.identity").Msg("resolve identity")
			}
		}
		c.Next()
	}
}

// Current returns the resolved user of the request, or "" if none.
func Current(c *gin.Context) domain.Username {
	v, ok := c.Get(contextKey)
	if !ok {
		return ""
	}
	u, _ := v.(domain.Username)
	return u
}

// SignIn binds the session to u.
func SignIn(c *gin.Context, u domain.Username) error {
	s := sessions.Default(c)
	s.Set(sessionKey, string(u))
	c.Set(contextKey, u)
	return s.Save()
}

// SignOut clears the session.
func SignOut(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return s.Save()
}
