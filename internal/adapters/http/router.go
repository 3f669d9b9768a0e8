// Package http exposes the messenger API over gin.
package http

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/Messenger/internal/adapters/identity"
	"github.com/dkeye/Messenger/internal/app/orch"
	"github.com/dkeye/Messenger/internal/config"
	"github.com/dkeye/Messenger/internal/core"
)

// Deps are the collaborators the handlers need.
type Deps struct {
	Orch     *orch.Orchestrator
	Users    core.UserDirectory
	Messages core.MessageStore
	Resolver core.IdentityResolver
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

type handlers struct {
	orch     *orch.Orchestrator
	users    core.UserDirectory
	messages core.MessageStore
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.Session.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Session.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(identity.SessionName, store))
	r.Use(identity.Middleware(deps.Resolver))

	h := &handlers{orch: deps.Orch, users: deps.Users, messages: deps.Messages}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.POST("/logout", h.logout)
	r.POST("/deleteacc", h.deleteAccount)
	r.GET("/users", h.listUsers)
	r.GET("/messages", h.listMessages)
	r.POST("/messages", h.sendMessage)

	call := r.Group("/call")
	call.POST("/initiate", h.initiateCall)
	call.POST("/accept", h.acceptCall)
	call.POST("/end", h.endCall)
	call.GET("/check", h.checkCall)
	call.POST("/offer", h.setOffer)
	call.POST("/answer", h.setAnswer)
	call.POST("/ice", h.appendCandidate)
	call.GET("/ice", h.listCandidates)
	call.GET("/sdp", h.getSession)

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
