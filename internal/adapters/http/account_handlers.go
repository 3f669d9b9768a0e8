package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dkeye/Messenger/internal/adapters/identity"
	"github.com/dkeye/Messenger/internal/domain"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if req.Username == "" || req.Password == "" || req.Email == "" {
		badRequest(c, "username, password and email are required")
		return
	}
	u, err := domain.NewUser(strings.TrimSpace(req.Username), req.Email)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.users.Create(c.Request.Context(), u, req.Password); err != nil {
		writeError(c, err)
		return
	}
	if err := identity.SignIn(c, u.Username); err != nil {
		writeError(c, errors.Wrap(err, "save session"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful", "username": u.Username})
}

func (h *handlers) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if req.Username == "" || req.Password == "" {
		badRequest(c, "username and password are required")
		return
	}
	u, err := h.users.Authenticate(c.Request.Context(), domain.Username(req.Username), req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	if err := identity.SignIn(c, u.Username); err != nil {
		writeError(c, errors.Wrap(err, "save session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "username": u.Username})
}

func (h *handlers) logout(c *gin.Context) {
	if err := identity.SignOut(c); err != nil {
		writeError(c, errors.Wrap(err, "clear session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *handlers) deleteAccount(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.orch.DeleteAccount(c.Request.Context(), who); err != nil {
		writeError(c, err)
		return
	}
	if err := identity.SignOut(c); err != nil {
		writeError(c, errors.Wrap(err, "clear session"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account " + string(who) + " deleted"})
}

func (h *handlers) listUsers(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	names, err := h.users.ListExcept(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, names)
}

func (h *handlers) listMessages(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	peer := c.Query("receiver")
	if peer == "" {
		badRequest(c, "receiver is required")
		return
	}
	msgs, err := h.messages.Conversation(c.Request.Context(), who, domain.Username(peer))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *handlers) sendMessage(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Receiver string `json:"receiver"`
		Message  string `json:"message"`
		IsSystem bool   `json:"is_system"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if req.Receiver == "" || req.Message == "" {
		badRequest(c, "receiver and message are required")
		return
	}
	exists, err := h.users.Exists(c.Request.Context(), domain.Username(req.Receiver))
	if err != nil {
		writeError(c, err)
		return
	}
	if !exists {
		writeError(c, errors.WithMessage(domain.ErrNotFound, "user not found"))
		return
	}
	msg := &domain.Message{
		Sender:   who,
		Receiver: domain.Username(req.Receiver),
		Body:     req.Message,
		IsSystem: req.IsSystem,
	}
	if err := h.messages.Send(c.Request.Context(), msg); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Message sent"})
}
