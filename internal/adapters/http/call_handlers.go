package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/dkeye/Messenger/internal/adapters/identity"
	"github.com/dkeye/Messenger/internal/domain"
)

type callRequest struct {
	CallID string `json:"call_id"`
}

func (h *handlers) initiateCall(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		Receiver string `json:"receiver"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	id, err := h.orch.Initiate(c.Request.Context(), who, domain.Username(req.Receiver))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"call_id": id, "message": "Call initiated"})
}

func (h *handlers) acceptCall(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	caller, err := h.orch.Accept(c.Request.Context(), who, domain.CallID(req.CallID))
	if err != nil {
		// clients treat a foreign call like an unknown one
		if errors.Is(err, domain.ErrForbidden) {
			writeErrorStatus(c, http.StatusBadRequest, "forbidden_error", err)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"caller": caller, "message": "Call accepted"})
}

func (h *handlers) endCall(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req callRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if err := h.orch.End(c.Request.Context(), who, domain.CallID(req.CallID)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Call ended"})
}

// checkCall polls for an incoming call, or reports the status of ?id=.
func (h *handlers) checkCall(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	if id, has := c.GetQuery("id"); has {
		status, err := h.orch.Status(c.Request.Context(), who, domain.CallID(id))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"call_id": id, "status": status})
		return
	}

	rec, err := h.orch.CheckPending(c.Request.Context(), who)
	if err != nil {
		writeError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{"has_call": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"has_call": true, "call_id": rec.ID, "caller": rec.Caller})
}

func requireUser(c *gin.Context) (domain.Username, bool) {
	who := identity.Current(c)
	if who == "" {
		writeError(c, domain.ErrUnauthorized)
		return "", false
	}
	return who, true
}
