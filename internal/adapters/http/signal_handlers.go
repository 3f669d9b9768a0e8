package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkeye/Messenger/internal/core"
	"github.com/dkeye/Messenger/internal/domain"
)

type sessionResponse struct {
	Offer      json.RawMessage   `json:"offer,omitempty"`
	Answer     json.RawMessage   `json:"answer,omitempty"`
	Candidates []json.RawMessage `json:"ice_candidates"`
}

// blob treats an absent or null JSON value as empty.
func blob(raw json.RawMessage) core.Blob {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return core.Blob(trimmed)
}

func rawCandidates(cs []core.Blob) []json.RawMessage {
	out := make([]json.RawMessage, len(cs))
	for i, b := range cs {
		out[i] = json.RawMessage(b)
	}
	return out
}

func (h *handlers) setOffer(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		CallID string          `json:"call_id"`
		Offer  json.RawMessage `json:"offer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if err := h.orch.SetOffer(c.Request.Context(), who, domain.CallID(req.CallID), blob(req.Offer)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Offer stored"})
}

func (h *handlers) setAnswer(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		CallID string          `json:"call_id"`
		Answer json.RawMessage `json:"answer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if err := h.orch.SetAnswer(c.Request.Context(), who, domain.CallID(req.CallID), blob(req.Answer)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Answer stored"})
}

func (h *handlers) appendCandidate(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	var req struct {
		CallID    string          `json:"call_id"`
		Candidate json.RawMessage `json:"candidate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON data")
		return
	}
	if err := h.orch.AppendCandidate(c.Request.Context(), who, domain.CallID(req.CallID), blob(req.Candidate)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ICE candidate stored"})
}

func (h *handlers) listCandidates(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	snap, err := h.orch.GetSession(c.Request.Context(), who, domain.CallID(c.Query("call_id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ice_candidates": rawCandidates(snap.Candidates)})
}

func (h *handlers) getSession(c *gin.Context) {
	who, ok := requireUser(c)
	if !ok {
		return
	}
	snap, err := h.orch.GetSession(c.Request.Context(), who, domain.CallID(c.Query("call_id")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{
		Offer:      json.RawMessage(snap.Offer),
		Answer:     json.RawMessage(snap.Answer),
		Candidates: rawCandidates(snap.Candidates),
	})
}
