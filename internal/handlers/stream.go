package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/window-opener/internal/services"
)

type StreamHandler struct {
	programs  *services.ProgramService
	keepAlive time.Duration
}

func NewStreamHandler(programs *services.ProgramService) *StreamHandler {
	return &StreamHandler{
		programs:  programs,
		keepAlive: 30 * time.Second,
	}
}

// Events streams program transitions as server-sent events. The token is
// passed in the query string since EventSource cannot set a body.
// GET /program/events?token=...
func (h *StreamHandler) Events(c *gin.Context) {
	if !validToken(c.Query("token"), h.programs.Token()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ch := h.programs.Subscribe()
	defer h.programs.Unsubscribe(ch)

	// the current state first, so clients need no separate GET
	c.SSEvent("active", gin.H{"active": h.programs.Active()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-ticker.C:
			_, _ = io.WriteString(w, ": keep-alive\n\n")
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
