package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/models"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

// LowLevelHandler runs single verbs for remote endpoints.
type LowLevelHandler struct {
	lowlevel *services.LowLevelService
	token    func() string
	logger   *zap.Logger
}

func NewLowLevelHandler(lowlevel *services.LowLevelService, token func() string, logger *zap.Logger) *LowLevelHandler {
	return &LowLevelHandler{lowlevel: lowlevel, token: token, logger: logger}
}

// Call runs the verb named in the path.
// POST /lowlevel/:method
func (h *LowLevelHandler) Call(c *gin.Context) {
	var req models.LowLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validToken(req.Token, h.token()) {
		h.logger.Error("Token either missing from request or wrong", zap.String("client", c.ClientIP()))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	method := endpoint.NormalizeMethod(c.Param("method"))
	if !endpoint.IsMethod(method) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No such method (" + method + ")"})
		return
	}

	var args []any
	if len(req.Arguments) == 0 || json.Unmarshal(req.Arguments, &args) != nil || args == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Corrupt request"})
		return
	}

	result, err := h.lowlevel.Call(c.Request.Context(), method, args, req.Options)
	switch {
	case errors.Is(err, endpoint.ErrBadArguments):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Corrupt request"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, models.Result{Result: result})
}
