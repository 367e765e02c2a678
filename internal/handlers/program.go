package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/models"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

// ProgramHandler serves the program API.
type ProgramHandler struct {
	programs *services.ProgramService
	logger   *zap.Logger
}

func NewProgramHandler(programs *services.ProgramService, logger *zap.Logger) *ProgramHandler {
	return &ProgramHandler{programs: programs, logger: logger}
}

// List returns the configured programs and the active one.
// GET /program
func (h *ProgramHandler) List(c *gin.Context) {
	resp := models.ProgramList{Programs: h.programs.Programs()}
	if active := h.programs.Active(); active != "" {
		resp.Active = &active
	}
	c.JSON(http.StatusOK, resp)
}

// Control starts or stops a program.
// POST /program
func (h *ProgramHandler) Control(c *gin.Context) {
	var req models.ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validToken(req.Token, h.programs.Token()) {
		h.logger.Error("Token either missing from request or wrong", zap.String("client", c.ClientIP()))
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	var (
		ok  bool
		err error
	)
	switch {
	case req.Start != nil:
		ok, err = h.programs.Start(*req.Start)
	case req.HasStop:
		ok, err = h.programs.Stop(req.Stop)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "start or stop is required"})
		return
	}
	if errors.Is(err, services.ErrProgramNotFound) {
		h.logger.Warn("Program does not exist", zap.Stringp("start", req.Start), zap.String("stop", req.Stop))
	}

	c.JSON(http.StatusOK, models.Result{Result: ok})
}

// Reload re-reads the program configuration.
// POST /api/reload
func (h *ProgramHandler) Reload(c *gin.Context) {
	var req models.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if !validToken(req.Token, h.programs.Token()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
		return
	}

	err := h.programs.Reload()
	switch {
	case errors.Is(err, services.ErrReloadWhileActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, models.Result{Result: true})
	}
}
