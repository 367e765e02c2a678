package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/window-opener/internal/desktop"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
	"github.com/pandeptwidyaop/window-opener/internal/service"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

// SystemHandler reports on the machine the daemon automates.
type SystemHandler struct {
	desk     desktop.Desktop
	programs *services.ProgramService
}

// NewSystemHandler creates a new SystemHandler instance.
func NewSystemHandler(desk desktop.Desktop, programs *services.ProgramService) *SystemHandler {
	return &SystemHandler{desk: desk, programs: programs}
}

// SystemStatus represents the system status response.
type SystemStatus struct {
	Host      *metrics.HostInfo `json:"host"`
	Desktop   string            `json:"desktop"`
	Endpoints []string          `json:"endpoints"`
	Active    string            `json:"active"`
	IsService bool              `json:"is_service"`
}

// Status returns host information and the automation backend in use.
// GET /api/system
func (h *SystemHandler) Status(c *gin.Context) {
	host, err := metrics.GetHostInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SystemStatus{
		Host:      host,
		Desktop:   h.desk.Name(),
		Endpoints: h.programs.Manager().Endpoints(),
		Active:    h.programs.Active(),
		IsService: service.IsRunningAsService(),
	})
}
