package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/pandeptwidyaop/window-opener/internal/version"
)

type VersionHandler struct{}

func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// Get returns build information.
// GET /api/version
func (h *VersionHandler) Get(c *gin.Context) {
	info := version.Info()
	info["go_version"] = runtime.Version()
	c.JSON(http.StatusOK, info)
}
