package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pandeptwidyaop/window-opener/internal/config"
	"github.com/pandeptwidyaop/window-opener/internal/desktop"
	"github.com/pandeptwidyaop/window-opener/internal/handlers"
	"github.com/pandeptwidyaop/window-opener/internal/metrics"
	"github.com/pandeptwidyaop/window-opener/internal/middleware"
	"github.com/pandeptwidyaop/window-opener/internal/services"
)

// Deps is everything the routes are wired to.
type Deps struct {
	Config   *config.Config
	Programs *services.ProgramService
	LowLevel *services.LowLevelService
	Desktop  desktop.Desktop
	Metrics  *metrics.Metrics
	// Gatherer backs /metrics; nil leaves the route out.
	Gatherer prometheus.Gatherer
	// RateLimiter is optional.
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

func New(d Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodySizeLimit(d.Config.Server.BodyLimit))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.Middleware())
	}

	programHandler := handlers.NewProgramHandler(d.Programs, logger)
	lowLevelHandler := handlers.NewLowLevelHandler(d.LowLevel, d.Programs.Token, logger)
	streamHandler := handlers.NewStreamHandler(d.Programs)
	versionHandler := handlers.NewVersionHandler()
	systemHandler := handlers.NewSystemHandler(d.Desktop, d.Programs)

	requireToken := middleware.RequireToken(d.Programs.Token)

	program := r.Group("/program")
	program.Use(middleware.RequireEnabled(d.Config.API.ProgramEnabled()), requireToken)
	{
		program.GET("", programHandler.List)
		program.POST("", programHandler.Control)
		program.GET("/events", streamHandler.Events)
	}

	lowlevel := r.Group("/lowlevel")
	lowlevel.Use(middleware.RequireEnabled(d.Config.API.LowLevelEnabled()), requireToken)
	{
		lowlevel.POST("/:method", lowLevelHandler.Call)
	}

	api := r.Group("/api")
	{
		api.GET("/version", versionHandler.Get)
		api.GET("/system", systemHandler.Status)
		api.POST("/reload", requireToken, programHandler.Reload)
	}

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	return r
}
