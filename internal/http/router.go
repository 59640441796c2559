// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nearmatch/internal/http/handlers"
	"nearmatch/internal/http/middleware"
	"nearmatch/internal/infra"
	"nearmatch/internal/modules/tracking"
)

type RouterDeps struct {
	Engine   *tracking.Engine
	Profiles handlers.ProfileWriter
	// Verifier may be nil, which disables authentication (local development).
	Verifier infra.TokenVerifier
	Log      *zap.Logger
}

func NewRouter(deps RouterDeps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.Logging(log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api", middleware.Auth(deps.Verifier))

	trackingHandler := handlers.NewTrackingHandler(deps.Engine, log)
	tr := api.Group("/tracking/:id", middleware.SelfOnly())
	tr.POST("/start", trackingHandler.Start)
	tr.POST("/stop", trackingHandler.Stop)
	tr.GET("/events", trackingHandler.Events)

	locationHandler := handlers.NewLocationHandler(deps.Engine)
	profileHandler := handlers.NewProfileHandler(deps.Profiles, deps.Engine)
	users := api.Group("/users/:id", middleware.SelfOnly())
	users.PUT("/location", locationHandler.Update)
	users.PUT("/location/status", locationHandler.Status)
	users.PUT("/profile", profileHandler.Put)
	users.PUT("/device_token", profileHandler.DeviceToken)
	users.GET("/matches", profileHandler.Matches)

	return r
}
