package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

type Handlers struct {
	Events  *EventHandler
	Auth    *AuthHandler
	Tickets *TicketHandler
	Verify  *VerifyHandler
}

func NewRouter(log zerolog.Logger, limiter *RateLimiter, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), Metrics())

	root := router.Group("")
	HealthHandler{}.Register(root)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	group := router.Group("/api")
	if limiter != nil {
		group.Use(limiter.Middleware())
	}
	if h.Events != nil {
		h.Events.Register(group.Group("/events"))
	}
	if h.Auth != nil {
		h.Auth.Register(group.Group("/auth"))
	}
	if h.Tickets != nil {
		h.Tickets.Register(group.Group("/tickets"))
	}
	if h.Verify != nil {
		h.Verify.Register(group.Group("/verify"))
	}
	return router
}
