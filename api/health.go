package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct{}

func (h HealthHandler) Register(router *gin.RouterGroup) {
	router.GET("/health", h.health)
}

func (HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
