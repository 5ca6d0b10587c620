package api

import (
	"net/http"
	"strings"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/service/catalog"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	service catalog.CatalogUseCase
}

func NewEventHandler(service catalog.CatalogUseCase) *EventHandler {
	return &EventHandler{service: service}
}

func (h *EventHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.GET("/:id", h.get)
}

func (h *EventHandler) list(c *gin.Context) {
	query := catalog.Query{
		Access: domain.AccessibilityFlag(strings.ToLower(c.Query("access"))),
		Sort:   catalog.SortOrder(c.Query("sort")),
	}
	events, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) get(c *gin.Context) {
	id := domain.ParseID(c.Param("id"))
	if id.IsZero() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	event, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}
