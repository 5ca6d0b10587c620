package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/qr"
	"github.com/Domenick1991/matchtickets/internal/service/tickets"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service tickets.TicketsUseCase
}

func NewTicketHandler(service tickets.TicketsUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("", h.purchase)
	router.DELETE("/:id", h.delete)
	router.GET("/:id/qr", h.qrCode)
}

// purchaseRequest accepts the loose shapes forms send: ids and quantities as
// numbers or strings.
type purchaseRequest struct {
	EventID  domain.ID   `json:"event_id"`
	Category string      `json:"category"`
	Quantity interface{} `json:"quantity"`
}

func (h *TicketHandler) list(c *gin.Context) {
	list, err := h.service.ListMine(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"source":  list.Source,
		"tickets": list.Tickets,
		"groups":  tickets.Render(list.Tickets),
	})
}

func (h *TicketHandler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	quantity := ""
	if req.Quantity != nil {
		quantity = fmt.Sprint(req.Quantity)
	}
	input, err := tickets.NewPurchaseInput(req.EventID.String(), req.Category, quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := h.service.Purchase(c.Request.Context(), input)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// delete only proceeds with ?confirm=true, the HTTP form of the confirmation
// prompt.
func (h *TicketHandler) delete(c *gin.Context) {
	id := domain.ParseID(c.Param("id"))
	confirmed := c.Query("confirm") == "true"
	confirm := tickets.ConfirmFunc(func(context.Context, string) (bool, error) {
		return confirmed, nil
	})

	source, err := h.service.Delete(c.Request.Context(), id, confirm)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id.String(), "source": source})
}

func (h *TicketHandler) qrCode(c *gin.Context) {
	size := qr.DefaultSize
	if raw := c.Query("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "size must be between 64 and 1024"})
			return
		}
		size = n
	}

	png, ticket, err := h.service.QRCode(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="ticket-%s.png"`, ticket.Reference()))
	c.Data(http.StatusOK, "image/png", png)
}
