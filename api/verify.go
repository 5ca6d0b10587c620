package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/matchtickets/internal/qr"
	"github.com/Domenick1991/matchtickets/internal/service/validation"
	"github.com/gin-gonic/gin"
)

const maxScanUpload = 8 << 20

type VerifyHandler struct {
	service validation.ValidationUseCase
}

func NewVerifyHandler(service validation.ValidationUseCase) *VerifyHandler {
	return &VerifyHandler{service: service}
}

func (h *VerifyHandler) Register(router *gin.RouterGroup) {
	router.POST("/scan", h.scan)
	router.GET("/:code", h.verify)
	router.POST("/:code", h.confirm)
}

func (h *VerifyHandler) verify(c *gin.Context) {
	verdict, err := h.service.Verify(c.Request.Context(), c.Param("code"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}

func (h *VerifyHandler) confirm(c *gin.Context) {
	result, err := h.service.ConfirmUse(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, validation.ErrRejected) && result != nil {
			c.JSON(http.StatusConflict, result)
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// scan decodes an uploaded QR image. A decoding failure is a verdict, not a
// server error.
func (h *VerifyHandler) scan(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxScanUpload)
	header, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is required"})
		return
	}
	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image file is unreadable"})
		return
	}
	defer f.Close()

	code, err := qr.Decode(f)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, validation.Verdict{
			State:   validation.StateInvalidScanError,
			Message: err.Error(),
		})
		return
	}

	verdict, err := h.service.Verify(c.Request.Context(), code)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, verdict)
}
