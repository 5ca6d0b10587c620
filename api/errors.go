package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/matchtickets/internal/domain"
	"github.com/Domenick1991/matchtickets/internal/remote"
	"github.com/Domenick1991/matchtickets/internal/repository"
	"github.com/Domenick1991/matchtickets/internal/service/session"
	"github.com/Domenick1991/matchtickets/internal/service/tickets"
	"github.com/Domenick1991/matchtickets/internal/service/validation"
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"error": verr.Error()}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNotLoggedIn),
		errors.Is(err, tickets.ErrNotLoggedIn),
		errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, remote.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, tickets.ErrNotFound),
		errors.Is(err, validation.ErrNotFound),
		errors.Is(err, remote.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, tickets.ErrCancelled),
		errors.Is(err, validation.ErrEmptyCode):
		return http.StatusBadRequest
	case errors.Is(err, validation.ErrRejected),
		errors.Is(err, repository.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, repository.ErrCorrupt):
		return http.StatusInternalServerError
	}

	var apiErr *remote.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ServerSide() {
			return http.StatusBadGateway
		}
		return apiErr.Status
	}
	return http.StatusInternalServerError
}
