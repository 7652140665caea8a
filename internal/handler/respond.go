package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orlandoKuanDev/ms-transaction-bank/internal/apperr"
)

// errorBody is the error response shape: {error, timestamp, status}.
type errorBody struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, errorBody{
		Error:     message,
		Timestamp: time.Now().UTC(),
		Status:    status,
	})
}

// respondMapped maps the error taxonomy onto status codes. Gateway
// errors propagate unchanged through the saga, so one mapping serves
// every route.
func respondMapped(c *gin.Context, err error) {
	var remote *apperr.RemoteFailureError
	switch {
	case apperr.IsValidation(err):
		respondError(c, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, apperr.ErrAccountBusy):
		respondError(c, http.StatusConflict, err.Error())
	case errors.As(err, &remote):
		respondError(c, http.StatusBadGateway, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
	c.Error(err)
}
