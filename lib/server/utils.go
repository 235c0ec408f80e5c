package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/pescuma/tia/lib/protocol"
)

func sendResult(c *gin.Context, result any) {
	c.JSON(http.StatusOK, protocol.Response{Result: result})
}

func sendError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, protocol.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, protocol.Response{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, protocol.Response{Error: err.Error()})
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, protocol.ErrInvalidRequest):
		return "invalid"
	default:
		return "error"
	}
}
