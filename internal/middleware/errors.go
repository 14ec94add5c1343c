package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/guttosm/quotegate/internal/domain/dto"
)

// ErrorHandler turns errors attached with c.Error into a 500 JSON response
// when the handler did not write one itself.
func ErrorHandler(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}
	last := c.Errors.Last()
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponse("Internal server error", last.Err))
}

// AbortWithError stops the chain and writes {"error": message} with status.
// err is attached to the context for the request logger.
func AbortWithError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(message, err))
}
