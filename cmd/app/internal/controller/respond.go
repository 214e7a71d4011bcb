package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"lexiq-backend/internal/service"
	"lexiq-backend/pkg/logging"
	"lexiq-backend/utilities"
)

var statusByCode = map[service.Code]int{
	service.CodeValidation:   http.StatusBadRequest,
	service.CodeNotFound:     http.StatusNotFound,
	service.CodeNoAnswers:    http.StatusBadRequest,
	service.CodeLevelNotSet:  http.StatusBadRequest,
	service.CodeConflict:     http.StatusConflict,
	service.CodeUnauthorized: http.StatusUnauthorized,
	service.CodeForbidden:    http.StatusForbidden,
	service.CodeInternal:     http.StatusInternalServerError,
}

// respondError writes {"error", "code"} with the status matching the
// service error code. Internal causes are logged, not returned.
func respondError(c *gin.Context, err error) {
	code := service.ErrorCode(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := "internal server error"
	var se *service.Error
	if errors.As(err, &se) && code != service.CodeInternal {
		message = se.Message
	}
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": service.CodeValidation})
}

// currentUser reads the id set by the auth middleware.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := utilities.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated", "code": service.CodeUnauthorized})
	}
	return id, ok
}
