package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/humidhub/internal/domains/user"
	"github.com/xpanvictor/humidhub/pkg/Logger"
)

// statusFor maps domain errors onto HTTP status codes. Anything unknown is
// an internal error.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, user.ErrMissingCredentials):
		return http.StatusBadRequest, "Username and password are required."
	case errors.Is(err, user.ErrInvalidDevice):
		return http.StatusBadRequest, "Device ID is required."
	case errors.Is(err, user.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, user.ErrDeviceNotFound):
		return http.StatusNotFound, "Device not found."
	case errors.Is(err, user.ErrUsernameTaken):
		return http.StatusConflict, "User already exists."
	case errors.Is(err, user.ErrDeviceExists):
		return http.StatusConflict, "Device already exists."
	case errors.Is(err, user.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials."
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// writeError renders err and logs it when it is not a known domain failure.
func writeError(c *gin.Context, logger *Logger.Logger, op string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("%s error: %v", op, err)
	}
	c.JSON(status, ErrorResponse{Error: msg})
}

func writeBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "Invalid request data",
		Details: err.Error(),
	})
}
