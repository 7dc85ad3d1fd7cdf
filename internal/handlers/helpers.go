package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "dealdesk/internal/errors"
	"dealdesk/internal/logger"
	"dealdesk/internal/models"
	"dealdesk/internal/services"
)

// ErrorResponse is the JSON shape of error payloads.
type ErrorResponse struct {
	Error apperrors.AppError `json:"error"`
}

// getCaller extracts the authenticated caller identity from the Gin context.
// Returns ErrUnauthorized if the auth middleware did not run.
func getCaller(c *gin.Context) (services.Caller, error) {
	userID, exists := c.Get("userID")
	if !exists {
		return services.Caller{}, apperrors.ErrUnauthorized
	}
	role, exists := c.Get("role")
	if !exists {
		return services.Caller{}, apperrors.ErrUnauthorized
	}
	brokerID, exists := c.Get("brokerID")
	if !exists {
		return services.Caller{}, apperrors.ErrUnauthorized
	}
	return services.Caller{
		UserID:   userID.(string),
		Role:     role.(models.Role),
		BrokerID: brokerID.(string),
	}, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}
