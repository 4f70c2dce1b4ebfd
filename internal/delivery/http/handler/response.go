package handler

import (
	"errors"
	"net/http"

	domainEvent "event-ticketing/internal/domain/event"
	domainTicket "event-ticketing/internal/domain/ticket"
	domainUser "event-ticketing/internal/domain/user"
	"event-ticketing/internal/infrastructure/storage"
	"event-ticketing/internal/logger"
	"event-ticketing/internal/middleware"
	"event-ticketing/internal/usecase/auth"
	appErrors "event-ticketing/pkg/errors"
	"event-ticketing/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var codeStatus = map[string]int{
	appErrors.CodeValidation:         http.StatusBadRequest,
	appErrors.CodeWeakPassword:       http.StatusBadRequest,
	appErrors.CodeBadRequest:         http.StatusBadRequest,
	appErrors.CodeInvalidTransition:  http.StatusBadRequest,
	appErrors.CodeDuplicateUser:      http.StatusConflict,
	appErrors.CodeInvalidCredentials: http.StatusUnauthorized,
	appErrors.CodeInvalidToken:       http.StatusUnauthorized,
	appErrors.CodeForbidden:          http.StatusForbidden,
	appErrors.CodeNotFound:           http.StatusNotFound,
	appErrors.CodeUserNotFound:       http.StatusNotFound,
	appErrors.CodeRateLimited:        http.StatusTooManyRequests,
}

func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var appErr *appErrors.AppError
	if errors.As(err, &appErr) {
		status, ok := codeStatus[appErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		if len(appErr.Fields) > 0 {
			utils.ValidationErrorResponse(c, status, appErr.Message, appErr.Fields)
			return
		}
		utils.ErrorResponse(c, status, appErr.Message)
		return
	}

	switch {
	case errors.Is(err, appErrors.ErrUserAlreadyExists),
		errors.Is(err, domainUser.ErrUserAlreadyExists),
		errors.Is(err, domainUser.ErrProviderLinked),
		errors.Is(err, domainEvent.ErrSlugTaken):
		utils.ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, appErrors.ErrInvalidCredentials),
		errors.Is(err, appErrors.ErrInvalidToken),
		errors.Is(err, appErrors.ErrUnauthorized):
		utils.ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, appErrors.ErrForbidden):
		utils.ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, appErrors.ErrUserNotFound),
		errors.Is(err, domainUser.ErrUserNotFound),
		errors.Is(err, domainEvent.ErrEventNotFound),
		errors.Is(err, domainEvent.ErrTierNotFound),
		errors.Is(err, domainTicket.ErrTicketNotFound),
		errors.Is(err, appErrors.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, appErrors.ErrRateLimited):
		utils.ErrorResponse(c, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, storage.ErrFileTooLarge):
		utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, err.Error())
	case storage.IsClientError(err):
		utils.ErrorResponse(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error("Internal server error",
			logger.RequestID(middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err),
		)
		utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
	}
}

// principal returns the authenticated caller or writes a 401.
func principal(c *gin.Context) (domainUser.Principal, bool) {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication required")
		return domainUser.Principal{}, false
	}
	return p, true
}

func requestContext(c *gin.Context) auth.RequestContext {
	return auth.RequestContext{
		UserAgent: c.Request.UserAgent(),
		IPAddress: c.ClientIP(),
	}
}

func authBody(result *auth.AuthResult) gin.H {
	return gin.H{
		"accessToken":      result.AccessToken,
		"refreshToken":     result.RefreshToken,
		"expiresAt":        result.ExpiresAt,
		"refreshExpiresAt": result.RefreshExpiresAt,
		"user":             result.User,
	}
}

func invalidBody(c *gin.Context) {
	utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
}
