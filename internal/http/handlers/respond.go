package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Every failure leaves the service as a {message} body with the right status
// code; raw errors never reach the client.

func RespondError(ctx *gin.Context, status int, message string, details interface{}) {
	body := gin.H{"message": message}

	if details != nil {
		body["details"] = details
	}

	ctx.JSON(status, body)
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, message, details)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, message, nil)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}
