package utils

import (
	appErrors "event-ticketing/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SuccessResponse writes {success:true, message, data}.
func SuccessResponse(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// SuccessWithFields writes {success:true, message} merged with fields at the top level.
func SuccessWithFields(c *gin.Context, status int, message string, fields gin.H) {
	body := gin.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(status, body)
}

func ErrorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success":    false,
		"statusCode": status,
		"message":    message,
	})
}

func ValidationErrorResponse(c *gin.Context, status int, message string, fields []appErrors.FieldError) {
	body := gin.H{
		"success":    false,
		"statusCode": status,
		"message":    message,
	}
	if len(fields) > 0 {
		body["errors"] = fields
	}
	c.JSON(status, body)
}
