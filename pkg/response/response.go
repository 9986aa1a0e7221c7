package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/charlesng35/investorportal/pkg/errors"
)

// Response defines the base API payload.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo holds error details to send to clients.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Intake status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Intake is the envelope returned by the allocation and referral intake endpoints.
type Intake struct {
	Status  string      `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Success writes a JSON success response.
func Success(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Data:    data,
	})
}

// Error writes a JSON error response derived from an AppError.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	c.JSON(appErrors.HTTPStatus(appErr), Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}

// IntakeCreated reports a created record by identifier.
func IntakeCreated(c *gin.Context, id uint) {
	c.JSON(http.StatusOK, Intake{
		Status: StatusSuccess,
		Data:   gin.H{"id": id},
	})
}

// IntakeError reports an intake failure. Intake failures are not HTTP errors,
// clients branch on the status field.
func IntakeError(c *gin.Context, message string) {
	if message == "" {
		message = appErrors.ErrInternalServer.Message
	}
	c.JSON(http.StatusOK, Intake{
		Status:  StatusError,
		Message: message,
	})
}
