package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/scms/clinic-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

var validate = validator.New()

// Validate runs struct validation on a bound request body.
func Validate(obj interface{}) error {
	return validate.Struct(obj)
}

// Error writes a typed application error with the proper HTTP status and
// machine-readable reason, so the UI can tell a full slot from a denied
// access from a missing resource.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.StatusCode(), &Response{
			Status:  "error",
			Message: appErr.Message,
			Reason:  string(appErr.Reason),
		})
		return
	}

	var valErr validator.ValidationErrors
	if errors.As(err, &valErr) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(valErr.Error()))
		return
	}

	c.JSON(http.StatusInternalServerError, NewErrorResponse("internal server error"))
}
