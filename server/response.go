package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/svcreg/errors"
)

// DataResponse is the standard success envelope.
type DataResponse struct {
	Data any `json:"data"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error *apperrors.AppError `json:"error"`
}

// HTTPStatus maps an error code to the status served to callers.
func HTTPStatus(err *apperrors.AppError) int {
	switch err.Code {
	case apperrors.ErrCodeEmptyResult:
		return http.StatusNotFound
	case apperrors.ErrCodeTransportFailure:
		if timeout, _ := err.Details[apperrors.DetailTimeout].(bool); timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case apperrors.ErrCodeProtocolFailure:
		return http.StatusBadGateway
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeMissingField:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError writes err as an ErrorResponse. Errors that are not an
// *apperrors.AppError are wrapped as internal errors.
func RespondWithError(c *gin.Context, err error) {
	appErr, ok := apperrors.AsAppError(err)
	if !ok {
		appErr = apperrors.Internal(err)
	}
	c.JSON(HTTPStatus(appErr), ErrorResponse{Error: appErr})
}

// RespondOK sends a 200 response wrapping data.
func RespondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, DataResponse{Data: data})
}

// RespondNoContent sends a 204 with no body.
func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
