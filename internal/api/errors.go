package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-solar/internal/errors"
)

// statusByCode maps error codes to HTTP statuses. Unknown codes are 500.
var statusByCode = map[errors.Code]int{
	errors.ErrCodeInvalidInput:       http.StatusBadRequest,
	errors.ErrCodeInvalidPalette:     http.StatusBadRequest,
	errors.ErrCodeDimensionMismatch:  http.StatusUnprocessableEntity,
	errors.ErrCodeUnsupportedLayerID: http.StatusUnprocessableEntity,
	errors.ErrCodeEmptyConfigList:    http.StatusUnprocessableEntity,
	errors.ErrCodeNotFound:           http.StatusNotFound,
	errors.ErrCodeSuperseded:         http.StatusConflict,
}

// httpError converts a service error into a Huma status error carrying the
// error code and the user-facing message.
func httpError(err error) error {
	if err == nil {
		return nil
	}
	code := errors.GetCode(err)
	status, ok := statusByCode[code]
	if !ok {
		return huma.Error500InternalServerError(errors.UserMessage(err), err)
	}
	return huma.NewError(status, errors.UserMessage(err), &huma.ErrorDetail{
		Location: "code",
		Value:    string(code),
		Message:  errors.UserMessage(err),
	})
}
