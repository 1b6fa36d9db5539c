package router

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/userreg/internal/common"
	"github.com/dmitrijs2005/userreg/internal/server/validation"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	StatusCode int                     `json:"statusCode"`
	Error      string                  `json:"error"`
	Message    string                  `json:"message"`
	Validation []validation.FieldError `json:"validation,omitempty"`
}

// JSON renders v with the given status.
func JSON(status int, v any) Response {
	b, err := json.Marshal(v)
	if err != nil {
		return ErrorResponse(err)
	}
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}

// ErrorResponse maps an error kind to its status and a fixed message.
// Internal error text never reaches the caller.
func ErrorResponse(err error) Response {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return errorBody(http.StatusBadRequest, verr.Message, verr.Fields)
	case errors.Is(err, common.ErrorUnauthorized):
		return errorBody(http.StatusUnauthorized, "invalid userid or password", nil)
	case errors.Is(err, common.ErrorConflict):
		return errorBody(http.StatusConflict, "user already exists", nil)
	case errors.Is(err, common.ErrorUpstream):
		return errorBody(http.StatusBadGateway, "upstream storage failure", nil)
	case errors.Is(err, common.ErrorUnableToSave):
		return errorBody(http.StatusInternalServerError, "unable to save user", nil)
	default:
		return errorBody(http.StatusInternalServerError, "internal error", nil)
	}
}

func errorBody(status int, msg string, fields []validation.FieldError) Response {
	b, _ := json.Marshal(ErrorBody{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    msg,
		Validation: fields,
	})
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(b),
	}
}
