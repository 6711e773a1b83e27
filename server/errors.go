package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"

	"umrah-desk/api"
	"umrah-desk/order"
	"umrah-desk/workflow"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func abort(c *gin.Context, status int, code, message string, details any) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message, Code: code, Details: details})
}

// fail maps workflow and backend errors onto HTTP responses.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)

	var apiErr *api.APIError
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		abort(c, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, order.ErrIllegalTransition):
		abort(c, http.StatusConflict, "illegal_transition", err.Error(), nil)
	case errors.Is(err, workflow.ErrTransitionInFlight):
		abort(c, http.StatusConflict, "in_flight", err.Error(), nil)
	case errors.As(err, &verrs):
		abort(c, http.StatusBadRequest, "validation", err.Error(), fieldErrors(verrs))
	case errors.Is(err, workflow.ErrInvalidItem),
		errors.Is(err, workflow.ErrNoteRequired),
		errors.Is(err, workflow.ErrOperatorRequired),
		errors.Is(err, workflow.ErrConfirmationRequired),
		errors.Is(err, workflow.ErrCancelUnsupported),
		errors.Is(err, workflow.ErrIndexOutOfRange),
		errors.Is(err, workflow.ErrNothingSelected):
		abort(c, http.StatusBadRequest, "validation", err.Error(), nil)
	case errors.As(err, &apiErr):
		abort(c, http.StatusBadGateway, "backend_rejected", apiErr.Detail(), rawDetails(apiErr.Body))
	case errors.Is(err, workflow.ErrSourcesUnavailable):
		abort(c, http.StatusBadGateway, "sources_unavailable", err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		abort(c, http.StatusServiceUnavailable, "cancelled", err.Error(), nil)
	default:
		abort(c, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}

func badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	abort(c, http.StatusBadRequest, "bad_request", err.Error(), nil)
}

// rawDetails passes a backend payload through untouched when it is JSON.
func rawDetails(body string) any {
	if body == "" {
		return nil
	}
	if gjson.Valid(body) {
		return json.RawMessage(body)
	}
	return body
}

func fieldErrors(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Namespace()] = fe.Tag()
	}
	return out
}
