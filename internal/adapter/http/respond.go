package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/agri-assist-service/internal/chat"
	"github.com/couchcryptid/agri-assist-service/internal/domain"
	"github.com/couchcryptid/agri-assist-service/internal/service"
	"github.com/couchcryptid/agri-assist-service/internal/session"
)

// dataSourceHeader mirrors the envelope's source field.
const dataSourceHeader = "X-Data-Source"

// errBadRequest marks request parsing failures.
var errBadRequest = errors.New("bad request")

type envelope struct {
	Data   any        `json:"data"`
	Source string     `json:"source,omitempty"`
	Cause  *causeBody `json:"cause,omitempty"`
}

type causeBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeResult renders a service result, or the error when no value was served.
func writeResult[T any](s *Server, w http.ResponseWriter, res service.Result[T], err error) {
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	body := envelope{Data: res.Value, Source: string(res.Source)}
	if res.Cause != nil {
		body.Cause = &causeBody{Kind: string(domain.KindOf(res.Cause)), Message: res.Cause.Error()}
	}
	w.Header().Set(dataSourceHeader, string(res.Source))
	writeJSON(w, http.StatusOK, body)
}

// writeData renders data that has no live counterpart.
func writeData(w http.ResponseWriter, data any) {
	w.Header().Set(dataSourceHeader, string(service.SourceFallback))
	writeJSON(w, http.StatusOK, envelope{Data: data, Source: string(service.SourceFallback)})
}

func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Warn("request failed", "status", status, "code", code, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func classify(err error) (int, string) {
	var ue *domain.UpstreamError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, errBadRequest),
		errors.Is(err, domain.ErrInvalidLocation),
		errors.Is(err, service.ErrEmptyImage),
		errors.Is(err, chat.ErrEmptyMessage):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, chat.ErrConversationNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, session.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, session.ErrAuthNotConfigured):
		return http.StatusServiceUnavailable, "auth_not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, "canceled"
	case errors.As(err, &ue):
		return http.StatusBadGateway, "upstream_" + string(ue.Kind)
	}
	return http.StatusInternalServerError, "internal"
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// writeJSON encodes before writing the status so an unencodable value
// becomes a 500 rather than a truncated success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorBody{Error: errorDetail{Code: "internal", Message: "response encoding failed"}})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client may have gone away
}
