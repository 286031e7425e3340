package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/tourney/internal/service"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL", "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, "BAD_REQUEST", msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", msg)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	slog.Warn("unauthorized", "message", msg)
	writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", msg)
}

func Forbidden(w http.ResponseWriter, msg string) {
	slog.Warn("forbidden", "message", msg)
	writeError(w, http.StatusForbidden, "FORBIDDEN", msg)
}

// StatusFor maps a service error kind to the HTTP status sent to clients.
func StatusFor(kind service.Kind) int {
	switch kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindInvalidState, service.KindCapacity, service.KindDuplicate:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError writes err using its service code. Unknown errors become a 500
// without leaking their message.
func ServiceError(w http.ResponseWriter, msg string, err error) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		InternalServerError(w, msg, err)
		return
	}
	status := StatusFor(svcErr.Kind)
	slog.Warn(msg, "code", svcErr.Code, "status", status, "error", err)
	writeError(w, status, svcErr.Code, svcErr.Message)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	_ = WriteJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: msg}})
}
