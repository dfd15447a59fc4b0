package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/spendwise/internal/errs"
	"github.com/GregMSThompson/spendwise/pkg/logger"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: ErrorBody{Code: code, Message: message},
	}); err != nil {
		// Use context logger if encoding fails
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var (
		notFound   *errs.NotFoundError
		exists     *errs.AlreadyExistsError
		validation *errs.ValidationError
		dbErr      *errs.DatabaseError
		extErr     *errs.ExternalServiceError
		encErr     *errs.EncryptionError
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
	)

	switch {
	case errors.As(err, &notFound):
		log.Warn("resource not found", "error", notFound.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", notFound.Message)

	case errors.As(err, &exists):
		log.Warn("resource already exists", "error", exists.Message)
		h.WriteError(w, r, http.StatusConflict, "already_exists", exists.Message)

	case errors.As(err, &validation):
		log.Warn("validation failed", "error", validation.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", validation.Message)

	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		log.Warn("malformed request body", "error", err)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", "Malformed request body")

	case errors.As(err, &dbErr):
		log.Error("database error",
			"operation", dbErr.Operation,
			"error", dbErr.Message,
			"cause", dbErr.Err)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	case errors.As(err, &extErr):
		level := slog.LevelError
		if extErr.Transient {
			level = slog.LevelWarn
		}
		log.Log(r.Context(), level, "external service error",
			"service", extErr.Service,
			"transient", extErr.Transient,
			"error", extErr.Message,
			"cause", extErr.Err)

		status := http.StatusBadGateway
		if extErr.Transient {
			status = http.StatusServiceUnavailable
		}
		h.WriteError(w, r, status, "service_unavailable",
			"Service temporarily unavailable")

	case errors.As(err, &encErr):
		log.Error("encryption error", "error", encErr.Message)
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An error occurred")

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error",
			"An unexpected error occurred")
	}
}
