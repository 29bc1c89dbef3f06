package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/logging"
)

var (
	errBadRequestBody      = errors.New("Formato de requisição inválido.")
	errInvalidDate         = errors.New("Informe a data no formato AAAA-MM-DD.")
	errMissingSessionToken = errors.New("Informe o token de autenticação.")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var conflict *application.ConflictError
	var vErr *application.ValidationError

	switch {
	case errors.As(err, &conflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:            "BOOKING_CONFLICT",
			Message:              "Conflito detectado! Já existe um agendamento para esta sala neste horário.",
			ConflictingBookingID: conflict.WithBookingID,
		})
	case errors.Is(err, application.ErrInvalidCredentials):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_INVALID_CREDENTIALS",
			Message:   "Credenciais inválidas. Tente novamente.",
		})
	case errors.Is(err, application.ErrSessionExpired), errors.Is(err, application.ErrSessionRevoked):
		r.writeJSON(ctx, w, http.StatusUnauthorized, errorResponse{
			ErrorCode: "AUTH_SESSION_EXPIRED",
			Message:   "Sua sessão expirou. Entre novamente.",
		})
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "Você não tem permissão para executar esta operação.",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "O recurso solicitado não foi encontrado."})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "Já existe um cadastro com estes dados.",
		})
	case errors.As(err, &vErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, validationResponse(vErr))
	default:
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "Ocorreu um erro interno no servidor."})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func validationResponse(vErr *application.ValidationError) errorResponse {
	resp := errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   "Verifique os dados informados.",
		Errors:    localizeValidationErrors(vErr),
	}
	switch {
	case errors.Is(vErr, application.ErrMissingField):
		resp.ErrorCode = "MISSING_FIELD"
		resp.Message = "Por favor, preencha todos os campos obrigatórios."
	case errors.Is(vErr, application.ErrInvalidTimeRange):
		resp.ErrorCode = "INVALID_TIME_RANGE"
		resp.Message = "O horário de término deve ser após o horário de início."
	}
	return resp
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "A requisição é inválida."
	case http.StatusUnauthorized:
		return "Autenticação necessária."
	case http.StatusForbidden:
		return "Você não tem permissão para executar esta operação."
	case http.StatusNotFound:
		return "O recurso solicitado não foi encontrado."
	case http.StatusConflict:
		return "A requisição conflita com o estado atual do recurso."
	case http.StatusUnprocessableEntity:
		return "Verifique os dados informados."
	default:
		return "Ocorreu um erro interno no servidor."
	}
}

func localizeValidationErrors(vErr *application.ValidationError) map[string]string {
	if vErr == nil || len(vErr.FieldErrors) == 0 {
		return nil
	}

	translated := make(map[string]string, len(vErr.FieldErrors))
	for field, msg := range vErr.FieldErrors {
		translated[field] = translateValidationMessage(msg)
	}
	return translated
}

func translateValidationMessage(message string) string {
	switch message {
	case "room is required":
		return "Selecione a sala."
	case "date is required":
		return "Informe a data."
	case "start time is required":
		return "Informe o horário de início."
	case "end time is required":
		return "Informe o horário de término."
	case "requester name is required":
		return "Informe o nome do solicitante."
	case "time must use HH:mm":
		return "Use o formato HH:mm."
	case "end time must be after start time":
		return "O horário de término deve ser após o horário de início."
	case "date must use YYYY-MM-DD":
		return "Use o formato AAAA-MM-DD."
	case "name is required":
		return "Informe o nome."
	case "location is required":
		return "Informe a localização."
	case "capacity must be positive":
		return "A capacidade deve ser um número positivo."
	case "email is required":
		return "Informe o e-mail."
	case "email is invalid":
		return "O e-mail informado é inválido."
	case "role must be one of admin, sec or common":
		return "Perfil inválido. Use admin, sec ou common."
	case "the last administrator cannot be demoted":
		return "O último administrador não pode perder o perfil."
	case "the last administrator cannot be deleted":
		return "O último administrador não pode ser excluído."
	case "you cannot delete your own account":
		return "Você não pode excluir a própria conta."
	default:
		if rest, ok := strings.CutPrefix(message, "capacity must not exceed "); ok {
			return "A capacidade não pode exceder " + rest + " pessoas."
		}
		if rest, ok := strings.CutPrefix(message, "password must have at least "); ok {
			return "A senha deve ter pelo menos " + strings.TrimSuffix(rest, " characters") + " caracteres."
		}
		return message
	}
}

type errorResponse struct {
	ErrorCode            string            `json:"error_code,omitempty"`
	Message              string            `json:"message"`
	Errors               map[string]string `json:"errors,omitempty"`
	ConflictingBookingID string            `json:"conflicting_booking_id,omitempty"`
}
