package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"party-game-service/internal/domain"
)

// envelope is the uniform response body.
type envelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Data    any                 `json:"data,omitempty"`
	Errors  []domain.FieldError `json:"errors,omitempty"`
}

var errUnauthenticated = errors.New("missing or invalid identity headers")

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: true, Message: message})
}

// respondError maps err onto the envelope. Internal details are logged, never returned.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errUnauthenticated) {
		writeJSON(w, http.StatusUnauthorized, envelope{Message: err.Error()})
		return
	}
	kind := domain.KindOf(err)
	if kind == domain.KindInternal {
		log.Printf("[http] %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, envelope{Message: "internal server error"})
		return
	}

	body := envelope{Message: err.Error()}
	var de *domain.Error
	if errors.As(err, &de) {
		body.Message = de.Message
		body.Errors = de.Fields
	}
	writeJSON(w, statusFor(kind), body)
}

func statusFor(kind domain.Kind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindAuthorization:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindStateConflict, domain.KindResourceConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
