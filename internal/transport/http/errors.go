package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"weekly-challenge/internal/domain"
)

type errorBody struct {
	Error         string     `json:"error"`
	NextAttemptAt *time.Time `json:"nextAttemptAt,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	body := errorBody{Error: err.Error()}
	status := statusFor(err)

	var cooldown *domain.CooldownError
	if errors.As(err, &cooldown) {
		at := cooldown.NextAttemptAt
		body.NextAttemptAt = &at
	}
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		body.Error = "internal error"
	}
	writeJSON(w, status, body)
}

func statusFor(err error) int {
	var eligibility *domain.EligibilityError
	switch {
	case errors.As(err, &eligibility):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrCooldownActive):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrVersionConflict),
		errors.Is(err, domain.ErrQuestionOutOfOrder),
		errors.Is(err, domain.ErrAttemptCompleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrNoActiveChallenge),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIncompleteQuestionSet):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
