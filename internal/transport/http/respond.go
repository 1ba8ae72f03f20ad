package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"eduquiz-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// writeError maps domain errors onto HTTP statuses. Duplicate submissions
// surface as a 409 with a stable message so clients can render an
// "already submitted" state instead of an error banner.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingField):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrDuplicateSubmission):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "quiz already submitted"})
	case errors.Is(err, domain.ErrQuizClosed):
		writeJSON(w, http.StatusGone, errorResponse{Error: "quiz closed"})
	case errors.Is(err, domain.ErrQuizNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "quiz not found"})
	case errors.Is(err, domain.ErrSubmissionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "submission not found"})
	case errors.Is(err, domain.ErrUnknownStudent):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "student not recognized"})
	default:
		log.Printf("internal error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
