package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"quizhub/internal/auth"
	"quizhub/internal/quiz"
	"quizhub/internal/validation"
)

const maxBodyBytes = 1 << 20

var errBadJSON = errors.New("invalid JSON body")

func writeServiceError(w http.ResponseWriter, err error) {
	var (
		invalid *validation.Error
		missing *quiz.MissingAnswerError
	)
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.ErrInvalid.Error(), Fields: invalid.Fields})
	case errors.As(err, &missing):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: missing.Error(), MissingQuestionIDs: missing.QuestionIDs})
	case errors.Is(err, quiz.ErrEmptyQuiz):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: quiz.ErrEmptyQuiz.Error()})
	case errors.Is(err, quiz.ErrInvalidSelection), errors.Is(err, errBadJSON):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	case errors.Is(err, quiz.ErrDuplicateName), errors.Is(err, auth.ErrDuplicateAccount):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrConstraintViolation):
		w.Header().Set("Retry-After", "1")
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: quiz.ErrConstraintViolation.Error()})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, quiz.ErrUpstream):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: quiz.ErrUpstream.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// decodeJSON reads one JSON value into dst, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", errBadJSON)
	}
	return nil
}

// parsePathID reads a positive integer path value. Anything else is reported
// as quiz.ErrNotFound, the way a typed route would.
func parsePathID(r *http.Request, key string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(r.PathValue(key)), 10, 64)
	if err != nil || parsed <= 0 {
		return 0, fmt.Errorf("%s %q: %w", key, r.PathValue(key), quiz.ErrNotFound)
	}
	return parsed, nil
}

func parseIntParam(r *http.Request, key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, errors.New(key + " must be a positive integer")
	}
	return parsed, nil
}

func parseLeaderboardLimit(r *http.Request, defaultValue int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	// <=0 means "entire leaderboard".
	return parsed, nil
}

func isJSONRequest(r *http.Request) bool {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))
	return contentType == "" || strings.HasPrefix(contentType, "application/json")
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
