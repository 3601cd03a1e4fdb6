package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"strconv"

	"postcode-tracker/internal/domain"
	"postcode-tracker/internal/platform/logger"
	"postcode-tracker/internal/platform/obs"
)

type ctxKey string

const userIDKey ctxKey = "user_id"

// WithUserID stores the authenticated user on the request context.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userID(r *http.Request) (int64, bool) {
	id, ok := r.Context().Value(userIDKey).(int64)
	return id, ok
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.GetLogger("api").Warnw("encode failed",
			"req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// decodeJSON reads exactly one JSON object with no unknown fields into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	defer r.Body.Close()
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid json body")
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		writeError(w, r, http.StatusBadRequest, "body must contain only one JSON object")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusBadRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

// writeServiceError maps domain failures to status codes. Validation messages
// are ours and safe to return; upstream and internal error text is not.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *domain.UpstreamError

	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrBadCredentials):
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrActiveJourney):
		writeError(w, r, http.StatusConflict, domain.ErrActiveJourney.Error())
	case errors.Is(err, domain.ErrJourneyComplete):
		writeError(w, r, http.StatusConflict, domain.ErrJourneyComplete.Error())
	case errors.Is(err, domain.ErrUsernameTaken):
		writeError(w, r, http.StatusConflict, domain.ErrUsernameTaken.Error())
	case errors.Is(err, domain.ErrNoActiveJourney):
		writeError(w, r, http.StatusNotFound, domain.ErrNoActiveJourney.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		retryAfter := 30.0
		if errors.As(err, &upstream) && upstream.RetryAfter > 0 {
			retryAfter = math.Ceil(upstream.RetryAfter.Seconds())
		}
		logger.GetLogger("api").Warnw("geocoder unavailable",
			"req_id", obs.RequestID(r.Context()), "path", r.URL.Path, "err", err)
		w.Header().Set("Retry-After", strconv.Itoa(int(retryAfter)))
		writeError(w, r, http.StatusServiceUnavailable, "geocoding service unavailable")
	default:
		logger.GetLogger("api").Errorw("request failed",
			"req_id", obs.RequestID(r.Context()), "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
