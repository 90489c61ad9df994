package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/iho/digipay/internal/adapter/http/dto"
	"github.com/iho/digipay/internal/adapter/http/middleware"
	"github.com/iho/digipay/internal/domain"
)

const maxBodyBytes = 1 << 20

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes the error body for err. Internal errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := statusForKind(kind)

	resp := dto.ErrorResponse{Error: string(kind), Message: err.Error()}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Fields
	}

	switch kind {
	case domain.KindInternal:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		resp.Message = "internal server error"
	case domain.KindStorageConflict:
		w.Header().Set("Retry-After", "1")
	}

	writeJSON(w, status, resp)
}

// statusForKind maps error kinds to HTTP status codes.
func statusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindDuplicate:
		return http.StatusConflict
	case domain.KindWalletBlocked:
		return http.StatusLocked
	case domain.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	case domain.KindStorageConflict:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst. An empty body leaves dst
// at its zero value.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

// caller returns the authenticated principal, or nil.
func caller(r *http.Request) domain.Principal {
	p, _ := middleware.PrincipalFromContext(r.Context())
	return p
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseBoolQuery parses a boolean query parameter; absent means false.
func parseBoolQuery(r *http.Request, key string) (bool, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, domain.NewValidationError(key, "must be a boolean")
	}
	return b, nil
}
