package handler

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/validation"
)

// respondJSON writes a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, &domain.APIError{
		Code:    status,
		Message: message,
	})
}

// handleError converts domain errors to HTTP errors.
func handleError(w http.ResponseWriter, err error) {
	// Structural errors may wrap ErrAlreadyExists (duplicate names inside a
	// document), so they are classified before the sentinel checks.
	var structural *domain.StructuralError
	switch {
	case errors.As(err, &structural):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, domain.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid input")
	case errors.Is(err, domain.ErrUnauthorized):
		respondError(w, http.StatusUnauthorized, "unauthorized")
	default:
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON decodes JSON from request body.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ErrInvalidInput
	}
	return nil
}

// generateID generates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// API keys are presented as "nmk_" plus 64 hex characters. Only the hash and
// a short display prefix are stored.
const (
	apiKeyPrefix    = "nmk_"
	apiKeyPrefixLen = len(apiKeyPrefix) + 8
)

// generateAPIKey mints a random API key with its stored hash and prefix.
func generateAPIKey() (key string, hash string, prefix string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", "", err
	}

	key = apiKeyPrefix + hex.EncodeToString(raw)
	return key, hashKey(key), key[:apiKeyPrefixLen], nil
}

// hashKey creates a SHA-256 hash of the API key.
func hashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return hex.EncodeToString(h[:])
}

// respondViolations writes a JSON response for topology validation failures.
func respondViolations(w http.ResponseWriter, violations validation.Violations) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"valid":      false,
		"violations": violations,
	})
}
