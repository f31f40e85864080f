package middleware

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/natsmesh/natsmesh/internal/domain"
	"github.com/natsmesh/natsmesh/internal/storage"
)

type contextKey string

// APIKeyContextKey carries the authenticated key through the request context.
const APIKeyContextKey contextKey = "api_key"

// Auth authenticates requests against stored API keys. The bootstrap key is
// honored only while the store holds no keys at all, so it can mint the
// first real key and nothing more.
func Auth(store storage.Storage, bootstrapKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey, ok := bearerToken(r)
			if !ok {
				unauthorized(w, "missing or malformed authorization header")
				return
			}

			ctx := r.Context()
			keyCount, err := store.CountAPIKeys(ctx)
			if err != nil {
				internalError(w)
				return
			}

			if keyCount == 0 && bootstrapKey != "" &&
				subtle.ConstantTimeCompare([]byte(apiKey), []byte(bootstrapKey)) == 1 {
				ctx = context.WithValue(ctx, APIKeyContextKey, &domain.APIKey{
					ID:   "bootstrap",
					Name: "Bootstrap Key",
				})
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			storedKey, err := store.GetAPIKeyByHash(ctx, hashAPIKey(apiKey))
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					unauthorized(w, "invalid API key")
					return
				}
				internalError(w)
				return
			}

			// Last-used is best effort; the request does not wait on it.
			go func() {
				_ = store.UpdateAPIKeyLastUsed(context.Background(), storedKey.ID)
			}()

			ctx = context.WithValue(ctx, APIKeyContextKey, storedKey)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the API key from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

func unauthorized(w http.ResponseWriter, message string) {
	http.Error(w, fmt.Sprintf(`{"code":401,"message":%q}`, message), http.StatusUnauthorized)
}

func internalError(w http.ResponseWriter) {
	http.Error(w, `{"code":500,"message":"internal server error"}`, http.StatusInternalServerError)
}

// hashAPIKey mirrors the handler-side hashing: SHA-256 hex over the raw key.
// Keys are high-entropy random strings, so a fast unsalted hash is enough
// for lookup.
func hashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// GetAPIKeyFromContext returns the authenticated key, or nil outside Auth.
func GetAPIKeyFromContext(ctx context.Context) *domain.APIKey {
	key, _ := ctx.Value(APIKeyContextKey).(*domain.APIKey)
	return key
}
