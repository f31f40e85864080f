package signer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// SubjectFromJWT extracts the "sub" claim (the entity's public ID) from an
// issued token without verifying it. Verification belongs to the broker; the
// core only needs the ID for cross-referencing configs.
func SubjectFromJWT(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("invalid JWT format: %d parts", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decoding JWT payload: %w", err)
	}
	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("parsing JWT payload: %w", err)
	}
	if claims.Sub == "" {
		return "", fmt.Errorf("no 'sub' field in JWT")
	}
	return claims.Sub, nil
}
