package shared

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
)

// CSRFManager issues and verifies per-session CSRF tokens using an HMAC keyed secret.
type CSRFManager struct {
	secret []byte
}

// NewCSRFManager constructs a CSRFManager from a shared secret.
func NewCSRFManager(secret string) *CSRFManager {
	return &CSRFManager{secret: []byte(secret)}
}

// TokenFor derives the token for a given session identifier.
func (cm *CSRFManager) TokenFor(sessionID string) string {
	mac := hmac.New(sha256.New, cm.secret)
	mac.Write([]byte(sessionID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks that token is valid for the session identifier.
func (cm *CSRFManager) Verify(sessionID, token string) error {
	if token == "" {
		return ErrCSRFTokenMissing
	}
	expected := cm.TokenFor(sessionID)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return ErrCSRFTokenMismatch
	}
	return nil
}

// TokenFromRequest extracts the submitted token: header first, form field second.
func TokenFromRequest(r *http.Request) string {
	if token := r.Header.Get("X-CSRF-Token"); token != "" {
		return token
	}
	return r.PostFormValue("csrf_token")
}
