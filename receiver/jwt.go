package receiver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bjaus/hook"
)

var (
	ErrMissingToken = errors.New("receiver: bearer token is required")
	ErrBadToken     = errors.New("receiver: bearer token is invalid")
)

// JWT accepts requests carrying a signed bearer token in the Authorization
// header. Expiry and not-before claims are enforced when present.
type JWT struct {
	// Key verifies the token signature: a []byte secret for HMAC methods, a
	// public key otherwise.
	Key any
	// Methods lists the accepted signing algorithms. Defaults to HS256.
	Methods []string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// EventClaim names a string claim whose value becomes the event name.
	EventClaim string
}

// Validate implements hook.Receiver.
func (j *JWT) Validate(_ context.Context, r *http.Request) (*http.Request, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil, ErrMissingToken
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if raw == "" {
		return nil, ErrMissingToken
	}

	methods := j.Methods
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodHS256.Alg()}
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods(methods)}
	if j.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(j.Issuer))
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return j.Key, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadToken, err)
	}

	if j.EventClaim != "" {
		if event, ok := claims[j.EventClaim].(string); ok && event != "" {
			r = hook.WithEventName(r, event)
		}
	}
	return r, nil
}
