// Package queueauth signs and verifies the settlement queue envelope's
// request-id token (spec §6's "scheduled invocation contract"): the job
// that enqueues a finished-match message stamps it with a token the
// queue-triggered settle-predictions driver can verify before trusting the
// message came from this engine rather than an arbitrary queue publisher.
package queueauth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type claims struct {
	RequestID string `json:"requestId"`
	jwt.RegisteredClaims
}

// Sign builds a short-lived HMAC-signed token binding requestID (the
// enqueuing run's ScraperRun.ID) to the message.
func Sign(secret, requestID string) (string, error) {
	if secret == "" {
		return "", nil // queue auth disabled; settle-predictions skips verification
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RequestID: requestID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("queueauth: sign: %w", err)
	}
	return signed, nil
}

// Verify checks tokenStr was signed with secret and returns the request id
// it carries. An empty secret disables verification (any token, including
// an empty one, is accepted) for deployments that haven't configured one.
func Verify(secret, tokenStr string) (string, error) {
	if secret == "" {
		return "", nil
	}
	var c claims
	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("queueauth: unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("queueauth: verify: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("queueauth: token invalid")
	}
	return c.RequestID, nil
}
