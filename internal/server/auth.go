package server

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// SessionReader extracts the caller's Google OAuth access token from the
// signed session cookie. A missing, malformed, expired, or tampered cookie
// yields an empty token and the request proceeds without the Merchant Center
// signal.
type SessionReader struct {
	cookieName string
	secret     []byte
	logger     zerolog.Logger
}

// NewSessionReader creates a session reader. With an empty secret every
// session is treated as absent.
func NewSessionReader(cookieName, secret string, logger zerolog.Logger) *SessionReader {
	return &SessionReader{
		cookieName: cookieName,
		secret:     []byte(secret),
		logger:     logger.With().Str("component", "SessionReader").Logger(),
	}
}

// CookieName returns the configured session cookie name.
func (r *SessionReader) CookieName() string {
	return r.cookieName
}

// AccessToken parses and verifies the session JWT and returns the embedded
// access_token claim, or empty.
func (r *SessionReader) AccessToken(cookieValue string) string {
	if cookieValue == "" || len(r.secret) == 0 {
		return ""
	}

	token, err := jwt.Parse(cookieValue, func(t *jwt.Token) (interface{}, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		r.logger.Debug().Err(err).Msg("Session token rejected")
		return ""
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	accessToken, _ := claims["access_token"].(string)
	return accessToken
}
