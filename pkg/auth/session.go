package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenError is returned, when a session token is missing, malformed,
// expired or signed with the wrong key.
var TokenError = errors.New("invalid session token")

// SessionClaims are the claims carried by a participant session token.
type SessionClaims struct {
	ParticipantID string `json:"pid"`
	jwt.RegisteredClaims
}

// SessionManager issues and verifies signed participant session tokens.
// Instances are configured once at startup and treated as immutable.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
}

// NewSessionManager creates a manager signing HS256 tokens with the given
// secret and lifetime.
func NewSessionManager(secret string, ttl time.Duration) (*SessionManager, error) {
	if secret == "" {
		return nil, errors.New("the session secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("the session token lifetime must be positive")
	}
	return &SessionManager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue creates a signed session token for the given participant.
func (m *SessionManager) Issue(participantID string, now time.Time) (string, error) {
	claims := SessionClaims{
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify parses and validates the given token and returns the participant
// id it was issued for.
func (m *SessionManager) Verify(tokenString string) (string, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, TokenError
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return "", TokenError
	}
	if claims.ParticipantID == "" {
		return "", TokenError
	}
	return claims.ParticipantID, nil
}
