package utils // package utils provides helper functions for token creation and hashing

import (
    "errors" // sentinel errors for token validation
    "time"   // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// ErrInvalidToken is returned when a session token is malformed, expired or
// signed with another key.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken is a signed HS256 JWT naming a server-side session.  The
// token carries no user data; the session record holds the state.
type SessionToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// sessionClaims is the claim set stored in the token.
type sessionClaims struct {
    SessionID string `json:"sid"`
    jwt.RegisteredClaims
}

// NewSessionToken signs a token for session id sid that expires after ttl.
func NewSessionToken(secret, sid string, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    claims := sessionClaims{
        SessionID: sid,
        RegisteredClaims: jwt.RegisteredClaims{
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
            Issuer:    "pickflix",
        },
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken validates raw and returns the session id it names.
// Tokens using a signing method other than HMAC are rejected.
func ParseSessionToken(secret, raw string) (string, error) {
    var claims sessionClaims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return []byte(secret), nil
    })
    if err != nil || !tok.Valid || claims.SessionID == "" {
        return "", ErrInvalidToken
    }
    return claims.SessionID, nil
}
