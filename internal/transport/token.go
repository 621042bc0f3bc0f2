package transport

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenExpiry = time.Hour

// TokenIssuer mints and validates rejoin tokens: a signed claim binding a
// participant id to a session id, so a disconnected player can reclaim
// their side without any account system.
type TokenIssuer struct {
	secret []byte
}

// NewTokenIssuer creates an issuer from a hex secret; an empty secret
// generates a random per-process one (tokens then die with the process,
// which matches the ephemeral session model)
func NewTokenIssuer(secretHex string) (*TokenIssuer, error) {
	if secretHex != "" {
		secret, err := hex.DecodeString(secretHex)
		if err != nil {
			return nil, fmt.Errorf("invalid token secret: %w", err)
		}
		return &TokenIssuer{secret: secret}, nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return &TokenIssuer{secret: secret}, nil
}

// Issue signs a rejoin token for a participant in a session
func (ti *TokenIssuer) Issue(sessionID, participantID string) (string, error) {
	claims := jwt.MapClaims{
		"sid": sessionID,
		"pid": participantID,
		"exp": time.Now().Add(tokenExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(ti.secret)
}

// Validate checks a rejoin token and returns the bound session and
// participant ids
func (ti *TokenIssuer) Validate(tokenStr string) (sessionID, participantID string, err error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	sid, _ := claims["sid"].(string)
	pid, _ := claims["pid"].(string)
	if sid == "" || pid == "" {
		return "", "", fmt.Errorf("malformed token claims")
	}
	return sid, pid, nil
}
