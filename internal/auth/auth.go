// Package auth turns a bearer token into an operator principal. Token
// issuance and the permission model live in the console backend; this
// service only verifies and reads.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	AgentID     int64    `json:"agent_id"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Principal is the authenticated operator attached to a request.
type Principal struct {
	AgentID     int64
	Permissions []string
}

func (p *Principal) Has(perm string) bool {
	for _, g := range p.Permissions {
		if g == perm {
			return true
		}
	}
	return false
}

type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

func (v *Verifier) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return &Principal{AgentID: claims.AgentID, Permissions: claims.Permissions}, nil
}

// Sign issues a token for the given principal. Used by tests and the local
// development CLI; production tokens come from the console backend.
func (v *Verifier) Sign(agentID int64, permissions []string, ttl time.Duration) (string, error) {
	claims := Claims{
		AgentID:     agentID,
		Permissions: permissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
