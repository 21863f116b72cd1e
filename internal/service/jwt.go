package service

import (
	"errors"
	"fmt"
	"time"

	"promptmatch/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type sessionClaims struct {
	MatchID  string `json:"match_id"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Host     bool   `json:"host"`
	jwt.RegisteredClaims
}

// TokenIssuer signs sessions into HS256 tokens so a client can carry its
// identity between requests and sockets.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

func (t *TokenIssuer) Issue(sess domain.Session) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		MatchID:  sess.MatchID,
		PlayerID: sess.PlayerID,
		Name:     sess.Name,
		Host:     sess.Host,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  sess.PlayerID,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if t.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(t.ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *TokenIssuer) Parse(tokenString string) (domain.Session, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return domain.Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return domain.Session{}, ErrInvalidToken
	}

	sess := domain.Session{
		MatchID:  claims.MatchID,
		PlayerID: claims.PlayerID,
		Name:     claims.Name,
		Host:     claims.Host,
	}
	if !sess.Valid() {
		return domain.Session{}, ErrInvalidToken
	}
	return sess, nil
}
