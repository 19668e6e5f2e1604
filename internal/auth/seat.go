// Package auth issues and verifies seat tokens. A seat token binds a
// network connection to one player of one match.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "skirmish-server"

var (
	// ErrInvalidToken is returned for malformed, expired or forged tokens.
	ErrInvalidToken = errors.New("invalid seat token")
	// ErrNotConfigured is returned when no signing secret is set.
	ErrNotConfigured = errors.New("seat tokens are not configured")
)

// Seat identifies a player in a match.
type Seat struct {
	MatchID string
	Player  int
}

type seatClaims struct {
	jwt.RegisteredClaims
	MatchID string `json:"match_id"`
	Player  int    `json:"player"`
}

// SeatTokens signs seat tokens with HS256.
type SeatTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSeatTokens returns a signer. An empty secret yields a signer whose
// every call fails with ErrNotConfigured.
func NewSeatTokens(secret string, ttl time.Duration) *SeatTokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SeatTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Enabled reports whether a secret is configured.
func (s *SeatTokens) Enabled() bool { return len(s.secret) > 0 }

// Issue signs a token for seat.
func (s *SeatTokens) Issue(seat Seat) (string, error) {
	if !s.Enabled() {
		return "", ErrNotConfigured
	}
	now := s.now()
	claims := seatClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   fmt.Sprintf("%s/%d", seat.MatchID, seat.Player),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		MatchID: seat.MatchID,
		Player:  seat.Player,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign seat token: %w", err)
	}
	return token, nil
}

// Verify checks the signature, issuer and lifetime of token and returns
// the seat it grants.
func (s *SeatTokens) Verify(token string) (Seat, error) {
	if !s.Enabled() {
		return Seat{}, ErrNotConfigured
	}
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Seat{}, fmt.Errorf("%w: token is required", ErrInvalidToken)
	}

	var claims seatClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return Seat{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.MatchID == "" || claims.Player < 0 || claims.Player > 1 {
		return Seat{}, fmt.Errorf("%w: bad seat claims", ErrInvalidToken)
	}
	return Seat{MatchID: claims.MatchID, Player: claims.Player}, nil
}
