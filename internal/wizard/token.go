package wizard

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "business-cards"

	// DefaultDraftTTL bounds how long a visitor may keep customizing.
	DefaultDraftTTL = time.Hour
)

// TokenService signs and verifies draft tokens.
//
// A draft token is an HS256 JWT whose subject is the profile ID. The server
// needs no storage to check it, only the secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; a zero ttl means DefaultDraftTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("wizard: draft secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

type claims struct {
	Step Step `json:"step"`
	jwt.RegisteredClaims
}

// Issue signs a draft token for the profile that was just saved.
func (s *TokenService) Issue(profileID string) (string, error) {
	now := s.now()

	c := claims{
		Step: StepCustomizing,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profileID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("wizard: signing draft token: %w", err)
	}
	return signed, nil
}

// Verify checks a draft token and returns the state it encodes.
//
// Only HS256 is accepted, which rules out "alg: none" and key confusion.
func (s *TokenService) Verify(tokenStr string) (State, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("wizard: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return State{}, fmt.Errorf("wizard: draft expired")
		}
		return State{}, fmt.Errorf("wizard: invalid draft: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return State{}, fmt.Errorf("wizard: invalid draft claims")
	}
	if c.Subject == "" {
		return State{}, fmt.Errorf("wizard: draft has no profile")
	}
	if c.Step != StepCustomizing {
		return State{}, fmt.Errorf("wizard: draft is in step %q", c.Step)
	}

	return Customizing(c.Subject), nil
}
