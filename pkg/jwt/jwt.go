package jwt

import (
	"errors"
	"slices"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Identity is what a verified token proves about its bearer.
type Identity struct {
	UserID string   `json:"user_id"`
	Roles  []string `json:"roles,omitempty"`
}

// HasRole reports whether the identity carries role.
func (i Identity) HasRole(role string) bool {
	return slices.Contains(i.Roles, role)
}

// Claims is the token payload: registered claims with the user id as
// subject, plus roles.
type Claims struct {
	gojwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Service issues and verifies HS256 tokens.
type Service struct {
	key    []byte
	issuer string
	ttl    time.Duration
	clock  clockwork.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for issuing and validating.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// New creates a Service from cfg.
func New(cfg Config, opts ...Option) (*Service, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	s := &Service{
		key:    []byte(cfg.SigningKey),
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		clock:  clockwork.NewRealClock(),
	}
	if s.ttl <= 0 {
		s.ttl = 15 * time.Minute
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token for id.
func (s *Service) Issue(id Identity) (string, error) {
	if id.UserID == "" {
		return "", ErrMissingSubject
	}
	now := s.clock.Now()
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, Claims{
		RegisteredClaims: gojwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   id.UserID,
			Issuer:    s.issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
		Roles: id.Roles,
	})
	return token.SignedString(s.key)
}

// Verify checks signature, expiry and issuer and returns the identity.
// Expired tokens yield ErrExpiredToken; anything else wrong yields
// ErrInvalidToken.
func (s *Service) Verify(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
		gojwt.WithTimeFunc(s.clock.Now),
		gojwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.issuer))
	}

	claims := &Claims{}
	parsed, err := gojwt.ParseWithClaims(token, claims, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.key, nil
	}, opts...)
	switch {
	case errors.Is(err, gojwt.ErrTokenExpired):
		return Identity{}, errors.Join(ErrExpiredToken, err)
	case err != nil:
		return Identity{}, errors.Join(ErrInvalidToken, err)
	case !parsed.Valid:
		return Identity{}, ErrInvalidToken
	case claims.Subject == "":
		return Identity{}, errors.Join(ErrInvalidToken, ErrMissingSubject)
	}

	return Identity{UserID: claims.Subject, Roles: claims.Roles}, nil
}
