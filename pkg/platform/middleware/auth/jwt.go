package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload the tenancy API expects. The subject is the
// acting user's id; the names are carried onto invitation events.
type Claims struct {
	GivenName  string `json:"given_name,omitempty"`
	FamilyName string `json:"family_name,omitempty"`
	jwt.RegisteredClaims
}

// HS256Validator verifies HMAC-SHA256 signed tokens.
type HS256Validator struct {
	key    []byte
	parser *jwt.Parser
}

type ValidatorOption func(*validatorConfig)

type validatorConfig struct {
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

func WithIssuer(issuer string) ValidatorOption {
	return func(c *validatorConfig) { c.issuer = issuer }
}

func WithAudience(audience string) ValidatorOption {
	return func(c *validatorConfig) { c.audience = audience }
}

func WithLeeway(d time.Duration) ValidatorOption {
	return func(c *validatorConfig) { c.leeway = d }
}

// WithClock overrides the time used for exp/nbf checks.
func WithClock(now func() time.Time) ValidatorOption {
	return func(c *validatorConfig) { c.now = now }
}

func NewHS256Validator(signingKey string, opts ...ValidatorOption) *HS256Validator {
	cfg := &validatorConfig{leeway: 30 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(cfg)
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.leeway),
		jwt.WithTimeFunc(cfg.now),
		jwt.WithExpirationRequired(),
	}
	if cfg.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(cfg.issuer))
	}
	if cfg.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(cfg.audience))
	}
	return &HS256Validator{
		key:    []byte(signingKey),
		parser: jwt.NewParser(parserOpts...),
	}
}

// ValidateToken checks signature and registered claims and requires a subject.
func (v *HS256Validator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := v.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Sign issues an HS256 token for claims. Used by tokengen and tests.
func Sign(signingKey string, claims Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(signingKey))
}

// NewClaims builds claims for subject expiring ttl after now.
func NewClaims(subject, givenName, familyName string, now time.Time, ttl time.Duration) Claims {
	return Claims{
		GivenName:  givenName,
		FamilyName: familyName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
}
