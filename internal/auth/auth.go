// Package auth validates bearer tokens and carries the verified subject on
// the request context.
package auth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds verification parameters. RS256 tokens are accepted when a key
// source is configured, HS256 tokens when Secret is set.
type Config struct {
	Issuer   string
	Audience string
	Secret   string
	Leeway   time.Duration
}

// Claims represents the payload extracted from a JWT.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// KeySource resolves RSA verification keys by key id.
type KeySource interface {
	GetKey(ctx context.Context, kid string) (*rsa.PublicKey, error)
}

// Verifier checks signatures and registered claims.
type Verifier struct {
	cfg  Config
	keys KeySource
}

// NewVerifier constructs a Verifier. keys may be nil when only HS256 is used.
func NewVerifier(cfg Config, keys KeySource) *Verifier {
	return &Verifier{cfg: cfg, keys: keys}
}

func (v *Verifier) methods() []string {
	var out []string
	if v.keys != nil {
		out = append(out, jwt.SigningMethodRS256.Name)
	}
	if v.cfg.Secret != "" {
		out = append(out, jwt.SigningMethodHS256.Name)
	}
	return out
}

// Parse validates a JWT and returns normalized claims.
func (v *Verifier) Parse(ctx context.Context, token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods(v.methods()),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.cfg.Leeway),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		switch t.Method.(type) {
		case *jwt.SigningMethodRSA:
			if v.keys == nil {
				return nil, fmt.Errorf("rsa tokens not accepted")
			}
			kid, _ := t.Header["kid"].(string)
			return v.keys.GetKey(ctx, kid)
		case *jwt.SigningMethodHMAC:
			if v.cfg.Secret == "" {
				return nil, fmt.Errorf("hmac tokens not accepted")
			}
			return []byte(v.cfg.Secret), nil
		default:
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return nil, ErrInvalidToken
	}
	email, _ := claims["email"].(string)

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Claims{
		Subject:   subject,
		Email:     email,
		ExpiresAt: exp.Time,
	}, nil
}
