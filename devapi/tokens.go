package devapi

import (
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/go-portfolio/internal/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Token types, carried in the token_type claim so a refresh token cannot be
// used as an access token or the other way round.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Issuer creates and verifies the HS256 tokens of the development backend.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewIssuer creates a new token issuer
func NewIssuer(secret string, accessTTL, refreshTTL time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("[devapi NewIssuer] signing secret is required")
	}
	return &Issuer{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// CreateAccessToken issues a short-lived access token for subject
func (i *Issuer) CreateAccessToken(subject string) (string, error) {
	return i.create(subject, TokenTypeAccess, i.accessTTL)
}

// CreateRefreshToken issues a refresh token for subject
func (i *Issuer) CreateRefreshToken(subject string) (string, error) {
	return i.create(subject, TokenTypeRefresh, i.refreshTTL)
}

func (i *Issuer) create(subject, tokenType string, ttl time.Duration) (string, error) {
	now := NowTimeFunc()
	claims := jwtlib.MapClaims{
		"sub":        subject,
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		"jti":        uuid.NewString(), // distinct tokens even within one second
		"token_type": tokenType,
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign JWT token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry and type, and returns the subject.
func (i *Issuer) Verify(raw, wantType string) (string, error) {
	claims := jwtlib.MapClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims,
		func(t *jwtlib.Token) (any, error) { return i.secret, nil },
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if errors.Is(err, jwtlib.ErrTokenExpired) {
		return "", apperrors.ErrTokenExpired
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}
	if tokenType, _ := claims["token_type"].(string); tokenType != wantType {
		return "", fmt.Errorf("%w: not an %s token", apperrors.ErrInvalidToken, wantType)
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: missing subject", apperrors.ErrInvalidToken)
	}
	return subject, nil
}
