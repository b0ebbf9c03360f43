package authentication

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

var ErrInvalidToken = fmt.Errorf("invalid token")
var ErrTokenExpired = fmt.Errorf("token expired")

type Config struct {
	Algorithm     string
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

const (
	DefaultAlgorithm     string        = "HS256"
	DefaultAccessExpiry  time.Duration = 1440 * time.Minute
	DefaultRefreshExpiry time.Duration = 10080 * time.Minute
)

type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// TokenIssuer signs and verifies access and refresh tokens with independent keys
type TokenIssuer struct {
	access        *jwtauth.JWTAuth
	refresh       *jwtauth.JWTAuth
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

func NewTokenIssuer(cfg Config) *TokenIssuer {
	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}

	accessExpiry := cfg.AccessExpiry
	if accessExpiry <= 0 {
		accessExpiry = DefaultAccessExpiry
	}

	refreshExpiry := cfg.RefreshExpiry
	if refreshExpiry <= 0 {
		refreshExpiry = DefaultRefreshExpiry
	}

	return &TokenIssuer{
		access:        jwtauth.New(alg, []byte(cfg.AccessSecret), nil),
		refresh:       jwtauth.New(alg, []byte(cfg.RefreshSecret), nil),
		accessExpiry:  accessExpiry,
		refreshExpiry: refreshExpiry,
	}
}

// AccessAuth exposes the access token verifier for use in http middleware
func (t *TokenIssuer) AccessAuth() *jwtauth.JWTAuth {
	return t.access
}

func (t *TokenIssuer) RefreshExpiry() time.Duration {
	return t.refreshExpiry
}

func (t *TokenIssuer) IssueAccessToken(subject string) (string, time.Time, error) {
	return issue(t.access, subject, time.Now().Add(t.accessExpiry))
}

func (t *TokenIssuer) IssueRefreshToken(subject string) (string, time.Time, error) {
	return issue(t.refresh, subject, time.Now().Add(t.refreshExpiry))
}

func (t *TokenIssuer) DecodeAccessToken(token string) (Claims, error) {
	return decode(t.access, token)
}

func (t *TokenIssuer) DecodeRefreshToken(token string) (Claims, error) {
	return decode(t.refresh, token)
}

func issue(ja *jwtauth.JWTAuth, subject string, expiresAt time.Time) (string, time.Time, error) {
	// jti keeps tokens minted within the same second distinct
	claims := map[string]any{"sub": subject, "jti": uuid.NewString()}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiry(claims, expiresAt)

	_, tokenString, err := ja.Encode(claims)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, time.Unix(expiresAt.Unix(), 0).UTC(), nil
}

func decode(ja *jwtauth.JWTAuth, tokenString string) (Claims, error) {
	token, err := jwtauth.VerifyToken(ja, tokenString)
	if err != nil {
		if errors.Is(err, jwtauth.ErrExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	err = jwt.Validate(token, jwt.WithRequiredClaim(jwt.SubjectKey), jwt.WithRequiredClaim(jwt.ExpirationKey))
	if err != nil || token.Subject() == "" {
		return Claims{}, ErrInvalidToken
	}

	return Claims{
		Subject:   token.Subject(),
		ExpiresAt: token.Expiration(),
	}, nil
}
