package authentication

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
)

const TokenType string = "bearer"

type Sessions interface {
	Login(ctx context.Context, email, password string) (types.Token, error)
	Refresh(ctx context.Context, refreshToken string) (types.AccessToken, error)
	Logout(ctx context.Context, accessToken string) error

	// Authenticate resolves an access token into the active user it was issued for
	Authenticate(ctx context.Context, accessToken string) (database.User, error)
}

type sessions struct {
	issuer *TokenIssuer
	users  database.UserRepository
	tokens database.TokenRepository
}

func NewSessions(issuer *TokenIssuer, users database.UserRepository, tokens database.TokenRepository) Sessions {
	return &sessions{
		issuer: issuer,
		users:  users,
		tokens: tokens,
	}
}

func (s *sessions) Login(ctx context.Context, email, password string) (types.Token, error) {
	log := logging.GetLoggerFromContext(ctx)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.Token{}, application.NewError(application.ErrUnauthorized, "Incorrect username or password")
		}
		return types.Token{}, err
	}

	if user.Password == nil || !VerifyPassword(password, *user.Password) {
		log.Info().Str("user_id", user.ID).Msg("password mismatch on login")
		return types.Token{}, application.NewError(application.ErrUnauthorized, "Incorrect username or password")
	}

	if !user.IsActive {
		return types.Token{}, application.NewError(application.ErrForbidden, "Inactive user")
	}

	access, exp, err := s.issuer.IssueAccessToken(user.ID)
	if err != nil {
		return types.Token{}, err
	}

	refresh, _, err := s.issuer.IssueRefreshToken(user.ID)
	if err != nil {
		return types.Token{}, err
	}

	token := database.Token{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		Status:       true,
	}

	err = s.tokens.Create(ctx, &token)
	if err != nil {
		return types.Token{}, fmt.Errorf("failed to store issued tokens: %w", err)
	}

	return types.Token{
		TokenID:      token.ID,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenType,
		Status:       token.Status,
		CreatedAt:    token.CreatedAt,
		Exp:          exp.Unix(),
	}, nil
}

func (s *sessions) Refresh(ctx context.Context, refreshToken string) (types.AccessToken, error) {
	claims, err := s.issuer.DecodeRefreshToken(refreshToken)
	if err != nil {
		return types.AccessToken{}, unauthorized(err)
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return types.AccessToken{}, application.NewError(application.ErrUnauthorized, "User not found")
		}
		return types.AccessToken{}, err
	}

	if !user.IsActive {
		return types.AccessToken{}, application.NewError(application.ErrUnauthorized, "Inactive user")
	}

	access, _, err := s.issuer.IssueAccessToken(user.ID)
	if err != nil {
		return types.AccessToken{}, err
	}

	return types.AccessToken{AccessToken: access, TokenType: TokenType}, nil
}

func (s *sessions) Logout(ctx context.Context, accessToken string) error {
	token, err := s.tokens.GetByAccessToken(ctx, accessToken)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return application.NewError(application.ErrNotFound, "Token not found")
		}
		return err
	}

	return s.tokens.Revoke(ctx, token.ID, time.Now().UTC())
}

func (s *sessions) Authenticate(ctx context.Context, accessToken string) (database.User, error) {
	claims, err := s.issuer.DecodeAccessToken(accessToken)
	if err != nil {
		return database.User{}, unauthorized(err)
	}

	token, err := s.tokens.GetByAccessToken(ctx, accessToken)
	if err == nil && !token.Status {
		return database.User{}, application.NewError(application.ErrUnauthorized, "Token has been revoked")
	} else if err != nil && !errors.Is(err, database.ErrNotFound) {
		return database.User{}, err
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.User{}, application.NewError(application.ErrUnauthorized, "Could not validate credentials")
		}
		return database.User{}, err
	}

	if !user.IsActive {
		return database.User{}, application.NewError(application.ErrForbidden, "Inactive user")
	}

	return user, nil
}

func unauthorized(err error) error {
	if errors.Is(err, ErrTokenExpired) {
		return application.NewError(application.ErrUnauthorized, "Token expired")
	}
	return application.NewError(application.ErrUnauthorized, "Could not validate credentials")
}
