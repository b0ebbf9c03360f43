package database

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type TokenRepository interface {
	GetByAccessToken(ctx context.Context, accessToken string) (Token, error)
	Create(ctx context.Context, token *Token) error
	Revoke(ctx context.Context, id string, at time.Time) error
	RevokeIssuedBefore(ctx context.Context, t time.Time) (int64, error)
}

type tokenRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func (r *tokenRepository) GetByAccessToken(ctx context.Context, accessToken string) (Token, error) {
	var token Token
	err := r.db.WithContext(ctx).Where("access_token = ?", accessToken).First(&token).Error
	return token, translate(r.log, err)
}

func (r *tokenRepository) Create(ctx context.Context, token *Token) error {
	return translate(r.log, r.db.WithContext(ctx).Omit("User").Create(token).Error)
}

func (r *tokenRepository) Revoke(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&Token{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": false, "revoked_at": at})
	if result.Error != nil {
		return translate(r.log, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeIssuedBefore revokes every active token created before t and returns how many were changed
func (r *tokenRepository) RevokeIssuedBefore(ctx context.Context, t time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&Token{}).
		Where("status = ? AND created_at < ?", true, t).
		Updates(map[string]any{"status": false, "revoked_at": time.Now().UTC()})
	return result.RowsAffected, translate(r.log, result.Error)
}
