package database

import (
	"context"
	"strings"
	"time"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByPhoneNo(ctx context.Context, phoneNo string) (User, error)
	List(ctx context.Context, offset, limit uint64) (repositories.Collection[User], error)
	CountDevices(ctx context.Context, id string) (int64, error)

	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	db  *gorm.DB
	log zerolog.Logger
}

func (r *userRepository) GetByID(ctx context.Context, id string) (User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	return user, translate(r.log, err)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("LOWER(email) = ?", strings.ToLower(email)).First(&user).Error
	return user, translate(r.log, err)
}

func (r *userRepository) GetByPhoneNo(ctx context.Context, phoneNo string) (User, error) {
	var user User
	err := r.db.WithContext(ctx).Where("phone_no = ?", phoneNo).First(&user).Error
	return user, translate(r.log, err)
}

func (r *userRepository) List(ctx context.Context, offset, limit uint64) (repositories.Collection[User], error) {
	users, err := paginate[User](ctx, r.db, all, "created_at, id", offset, limit)
	return users, translate(r.log, err)
}

func (r *userRepository) CountDevices(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Device{}).Where("owner_id = ?", id).Count(&count).Error
	return count, translate(r.log, err)
}

func (r *userRepository) Create(ctx context.Context, user *User) error {
	return translate(r.log, r.db.WithContext(ctx).Create(user).Error)
}

func (r *userRepository) Update(ctx context.Context, user *User) error {
	user.UpdatedAt = time.Now().UTC()

	result := r.db.WithContext(ctx).Model(&User{ID: user.ID}).Select("*").Omit("id", "created_at").Updates(user)
	if result.Error != nil {
		return translate(r.log, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes the user together with every token issued to it
func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", id).Delete(&Token{}).Error
		if err != nil {
			return translate(r.log, err)
		}

		result := tx.Where("id = ?", id).Delete(&User{})
		if result.Error != nil {
			return translate(r.log, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}

		return nil
	})
}
