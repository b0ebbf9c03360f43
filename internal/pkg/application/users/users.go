package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
)

type UserService interface {
	Register(ctx context.Context, user types.UserCreate) (types.User, error)

	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, offset, limit uint64) ([]types.User, error)

	Update(ctx context.Context, id string, patch types.UserUpdate) (types.User, error)
	ChangePassword(ctx context.Context, email, newPassword string) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	users database.UserRepository
}

func New(users database.UserRepository) UserService {
	return &service{users: users}
}

func (s *service) Register(ctx context.Context, u types.UserCreate) (types.User, error) {
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return types.User{}, application.NewError(application.ErrBadRequest, "Invalid email address")
	}

	if u.Password == "" {
		return types.User{}, application.NewError(application.ErrBadRequest, "Password is required")
	}

	if err := s.checkUnique(ctx, "", &u.Email, u.PhoneNo); err != nil {
		return types.User{}, err
	}

	hash, err := authentication.HashPassword(u.Password)
	if err != nil {
		return types.User{}, err
	}

	// self registered accounts always start as active users, promotion goes through Update
	user := database.User{
		Fullname: u.Fullname,
		Role:     application.RoleUser,
		Email:    u.Email,
		PhoneNo:  nilIfEmpty(u.PhoneNo),
		Password: &hash,
		IsActive: true,
	}

	err = s.users.Create(ctx, &user)
	if err != nil {
		return types.User{}, err
	}

	log := logging.GetLoggerFromContext(ctx)
	log.Info().Str("user_id", user.ID).Msg("user registered")

	return application.MapUser(user), nil
}

func (s *service) GetByID(ctx context.Context, id string) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return types.User{}, notFound(err)
	}
	return application.MapUser(user), nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (types.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return types.User{}, notFound(err)
	}
	return application.MapUser(user), nil
}

func (s *service) List(ctx context.Context, offset, limit uint64) ([]types.User, error) {
	users, err := s.users.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	return application.MapUsers(users.Data), nil
}

func (s *service) Update(ctx context.Context, id string, patch types.UserUpdate) (types.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return types.User{}, notFound(err)
	}

	if err := s.checkUnique(ctx, id, patch.Email, patch.PhoneNo); err != nil {
		return types.User{}, err
	}

	merge(&user, patch)

	err = s.users.Update(ctx, &user)
	if err != nil {
		return types.User{}, notFound(err)
	}

	return application.MapUser(user), nil
}

func (s *service) ChangePassword(ctx context.Context, email, newPassword string) error {
	if newPassword == "" {
		return application.NewError(application.ErrBadRequest, "Password is required")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return notFound(err)
	}

	hash, err := authentication.HashPassword(newPassword)
	if err != nil {
		return err
	}

	user.Password = &hash

	return notFound(s.users.Update(ctx, &user))
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return notFound(err)
	}

	count, err := s.users.CountDevices(ctx, id)
	if err != nil {
		return err
	}

	if count > 0 {
		return application.NewError(application.ErrConflict, "User still owns %d devices", count)
	}

	return notFound(s.users.Delete(ctx, id))
}

// checkUnique makes sure that no user other than id already uses email or phone number
func (s *service) checkUnique(ctx context.Context, id string, email, phoneNo *string) error {
	if email != nil {
		existing, err := s.users.GetByEmail(ctx, *email)
		if err == nil && existing.ID != id {
			return application.NewError(application.ErrConflict, "Email already registered")
		} else if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
	}

	if phoneNo != nil && *phoneNo != "" {
		existing, err := s.users.GetByPhoneNo(ctx, *phoneNo)
		if err == nil && existing.ID != id {
			return application.NewError(application.ErrConflict, "Phone number already registered")
		} else if err != nil && !errors.Is(err, database.ErrNotFound) {
			return err
		}
	}

	return nil
}

func merge(user *database.User, patch types.UserUpdate) {
	if patch.Fullname != nil {
		user.Fullname = *patch.Fullname
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.Email != nil {
		user.Email = strings.TrimSpace(*patch.Email)
	}
	if patch.PhoneNo != nil {
		user.PhoneNo = nilIfEmpty(patch.PhoneNo)
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	if patch.Provider != nil {
		user.Provider = patch.Provider
	}
	if patch.ProviderID != nil {
		user.ProviderID = patch.ProviderID
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}
}

func nilIfEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

func notFound(err error) error {
	if errors.Is(err, database.ErrNotFound) {
		return application.NewError(application.ErrNotFound, "User not found")
	}
	return err
}
