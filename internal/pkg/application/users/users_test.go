package users

import (
	"context"
	"errors"
	"testing"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/authentication"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/matryer/is"
)

func TestThatUsersCanBeRegistered(t *testing.T) {
	is, ctx, store, svc := testSetup(t)

	phone := "0701234567"
	u, err := svc.Register(ctx, types.UserCreate{Fullname: "Alice", Email: "alice@example.com", PhoneNo: &phone, Password: "secret"})
	is.NoErr(err)
	is.Equal(u.Role, "user")
	is.True(u.IsActive)

	stored, err := store.Users().GetByID(ctx, u.UserID)
	is.NoErr(err)
	is.True(authentication.VerifyPassword("secret", *stored.Password))
}

func TestThatDuplicateEmailOrPhoneIsAConflict(t *testing.T) {
	is, ctx, _, svc := testSetup(t)

	phone := "0701234567"
	_, err := svc.Register(ctx, types.UserCreate{Email: "alice@example.com", PhoneNo: &phone, Password: "secret"})
	is.NoErr(err)

	_, err = svc.Register(ctx, types.UserCreate{Email: "Alice@example.com", Password: "secret"})
	is.True(errors.Is(err, application.ErrConflict))

	_, err = svc.Register(ctx, types.UserCreate{Email: "bob@example.com", PhoneNo: &phone, Password: "secret"})
	is.True(errors.Is(err, application.ErrConflict))
}

func TestThatRegistrationValidatesInput(t *testing.T) {
	is, ctx, _, svc := testSetup(t)

	_, err := svc.Register(ctx, types.UserCreate{Email: "not-an-email", Password: "secret"})
	is.True(errors.Is(err, application.ErrBadRequest))

	_, err = svc.Register(ctx, types.UserCreate{Email: "alice@example.com"})
	is.True(errors.Is(err, application.ErrBadRequest))
}

func TestThatUpdateOnlyChangesProvidedFields(t *testing.T) {
	is, ctx, _, svc := testSetup(t)

	u, err := svc.Register(ctx, types.UserCreate{Fullname: "Alice", Email: "alice@example.com", Password: "secret"})
	is.NoErr(err)

	name := "Alice Liddell"
	updated, err := svc.Update(ctx, u.UserID, types.UserUpdate{Fullname: &name})
	is.NoErr(err)
	is.Equal(updated.Fullname, "Alice Liddell")
	is.Equal(updated.Email, "alice@example.com")
	is.True(!updated.UpdatedAt.Before(u.UpdatedAt))

	_, err = svc.Update(ctx, "missing", types.UserUpdate{Fullname: &name})
	is.True(errors.Is(err, application.ErrNotFound))
}

func TestThatUpdateRejectsTakenEmail(t *testing.T) {
	is, ctx, _, svc := testSetup(t)

	_, err := svc.Register(ctx, types.UserCreate{Email: "alice@example.com", Password: "secret"})
	is.NoErr(err)
	bob, err := svc.Register(ctx, types.UserCreate{Email: "bob@example.com", Password: "secret"})
	is.NoErr(err)

	email := "alice@example.com"
	_, err = svc.Update(ctx, bob.UserID, types.UserUpdate{Email: &email})
	is.True(errors.Is(err, application.ErrConflict))

	email = "bob@example.com"
	_, err = svc.Update(ctx, bob.UserID, types.UserUpdate{Email: &email})
	is.NoErr(err)
}

func TestThatPasswordsCanBeChanged(t *testing.T) {
	is, ctx, store, svc := testSetup(t)

	u, err := svc.Register(ctx, types.UserCreate{Email: "alice@example.com", Password: "secret"})
	is.NoErr(err)

	is.NoErr(svc.ChangePassword(ctx, "alice@example.com", "new-secret"))

	stored, err := store.Users().GetByID(ctx, u.UserID)
	is.NoErr(err)
	is.True(authentication.VerifyPassword("new-secret", *stored.Password))

	err = svc.ChangePassword(ctx, "nobody@example.com", "x")
	is.True(errors.Is(err, application.ErrNotFound))
}

func TestThatUsersOwningDevicesCannotBeDeleted(t *testing.T) {
	is, ctx, store, svc := testSetup(t)

	u, err := svc.Register(ctx, types.UserCreate{Email: "alice@example.com", Password: "secret"})
	is.NoErr(err)

	device := database.Device{DeviceName: "kitchen", OwnerID: u.UserID}
	is.NoErr(store.Devices().Create(ctx, &device))

	err = svc.Delete(ctx, u.UserID)
	is.True(errors.Is(err, application.ErrConflict))

	is.NoErr(store.Devices().Delete(ctx, device.ID))
	is.NoErr(svc.Delete(ctx, u.UserID))

	err = svc.Delete(ctx, u.UserID)
	is.True(errors.Is(err, application.ErrNotFound))
}

func TestThatUsersCanBeListed(t *testing.T) {
	is, ctx, _, svc := testSetup(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Register(ctx, types.UserCreate{Email: email, Password: "secret"})
		is.NoErr(err)
	}

	users, err := svc.List(ctx, 1, 10)
	is.NoErr(err)
	is.Equal(len(users), 2)
	is.Equal(users[0].Email, "b@example.com")
}

func testSetup(t *testing.T) (*is.I, context.Context, *database.Datastore, UserService) {
	is := is.New(t)
	ctx := context.Background()

	store, err := database.New(database.NewSQLiteConnector(ctx, ""))
	is.NoErr(err)
	t.Cleanup(func() { store.Close() })

	return is, ctx, store, New(store.Users())
}
