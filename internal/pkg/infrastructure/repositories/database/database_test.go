package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/matryer/is"
)

func TestThatUsersCanBeCreatedAndFetchedByEmail(t *testing.T) {
	is, ctx, store := testSetup(t)

	u := createUser(ctx, is, store, "Alice@Example.com")
	is.True(u.ID != "")

	fromDb, err := store.Users().GetByEmail(ctx, "alice@example.com")
	is.NoErr(err)
	is.Equal(u.ID, fromDb.ID)

	_, err = store.Users().GetByEmail(ctx, "bob@example.com")
	is.True(errors.Is(err, ErrNotFound))
}

func TestThatDeviceNamesAreUniquePerOwner(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	bob := createUser(ctx, is, store, "bob@example.com")

	is.NoErr(store.Devices().Create(ctx, &Device{DeviceName: "kitchen", OwnerID: alice.ID}))
	is.NoErr(store.Devices().Create(ctx, &Device{DeviceName: "kitchen", OwnerID: bob.ID}))

	err := store.Devices().Create(ctx, &Device{DeviceName: "kitchen", OwnerID: alice.ID})
	is.True(errors.Is(err, ErrRepositoryError))
}

func TestThatDeletingADeviceRemovesItsSensorData(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	device := &Device{DeviceName: "kitchen", OwnerID: alice.ID}
	is.NoErr(store.Devices().Create(ctx, device))

	temp := 21.5
	reading := &SensorData{DeviceID: device.ID, Temperature: &temp}
	is.NoErr(store.SensorData().Create(ctx, reading))

	fromDb, err := store.SensorData().GetByID(ctx, reading.ID)
	is.NoErr(err)
	is.Equal(fromDb.Device.ID, device.ID)

	is.NoErr(store.Devices().Delete(ctx, device.ID))

	_, err = store.SensorData().GetByID(ctx, reading.ID)
	is.True(errors.Is(err, ErrNotFound))

	err = store.Devices().Delete(ctx, device.ID)
	is.True(errors.Is(err, ErrNotFound))
}

func TestThatSensorDataRequiresAnExistingDevice(t *testing.T) {
	is, ctx, store := testSetup(t)

	err := store.SensorData().Create(ctx, &SensorData{DeviceID: "no-such-device"})
	is.True(err != nil)
}

func TestThatTheSQLiteConnectorEnforcesForeignKeys(t *testing.T) {
	is := is.New(t)

	db, _, err := NewSQLiteConnector(context.Background(), "")()
	is.NoErr(err)

	var enabled int
	is.NoErr(db.Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
	is.Equal(enabled, 1)

	_, _, err = NewSQLiteConnector(context.Background(), filepath.Join(t.TempDir(), "missing", "esmart.db"))()
	is.True(err != nil)
}

func TestThatListIsPaginatedInInsertionOrder(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	for i := 0; i < 5; i++ {
		is.NoErr(store.Devices().Create(ctx, &Device{DeviceName: fmt.Sprintf("device-%d", i), OwnerID: alice.ID}))
	}

	page, err := store.Devices().ListByOwner(ctx, alice.ID, 1, 2)
	is.NoErr(err)
	is.Equal(page.Count, uint64(2))
	is.Equal(page.TotalCount, uint64(5))
	is.Equal(page.Data[0].DeviceName, "device-1")
	is.Equal(page.Data[1].DeviceName, "device-2")

	page, err = store.Devices().ListByOwner(ctx, alice.ID, 0, 0)
	is.NoErr(err)
	is.Equal(page.Limit, uint64(100))
	is.Equal(page.Count, uint64(5))
}

func TestThatDeletingAUserRemovesItsTokens(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	token := &Token{UserID: alice.ID, AccessToken: "a", RefreshToken: "r", Status: true}
	is.NoErr(store.Tokens().Create(ctx, token))

	is.NoErr(store.Users().Delete(ctx, alice.ID))

	_, err := store.Tokens().GetByAccessToken(ctx, "a")
	is.True(errors.Is(err, ErrNotFound))

	err = store.Users().Delete(ctx, alice.ID)
	is.True(errors.Is(err, ErrNotFound))
}

func TestThatTokensCanBeRevoked(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	is.NoErr(store.Tokens().Create(ctx, &Token{UserID: alice.ID, AccessToken: "a1", RefreshToken: "r1", Status: true}))
	is.NoErr(store.Tokens().Create(ctx, &Token{UserID: alice.ID, AccessToken: "a2", RefreshToken: "r2", Status: true}))

	token, err := store.Tokens().GetByAccessToken(ctx, "a1")
	is.NoErr(err)
	is.NoErr(store.Tokens().Revoke(ctx, token.ID, time.Now().UTC()))

	token, err = store.Tokens().GetByAccessToken(ctx, "a1")
	is.NoErr(err)
	is.True(!token.Status)
	is.True(token.RevokedAt != nil)

	count, err := store.Tokens().RevokeIssuedBefore(ctx, time.Now().Add(time.Minute))
	is.NoErr(err)
	is.Equal(count, int64(1))
}

func TestThatUsersCanBeUpdated(t *testing.T) {
	is, ctx, store := testSetup(t)

	alice := createUser(ctx, is, store, "alice@example.com")
	alice.Fullname = "Alice Liddell"
	is.NoErr(store.Users().Update(ctx, &alice))

	fromDb, err := store.Users().GetByID(ctx, alice.ID)
	is.NoErr(err)
	is.Equal(fromDb.Fullname, "Alice Liddell")
	is.True(!fromDb.UpdatedAt.Before(fromDb.CreatedAt))

	err = store.Users().Update(ctx, &User{ID: "missing"})
	is.True(errors.Is(err, ErrNotFound))
}

func createUser(ctx context.Context, is *is.I, store *Datastore, email string) User {
	u := User{Fullname: "test", Role: "user", Email: email, IsActive: true}
	is.NoErr(store.Users().Create(ctx, &u))
	return u
}

func testSetup(t *testing.T) (*is.I, context.Context, *Datastore) {
	is := is.New(t)
	ctx := context.Background()

	store, err := New(NewSQLiteConnector(ctx, ""))
	is.NoErr(err)

	t.Cleanup(func() { store.Close() })

	return is, ctx, store
}
