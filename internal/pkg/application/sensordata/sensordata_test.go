package sensordata

import (
	"context"
	"errors"
	"testing"

	"github.com/esmart-iot/esmart-api/internal/pkg/application"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/events"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/repositories/database"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/matryer/is"
)

func TestThatReadingsCanBeCreatedForExistingDevices(t *testing.T) {
	is, ctx, store, svc, sender := testSetup(t)
	_, device := createOwnerAndDevice(ctx, is, store, "alice@example.com")

	temp := 22.5
	motion := 1
	created, err := svc.Create(ctx, types.SensorDataCreate{DeviceID: device.ID, Temperature: &temp, MotionStatus: &motion})
	is.NoErr(err)
	is.Equal(*created.Temperature, 22.5)
	is.True(created.MQ5Level == nil)
	is.Equal(len(sender.SendCalls()), 1)

	withDevice, err := svc.Get(ctx, created.DataID)
	is.NoErr(err)
	is.Equal(withDevice.Device.DeviceID, device.ID)
	is.Equal(withDevice.Device.DeviceName, "kitchen")
}

func TestThatReadingsForUnknownDevicesAreNotFound(t *testing.T) {
	is, ctx, _, svc, _ := testSetup(t)

	_, err := svc.Create(ctx, types.SensorDataCreate{DeviceID: "no-such-device"})
	is.True(errors.Is(err, application.ErrNotFound))

	_, err = svc.Create(ctx, types.SensorDataCreate{})
	is.True(errors.Is(err, application.ErrBadRequest))
}

func TestThatOnlyTheDeviceOwnerCanModifyReadings(t *testing.T) {
	is, ctx, store, svc, _ := testSetup(t)
	alice, device := createOwnerAndDevice(ctx, is, store, "alice@example.com")
	bob, _ := createOwnerAndDevice(ctx, is, store, "bob@example.com")

	created, err := svc.Create(ctx, types.SensorDataCreate{DeviceID: device.ID})
	is.NoErr(err)

	humidity := 40.0
	_, err = svc.Update(ctx, bob.ID, created.DataID, types.SensorDataUpdate{Humidity: &humidity})
	is.True(errors.Is(err, application.ErrForbidden))

	err = svc.Delete(ctx, bob.ID, created.DataID)
	is.True(errors.Is(err, application.ErrForbidden))

	updated, err := svc.Update(ctx, alice.ID, created.DataID, types.SensorDataUpdate{Humidity: &humidity})
	is.NoErr(err)
	is.Equal(*updated.Humidity, 40.0)

	is.NoErr(svc.Delete(ctx, alice.ID, created.DataID))

	_, err = svc.Get(ctx, created.DataID)
	is.True(errors.Is(err, application.ErrNotFound))
}

func TestThatReadingsAreListedPerDevice(t *testing.T) {
	is, ctx, store, svc, _ := testSetup(t)
	_, device := createOwnerAndDevice(ctx, is, store, "alice@example.com")

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, types.SensorDataCreate{DeviceID: device.ID})
		is.NoErr(err)
	}

	data, err := svc.ListByDevice(ctx, device.ID, 0, 2)
	is.NoErr(err)
	is.Equal(len(data), 2)

	data, err = svc.ListByDevice(ctx, "no-such-device", 0, 0)
	is.NoErr(err)
	is.Equal(len(data), 0)
}

func createOwnerAndDevice(ctx context.Context, is *is.I, store *database.Datastore, email string) (database.User, database.Device) {
	u := database.User{Email: email, Role: application.RoleUser, IsActive: true}
	is.NoErr(store.Users().Create(ctx, &u))

	d := database.Device{DeviceName: "kitchen", OwnerID: u.ID}
	is.NoErr(store.Devices().Create(ctx, &d))

	return u, d
}

func testSetup(t *testing.T) (*is.I, context.Context, *database.Datastore, SensorDataService, *events.EventSenderMock) {
	is := is.New(t)
	ctx := context.Background()

	store, err := database.New(database.NewSQLiteConnector(ctx, ""))
	is.NoErr(err)
	t.Cleanup(func() { store.Close() })

	sender := &events.EventSenderMock{
		SendFunc: func(ctx context.Context, id string, event events.Event) error {
			return nil
		},
	}

	return is, ctx, store, New(store.Devices(), store.SensorData(), sender), sender
}
