package events

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/matryer/is"
)

func TestConfig(t *testing.T) {
	is := setupTest(t)
	config := strings.NewReader(`
notifications:
  - id: devices
    name: New devices
    type: esmart.device.created
    subscribers:
    - endpoint: http://notifier:8990
`)
	cfg, err := LoadConfiguration(config)

	is.NoErr(err)
	is.Equal(len(cfg.Notifications), 1)
	is.Equal(cfg.Notifications[0].ID, "devices")
	is.Equal(cfg.Notifications[0].Subscribers[0].Endpoint, "http://notifier:8990")
}

func TestThatEventsAreSentToSubscribers(t *testing.T) {
	is := setupTest(t)

	var ceType, body string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ceType = r.Header.Get("Ce-Type")
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender, err := New(&Config{
		Notifications: []Notification{
			{ID: "devices", Type: "esmart.device.created", Subscribers: []SubscriberConfig{{Endpoint: server.URL}}},
		},
	})
	is.NoErr(err)

	err = sender.Send(context.Background(), "device-1", &types.DeviceCreated{
		DeviceID:   "device-1",
		DeviceName: "kitchen",
		Timestamp:  time.Now(),
	})
	is.NoErr(err)

	is.Equal(ceType, "esmart.device.created")
	is.True(strings.Contains(body, `"device_name":"kitchen"`))
}

func TestThatEventsWithoutSubscribersAreIgnored(t *testing.T) {
	is := setupTest(t)

	sender, err := New(nil)
	is.NoErr(err)

	err = sender.Send(context.Background(), "data-1", &types.SensorDataCreated{DataID: "data-1"})
	is.NoErr(err)
}

func TestThatUnreachableSubscribersReturnAnError(t *testing.T) {
	is := setupTest(t)

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	sender, err := New(&Config{
		Notifications: []Notification{
			{Type: "esmart.sensordata.created", Subscribers: []SubscriberConfig{{Endpoint: url}}},
		},
	})
	is.NoErr(err)

	err = sender.Send(context.Background(), "data-1", &types.SensorDataCreated{DataID: "data-1"})
	is.True(err != nil)
}

func TestThatCombinedSendersAreAllAttempted(t *testing.T) {
	is := setupTest(t)

	failing := &EventSenderMock{
		SendFunc: func(ctx context.Context, id string, event Event) error {
			return fmt.Errorf("delivery failed")
		},
	}
	working := &EventSenderMock{
		SendFunc: func(ctx context.Context, id string, event Event) error {
			return nil
		},
	}

	err := Combine(failing, working).Send(context.Background(), "dev-1", &types.DeviceCreated{DeviceID: "dev-1"})
	is.True(err != nil)

	is.Equal(len(failing.SendCalls()), 1)
	is.Equal(len(working.SendCalls()), 1)
	is.Equal(working.SendCalls()[0].ID, "dev-1")
}

func setupTest(t *testing.T) *is.I {
	is := is.New(t)

	return is
}
