package webevents

import (
	"context"
	"encoding/json"
	"net/http"

	gosse "github.com/alexandrevicenzi/go-sse"
	"github.com/esmart-iot/esmart-api/internal/pkg/application/events"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/go-chi/chi/v5"
)

// WebEvents streams newly stored sensor readings to browsers as server sent events.
// Each device has its own channel, keyed by device id.
type WebEvents interface {
	events.EventSender

	Handler() http.Handler
	HasSubscribers(deviceID string) bool
	Shutdown()
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{
			ChannelNameFunc: func(r *http.Request) string {
				return chi.URLParam(r, "id")
			},
			Headers: map[string]string{
				"Access-Control-Allow-Origin": "*",
			},
		}),
	}
}

// Handler must be mounted on a route with an {id} parameter
func (we *webEvents) Handler() http.Handler {
	return we.s
}

func (we *webEvents) HasSubscribers(deviceID string) bool {
	return we.s.HasChannel(deviceID)
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

// Send publishes sensor data events to the channel of the device. Other events are ignored.
func (we *webEvents) Send(ctx context.Context, id string, event events.Event) error {
	created, ok := event.(*types.SensorDataCreated)
	if !ok || !we.s.HasChannel(created.DeviceID) {
		return nil
	}

	b, err := json.Marshal(created.SensorData)
	if err != nil {
		return err
	}

	we.s.SendMessage(created.DeviceID, gosse.NewMessage(id, string(b), event.EventType()))

	return nil
}
