package webevents

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"
)

func TestThatSensorDataIsStreamedToSubscribersOfTheDevice(t *testing.T) {
	is := is.New(t)

	we := New()
	defer we.Shutdown()

	r := chi.NewRouter()
	r.Get("/sensor/events/{id}", we.Handler().ServeHTTP)

	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/sensor/events/dev-1", nil)
	resp, err := http.DefaultClient.Do(req)
	is.NoErr(err)
	defer resp.Body.Close()

	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"))

	for !we.HasSubscribers("dev-1") {
		select {
		case <-ctx.Done():
			t.Fatal("subscriber never registered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	humidity := 40.0
	is.NoErr(we.Send(ctx, "other", &types.SensorDataCreated{DeviceID: "dev-2", SensorData: types.SensorData{DataID: "other"}}))
	is.NoErr(we.Send(ctx, "data-1", &types.SensorDataCreated{DeviceID: "dev-1", SensorData: types.SensorData{DataID: "data-1", Humidity: &humidity}}))

	lines := []string{}
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}

	message := strings.Join(lines, "\n")
	is.True(strings.Contains(message, "id: data-1"))
	is.True(strings.Contains(message, "event: esmart.sensordata.created"))
	is.True(strings.Contains(message, `"humidity":40`))
}

func TestThatDeviceEventsAreNotStreamed(t *testing.T) {
	is := is.New(t)

	we := New()
	defer we.Shutdown()

	err := we.Send(context.Background(), "dev-1", &types.DeviceCreated{DeviceID: "dev-1"})
	is.NoErr(err)
	is.True(!we.HasSubscribers("dev-1"))
}
