package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/tracing"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var ErrUnexpectedResponse = fmt.Errorf("unexpected response from esmart api")

type SensorDataClient interface {
	PostSensorData(ctx context.Context, data types.SensorDataCreate) (types.SensorData, error)
	ListSensorData(ctx context.Context, deviceID string) ([]types.SensorData, error)
}

type sensorDataClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("esmart-api-client")

func NewSensorDataClient(apiURL string) SensorDataClient {
	return &sensorDataClient{
		url: strings.TrimSuffix(apiURL, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *sensorDataClient) PostSensorData(ctx context.Context, data types.SensorDataCreate) (types.SensorData, error) {
	var err error
	ctx, span := tracer.Start(ctx, "post-sensordata")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetLoggerFromContext(ctx)

	body, err := json.Marshal(data)
	if err != nil {
		err = fmt.Errorf("failed to marshal sensor data: %w", err)
		return types.SensorData{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"/sensor/", bytes.NewReader(body))
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return types.SensorData{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	result := types.SensorData{}

	err = c.do(req, http.StatusCreated, &result)
	if err != nil {
		return types.SensorData{}, err
	}

	log.Debug().Str("data_id", result.DataID).Msgf("posted sensor data for device %s", data.DeviceID)

	return result, nil
}

func (c *sensorDataClient) ListSensorData(ctx context.Context, deviceID string) ([]types.SensorData, error) {
	var err error
	ctx, span := tracer.Start(ctx, "list-sensordata")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"/sensor/by-device/"+url.PathEscape(deviceID), nil)
	if err != nil {
		err = fmt.Errorf("failed to create http request: %w", err)
		return nil, err
	}

	result := []types.SensorData{}

	err = c.do(req, http.StatusOK, &result)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (c *sensorDataClient) do(req *http.Request, expectedStatus int, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != expectedStatus {
		return fmt.Errorf("%w: status code %d (%s)", ErrUnexpectedResponse, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	err = json.Unmarshal(respBody, result)
	if err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return nil
}
