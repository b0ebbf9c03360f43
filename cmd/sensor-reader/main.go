package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	"github.com/esmart-iot/esmart-api/pkg/client"
	"github.com/esmart-iot/esmart-api/pkg/types"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.bug.st/serial"
)

const serviceName string = "esmart-sensor-reader"

// reading is a single line as printed by the sensor board
type reading struct {
	GasValue       *float64     `json:"gas_value"`
	MotionDetected *motionValue `json:"motion_detected"`
	TemperatureDHT *float64     `json:"temperature_dht"`
	Humidity       *float64     `json:"humidity"`
}

// motionValue accepts both 0/1 and false/true
type motionValue int

func (m *motionValue) UnmarshalJSON(b []byte) error {
	var detected bool
	if err := json.Unmarshal(b, &detected); err == nil {
		*m = 0
		if detected {
			*m = 1
		}
		return nil
	}

	var n float64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("motion_detected must be a number or a boolean")
	}

	*m = motionValue(n)
	return nil
}

func main() {
	ctx, logger := logging.NewLogger(context.Background(), serviceName, version())

	v := viper.New()
	v.SetDefault("SERIAL_PORT", "/dev/ttyUSB0")
	v.SetDefault("SERIAL_BAUD_RATE", 9600)
	v.SetDefault("ESMART_API_URL", "http://127.0.0.1:8000")
	v.SetDefault("DEVICE_ID", "")
	v.AutomaticEnv()

	port := flag.String("port", v.GetString("SERIAL_PORT"), "serial port to read from, or - for stdin")
	baudRate := flag.Int("baud", v.GetInt("SERIAL_BAUD_RATE"), "serial baud rate")
	apiURL := flag.String("api", v.GetString("ESMART_API_URL"), "base url of the esmart api")
	deviceID := flag.String("device", v.GetString("DEVICE_ID"), "id of the device the readings belong to")
	flag.Parse()

	if _, err := uuid.Parse(*deviceID); err != nil {
		logger.Fatal().Str("device_id", *deviceID).Msg("a valid device id is required")
	}

	input, err := openInput(*port, *baudRate)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open sensor input")
	}
	defer input.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		input.Close()
	}()

	logger.Info().Str("port", *port).Int("baud", *baudRate).Msg("reading sensor data")

	err = run(ctx, input, *deviceID, client.NewSensorDataClient(*apiURL))
	if err != nil && ctx.Err() == nil {
		logger.Error().Err(err).Msg("sensor input failed")
	}
}

func openInput(port string, baudRate int) (io.ReadCloser, error) {
	if port == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	return serial.Open(port, &serial.Mode{BaudRate: baudRate})
}

// run posts every valid line read from input until input is exhausted
func run(ctx context.Context, input io.Reader, deviceID string, c client.SensorDataClient) error {
	log := logging.GetLoggerFromContext(ctx)

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		data, err := parseLine(line, deviceID)
		if err != nil {
			log.Warn().Err(err).Str("line", string(line)).Msg("invalid data format")
			continue
		}

		stored, err := c.PostSensorData(ctx, data)
		if err != nil {
			log.Error().Err(err).Msg("failed to store data")
			continue
		}

		log.Debug().Str("data_id", stored.DataID).Msg("data stored successfully")
	}

	return scanner.Err()
}

func parseLine(line []byte, deviceID string) (types.SensorDataCreate, error) {
	r := reading{}

	dec := json.NewDecoder(bytes.NewReader(line))
	if err := dec.Decode(&r); err != nil {
		return types.SensorDataCreate{}, fmt.Errorf("failed to parse reading: %w", err)
	}

	data := types.SensorDataCreate{
		DeviceID:    deviceID,
		MQ5Level:    r.GasValue,
		Temperature: r.TemperatureDHT,
		Humidity:    r.Humidity,
	}

	if r.MotionDetected != nil {
		motion := int(*r.MotionDetected)
		data.MotionStatus = &motion
	}

	return data, nil
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	infoMap := map[string]string{}
	for _, s := range buildInfo.Settings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}
