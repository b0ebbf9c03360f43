package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/esmart-iot/esmart-api/internal/pkg/infrastructure/logging"
	yaml "gopkg.in/yaml.v2"
)

const EventSource string = "github.com/esmart-iot/esmart-api"

type Event interface {
	ContentType() string
	EventType() string
}

//go:generate moq -rm -out events_mock.go . EventSender

type EventSender interface {
	Send(ctx context.Context, id string, event Event) error
}

type eventSender struct {
	subscribers map[string][]SubscriberConfig
	client      cloudevents.Client
}

func New(cfg *Config) (EventSender, error) {
	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, err
	}

	e := &eventSender{
		subscribers: make(map[string][]SubscriberConfig),
		client:      c,
	}

	if cfg != nil {
		for _, s := range cfg.Notifications {
			e.subscribers[s.Type] = append(e.subscribers[s.Type], s.Subscribers...)
		}
	}

	return e, nil
}

// Send delivers the event to every subscriber of its type. Every subscriber is
// attempted and all delivery failures are returned joined.
func (e *eventSender) Send(ctx context.Context, id string, message Event) error {
	subscribers, ok := e.subscribers[message.EventType()]
	if !ok || len(subscribers) == 0 {
		return nil
	}

	now := time.Now().UTC()

	event := cloudevents.NewEvent()
	event.SetID(fmt.Sprintf("%s:%d", id, now.UnixNano()))
	event.SetTime(now)
	event.SetSource(EventSource)
	event.SetType(message.EventType())

	err := event.SetData(message.ContentType(), message)
	if err != nil {
		return err
	}

	logger := logging.GetLoggerFromContext(ctx)

	var sendErr error

	for _, s := range subscribers {
		ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

		result := e.client.Send(ctxWithTarget, event)
		if cloudevents.IsUndelivered(result) || (result != nil && !cloudevents.IsACK(result)) {
			logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
			sendErr = errors.Join(sendErr, fmt.Errorf("%s: %w", s.Endpoint, result))
		}
	}

	return sendErr
}

type senders []EventSender

// Combine returns a sender that delivers every event through all of the given senders
func Combine(s ...EventSender) EventSender {
	return senders(s)
}

func (s senders) Send(ctx context.Context, id string, event Event) error {
	var err error
	for _, sender := range s {
		err = errors.Join(err, sender.Send(ctx, id, event))
	}
	return err
}

type SubscriberConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type Notification struct {
	ID          string             `yaml:"id"`
	Name        string             `yaml:"name"`
	Type        string             `yaml:"type"`
	Subscribers []SubscriberConfig `yaml:"subscribers"`
}

type Config struct {
	Notifications []Notification `yaml:"notifications"`
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := Config{}
	if err := yaml.Unmarshal(buf, &cfg); err == nil {
		return &cfg, nil
	} else {
		return nil, err
	}
}
