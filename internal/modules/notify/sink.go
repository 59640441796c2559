// README: Notification sinks: Firebase Cloud Messaging for devices, zap log for development.
package notify

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"nearmatch/internal/types"
)

// ErrNoDeviceToken means the user never granted notification permission on a device.
var ErrNoDeviceToken = errors.New("no device token registered")

// Alert is one user-facing notification. Payload carries the dedup key and
// match identity so the device can route the tap.
type Alert struct {
	Recipient types.ID
	Title     string
	Body      string
	Payload   map[string]string
}

type Sink interface {
	Send(ctx context.Context, a Alert) error
}

// TokenSource resolves a user's push token; "" means none registered.
type TokenSource interface {
	DeviceToken(ctx context.Context, id types.ID) (string, error)
}

// Messenger is the subset of *messaging.Client used by FCMSink.
type Messenger interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type FCMSink struct {
	client Messenger
	tokens TokenSource
}

func NewFCMSink(client Messenger, tokens TokenSource) *FCMSink {
	return &FCMSink{client: client, tokens: tokens}
}

func (s *FCMSink) Send(ctx context.Context, a Alert) error {
	token, err := s.tokens.DeviceToken(ctx, a.Recipient)
	if err != nil {
		return fmt.Errorf("resolve device token: %w", err)
	}
	if token == "" {
		return ErrNoDeviceToken
	}
	_, err = s.client.Send(ctx, &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: a.Title,
			Body:  a.Body,
		},
		Data: a.Payload,
	})
	if err != nil {
		return fmt.Errorf("fcm send: %w", err)
	}
	return nil
}

// LogSink writes alerts to the structured log instead of a device.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogSink{log: log}
}

func (s *LogSink) Send(_ context.Context, a Alert) error {
	s.log.Info("notification",
		zap.String("user_id", string(a.Recipient)),
		zap.String("title", a.Title),
		zap.String("body", a.Body),
		zap.Any("payload", a.Payload),
	)
	return nil
}
