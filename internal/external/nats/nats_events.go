package talent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// Publishes reward grants to a JetStream subject
type EventPublisher struct {
	conn    *nats.Conn
	js      jetstream.JetStream
	subject string
	logger  *zap.Logger
}

func NewEventPublisher(ctx context.Context, url string, stream string, subject string, logger *zap.Logger) (*EventPublisher, error) {
	if url == "" {
		return nil, fmt.Errorf("nats url is not set")
	}
	opts := []nats.Option{
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, err
	}
	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     stream,
		Subjects: []string{subject},
	})
	if err != nil {
		nc.Close()
		return nil, err
	}
	return &EventPublisher{nc, js, subject, logger}, nil
}

func (p *EventPublisher) PublishRewardGranted(ctx context.Context, event models.RewardGranted) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	_, err = p.js.Publish(ctx, p.subject, data)
	return err
}

func (p *EventPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
