package talent

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Consumer of mission posts submitted outside the HTTP API
type KafkaPosts struct {
	reader *kafka.Reader
}

func GetNewReader(brokers []string, topic string, groupID string) (*KafkaPosts, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are not set")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka topic is not set")
	}
	kafkaconfig := kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	}
	return &KafkaPosts{kafka.NewReader(kafkaconfig)}, nil
}

func (k *KafkaPosts) GetNewMessage(ctx context.Context) ([]byte, error) {
	msg, err := k.reader.ReadMessage(ctx)
	if err != nil {
		return nil, err
	}
	return msg.Value, nil
}

func (k *KafkaPosts) CloseReader() error {
	return k.reader.Close()
}
