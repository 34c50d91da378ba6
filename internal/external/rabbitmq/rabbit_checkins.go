package talent

import (
	"context"
	"encoding/json"
	"fmt"

	models "github.com/BANSEOKCHA/my-yks-app/internal/models"
	amqp "github.com/rabbitmq/amqp091-go"
)

// QR scans from door kiosks in, check-in results out
type RabbitConsumer struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	Msg      <-chan amqp.Delivery
	chout    *amqp.Channel
	queueout string
}

func NewRabbitConsumer(url string, queue string, queueout string) (*RabbitConsumer, error) {
	if url == "" {
		return nil, fmt.Errorf("rabbitmq url is not set")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	// incoming scans
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	// outgoing results
	chout, err := conn.Channel()
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	_, err = chout.QueueDeclare(
		queueout, // name
		true,     // durable
		false,    // delete when unused
		false,    // exclusive
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		chout.Close()
		ch.Close()
		conn.Close()
		return nil, err
	}

	msg, err := ch.Consume(
		queue, // queue
		"",    // consumer
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		chout.Close()
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitConsumer{conn, ch, msg, chout, queueout}, nil
}

func (r *RabbitConsumer) Close() error {
	r.chout.Close()
	r.ch.Close()
	return r.conn.Close()
}

// Publish the result of one scan
func (r *RabbitConsumer) Processed(ctx context.Context, result models.CheckinResult) error {
	msg, err := json.Marshal(result)
	if err != nil {
		return err
	}

	return r.chout.PublishWithContext(ctx,
		"",         // exchange
		r.queueout, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg,
		})
}
