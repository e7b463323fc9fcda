package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// StartConsumer drains mail.dispatch and delivers each job through
// deliverer (normally the SMTP mailer). It runs a reconnect loop with
// exponential backoff and never returns under normal operation;
// malformed messages are rejected without requeue so the worker keeps
// going.
func StartConsumer(url string, deliverer Mailer) {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Printf("mail-consumer: dial broker failed: %v; retrying in %s", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(conn, deliverer); err != nil {
			log.Printf("mail-consumer: consume loop ended: %v; reconnecting", err)
			time.Sleep(2 * time.Second)
		}
	}
}

func consumeLoop(conn *amqp.Connection, deliverer Mailer) error {
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(10, 0, false); err != nil {
		log.Printf("mail-consumer: set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(dispatchQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(dispatchQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for d := range deliveries {
		var j job
		if err := json.Unmarshal(d.Body, &j); err != nil {
			log.Printf("mail-consumer: bad message: %v", err)
			_ = d.Nack(false, false)
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := deliverer.Send(ctx, j.Kind, j.To, j.Name, j.Token, j.Locale)
		cancel()
		if err != nil {
			log.Printf("mail-consumer: deliver %s to %s failed: %v", j.Kind, j.To, err)
			_ = d.Nack(false, true)
			continue
		}
		_ = d.Ack(false)
	}
	return fmt.Errorf("delivery channel closed")
}
