package mail

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const dispatchQueue = "mail.dispatch"

// job is the wire format for one queued mail.
type job struct {
	Kind   Kind   `json:"kind"`
	To     string `json:"to"`
	Name   string `json:"name"`
	Token  string `json:"token,omitempty"`
	Locale string `json:"locale"`
}

// publishChannel is the slice of *amqp.Channel the mailer publishes on.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// QueueMailer implements Mailer by publishing jobs to the
// mail.dispatch queue over one process-scoped broker connection. The
// connection is established at startup and reused for every Send; a
// publish failure triggers a single reconnect-and-retry before the
// error is returned, so workflows whose whole point is delivering the
// mail can surface it.
type QueueMailer struct {
	mu   sync.Mutex
	conn io.Closer
	ch   publishChannel

	connect func() (io.Closer, publishChannel, error)
}

// NewQueueMailer dials the broker and declares the durable dispatch
// queue. The mailer holds the connection until Close.
func NewQueueMailer(url string) (*QueueMailer, error) {
	m := &QueueMailer{
		connect: func() (io.Closer, publishChannel, error) { return dialChannel(url) },
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.reconnectLocked(); err != nil {
		return nil, err
	}
	return m, nil
}

func dialChannel(url string) (io.Closer, publishChannel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if _, err := ch.QueueDeclare(dispatchQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// Send publishes one persistent mail job on the held channel.
func (m *QueueMailer) Send(ctx context.Context, kind Kind, to, name, token, locale string) error {
	body, err := json.Marshal(job{Kind: kind, To: to, Name: name, Token: token, Locale: locale})
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ch == nil {
		if err := m.reconnectLocked(); err != nil {
			return err
		}
	}
	err = m.ch.PublishWithContext(ctx, "", dispatchQueue, false, false, msg)
	if err == nil {
		return nil
	}
	log.Printf("mail: publish failed: %v; reconnecting", err)

	m.closeLocked()
	if err := m.reconnectLocked(); err != nil {
		return err
	}
	if err := m.ch.PublishWithContext(ctx, "", dispatchQueue, false, false, msg); err != nil {
		log.Printf("mail: publish retry failed: %v", err)
		m.closeLocked()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (m *QueueMailer) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
}

func (m *QueueMailer) reconnectLocked() error {
	conn, ch, err := m.connect()
	if err != nil {
		log.Printf("mail: connect broker failed: %v", err)
		return err
	}
	m.conn, m.ch = conn, ch
	return nil
}

func (m *QueueMailer) closeLocked() {
	if m.ch != nil {
		_ = m.ch.Close()
		m.ch = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}
}
