package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const subjectPrefix = "kanban"

// Event is the envelope published for every board change
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	UserID    string      `json:"userId"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type jetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// Publisher fans board events out to connected clients through NATS JetStream
type Publisher struct {
	nc     *nats.Conn
	js     jetStreamPublisher
	jsm    nats.JetStreamManager
	stream string
	now    func() time.Time
}

// NewPublisher connects to NATS and opens a JetStream context
func NewPublisher(url, stream string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("kanban-mail-backend"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	return &Publisher{
		nc:     nc,
		js:     js,
		jsm:    js,
		stream: stream,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// EnsureStream creates the event stream if it does not exist yet
func (p *Publisher) EnsureStream(ctx context.Context) error {
	if info, err := p.jsm.StreamInfo(p.stream, nats.Context(ctx)); err == nil && info != nil {
		return nil
	}

	_, err := p.jsm.AddStream(&nats.StreamConfig{
		Name:       p.stream,
		Subjects:   []string{subjectPrefix + ".>"},
		Storage:    nats.FileStorage,
		Retention:  nats.LimitsPolicy,
		Duplicates: 10 * time.Minute,
		MaxAge:     7 * 24 * time.Hour,
	}, nats.Context(ctx))
	if err != nil {
		if errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
			return nil
		}
		return fmt.Errorf("failed to create stream: %w", err)
	}

	log.Printf("[Events] Created stream %s", p.stream)
	return nil
}

// Subject returns the subject a user's events are published on
func Subject(userID, eventType string) string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, subjectToken(userID), subjectToken(eventType))
}

func subjectToken(s string) string {
	return strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
}

// SendToUser publishes an event. Failures are logged, never returned, so a
// broker outage cannot fail a board mutation.
func (p *Publisher) SendToUser(userID string, eventType string, payload interface{}) {
	event := Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		UserID:    userID,
		Payload:   payload,
		Timestamp: p.now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Events] Failed to encode %s for user %s: %v", eventType, userID, err)
		return
	}

	if _, err := p.js.Publish(Subject(userID, eventType), data, nats.MsgId(event.ID)); err != nil {
		log.Printf("[Events] Failed to publish %s for user %s: %v", eventType, userID, err)
	}
}

// Close closes the NATS connection
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
