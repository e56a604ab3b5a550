package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/trackheat/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeProgress delivers new progress signals only; a watcher has no
// use for replayed history.
func (s *Subscriber) SubscribeProgress(ctx context.Context, handler func(ctx context.Context, p domain.Progress) error) error {
	sub, err := s.js.Subscribe(SubjectProgress, func(msg *nats.Msg) {
		var p domain.Progress
		if err := json.Unmarshal(msg.Data, &p); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, p); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeDatasetReady(ctx context.Context, handler func(ctx context.Context, summary domain.DatasetSummary) error) error {
	sub, err := s.js.Subscribe(SubjectDatasetReady, func(msg *nats.Msg) {
		var summary domain.DatasetSummary
		if err := json.Unmarshal(msg.Data, &summary); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, summary); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.DeliverNew(),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
