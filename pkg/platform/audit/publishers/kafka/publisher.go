// Package kafka provides an audit sink that streams ledger events to a Kafka
// topic for off-ledger indexing. It implements audit.Store so the publisher
// can fan out to it like any other sink; reads are served by the durable
// stores, not by the stream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"vouch/pkg/domain"
	"vouch/pkg/platform/audit"
	"vouch/pkg/platform/sentinel"
)

// Producer is the minimal producing interface this sink needs.
type Producer interface {
	Produce(ctx context.Context, msg *Message) error
}

// Message mirrors the internal producer message shape so this package does
// not depend on franz-go directly.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Sink streams audit events to a Kafka topic.
type Sink struct {
	producer Producer
	topic    string
}

// NewSink creates a Kafka audit sink.
func NewSink(producer Producer, topic string) *Sink {
	return &Sink{producer: producer, topic: topic}
}

// wireEvent is the on-wire JSON shape. Field names are part of the consumer
// contract; change them only with a topic version bump.
type wireEvent struct {
	Name          string    `json:"name"`
	Actor         string    `json:"actor"`
	SubjectID     uint64    `json:"subject_id,omitempty"`
	IssuerID      uint64    `json:"issuer_id,omitempty"`
	AttestationID uint64    `json:"attestation_id,omitempty"`
	GrantID       uint64    `json:"grant_id,omitempty"`
	Grantee       string    `json:"grantee,omitempty"`
	ItemType      string    `json:"item_type,omitempty"`
	ItemID        uint64    `json:"item_id,omitempty"`
	LogicalTime   uint64    `json:"logical_time"`
	Timestamp     time.Time `json:"timestamp"`
	RequestID     string    `json:"request_id,omitempty"`
}

// Append publishes one event. Events are keyed by actor identity so one
// actor's trail stays ordered within a partition.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(wireEvent{
		Name:          event.Name,
		Actor:         string(event.Actor),
		SubjectID:     uint64(event.SubjectID),
		IssuerID:      uint64(event.IssuerID),
		AttestationID: uint64(event.AttestationID),
		GrantID:       uint64(event.GrantID),
		Grantee:       string(event.Grantee),
		ItemType:      event.ItemType,
		ItemID:        event.ItemID,
		LogicalTime:   uint64(event.LogicalTime),
		Timestamp:     event.Timestamp,
		RequestID:     event.RequestID,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	return s.producer.Produce(ctx, &Message{
		Topic: s.topic,
		Key:   []byte(event.Actor),
		Value: value,
		Headers: map[string]string{
			"event": event.Name,
		},
	})
}

// ListByActor is not supported by the streaming sink.
func (s *Sink) ListByActor(context.Context, domain.Identity) ([]audit.Event, error) {
	return nil, sentinel.ErrUnavailable
}
