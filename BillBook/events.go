package BillBook

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"SiteBook/Models"
)

type EventKind string

const (
	EventEntryAdded   EventKind = "entry_added"
	EventEntryDeleted EventKind = "entry_deleted"
)

// LedgerEvent describes a committed change to a ledger
type LedgerEvent struct {
	Kind     EventKind        `json:"kind"`
	LedgerID uint             `json:"ledger_id"`
	EntryID  uint             `json:"entry_id"`
	Type     Models.EntryType `json:"type"`
	Amount   decimal.Decimal  `json:"amount"`
	Balance  decimal.Decimal  `json:"balance"`
	At       time.Time        `json:"at"`
}

// Publisher is notified after a ledger change commits. Errors are logged by the engine.
type Publisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LedgerEvent) error { return nil }

// KafkaPublisher writes ledger events as JSON, keyed by ledger id so one
// ledger's events stay ordered within a partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

const publishBatchTimeout = 10 * time.Millisecond

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			WriteTimeout: 5 * time.Second,
			// Publish runs on the request path, one message at a time
			BatchSize:    1,
			BatchTimeout: publishBatchTimeout,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event LedgerEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(event.LedgerID), 10)),
		Value: data,
		Time:  event.At,
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
