package BillBook

import (
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
)

func TestKafkaPublisherDoesNotWaitForBatches(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "ledger-events")
	defer p.Close()

	assert.Equal(t, 1, p.writer.BatchSize)
	assert.Equal(t, publishBatchTimeout, p.writer.BatchTimeout)
	assert.LessOrEqual(t, p.writer.BatchTimeout.Milliseconds(), int64(10))
	assert.Equal(t, "ledger-events", p.writer.Topic)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}
