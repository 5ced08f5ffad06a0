package kafka

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yourorg/testnet-trader/internal/domain"
)

// LogPublisher writes log entries to a Kafka topic, keyed by session so a
// consumer sees one run's entries in order. Writes are asynchronous: Write
// only enqueues, and delivery failures are reported through the logger.
type LogPublisher struct {
	writer  *kafka.Writer
	session string
	logger  *slog.Logger
}

func NewLogPublisher(brokers []string, topic, session string, logger *slog.Logger) *LogPublisher {
	p := &LogPublisher{session: session, logger: logger}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		BatchSize:              500,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		Async:                  true,
		Completion:             p.completion,
	}
	return p
}

func (p *LogPublisher) completion(messages []kafka.Message, err error) {
	if err == nil {
		return
	}
	first, last := "", ""
	if n := len(messages); n > 0 {
		first, last = seqHeader(messages[0]), seqHeader(messages[n-1])
	}
	p.logger.Error("kafka log export failed",
		"topic", p.writer.Topic, "count", len(messages), "first_seq", first, "last_seq", last, "err", err)
}

func seqHeader(m kafka.Message) string {
	for _, h := range m.Headers {
		if h.Key == "seq" {
			return string(h.Value)
		}
	}
	return ""
}

func encodeEntry(session string, e domain.LogEntry) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(session),
		Value: value,
		Time:  e.Timestamp,
		Headers: []kafka.Header{
			{Key: "level", Value: []byte(e.Level)},
			{Key: "seq", Value: []byte(strconv.FormatUint(e.Seq, 10))},
		},
	}, nil
}

func (p *LogPublisher) Write(ctx context.Context, e domain.LogEntry) error {
	msg, err := encodeEntry(p.session, e)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *LogPublisher) Close() error {
	return p.writer.Close()
}
