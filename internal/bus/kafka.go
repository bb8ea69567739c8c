package bus

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// KafkaBus implements Bus on a Kafka topic. Batches are keyed by provider;
// a single-member consumer group preserves the serialization the cache
// writer relies on.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
	reader  *kafka.Reader
	log     zerolog.Logger
}

// NewKafka creates a Kafka-backed bus for the given topic.
func NewKafka(brokers []string, topic, groupID string, log zerolog.Logger) *KafkaBus {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return &KafkaBus{
		brokers: brokers,
		writer:  writer,
		reader:  reader,
		log:     log.With().Str("component", "kafka_bus").Logger(),
	}
}

// Ping dials the first broker to verify reachability.
func (b *KafkaBus) Ping(ctx context.Context) error {
	if len(b.brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", b.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka dial %s: %w", b.brokers[0], err)
	}
	return conn.Close()
}

// Publish writes one encoded batch, keyed by provider.
func (b *KafkaBus) Publish(ctx context.Context, batch Batch) error {
	data, err := Encode(batch)
	if err != nil {
		return err
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(batch.Provider),
		Value: data,
	})
	if err != nil {
		return fmt.Errorf("kafka publish batch %s: %w", batch.ID, err)
	}
	return nil
}

// Subscribe reads messages until ctx is cancelled or the reader is closed.
// Undecodable messages are logged and skipped; a poison message must not
// wedge the consumer.
func (b *KafkaBus) Subscribe(ctx context.Context, handler Handler) error {
	for {
		message, err := b.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("kafka read: %w", err)
		}

		batch, err := Decode(message.Value)
		if err != nil {
			b.log.Error().Err(err).Int64("offset", message.Offset).Msg("Skipping undecodable message")
			continue
		}
		handler(ctx, batch)
	}
}

// Close closes the writer and reader.
func (b *KafkaBus) Close() error {
	writerErr := b.writer.Close()
	readerErr := b.reader.Close()
	if writerErr != nil {
		return writerErr
	}
	return readerErr
}
