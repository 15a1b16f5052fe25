package events

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// KafkaPublisher writes each event to "<prefix>.<type>", keyed by the
// aggregate id so changes to one product stay ordered within a partition.
type KafkaPublisher struct {
	producer sarama.SyncProducer
	prefix   string
}

// NewKafkaProducer dials the brokers with acknowledgement from all replicas.
func NewKafkaProducer(brokers []string) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("start kafka producer: %w", err)
	}
	return producer, nil
}

func NewKafkaPublisher(producer sarama.SyncProducer, prefix string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, prefix: prefix}
}

func (p *KafkaPublisher) Topic(t Type) string {
	return p.prefix + "." + string(t)
}

func (p *KafkaPublisher) Publish(_ context.Context, e Event) error {
	data, err := e.Marshal()
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic:     p.Topic(e.Type),
		Key:       sarama.StringEncoder(e.AggregateID),
		Value:     sarama.ByteEncoder(data),
		Timestamp: time.Now(),
		Headers: []sarama.RecordHeader{
			{Key: []byte("action"), Value: []byte(e.Action)},
		},
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", msg.Topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
