package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	msgs [][]byte
}

func (r *recorder) Broadcast(msg []byte) { r.msgs = append(r.msgs, msg) }

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

func sampleEvent() Event {
	return Event{
		Type:        StockUpdate,
		Action:      ActionSaleRecorded,
		AggregateID: "p-1",
		Data:        map[string]interface{}{"remaining_stock": 2},
		User:        &User{ID: "u-1", Name: "Ana"},
		Message:     "Ana sold 3 x Widget",
		OccurredAt:  time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestLocalPublish(t *testing.T) {
	rec := &recorder{}
	require.NoError(t, NewLocal(rec).Publish(context.Background(), sampleEvent()))
	require.Len(t, rec.msgs, 1)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.msgs[0], &decoded))
	assert.Equal(t, "stock_update", decoded["type"])
	assert.Equal(t, "sale_recorded", decoded["action"])
	assert.Equal(t, "Ana", decoded["user"].(map[string]interface{})["name"])
}

func TestMultiTriesEveryPublisher(t *testing.T) {
	rec := &recorder{}
	boom := errors.New("broker down")
	m := Multi{failing{boom}, NewLocal(rec)}

	err := m.Publish(context.Background(), sampleEvent())

	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.msgs, 1, "a failing publisher must not starve the others")
	assert.NoError(t, Multi{}.Publish(context.Background(), sampleEvent()))
}

func TestKafkaPublisher(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(msg *sarama.ProducerMessage) error {
		if msg.Topic != "inventory.stock_update" {
			return errors.New("unexpected topic " + msg.Topic)
		}
		key, _ := msg.Key.Encode()
		if string(key) != "p-1" {
			return errors.New("unexpected key " + string(key))
		}
		return nil
	})

	pub := NewKafkaPublisher(producer, "inventory")
	require.NoError(t, pub.Publish(context.Background(), sampleEvent()))
	require.NoError(t, pub.Close())
}

func TestKafkaPublisherFailure(t *testing.T) {
	producer := mocks.NewSyncProducer(t, nil)
	producer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	pub := NewKafkaPublisher(producer, "inventory")
	err := pub.Publish(context.Background(), sampleEvent())

	assert.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	assert.Contains(t, err.Error(), "inventory.stock_update")
	require.NoError(t, pub.Close())
}
