package kafka

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"payments-system/domain/entities"

	"github.com/Shopify/sarama"
	"github.com/lysu/kazoo-go"
	"go.uber.org/zap"
)

type Storage struct {
	sarama.SyncProducer
	*kazoo.Kazoo
}

func NewConnection(ctx context.Context, zkAddrs, brokers string) (storage Storage, err error) {

	conf := kazoo.NewConfig()
	conf.Timeout = time.Minute

	kz, err := kazoo.NewKazoo(strings.Split(zkAddrs, ","), conf)

	if err != nil {
		return storage, err
	}

	producer, err := sarama.NewSyncProducer(strings.Split(brokers, ","), nil)

	if err != nil {
		return storage, err
	}

	return Storage{
		Kazoo:        kz,
		SyncProducer: producer,
	}, err

}

type eventStreamImpl struct {
	producer sarama.SyncProducer
	topic    string
	logger   *zap.Logger
}

// NewEventStream wraps the producer into the transaction event publisher.
// Every message is keyed with the internal reference so consumers see
// status updates for the same transaction in order.
func NewEventStream(storage Storage, topic string, logger *zap.Logger) *eventStreamImpl {
	return &eventStreamImpl{
		producer: storage.SyncProducer,
		topic:    topic,
		logger:   logger,
	}
}

func (r eventStreamImpl) PublishResult(result entities.RailResult) error {
	body, err := json.Marshal(result)
	if err != nil {
		return err
	}

	partition, offset, err := r.producer.SendMessage(&sarama.ProducerMessage{
		Topic: r.topic,
		Key:   sarama.StringEncoder(result.Reference),
		Value: sarama.ByteEncoder(body),
	})

	if err != nil {
		r.logger.With(zap.String("reference", result.Reference)).
			With(zap.String("topic", r.topic)).
			With(zap.Error(err)).
			Error("KAFKA_PUBLISH")
		return err
	}

	r.logger.With(zap.String("reference", result.Reference)).
		With(zap.Int32("partition", partition)).
		With(zap.Int64("offset", offset)).
		Info("KAFKA_PUBLISH")

	return nil
}
