package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/sirupsen/logrus"
)

var _ ManualQueue = (*KafkaQueue)(nil)

// KafkaQueue publishes manual events as JSON messages keyed by event kind.
type KafkaQueue struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaQueue(brokers, topic string) (*KafkaQueue, error) {
	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "all",
	})
	if err != nil {
		return nil, err
	}

	return &KafkaQueue{producer: producer, topic: topic}, nil
}

func (k *KafkaQueue) Publish(ctx context.Context, event *ManualEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	delivery := make(chan kafka.Event, 1)
	err = k.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &k.topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.Kind),
		Value:          value,
	}, delivery)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case e := <-delivery:
		msg, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected kafka event: %v", e)
		}
		if msg.TopicPartition.Error != nil {
			return msg.TopicPartition.Error
		}
	}

	return nil
}

func (k *KafkaQueue) Close() error {
	if remaining := k.producer.Flush(5000); remaining > 0 {
		logrus.Warnf("kafka producer closed with %d undelivered events", remaining)
	}
	k.producer.Close()

	return nil
}
