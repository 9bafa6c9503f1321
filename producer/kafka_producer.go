package producer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"aircorr/config"
	"aircorr/types"

	"github.com/IBM/sarama"
	"github.com/segmentio/kafka-go"
)

// Writer carrying raw observations to the ingest consumer.
func NewObservationWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(config.KafkaBrokers...),
		Topic:    config.TopicObservations,
		Balancer: &kafka.LeastBytes{},
	}
}

func NewStationStatusWriter() *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(config.KafkaBrokers...),
		Topic:    config.TopicStationStatus,
		Balancer: &kafka.LeastBytes{},
	}
}

// ObservationPublisher adapts a kafka writer to acquire.Publisher.
type ObservationPublisher struct {
	Writer *kafka.Writer
}

func (p ObservationPublisher) Publish(ctx context.Context, msg types.ObservationMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Observation.Station),
		Value: b,
	})
}

// Sarama producer used for the model report topic.
func NewSaramaProducer(brokers []string) (sarama.SyncProducer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Return.Successes = true

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("sarama producer: %v", err)
	}
	return producer, nil
}

// PublishReport sends an analysis artifact to the report topic.
func PublishReport(p sarama.SyncProducer, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[Report] JSON marshal error: %v", err)
		return err
	}
	_, _, err = p.SendMessage(&sarama.ProducerMessage{
		Topic: config.TopicModelReport,
		Value: sarama.ByteEncoder(b),
	})
	if err != nil {
		log.Printf("[Report] Kafka write error: %v", err)
	}
	return err
}
