package consumer

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"aircorr/config"
	"aircorr/db"
	"aircorr/metrics"
	"aircorr/model"
	"aircorr/types"

	"github.com/IBM/sarama"
)

// StartObservationConsumer subscribes to the observation topic and lands
// every valid message in Postgres.
func StartObservationConsumer(database *sql.DB) {
	fmt.Println("[Kafka: Ingest] StartObservationConsumer started")

	brokers := config.KafkaBrokers
	topic := config.TopicObservations
	partition := int32(0)

	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_1_0_0

	consumer, err := sarama.NewConsumer(brokers, saramaConfig)
	if err != nil {
		panic(fmt.Sprintf("[Kafka: Ingest] consumer create failed: %v", err))
	}

	partitionConsumer, err := consumer.ConsumePartition(topic, partition, sarama.OffsetNewest)
	if err != nil {
		panic(fmt.Sprintf("[Kafka: Ingest] partition subscribe failed: %v", err))
	}

	go func() {
		fmt.Println("[Kafka: Ingest] partition consumer waiting...")
		for msg := range partitionConsumer.Messages() {
			HandleObservationMessage(msg.Value, database)
		}
	}()
}

// HandleObservationMessage validates and stores a single message. Malformed
// input is logged and skipped, never fatal.
func HandleObservationMessage(raw []byte, database *sql.DB) {
	var msg types.ObservationMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		log.Printf("[Ingest] JSON decode error: %v", err)
		metrics.MessagesRejected.Inc()
		return
	}
	if msg.Source != "ims" && msg.Source != "portal" {
		log.Printf("[Ingest] unknown source %q", msg.Source)
		metrics.MessagesRejected.Inc()
		return
	}
	if err := msg.Observation.Validate(); err != nil {
		log.Printf("[Ingest] invalid observation: %v", err)
		metrics.MessagesRejected.Inc()
		return
	}

	err := db.InsertObservations(context.Background(), database, msg.Source,
		[]model.Observation{msg.Observation})
	if err != nil {
		log.Printf("[Ingest] DB insert error for %s: %v", msg.Observation.Key(), err)
		return
	}
	metrics.MessagesIngested.Inc()
}
