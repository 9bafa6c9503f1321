package producer

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"aircorr/db"
	"aircorr/types"

	"github.com/segmentio/kafka-go"
)

// Publish a station's freshness to Kafka.
func PublishStationStatus(writer *kafka.Writer, st types.StationStatus) error {
	b, err := json.Marshal(st)
	if err != nil {
		log.Printf("[Stations] JSON marshal error: %v", err)
		return err
	}
	err = writer.WriteMessages(context.Background(), kafka.Message{
		Key:   []byte(st.Station),
		Value: b,
		Time:  time.Now(),
	})
	if err != nil {
		log.Printf("[Stations] Kafka write error: %v", err)
		return err
	}
	log.Printf("[Stations] sent status %s: %d rows (latest %s)", st.Station, st.Rows, st.LatestDate)
	return nil
}

// StartStationMonitor polls row counts and publishes when a station moves.
func StartStationMonitor(database *sql.DB, writer *kafka.Writer) {
	log.Println("[Stations] freshness monitor started...")
	last := map[string]int{}

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		counts, latest, err := db.CountByStation(context.Background(), database)
		if err != nil {
			log.Printf("[Stations] DB query error: %v", err)
			continue
		}
		for station, n := range counts {
			if n == last[station] {
				continue
			}
			st := types.StationStatus{Station: station, Rows: n, LatestDate: latest[station]}
			if PublishStationStatus(writer, st) == nil {
				last[station] = n
			}
		}
	}
}
