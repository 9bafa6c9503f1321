package main

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"aircorr/acquire"
	"aircorr/analyze"
	"aircorr/config"
	api "aircorr/connect"
	"aircorr/consumer"
	"aircorr/db"
	"aircorr/metrics"
	"aircorr/process"
	"aircorr/producer"
	"aircorr/scrape"
)

func main() {
	database := db.ConnectDB()
	if err := db.EnsureObservationTables(context.Background(), database); err != nil {
		log.Fatalf("[Main] schema bootstrap failed: %v", err)
	}

	obsWriter := producer.NewObservationWriter()
	statusWriter := producer.NewStationStatusWriter()
	pub := producer.ObservationPublisher{Writer: obsWriter}

	reporter, err := producer.NewSaramaProducer(config.KafkaBrokers)
	if err != nil {
		panic(err)
	}
	defer reporter.Close()

	consumer.StartObservationConsumer(database)
	go producer.StartStationMonitor(database, statusWriter)

	imsClient, err := acquire.NewClientFromEnv()
	if err != nil {
		log.Printf("[Main] IMS client unavailable, API acquisition disabled: %v", err)
	} else {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := imsClient.ValidateCatalogue(ctx); err != nil {
				log.Printf("[Main] catalogue validation: %v", err)
			}
		}()
	}

	// One shared checkpoint: the scheduler and the backfill handler mutate
	// the same instance, so neither overwrites the other's windows on disk.
	cp, err := acquire.LoadCheckpoint(config.CheckpointPath)
	if err != nil {
		log.Fatalf("[Main] checkpoint load failed: %v", err)
	}

	// One pipeline run: acquire, scrape, clean, model.
	run := func(runCtx context.Context) error {
		if imsClient != nil {
			if !acquire.FetchAll(runCtx, imsClient, cp, config.CheckpointPath, pub) {
				log.Println("[Main] API acquisition incomplete, continuing")
			}
		}
		runScrape(runCtx, pub, cp)
		if err := process.RunCleaning(runCtx, database); err != nil {
			return err
		}
		return analyze.RunStudy(runCtx, database, reporter)
	}
	acquire.StartScheduler(context.Background(), run)

	go func() {
		if err := metrics.InitAndServe(config.MetricsAddr); err != nil {
			log.Printf("[Main] metrics server: %v", err)
		}
	}()

	http.HandleFunc("/stations", api.StationsHandler(database))
	http.HandleFunc("/observations", api.ObservationsHandler(database))
	http.HandleFunc("/backfill", api.BackfillHandler(backfill(imsClient, cp, pub)))

	log.Printf("Server running on %s", config.HTTPAddr)
	log.Fatal(http.ListenAndServe(config.HTTPAddr, nil))
}

func runScrape(ctx context.Context, pub acquire.Publisher, cp *acquire.Checkpoint) {
	scraper, err := scrape.NewScraper(pub, acquire.PortalView{CP: cp, Path: config.CheckpointPath})
	if err != nil {
		log.Printf("[Main] scraper unavailable: %v", err)
		return
	}
	defer scraper.Close()
	if err := scraper.OpenMenu(); err != nil {
		log.Printf("[Main] portal navigation failed: %v", err)
		return
	}
	if !scraper.AcquireStations(ctx) {
		log.Println("[Main] portal acquisition incomplete, continuing")
	}
}

// backfill resets one station's window on the shared checkpoint and
// re-fetches it.
func backfill(c *acquire.Client, cp *acquire.Checkpoint, pub acquire.Publisher) api.BackfillFunc {
	return func(stationID int, from, to string) {
		if c == nil {
			log.Println("[Backfill] IMS client unavailable")
			return
		}
		site, name := "", ""
		for key, s := range config.Stations {
			if n, ok := s.EnvistaIDs[stationID]; ok {
				site, name = key, n
				break
			}
		}
		if site == "" {
			log.Printf("[Backfill] station %d not in catalogue", stationID)
			return
		}
		cp.SetWindow(strconv.Itoa(stationID), [2]string{from, to})
		ctx, cancel := context.WithTimeout(context.Background(), config.AcquireTimeout)
		defer cancel()
		if !c.FetchStation(ctx, cp, config.CheckpointPath, site, stationID, name, pub) {
			log.Printf("[Backfill] station %d window %s..%s did not complete", stationID, from, to)
		}
	}
}
