package process

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"aircorr/config"
	"aircorr/db"
	"aircorr/metrics"
)

// RunCleaning loads the raw table, cleans it, swaps the clean table and
// refreshes the CSV export.
func RunCleaning(ctx context.Context, database *sql.DB) error {
	rows, err := db.LoadObservations(ctx, database)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no raw observations to clean")
	}

	t := NewTable(rows)
	c := Clean(t)
	metrics.RowsDroppedGauge.Set(float64(c.EmptyRowsDropped + c.SparseRowsDropped))
	metrics.RowsFilledGauge.Set(float64(c.Filled))

	if err := db.ReplaceCleanObservations(ctx, database, t.Rows); err != nil {
		return fmt.Errorf("replace clean table: %w", err)
	}
	if err := WriteCSV(t, t.CodeStations(), config.CleanCSVPath); err != nil {
		return fmt.Errorf("csv export: %w", err)
	}
	log.Printf("[Clean] %d clean rows stored, CSV at %s", len(t.Rows), config.CleanCSVPath)
	return nil
}
