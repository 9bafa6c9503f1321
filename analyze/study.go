package analyze

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"aircorr/config"
	"aircorr/db"
	"aircorr/metrics"
	"aircorr/process"
	"aircorr/producer"

	"github.com/IBM/sarama"
)

// EDAReport is written to config.EDAReportPath after every study run.
type EDAReport struct {
	GeneratedAt string          `json:"generated_at"`
	Rows        int             `json:"rows"`
	Summaries   []ColumnSummary `json:"summaries"`
	CorrColumns []string        `json:"correlation_columns"`
	Correlation [][]float64     `json:"correlation"`
}

type ModelResult struct {
	Model  string `json:"model"`
	Scores Scores `json:"scores"`
}

// ModelReport compares the fitted models on the shared test split.
type ModelReport struct {
	GeneratedAt string        `json:"generated_at"`
	Target      string        `json:"target"`
	Features    []string      `json:"features"`
	TrainRows   int           `json:"train_rows"`
	TestRows    int           `json:"test_rows"`
	Models      []ModelResult `json:"models"`
	Best        string        `json:"best"`
}

// RunStudy loads the clean table, writes the EDA artifact, fits OLS and the
// regression tree on one seeded split and publishes the comparison.
func RunStudy(ctx context.Context, database *sql.DB, reporter sarama.SyncProducer) error {
	rows, err := db.LoadCleanObservations(ctx, database)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("clean table is empty, nothing to analyse")
	}

	t := process.NewTable(rows)
	// Columns dropped by cleaning come back as all-NULL; discard them again.
	t.DropSparseColumns(config.ColumnMissingPct)

	summaries := Describe(t)
	corrCols, corr := CorrelationMatrix(t)
	eda := EDAReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Rows:        len(t.Rows),
		Summaries:   summaries,
		CorrColumns: corrCols,
		Correlation: corr,
	}
	if err := writeJSONFile(config.EDAReportPath, eda); err != nil {
		return fmt.Errorf("write EDA report: %w", err)
	}
	log.Printf("[Study] EDA over %d rows written to %s", len(t.Rows), config.EDAReportPath)

	ds, err := BuildDataset(t, config.TargetColumn, nil)
	if err != nil {
		return err
	}
	train, test := ds.Split(config.TestFraction, config.SplitSeed)
	log.Printf("[Study] target=%s features=%v train=%d test=%d",
		config.TargetColumn, ds.Features, len(train.Y), len(test.Y))

	report := ModelReport{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Target:      config.TargetColumn,
		Features:    ds.Features,
		TrainRows:   len(train.Y),
		TestRows:    len(test.Y),
	}

	lin, err := FitLinear(train)
	if err != nil {
		return fmt.Errorf("linear fit: %w", err)
	}
	linScores := Evaluate(test.Y, lin.PredictAll(test))
	report.Models = append(report.Models, ModelResult{Model: "linear", Scores: linScores})
	metrics.ModelR2Gauge.WithLabelValues("linear").Set(linScores.R2)

	tree, err := FitTree(train, config.TreeMaxDepth, config.TreeMinLeaf)
	if err != nil {
		return fmt.Errorf("tree fit: %w", err)
	}
	treeScores := Evaluate(test.Y, tree.PredictAll(test))
	report.Models = append(report.Models, ModelResult{Model: "tree", Scores: treeScores})
	metrics.ModelR2Gauge.WithLabelValues("tree").Set(treeScores.R2)

	report.Best = "linear"
	if treeScores.R2 > linScores.R2 {
		report.Best = "tree"
	}

	if err := writeJSONFile(config.ModelReportPath, report); err != nil {
		return fmt.Errorf("write model report: %w", err)
	}
	log.Printf("[Study] linear R2=%.4f MSE=%.2f MAE=%.2f | tree R2=%.4f MSE=%.2f MAE=%.2f | best=%s",
		linScores.R2, linScores.MSE, linScores.MAE, treeScores.R2, treeScores.MSE, treeScores.MAE, report.Best)

	if reporter != nil {
		if err := producer.PublishReport(reporter, report); err != nil {
			log.Printf("[Study] report publish failed: %v", err)
		}
	}
	return nil
}
