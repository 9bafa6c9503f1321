package analyze

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"sort"

	"aircorr/process"

	"gonum.org/v1/gonum/stat"
)

// ColumnSummary is one row of the descriptive-statistics report.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q10    float64 `json:"q10"`
	Median float64 `json:"median"`
	Q90    float64 `json:"q90"`
	Max    float64 `json:"max"`
}

// quantileSorted interpolates the q-quantile of an ascending slice.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Describe summarises every active column over its present values.
func Describe(t *process.Table) []ColumnSummary {
	out := make([]ColumnSummary, 0, len(t.Columns))
	for _, col := range t.Columns {
		vals := t.Present(col)
		s := ColumnSummary{Column: col, Count: len(vals)}
		if len(vals) > 0 {
			sorted := append([]float64(nil), vals...)
			sort.Float64s(sorted)
			s.Mean = stat.Mean(vals, nil)
			if len(vals) > 1 {
				s.Std = stat.StdDev(vals, nil)
			}
			s.Min = sorted[0]
			s.Q10 = quantileSorted(sorted, 0.10)
			s.Median = quantileSorted(sorted, 0.50)
			s.Q90 = quantileSorted(sorted, 0.90)
			s.Max = sorted[len(sorted)-1]
		}
		out = append(out, s)
	}
	return out
}

// CorrelationMatrix computes pairwise Pearson correlation over rows where
// both columns are present. Degenerate pairs (constant or too few rows)
// report 0.
func CorrelationMatrix(t *process.Table) ([]string, [][]float64) {
	cols := append([]string(nil), t.Columns...)
	m := make([][]float64, len(cols))
	for i := range m {
		m[i] = make([]float64, len(cols))
		m[i][i] = 1
	}
	for i := 0; i < len(cols); i++ {
		ci := t.Column(cols[i])
		for j := i + 1; j < len(cols); j++ {
			cj := t.Column(cols[j])
			var xs, ys []float64
			for k := range ci {
				if ci[k] != nil && cj[k] != nil {
					xs = append(xs, *ci[k])
					ys = append(ys, *cj[k])
				}
			}
			r := 0.0
			if len(xs) >= 2 {
				r = stat.Correlation(xs, ys, nil)
				if math.IsNaN(r) {
					r = 0
				}
			}
			m[i][j] = r
			m[j][i] = r
		}
	}
	return cols, m
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
