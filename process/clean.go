package process

import (
	"log"
	"strconv"
	"strings"
	"time"

	"aircorr/config"
	"aircorr/model"

	"gonum.org/v1/gonum/stat"
)

// Counters summarises what one cleaning pass changed.
type Counters struct {
	Merged            int      `json:"merged"`
	Filled            int      `json:"filled"`
	EmptyRowsDropped  int      `json:"empty_rows_dropped"`
	SparseRowsDropped int      `json:"sparse_rows_dropped"`
	Clipped           int      `json:"clipped"`
	DroppedColumns    []string `json:"dropped_columns"`
}

// Physical ranges per column; nil bound means unbounded on that side.
// Values outside are clipped to the bound rather than discarded.
var acceptableRanges = map[string][2]*float64{
	"RH":   {f(0), f(100)},
	"Temp": {f(-50), f(60)},
	"WD":   {f(0), f(360)},
	"WS":   {f(0), nil},
	"PREC": {f(0), nil},
	"NO":   {f(0), nil},
	"NO2":  {f(0), nil},
	"NOX":  {f(0), nil},
	"O3":   {f(0), nil},
	"PM10": {f(0), nil},
}

func f(v float64) *float64 { return &v }

// NormalizeDates rewrites DD/MM/YYYY dates into the canonical YYYY/MM/DD.
// Rows already canonical pass through; unparseable rows are dropped.
func (t *Table) NormalizeDates() int {
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if _, err := time.Parse(model.DateLayout, r.Date); err == nil {
			kept = append(kept, r)
			continue
		}
		d, err := time.Parse("02/01/2006", r.Date)
		if err != nil {
			dropped++
			continue
		}
		r.Date = d.Format(model.DateLayout)
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// rowSignature identifies a fully identical row: key plus every column value.
func rowSignature(o model.Observation, cols []string) string {
	var b strings.Builder
	b.WriteString(o.Key())
	for _, c := range cols {
		b.WriteByte('|')
		if v := o.Value(c); v != nil {
			b.WriteString(strconv.FormatFloat(*v, 'g', -1, 64))
		}
	}
	return b.String()
}

// MergeDuplicates first drops exact duplicates (all columns equal, keep
// last), then collapses rows sharing (station,date,time) into one row
// holding the mean of each column's present values. Without the first step
// a repeated identical row would be double-weighted in the mean.
func (t *Table) MergeDuplicates() int {
	before := len(t.Rows)

	seen := map[string]int{}
	deduped := make([]model.Observation, 0, len(t.Rows))
	for _, r := range t.Rows {
		sig := rowSignature(r, t.Columns)
		if i, ok := seen[sig]; ok {
			deduped[i] = r
			continue
		}
		seen[sig] = len(deduped)
		deduped = append(deduped, r)
	}

	groups := map[string][]model.Observation{}
	order := []string{}
	for _, r := range deduped {
		k := r.Key()
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	out := make([]model.Observation, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if len(g) == 1 {
			out = append(out, g[0])
			continue
		}
		merged := model.NewObservation(g[0].Station, g[0].Date, g[0].Time)
		for _, col := range t.Columns {
			var vals []float64
			for _, r := range g {
				if v := r.Value(col); v != nil {
					vals = append(vals, *v)
				}
			}
			if len(vals) > 0 {
				merged.Set(col, stat.Mean(vals, nil))
			}
		}
		out = append(out, merged)
	}
	t.Rows = out
	t.Sort()
	return before - len(out)
}

// ForwardFill carries the last observed value forward per station and
// column, for at most limit rows (fill days x samples per day).
func (t *Table) ForwardFill(limit int) int {
	filled := 0
	for _, col := range t.Columns {
		var station string
		var last *float64
		age := 0
		for i := range t.Rows {
			r := &t.Rows[i]
			if r.Station != station {
				station, last, age = r.Station, nil, 0
			}
			if v := r.Value(col); v != nil {
				val := *v
				last, age = &val, 0
				continue
			}
			age++
			if last != nil && age <= limit {
				r.Set(col, *last)
				filled++
			}
		}
	}
	return filled
}

// DropEmptyRows removes rows where every active column is missing.
func (t *Table) DropEmptyRows() int {
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if r.MissingCount(t.Columns) == len(t.Columns) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// DropSparseColumns removes columns whose missing percentage exceeds pct.
func (t *Table) DropSparseColumns(pct float64) []string {
	if len(t.Rows) == 0 {
		return nil
	}
	var dropped []string
	for _, col := range append([]string(nil), t.Columns...) {
		missing := 0
		for _, r := range t.Rows {
			if r.Value(col) == nil {
				missing++
			}
		}
		if float64(missing)/float64(len(t.Rows))*100 > pct {
			t.dropColumn(col)
			dropped = append(dropped, col)
		}
	}
	return dropped
}

// DropSparseRows removes rows missing more than maxMissing active columns.
func (t *Table) DropSparseRows(maxMissing int) int {
	kept := t.Rows[:0]
	dropped := 0
	for _, r := range t.Rows {
		if r.MissingCount(t.Columns) > maxMissing {
			dropped++
			continue
		}
		kept = append(kept, r)
	}
	t.Rows = kept
	return dropped
}

// ClipOutliers clamps out-of-range values to the acceptable bound.
func (t *Table) ClipOutliers() int {
	clipped := 0
	for _, col := range t.Columns {
		bounds, ok := acceptableRanges[col]
		if !ok {
			continue
		}
		lo, hi := bounds[0], bounds[1]
		for i := range t.Rows {
			v := t.Rows[i].Value(col)
			if v == nil {
				continue
			}
			switch {
			case lo != nil && *v < *lo:
				t.Rows[i].Set(col, *lo)
				clipped++
			case hi != nil && *v > *hi:
				t.Rows[i].Set(col, *hi)
				clipped++
			}
		}
	}
	return clipped
}

// CodeStations assigns stable first-appearance integer codes, 1-based.
func (t *Table) CodeStations() map[string]int {
	codes := map[string]int{}
	for _, r := range t.Rows {
		if _, ok := codes[r.Station]; !ok {
			codes[r.Station] = len(codes) + 1
		}
	}
	return codes
}

// Clean runs the full pass in the study's order and reports what changed.
func Clean(t *Table) Counters {
	var c Counters
	if bad := t.NormalizeDates(); bad > 0 {
		log.Printf("[Clean] dropped %d rows with unparseable dates", bad)
	}
	t.Sort()
	c.Merged = t.MergeDuplicates()
	fillLimit := config.FillDaysLimit * len(config.FetchHours)
	c.Filled = t.ForwardFill(fillLimit)
	c.EmptyRowsDropped = t.DropEmptyRows()
	c.DroppedColumns = t.DropSparseColumns(config.ColumnMissingPct)
	c.SparseRowsDropped = t.DropSparseRows(config.RowMissingMax)
	c.Clipped = t.ClipOutliers()

	log.Printf("[Clean] merged=%d filled=%d empty=%d sparse=%d clipped=%d dropped_cols=%v rows=%d",
		c.Merged, c.Filled, c.EmptyRowsDropped, c.SparseRowsDropped, c.Clipped, c.DroppedColumns, len(t.Rows))
	return c
}
