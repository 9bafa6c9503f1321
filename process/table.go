package process

import (
	"sort"

	"aircorr/model"
)

// Table is the in-memory study frame: observation rows plus the set of
// measurement columns still active (cleaning may drop columns).
type Table struct {
	Rows    []model.Observation
	Columns []string
}

func NewTable(rows []model.Observation) *Table {
	cols := make([]string, len(model.MeasurementColumns))
	copy(cols, model.MeasurementColumns)
	return &Table{Rows: rows, Columns: cols}
}

// Sort orders rows by station, date and time, the key order every cleaning
// step assumes.
func (t *Table) Sort() {
	sort.SliceStable(t.Rows, func(i, j int) bool {
		a, b := t.Rows[i], t.Rows[j]
		if a.Station != b.Station {
			return a.Station < b.Station
		}
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})
}

func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Column collects one measurement across all rows, nil where missing.
func (t *Table) Column(name string) []*float64 {
	out := make([]*float64, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Value(name)
	}
	return out
}

// Present returns only the non-missing values of a column.
func (t *Table) Present(name string) []float64 {
	var out []float64
	for _, r := range t.Rows {
		if v := r.Value(name); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

func (t *Table) dropColumn(name string) {
	kept := t.Columns[:0]
	for _, c := range t.Columns {
		if c != name {
			kept = append(kept, c)
		}
	}
	t.Columns = kept
	for i := range t.Rows {
		delete(t.Rows[i].Values, name)
	}
}
