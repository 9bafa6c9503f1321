package model

import (
	"fmt"
	"time"
)

// Measurement column names of the study frame, in canonical order.
// The first six come from the Envista weather feed, the rest from the
// air-monitoring portal.
var MeasurementColumns = []string{
	"Pressure", "RH", "Temp", "WD", "WS", "PREC",
	"NO", "NO2", "NOX", "O3", "PM10", "PM2.5",
}

const (
	DateLayout = "2006/01/02"
	TimeLayout = "15:04"
)

// Observation is one station/date/hour row. Missing measurements are nil.
type Observation struct {
	Station string              `json:"station"`
	Date    string              `json:"date"` // YYYY/MM/DD
	Time    string              `json:"time"` // HH:MM
	Values  map[string]*float64 `json:"values"`
}

func NewObservation(station, date, tm string) Observation {
	return Observation{
		Station: station,
		Date:    date,
		Time:    tm,
		Values:  make(map[string]*float64, len(MeasurementColumns)),
	}
}

func (o Observation) Value(col string) *float64 {
	return o.Values[col]
}

func (o *Observation) Set(col string, v float64) {
	if o.Values == nil {
		o.Values = make(map[string]*float64, len(MeasurementColumns))
	}
	val := v
	o.Values[col] = &val
}

// MissingCount reports how many of cols are absent from the row.
func (o Observation) MissingCount(cols []string) int {
	n := 0
	for _, c := range cols {
		if o.Values[c] == nil {
			n++
		}
	}
	return n
}

// Validate rejects rows that cannot be keyed or carry no measurement at all.
func (o Observation) Validate() error {
	if o.Station == "" {
		return fmt.Errorf("observation without station")
	}
	if _, err := time.Parse(DateLayout, o.Date); err != nil {
		return fmt.Errorf("bad date %q: %w", o.Date, err)
	}
	if _, err := time.Parse(TimeLayout, o.Time); err != nil {
		return fmt.Errorf("bad time %q: %w", o.Time, err)
	}
	for _, v := range o.Values {
		if v != nil {
			return nil
		}
	}
	return fmt.Errorf("observation %s %s %s has no measurements", o.Station, o.Date, o.Time)
}

// Key identifies a row inside one source.
func (o Observation) Key() string {
	return o.Station + "|" + o.Date + "|" + o.Time
}
