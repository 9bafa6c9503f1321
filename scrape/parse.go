package scrape

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"aircorr/model"
)

// Markers the portal renders instead of a number when a sampler is down,
// calibrating or below the detection limit.
var naMarkers = map[string]bool{
	"Down": true, "InVld": true, "NoData": true, "Calib": true, "<Samp": true,
}

// Pollutant headers the study keeps. The portal appends units to some
// headers, so matching happens on the first token.
var portalColumns = map[string]string{
	"NO": "NO", "NO2": "NO2", "NOX": "NOX", "O3": "O3", "PM10": "PM10", "PM2.5": "PM2.5",
}

// ParseCell turns a table cell into a measurement; NA markers and anything
// non-numeric become nil.
func ParseCell(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" || naMarkers[s] {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// MapHeader resolves a portal column header to a frame column.
func MapHeader(h string) (string, bool) {
	h = strings.TrimSpace(h)
	if i := strings.IndexAny(h, " \n"); i >= 0 {
		h = h[:i]
	}
	col, ok := portalColumns[h]
	return col, ok
}

// SplitDateHour parses the portal's "HH:MM DD/MM/YYYY" row label into the
// canonical date and hour.
func SplitDateHour(s string) (date, hour string, err error) {
	t, err := time.Parse("15:04 02/01/2006", strings.TrimSpace(s))
	if err != nil {
		return "", "", fmt.Errorf("bad row label %q: %w", s, err)
	}
	return t.Format(model.DateLayout), t.Format(model.TimeLayout), nil
}

// BuildObservations assembles rows from the scraped table. labels[i] is the
// row label of cells[i]; rows with no recognisable measurement are dropped.
func BuildObservations(station string, headers []string, labels []string, cells [][]string) []model.Observation {
	var out []model.Observation
	for i, label := range labels {
		date, hour, err := SplitDateHour(label)
		if err != nil {
			continue
		}
		o := model.NewObservation(station, date, hour)
		for j, h := range headers {
			if j >= len(cells[i]) {
				break
			}
			col, ok := MapHeader(h)
			if !ok {
				continue
			}
			if v := ParseCell(cells[i][j]); v != nil {
				o.Set(col, *v)
			}
		}
		if o.MissingCount(model.MeasurementColumns) == len(model.MeasurementColumns) {
			continue
		}
		out = append(out, o)
	}
	return out
}
