package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircorr/model"
)

func row(station, date, tm string, vals map[string]float64) model.Observation {
	o := model.NewObservation(station, date, tm)
	for k, v := range vals {
		o.Set(k, v)
	}
	return o
}

func TestNormalizeDates(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "03/02/2019", "01:00", map[string]float64{"Temp": 1}),
		row("TLV", "2019/02/04", "01:00", map[string]float64{"Temp": 2}),
		row("TLV", "February 3rd", "01:00", map[string]float64{"Temp": 3}),
	})
	dropped := tbl.NormalizeDates()
	assert.Equal(t, 1, dropped)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "2019/02/03", tbl.Rows[0].Date)
	assert.Equal(t, "2019/02/04", tbl.Rows[1].Date)
}

func TestMergeDuplicates(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 10, "PM10": 40}),
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 20}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 5}),
	})
	merged := tbl.MergeDuplicates()
	assert.Equal(t, 1, merged)
	require.Len(t, tbl.Rows, 2)

	first := tbl.Rows[0]
	require.NotNil(t, first.Value("Temp"))
	assert.Equal(t, 15.0, *first.Value("Temp"))
	// PM10 was present once, so the mean is just that value.
	require.NotNil(t, first.Value("PM10"))
	assert.Equal(t, 40.0, *first.Value("PM10"))
}

func TestMergeDuplicatesExactDuplicateCountedOnce(t *testing.T) {
	// An identical repeated row must not be double-weighted in the mean:
	// 10, 10 (exact duplicate), 40 -> mean(10, 40) = 25.
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 10}),
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 10}),
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 40}),
	})
	merged := tbl.MergeDuplicates()
	assert.Equal(t, 2, merged)
	require.Len(t, tbl.Rows, 1)
	require.NotNil(t, tbl.Rows[0].Value("Temp"))
	assert.Equal(t, 25.0, *tbl.Rows[0].Value("Temp"))
}

func TestForwardFill(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("AFULA", "2019/02/03", "01:00", map[string]float64{"Temp": 5}),
		row("AFULA", "2019/02/03", "07:00", nil),
		row("AFULA", "2019/02/03", "13:00", nil),
		row("AFULA", "2019/02/03", "19:00", nil),
		// New station: no carry across the boundary.
		row("TLV", "2019/02/03", "01:00", nil),
	})
	tbl.Columns = []string{"Temp"}

	filled := tbl.ForwardFill(2)
	assert.Equal(t, 2, filled)
	require.NotNil(t, tbl.Rows[1].Value("Temp"))
	assert.Equal(t, 5.0, *tbl.Rows[1].Value("Temp"))
	require.NotNil(t, tbl.Rows[2].Value("Temp"))
	assert.Nil(t, tbl.Rows[3].Value("Temp")) // beyond the limit
	assert.Nil(t, tbl.Rows[4].Value("Temp")) // other station
}

func TestDropEmptyRows(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"WS": 2}),
		row("TLV", "2019/02/03", "07:00", nil),
	})
	dropped := tbl.DropEmptyRows()
	assert.Equal(t, 1, dropped)
	require.Len(t, tbl.Rows, 1)
}

func TestDropSparseColumns(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 1, "O3": 30}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 2}),
		row("TLV", "2019/02/03", "13:00", map[string]float64{"Temp": 3}),
		row("TLV", "2019/02/03", "19:00", map[string]float64{"Temp": 4}),
	})
	tbl.Columns = []string{"Temp", "O3"}

	dropped := tbl.DropSparseColumns(70)
	assert.Equal(t, []string{"O3"}, dropped)
	assert.Equal(t, []string{"Temp"}, tbl.Columns)
	assert.Nil(t, tbl.Rows[0].Value("O3"))
}

func TestDropSparseRows(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 1, "RH": 50}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 2}),
	})
	tbl.Columns = []string{"Temp", "RH", "WS"}

	dropped := tbl.DropSparseRows(1)
	assert.Equal(t, 1, dropped)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "01:00", tbl.Rows[0].Time)
}

func TestClipOutliers(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{
			"RH": 120, "Temp": -60, "WD": 400, "WS": -1, "PM2.5": -5,
		}),
	})
	clipped := tbl.ClipOutliers()
	assert.Equal(t, 4, clipped)
	assert.Equal(t, 100.0, *tbl.Rows[0].Value("RH"))
	assert.Equal(t, -50.0, *tbl.Rows[0].Value("Temp"))
	assert.Equal(t, 360.0, *tbl.Rows[0].Value("WD"))
	assert.Equal(t, 0.0, *tbl.Rows[0].Value("WS"))
	// PM2.5 has no configured range.
	assert.Equal(t, -5.0, *tbl.Rows[0].Value("PM2.5"))
}

func TestCodeStations(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 1}),
		row("AFULA", "2019/02/03", "01:00", map[string]float64{"Temp": 1}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 1}),
	})
	codes := tbl.CodeStations()
	assert.Equal(t, map[string]int{"TLV": 1, "AFULA": 2}, codes)
}

func TestClean(t *testing.T) {
	tbl := NewTable([]model.Observation{
		row("TLV", "03/02/2019", "01:00", map[string]float64{"Temp": 10, "PM10": 30}),
		row("TLV", "03/02/2019", "01:00", map[string]float64{"Temp": 20}),
		row("TLV", "03/02/2019", "07:00", nil),
	})
	c := Clean(tbl)

	assert.Equal(t, 1, c.Merged)
	assert.Equal(t, 2, c.Filled) // Temp and PM10 carried into the 07:00 row
	assert.Equal(t, 0, c.EmptyRowsDropped)
	assert.Equal(t, 0, c.SparseRowsDropped)
	assert.Equal(t, 0, c.Clipped)
	// Only Temp and PM10 survive the missing-percentage cut.
	assert.Len(t, c.DroppedColumns, len(model.MeasurementColumns)-2)
	assert.ElementsMatch(t, []string{"Temp", "PM10"}, tbl.Columns)

	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "2019/02/03", tbl.Rows[0].Date)
	assert.Equal(t, 15.0, *tbl.Rows[0].Value("Temp"))
	assert.Equal(t, 15.0, *tbl.Rows[1].Value("Temp"))
	assert.Equal(t, 30.0, *tbl.Rows[1].Value("PM10"))
}
