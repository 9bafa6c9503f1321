package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	for _, marker := range []string{"Down", "InVld", "NoData", "Calib", "<Samp", "", "  "} {
		assert.Nil(t, ParseCell(marker), "marker %q", marker)
	}
	assert.Nil(t, ParseCell("abc"))

	v := ParseCell(" 12.7 ")
	require.NotNil(t, v)
	assert.Equal(t, 12.7, *v)

	neg := ParseCell("-0.3")
	require.NotNil(t, neg)
	assert.Equal(t, -0.3, *neg)
}

func TestMapHeader(t *testing.T) {
	col, ok := MapHeader("PM10 µg/m³")
	require.True(t, ok)
	assert.Equal(t, "PM10", col)

	col, ok = MapHeader("PM2.5\nµg/m³")
	require.True(t, ok)
	assert.Equal(t, "PM2.5", col)

	col, ok = MapHeader(" NOX ")
	require.True(t, ok)
	assert.Equal(t, "NOX", col)

	_, ok = MapHeader("SO2 ppb")
	assert.False(t, ok)
	_, ok = MapHeader("")
	assert.False(t, ok)
}

func TestSplitDateHour(t *testing.T) {
	date, hour, err := SplitDateHour("07:00 03/02/2019")
	require.NoError(t, err)
	assert.Equal(t, "2019/02/03", date)
	assert.Equal(t, "07:00", hour)

	_, _, err = SplitDateHour("03/02/2019")
	assert.Error(t, err)
}

func TestBuildObservations(t *testing.T) {
	headers := []string{"NO ppb", "PM10 µg/m³", "SO2 ppb"}
	labels := []string{
		"01:00 03/02/2019",
		"07:00 03/02/2019",
		"not a label",
	}
	cells := [][]string{
		{"3.1", "44", "9"},        // SO2 ignored, NO + PM10 kept
		{"Down", "NoData", "1.0"}, // nothing recognisable survives
		{"1", "2", "3"},
	}

	obs := BuildObservations("KARMIEL", headers, labels, cells)
	require.Len(t, obs, 1)
	o := obs[0]
	assert.Equal(t, "KARMIEL", o.Station)
	assert.Equal(t, "2019/02/03", o.Date)
	assert.Equal(t, "01:00", o.Time)
	require.NotNil(t, o.Value("NO"))
	assert.Equal(t, 3.1, *o.Value("NO"))
	require.NotNil(t, o.Value("PM10"))
	assert.Equal(t, 44.0, *o.Value("PM10"))
	assert.Nil(t, o.Value("O3"))
}

func TestBuildObservationsShortRow(t *testing.T) {
	headers := []string{"NO", "NO2", "O3"}
	obs := BuildObservations("TLV", headers, []string{"13:00 01/01/2020"}, [][]string{{"5.5"}})
	require.Len(t, obs, 1)
	require.NotNil(t, obs[0].Value("NO"))
	assert.Nil(t, obs[0].Value("NO2"))
}
