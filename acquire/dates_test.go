package acquire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMonthsBetween(t *testing.T) {
	start, err := parseDay("15/11/2019")
	require.NoError(t, err)
	end, err := parseDay("03/02/2020")
	require.NoError(t, err)

	months := monthsBetween(start, end)
	require.Len(t, months, 4)
	assert.Equal(t, "01/11/2019", formatDay(months[0]))
	assert.Equal(t, "01/02/2020", formatDay(months[3]))
}

func TestMonthsBetweenSingleMonth(t *testing.T) {
	d, _ := parseDay("10/06/2021")
	months := monthsBetween(d, d)
	require.Len(t, months, 1)
	assert.Equal(t, time.June, months[0].Month())
}

func TestMonthBounds(t *testing.T) {
	m, _ := parseDay("17/02/2020")
	first, last := monthBounds(m)
	assert.Equal(t, "01/02/2020", formatDay(first))
	assert.Equal(t, "29/02/2020", formatDay(last)) // leap year
}
