package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBehindToday(t *testing.T) {
	today := todayIsrael()
	assert.False(t, behindToday(today.Format(dayLayout)))
	assert.True(t, behindToday(today.AddDate(0, 0, -1).Format(dayLayout)))
	assert.False(t, behindToday(today.AddDate(0, 0, 1).Format(dayLayout)))
	assert.False(t, behindToday("not a date"))
}

// The reference day tracks the portal's zone, not the server's.
func TestTodayIsraelMatchesPortalZone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jerusalem")
	require.NoError(t, err)
	want := time.Now().In(loc)
	got := todayIsrael()
	assert.Equal(t, want.Year(), got.Year())
	assert.Equal(t, want.Month(), got.Month())
	assert.Equal(t, want.Day(), got.Day())
}
