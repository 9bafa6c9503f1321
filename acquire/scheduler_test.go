package acquire

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUntilNextTopOfHourPlus(t *testing.T) {
	offset := 10 * time.Minute
	wait := untilNextTopOfHourPlus(offset)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Hour+offset)
}
