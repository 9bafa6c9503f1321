package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	o := NewObservation("TLV", "2021/03/15", "07:00")
	o.Set("PM10", 41.5)
	require.NoError(t, o.Validate())

	noStation := NewObservation("", "2021/03/15", "07:00")
	noStation.Set("PM10", 1)
	assert.Error(t, noStation.Validate())

	badDate := NewObservation("TLV", "15/03/2021", "07:00")
	badDate.Set("PM10", 1)
	assert.Error(t, badDate.Validate())

	badTime := NewObservation("TLV", "2021/03/15", "7am")
	badTime.Set("PM10", 1)
	assert.Error(t, badTime.Validate())

	empty := NewObservation("TLV", "2021/03/15", "07:00")
	assert.Error(t, empty.Validate())
}

func TestMissingCount(t *testing.T) {
	o := NewObservation("TLV", "2021/03/15", "07:00")
	assert.Equal(t, len(MeasurementColumns), o.MissingCount(MeasurementColumns))

	o.Set("Temp", 21.0)
	o.Set("PM2.5", 12.3)
	assert.Equal(t, len(MeasurementColumns)-2, o.MissingCount(MeasurementColumns))
}

func TestKey(t *testing.T) {
	o := NewObservation("AFULA", "2020/01/02", "13:00")
	assert.Equal(t, "AFULA|2020/01/02|13:00", o.Key())
}
