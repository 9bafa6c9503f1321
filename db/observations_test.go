package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircorr/model"
)

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, "($1,$2,$3)", placeholders(1, 3))
	assert.Equal(t, "($1,$2),($3,$4)", placeholders(2, 2))
}

func TestColumnMappingsCover(t *testing.T) {
	require.Len(t, dbColumns, len(model.MeasurementColumns))
	for _, c := range model.MeasurementColumns {
		dbc, ok := frameToDB[c]
		require.True(t, ok, "frame column %q unmapped", c)
		assert.Equal(t, c, dbToFrame[dbc])
	}
}

func TestRowArgs(t *testing.T) {
	o := model.NewObservation("TLV", "2019/02/03", "01:00")
	o.Set("Pressure", 1012)
	o.Set("PM2.5", 12.5)

	args := rowArgs(o)
	require.Len(t, args, len(dbColumns))
	assert.Equal(t, sql.NullFloat64{Float64: 1012, Valid: true}, args[0])
	assert.Equal(t, sql.NullFloat64{}, args[1]) // rh missing
	assert.Equal(t, sql.NullFloat64{Float64: 12.5, Valid: true}, args[len(args)-1])
}
