package analyze

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aircorr/model"
	"aircorr/process"
)

func row(station, date, tm string, vals map[string]float64) model.Observation {
	o := model.NewObservation(station, date, tm)
	for k, v := range vals {
		o.Set(k, v)
	}
	return o
}

func TestQuantileSorted(t *testing.T) {
	assert.Equal(t, 0.0, quantileSorted(nil, 0.5))
	assert.Equal(t, 7.0, quantileSorted([]float64{7}, 0.9))

	sorted := []float64{1, 2, 3, 4, 5}
	assert.Equal(t, 3.0, quantileSorted(sorted, 0.5))
	assert.Equal(t, 1.0, quantileSorted(sorted, 0))
	assert.Equal(t, 5.0, quantileSorted(sorted, 1))
	assert.InDelta(t, 1.4, quantileSorted(sorted, 0.1), 1e-9)
}

func TestDescribe(t *testing.T) {
	tbl := process.NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 10}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 20}),
		row("TLV", "2019/02/03", "13:00", nil),
	})
	tbl.Columns = []string{"Temp", "PM10"}

	sums := Describe(tbl)
	require.Len(t, sums, 2)

	temp := sums[0]
	assert.Equal(t, "Temp", temp.Column)
	assert.Equal(t, 2, temp.Count)
	assert.Equal(t, 15.0, temp.Mean)
	assert.Equal(t, 10.0, temp.Min)
	assert.Equal(t, 20.0, temp.Max)
	assert.Equal(t, 15.0, temp.Median)

	pm := sums[1]
	assert.Equal(t, 0, pm.Count)
	assert.Equal(t, 0.0, pm.Mean)
}

func TestCorrelationMatrix(t *testing.T) {
	rows := make([]model.Observation, 0, 10)
	for i := 0; i < 10; i++ {
		x := float64(i)
		rows = append(rows, row("TLV", "2019/02/03", "01:00", map[string]float64{
			"Temp": x,
			"O3":   2 * x,  // perfectly correlated
			"PM10": -3 * x, // perfectly anti-correlated
			"WS":   7,      // constant
		}))
	}
	tbl := process.NewTable(rows)
	tbl.Columns = []string{"Temp", "O3", "PM10", "WS"}

	cols, m := CorrelationMatrix(tbl)
	require.Equal(t, []string{"Temp", "O3", "PM10", "WS"}, cols)
	assert.InDelta(t, 1.0, m[0][1], 1e-9)
	assert.InDelta(t, -1.0, m[0][2], 1e-9)
	assert.Equal(t, m[0][1], m[1][0]) // symmetric
	assert.Equal(t, 1.0, m[3][3])
	assert.Equal(t, 0.0, m[0][3]) // constant column is NaN-safe
}

func TestBuildDataset(t *testing.T) {
	tbl := process.NewTable([]model.Observation{
		row("TLV", "2019/02/03", "01:00", map[string]float64{"Temp": 10, "RH": 50, "PM10": 30}),
		row("TLV", "2019/02/03", "07:00", map[string]float64{"Temp": 12, "PM10": 35}), // RH missing
		row("TLV", "2019/02/03", "13:00", map[string]float64{"Temp": 14, "RH": 55}),   // target missing
	})
	tbl.Columns = []string{"Temp", "RH", "PM10"}

	d, err := BuildDataset(tbl, "PM10", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Temp", "RH"}, d.Features)
	require.Len(t, d.Y, 1)
	assert.Equal(t, []float64{10, 50}, d.X[0])
	assert.Equal(t, 30.0, d.Y[0])

	_, err = BuildDataset(tbl, "NOX", nil)
	assert.Error(t, err)
}

func TestSplitDeterministic(t *testing.T) {
	d := &Dataset{Features: []string{"x"}}
	for i := 0; i < 100; i++ {
		d.X = append(d.X, []float64{float64(i)})
		d.Y = append(d.Y, float64(i))
	}
	trainA, testA := d.Split(0.2, 42)
	trainB, testB := d.Split(0.2, 42)
	assert.Equal(t, trainA.Y, trainB.Y)
	assert.Equal(t, testA.Y, testB.Y)
	assert.Len(t, testA.Y, 20)
	assert.Len(t, trainA.Y, 80)

	_, testC := d.Split(0.2, 7)
	assert.NotEqual(t, testA.Y, testC.Y)
}

func TestFitLinearRecoversLine(t *testing.T) {
	// y = 3 + 2*x1 - 0.5*x2, exactly.
	d := &Dataset{Features: []string{"x1", "x2"}}
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 50; i++ {
		x1 := rng.Float64() * 10
		x2 := rng.Float64() * 10
		d.X = append(d.X, []float64{x1, x2})
		d.Y = append(d.Y, 3+2*x1-0.5*x2)
	}

	m, err := FitLinear(d)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, m.Intercept, 1e-6)
	assert.InDelta(t, 2.0, m.Coefficients[0], 1e-6)
	assert.InDelta(t, -0.5, m.Coefficients[1], 1e-6)

	pred := m.PredictAll(d)
	s := Evaluate(d.Y, pred)
	assert.InDelta(t, 1.0, s.R2, 1e-9)
}

func TestFitLinearTooFewRows(t *testing.T) {
	d := &Dataset{Features: []string{"x1", "x2"}, X: [][]float64{{1, 2}}, Y: []float64{3}}
	_, err := FitLinear(d)
	assert.Error(t, err)
}

func TestFitTreeStepFunction(t *testing.T) {
	// A step at x=50 is exactly representable by one split.
	d := &Dataset{Features: []string{"x"}}
	for i := 0; i < 100; i++ {
		x := float64(i)
		y := 10.0
		if x >= 50 {
			y = 20.0
		}
		d.X = append(d.X, []float64{x})
		d.Y = append(d.Y, y)
	}

	m, err := FitTree(d, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 10.0, m.Predict([]float64{12}))
	assert.Equal(t, 20.0, m.Predict([]float64{73}))

	s := Evaluate(d.Y, m.PredictAll(d))
	assert.InDelta(t, 1.0, s.R2, 1e-9)
}

func TestFitTreeSmallLeafBecomesConstant(t *testing.T) {
	d := &Dataset{Features: []string{"x"}}
	for i := 0; i < 8; i++ {
		d.X = append(d.X, []float64{float64(i)})
		d.Y = append(d.Y, float64(i%2))
	}
	// min leaf 20 forbids any split, so every prediction is the mean.
	m, err := FitTree(d, 5, 20)
	require.NoError(t, err)
	assert.Equal(t, 0.5, m.Predict([]float64{0}))
	assert.Equal(t, 0.5, m.Predict([]float64{7}))
}

func TestEvaluate(t *testing.T) {
	s := Evaluate([]float64{1, 2, 3}, []float64{1, 2, 3})
	assert.Equal(t, 1.0, s.R2)
	assert.Equal(t, 0.0, s.MSE)
	assert.Equal(t, 0.0, s.MAE)

	s = Evaluate([]float64{2, 2, 2}, []float64{1, 2, 3})
	assert.Equal(t, 0.0, s.R2) // no variance to explain
	assert.InDelta(t, 2.0/3.0, s.MSE, 1e-9)
	assert.InDelta(t, 2.0/3.0, s.MAE, 1e-9)

	assert.Equal(t, Scores{}, Evaluate(nil, nil))
}
