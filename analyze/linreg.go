package analyze

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LinearModel is ordinary least squares with an intercept.
type LinearModel struct {
	Features     []string  `json:"features"`
	Intercept    float64   `json:"intercept"`
	Coefficients []float64 `json:"coefficients"`
}

// FitLinear solves the least-squares problem through a QR factorisation.
func FitLinear(d *Dataset) (*LinearModel, error) {
	n := len(d.Y)
	p := len(d.Features)
	if n <= p+1 {
		return nil, fmt.Errorf("need more than %d rows to fit %d features, have %d", p+1, p, n)
	}

	X := mat.NewDense(n, p+1, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, 1)
		for j := 0; j < p; j++ {
			X.Set(i, j+1, d.X[i][j])
		}
	}
	y := mat.NewVecDense(n, append([]float64(nil), d.Y...))

	var qr mat.QR
	qr.Factorize(X)
	beta := mat.NewVecDense(p+1, nil)
	if err := qr.SolveVecTo(beta, false, y); err != nil {
		return nil, fmt.Errorf("OLS solve: %w", err)
	}

	m := &LinearModel{Features: d.Features, Intercept: beta.AtVec(0)}
	for j := 0; j < p; j++ {
		m.Coefficients = append(m.Coefficients, beta.AtVec(j+1))
	}
	return m, nil
}

func (m *LinearModel) Predict(x []float64) float64 {
	y := m.Intercept
	for j, c := range m.Coefficients {
		y += c * x[j]
	}
	return y
}

func (m *LinearModel) PredictAll(d *Dataset) []float64 {
	out := make([]float64, len(d.X))
	for i, x := range d.X {
		out[i] = m.Predict(x)
	}
	return out
}
