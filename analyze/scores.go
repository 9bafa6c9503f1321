package analyze

import "math"

// Scores are the study's comparison metrics.
type Scores struct {
	R2  float64 `json:"r2"`
	MSE float64 `json:"mse"`
	MAE float64 `json:"mae"`
}

// Evaluate scores predictions against truth. A constant truth vector has no
// variance to explain, so R2 reports 0 there.
func Evaluate(y, pred []float64) Scores {
	n := float64(len(y))
	if n == 0 {
		return Scores{}
	}
	meanY := 0.0
	for _, v := range y {
		meanY += v
	}
	meanY /= n

	var ssRes, ssTot, absSum float64
	for i := range y {
		d := y[i] - pred[i]
		ssRes += d * d
		absSum += math.Abs(d)
		t := y[i] - meanY
		ssTot += t * t
	}

	s := Scores{MSE: ssRes / n, MAE: absSum / n}
	if ssTot > 0 {
		s.R2 = 1 - ssRes/ssTot
	}
	return s
}
