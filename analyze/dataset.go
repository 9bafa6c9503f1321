package analyze

import (
	"fmt"
	"math/rand"

	"aircorr/process"
)

// Dataset is the modelling view of the table: complete rows only.
type Dataset struct {
	Features []string
	X        [][]float64
	Y        []float64
}

// BuildDataset assembles rows where the target and every feature are
// present. A nil features slice means every active column except the target.
func BuildDataset(t *process.Table, target string, features []string) (*Dataset, error) {
	if !t.HasColumn(target) {
		return nil, fmt.Errorf("target column %q is not in the table", target)
	}
	if features == nil {
		for _, c := range t.Columns {
			if c != target {
				features = append(features, c)
			}
		}
	}
	d := &Dataset{Features: features}
	for _, r := range t.Rows {
		y := r.Value(target)
		if y == nil {
			continue
		}
		x := make([]float64, 0, len(features))
		ok := true
		for _, f := range features {
			v := r.Value(f)
			if v == nil {
				ok = false
				break
			}
			x = append(x, *v)
		}
		if !ok {
			continue
		}
		d.X = append(d.X, x)
		d.Y = append(d.Y, *y)
	}
	if len(d.Y) == 0 {
		return nil, fmt.Errorf("no complete rows for target %q", target)
	}
	return d, nil
}

func (d *Dataset) subset(idx []int) *Dataset {
	s := &Dataset{Features: d.Features}
	for _, i := range idx {
		s.X = append(s.X, d.X[i])
		s.Y = append(s.Y, d.Y[i])
	}
	return s
}

// Split shuffles with the given seed and cuts off frac of the rows as the
// test set. The same seed always yields the same split, so every model is
// compared on identical data.
func (d *Dataset) Split(frac float64, seed int64) (train, test *Dataset) {
	n := len(d.Y)
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(float64(n) * frac)
	if nTest >= n {
		nTest = n - 1
	}
	return d.subset(perm[nTest:]), d.subset(perm[:nTest])
}
