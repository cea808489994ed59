package forecast

import "math"

// standardScaler centers and scales each feature column to zero mean and
// unit variance. Columns with zero variance pass through centered only.
type standardScaler struct {
	mean []float64
	std  []float64
}

func fitScaler(X [][]float64) *standardScaler {
	if len(X) == 0 {
		return &standardScaler{}
	}
	cols := len(X[0])
	s := &standardScaler{
		mean: make([]float64, cols),
		std:  make([]float64, cols),
	}

	for j := 0; j < cols; j++ {
		var sum float64
		for i := range X {
			sum += X[i][j]
		}
		s.mean[j] = sum / float64(len(X))

		var sq float64
		for i := range X {
			d := X[i][j] - s.mean[j]
			sq += d * d
		}
		s.std[j] = math.Sqrt(sq / float64(len(X)))
		if s.std[j] == 0 {
			s.std[j] = 1
		}
	}
	return s
}

func (s *standardScaler) transform(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i := range X {
		out[i] = s.transformRow(X[i])
	}
	return out
}

func (s *standardScaler) transformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j := range row {
		out[j] = (row[j] - s.mean[j]) / s.std[j]
	}
	return out
}
