package anomaly

import "gonum.org/v1/gonum/stat"

// scaler standardizes each feature to zero mean, unit variance, fit once
// at train time and reused unchanged at inference time — mirroring
// scikit-learn's StandardScaler in the original model, minus persistence.
type scaler struct {
	means []float64
	stds  []float64
}

func fitScaler(features [][]float64) *scaler {
	s := &scaler{
		means: make([]float64, len(features)),
		stds:  make([]float64, len(features)),
	}
	for j, column := range features {
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}
		s.means[j] = mean
		s.stds[j] = std
	}
	return s
}

// transform standardizes a column-major feature matrix in place on a copy.
func (s *scaler) transform(features [][]float64) [][]float64 {
	out := make([][]float64, len(features))
	for j, column := range features {
		scaled := make([]float64, len(column))
		for i, v := range column {
			scaled[i] = (v - s.means[j]) / s.stds[j]
		}
		out[j] = scaled
	}
	return out
}

// transformRow standardizes a single row given as feature-index -> value.
func (s *scaler) transformRow(row []float64) []float64 {
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.means[j]) / s.stds[j]
	}
	return out
}
