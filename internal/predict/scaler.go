package predict

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MinMaxScaler maps each column linearly onto [0, 1] using the minimum and
// maximum seen during Fit. The fitted state is JSON-serializable so the exact
// training-time transform is reused at inference time; Predict never refits.
type MinMaxScaler struct {
	Min []float64 `json:"min"`
	Max []float64 `json:"max"`
}

// Fit records per-column minima and maxima of m.
func (s *MinMaxScaler) Fit(m *mat.Dense) {
	_, cols := m.Dims()
	s.Min = make([]float64, cols)
	s.Max = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := mat.Col(nil, j, m)
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
}

// Fitted reports whether Fit has been called.
func (s *MinMaxScaler) Fitted() bool {
	return len(s.Min) > 0
}

// Transform returns a scaled copy of m. Columns that were constant during
// Fit map to 0, matching the degenerate-range handling of the usual min-max
// implementations.
func (s *MinMaxScaler) Transform(m *mat.Dense) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if cols != len(s.Min) {
		return nil, fmt.Errorf("scaler: %d columns, fitted on %d", cols, len(s.Min))
	}
	out := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		span := s.Max[j] - s.Min[j]
		for i := 0; i < rows; i++ {
			if span == 0 {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, (m.At(i, j)-s.Min[j])/span)
		}
	}
	return out, nil
}

// InverseTransform maps one scaled row back to the original units.
func (s *MinMaxScaler) InverseTransform(v []float64) ([]float64, error) {
	if len(v) != len(s.Min) {
		return nil, fmt.Errorf("scaler: %d values, fitted on %d columns", len(v), len(s.Min))
	}
	out := make([]float64, len(v))
	for j, val := range v {
		out[j] = val*(s.Max[j]-s.Min[j]) + s.Min[j]
	}
	return out, nil
}
