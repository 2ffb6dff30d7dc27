package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// newDense builds a row-major matrix from nested slices, checking it has the expected shape.
func newDense(name string, x [][]float64, rows, cols int) (*mat.Dense, error) {
	if len(x) != rows {
		return nil, fmt.Errorf("%s has %d rows, expected %d, %w", name, len(x), rows, ErrShapeMismatch)
	}

	// flatten to row order
	data := make([]float64, 0, rows*cols)
	for i, row := range x {
		if len(row) != cols {
			return nil, fmt.Errorf("%s row %d has %d columns, expected %d, %w", name, i, len(row), cols, ErrShapeMismatch)
		}
		data = append(data, row...)
	}
	return mat.NewDense(rows, cols, data), nil
}
