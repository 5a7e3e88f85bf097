package clim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/rtm0/gcmclim/internal/gcm"
)

var (
	// ErrEmptyWindow is returned when a window selects no time step for a
	// month.
	ErrEmptyWindow = errors.New("no time steps in window")
	// ErrShape is returned when a field does not match the accumulator.
	ErrShape = errors.New("field shape mismatch")
)

// Monthly accumulates fields per calendar month and yields, for each month,
// the per-cell mean of the valid (non-NaN) values.
type Monthly struct {
	rows   int
	cols   int
	sums   [12][]float64
	counts [12][]float64
	steps  [12]int
}

// NewMonthly creates an accumulator for rows x cols fields.
func NewMonthly(rows, cols int) *Monthly {
	m := &Monthly{rows: rows, cols: cols}
	for i := range m.sums {
		m.sums[i] = make([]float64, rows*cols)
		m.counts[i] = make([]float64, rows*cols)
	}
	return m
}

// Add folds f into the mean of its month.
func (m *Monthly) Add(f *gcm.Field) error {
	if f.Rows != m.rows || f.Cols != m.cols || len(f.Values) != m.rows*m.cols {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrShape, f.Date, f.Rows, f.Cols, m.rows, m.cols)
	}
	if f.Date.Month < time.January || f.Date.Month > time.December {
		return fmt.Errorf("invalid month in %s", f.Date)
	}
	i := f.Date.Month - 1
	sums, counts := m.sums[i], m.counts[i]
	if !floats.HasNaN(f.Values) {
		floats.Add(sums, f.Values)
		floats.AddConst(1, counts)
	} else {
		for k, v := range f.Values {
			if !math.IsNaN(v) {
				sums[k] += v
				counts[k]++
			}
		}
	}
	m.steps[i]++
	return nil
}

// Steps returns the number of fields added for month.
func (m *Monthly) Steps(month time.Month) int {
	return m.steps[month-1]
}

// Mean returns the per-cell mean for month. Cells without a single valid
// value are NaN.
func (m *Monthly) Mean(month time.Month) ([]float64, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("invalid month %d", month)
	}
	i := month - 1
	if m.steps[i] == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyWindow, month)
	}
	mean := make([]float64, len(m.sums[i]))
	// 0/0 leaves cells without valid values at NaN.
	floats.DivTo(mean, m.sums[i], m.counts[i])
	return mean, nil
}
