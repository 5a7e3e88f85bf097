package clim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNaNMean(t *testing.T) {
	nan := math.NaN()
	assert.Equal(t, 2.0, NaNMean([]float64{1, nan, 3}))
	assert.True(t, math.IsNaN(NaNMean([]float64{nan, nan})))
	assert.True(t, math.IsNaN(NaNMean(nil)))
}

func TestToHectopascals(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		want      []float64
		converted bool
	}{
		{"pascals", []float64{101325, 99000}, []float64{1013.25, 990}, true},
		{"already hPa", []float64{1013.25, 990}, []float64{1013.25, 990}, false},
		{"exactly at threshold", []float64{2000, 4000}, []float64{2000, 4000}, false},
		{"just above threshold", []float64{3000.5}, []float64{30.005}, true},
		{"nan ignored", []float64{101000, math.NaN()}, []float64{1010, math.NaN()}, true},
		{"all nan", []float64{math.NaN()}, []float64{math.NaN()}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := append([]float64(nil), tt.values...)
			assert.Equal(t, tt.converted, ToHectopascals(got))
			for i := range got {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]))
					continue
				}
				if tt.converted {
					assert.Equal(t, tt.values[i]*0.01, got[i])
				}
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}
