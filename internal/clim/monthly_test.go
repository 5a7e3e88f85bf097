package clim

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/gcmclim/internal/gcm"
)

func field(year int, month time.Month, values ...float64) *gcm.Field {
	return &gcm.Field{
		Date:   gcm.Date{Year: year, Month: month, Day: 15},
		Rows:   1,
		Cols:   len(values),
		Values: values,
	}
}

func TestMonthly_MeanPerMonth(t *testing.T) {
	m := NewMonthly(1, 2)
	// Three years of data: value = 100*month + year offset.
	for y := 0; y < 3; y++ {
		for month := time.January; month <= time.December; month++ {
			v := float64(100*int(month) + y)
			require.NoError(t, m.Add(field(2000+y, month, v, -v)))
		}
	}

	for month := time.January; month <= time.December; month++ {
		assert.Equal(t, 3, m.Steps(month))
		mean, err := m.Mean(month)
		require.NoError(t, err)
		want := float64(100*int(month)) + 1
		assert.InDeltaSlice(t, []float64{want, -want}, mean, 1e-12)
	}
}

func TestMonthly_IgnoresNaN(t *testing.T) {
	m := NewMonthly(1, 3)
	nan := math.NaN()
	require.NoError(t, m.Add(field(2000, time.March, 1, nan, nan)))
	require.NoError(t, m.Add(field(2001, time.March, 3, 4, nan)))

	mean, err := m.Mean(time.March)
	require.NoError(t, err)
	assert.Equal(t, 2.0, mean[0])
	assert.Equal(t, 4.0, mean[1])
	assert.True(t, math.IsNaN(mean[2]))
}

func TestMonthly_EmptyMonth(t *testing.T) {
	m := NewMonthly(1, 1)
	require.NoError(t, m.Add(field(2000, time.January, 1)))

	_, err := m.Mean(time.February)
	require.ErrorIs(t, err, ErrEmptyWindow)
	assert.Equal(t, 0, m.Steps(time.February))
}

func TestMonthly_ShapeMismatch(t *testing.T) {
	m := NewMonthly(2, 2)
	err := m.Add(field(2000, time.January, 1, 2, 3))
	require.ErrorIs(t, err, ErrShape)
}

func TestMonthly_InvalidMonth(t *testing.T) {
	m := NewMonthly(1, 1)
	assert.Error(t, m.Add(field(2000, 0, 1)))
	_, err := m.Mean(13)
	assert.Error(t, err)
}
