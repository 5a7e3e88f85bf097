// Package gcmtest writes small CMIP-like NetCDF files for tests.
package gcmtest

import (
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/gcmclim/internal/gcm"
)

// FillValue is the _FillValue written by Write.
const FillValue float32 = 1e20

// File describes the content of a single-variable file.
type File struct {
	Variable string
	Units    string // time units, "days since 1850-01-01" if empty
	Calendar string // omitted if empty
	Times    []float64
	Lat      []float64
	Lon      []float64

	// Values is indexed [time][lat][lon].
	Values [][][]float32

	// Attrs are extra attributes of the variable.
	Attrs map[string]any
}

// Write writes f as a classic NetCDF file at path.
func Write(t testing.TB, path string, f File) {
	t.Helper()
	units := f.Units
	if units == "" {
		units = "days since 1850-01-01"
	}

	w, err := cdf.OpenWriter(path)
	require.NoError(t, err)

	timeAttrs := gcm.NewAttributes("units", units)
	if f.Calendar != "" {
		timeAttrs.Add("calendar", f.Calendar)
	}
	require.NoError(t, w.AddVar("time", api.Variable{
		Values:     f.Times,
		Dimensions: []string{"time"},
		Attributes: timeAttrs,
	}))
	require.NoError(t, w.AddVar("lat", api.Variable{
		Values:     f.Lat,
		Dimensions: []string{"lat"},
		Attributes: gcm.NewAttributes("units", "degrees_north"),
	}))
	require.NoError(t, w.AddVar("lon", api.Variable{
		Values:     f.Lon,
		Dimensions: []string{"lon"},
		Attributes: gcm.NewAttributes("units", "degrees_east"),
	}))

	varAttrs := gcm.NewAttributes("_FillValue", FillValue)
	for k, v := range f.Attrs {
		varAttrs.Add(k, v)
	}
	require.NoError(t, w.AddVar(f.Variable, api.Variable{
		Values:     f.Values,
		Dimensions: []string{"time", "lat", "lon"},
		Attributes: varAttrs,
	}))
	require.NoError(t, w.Close())
}

// Days returns the number of days between 1850-01-01 and the given date in
// the proleptic Gregorian calendar.
func Days(year int, month time.Month, day int) float64 {
	ref := time.Date(1850, time.January, 1, 0, 0, 0, 0, time.UTC)
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Sub(ref).Hours() / 24
}

// Monthly returns mid-month time values, in days since 1850-01-01, for every
// month of the years first through last.
func Monthly(first, last int) []float64 {
	var times []float64
	for y := first; y <= last; y++ {
		for m := time.January; m <= time.December; m++ {
			times = append(times, Days(y, m, 15)+0.5)
		}
	}
	return times
}

// Fill returns a [steps][rows][cols] array with every cell of time step i
// set to value(i, row, col).
func Fill(steps, rows, cols int, value func(i, r, c int) float32) [][][]float32 {
	out := make([][][]float32, steps)
	for i := range out {
		out[i] = make([][]float32, rows)
		for r := range out[i] {
			out[i][r] = make([]float32, cols)
			for c := range out[i][r] {
				out[i][r][c] = value(i, r, c)
			}
		}
	}
	return out
}
