package output

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"

	"github.com/rtm0/gcmclim/internal/clim"
	"github.com/rtm0/gcmclim/internal/gcm"
)

// writeNetCDF writes the field as a classic NetCDF file holding the field,
// named after its CMIP variable, and its two coordinate variables.
func writeNetCDF(path string, m *clim.MonthlyMean) (err error) {
	dims := m.Dims
	if dims[0] == "" || dims[1] == "" {
		dims = [2]string{"lat", "lon"}
	}

	cw, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cw.Close(); err == nil {
			err = cerr
		}
	}()

	if err := cw.AddVar(dims[0], api.Variable{Values: m.RowCoords, Dimensions: []string{dims[0]}}); err != nil {
		return err
	}
	if err := cw.AddVar(dims[1], api.Variable{Values: m.ColCoords, Dimensions: []string{dims[1]}}); err != nil {
		return err
	}

	field := make([][]float64, m.Rows)
	for r := range field {
		field[r] = m.Values[r*m.Cols : (r+1)*m.Cols]
	}
	varAttrs := gcm.NewAttributes()
	if m.Hectopascals {
		varAttrs.Add("units", "hPa")
	}
	varAttrs.Add("cell_methods", "time: mean")
	if err := cw.AddVar(m.Variable.Name, api.Variable{
		Values:     field,
		Dimensions: dims[:],
		Attributes: varAttrs,
	}); err != nil {
		return err
	}

	return cw.AddGlobalAttrs(gcm.NewAttributes(
		"source_model", m.Model,
		"warming_level", m.Scenario,
		"window", fmt.Sprintf("%d-%d", m.Window.Start, m.Window.End),
		"month", int32(m.Month),
		"time_steps", int32(m.Steps),
	))
}
