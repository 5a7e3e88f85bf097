package output

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rtm0/gcmclim/internal/clim"
	"github.com/rtm0/gcmclim/internal/gcm"
)

// Writer stores monthly means and coordinate grids in a directory.
type Writer struct {
	dir    string
	format string
	write  writeFunc
}

type writeFunc func(path string, m *clim.MonthlyMean) error

var writeFuncs = map[string]writeFunc{
	"txt": writeText,
	"nc":  writeNetCDF,
}

// NewWriter creates a Writer that writes monthly means in the given format
// ("txt" or "nc") into dir, creating dir if needed.
func NewWriter(dir, format string) (*Writer, error) {
	write := writeFuncs[format]
	if write == nil {
		return nil, fmt.Errorf("writing %q files is not supported", format)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, format: format, write: write}, nil
}

// MonthlyMeanName returns the file name of a monthly mean, e.g.
// Monthly_mean_MSLP_CMCC-CM2-VHR4_1_1.5C.txt.
func MonthlyMeanName(label, model string, month time.Month, scenario, ext string) string {
	return fmt.Sprintf("Monthly_mean_%s_%s_%d_%s.%s", label, model, int(month), scenario, ext)
}

// CoordinatesName returns the file name of a model's coordinate grid.
func CoordinatesName(model string) string {
	return fmt.Sprintf("latlon_background_converted_%s.npy", model)
}

// WriteMonthlyMean writes m and returns the path of the new file.
func (w *Writer) WriteMonthlyMean(m *clim.MonthlyMean) (string, error) {
	if len(m.Values) != m.Rows*m.Cols {
		return "", fmt.Errorf("%w: %d values for %dx%d", clim.ErrShape, len(m.Values), m.Rows, m.Cols)
	}
	path := filepath.Join(w.dir, MonthlyMeanName(m.Variable.Label, m.Model, m.Month, m.Scenario, w.format))
	if err := w.write(path, m); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, nil
}

// WriteCoordinates writes the lon/lat grid of model and returns the path of
// the new file.
func (w *Writer) WriteCoordinates(model string, grid gcm.Grid) (string, error) {
	path := filepath.Join(w.dir, CoordinatesName(model))
	if err := writeCoordinates(path, grid); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, nil
}
