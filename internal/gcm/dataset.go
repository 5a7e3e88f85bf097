package gcm

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

var (
	// ErrNoFiles is returned when no file matches a dataset pattern.
	ErrNoFiles = errors.New("no files to open")
	// ErrGridMismatch is returned when files of one dataset disagree on the
	// horizontal grid, or when a variable does not fit its coordinates.
	ErrGridMismatch = errors.New("grid mismatch")
	// ErrOverlap is returned when the time ranges of two files overlap.
	ErrOverlap = errors.New("overlapping time ranges")
)

// ID identifies the files of one variable of one model run.
type ID struct {
	Variable  string
	Model     string
	Version   string
	GridLabel string
}

// Pattern returns the file name glob of the CMIP6 monthly atmosphere table
// for the ID.
func (id ID) Pattern() string {
	return fmt.Sprintf("%s_Amon_%s_*_%s_%s_*.nc", id.Variable, id.Model, id.Version, id.GridLabel)
}

// Dataset is one variable of one model merged along time across every file
// matching the ID pattern.
type Dataset struct {
	ID   ID
	Grid Grid

	// Dims names the row and column dimensions of the variable.
	Dims [2]string
	Rows int
	Cols int

	latRows bool
	sources []*source
	steps   []step
}

type source struct {
	path  string
	nc    api.Group
	vg    api.VarGetter
	pack  packing
	dates []Date
	grid  Grid
	dims  [2]string
	rows  int
	cols  int
}

type step struct {
	date  Date
	src   *source
	index int64
}

// Open opens every file in dir matching id.Pattern() and merges them into a
// single time-ordered dataset.
func Open(dir string, id ID) (*Dataset, error) {
	pattern := filepath.Join(dir, id.Pattern())
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoFiles, pattern)
	}
	sort.Strings(paths)

	ds := &Dataset{ID: id}
	for _, p := range paths {
		src, err := openSource(p, id.Variable)
		if err != nil {
			ds.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		ds.sources = append(ds.sources, src)
	}
	if err := ds.merge(); err != nil {
		ds.Close()
		return nil, err
	}
	return ds, nil
}

func openSource(path, variable string) (src *source, err error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			nc.Close()
		}
	}()

	src = &source{path: path, nc: nc}
	src.vg, err = nc.GetVarGetter(variable)
	if err != nil {
		return nil, err
	}
	dims := src.vg.Dimensions()
	if len(dims) != 3 {
		return nil, fmt.Errorf("variable %q has %d dimensions, want 3", variable, len(dims))
	}
	src.dims = [2]string{dims[1], dims[2]}
	steps := src.vg.Len()
	if steps == 0 {
		return nil, fmt.Errorf("variable %q: empty time axis", variable)
	}
	step0, err := src.vg.GetSlice(0, 1)
	if err != nil {
		return nil, fmt.Errorf("variable %q: %w", variable, err)
	}
	if _, src.rows, src.cols, err = plane(step0); err != nil {
		return nil, fmt.Errorf("variable %q: %w", variable, err)
	}
	src.pack = newPacking(src.vg.Attributes())

	src.grid.Lon, _, err = coordValues(nc, "lon", "longitude")
	if err != nil {
		return nil, err
	}
	src.grid.Lat, _, err = coordValues(nc, "lat", "latitude")
	if err != nil {
		return nil, err
	}
	times, attrs, err := coordValues(nc, "time")
	if err != nil {
		return nil, err
	}
	src.dates, err = decodeTimes(times, attrString(attrs, "units"), attrString(attrs, "calendar"))
	if err != nil {
		return nil, err
	}
	if int64(len(src.dates)) != steps {
		return nil, fmt.Errorf("variable %q has %d time steps, time axis has %d", variable, steps, len(src.dates))
	}
	return src, nil
}

func coordValues(nc api.Group, names ...string) ([]float64, api.AttributeMap, error) {
	for _, name := range names {
		vg, err := nc.GetVarGetter(name)
		if err != nil {
			continue
		}
		v, err := vg.Values()
		if err != nil {
			return nil, nil, err
		}
		vals, err := float64s(v)
		if err != nil {
			return nil, nil, fmt.Errorf("coordinate %q: %w", name, err)
		}
		return vals, vg.Attributes(), nil
	}
	return nil, nil, fmt.Errorf("no coordinate variable named %s", strings.Join(names, " or "))
}

func (ds *Dataset) merge() error {
	for _, src := range ds.sources {
		if len(src.dates) == 0 {
			return fmt.Errorf("%s: empty time axis", src.path)
		}
	}
	sort.SliceStable(ds.sources, func(i, j int) bool {
		return ds.sources[i].dates[0].Before(ds.sources[j].dates[0])
	})

	first := ds.sources[0]
	ds.Grid = first.grid
	ds.Dims = first.dims
	ds.Rows, ds.Cols = first.rows, first.cols
	switch {
	case isLon(ds.Dims[0]) || isLat(ds.Dims[1]):
		ds.latRows = false
	case isLat(ds.Dims[0]) || isLon(ds.Dims[1]):
		ds.latRows = true
	default:
		ds.latRows = ds.Rows == len(ds.Grid.Lat) && ds.Cols == len(ds.Grid.Lon)
	}
	if len(ds.RowCoords()) != ds.Rows || len(ds.ColCoords()) != ds.Cols {
		return fmt.Errorf("%w: %s is %dx%d, coordinates are %d lat by %d lon",
			ErrGridMismatch, first.path, ds.Rows, ds.Cols, len(ds.Grid.Lat), len(ds.Grid.Lon))
	}

	var prev *source
	for _, src := range ds.sources {
		if src.rows != ds.Rows || src.cols != ds.Cols ||
			!slices.Equal(src.grid.Lon, ds.Grid.Lon) || !slices.Equal(src.grid.Lat, ds.Grid.Lat) {
			return fmt.Errorf("%w: %s differs from %s", ErrGridMismatch, src.path, first.path)
		}
		if prev != nil && !prev.dates[len(prev.dates)-1].Before(src.dates[0]) {
			return fmt.Errorf("%w: %s and %s", ErrOverlap, prev.path, src.path)
		}
		for i, d := range src.dates {
			ds.steps = append(ds.steps, step{date: d, src: src, index: int64(i)})
		}
		prev = src
	}
	return nil
}

func isLat(dim string) bool { return dim == "lat" || dim == "latitude" }
func isLon(dim string) bool { return dim == "lon" || dim == "longitude" }

// RowCoords returns the coordinate values along the rows of a field.
func (ds *Dataset) RowCoords() []float64 {
	if ds.latRows {
		return ds.Grid.Lat
	}
	return ds.Grid.Lon
}

// ColCoords returns the coordinate values along the columns of a field.
func (ds *Dataset) ColCoords() []float64 {
	if ds.latRows {
		return ds.Grid.Lon
	}
	return ds.Grid.Lat
}

// Dates returns the merged, time-ordered dates of the dataset.
func (ds *Dataset) Dates() []Date {
	dates := make([]Date, len(ds.steps))
	for i, st := range ds.steps {
		dates[i] = st.date
	}
	return dates
}

// Len returns the number of time steps.
func (ds *Dataset) Len() int {
	return len(ds.steps)
}

// Summary returns the summary information about the dataset suitable for
// logging.
func (ds *Dataset) Summary() []any {
	kv := []any{
		"variable", ds.ID.Variable,
		"model", ds.ID.Model,
		"files", len(ds.sources),
		"dims", ds.Dims[:],
		"tsCnt", len(ds.steps),
		"laCnt", len(ds.Grid.Lat),
		"loCnt", len(ds.Grid.Lon),
	}
	if len(ds.steps) > 0 {
		kv = append(kv, "first", ds.steps[0].date.String(), "last", ds.steps[len(ds.steps)-1].date.String())
	}
	return kv
}

// Close closes the underlying files. The grid and the time axis stay
// readable; scanning does not.
func (ds *Dataset) Close() {
	for _, src := range ds.sources {
		if src.nc != nil {
			src.nc.Close()
			src.nc = nil
		}
	}
}
