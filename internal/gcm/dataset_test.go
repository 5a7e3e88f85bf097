package gcm_test

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtm0/gcmclim/internal/gcm"
	"github.com/rtm0/gcmclim/internal/gcm/gcmtest"
)

var (
	testID = gcm.ID{Variable: "psl", Model: "TEST-HR", Version: "r1i1p1f1", GridLabel: "gn"}
	lat    = []float64{-10, 0, 10}
	lon    = []float64{100, 120}
)

// writeYears writes a psl file covering first..last with cell value
// 1000*year + 10*month + row.
func writeYears(t *testing.T, dir, name string, first, last int, lonValues []float64) {
	t.Helper()
	times := gcmtest.Monthly(first, last)
	gcmtest.Write(t, filepath.Join(dir, name), gcmtest.File{
		Variable: "psl",
		Calendar: "standard",
		Times:    times,
		Lat:      lat,
		Lon:      lonValues,
		Values: gcmtest.Fill(len(times), len(lat), len(lonValues), func(i, r, _ int) float32 {
			return float32(1000*(first+i/12) + 10*(i%12+1) + r)
		}),
	})
}

func TestIDPattern(t *testing.T) {
	assert.Equal(t, "psl_Amon_TEST-HR_*_r1i1p1f1_gn_*.nc", testID.Pattern())
}

func TestOpen_MergesFilesInTimeOrder(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_highresSST-future_r1i1p1f1_gn_200201-200212.nc", 2002, 2002, lon)
	writeYears(t, dir, "psl_Amon_TEST-HR_highresSST-present_r1i1p1f1_gn_200001-200112.nc", 2000, 2001, lon)
	// Different variant label, must not be picked up.
	writeYears(t, dir, "psl_Amon_TEST-HR_highresSST-present_r2i1p1f1_gn_200001-200112.nc", 2000, 2001, lon)

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, 36, ds.Len())
	dates := ds.Dates()
	assert.Equal(t, gcm.Date{Year: 2000, Month: time.January, Day: 15}, dates[0])
	assert.Equal(t, gcm.Date{Year: 2002, Month: time.December, Day: 15}, dates[35])
	for i := 1; i < len(dates); i++ {
		assert.True(t, dates[i-1].Before(dates[i]), "dates out of order at %d", i)
	}

	assert.Equal(t, lat, ds.Grid.Lat)
	assert.Equal(t, lon, ds.Grid.Lon)
	assert.Equal(t, [2]string{"lat", "lon"}, ds.Dims)
	assert.Equal(t, 3, ds.Rows)
	assert.Equal(t, 2, ds.Cols)
	assert.Equal(t, lat, ds.RowCoords())
	assert.Equal(t, lon, ds.ColCoords())
	assert.Contains(t, ds.Summary(), "tsCnt")
}

func TestScanner_ReadsSelectedSteps(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200212.nc", 2000, 2002, lon)

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()

	s := ds.Select(func(d gcm.Date) bool { return d.Year == 2001 })
	require.Equal(t, 12, s.Len())

	month := time.January
	for s.Scan() {
		f := s.Field()
		require.NotNil(t, f)
		assert.Nil(t, s.Field())
		assert.Equal(t, 2001, f.Date.Year)
		assert.Equal(t, month, f.Date.Month)
		assert.Equal(t, 3, f.Rows)
		assert.Equal(t, 2, f.Cols)
		require.Len(t, f.Values, 6)
		for r := 0; r < f.Rows; r++ {
			for c := 0; c < f.Cols; c++ {
				assert.Equal(t, float64(2001000+10*int(month)+r), f.Values[r*f.Cols+c])
			}
		}
		month++
	}
	require.NoError(t, s.Err())
	assert.Equal(t, time.Month(13), month)
}

func TestScanner_NilSelectsAll(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200012.nc", 2000, 2000, lon)

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()
	assert.Equal(t, 12, ds.Select(nil).Len())
}

func TestScanner_AfterCloseFails(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200012.nc", 2000, 2000, lon)

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	s := ds.Select(nil)
	ds.Close()

	assert.False(t, s.Scan())
	assert.Error(t, s.Err())
	assert.Equal(t, lon, ds.Grid.Lon)
}

func TestScanner_MasksAndUnpacks(t *testing.T) {
	dir := t.TempDir()
	times := gcmtest.Monthly(2000, 2000)
	gcmtest.Write(t, filepath.Join(dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200012.nc"), gcmtest.File{
		Variable: "psl",
		Times:    times,
		Lat:      lat,
		Lon:      lon,
		Values: gcmtest.Fill(len(times), len(lat), len(lon), func(_, r, c int) float32 {
			if r == 0 && c == 0 {
				return gcmtest.FillValue
			}
			if r == 2 && c == 1 {
				return -999
			}
			return 4
		}),
		Attrs: map[string]any{
			"missing_value": float32(-999),
			"scale_factor":  0.5,
			"add_offset":    10.0,
		},
	})

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()

	s := ds.Select(nil)
	require.True(t, s.Scan())
	f := s.Field()
	assert.True(t, math.IsNaN(f.Values[0]))
	assert.True(t, math.IsNaN(f.Values[5]))
	for _, v := range f.Values[1:5] {
		assert.Equal(t, 12.0, v)
	}
}

func TestOpen_360DayCalendar(t *testing.T) {
	dir := t.TempDir()
	var times []float64
	for y := 2000; y <= 2001; y++ {
		for m := 0; m < 12; m++ {
			times = append(times, float64((y-1850)*360+m*30)+14.5)
		}
	}
	gcmtest.Write(t, filepath.Join(dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200112.nc"), gcmtest.File{
		Variable: "psl",
		Calendar: "360_day",
		Times:    times,
		Lat:      lat,
		Lon:      lon,
		Values:   gcmtest.Fill(len(times), len(lat), len(lon), func(int, int, int) float32 { return 1 }),
	})

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()

	for i, d := range ds.Dates() {
		assert.Equal(t, 2000+i/12, d.Year)
		assert.Equal(t, time.Month(i%12+1), d.Month)
		assert.Equal(t, 15, d.Day)
	}
}

func TestOpen_NoFiles(t *testing.T) {
	_, err := gcm.Open(t.TempDir(), testID)
	require.ErrorIs(t, err, gcm.ErrNoFiles)
}

func TestOpen_GridMismatch(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_a_r1i1p1f1_gn_200001-200012.nc", 2000, 2000, lon)
	writeYears(t, dir, "psl_Amon_TEST-HR_b_r1i1p1f1_gn_200101-200112.nc", 2001, 2001, []float64{100, 121})

	_, err := gcm.Open(dir, testID)
	require.ErrorIs(t, err, gcm.ErrGridMismatch)
}

func TestOpen_Overlap(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_a_r1i1p1f1_gn_200001-200112.nc", 2000, 2001, lon)
	writeYears(t, dir, "psl_Amon_TEST-HR_b_r1i1p1f1_gn_200101-200212.nc", 2001, 2002, lon)

	_, err := gcm.Open(dir, testID)
	require.ErrorIs(t, err, gcm.ErrOverlap)
}

func TestOpen_MissingVariable(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "ts_Amon_TEST-HR_a_r1i1p1f1_gn_200001-200012.nc", 2000, 2000, lon)

	id := testID
	id.Variable = "ts"
	_, err := gcm.Open(dir, id)
	require.Error(t, err)
}

func TestOpen_ShapeFromFirstStep(t *testing.T) {
	dir := t.TempDir()
	writeYears(t, dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200012.nc", 2000, 2000, lon)

	ds, err := gcm.Open(dir, testID)
	require.NoError(t, err)
	defer ds.Close()

	assert.Equal(t, 3, ds.Rows)
	assert.Equal(t, 2, ds.Cols)
	assert.Equal(t, [2]string{"lat", "lon"}, ds.Dims)
	assert.Equal(t, lat, ds.RowCoords())
	assert.Equal(t, lon, ds.ColCoords())
	assert.Equal(t, 12, ds.Len())
}

func TestOpen_NotThreeDimensional(t *testing.T) {
	dir := t.TempDir()
	w, err := cdf.OpenWriter(filepath.Join(dir, "psl_Amon_TEST-HR_hist_r1i1p1f1_gn_200001-200012.nc"))
	require.NoError(t, err)
	require.NoError(t, w.AddVar("time", api.Variable{
		Values:     gcmtest.Monthly(2000, 2000),
		Dimensions: []string{"time"},
		Attributes: gcm.NewAttributes("units", "days since 1850-01-01"),
	}))
	require.NoError(t, w.AddVar("lat", api.Variable{Values: lat, Dimensions: []string{"lat"}}))
	require.NoError(t, w.AddVar("lon", api.Variable{Values: lon, Dimensions: []string{"lon"}}))
	require.NoError(t, w.AddVar("psl", api.Variable{
		Values:     [][]float32{{1, 2, 3}, {4, 5, 6}},
		Dimensions: []string{"lon", "lat"},
	}))
	require.NoError(t, w.Close())

	_, err = gcm.Open(dir, testID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 dimensions")
}
