package clim

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/rtm0/gcmclim/internal/config"
	"github.com/rtm0/gcmclim/internal/gcm"
	"github.com/rtm0/gcmclim/internal/observability"
)

// Variable is a GCM variable turned into monthly means.
type Variable struct {
	Name     string // CMIP name, used to find input files
	Label    string // name used in output file names
	Pressure bool   // subject to the Pa to hPa conversion
}

// Variables lists the processed variables in processing order.
var Variables = []Variable{
	{Name: "psl", Label: "MSLP", Pressure: true},
	{Name: "ts", Label: "SST"},
}

// MonthlyMean is the climatological mean of one variable over one calendar
// month of a warming-level window.
type MonthlyMean struct {
	Variable     Variable
	Model        string
	Scenario     string
	Window       config.Window
	Month        time.Month
	Steps        int
	Hectopascals bool

	Dims      [2]string
	RowCoords []float64
	ColCoords []float64
	Rows      int
	Cols      int
	Values    []float64
}

// Sink persists the outputs of an Extractor and returns the paths it wrote.
type Sink interface {
	WriteMonthlyMean(m *MonthlyMean) (string, error)
	WriteCoordinates(model string, grid gcm.Grid) (string, error)
}

// Extractor computes monthly-mean climatologies and coordinate grids for the
// configured models, one model, variable and scenario at a time.
type Extractor struct {
	dataDir   string
	scenarios []string
	sink      Sink
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// NewExtractor creates an Extractor reading from cfg.DataDir and averaging
// over cfg.Scenarios.
func NewExtractor(cfg *config.Config, sink Sink, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Extractor {
	return &Extractor{
		dataDir:   cfg.DataDir,
		scenarios: cfg.Scenarios,
		sink:      sink,
		logger:    logger,
		metrics:   metrics,
		clock:     clock,
	}
}

// Run writes the monthly means and the coordinate grid of every model. The
// first error aborts the run.
func (e *Extractor) Run(ctx context.Context, models []config.Model) error {
	start := e.clock.Now()
	for i, m := range models {
		modelStart := e.clock.Now()
		e.logger.Info("processing model", "model", m.Name, "version", m.Version, "grid", m.Grid,
			"progress", fmt.Sprintf("%d/%d", i+1, len(models)))

		ds, err := e.MonthlyMeans(ctx, m)
		if err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
		if _, err := e.ExtractCoordinates(m.Name, ds); err != nil {
			return fmt.Errorf("model %s: %w", m.Name, err)
		}
		e.metrics.ModelsProcessed.Inc()
		e.logger.Info("model done", "model", m.Name, "in", e.clock.Since(modelStart).Round(time.Second))
	}
	e.metrics.RunDuration.Set(e.clock.Since(start).Seconds())
	e.metrics.LastSuccess.Set(float64(e.clock.Now().Unix()))
	return nil
}

// MonthlyMeans writes one monthly mean per variable, scenario and month of
// model. It returns the dataset of the last variable; the dataset is closed
// but its grid stays readable.
func (e *Extractor) MonthlyMeans(ctx context.Context, model config.Model) (*gcm.Dataset, error) {
	var last *gcm.Dataset
	for _, v := range Variables {
		ds, err := gcm.Open(e.dataDir, gcm.ID{
			Variable:  v.Name,
			Model:     model.Name,
			Version:   model.Version,
			GridLabel: model.Grid,
		})
		if err != nil {
			return nil, err
		}
		e.logger.Info("dataset opened", ds.Summary()...)

		err = e.variable(ctx, model, v, ds)
		ds.Close()
		if err != nil {
			return nil, err
		}
		last = ds
	}
	return last, nil
}

func (e *Extractor) variable(ctx context.Context, model config.Model, v Variable, ds *gcm.Dataset) error {
	for _, sc := range e.scenarios {
		w, err := model.Window(sc)
		if err != nil {
			return err
		}
		acc, steps, err := e.average(ctx, ds, w)
		if err != nil {
			return fmt.Errorf("%s %s: %w", v.Name, sc, err)
		}

		for month := time.January; month <= time.December; month++ {
			values, err := acc.Mean(month)
			if err != nil {
				return fmt.Errorf("%s %s %d-%d: %w", v.Name, sc, w.Start, w.End, err)
			}
			mm := &MonthlyMean{
				Variable:  v,
				Model:     model.Name,
				Scenario:  sc,
				Window:    w,
				Month:     month,
				Steps:     acc.Steps(month),
				Dims:      ds.Dims,
				RowCoords: ds.RowCoords(),
				ColCoords: ds.ColCoords(),
				Rows:      ds.Rows,
				Cols:      ds.Cols,
				Values:    values,
			}
			if v.Pressure && ToHectopascals(mm.Values) {
				mm.Hectopascals = true
				e.metrics.PressureConversions.Inc()
			}
			path, err := e.sink.WriteMonthlyMean(mm)
			if err != nil {
				return err
			}
			e.metrics.FilesWritten.WithLabelValues("monthly_mean").Inc()
			e.logger.Debug("monthly mean written", "path", path, "steps", mm.Steps, "hPa", mm.Hectopascals)
		}
		e.logger.Info("scenario done", "model", model.Name, "variable", v.Name, "scenario", sc,
			"start", w.Start, "end", w.End, "steps", steps)
	}
	return nil
}

// average folds every time step of ds inside w into a Monthly accumulator.
func (e *Extractor) average(ctx context.Context, ds *gcm.Dataset, w config.Window) (*Monthly, int, error) {
	s := ds.Select(func(d gcm.Date) bool { return w.Contains(d.Year) })
	if s.Len() == 0 {
		return nil, 0, fmt.Errorf("%w: %d-%d", ErrEmptyWindow, w.Start, w.End)
	}
	acc := NewMonthly(ds.Rows, ds.Cols)
	for s.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if err := acc.Add(s.Field()); err != nil {
			return nil, 0, err
		}
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	e.metrics.TimeStepsAveraged.WithLabelValues(ds.ID.Variable).Add(float64(s.Len()))
	return acc, s.Len(), nil
}

// ExtractCoordinates saves the lon/lat grid of ds for model and returns it.
func (e *Extractor) ExtractCoordinates(model string, ds *gcm.Dataset) (gcm.Grid, error) {
	grid := gcm.Grid{Lon: slices.Clone(ds.Grid.Lon), Lat: slices.Clone(ds.Grid.Lat)}
	path, err := e.sink.WriteCoordinates(model, grid)
	if err != nil {
		return gcm.Grid{}, err
	}
	e.metrics.FilesWritten.WithLabelValues("coordinates").Inc()
	e.logger.Info("coordinates written", "model", model, "path", path, "laCnt", len(grid.Lat), "loCnt", len(grid.Lon))
	return grid, nil
}
