package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/rtm0/gcmclim/internal/clim"
	"github.com/rtm0/gcmclim/internal/config"
	"github.com/rtm0/gcmclim/internal/observability"
	"github.com/rtm0/gcmclim/internal/output"
)

var (
	configFile  string
	dataDir     string
	outputDir   string
	format      string
	metricsFile string
	logLevel    string
	logFormat   string
	models      []string
)

var rootCmd = &cobra.Command{
	Use:   "gcmclim",
	Short: "Monthly-mean MSLP and SST climatologies of CMIP6 HighResMIP models for STORM",
	Long: `gcmclim reads monthly psl and ts fields of CMIP6 HighResMIP models,
averages them per calendar month over the years that represent the 1C, 1.5C
and 2C warming levels of each model, and writes the climatologies and the
model grid for the STORM synthetic tropical cyclone generator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Write monthly means and coordinate grids",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "Print the warming-level year windows of every model",
	Args:  cobra.NoArgs,
	RunE:  scenarios,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "path to a TOML configuration file")
	pf.StringVar(&dataDir, "data-dir", "", "directory holding the GCM NetCDF files")
	pf.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&logFormat, "log-format", "", "log format: text or json")

	f := runCmd.Flags()
	f.StringVar(&outputDir, "output-dir", "", "directory output files are written to. Default: the data directory")
	f.StringVar(&format, "format", "", "monthly mean file format: txt or nc")
	f.StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics to this file at the end of the run")
	f.StringSliceVar(&models, "model", nil, "only process the named models (repeatable)")

	rootCmd.AddCommand(runCmd, scenariosCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("gcmclim failed", "err", err)
		os.Exit(1)
	}
}

// loadConfig applies the command line flags on top of the configuration
// file and the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	for name, dst := range map[string]*string{
		"data-dir":     &cfg.DataDir,
		"output-dir":   &cfg.OutputDir,
		"format":       &cfg.Format,
		"metrics-file": &cfg.MetricsFile,
		"log-level":    &cfg.LogLevel,
		"log-format":   &cfg.LogFormat,
	} {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			*dst = fl.Value.String()
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	selected, err := cfg.Select(models)
	if err != nil {
		return err
	}
	sink, err := output.NewWriter(cfg.Output(), cfg.Format)
	if err != nil {
		return err
	}
	metrics := observability.NewMetrics()
	ext := clim.NewExtractor(cfg, sink, logger, metrics, clockwork.NewRealClock())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "dataDir", cfg.DataDir, "outputDir", cfg.Output(), "format", cfg.Format,
		"models", len(selected), "scenarios", cfg.Scenarios)
	runErr := ext.Run(ctx, selected)
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Could not write metrics", "err", err)
		}
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("done", "models", len(selected))
	return nil
}

func scenarios(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tVERSION\tGRID\tSCENARIO\tSTART\tEND")
	for _, m := range cfg.Models {
		for _, sc := range cfg.Scenarios {
			w, err := m.Window(sc)
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", m.Name, m.Version, m.Grid, sc, w.Start, w.End)
		}
	}
	return tw.Flush()
}
