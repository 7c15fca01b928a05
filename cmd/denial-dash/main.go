package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/denial-dash/internal/config"
	"github.com/gyeh/denial-dash/internal/dashboard"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/ledger"
	"github.com/gyeh/denial-dash/internal/output"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "denial-dash",
		Short:        "Dental revenue-cycle denial dashboard and exporter",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $CONFIG_PATH or config.yaml)")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newSummaryCmd())
	rootCmd.AddCommand(newShareCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

// filterFlags are the selections shared by every offline subcommand.
type filterFlags struct {
	payer     string
	dateRange string
	types     []string
	seed      int64

	cmd *cobra.Command
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	f.cmd = cmd
	cmd.Flags().StringVar(&f.payer, "payer", filter.All, "Payer to include (All for every payer)")
	cmd.Flags().StringVar(&f.dateRange, "range", "", "Date range: 3m, 6m, 12m or a full label (default from config)")
	cmd.Flags().StringSliceVar(&f.types, "type", []string{filter.All}, "Denial types to include (repeatable; All for every type)")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Ledger seed (default from config)")
}

// resolve generates the ledger and applies the selections.
func (f *filterFlags) resolve(cfg config.Config, now time.Time) (filter.View, filter.Criteria, error) {
	seed := cfg.Seed
	if f.cmd != nil && f.cmd.Flags().Changed("seed") {
		seed = f.seed
	}
	dr := cfg.DateRange
	if f.dateRange != "" {
		parsed, err := filter.ParseDateRange(f.dateRange)
		if err != nil {
			return nil, filter.Criteria{}, err
		}
		dr = parsed
	}
	if dr == "" {
		dr = filter.DefaultDateRange
	}

	records := ledger.Generate(seed, now)
	if err := filter.Options(records).Check(f.payer, f.types); err != nil {
		return nil, filter.Criteria{}, err
	}
	c := filter.NewCriteria(dr, f.payer, f.types, now)
	return filter.Resolve(records, c), c, nil
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the interactive dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if addr == "" {
				addr = cfg.ListenAddr
			}

			srv := dashboard.New(dashboard.Options{
				Seed:         cfg.Seed,
				LogoPath:     cfg.LogoPath,
				DefaultRange: cfg.DateRange,
				SessionTTL:   cfg.SessionTTL(),
				Title:        cfg.ReportTitle,
				Now:          cfg.Now,
			})

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8501)")
	return cmd
}

func newSummaryCmd() *cobra.Command {
	var (
		filters      filterFlags
		outputFormat string
		outputFile   string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the KPI summary for the selected view",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := output.ParseEncoding(outputFormat)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			view, c, err := filters.resolve(cfg, cfg.Now())
			if err != nil {
				return fmt.Errorf("resolving filters: %w", err)
			}
			return output.WriteReport(outputFile, output.NewReport(view, c), enc)
		},
	}

	filters.bind(cmd)
	cmd.Flags().StringVar(&outputFormat, "output-format", "json", "Output format: json or yaml")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "-", "Output file path (use '-' for stdout)")
	return cmd
}

// isTerminal returns true if stderr is connected to a terminal.
func isTerminal() bool {
	fi, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func logf(format string, args ...any) {
	ts := time.Now().Format("15:04:05")
	fmt.Fprintf(os.Stderr, "%s %s\n", ts, fmt.Sprintf(format, args...))
}
