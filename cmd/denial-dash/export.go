package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/denial-dash/internal/asset"
	"github.com/gyeh/denial-dash/internal/chart"
	"github.com/gyeh/denial-dash/internal/cloud"
	"github.com/gyeh/denial-dash/internal/config"
	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/filter"
	"github.com/gyeh/denial-dash/internal/kpi"
	"github.com/gyeh/denial-dash/internal/progress"
	"github.com/gyeh/denial-dash/internal/worker"
)

func newExportCmd() *cobra.Command {
	var (
		filters    filterFlags
		formats    []string
		outDir     string
		gzip       bool
		charts     bool
		s3Bucket   string
		s3Prefix   string
		region     string
		workers    int
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the selected view as CSV, XLSX, PDF or Parquet",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs, err := parseFormats(formats)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			applyS3Flags(&cfg, s3Bucket, s3Prefix, region)

			now := cfg.Now()
			view, c, err := filters.resolve(cfg, now)
			if err != nil {
				return fmt.Errorf("resolving filters: %w", err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("creating output dir: %w", err)
			}

			// Handle signals
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			base := export.Request{Gzip: gzip, Title: cfg.ReportTitle, Now: now}
			if charts {
				dir, err := os.MkdirTemp("", "denial-charts-*")
				if err != nil {
					return fmt.Errorf("creating chart dir: %w", err)
				}
				defer os.RemoveAll(dir)
				base.Charts, err = chart.RenderAll(kpi.Compute(view, now), dir)
				if err != nil {
					return fmt.Errorf("rendering charts: %w", err)
				}
			}

			dest := worker.Destination{OutDir: outDir, Prefix: cfg.S3Prefix, RunAt: now}
			if cfg.S3Configured() {
				s3c, err := cloud.NewS3Client(ctx, cfg.S3Bucket, cfg.Region)
				if err != nil {
					return err
				}
				dest.Publisher = s3c
			}

			var mgr progress.Manager
			switch {
			case noProgress:
				mgr = &progress.NoopManager{}
			case isTerminal():
				mgr = progress.NewMPBManager()
			default:
				mgr = progress.NewLogManager()
			}

			logf("Exporting %d rows (%s) as %s", len(view), describe(c), joinFormats(fs))
			startTime := time.Now()

			pool := &worker.Pool{Workers: workers, Dest: dest, Progress: mgr}
			results := pool.Run(ctx, view, base, fs)
			mgr.Wait()

			failed := 0
			for _, r := range results {
				if r.Err != nil {
					failed++
					logf("Error exporting %s: %v", r.Format, r.Err)
					continue
				}
				reportEmbeds(r.Artifact.Embeds)
				logf("Wrote %s (%s)", r.Path, progress.HumanBytes(int64(len(r.Artifact.Data))))
				if r.URI != "" {
					logf("Uploaded %s", r.URI)
				}
			}

			logf("Export complete: %d of %d formats in %.1fs", len(results)-failed, len(results), time.Since(startTime).Seconds())
			if failed > 0 {
				return fmt.Errorf("%d export(s) failed", failed)
			}
			return nil
		},
	}

	filters.bind(cmd)
	cmd.Flags().StringSliceVar(&formats, "format", nil, "Formats to export: csv, xlsx, pdf, parquet (repeatable; default all)")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "Directory for exported files")
	cmd.Flags().BoolVar(&gzip, "gzip", false, "Gzip every exported file")
	cmd.Flags().BoolVar(&charts, "charts", false, "Embed chart images in the PDF snapshot")
	cmd.Flags().StringVar(&s3Bucket, "s3-bucket", "", "Also upload exports to this S3 bucket (default from config)")
	cmd.Flags().StringVar(&s3Prefix, "s3-prefix", "", "S3 key prefix (default from config)")
	cmd.Flags().StringVar(&region, "region", "", "AWS region (default from config)")
	cmd.Flags().IntVar(&workers, "workers", 2, "Number of concurrent export workers")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable progress output")

	return cmd
}

// parseFormats returns every format when raw is empty and drops duplicates.
func parseFormats(raw []string) ([]export.Format, error) {
	if len(raw) == 0 {
		return export.Formats(), nil
	}
	seen := make(map[export.Format]bool)
	var out []export.Format
	for _, s := range raw {
		f, err := export.ParseFormat(s)
		if err != nil {
			return nil, err
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

func joinFormats(fs []export.Format) string {
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func applyS3Flags(cfg *config.Config, bucket, prefix, region string) {
	if bucket != "" {
		cfg.S3Bucket = bucket
	}
	if prefix != "" {
		cfg.S3Prefix = prefix
	}
	if region != "" {
		cfg.Region = region
	}
}

func reportEmbeds(embeds []export.EmbedResult) {
	for _, e := range embeds {
		if e.Status != asset.Loaded {
			logf("Skipped chart %s: %s (%v)", e.Path, e.Status, e.Err)
		}
	}
}

// describe summarizes criteria for log lines.
func describe(c filter.Criteria) string {
	types := strings.Join(c.DenialTypes, ", ")
	if types == "" {
		types = "none"
	}
	return fmt.Sprintf("%s, payer %s, types %s", c.DateRange, c.Payer, types)
}
