package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/denial-dash/internal/chart"
	"github.com/gyeh/denial-dash/internal/export"
	"github.com/gyeh/denial-dash/internal/kpi"
	"github.com/gyeh/denial-dash/internal/share"
)

func newShareCmd() *cobra.Command {
	var (
		filters filterFlags
		channel string
		format  string
		charts  bool
	)

	cmd := &cobra.Command{
		Use:   "share",
		Short: "Upload a snapshot of the selected view to Slack",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if channel != "" {
				cfg.SlackChannel = channel
			}
			if !cfg.SlackConfigured() {
				return fmt.Errorf("slack is not configured: set SLACK_BOT_TOKEN and a channel")
			}

			now := cfg.Now()
			view, c, err := filters.resolve(cfg, now)
			if err != nil {
				return fmt.Errorf("resolving filters: %w", err)
			}
			summary := kpi.Compute(view, now)

			req := export.Request{Format: f, Title: cfg.ReportTitle, Now: now}
			if charts && f == export.FormatPDF {
				dir, err := os.MkdirTemp("", "denial-charts-*")
				if err != nil {
					return fmt.Errorf("creating chart dir: %w", err)
				}
				defer os.RemoveAll(dir)
				if req.Charts, err = chart.RenderAll(summary, dir); err != nil {
					return fmt.Errorf("rendering charts: %w", err)
				}
			}

			art, err := export.Render(view, req)
			if err != nil {
				return err
			}
			reportEmbeds(art.Embeds)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			id, err := share.NewSlack(cfg.SlackBotToken).Share(ctx, cfg.SlackChannel, cfg.ReportTitle, art, share.Comment(summary, c))
			if err != nil {
				return err
			}
			logf("Shared %s to %s (file %s)", art.FileName, cfg.SlackChannel, id)
			return nil
		},
	}

	filters.bind(cmd)
	cmd.Flags().StringVar(&channel, "channel", "", "Slack channel ID (default from config)")
	cmd.Flags().StringVar(&format, "format", "pdf", "Format to share: csv, xlsx, pdf or parquet")
	cmd.Flags().BoolVar(&charts, "charts", true, "Embed chart images in a PDF snapshot")
	return cmd
}
