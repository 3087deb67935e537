package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	cfgpkg "github.com/local/qrlabels/internal/config"
	logpkg "github.com/local/qrlabels/internal/logger"
	"github.com/local/qrlabels/internal/orchestrator"
)

type runner interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Summary, error)
}

func main() {
	cfgpkg.LoadDotEnv()
	cfg := cfgpkg.FromEnv()

	_ = logpkg.Init(logpkg.Options{
		Level:        cfg.Logging.Level,
		Pretty:       cfg.Logging.Pretty,
		File:         cfg.Logging.File,
		MaxSizeMB:    cfg.Logging.MaxSizeMB,
		MaxBackups:   cfg.Logging.MaxBackups,
		MaxAgeDays:   cfg.Logging.MaxAgeDays,
		Compress:     cfg.Logging.Compress,
		SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
		AxiomAPIKey:  cfg.Axiom.APIKey,
		AxiomOrgID:   cfg.Axiom.OrgID,
		AxiomDataset: cfg.Axiom.Dataset,
		AxiomFlush:   cfg.Axiom.FlushInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(cfg, orchestrator.New(orchestrator.Dependencies{})).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("label generation failed")
		logpkg.Close()
		os.Exit(1)
	}
	logpkg.Close()
}

func newRootCmd(cfg cfgpkg.Config, r runner) *cobra.Command {
	req := orchestrator.Request{
		PreviewDPI:     cfg.Output.PreviewDPI,
		PreviewQuality: cfg.Output.PreviewQuality,
		UploadTimeout:  cfg.Output.UploadTimeout,
		StaleTempAge:   cfg.Output.StaleTempAge,
		PixelSize:      cfg.Labels.PixelSize,
	}

	cmd := &cobra.Command{
		Use:   "qrlabels [flags] outfile",
		Short: "Generate sheets of asset QR code labels for Avery L7120 stock",
		Long: `Generates a PDF of 35mm square QR code asset labels, 35 per A4 page (5 x 7).

Explicit IDs (--extra_ids) are printed first, in order. Contiguous IDs from
--start_at fill the remaining slots so every page is full. --num_pages is a
minimum: extra pages are added when the explicit IDs need them.

Example:
  qrlabels --start_at 1200 --num_pages 2 --prefix A- --extra_ids 17 --extra_ids 42 labels.pdf`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req.OutFile = args[0]
			sum, err := r.Run(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d pages, %d labels\n", sum.OutFile, sum.Pages, sum.Labels)
			if sum.Preview != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "preview: %s\n", sum.Preview)
			}
			if sum.UploadedTo != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "uploaded: %s\n", sum.UploadedTo)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&req.StartAt, "start_at", cfg.Labels.StartAt, "Asset ID to start at")
	f.IntVar(&req.NumPages, "num_pages", cfg.Labels.NumPages, "Number of pages to generate")
	f.IntSliceVar(&req.ExtraIDs, "extra_ids", nil, "Specific asset IDs to generate (repeatable)")
	f.IntVar(&req.Width, "width", cfg.Labels.Width, "Length to left-pad asset IDs to with zeros")
	f.StringVar(&req.Prefix, "prefix", cfg.Labels.Prefix, "Prefix to add to generated QR codes")
	f.StringVar(&req.FontPath, "font", cfg.Labels.FontPath, "TrueType font for the printed ID (default Go Regular)")
	f.StringVar(&req.PreviewPath, "preview", "", "Also write a JPEG preview of the first page")
	f.StringVar(&req.UploadURL, "upload", "", "Also upload the PDF to s3://bucket/key")
	f.StringVar(&req.MetricsFile, "metrics_file", cfg.Output.MetricsFile, "Write run metrics in Prometheus text format")
	f.BoolVar(&req.Verify, "verify", cfg.Output.Verify, "Verify the written PDF")

	return cmd
}
