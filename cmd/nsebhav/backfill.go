package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bobmcallan/nsebhav/internal/app"
	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/models"
)

func newBackfillCmd(configPath *string) *cobra.Command {
	var through string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Run one backfill pass and exit",
		Long: `Walks back one calendar day at a time from --through (default: yesterday
in the exchange time zone) until the configured number of trading days are
stored or the offset ceiling is reached. Days already stored are not fetched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var day time.Time
			if through != "" {
				d, err := common.ParseISODate(through)
				if err != nil {
					return err
				}
				day = d
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, *configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			if err := a.RunBackfill(ctx, day); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&through, "through", "", "last trade date to backfill (YYYY-MM-DD)")
	return cmd
}

func newIngestCmd(configPath *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest a single trade date and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			day, err := common.ParseISODate(date)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := app.NewApp(ctx, *configPath)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			defer a.Close()

			result, err := a.IngestService.IngestDay(ctx, day)
			if errors.Is(err, models.ErrNotPublished) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: no bhavcopy published\n", date)
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d records, %d rejected)\n",
				result.TradeDate, result.Status, result.Records, result.Rejected)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "trade date to ingest (YYYY-MM-DD)")
	cmd.MarkFlagRequired("date")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "nsebhav %s\n", common.GetFullVersion())
		},
	}
}
