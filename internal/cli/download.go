package cli

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/charti/download"
	"github.com/rustyeddy/charti/exchange"
	"github.com/rustyeddy/charti/export"
	"github.com/rustyeddy/charti/market"
)

func runDownload(cmd *cobra.Command, rc *RootConfig, args []string) error {
	out := cmd.OutOrStdout()

	if rc.Pair == "" || rc.Exchange == "" || rc.StartDate == "" || rc.EndDate == "" {
		fmt.Fprintln(out, "Error: Missing required arguments for downloading data.")
		fmt.Fprintln(out, "Required: --pair, --exchange, --start-date, --end-date")
		return nil
	}

	// "--intervals 1d 1h" leaves the extra tokens as positional args.
	intervals := rc.cfg.Download.Intervals
	if len(args) > 0 {
		if !cmd.Flags().Changed("intervals") {
			return fmt.Errorf("unexpected arguments: %v", args)
		}
		intervals = append(append([]string{}, intervals...), args...)
	}

	window, err := market.ParseWindow(rc.StartDate, rc.EndDate)
	if err != nil {
		return err
	}

	format, err := export.ParseFormat(rc.cfg.Download.Format, rc.cfg.Download.OutputFile)
	if err != nil {
		return err
	}

	opts, err := rc.exchangeOptions(rc.Exchange)
	if err != nil {
		return err
	}
	ex, err := exchange.New(rc.Exchange, opts)
	if err != nil {
		return err
	}

	log := rc.log.WithFields(logrus.Fields{"exchange": ex.ID()})
	fetcher := &download.Fetcher{
		Source:    ex,
		BatchSize: rc.cfg.Download.BatchSize,
		Log:       log,
	}

	ctx := cmd.Context()
	res := fetcher.Download(ctx, rc.Pair, intervals, window)
	doc := export.NewDocument(ex.ID(), res)

	path := rc.cfg.Download.OutputFile
	runID, err := export.WriteFile(ctx, path, format, doc)
	if err != nil {
		return err
	}

	if runID != "" {
		log.WithField("run_id", runID).Info("stored download run")
	}
	fmt.Fprintf(out, "Data saved to %s\n", path)
	return nil
}
