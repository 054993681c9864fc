package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/backcountry-access/beacon-tracker/pkg/logging"
	"github.com/backcountry-access/beacon-tracker/pkg/models"
	"github.com/backcountry-access/beacon-tracker/pkg/render"
	"github.com/backcountry-access/beacon-tracker/pkg/report"
	"github.com/backcountry-access/beacon-tracker/pkg/report/archive"
)

var (
	savePath      string
	archiveReport bool
	offline       bool
)

// queryCmd builds a report for one unit from the tracking database
var queryCmd = &cobra.Command{
	Use:   "query [serial-number]",
	Short: "Show the manufacturing history of a beacon",
	Long: `Collects the records of one beacon from all nine stage tables, orders them
by transaction time and prints them as a tree.

Examples:
  beacon-tracker query A1B2C3
  beacon-tracker query A1B2C3 --save a1b2c3.json
  beacon-tracker query A1B2C3 --save a1b2c3.json --archive`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

// showCmd opens a previously saved report
var showCmd = &cobra.Command{
	Use:   "show [file | s3://bucket/key]",
	Short: "Show a saved report",
	Long: `Loads a report saved with "query --save" (or archived with "--archive")
and prints it the same way "query" does. Employee names and failure
descriptions are still looked up in the tracking database unless --offline
is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	queryCmd.Flags().StringVarP(&savePath, "save", "o", "", "Save the report to this JSON file")
	queryCmd.Flags().BoolVar(&archiveReport, "archive", false, "Upload the report to the configured S3 archive")

	showCmd.Flags().BoolVar(&offline, "offline", false, "Skip employee and failure code lookups")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	rep, err := a.tracker.BuildReport(ctx, args[0])
	if err != nil {
		logger.Error("Query failed", zap.String("serial_number", args[0]), logging.Error(err))
		return fmt.Errorf("query %s: %w", args[0], err)
	}

	if savePath != "" {
		if err := report.Save(savePath, rep); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved report to %s\n", savePath)
	}

	if archiveReport {
		store, err := a.archiveStore(ctx, "")
		if err != nil {
			return err
		}
		uri, err := store.Put(ctx, rep)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Archived report to %s\n", uri)
	}

	return render.New(cmd.OutOrStdout(), a.lookups, logger).Render(ctx, rep)
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	location := args[0]

	var rep *models.Report
	if archive.IsURI(location) {
		bucket, _, ok := archive.ParseURI(location)
		if !ok {
			return fmt.Errorf("invalid archive uri %q (want s3://bucket/key)", location)
		}
		store, serr := a.archiveStore(ctx, bucket)
		if serr != nil {
			return serr
		}
		rep, err = store.GetURI(ctx, location)
	} else {
		rep, err = report.Load(location)
	}
	if err != nil {
		return err
	}

	logger.Debug("Loaded report",
		zap.String("source", location),
		zap.String("serial_number", rep.SerialNumber()),
		zap.Int("records", rep.Len()))

	var resolver render.Resolver
	if !offline {
		resolver = a.lookups
	}
	return render.New(cmd.OutOrStdout(), resolver, logger).Render(ctx, rep)
}
