package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"pixelpeek/internal/database"
)

const historyTimeout = 30 * time.Second

// historyCommand prints recent batches from the history database.
func (c *cli) historyCommand(ctx context.Context, args []string) int {
	cfg, o, fs, err := c.parseConfig("history", args)
	if err != nil {
		return c.usageExit(err)
	}
	if !cfg.HistoryEnabled() {
		fmt.Fprintln(c.stderr, "Error: no history database configured (use -db or PIXELPEEK_DATABASE)")
		return exitUsage
	}
	if o.limit <= 0 {
		fmt.Fprintf(c.stderr, "Error: -limit must be positive, got %d\n", o.limit)
		return exitUsage
	}

	ctx, cancel := context.WithTimeout(ctx, historyTimeout)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: failed to open history database: %v\n", err)
		return exitFailure
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(c.stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	// a batch id prints its outcomes instead of the list
	if fs.NArg() > 0 {
		detail, err := db.GetBatch(ctx, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailure
		}
		printBatchDetail(c.stdout, detail)
		return exitOK
	}

	batches, err := db.ListBatches(ctx, o.limit)
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailure
	}
	if len(batches) == 0 {
		fmt.Fprintln(c.stdout, "No batches recorded.")
		return exitOK
	}
	printBatches(c.stdout, batches)
	return exitOK
}

func printBatches(w io.Writer, batches []database.BatchRecord) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tSTATE\tURLS\tOK\tFAILED\tSECONDS")
	for _, b := range batches {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%.2f\n",
			b.ID, b.StartedAt.Local().Format(time.DateTime), b.State, b.Total, b.Succeeded, b.Failed, b.ElapsedSeconds)
	}
	_ = tw.Flush()
}

func printBatchDetail(w io.Writer, d *database.BatchDetail) {
	fmt.Fprintf(w, "Batch %s (%s)\n", d.ID, d.State)
	fmt.Fprintf(w, "Started %s, %.2f seconds, %d succeeded, %d failed\n",
		d.StartedAt.Local().Format(time.DateTime), d.ElapsedSeconds, d.Succeeded, d.Failed)
	if d.Cause != "" {
		fmt.Fprintf(w, "Cause: %s\n", d.Cause)
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tURL\tRESULT")
	for _, o := range d.Outcomes {
		result := fmt.Sprintf("%dx%d %s %s", o.Meta.Width, o.Meta.Height, o.Meta.Mode, o.Meta.Format)
		if !o.OK() {
			result = o.Kind.String() + ": " + o.Cause
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", o.Index, o.URL, result)
	}
	_ = tw.Flush()
}
