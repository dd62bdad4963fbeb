package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixelpeek/internal/batch"
	"pixelpeek/internal/database"
	"pixelpeek/internal/fetcher"
	"pixelpeek/internal/logging"
	"pixelpeek/internal/metrics"
	"pixelpeek/internal/progress"
	"pixelpeek/internal/source"
	"pixelpeek/internal/startup"
	"pixelpeek/internal/workers"

	"github.com/schollz/progressbar/v3"
)

// runCommand fetches a URL list and writes the CSV report.
func (c *cli) runCommand(ctx context.Context, args []string) int {
	cfg, o, fs, err := c.parseConfig("run", args)
	if err != nil {
		return c.usageExit(err)
	}
	if o.verbose {
		startup.LogConfig(cfg)
	}

	urls, err := c.readURLs(o.input, fs.Args())
	if err != nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitUsage
	}

	opts := batch.Options{
		MaxConcurrent: workers.Resolve(cfg.MaxConcurrent),
		BatchTimeout:  cfg.BatchTimeout,
		Fetch:         cfg.FetchConfig(),
	}

	if cfg.HistoryEnabled() {
		db, err := openHistory(ctx, cfg.DatabasePath)
		if err != nil {
			fmt.Fprintf(c.stderr, "Error: %v\n", err)
			return exitFailure
		}
		defer db.Close()
		opts.History = db
	}

	fetcher.SetObserver(metrics.NewFetchObserver())
	defer fetcher.SetObserver(nil)

	runner := batch.NewRunner(opts)
	bar := c.attachProgress(runner, len(urls))

	result, err := runner.RunFile(ctx, urls, cfg.OutputPath)
	if bar != nil {
		_ = bar.Finish()
	}
	if result == nil {
		fmt.Fprintf(c.stderr, "Error: %v\n", err)
		return exitFailure
	}

	startup.LogBatchSummary(startup.BatchSummary{
		ID:         result.ID,
		State:      result.State.String(),
		Total:      len(result.Outcomes),
		Succeeded:  result.Succeeded,
		Failed:     result.Failed,
		OutputPath: result.OutputPath,
		Elapsed:    result.Elapsed,
	})
	fmt.Fprintf(c.stdout, "Total execution time: %.2f seconds\n", result.Elapsed.Seconds())

	if err != nil {
		var fatal *batch.FatalIOError
		if errors.As(err, &fatal) {
			fmt.Fprintf(c.stderr, "Error: %v\n", fatal)
		}
		return exitFailure
	}
	return exitOK
}

// readURLs collects URLs from the -i file (or stdin) followed by the
// positional arguments. Piped stdin is read when neither is given.
func (c *cli) readURLs(input string, args []string) ([]string, error) {
	var urls []string

	switch {
	case input == "-":
		read, err := source.Read(c.stdin)
		if err != nil {
			return nil, err
		}
		urls = append(urls, read...)
	case input != "":
		read, err := source.ReadFile(input)
		if err != nil {
			return nil, err
		}
		urls = append(urls, read...)
	case len(args) == 0 && c.stdinPiped:
		read, err := source.Read(c.stdin)
		if err != nil {
			return nil, err
		}
		urls = append(urls, read...)
	case len(args) == 0:
		return nil, errors.New("no URLs given: pass them as arguments, with -i <file>, or on stdin")
	}

	urls = append(urls, args...)
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// attachProgress subscribes the terminal progress bar, or progress log
// lines when stderr is not a terminal. It returns the bar, if any.
func (c *cli) attachProgress(runner *batch.Runner, total int) *progressbar.ProgressBar {
	if !c.interactive || total == 0 {
		runner.SubscribeSnapshots(func(s progress.Snapshot) {
			if s.Last == nil {
				logging.Info("%s", s.Message)
				return
			}
			logging.Debug("[%d/%d] %s %s", s.Completed, s.Total, s.Last.Kind, s.Last.URL)
		})
		return nil
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.stderr),
		progressbar.OptionSetDescription("Processing URLs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("urls"),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionFullWidth(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(c.stderr)
		}),
	)
	runner.SubscribeSnapshots(func(s progress.Snapshot) {
		if s.Last != nil {
			_ = bar.Set(s.Completed)
		}
	})
	return bar
}

// openHistory opens the history database and logs its initialization.
func openHistory(ctx context.Context, path string) (*database.Database, error) {
	start := time.Now()
	db, err := database.New(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	startup.LogDatabaseInit(path, time.Since(start))
	return db, nil
}
