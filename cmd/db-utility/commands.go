package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/johndauphine/db-utility/internal/backup"
	"github.com/johndauphine/db-utility/internal/config"
	"github.com/johndauphine/db-utility/internal/database"
	"github.com/johndauphine/db-utility/internal/exitcodes"
	"github.com/johndauphine/db-utility/internal/history"
	"github.com/johndauphine/db-utility/internal/logging"
	"github.com/johndauphine/db-utility/internal/notify"
	"github.com/johndauphine/db-utility/internal/orchestrator"
	"github.com/johndauphine/db-utility/internal/progress"
	"github.com/johndauphine/db-utility/internal/storage"
	"github.com/johndauphine/db-utility/internal/ui"
	"github.com/urfave/cli/v2"
)

func runAction(action orchestrator.Action) cli.ActionFunc {
	return func(c *cli.Context) error {
		req := orchestrator.Request{
			Action:   action,
			File:     c.String("file"),
			Format:   backup.Format(c.String("format")),
			Compress: c.Bool("compress"),
			Clean:    c.Bool("clean"),
			Force:    c.Bool("force"),
		}
		// Arguments are checked before any configuration or database access.
		if err := req.Validate(); err != nil {
			return exitcodes.InputError(err)
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return exitcodes.NewExitError(fmt.Errorf("failed to load config: %w", err), exitcodes.Failure)
		}
		logging.Debug("Configuration: %+v", cfg.Sanitized().Database)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			select {
			case <-sigCh:
				fmt.Fprintln(os.Stderr, "\nInterrupted. Stopping after the current statement...")
				cancel()
			case <-ctx.Done():
			}
		}()

		return execute(ctx, c, cfg, req)
	}
}

func execute(ctx context.Context, c *cli.Context, cfg *config.Config, req orchestrator.Request) error {
	start := time.Now()
	notifier := notify.New(&cfg.Slack, cfg.App.Name)

	runs := openHistory(c, cfg)
	if runs != nil {
		defer runs.Close()
	}
	runID := startRun(runs, req)

	result, err := perform(ctx, c, cfg, req)
	duration := time.Since(start)

	if err != nil {
		err = exitcodes.NewExitError(err, exitcodes.Failure)
		completeRun(runs, runID, history.Outcome{Status: history.StatusFailed, File: req.File, Error: err.Error()})
		if nerr := notifier.OperationFailed(runID, string(req.Action), err, duration); nerr != nil {
			logging.Warn("Slack notification failed: %v", nerr)
		}
		return err
	}

	if result.Declined {
		completeRun(runs, runID, history.Outcome{Status: history.StatusDeclined, File: result.File})
		ui.Warning(os.Stdout, "Operation cancelled.")
		return nil
	}

	completeRun(runs, runID, history.Outcome{
		Status:   history.StatusSuccess,
		File:     result.File,
		Details:  details(result),
		Tables:   result.Tables,
		Rows:     result.Rows,
		Warnings: result.Warnings,
	})
	if nerr := notifier.OperationCompleted(runID, notify.Summary{
		Action:   string(result.Action),
		File:     result.File,
		Tables:   result.Tables,
		Rows:     result.Rows,
		Warnings: result.Warnings,
	}, duration); nerr != nil {
		logging.Warn("Slack notification failed: %v", nerr)
	}

	report(result)
	return nil
}

func perform(ctx context.Context, c *cli.Context, cfg *config.Config, req orchestrator.Request) (*orchestrator.Result, error) {
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var (
		tracker  *progress.Tracker
		reporter orchestrator.Progress = progress.Nop{}
	)
	switch {
	case c.Bool("no-progress"):
	case logging.IsJSON():
		reporter = progress.NewJSONReporter(os.Stderr, 2*time.Second)
	default:
		tracker = progress.New(os.Stderr)
		reporter = tracker
	}

	orch := orchestrator.New(db, storage.NewOS(cfg.Storage.Dir), orchestrator.Options{
		Application: cfg.App.Name,
		Confirmer:   ui.NewPrompt(),
		Progress:    reporter,
	})
	result, err := orch.Run(ctx, req)
	if err == nil && tracker != nil && !result.Declined {
		tracker.Finish()
	}
	return result, err
}

func report(result *orchestrator.Result) {
	switch result.Action {
	case orchestrator.ActionBackup:
		ui.Success(os.Stdout, "Backup created: %s", result.File)
	case orchestrator.ActionRestore:
		if result.Warnings > 0 {
			ui.Warning(os.Stdout, "Restore completed with %d warnings.", result.Warnings)
			return
		}
		ui.Success(os.Stdout, "Restore completed.")
	case orchestrator.ActionMigrateSQLite:
		for _, table := range result.Skipped {
			ui.Warning(os.Stdout, "Skipped %s: table does not exist in the destination.", table)
		}
		ui.Success(os.Stdout, "Migrated %d rows across %d tables.", result.Rows, result.Tables)
	}
}

func details(result *orchestrator.Result) string {
	switch {
	case result.Format != "":
		return fmt.Sprintf("format=%s", result.Format)
	case len(result.Skipped) > 0:
		return fmt.Sprintf("skipped=%v", result.Skipped)
	}
	return ""
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(c.String("config"), config.LoadOptions{EnvFile: c.String("env-file")})
	if err != nil {
		return nil, err
	}
	if dir := c.String("storage-dir"); dir != "" {
		cfg.Storage.Dir = dir
	}
	return cfg, nil
}

// openHistory returns nil when history is disabled or unavailable; a broken
// history database never fails the run.
func openHistory(c *cli.Context, cfg *config.Config) *history.Store {
	if c.Bool("no-history") {
		return nil
	}
	store, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		logging.Warn("Run history unavailable: %v", err)
		return nil
	}
	return store
}

func startRun(runs *history.Store, req orchestrator.Request) string {
	if runs == nil {
		return ""
	}
	format := ""
	if req.Action == orchestrator.ActionBackup {
		format = string(req.Format)
	}
	id, err := runs.Start(string(req.Action), req.File, format)
	if err != nil {
		logging.Warn("Could not record run: %v", err)
		return ""
	}
	return id
}

func completeRun(runs *history.Store, id string, outcome history.Outcome) {
	if runs == nil || id == "" {
		return
	}
	if err := runs.Complete(id, outcome); err != nil {
		logging.Warn("Could not record run outcome: %v", err)
	}
}

func showHistory(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	runs, err := history.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer runs.Close()

	if days := c.Int("prune"); days > 0 {
		n, err := runs.CleanupOldRuns(days)
		if err != nil {
			return err
		}
		ui.Success(os.Stdout, "Deleted %d runs older than %d days.", n, days)
		return nil
	}

	if id := c.String("run"); id != "" {
		run, err := runs.Get(id)
		if err != nil {
			return err
		}
		if run == nil {
			return exitcodes.InputError(fmt.Errorf("run %s: %w", id, orchestrator.ErrNotFound))
		}
		history.ShowRun(os.Stdout, run)
		return nil
	}

	recent, err := runs.Recent(c.Int("limit"))
	if err != nil {
		return err
	}
	history.ShowRuns(os.Stdout, recent)
	return nil
}
