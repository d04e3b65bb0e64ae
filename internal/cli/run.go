package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/me/mcp/internal/commands"
	"github.com/me/mcp/internal/report"
	"github.com/me/mcp/internal/scheduler"
	"github.com/me/mcp/internal/store"
	"github.com/me/mcp/internal/tracing"
	"github.com/me/mcp/pkg/model"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <command-file>",
		Short: "Run a batch of commands round robin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBatch,
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg.CommandFile = args[0]
	}
	if cfg.CommandFile == "" {
		return cmd.Help()
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	cmds, err := commands.LoadFile(cfg.CommandFile)
	if err != nil {
		return err
	}
	logger.Debug("commands loaded", "file", cfg.CommandFile, "count", len(cmds))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Handle signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, stopping batch", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	tp, err := tracing.Init("mcp", version, cfg.TracePath)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("flush traces", "error", err)
		}
	}()

	ctx, span := tp.StartSpan(ctx, "batch")
	span.WithAttributes(map[string]string{
		"batch.source":  cfg.CommandFile,
		"batch.quantum": cfg.Quantum.String(),
		"batch.size":    strconv.Itoa(len(cmds)),
	})

	s, err := scheduler.New(cmds, scheduler.Config{
		Quantum:      cfg.Quantum,
		ReadyTimeout: cfg.ReadyTimeout,
		Stats:        cfg.Stats,
		Source:       cfg.CommandFile,
	}, logger, scheduler.WithObserver(traceObserver(span)))
	if err != nil {
		tracing.EndSpan(span, err)
		return err
	}

	rep, runErr := s.Run(ctx)
	span.WithAttributes(map[string]string{"batch.id": rep.ID})

	if err := writeReport(cmd.OutOrStdout(), rep); err != nil {
		logger.Warn("write report", "error", err)
	}
	recordHistory(rep)

	if runErr == nil && rep.Errored() > 0 {
		runErr = fmt.Errorf("%d of %d processes did not succeed", rep.Errored(), len(rep.Processes))
	}
	tracing.EndSpan(span, runErr)
	return runErr
}

func writeReport(w io.Writer, rep *model.BatchReport) error {
	switch flagOutput {
	case "json":
		return report.WriteJSON(w, rep)
	case "table", "":
		report.Print(w, rep)
		return nil
	default:
		return fmt.Errorf("unknown output format %q", flagOutput)
	}
}

// traceObserver turns scheduler events into events on the batch span.
func traceObserver(span *tracing.Span) func(scheduler.Event) {
	return func(ev scheduler.Event) {
		attrs := map[string]string{}
		if ev.Kind != scheduler.EventComplete {
			attrs["index"] = strconv.Itoa(ev.Index)
			attrs["pid"] = strconv.Itoa(ev.PID)
			attrs["command"] = ev.Command
		}
		if ev.Exit != nil {
			attrs["outcome"] = string(ev.Exit.Outcome)
			attrs["exit"] = ev.Exit.Describe()
		}
		span.AddEvent(ev.Kind.String(), attrs)
	}
}

// recordHistory stores rep in the history database. Failures are logged; the
// batch has already run.
func recordHistory(rep *model.BatchReport) {
	if cfg.NoHistory {
		return
	}
	path, err := historyPath()
	if err != nil {
		logger.Warn("history disabled", "error", err)
		return
	}

	st, err := openStore(path)
	if err != nil {
		logger.Warn("open history", "path", path, "error", err)
		return
	}
	defer st.Close()

	saveBatch(st, rep)
}

// saveBatch writes rep to st, logging rather than returning any failure.
func saveBatch(st store.Store, rep *model.BatchReport) bool {
	if err := st.RecordBatch(context.Background(), rep); err != nil {
		logger.Warn("record batch", "id", rep.ID, "error", err)
		return false
	}
	logger.Debug("batch recorded", "id", rep.ID)
	return true
}

func openStore(path string) (store.Store, error) {
	st, err := store.NewSQLiteStore(path, logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(context.Background()); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return st, nil
}
