// run-cycle drives one prediction cycle over a UTC date window.
//
// Exit codes: 0 completed cycle, 1 cycle failure, 2 configuration error.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matchsight/matchsight/internal/app"
	"github.com/matchsight/matchsight/internal/config"
	"github.com/matchsight/matchsight/internal/provider"
)

const (
	exitOK          = 0
	exitCycleFailed = 1
	exitConfig      = 2
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("run-cycle", flag.ContinueOnError)
	windowArg := flags.String("window", "", "UTC date window, e.g. 2026-08-28..2026-09-04")
	configPath := flags.String("config", "matchsight.toml", "path to the TOML configuration file")
	if err := flags.Parse(args); err != nil {
		return exitConfig
	}

	window, err := parseWindow(*windowArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --window: %v\n", err)
		return exitConfig
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfig
	}

	application, err := app.New(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitConfig
	}
	defer func() { _ = application.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	report, err := application.Cycle.RunCycle(ctx, window)
	if err != nil {
		application.Logger.Error("cycle failed", "error", err.Error())
		return exitCycleFailed
	}

	application.Logger.Info("cycle report",
		"window_from", report.WindowFrom.Format("2006-01-02"),
		"window_to", report.WindowTo.Format("2006-01-02"),
		"matches", report.MatchesCanonicalized,
		"merged_duplicates", report.MergedDuplicates,
		"rejected", report.RejectedRecords,
		"by_state", report.PredictionsByState,
		"by_tier", report.PredictionsByTier,
		"disputed", report.DisputedIDs,
		"degraded", report.DegradedIDs,
		"failed", report.FailedIDs,
		"top_picks", report.TopPicks,
	)
	return exitOK
}

// parseWindow accepts "from..to" dates; the upper bound is exclusive at
// midnight UTC of the day after "to".
func parseWindow(raw string) (provider.Window, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), "..", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return provider.Window{}, fmt.Errorf("expected from..to, got %q", raw)
	}
	from, err := time.ParseInLocation("2006-01-02", parts[0], time.UTC)
	if err != nil {
		return provider.Window{}, fmt.Errorf("parse %q: %w", parts[0], err)
	}
	to, err := time.ParseInLocation("2006-01-02", parts[1], time.UTC)
	if err != nil {
		return provider.Window{}, fmt.Errorf("parse %q: %w", parts[1], err)
	}
	window := provider.Window{From: from, To: to.Add(24 * time.Hour)}
	if err := window.Validate(provider.MaxFixtureWindow); err != nil {
		return provider.Window{}, err
	}
	return window, nil
}
