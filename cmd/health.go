package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/desertthunder/ytmp/internal/health"
	"github.com/desertthunder/ytmp/internal/models"
	"github.com/desertthunder/ytmp/internal/repositories"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/urfave/cli/v3"
)

// Health probes the upstream directly, or asks a running proxy with --remote.
//
// An unhealthy verdict is returned as an error so scripts can rely on the exit code.
func (r *Runner) Health(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("remote") {
		return r.remoteHealth(ctx, cmd.Bool("status"), cmd.Bool("json"))
	}

	prober := health.NewProber(r.client, nil, r.config.Health, shared.WithLogger(r.logger, "component", "health"))
	report := prober.Check(ctx, true)

	if cmd.Bool("json") {
		if err := r.writeJSON(report, true); err != nil {
			return err
		}
	} else {
		r.printReport(report)
	}

	if report.Status == models.StatusUnhealthy {
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, report.Message)
	}
	return nil
}

func (r *Runner) printReport(report *health.Report) {
	r.writePlainHeader("YouTube Music health")
	r.writePlain("Status:   %s\n", report.Status)
	r.writePlain("Message:  %s\n", report.Message)
	r.writePlain("Duration: %dms\n", report.DurationMs)
	if report.ErrorType != "" {
		r.writePlain("Error:    %s\n", report.ErrorType)
	}
	if report.ErrorDetails != "" {
		r.writePlain("Details:  %s\n", report.ErrorDetails)
	}
	if report.Recommendation != "" {
		r.writePlain("Try:      %s\n", report.Recommendation)
	}
}

func (r *Runner) remoteHealth(ctx context.Context, full, raw bool) error {
	path := "/search/health?fresh=true"
	if full {
		path = "/api/status"
	}

	resp, err := r.api.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s returned %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}

	if raw || full {
		return r.writeJSON(resp.JSONData, !raw)
	}

	var report health.Report
	if err := resp.Decode(&report); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
	}
	r.printReport(&report)
	if report.Status == models.StatusUnhealthy {
		return fmt.Errorf("%w: %s", shared.ErrServiceUnavailable, report.Message)
	}
	return nil
}

// Errors lists, summarizes or prunes the recorded failure history.
func (r *Runner) Errors(ctx context.Context, cmd *cli.Command) error {
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := repositories.NewErrorEventRepository(db)
	since := time.Now().Add(-cmd.Duration("since"))

	switch {
	case cmd.Bool("prune"):
		n, err := repo.Prune(since)
		if err != nil {
			return err
		}
		r.logger.Info("pruned error history", "removed", n, "before", since.Format(time.RFC3339))
		return r.writePlain("✓ Removed %d entries\n", n)

	case cmd.Bool("summary"):
		counts, err := repo.CountByKind(since)
		if err != nil {
			return err
		}
		if cmd.Bool("json") {
			return r.writeJSON(counts, true)
		}
		return r.printCounts(counts, cmd.Duration("since"))
	}

	events, err := repo.List(map[string]any{
		"kind":      cmd.String("kind"),
		"operation": cmd.String("operation"),
		"since":     since,
		"limit":     cmd.Int("limit"),
	})
	if err != nil {
		return err
	}
	if cmd.Bool("json") {
		return r.writeJSON(events, true)
	}

	if len(events) == 0 {
		return r.writePlain("No errors recorded in the last %s\n", cmd.Duration("since"))
	}
	for _, e := range events {
		r.writePlain("%s  %d %-14s %-28s %s\n",
			e.CreatedAt().Local().Format("2006-01-02 15:04:05"), e.Status(), e.Kind(), e.Operation(), e.Message())
	}
	return nil
}

func (r *Runner) printCounts(counts map[string]int, window time.Duration) error {
	if len(counts) == 0 {
		return r.writePlain("No errors recorded in the last %s\n", window)
	}

	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return counts[kinds[i]] > counts[kinds[j]] })

	r.writePlainHeader(fmt.Sprintf("Errors in the last %s", window))
	for _, k := range kinds {
		r.writePlain("%-16s %d\n", k, counts[k])
	}
	return nil
}
