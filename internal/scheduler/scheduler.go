// Package scheduler runs the periodic manifest reconciliation. The
// manifest is rebuilt on every publish; this job only exists so
// out-of-band bucket edits (operator uploads, orphan cleanup) converge
// without waiting for the next publish.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/crucial707/coursevault/internal/manifest"
	"github.com/crucial707/coursevault/internal/metrics"
)

// Run schedules a manifest rebuild at each cron tick and blocks until ctx
// is cancelled. spec is a standard 5-field cron expression.
func Run(ctx context.Context, builder *manifest.Builder, spec string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		start := time.Now()
		m, err := builder.Rebuild(ctx)
		if err != nil {
			slog.Error("manifest reconcile failed", "error", err)
			return
		}
		metrics.ManifestRebuildSeconds.Observe(time.Since(start).Seconds())
		slog.Info("manifest reconciled", "children", len(m.Children), "duration_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return err
	}

	c.Start()
	slog.Info("manifest reconciler started", "cron", spec)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	return nil
}
