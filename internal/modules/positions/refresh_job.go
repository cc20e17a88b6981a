package positions

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/BedheadProgrammer/FinanceBuddy-sub000/internal/utils"
)

// RefreshJob periodically reconciles every class so market-derived fields
// stay current between user actions
type RefreshJob struct {
	reconciler *Reconciler
	timeout    time.Duration
	log        zerolog.Logger
}

// NewRefreshJob creates the periodic refresh job
func NewRefreshJob(reconciler *Reconciler, timeout time.Duration, log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		reconciler: reconciler,
		timeout:    timeout,
		log:        log.With().Str("job", "positions_refresh").Logger(),
	}
}

// Run reconciles every class and refreshes the crypto catalogue.
// Failures are kept as stale-read errors on the reconciler, not returned.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	timer := utils.NewTimer(j.Name(), j.log)
	j.reconciler.Reconcile(ctx, "")
	j.reconciler.RefreshCryptoAssets(ctx)

	timer.StopWithFields(map[string]interface{}{
		"summary_error": j.reconciler.Error(ResourceSummary),
	})
	return nil
}

// Name returns the job name for scheduling and logging
func (j *RefreshJob) Name() string {
	return "positions_refresh"
}
