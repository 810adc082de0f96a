/**
 * @description
 * This file implements the scheduled job that abandons stale onboarding
 * conversations. A conversation with no mutation for longer than the
 * configured timeout is fed a timeout input, which clears its temp data and
 * returns it to the none state. The sweep runs under the cron scheduler wired
 * in main.
 */

package app

import (
	"context"
	"log"
	"time"

	"github.com/koboflow/onboarding-service/internal/store"
)

// TimeoutSweeper periodically abandons conversations stuck mid-onboarding.
type TimeoutSweeper struct {
	repo    store.Repository
	saga    *Saga
	timeout time.Duration
}

func NewTimeoutSweeper(repo store.Repository, saga *Saga, timeout time.Duration) *TimeoutSweeper {
	return &TimeoutSweeper{repo: repo, saga: saga, timeout: timeout}
}

// Run executes one sweep. Individual failures are logged and skipped so one
// contested record cannot stall the rest of the batch.
func (t *TimeoutSweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-t.timeout)
	stale, err := t.repo.FindStaleSagas(ctx, cutoff)
	if err != nil {
		log.Printf("level=error component=timeout_sweeper msg=\"stale saga query failed\" err=%v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	log.Printf("level=info component=timeout_sweeper msg=\"abandoning stale conversations\" count=%d cutoff=%s", len(stale), cutoff.Format(time.RFC3339))
	for _, state := range stale {
		if err := t.saga.HandleTimeout(ctx, state.CorrelationID); err != nil {
			log.Printf("level=error component=timeout_sweeper msg=\"timeout failed\" correlation_id=%s err=%v", state.CorrelationID, err)
		}
	}
}
