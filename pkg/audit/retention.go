package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/opshub-io/opshub/pkg/observability"
)

// Sweeper removes audit entries older than the retention window.
type Sweeper struct {
	db            *sql.DB
	logger        *observability.Logger
	metrics       *observability.Metrics
	retentionDays int

	now func() time.Time
}

// NewSweeper creates a Sweeper. A retention of zero days disables sweeping.
func NewSweeper(db *sql.DB, logger *observability.Logger, metrics *observability.Metrics, retentionDays int) *Sweeper {
	return &Sweeper{
		db:            db,
		logger:        logger,
		metrics:       metrics,
		retentionDays: retentionDays,
		now:           time.Now,
	}
}

// Sweep deletes entries past the retention window and returns how many rows
// were removed.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := s.now().UTC().AddDate(0, 0, -s.retentionDays)
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_logs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep audit logs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count swept audit logs: %w", err)
	}

	if s.metrics != nil {
		s.metrics.AuditSweepDeleted.Add(float64(deleted))
	}
	return deleted, nil
}

// Schedule registers the sweep on the given cron scheduler. The caller owns
// starting and stopping the scheduler.
func (s *Sweeper) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	return c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deleted, err := s.Sweep(ctx)
		if err != nil {
			s.logger.WithError(err).Error("audit retention sweep failed")
			return
		}
		s.logger.WithFields(map[string]interface{}{
			"deleted":        deleted,
			"retention_days": s.retentionDays,
		}).Info("audit retention sweep completed")
	})
}
