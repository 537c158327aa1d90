// Package audit records immutable audit trail entries for data mutations.
// Entries are append-only: nothing in the application updates or deletes an
// audit row except the retention sweep.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/opshub-io/opshub/pkg/observability"
)

// Entry is one audit trail record
type Entry struct {
	ID        int64           `json:"id"`
	Action    string          `json:"action"`
	TableName string          `json:"table_name"`
	RecordID  *int64          `json:"record_id,omitempty"`
	UserID    *int64          `json:"user_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Recorder writes audit entries. Recording failures are logged and swallowed
// so an audit write never fails the request that triggered it.
type Recorder struct {
	db      *sql.DB
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRecorder creates a Recorder. metrics may be nil.
func NewRecorder(db *sql.DB, logger *observability.Logger, metrics *observability.Metrics) *Recorder {
	return &Recorder{
		db:      db,
		logger:  logger,
		metrics: metrics,
	}
}

// Record writes one audit entry. payload may be any JSON-marshalable value
// or nil.
func (r *Recorder) Record(ctx context.Context, action, tableName string, recordID, userID *int64, payload interface{}) {
	var payloadJSON []byte
	if payload != nil {
		var err error
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			r.logger.WithError(err).WithField("action", action).
				Error("failed to marshal audit payload")
			payloadJSON = nil
		}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (action, table_name, record_id, user_id, payload)
		 VALUES ($1, $2, $3, $4, $5)`,
		action, tableName, recordID, userID, nullableString(payloadJSON),
	)
	if err != nil {
		r.logger.WithError(err).WithFields(map[string]interface{}{
			"action": action,
			"table":  tableName,
		}).Error("failed to record audit entry")
		return
	}

	if r.metrics != nil {
		r.metrics.AuditRecordsTotal.Inc()
	}
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
