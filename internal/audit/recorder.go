package audit

import (
	"context"
	"log/slog"

	"github.com/vireo-pm/vireo/internal/metrics"
)

// Appender is the append-only insert the recorder writes through.
// Implemented by *repo.AuditRepo.
type Appender interface {
	Insert(ctx context.Context, userID *int, action, entityType string, entityID int, details string) error
}

// Recorder appends audit entries on a best-effort basis. A failed write must
// never fail the mutation that triggered it, so Record returns nothing: the
// error is logged and counted instead.
type Recorder struct {
	Logs Appender
}

// NewRecorder returns a Recorder over the given store.
func NewRecorder(logs Appender) *Recorder {
	return &Recorder{Logs: logs}
}

// Record appends one entry. userID nil denotes a system-originated action.
// A single attempt, no retry.
func (r *Recorder) Record(ctx context.Context, userID *int, action, entityType string, entityID int, details string) {
	if err := r.Logs.Insert(ctx, userID, action, entityType, entityID, details); err != nil {
		slog.Error("audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err)
		metrics.IncAuditWriteFailure()
	}
}
