package shared

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AuditLogger records business actions into the audit_logs table.
// Failures are logged but never fail the surrounding request.
type AuditLogger struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewAuditLogger constructs an AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, log *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, log: log}
}

// Record inserts an audit entry. Details may be nil.
func (a *AuditLogger) Record(ctx context.Context, action, entity, entityID string, details map[string]any) {
	if a == nil || a.pool == nil {
		return
	}

	var payload []byte
	if details != nil {
		var err error
		payload, err = json.Marshal(details)
		if err != nil {
			a.log.Warn("audit details marshal failed", "action", action, "error", err)
			payload = nil
		}
	}

	const q = `
		INSERT INTO audit_logs (action, entity, entity_id, details, request_id)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := a.pool.Exec(ctx, q, action, entity, entityID, payload, RequestIDFrom(ctx)); err != nil {
		a.log.Warn("audit insert failed", "action", action, "entity", entity, "error", err)
	}
}
