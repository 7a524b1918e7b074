package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"newsdesk/internal/policy"
)

// DecisionReporter persists every authorization decision to the events
// table. Delivery is fire-and-forget: a write failure is logged and never
// blocks or fails the policy chain.
type DecisionReporter struct {
	DB     *sql.DB
	Now    func() time.Time
	Logger *log.Logger
}

func (r DecisionReporter) logger() *log.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return log.Default()
}

func (r DecisionReporter) Report(ctx context.Context, evt policy.DecisionEvent) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	payload, err := json.Marshal(map[string]any{
		"operation": evt.Operation,
		"policy":    evt.Policy,
		"role":      string(evt.Role),
		"reason":    string(evt.Reason),
		"message":   evt.Message,
	})
	if err != nil {
		r.logger().Printf("audit: marshal decision failed: %v", err)
		return
	}
	actor := evt.PrincipalID
	if actor == "" {
		actor = "anonymous"
	}
	_, err = r.DB.ExecContext(ctx, `INSERT INTO events(ts,type,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?)`,
		now().UTC().Format(time.RFC3339), "authz."+string(evt.Outcome), "article",
		nullable(evt.ResourceID), actor, string(payload))
	if err != nil {
		r.logger().Printf("audit: record decision failed: %v", err)
	}
}
