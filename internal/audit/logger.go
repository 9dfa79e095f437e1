// Package audit records security relevant operator actions.
package audit

import (
	"context"

	"go.pilab.hu/oauth2/log"
)

// Actions.
const (
	ActionClientRegistered = "client.registered"
	ActionSecretRotated    = "client.secret_rotated"
	ActionClientDeleted    = "client.deleted"
	ActionTokenRevoked     = "token.revoked"
)

// Event represents an audit log event.
type Event struct {
	Action   string
	ClientID string
	Details  string
	Err      error
}

// Logger writes audit events to a log.Logger under the "audit" component.
// A nil *Logger discards events.
type Logger struct {
	logger log.Logger
}

// New creates an audit logger on top of l.
func New(l log.Logger) *Logger {
	return &Logger{logger: l.With(log.Fields{"component": "audit"})}
}

// Log records ev. Failed actions are logged at warn level.
func (a *Logger) Log(ctx context.Context, ev Event) {
	if a == nil {
		return
	}

	fields := log.Fields{
		"action":  ev.Action,
		"success": ev.Err == nil,
	}
	if ev.ClientID != "" {
		fields["client_id"] = ev.ClientID
	}
	if ev.Details != "" {
		fields["details"] = ev.Details
	}

	if ev.Err != nil {
		fields["error"] = ev.Err.Error()
		a.logger.Warn(ctx, "audit event", fields)

		return
	}

	a.logger.Info(ctx, "audit event", fields)
}
