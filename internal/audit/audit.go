// Package audit emits security events to an external sink. Recording is
// best-effort: failures are logged and never affect the calling operation.
package audit

import (
	"context"
	"log"
	"time"
)

// Actions recorded by the lifecycle engines.
const (
	ActionRegister             = "register"
	ActionLogin                = "login"
	ActionLoginFailure         = "login_failure"
	ActionRefresh              = "refresh"
	ActionRefreshReuse         = "refresh_reuse"
	ActionLogout               = "logout"
	ActionRevokeAll            = "revoke_all"
	ActionPasswordChange       = "password_change"
	ActionResetIssued          = "reset_issued"
	ActionResetConsumed        = "reset_consumed"
	ActionVerificationIssued   = "verification_issued"
	ActionVerificationConsumed = "verification_consumed"
)

// Event is one security-relevant occurrence. Metadata must never contain
// secrets or token values.
type Event struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	At        time.Time `json:"at"`
}

// Recorder is the audit sink consumed by the lifecycle engines.
type Recorder interface {
	Record(ctx context.Context, e Event)
}

// LogRecorder writes events to the process log. Used when no Kafka brokers
// are configured.
type LogRecorder struct{}

// Record logs the event.
func (LogRecorder) Record(_ context.Context, e Event) {
	log.Printf("audit: %s user=%s session=%s ip=%s %s", e.Action, e.UserID, e.SessionID, e.IP, e.Metadata)
}

// NopRecorder discards events. For tests.
type NopRecorder struct{}

// Record discards the event.
func (NopRecorder) Record(context.Context, Event) {}
