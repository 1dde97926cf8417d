package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditEntry records one domain event in the audit trail. Entries are
// written asynchronously by the audit event handler after the originating
// operation commits; losing one never affects ledger state.
type AuditEntry struct {
	ID         uuid.UUID `json:"id"`
	WalletID   uuid.UUID `json:"wallet_id"`
	EventKind  EventKind `json:"event_kind"`
	Details    string    `json:"details,omitempty"` // JSON payload of the event
	OccurredAt time.Time `json:"occurred_at"`
	RecordedAt time.Time `json:"recorded_at"`
}
