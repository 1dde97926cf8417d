package service

import (
	"context"
	"encoding/json"
	"time"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const auditWriteTimeout = 5 * time.Second

// AuditService records published domain events as audit trail entries. It is
// wired into the event registry as a handler for every event kind; a failed
// write is logged and dropped, never retried and never surfaced.
type AuditService struct {
	auditRepo ports.AuditRepository
	log       zerolog.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo ports.AuditRepository, log zerolog.Logger) *AuditService {
	return &AuditService{auditRepo: auditRepo, log: log}
}

// HandleEvent implements ports.EventHandler.
func (s *AuditService) HandleEvent(ctx context.Context, event domain.Event) {
	details, err := json.Marshal(event)
	if err != nil {
		s.log.Error().Err(err).Str("kind", string(event.Kind())).Msg("audit: marshal event failed")
		return
	}

	entry := &domain.AuditEntry{
		ID:         uuid.New(),
		WalletID:   walletIDOf(event),
		EventKind:  event.Kind(),
		Details:    string(details),
		OccurredAt: event.OccurredAt(),
		RecordedAt: time.Now().UTC(),
	}

	// The publishing request may already be gone; give the write its own
	// deadline.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditWriteTimeout)
	defer cancel()

	if err := s.auditRepo.Create(writeCtx, entry); err != nil {
		s.log.Error().Err(err).
			Str("kind", string(event.Kind())).
			Str("wallet_id", entry.WalletID.String()).
			Msg("audit: write failed")
		return
	}

	s.log.Debug().
		Str("kind", string(event.Kind())).
		Str("wallet_id", entry.WalletID.String()).
		Msg("audit entry recorded")
}

func walletIDOf(event domain.Event) uuid.UUID {
	switch e := event.(type) {
	case domain.WalletCreatedEvent:
		return e.WalletID
	case domain.MoneyDepositedEvent:
		return e.WalletID
	case domain.MoneyWithdrawnEvent:
		return e.WalletID
	case domain.MoneyTransferredEvent:
		return e.WalletID
	case domain.TransactionCreatedEvent:
		return e.WalletID
	case domain.WalletSuspendedEvent:
		return e.WalletID
	case domain.WalletActivatedEvent:
		return e.WalletID
	case domain.WalletClosedEvent:
		return e.WalletID
	default:
		return uuid.Nil
	}
}
