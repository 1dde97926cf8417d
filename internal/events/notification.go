package events

import (
	"context"

	"wallet-ledger-service/internal/core/domain"
	"wallet-ledger-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// NotificationHandler returns a handler that logs each event as a structured
// notification record. It stands in for outbound channels (email, webhooks)
// that consume the same event stream.
func NotificationHandler(log zerolog.Logger) ports.EventHandler {
	return func(_ context.Context, event domain.Event) {
		entry := log.Info().
			Str("kind", string(event.Kind())).
			Time("occurred_at", event.OccurredAt())

		switch e := event.(type) {
		case domain.WalletCreatedEvent:
			entry = entry.Str("owner_id", e.OwnerID).Str("currency", e.Currency)
		case domain.MoneyDepositedEvent:
			entry = entry.Str("owner_id", e.OwnerID).Str("amount", e.Amount.String())
		case domain.MoneyWithdrawnEvent:
			entry = entry.Str("owner_id", e.OwnerID).Str("amount", e.Amount.String())
		case domain.MoneyTransferredEvent:
			entry = entry.
				Str("source_owner_id", e.SourceOwnerID).
				Str("target_owner_id", e.TargetOwnerID).
				Str("amount", e.Amount.String())
		}

		entry.Msg("wallet notification")
	}
}
