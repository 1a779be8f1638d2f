package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
)

// maxTxAttempts bounds retries of transactions aborted by serialization
// failures or deadlocks.
const maxTxAttempts = 3

// txView binds the inventory and ledger repos to one transaction so the
// engine's reserve and ledger append commit or roll back together.
type txView struct {
	inv *InventoryRepo
	led *LedgerRepo
}

func (t *txView) GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	return t.inv.GetEventWithVenue(ctx, eventID)
}

func (t *txView) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	return t.inv.ListEvents(ctx, limit, offset)
}

func (t *txView) TryReserve(ctx context.Context, eventID, tickets int64) (int64, error) {
	return t.inv.TryReserve(ctx, eventID, tickets)
}

func (t *txView) Append(ctx context.Context, b *domain.Booking) (int64, error) {
	return t.led.Append(ctx, b)
}

func (t *txView) ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	return t.led.ListByUser(ctx, userID)
}

// Pool-bound delegates; together with RunAtomic they make *Store satisfy
// repository.Store.

func (s *Store) GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	return s.Inventory().GetEventWithVenue(ctx, eventID)
}

func (s *Store) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	return s.Inventory().ListEvents(ctx, limit, offset)
}

func (s *Store) TryReserve(ctx context.Context, eventID, tickets int64) (int64, error) {
	return s.Inventory().TryReserve(ctx, eventID, tickets)
}

func (s *Store) Append(ctx context.Context, b *domain.Booking) (int64, error) {
	return s.Ledger().Append(ctx, b)
}

func (s *Store) ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	return s.Ledger().ListByUser(ctx, userID)
}

// RunAtomic runs fn inside a read-committed transaction. The conditional
// UPDATE in TryReserve serializes on the event row lock, so read committed is
// sufficient for the no-oversell invariant. Transactions aborted with
// 40001/40P01 are retried a bounded number of times; fn must therefore be
// safe to re-run.
func (s *Store) RunAtomic(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Tx) error,
) error {
	opts := &pgx.TxOptions{
		IsoLevel:   pgx.ReadCommitted,
		AccessMode: pgx.ReadWrite,
	}

	var err error
	for attempt := 0; attempt < maxTxAttempts; attempt++ {
		err = s.RunTx(ctx, opts, func(ctx context.Context, tx DB) error {
			return fn(ctx, &txView{
				inv: s.Inventory().With(tx),
				led: s.Ledger().With(tx),
			})
		})
		if err == nil || !IsRetryable(err) {
			return err
		}
	}

	return err
}
