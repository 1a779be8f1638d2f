package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evbook/evbook-go/internal/domain"
)

type LedgerRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *LedgerRepo) With(db DB) *LedgerRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *LedgerRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// Append inserts a committed booking and returns its ID. It is called only
// from inside a reservation transaction, never as a detached write.
func (r *LedgerRepo) Append(ctx context.Context, b *domain.Booking) (int64, error) {
	const op = "postgres.LedgerRepo.Append"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO bookings (user_id, event_id, tickets, payment_label, total_price, status)
       	 VALUES ($1, $2, $3, $4, $5, $6)
      	 RETURNING id`,
		b.UserID, b.EventID, b.Tickets, b.PaymentLabel, b.Total, b.Status,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

// ListByUser returns the user's bookings joined with event and venue names,
// newest first.
func (r *LedgerRepo) ListByUser(ctx context.Context, userID int64) ([]domain.BookingView, error) {
	const op = "postgres.LedgerRepo.ListByUser"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT b.id, e.name, e.status, v.name, v.city,
          	    b.tickets, b.payment_label, b.total_price, b.status
       	 FROM bookings b
       	 JOIN events e ON e.id = b.event_id
       	 JOIN venues v ON v.id = e.venue_id
      	 WHERE b.user_id = $1
      	 ORDER BY b.id DESC`,
		userID,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.BookingView
	for rows.Next() {
		var bv domain.BookingView
		if err := rows.Scan(
			&bv.BookingID, &bv.EventName, &bv.EventStatus, &bv.VenueName, &bv.City,
			&bv.Tickets, &bv.PaymentLabel, &bv.Total, &bv.Status,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, bv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
