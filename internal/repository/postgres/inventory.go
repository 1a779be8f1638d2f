package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
)

type InventoryRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *InventoryRepo) With(db DB) *InventoryRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *InventoryRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

// GetEventWithVenue retrieves an event joined with its venue. Side-effect
// free; the returned snapshot may be briefly stale and must not gate writes.
//
// Returns repository.ErrNotFound if the event does not exist.
func (r *InventoryRepo) GetEventWithVenue(ctx context.Context, eventID int64) (*domain.EventWithVenue, error) {
	const op = "postgres.InventoryRepo.GetEventWithVenue"

	db := r.handle()

	var ev domain.EventWithVenue
	err := db.QueryRow(ctx,
		`SELECT e.id, e.venue_id, e.name, e.price, e.status, e.occupancy,
        	    v.id, v.name, v.address, v.city, v.pincode, v.amenities, v.capacity, v.active
       	 FROM events e
       	 JOIN venues v ON v.id = e.venue_id
      	 WHERE e.id = $1`,
		eventID,
	).Scan(
		&ev.ID, &ev.VenueID, &ev.Name, &ev.Price, &ev.Status, &ev.Occupancy,
		&ev.Venue.ID, &ev.Venue.Name, &ev.Venue.Address, &ev.Venue.City,
		&ev.Venue.Pincode, &ev.Venue.Amenities, &ev.Venue.Capacity, &ev.Venue.Active,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &ev, nil
}

// ListEvents lists events joined with their venues, ordered by status then
// name.
func (r *InventoryRepo) ListEvents(ctx context.Context, limit, offset int) ([]domain.EventWithVenue, error) {
	const op = "postgres.InventoryRepo.ListEvents"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT e.id, e.venue_id, e.name, e.price, e.status, e.occupancy,
         	    v.id, v.name, v.address, v.city, v.pincode, v.amenities, v.capacity, v.active
       	 FROM events e
       	 JOIN venues v ON v.id = e.venue_id
      	 ORDER BY e.status, e.name
      	 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	var out []domain.EventWithVenue
	for rows.Next() {
		var ev domain.EventWithVenue
		if err := rows.Scan(
			&ev.ID, &ev.VenueID, &ev.Name, &ev.Price, &ev.Status, &ev.Occupancy,
			&ev.Venue.ID, &ev.Venue.Name, &ev.Venue.Address, &ev.Venue.City,
			&ev.Venue.Pincode, &ev.Venue.Amenities, &ev.Venue.Capacity, &ev.Venue.Active,
		); err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// TryReserve increments the event's occupancy by tickets if and only if the
// result does not exceed the venue's capacity, as a single conditional
// UPDATE. A bare increment is deliberately not exposed.
//
// Returns:
//   - int64: the occupancy after the increment.
//   - error: repository.ErrCapacityExceeded if the request does not fit.
//   - error: repository.ErrNotFound if the event does not exist.
func (r *InventoryRepo) TryReserve(ctx context.Context, eventID, tickets int64) (int64, error) {
	const op = "postgres.InventoryRepo.TryReserve"

	db := r.handle()

	var occupancy int64
	err := db.QueryRow(ctx,
		`UPDATE events e
        	SET occupancy = e.occupancy + $2
       	 FROM venues v
      	 WHERE e.id = $1
        	AND v.id = e.venue_id
        	AND e.occupancy + $2 <= v.capacity
      	 RETURNING e.occupancy`,
		eventID, tickets,
	).Scan(&occupancy)
	if err == nil {
		return occupancy, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, wrapDBErr(op, err)
	}

	// Zero rows updated: either the event is gone or the request did not fit.
	var exists bool
	if err := db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM events WHERE id = $1)`,
		eventID,
	).Scan(&exists); err != nil {
		return 0, wrapDBErr(op, err)
	}

	if !exists {
		return 0, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return 0, fmt.Errorf("%s: %w", op, repository.ErrCapacityExceeded)
}
