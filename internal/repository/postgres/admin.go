package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/evbook/evbook-go/internal/domain"
	"github.com/evbook/evbook-go/internal/repository"
)

// AdminRepo covers the administrative mutations outside the reservation
// core's contract: creating venues and events, lifecycle flips, deletion.
type AdminRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *AdminRepo) With(db DB) *AdminRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *AdminRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *AdminRepo) CreateVenue(ctx context.Context, v *domain.Venue) (int64, error) {
	const op = "postgres.AdminRepo.CreateVenue"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO venues (name, address, city, pincode, amenities, capacity, active)
       	 VALUES ($1, $2, $3, $4, $5, $6, $7)
      	 RETURNING id`,
		v.Name, v.Address, v.City, v.Pincode, v.Amenities, v.Capacity, v.Active,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *AdminRepo) CreateEvent(
	ctx context.Context,
	venueID int64,
	name string,
	price decimal.Decimal,
	status string,
) (int64, error) {
	const op = "postgres.AdminRepo.CreateEvent"

	db := r.handle()

	var id int64
	if err := db.QueryRow(ctx,
		`INSERT INTO events (venue_id, name, price, status)
       	 VALUES ($1, $2, $3, $4)
      	 RETURNING id`,
		venueID, name, price, status,
	).Scan(&id); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return id, nil
}

func (r *AdminRepo) SetEventStatus(ctx context.Context, eventID int64, status string) error {
	const op = "postgres.AdminRepo.SetEventStatus"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE events SET status = $2 WHERE id = $1`,
		eventID, status,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

func (r *AdminRepo) SetVenueActive(ctx context.Context, venueID int64, active bool) error {
	const op = "postgres.AdminRepo.SetVenueActive"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE venues SET active = $2 WHERE id = $1`,
		venueID, active,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteEvent removes an event; dependent bookings go with it via the
// ON DELETE CASCADE foreign key.
func (r *AdminRepo) DeleteEvent(ctx context.Context, eventID int64) error {
	const op = "postgres.AdminRepo.DeleteEvent"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM events WHERE id = $1`, eventID)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}

// DeleteVenue removes a venue and, through cascades, its events and their
// bookings.
func (r *AdminRepo) DeleteVenue(ctx context.Context, venueID int64) error {
	const op = "postgres.AdminRepo.DeleteVenue"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM venues WHERE id = $1`, venueID)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return wrapDBErr(op, repository.ErrNotFound)
	}

	return nil
}
