package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	pkgpg "github.com/Temirlan0k/ride-dispatch/pkg/postgres"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
        id, passenger_id, driver_id,
        pickup_latitude, pickup_longitude, dropoff_latitude, dropoff_longitude,
        distance_km, fare, status, rating, feedback, payment_status,
        created_at, updated_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.PassengerID, &ride.DriverID,
		&ride.Pickup.Latitude, &ride.Pickup.Longitude, &ride.Dropoff.Latitude, &ride.Dropoff.Longitude,
		&ride.DistanceKm, &ride.Fare, &ride.Status, &ride.Rating, &ride.Feedback, &ride.PaymentStatus,
		&ride.CreatedAt, &ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `
        INSERT INTO rides (passenger_id,
                           pickup_latitude, pickup_longitude,
                           dropoff_latitude, dropoff_longitude,
                           distance_km, fare, status, payment_status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING ` + rideColumns + `;`

	created, err := scanRide(q.QueryRow(ctx, query,
		ride.PassengerID,
		ride.Pickup.Latitude, ride.Pickup.Longitude,
		ride.Dropoff.Latitude, ride.Dropoff.Longitude,
		ride.DistanceKm, ride.Fare, ride.Status, ride.PaymentStatus,
	))
	if err != nil {
		if pkgpg.IsForeignKeyViolation(err) {
			// passenger_id не существует
			return nil, types.ErrNotFound
		}
		return nil, fmt.Errorf("ride repo: Create: %w", err)
	}

	eventQuery := `
        INSERT INTO ride_events (ride_id, old_status, new_status)
        VALUES ($1, '', $2);`

	if _, err := q.Exec(ctx, eventQuery, created.ID, created.Status); err != nil {
		return nil, fmt.Errorf("ride repo: Create (event): %w", err)
	}

	return created, nil
}

func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT` + rideColumns + ` FROM rides WHERE id = $1;`

	ride, err := scanRide(q.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, fmt.Errorf("ride repo: Get: %w", err)
	}

	return ride, nil
}

// UpdateStatus performs the transition as one conditional UPDATE. The WHERE
// clause on the current status is what makes concurrent accepts lose cleanly
// instead of overwriting each other.
func (r *RideRepo) UpdateStatus(ctx context.Context, rideID uuid.UUID, expected, next types.RideStatus, fields models.StatusFields) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `
        UPDATE rides
        SET status = $3,
            driver_id = COALESCE($4, driver_id),
            updated_at = now()
        WHERE id = $1 AND status = $2
        RETURNING ` + rideColumns + `;`

	updated, err := scanRide(q.QueryRow(ctx, query, rideID, expected, next, fields.DriverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, r.disambiguate(ctx, rideID, expected)
		}
		return nil, fmt.Errorf("ride repo: UpdateStatus: %w", err)
	}

	eventQuery := `
        INSERT INTO ride_events (ride_id, old_status, new_status, driver_id)
        VALUES ($1, $2, $3, $4);`

	if _, err := q.Exec(ctx, eventQuery, rideID, expected, next, fields.DriverID); err != nil {
		return nil, fmt.Errorf("ride repo: UpdateStatus (event): %w", err)
	}

	return updated, nil
}

// disambiguate tells a missing ride apart from a lost conditional update.
func (r *RideRepo) disambiguate(ctx context.Context, rideID uuid.UUID, expected types.RideStatus) error {
	q := TxorDB(ctx, r.db)

	var current types.RideStatus
	err := q.QueryRow(ctx, `SELECT status FROM rides WHERE id = $1;`, rideID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrRideNotFound
		}
		return fmt.Errorf("ride repo: disambiguate: %w", err)
	}

	return fmt.Errorf("%w: ride is %s, expected %s", types.ErrInvalidTransition, current, expected)
}

func (r *RideRepo) SetFeedback(ctx context.Context, rideID uuid.UUID, rating int, feedback string) error {
	q := TxorDB(ctx, r.db)

	query := `
        UPDATE rides
        SET rating = $2, feedback = $3, updated_at = now()
        WHERE id = $1 AND status = $4;`

	cmdTag, err := q.Exec(ctx, query, rideID, rating, feedback, types.StatusCompleted)
	if err != nil {
		return fmt.Errorf("ride repo: SetFeedback: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return r.disambiguate(ctx, rideID, types.StatusCompleted)
	}

	return nil
}
