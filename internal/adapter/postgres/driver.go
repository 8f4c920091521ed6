package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

type DriverRepo struct {
	db *pgxpool.Pool
}

func NewDriverRepo(db *pgxpool.Pool) *DriverRepo {
	return &DriverRepo{db: db}
}

// Summary loads the driver detail embedded into rideAccepted notifications.
func (r *DriverRepo) Summary(ctx context.Context, driverID uuid.UUID) (*models.DriverSummary, error) {
	q := TxorDB(ctx, r.db)

	query := `
        SELECT id, name, rating, COALESCE(driver_image, '')
        FROM users
        WHERE id = $1 AND role = $2;`

	var d models.DriverSummary
	err := q.QueryRow(ctx, query, driverID, types.DriverRole).Scan(&d.ID, &d.Name, &d.Rating, &d.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrDriverNotFound
		}
		return nil, fmt.Errorf("driver repo: Summary: %w", err)
	}

	return &d, nil
}

func (r *DriverRepo) VehicleByDriver(ctx context.Context, driverID uuid.UUID) (*models.VehicleSummary, error) {
	q := TxorDB(ctx, r.db)

	query := `
        SELECT name, number_plate, COALESCE(vehicle_image, '')
        FROM vehicles
        WHERE driver_id = $1;`

	var v models.VehicleSummary
	err := q.QueryRow(ctx, query, driverID).Scan(&v.Name, &v.NumberPlate, &v.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrVehicleNotFound
		}
		return nil, fmt.Errorf("driver repo: VehicleByDriver: %w", err)
	}

	return &v, nil
}
