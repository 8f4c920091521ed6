package dispatch

import (
	"context"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

// RideStore owns persisted ride records.
//
// UpdateStatus must be a single conditional operation: the row is updated only
// if its current status equals expected. Plain load-then-save is vulnerable to
// a lost update when two drivers accept simultaneously.
type RideStore interface {
	Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	UpdateStatus(ctx context.Context, rideID uuid.UUID, expected, next types.RideStatus, fields models.StatusFields) (*models.Ride, error)
	SetFeedback(ctx context.Context, rideID uuid.UUID, rating int, feedback string) error
}

// DriverStore reads driver and vehicle detail for ride enrichment.
type DriverStore interface {
	Summary(ctx context.Context, driverID uuid.UUID) (*models.DriverSummary, error)
	VehicleByDriver(ctx context.Context, driverID uuid.UUID) (*models.VehicleSummary, error)
}

// DriverLocator answers the bounded proximity query over available drivers.
type DriverLocator interface {
	FindAvailableNear(ctx context.Context, origin models.GeoPoint, radiusKm float64, limit int) ([]models.AvailableDriver, error)
	SetAvailable(ctx context.Context, driverID uuid.UUID, available bool) error
	UpdateLocation(ctx context.Context, driverID uuid.UUID, loc models.GeoPoint) error
}

// Notifier delivers an event to every live connection of an identity.
// Delivery is best-effort; the return value is the number of connections reached.
type Notifier interface {
	SendTo(ctx context.Context, id uuid.UUID, event string, payload any) int
}

// EventPublisher emits committed ride status transitions to the broker.
type EventPublisher interface {
	PublishRideStatus(ctx context.Context, msg models.RideStatusUpdateMessage) error
}
