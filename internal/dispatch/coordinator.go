package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/metrics"
	"github.com/Temirlan0k/ride-dispatch/pkg/trm"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

type Config struct {
	// SearchRadiusKm bounds the proximity query for candidate drivers.
	SearchRadiusKm float64
	// MaxCandidates caps the ride-request fan-out.
	MaxCandidates int
}

// Coordinator orchestrates the ride lifecycle: it owns the only mutation path
// for ride state and fans out notifications to the affected identities.
type Coordinator struct {
	rides     RideStore
	drivers   DriverStore
	locator   DriverLocator
	notifier  Notifier
	publisher EventPublisher // optional, nil when no broker is configured
	trm       trm.TxManager

	sm  StateMachine
	cfg Config
	log logger.Logger
}

func NewCoordinator(
	rides RideStore,
	drivers DriverStore,
	locator DriverLocator,
	notifier Notifier,
	publisher EventPublisher,
	txManager trm.TxManager,
	cfg Config,
	log logger.Logger,
) *Coordinator {
	if cfg.SearchRadiusKm <= 0 {
		cfg.SearchRadiusKm = 10
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 20
	}

	return &Coordinator{
		rides:     rides,
		drivers:   drivers,
		locator:   locator,
		notifier:  notifier,
		publisher: publisher,
		trm:       txManager,
		cfg:       cfg,
		log:       log,
	}
}

// RequestRide creates a ride in requested state and offers it to every
// available driver near the pickup point. No driver is reserved here,
// the first acceptance wins.
func (c *Coordinator) RequestRide(ctx context.Context, passengerID uuid.UUID, pickup, dropoff models.GeoPoint, fare float64) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "request_ride")
	ctx = wrap.WithUserID(ctx, passengerID.String())

	ride := &models.Ride{
		PassengerID:   passengerID,
		Pickup:        pickup,
		Dropoff:       dropoff,
		DistanceKm:    haversineKm(pickup, dropoff),
		Fare:          fare,
		Status:        types.StatusRequested,
		PaymentStatus: types.PaymentPending,
	}

	var created *models.Ride
	err := c.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = c.rides.Create(ctx, ride)
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("could not create ride: %w", err))
	}

	ctx = wrap.WithRideID(ctx, created.ID.String())
	metrics.RidesTotal.WithLabelValues(types.StatusRequested.String()).Inc()
	c.publishStatus(ctx, created.ID, "", types.StatusRequested, nil)

	candidates, err := c.locator.FindAvailableNear(ctx, pickup, c.cfg.SearchRadiusKm, c.cfg.MaxCandidates)
	if err != nil {
		// поездка уже создана, пассажир всё равно получает подтверждение
		c.log.Warn(ctx, "driver proximity query failed", "err", err.Error())
	}

	metrics.RideOfferFanout.Observe(float64(len(candidates)))
	for _, candidate := range candidates {
		c.notify(ctx, candidate.ID, types.EventRideRequest, created)
	}

	c.notify(ctx, passengerID, types.EventRideRequested, created)

	c.log.Info(ctx, "ride requested", "candidates", len(candidates), "fare", fare)

	return created, nil
}

// AcceptRide assigns a driver to a requested ride. Exactly one concurrent
// accept can succeed: the store's conditional update rejects the rest.
func (c *Coordinator) AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.EnrichedRide, error) {
	ctx = wrap.WithAction(ctx, "accept_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithUserID(ctx, driverID.String())

	driver, err := c.drivers.Summary(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	vehicle, err := c.drivers.VehicleByDriver(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if _, err := c.sm.Apply(ride, types.StatusAccepted, &driverID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var updated *models.Ride
	err = c.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = c.rides.UpdateStatus(ctx, rideID, types.StatusRequested, types.StatusAccepted, models.StatusFields{DriverID: &driverID})
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.RidesTotal.WithLabelValues(types.StatusAccepted.String()).Inc()
	c.publishStatus(ctx, rideID, types.StatusRequested, types.StatusAccepted, &driverID)

	enriched := &models.EnrichedRide{
		Ride:    *updated,
		Driver:  *driver,
		Vehicle: *vehicle,
	}

	c.notify(ctx, updated.PassengerID, types.EventRideAccepted, enriched)
	c.notify(ctx, driverID, types.EventRideAccepted, enriched)

	c.log.Info(ctx, "ride accepted")

	return enriched, nil
}

// ConfirmRide completes an accepted ride.
func (c *Coordinator) ConfirmRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "confirm_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithUserID(ctx, driverID.String())

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if _, err := c.sm.Apply(ride, types.StatusCompleted, &driverID); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var updated *models.Ride
	err = c.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		updated, err = c.rides.UpdateStatus(ctx, rideID, types.StatusAccepted, types.StatusCompleted, models.StatusFields{})
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.RidesTotal.WithLabelValues(types.StatusCompleted.String()).Inc()
	c.publishStatus(ctx, rideID, types.StatusAccepted, types.StatusCompleted, updated.DriverID)

	c.notify(ctx, updated.PassengerID, types.EventRideCompleted, updated)
	c.notify(ctx, driverID, types.EventRideCompleted, updated)

	c.log.Info(ctx, "ride completed")

	return updated, nil
}

// CancelRide cancels a ride from requested or accepted state and notifies the
// passenger, plus the driver if one was already assigned. Only the ride's
// passenger or its assigned driver may cancel.
func (c *Coordinator) CancelRide(ctx context.Context, rideID, actorID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "cancel_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithUserID(ctx, actorID.String())

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if actorID != ride.PassengerID && (ride.DriverID == nil || actorID != *ride.DriverID) {
		return nil, wrap.Error(ctx, types.ErrNotRideParticipant)
	}

	if _, err := c.sm.Apply(ride, types.StatusCancelled, nil); err != nil {
		return nil, wrap.Error(ctx, err)
	}

	var updated *models.Ride
	err = c.trm.Do(ctx, func(ctx context.Context) error {
		var err error
		// expected — статус, который мы наблюдали; гонка с другим переходом
		// отлавливается условным апдейтом
		updated, err = c.rides.UpdateStatus(ctx, rideID, ride.Status, types.StatusCancelled, models.StatusFields{})
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.RidesTotal.WithLabelValues(types.StatusCancelled.String()).Inc()
	c.publishStatus(ctx, rideID, ride.Status, types.StatusCancelled, updated.DriverID)

	c.notify(ctx, updated.PassengerID, types.EventRideCancelled, updated)
	if updated.DriverID != nil {
		c.notify(ctx, *updated.DriverID, types.EventRideCancelled, updated)
	}

	c.log.Info(ctx, "ride cancelled")

	return updated, nil
}

// SubmitFeedback records the passenger's rating and feedback on a completed ride.
func (c *Coordinator) SubmitFeedback(ctx context.Context, rideID uuid.UUID, rating int, feedback string) error {
	ctx = wrap.WithAction(ctx, "submit_feedback")
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := c.rides.Get(ctx, rideID)
	if err != nil {
		return wrap.Error(ctx, err)
	}

	if ride.Status != types.StatusCompleted {
		return wrap.Error(ctx, fmt.Errorf("%w: feedback requires a completed ride, ride is %s", types.ErrInvalidTransition, ride.Status))
	}

	if err := c.rides.SetFeedback(ctx, rideID, rating, feedback); err != nil {
		return wrap.Error(ctx, err)
	}

	c.log.Info(ctx, "feedback recorded", "rating", rating)

	return nil
}

// SetDriverAvailability flips the driver's availability flag in the geo index.
// Called on connection admission and disconnect of driver identities.
func (c *Coordinator) SetDriverAvailability(ctx context.Context, driverID uuid.UUID, available bool) {
	ctx = wrap.WithAction(ctx, "set_driver_availability")
	ctx = wrap.WithUserID(ctx, driverID.String())

	if err := c.locator.SetAvailable(ctx, driverID, available); err != nil {
		c.log.Warn(ctx, "failed to update driver availability", "available", available, "err", err.Error())
		return
	}

	c.log.Debug(ctx, "driver availability updated", "available", available)
}

// UpdateDriverLocation records the driver's reported position in the geo index.
func (c *Coordinator) UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.GeoPoint) error {
	ctx = wrap.WithAction(ctx, "update_driver_location")
	ctx = wrap.WithUserID(ctx, driverID.String())

	if err := c.locator.UpdateLocation(ctx, driverID, loc); err != nil {
		return wrap.Error(ctx, err)
	}

	c.log.Debug(ctx, "driver location updated", "lat", loc.Latitude, "lon", loc.Longitude)

	return nil
}

// notify is best-effort: identities without a live connection simply miss the event.
func (c *Coordinator) notify(ctx context.Context, id uuid.UUID, event types.DispatchEvent, payload any) {
	delivered := c.notifier.SendTo(ctx, id, event.String(), payload)
	metrics.NotificationsSentTotal.WithLabelValues(event.String()).Add(float64(delivered))
}

// publishStatus emits the committed transition to the broker, if one is wired.
func (c *Coordinator) publishStatus(ctx context.Context, rideID uuid.UUID, old, next types.RideStatus, driverID *uuid.UUID) {
	if c.publisher == nil {
		return
	}

	msg := models.RideStatusUpdateMessage{
		RideID:    rideID,
		OldStatus: old,
		NewStatus: next,
		DriverID:  driverID,
		Timestamp: time.Now().UTC(),
	}

	if err := c.publisher.PublishRideStatus(ctx, msg); err != nil {
		c.log.Warn(ctx, "failed to publish ride status", "status", next.String(), "err", err.Error())
	}
}
