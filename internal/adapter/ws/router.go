package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	wrap "github.com/Temirlan0k/ride-dispatch/pkg/logger/wrapper"
	"github.com/Temirlan0k/ride-dispatch/pkg/metrics"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
	"github.com/Temirlan0k/ride-dispatch/pkg/validator"
	wsHub "github.com/Temirlan0k/ride-dispatch/pkg/wsHub"
)

// Dispatcher is the ride lifecycle surface the router dispatches into.
type Dispatcher interface {
	RequestRide(ctx context.Context, passengerID uuid.UUID, pickup, dropoff models.GeoPoint, fare float64) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.EnrichedRide, error)
	ConfirmRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
	CancelRide(ctx context.Context, rideID, actorID uuid.UUID) (*models.Ride, error)
	UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.GeoPoint) error
	SetDriverAvailability(ctx context.Context, driverID uuid.UUID, available bool)
}

// Router demultiplexes inbound event envelopes onto the dispatcher.
// A failed event answers the sender with an error event and never
// affects other connections.
type Router struct {
	dispatcher Dispatcher
	log        logger.Logger
}

func NewRouter(dispatcher Dispatcher, log logger.Logger) *Router {
	return &Router{dispatcher: dispatcher, log: log}
}

const (
	outcomeOK        = "ok"
	outcomeRejected  = "rejected"
	outcomeMalformed = "malformed"
	outcomeUnknown   = "unknown"
)

// Route handles one inbound frame from the identity's connection.
// Actor identity always comes from the authenticated connection; any
// identity fields inside the payload are ignored.
func (r *Router) Route(ctx context.Context, id *models.Identity, session wsHub.Session, raw []byte) {
	ctx = wrap.WithUserID(ctx, id.ID.String())

	var env wsHub.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		metrics.DispatchEventsTotal.WithLabelValues("", outcomeMalformed).Inc()
		r.log.Warn(ctx, "malformed frame", "err", err.Error())
		r.reply(ctx, session, "malformed message", nil)
		return
	}

	ctx = wrap.WithEvent(ctx, env.Event)

	data, err := json.Marshal(env.Data)
	if err != nil {
		metrics.DispatchEventsTotal.WithLabelValues(env.Event, outcomeMalformed).Inc()
		r.log.Warn(ctx, "malformed frame", "err", err.Error())
		r.reply(ctx, session, "malformed message", nil)
		return
	}

	switch types.DispatchEvent(env.Event) {
	case types.EventRideRequest:
		r.handleRideRequest(ctx, id, session, data)
	case types.EventAcceptRide:
		r.handleAcceptRide(ctx, id, session, data)
	case types.EventConfirmRide:
		r.handleConfirmRide(ctx, id, session, data)
	case types.EventCancelRide:
		r.handleCancelRide(ctx, id, session, data)
	case types.EventUpdateLocation:
		r.handleUpdateLocation(ctx, id, session, data)
	default:
		// незнакомые события молча отбрасываем
		metrics.DispatchEventsTotal.WithLabelValues(env.Event, outcomeUnknown).Inc()
		r.log.Debug(ctx, "dropped unknown event")
	}
}

func (r *Router) handleRideRequest(ctx context.Context, id *models.Identity, session wsHub.Session, data []byte) {
	event := types.EventRideRequest.String()

	if id.IsDriver() {
		r.reject(ctx, session, event, "only passengers may request rides")
		return
	}

	var payload RideRequestPayload
	if !r.decode(ctx, session, event, data, &payload) {
		return
	}

	if _, err := r.dispatcher.RequestRide(ctx, id.ID, payload.Pickup, payload.Dropoff, payload.Fare); err != nil {
		r.fail(ctx, session, event, err)
		return
	}

	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeOK).Inc()
}

func (r *Router) handleAcceptRide(ctx context.Context, id *models.Identity, session wsHub.Session, data []byte) {
	event := types.EventAcceptRide.String()

	if !id.IsDriver() {
		r.reject(ctx, session, event, "only drivers may accept rides")
		return
	}

	var payload RideRefPayload
	if !r.decode(ctx, session, event, data, &payload) {
		return
	}
	ctx = wrap.WithRideID(ctx, payload.RideID.String())

	if _, err := r.dispatcher.AcceptRide(ctx, payload.RideID, id.ID); err != nil {
		r.fail(ctx, session, event, err)
		return
	}

	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeOK).Inc()
}

func (r *Router) handleConfirmRide(ctx context.Context, id *models.Identity, session wsHub.Session, data []byte) {
	event := types.EventConfirmRide.String()

	if !id.IsDriver() {
		r.reject(ctx, session, event, "only drivers may confirm rides")
		return
	}

	var payload RideRefPayload
	if !r.decode(ctx, session, event, data, &payload) {
		return
	}
	ctx = wrap.WithRideID(ctx, payload.RideID.String())

	if _, err := r.dispatcher.ConfirmRide(ctx, payload.RideID, id.ID); err != nil {
		r.fail(ctx, session, event, err)
		return
	}

	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeOK).Inc()
}

func (r *Router) handleCancelRide(ctx context.Context, id *models.Identity, session wsHub.Session, data []byte) {
	event := types.EventCancelRide.String()

	var payload RideRefPayload
	if !r.decode(ctx, session, event, data, &payload) {
		return
	}
	ctx = wrap.WithRideID(ctx, payload.RideID.String())

	if _, err := r.dispatcher.CancelRide(ctx, payload.RideID, id.ID); err != nil {
		r.fail(ctx, session, event, err)
		return
	}

	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeOK).Inc()
}

func (r *Router) handleUpdateLocation(ctx context.Context, id *models.Identity, session wsHub.Session, data []byte) {
	event := types.EventUpdateLocation.String()

	if !id.IsDriver() {
		r.reject(ctx, session, event, "only drivers may report location")
		return
	}

	var payload LocationPayload
	if !r.decode(ctx, session, event, data, &payload) {
		return
	}

	if err := r.dispatcher.UpdateDriverLocation(ctx, id.ID, payload.Location); err != nil {
		r.fail(ctx, session, event, err)
		return
	}

	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeOK).Inc()
}

// decode unmarshals and validates the payload, answering the sender on failure.
func (r *Router) decode(ctx context.Context, session wsHub.Session, event string, data []byte, dst interface{ Validate(*validator.Validator) }) bool {
	if err := json.Unmarshal(data, dst); err != nil {
		metrics.DispatchEventsTotal.WithLabelValues(event, outcomeMalformed).Inc()
		r.log.Warn(ctx, "malformed event payload", "err", err.Error())
		r.reply(ctx, session, "malformed payload", nil)
		return false
	}

	v := validator.New()
	dst.Validate(v)
	if !v.Valid() {
		metrics.DispatchEventsTotal.WithLabelValues(event, outcomeRejected).Inc()
		r.log.Warn(ctx, "event payload failed validation", "fields", validationMessage(v))
		r.reply(ctx, session, validationMessage(v), v.Errors)
		return false
	}

	return true
}

func validationMessage(v *validator.Validator) string {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("invalid payload: %s", strings.Join(keys, ", "))
}

// reject refuses an event before it reaches the dispatcher.
func (r *Router) reject(ctx context.Context, session wsHub.Session, event, message string) {
	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeRejected).Inc()
	r.log.Warn(ctx, "event rejected", "reason", message)
	r.reply(ctx, session, message, nil)
}

// fail classifies a dispatcher error and answers the sender.
// Every rejection leaves a log line carrying the event, actor and ride ids
// from the context.
func (r *Router) fail(ctx context.Context, session wsHub.Session, event string, err error) {
	metrics.DispatchEventsTotal.WithLabelValues(event, outcomeRejected).Inc()

	var message string
	switch {
	case errors.Is(err, types.ErrRideNotFound):
		message = "ride not found"
	case errors.Is(err, types.ErrDriverNotFound):
		message = "driver not found"
	case errors.Is(err, types.ErrVehicleNotFound):
		message = "vehicle not found"
	case errors.Is(err, types.ErrNotRideParticipant):
		message = "only ride participants may perform this action"
	case errors.Is(err, types.ErrInvalidTransition):
		message = "ride is no longer available for this action"
	case errors.Is(err, types.ErrBadRequest):
		message = "bad request"
	default:
		r.log.Error(ctx, "event handling failed", err)
		r.reply(ctx, session, "internal error", nil)
		return
	}

	r.log.Warn(ctx, "event dropped", "reason", message, "err", err.Error())
	r.reply(ctx, session, message, nil)
}

// reply sends an error event back to the connection the frame came from.
func (r *Router) reply(ctx context.Context, session wsHub.Session, message string, fields map[string]string) {
	payload := ErrorPayload{Message: message, Fields: fields}
	if err := session.Send(types.EventError.String(), payload); err != nil {
		r.log.Warn(ctx, "failed to send error event", "err", err.Error())
	}
}
