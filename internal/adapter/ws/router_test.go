package ws

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/logger"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

// captureLogger counts emitted records per level.
type captureLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *captureLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (l *captureLogger) Info(ctx context.Context, msg string, args ...any)  {}

func (l *captureLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(ctx context.Context, msg string, err error, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *captureLogger) GetSlogLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (l *captureLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}

type dispatchCall struct {
	name     string
	actorID  uuid.UUID
	rideID   uuid.UUID
	location models.GeoPoint
}

type fakeDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (d *fakeDispatcher) record(c dispatchCall) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
}

func (d *fakeDispatcher) RequestRide(ctx context.Context, passengerID uuid.UUID, pickup, dropoff models.GeoPoint, fare float64) (*models.Ride, error) {
	d.record(dispatchCall{name: "RequestRide", actorID: passengerID})
	if d.err != nil {
		return nil, d.err
	}
	return &models.Ride{PassengerID: passengerID, Status: types.StatusRequested}, nil
}

func (d *fakeDispatcher) AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.EnrichedRide, error) {
	d.record(dispatchCall{name: "AcceptRide", actorID: driverID, rideID: rideID})
	if d.err != nil {
		return nil, d.err
	}
	return &models.EnrichedRide{}, nil
}

func (d *fakeDispatcher) ConfirmRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	d.record(dispatchCall{name: "ConfirmRide", actorID: driverID, rideID: rideID})
	if d.err != nil {
		return nil, d.err
	}
	return &models.Ride{}, nil
}

func (d *fakeDispatcher) CancelRide(ctx context.Context, rideID, actorID uuid.UUID) (*models.Ride, error) {
	d.record(dispatchCall{name: "CancelRide", actorID: actorID, rideID: rideID})
	if d.err != nil {
		return nil, d.err
	}
	return &models.Ride{}, nil
}

func (d *fakeDispatcher) UpdateDriverLocation(ctx context.Context, driverID uuid.UUID, loc models.GeoPoint) error {
	d.record(dispatchCall{name: "UpdateDriverLocation", actorID: driverID, location: loc})
	return d.err
}

func (d *fakeDispatcher) SetDriverAvailability(ctx context.Context, driverID uuid.UUID, available bool) {
	d.record(dispatchCall{name: "SetDriverAvailability", actorID: driverID})
}

type capturedEvent struct {
	event   string
	payload any
}

type captureSession struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (s *captureSession) Send(event string, payload any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, capturedEvent{event: event, payload: payload})
	return nil
}

func (s *captureSession) Close() error { return nil }

func (s *captureSession) errorEvents() []capturedEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []capturedEvent
	for _, e := range s.events {
		if e.event == types.EventError.String() {
			out = append(out, e)
		}
	}
	return out
}

func newTestRouter() (*Router, *fakeDispatcher) {
	d := &fakeDispatcher{}
	return NewRouter(d, logger.InitLogger("ws-test", logger.LevelError)), d
}

func driverIdentity() *models.Identity {
	return &models.Identity{ID: uuid.Must(), Role: types.DriverRole}
}

func passengerIdentity() *models.Identity {
	return &models.Identity{ID: uuid.Must(), Role: types.PassengerRole}
}

func TestRoute_ActorTakenFromConnection(t *testing.T) {
	router, dispatcher := newTestRouter()
	driver := driverIdentity()
	session := &captureSession{}
	rideID := uuid.Must()

	// driverId в полезной нагрузке подменён и должен игнорироваться
	frame := []byte(`{"event":"acceptRide","data":{"rideId":"` + rideID.String() + `","driverId":"11111111-2222-3333-4444-555555555555"}}`)
	router.Route(context.Background(), driver, session, frame)

	if len(dispatcher.calls) != 1 || dispatcher.calls[0].name != "AcceptRide" {
		t.Fatalf("expected one AcceptRide call, got %+v", dispatcher.calls)
	}
	if dispatcher.calls[0].actorID != driver.ID {
		t.Fatalf("actor must be the connection identity, got %s", dispatcher.calls[0].actorID)
	}
	if dispatcher.calls[0].rideID != rideID {
		t.Fatalf("wrong ride id: %s", dispatcher.calls[0].rideID)
	}
	if len(session.errorEvents()) != 0 {
		t.Fatalf("unexpected error events: %+v", session.errorEvents())
	}
}

func TestRoute_MalformedFrame(t *testing.T) {
	router, dispatcher := newTestRouter()
	session := &captureSession{}

	router.Route(context.Background(), passengerIdentity(), session, []byte(`{not json`))

	if len(dispatcher.calls) != 0 {
		t.Fatalf("malformed frame must not be dispatched, got %+v", dispatcher.calls)
	}
	if len(session.errorEvents()) != 1 {
		t.Fatalf("sender must receive an error event, got %+v", session.events)
	}
}

func TestRoute_UnknownEventDropped(t *testing.T) {
	router, dispatcher := newTestRouter()
	session := &captureSession{}

	router.Route(context.Background(), passengerIdentity(), session, []byte(`{"event":"teleport","data":{}}`))

	if len(dispatcher.calls) != 0 {
		t.Fatalf("unknown event must not be dispatched")
	}
	if len(session.events) != 0 {
		t.Fatalf("unknown event must be dropped silently, got %+v", session.events)
	}
}

func TestRoute_RoleEnforcement(t *testing.T) {
	router, dispatcher := newTestRouter()
	rideID := uuid.Must()

	cases := []struct {
		name     string
		identity *models.Identity
		frame    string
	}{
		{"passenger cannot accept", passengerIdentity(), `{"event":"acceptRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"passenger cannot confirm", passengerIdentity(), `{"event":"confirmRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"passenger cannot report location", passengerIdentity(), `{"event":"updateLocation","data":{"location":{"latitude":1,"longitude":1}}}`},
		{"driver cannot request", driverIdentity(), `{"event":"rideRequest","data":{"pickupLocation":{"latitude":1,"longitude":1},"dropoffLocation":{"latitude":2,"longitude":2},"fare":10}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &captureSession{}
			before := len(dispatcher.calls)

			router.Route(context.Background(), tc.identity, session, []byte(tc.frame))

			if len(dispatcher.calls) != before {
				t.Fatalf("call must be rejected before dispatch")
			}
			if len(session.errorEvents()) != 1 {
				t.Fatalf("sender must receive an error event, got %+v", session.events)
			}
		})
	}
}

func TestRoute_ValidationFailure(t *testing.T) {
	router, dispatcher := newTestRouter()
	session := &captureSession{}

	frame := []byte(`{"event":"rideRequest","data":{"pickupLocation":{"latitude":200,"longitude":1},"dropoffLocation":{"latitude":2,"longitude":2},"fare":10}}`)
	router.Route(context.Background(), passengerIdentity(), session, frame)

	if len(dispatcher.calls) != 0 {
		t.Fatalf("invalid payload must not be dispatched")
	}

	errs := session.errorEvents()
	if len(errs) != 1 {
		t.Fatalf("expected one error event, got %+v", session.events)
	}
	payload, ok := errs[0].payload.(ErrorPayload)
	if !ok {
		t.Fatalf("unexpected payload type %T", errs[0].payload)
	}
	if _, ok := payload.Fields["pickupLocation"]; !ok {
		t.Fatalf("error must name the invalid field, got %+v", payload.Fields)
	}
}

func TestRoute_DispatcherErrorAnswered(t *testing.T) {
	router, dispatcher := newTestRouter()
	dispatcher.err = types.ErrInvalidTransition
	session := &captureSession{}
	rideID := uuid.Must()

	frame := []byte(`{"event":"acceptRide","data":{"rideId":"` + rideID.String() + `"}}`)
	router.Route(context.Background(), driverIdentity(), session, frame)

	errs := session.errorEvents()
	if len(errs) != 1 {
		t.Fatalf("expected one error event, got %+v", session.events)
	}
	payload := errs[0].payload.(ErrorPayload)
	if payload.Message != "ride is no longer available for this action" {
		t.Fatalf("unexpected error message %q", payload.Message)
	}
}

func TestRoute_RejectionsAreLogged(t *testing.T) {
	rideID := uuid.Must()

	cases := []struct {
		name     string
		err      error
		identity *models.Identity
		frame    string
	}{
		{"classified dispatcher error", types.ErrInvalidTransition, driverIdentity(), `{"event":"acceptRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"not found", types.ErrRideNotFound, driverIdentity(), `{"event":"confirmRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"non-participant cancel", types.ErrNotRideParticipant, passengerIdentity(), `{"event":"cancelRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"role rejection", nil, passengerIdentity(), `{"event":"acceptRide","data":{"rideId":"` + rideID.String() + `"}}`},
		{"validation rejection", nil, passengerIdentity(), `{"event":"rideRequest","data":{"pickupLocation":{"latitude":200,"longitude":1},"dropoffLocation":{"latitude":2,"longitude":2},"fare":10}}`},
		{"malformed frame", nil, passengerIdentity(), `{not json`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log := &captureLogger{}
			router := NewRouter(&fakeDispatcher{err: tc.err}, log)
			session := &captureSession{}

			router.Route(context.Background(), tc.identity, session, []byte(tc.frame))

			if log.warnCount() == 0 {
				t.Fatalf("rejection must leave a log line")
			}
		})
	}
}

func TestRoute_CancelAllowedForBothRoles(t *testing.T) {
	router, dispatcher := newTestRouter()
	rideID := uuid.Must()
	frame := []byte(`{"event":"cancelRide","data":{"rideId":"` + rideID.String() + `"}}`)

	for _, id := range []*models.Identity{passengerIdentity(), driverIdentity()} {
		session := &captureSession{}
		router.Route(context.Background(), id, session, frame)
		if len(session.errorEvents()) != 0 {
			t.Fatalf("cancel must be allowed for role %s", id.Role)
		}
	}

	if len(dispatcher.calls) != 2 {
		t.Fatalf("expected two CancelRide calls, got %+v", dispatcher.calls)
	}
}
