package dispatch

import (
	"errors"
	"testing"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

func TestStateMachine_TransitionTable(t *testing.T) {
	all := []types.RideStatus{
		types.StatusRequested,
		types.StatusAccepted,
		types.StatusInProgress,
		types.StatusCompleted,
		types.StatusCancelled,
	}

	legal := map[types.RideStatus]map[types.RideStatus]bool{
		types.StatusRequested: {types.StatusAccepted: true, types.StatusCancelled: true},
		types.StatusAccepted:  {types.StatusCompleted: true, types.StatusCancelled: true},
	}

	var sm StateMachine
	for _, from := range all {
		for _, to := range all {
			got := sm.CanTransition(from, to)
			want := legal[from][to]
			if got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestApply_AcceptAssignsDriver(t *testing.T) {
	var sm StateMachine
	driverID := uuid.Must()
	ride := &models.Ride{ID: uuid.Must(), Status: types.StatusRequested}

	next, err := sm.Apply(ride, types.StatusAccepted, &driverID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Status != types.StatusAccepted {
		t.Fatalf("expected accepted, got %s", next.Status)
	}
	if next.DriverID == nil || *next.DriverID != driverID {
		t.Fatalf("driver id must be recorded on accept")
	}
	if ride.Status != types.StatusRequested || ride.DriverID != nil {
		t.Fatalf("input ride must not be mutated")
	}
}

func TestApply_AcceptRequiresDriverID(t *testing.T) {
	var sm StateMachine
	ride := &models.Ride{ID: uuid.Must(), Status: types.StatusRequested}

	if _, err := sm.Apply(ride, types.StatusAccepted, nil); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest, got %v", err)
	}

	nilID := uuid.NilUUID
	if _, err := sm.Apply(ride, types.StatusAccepted, &nilID); !errors.Is(err, types.ErrBadRequest) {
		t.Fatalf("expected ErrBadRequest for nil uuid, got %v", err)
	}
}

func TestApply_CompletedIsTerminal(t *testing.T) {
	var sm StateMachine
	driverID := uuid.Must()
	ride := &models.Ride{ID: uuid.Must(), Status: types.StatusCompleted, DriverID: &driverID}

	for _, to := range []types.RideStatus{types.StatusRequested, types.StatusAccepted, types.StatusCancelled} {
		if _, err := sm.Apply(ride, to, &driverID); !errors.Is(err, types.ErrInvalidTransition) {
			t.Fatalf("completed -> %s must fail with ErrInvalidTransition, got %v", to, err)
		}
	}
}

func TestApply_CompleteRejectsWrongDriver(t *testing.T) {
	var sm StateMachine
	assigned := uuid.Must()
	other := uuid.Must()
	ride := &models.Ride{ID: uuid.Must(), Status: types.StatusAccepted, DriverID: &assigned}

	if _, err := sm.Apply(ride, types.StatusCompleted, &other); !errors.Is(err, types.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for driver mismatch, got %v", err)
	}

	if _, err := sm.Apply(ride, types.StatusCompleted, &assigned); err != nil {
		t.Fatalf("assigned driver must be able to complete: %v", err)
	}
}

func TestApply_NilRide(t *testing.T) {
	var sm StateMachine
	if _, err := sm.Apply(nil, types.StatusAccepted, nil); !errors.Is(err, types.ErrRideNotFound) {
		t.Fatalf("expected ErrRideNotFound, got %v", err)
	}
}
