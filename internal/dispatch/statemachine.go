package dispatch

import (
	"fmt"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

// transitions is the complete set of legal lifecycle edges.
// Every event handler goes through this table, so a cancelled ride can never
// pick up a late accept no matter which handler races.
var transitions = map[types.RideStatus]map[types.RideStatus]bool{
	types.StatusRequested: {
		types.StatusAccepted:  true,
		types.StatusCancelled: true,
	},
	types.StatusAccepted: {
		types.StatusCompleted: true,
		types.StatusCancelled: true,
	},
}

// StateMachine validates ride status transitions.
type StateMachine struct{}

func (StateMachine) CanTransition(from, to types.RideStatus) bool {
	return transitions[from][to]
}

// Apply validates the requested transition and returns a copy of the ride
// with it applied. The input ride is not mutated; persistence happens through
// the store's conditional update.
func (sm StateMachine) Apply(ride *models.Ride, to types.RideStatus, actor *uuid.UUID) (*models.Ride, error) {
	if ride == nil {
		return nil, types.ErrRideNotFound
	}
	if !sm.CanTransition(ride.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", types.ErrInvalidTransition, ride.Status, to)
	}

	next := *ride
	switch to {
	case types.StatusAccepted:
		if actor == nil || *actor == uuid.NilUUID {
			return nil, fmt.Errorf("%w: accept requires a driver id", types.ErrBadRequest)
		}
		driverID := *actor
		next.DriverID = &driverID
	case types.StatusCompleted:
		if ride.DriverID == nil {
			return nil, fmt.Errorf("%w: ride has no assigned driver", types.ErrInvalidTransition)
		}
		if actor != nil && *actor != *ride.DriverID {
			return nil, fmt.Errorf("%w: driver mismatch", types.ErrInvalidTransition)
		}
	}
	next.Status = to

	return &next, nil
}
