package models

import (
	"time"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

/* ======================= rabbitmq ======================= */

type RideStatusUpdateMessage struct {
	RideID    uuid.UUID        `json:"ride_id"`
	OldStatus types.RideStatus `json:"old_status"`
	NewStatus types.RideStatus `json:"new_status"`
	DriverID  *uuid.UUID       `json:"driver_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}
