package ws

import (
	"github.com/Temirlan0k/ride-dispatch/internal/domain/models"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
	"github.com/Temirlan0k/ride-dispatch/pkg/validator"
)

// RideRequestPayload is the data of an inbound rideRequest event.
// The passenger identity comes from the connection, never from the payload.
type RideRequestPayload struct {
	Pickup  models.GeoPoint `json:"pickupLocation"`
	Dropoff models.GeoPoint `json:"dropoffLocation"`
	Fare    float64         `json:"fare"`
}

func validPoint(v *validator.Validator, key string, p models.GeoPoint) {
	v.Check(p.Latitude >= -90 && p.Latitude <= 90, key, "latitude must be between -90 and 90")
	v.Check(p.Longitude >= -180 && p.Longitude <= 180, key, "longitude must be between -180 and 180")
}

func (p *RideRequestPayload) Validate(v *validator.Validator) {
	validPoint(v, "pickupLocation", p.Pickup)
	validPoint(v, "dropoffLocation", p.Dropoff)
	v.Check(p.Fare >= 0, "fare", "fare must not be negative")
}

// RideRefPayload is the data of acceptRide, confirmRide and cancelRide events.
type RideRefPayload struct {
	RideID uuid.UUID `json:"rideId"`
}

func (p *RideRefPayload) Validate(v *validator.Validator) {
	v.Check(p.RideID != uuid.NilUUID, "rideId", "rideId is required")
}

// LocationPayload is the data of an updateLocation event.
type LocationPayload struct {
	Location models.GeoPoint `json:"location"`
}

func (p *LocationPayload) Validate(v *validator.Validator) {
	validPoint(v, "location", p.Location)
}

// ErrorPayload is the data of an outbound error event.
type ErrorPayload struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
