package models

import (
	"time"

	"github.com/Temirlan0k/ride-dispatch/internal/domain/types"
	"github.com/Temirlan0k/ride-dispatch/pkg/uuid"
)

type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Ride struct {
	ID          uuid.UUID  `json:"id"`
	PassengerID uuid.UUID  `json:"passengerId"`
	DriverID    *uuid.UUID `json:"driverId,omitempty"`

	Pickup     GeoPoint `json:"pickupLocation"`
	Dropoff    GeoPoint `json:"dropoffLocation"`
	DistanceKm float64  `json:"distance"`
	Fare       float64  `json:"fare"`

	Status types.RideStatus `json:"status"`

	// Заполняются только для завершённых поездок
	Rating   *int    `json:"rating,omitempty"`
	Feedback *string `json:"feedback,omitempty"`

	PaymentStatus types.PaymentStatus `json:"paymentStatus"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StatusFields carries the extra columns a status transition writes
// alongside the status itself.
type StatusFields struct {
	DriverID *uuid.UUID
}

type DriverSummary struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Rating float64   `json:"rating"`
	Image  string    `json:"driverImage,omitempty"`
}

type VehicleSummary struct {
	Name        string `json:"name"`
	NumberPlate string `json:"numberPlate"`
	Image       string `json:"vehicleImage,omitempty"`
}

// EnrichedRide is what both parties receive on rideAccepted.
type EnrichedRide struct {
	Ride
	Driver  DriverSummary  `json:"driver"`
	Vehicle VehicleSummary `json:"vehicle"`
}

// AvailableDriver is a candidate returned by the geo index.
type AvailableDriver struct {
	ID         uuid.UUID `json:"id"`
	Location   GeoPoint  `json:"location"`
	DistanceKm float64   `json:"distanceKm"`
}
