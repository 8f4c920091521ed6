package types

// RideStatus follows the mobile protocol vocabulary. IN_PROGRESS is kept so
// rides written by older clients still scan, but no transition targets it.
type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	StatusRequested  RideStatus = "requested"
	StatusAccepted   RideStatus = "accepted"
	StatusInProgress RideStatus = "in-progress"
	StatusCompleted  RideStatus = "completed"
	StatusCancelled  RideStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s RideStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Enum для статуса оплаты
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// Enum для роли пользователя
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	DriverRole    UserRole = "driver"
	PassengerRole UserRole = "passenger"
)

func IsValidRole(s string) bool {
	switch UserRole(s) {
	case DriverRole, PassengerRole:
		return true
	default:
		return false
	}
}

// DispatchEvent names an event on the persistent connection protocol.
type DispatchEvent string

func (e DispatchEvent) String() string {
	return string(e)
}

// Inbound events.
const (
	EventRideRequest    DispatchEvent = "rideRequest"
	EventAcceptRide     DispatchEvent = "acceptRide"
	EventConfirmRide    DispatchEvent = "confirmRide"
	EventCancelRide     DispatchEvent = "cancelRide"
	EventUpdateLocation DispatchEvent = "updateLocation"
)

// Outbound events.
const (
	EventConnection    DispatchEvent = "connection"
	EventRideRequested DispatchEvent = "rideRequested"
	EventRideAccepted  DispatchEvent = "rideAccepted"
	EventRideCompleted DispatchEvent = "rideCompleted"
	EventRideCancelled DispatchEvent = "rideCancelled"
	EventError         DispatchEvent = "error"
)
