package domain

const (
	EventReservationUpdate = "reservation-update"
	EventLocationUpdate    = "location-update"
)

// ReservationUpdate is broadcast to all connected viewers when a
// reservation is created.
type ReservationUpdate struct {
	Type        string      `json:"type"`
	Reservation Reservation `json:"reservation"`
}

func NewReservationUpdate(r Reservation) ReservationUpdate {
	return ReservationUpdate{Type: EventReservationUpdate, Reservation: r}
}

// LocationUpdate is both the inbound driver ping and the outbound
// rebroadcast to viewers.
type LocationUpdate struct {
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func NewLocationUpdate(driverID string, lat, lng float64) LocationUpdate {
	return LocationUpdate{Type: EventLocationUpdate, ID: driverID, Latitude: lat, Longitude: lng}
}
