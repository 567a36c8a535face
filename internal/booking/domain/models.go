package domain

import "time"

// ReservationType distinguishes rides requested for "now" from rides
// scheduled for a future pickup timestamp.
type ReservationType string

const (
	TypeImmediate ReservationType = "immediate"
	TypeScheduled ReservationType = "scheduled"
)

func (t ReservationType) Valid() bool {
	return t == TypeImmediate || t == TypeScheduled
}

// Reservation is a requested ride. Records are immutable once created.
type Reservation struct {
	ID              string          `json:"id"`
	PickupLocation  string          `json:"pickupLocation"`
	DropoffLocation string          `json:"dropoffLocation"`
	PickupTime      time.Time       `json:"pickupTime"`
	ReservationType ReservationType `json:"reservationType"`
	DiscountedFare  float64         `json:"discountedFare"`
}

// Location is a driver's last-known position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Driver is a service-provider account. It is created unverified with a
// single-use verification token; the token is cleared on first use and the
// profile fields may only be written once Verified is true.
type Driver struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	Phone        string  `json:"phone"`
	Name         string  `json:"name"`
	PasswordHash string  `json:"password"`
	Verified     bool    `json:"verified"`
	Token        *string `json:"token"`

	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	BirthDate   string `json:"birthDate,omitempty"`
	Siret       string `json:"siret,omitempty"`
	CompanyName string `json:"companyName,omitempty"`
	Address     string `json:"address,omitempty"`
	PostalCode  string `json:"postalCode,omitempty"`
	City        string `json:"city,omitempty"`

	Location *Location `json:"location,omitempty"`
}

// Admin is a dashboard account.
type Admin struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
}

// Document is the whole persisted state: one flat JSON file rewritten on
// every mutation.
type Document struct {
	Reservations []Reservation `json:"reservations"`
	Drivers      []Driver      `json:"drivers"`
	Admins       []Admin       `json:"admins"`
}

// NewDocument returns an empty document with non-nil collections so a fresh
// store always serializes to the expected layout.
func NewDocument() Document {
	return Document{
		Reservations: []Reservation{},
		Drivers:      []Driver{},
		Admins:       []Admin{},
	}
}

// FindDriver returns a pointer into the document's driver collection, or nil.
func (d *Document) FindDriver(id string) *Driver {
	for i := range d.Drivers {
		if d.Drivers[i].ID == id {
			return &d.Drivers[i]
		}
	}
	return nil
}

// FindDriverByToken matches a non-consumed verification token exactly.
func (d *Document) FindDriverByToken(token string) *Driver {
	if token == "" {
		return nil
	}
	for i := range d.Drivers {
		if d.Drivers[i].Token != nil && *d.Drivers[i].Token == token {
			return &d.Drivers[i]
		}
	}
	return nil
}

// FindAdminByUsername returns a pointer into the admin collection, or nil.
func (d *Document) FindAdminByUsername(username string) *Admin {
	for i := range d.Admins {
		if d.Admins[i].Username == username {
			return &d.Admins[i]
		}
	}
	return nil
}
