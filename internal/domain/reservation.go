package domain

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-ReservationService/pkg/types"
)

// Status represents the status of a reservation
type Status string

const (
	StatusCreated    Status = "CREADA"
	StatusConfirmed  Status = "CONFIRMADA"
	StatusCancelled  Status = "CANCELADA"
	StatusCheckedIn  Status = "CHECKIN"
	StatusCheckedOut Status = "CHECKOUT"
)

// Identity is the caller on whose behalf an operation runs
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// IsZero returns true if no identity was provided
func (i Identity) IsZero() bool {
	return i.UserID == ""
}

// IsStaff returns true if the identity may act on reservations of other users
func (i Identity) IsStaff() bool {
	return i.Role == RoleAdmin || i.Role == RoleReception
}

// Reservation is the reservation aggregate
type Reservation struct {
	ReservationID string
	ClientID      string
	HotelID       string
	RoomID        string
	StartDate     time.Time
	EndDate       time.Time
	Status        Status
	TotalAmount   types.Money

	// LockID is set only while an inventory hold is active
	LockID *string

	// Owner is the identity that created the reservation
	Owner Identity

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Apply moves the reservation through the state machine.
// Leaving CREADA or entering CANCELADA releases the hold reference.
func (r *Reservation) Apply(event Event, now time.Time) error {
	next, err := Transition(r.Status, event)
	if err != nil {
		return err
	}

	r.Status = next
	if next == StatusConfirmed || next == StatusCancelled {
		r.LockID = nil
	}
	r.UpdatedAt = now
	return nil
}

// HasActiveLock returns true if an inventory hold is still referenced
func (r *Reservation) HasActiveLock() bool {
	return r.LockID != nil && *r.LockID != ""
}

// Nights returns the number of nights between start and end dates
func (r *Reservation) Nights() int {
	return int(r.EndDate.Sub(r.StartDate).Hours() / 24)
}

// Clone returns a deep copy of the reservation
func (r *Reservation) Clone() *Reservation {
	c := *r
	if r.LockID != nil {
		lockID := *r.LockID
		c.LockID = &lockID
	}
	return &c
}

// VerifyUpdate checks a pending write against the stored state: the status
// change must be legal and identity, references, dates and amount never change.
func VerifyUpdate(before, after *Reservation) error {
	if err := ValidateChange(before.Status, after.Status); err != nil {
		return err
	}

	switch {
	case after.ReservationID != before.ReservationID:
		return fmt.Errorf("%w: reservation_id", ErrImmutableField)
	case after.ClientID != before.ClientID, after.HotelID != before.HotelID, after.RoomID != before.RoomID:
		return fmt.Errorf("%w: references", ErrImmutableField)
	case !after.StartDate.Equal(before.StartDate), !after.EndDate.Equal(before.EndDate):
		return fmt.Errorf("%w: dates", ErrImmutableField)
	case after.TotalAmount != before.TotalAmount:
		return fmt.Errorf("%w: total_amount", ErrImmutableField)
	case after.Owner != before.Owner:
		return fmt.Errorf("%w: owner", ErrImmutableField)
	}
	return nil
}
