package model

import "time"

// Reservation is a holder's provisional claim on a vehicle for the half-open
// window [WindowStart, WindowEnd). Active reservations on one vehicle held by
// different holders never overlap; the ledger enforces this.
type Reservation struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VehicleID   string    `json:"vehicle_id" bson:"vehicle_id" validate:"required,mongodb"`
	HolderID    string    `json:"holder_id" bson:"holder_id" validate:"required"`
	WindowStart time.Time `json:"window_start" bson:"window_start" validate:"required"`
	WindowEnd   time.Time `json:"window_end" bson:"window_end" validate:"required,gtfield=WindowStart"`
	Active      bool      `json:"active" bson:"active"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Window returns the reservation's interval bounds.
func (r *Reservation) Window() (time.Time, time.Time) {
	return r.WindowStart, r.WindowEnd
}

// Expired reports whether the reservation's window has already ended.
// The window is half-open, so a window ending exactly at now is expired.
func (r *Reservation) Expired(now time.Time) bool {
	return !r.WindowEnd.After(now)
}
