package model

import "time"

// LeaseContract is the binding agreement produced when an active reservation
// is converted into a lease. Records are immutable once written; the engine
// never deletes them.
type LeaseContract struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	VehicleID  string    `json:"vehicle_id" bson:"vehicle_id"`
	HolderID   string    `json:"holder_id" bson:"holder_id"`
	LeaseStart time.Time `json:"lease_start" bson:"lease_start"`
	LeaseEnd   time.Time `json:"lease_end" bson:"lease_end"`
	TotalCost  float64   `json:"total_cost" bson:"total_cost"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

const (
	LeaseStatusActive    = "Active"
	LeaseStatusCompleted = "Completed"
)

// StatusAt derives the contract's display status. A contract is active while
// now is before the lease end.
func (c *LeaseContract) StatusAt(now time.Time) string {
	if now.Before(c.LeaseEnd) {
		return LeaseStatusActive
	}
	return LeaseStatusCompleted
}
