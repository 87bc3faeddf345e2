package model

import "time"

// VehicleLock is an advisory lock serializing lifecycle operations per
// vehicle. The lock ID is the vehicle ID, so a duplicate-key insert means
// another request holds the vehicle. ExpiresAt backs a TTL index that
// reclaims locks left behind by crashed holders.
type VehicleLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
