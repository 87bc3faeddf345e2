package model

// VehicleStatus governs which lifecycle operations are legal for a vehicle.
// It is a cached projection of ledger state; only the lifecycle coordinator
// writes it.
type VehicleStatus string

const (
	VehicleAvailable VehicleStatus = "Available"
	VehicleReserved  VehicleStatus = "Reserved"
	VehicleLeased    VehicleStatus = "Leased"
)

func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleAvailable, VehicleReserved, VehicleLeased:
		return true
	}
	return false
}

type Vehicle struct {
	ID       string        `json:"id,omitempty" bson:"_id,omitempty"`
	Brand    string        `json:"brand" bson:"brand"`
	Model    string        `json:"model" bson:"model"`
	Year     int           `json:"year" bson:"year"`
	Engine   string        `json:"engine,omitempty" bson:"engine,omitempty"`
	BodyType string        `json:"body_type,omitempty" bson:"body_type,omitempty"`
	Price    float64       `json:"price" bson:"price"`
	PhotoURL string        `json:"photo_url,omitempty" bson:"photo_url,omitempty"`
	Status   VehicleStatus `json:"status" bson:"status"`
}
