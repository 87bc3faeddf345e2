package model

import (
	"testing"
	"time"
)

func TestReservationExpired(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		end     time.Time
		expired bool
	}{
		{"window still open", now.Add(time.Hour), false},
		{"window ended", now.Add(-time.Hour), true},
		{"window ends exactly now", now, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := &Reservation{WindowStart: now.Add(-24 * time.Hour), WindowEnd: tc.end}
			if got := r.Expired(now); got != tc.expired {
				t.Errorf("Expired() = %v, want %v", got, tc.expired)
			}
		})
	}
}

func TestVehicleStatusValid(t *testing.T) {
	for _, status := range []VehicleStatus{VehicleAvailable, VehicleReserved, VehicleLeased} {
		if !status.Valid() {
			t.Errorf("expected %q to be valid", status)
		}
	}

	if VehicleStatus("Parked").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}

func TestLeaseContractStatusAt(t *testing.T) {
	contract := &LeaseContract{
		LeaseStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		LeaseEnd:   time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
	}

	if got := contract.StatusAt(time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)); got != LeaseStatusActive {
		t.Errorf("expected Active mid-term, got %s", got)
	}
	if got := contract.StatusAt(contract.LeaseEnd); got != LeaseStatusCompleted {
		t.Errorf("expected Completed at term end, got %s", got)
	}
}
