package validator

import (
	"testing"
	"time"

	"autolease/pkg/logger"
	"autolease/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func validReservation(now time.Time) *model.Reservation {
	return &model.Reservation{
		VehicleID:   "64f000000000000000000001",
		HolderID:    "holder-1",
		WindowStart: now.Add(time.Hour),
		WindowEnd:   now.Add(48 * time.Hour),
	}
}

func TestValidate_ValidReservation(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	if err := v.Validate(validReservation(now), now); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestValidate_MissingVehicleID(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.VehicleID = ""

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for missing vehicle_id")
	}
}

func TestValidate_MalformedVehicleID(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.VehicleID = "not-an-object-id"

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for malformed vehicle_id")
	}
}

func TestValidate_MissingHolderID(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.HolderID = ""

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for missing holder_id")
	}
}

func TestValidate_InvertedWindow(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.WindowStart = now.Add(48 * time.Hour)
	reservation.WindowEnd = now.Add(time.Hour)

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for inverted window")
	}
}

func TestValidate_ZeroLengthWindow(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.WindowEnd = reservation.WindowStart

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for zero-length window")
	}
}

func TestValidate_WindowAlreadyEnded(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	reservation := validReservation(now)
	reservation.WindowStart = now.Add(-48 * time.Hour)
	reservation.WindowEnd = now.Add(-time.Hour)

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for a window that already ended")
	}
}

func TestValidate_WindowEndingExactlyNow(t *testing.T) {
	v := NewReservationValidator(testLogger())
	now := time.Now().UTC()

	// Windows are half-open, so an end equal to now is already over.
	reservation := validReservation(now)
	reservation.WindowStart = now.Add(-time.Hour)
	reservation.WindowEnd = now

	if err := v.Validate(reservation, now); err == nil {
		t.Error("expected validation error for a window ending exactly at now")
	}
}
