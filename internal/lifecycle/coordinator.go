package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	leaseservice "autolease/internal/leases/service"
	reservationserrors "autolease/internal/reservations/errors"
	resvalidator "autolease/internal/reservations/validator"
	vehicleserrors "autolease/internal/vehicles/errors"
	"autolease/pkg/config"
	apperrors "autolease/pkg/errors"
	"autolease/pkg/model"

	leaserepo "autolease/internal/leases/repository"
	resrepo "autolease/internal/reservations/repository"
	vehiclerepo "autolease/internal/vehicles/repository"
)

// Coordinator owns every vehicle state transition. It serializes work per
// vehicle with an advisory lock, applies the transition in a transaction, and
// publishes the committed outcome. Callers pass now explicitly so expiry
// decisions are reproducible.
type Coordinator interface {
	Reserve(ctx context.Context, reservation *model.Reservation, now time.Time) error
	Release(ctx context.Context, reservationID, holderID string, now time.Time) error
	ConvertToLease(ctx context.Context, vehicleID, holderID string, leaseStart, leaseEnd, now time.Time) (*model.LeaseContract, error)
	SweepExpired(ctx context.Context, now time.Time) error
}

type coordinator struct {
	vehicles     vehiclerepo.VehicleRepository
	locks        vehiclerepo.VehicleLockRepository
	reservations resrepo.ReservationRepository
	leases       leaserepo.LeaseRepository
	validator    *resvalidator.ReservationValidator
	publisher    EventPublisher
	cfg          *config.Config
}

func NewCoordinator(
	vehicles vehiclerepo.VehicleRepository,
	locks vehiclerepo.VehicleLockRepository,
	reservations resrepo.ReservationRepository,
	leases leaserepo.LeaseRepository,
	validator *resvalidator.ReservationValidator,
	publisher EventPublisher,
	cfg *config.Config,
) Coordinator {
	return &coordinator{
		vehicles:     vehicles,
		locks:        locks,
		reservations: reservations,
		leases:       leases,
		validator:    validator,
		publisher:    publisher,
		cfg:          cfg,
	}
}

func (c *coordinator) Reserve(ctx context.Context, reservation *model.Reservation, now time.Time) error {
	if err := c.validator.Validate(reservation, now); err != nil {
		c.cfg.Log.Warn("Reservation validation failed", "error", err)
		return apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	if err := c.acquireVehicleLock(ctx, reservation.VehicleID); err != nil {
		return err
	}
	defer c.releaseVehicleLock(ctx, reservation.VehicleID)

	var replaced *model.Reservation
	var swept []*model.Reservation
	err := c.reservations.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		status, err := c.vehicles.GetStatus(sessCtx, reservation.VehicleID)
		if err != nil {
			return mapVehicleError(err, reservation.VehicleID)
		}
		if status == model.VehicleLeased {
			return apperrors.InvalidState("Vehicle is currently leased")
		}

		// Settle the vehicle's stale holds before the conflict check so an
		// expired reservation never blocks a new claim.
		swept, err = c.sweepVehicle(sessCtx, reservation.VehicleID, now)
		if err != nil {
			return err
		}

		overlapping, err := c.reservations.FindOverlapping(sessCtx,
			reservation.VehicleID, reservation.WindowStart, reservation.WindowEnd, reservation.HolderID)
		if err != nil {
			return apperrors.Internal("Failed to check existing reservations", err)
		}
		for _, other := range overlapping {
			if other.Expired(now) {
				continue
			}
			return apperrors.Conflict(fmt.Sprintf(
				"Reservation window overlaps with existing reservation (%s - %s)",
				other.WindowStart.Format(time.RFC3339),
				other.WindowEnd.Format(time.RFC3339),
			))
		}

		// A holder re-reserving a vehicle replaces their previous claim.
		existing, err := c.reservations.FindActiveByVehicleAndHolder(sessCtx, reservation.VehicleID, reservation.HolderID)
		if err != nil && !errors.Is(err, reservationserrors.ErrNotFound) {
			return apperrors.Internal("Failed to check holder's reservation", err)
		}
		if existing != nil {
			if err := c.reservations.Deactivate(sessCtx, existing.ID); err != nil {
				return apperrors.Internal("Failed to replace holder's reservation", err)
			}
			replaced = existing
		}

		if err := c.reservations.Create(sessCtx, reservation); err != nil {
			return apperrors.Internal("Failed to create reservation", err)
		}

		if err := c.vehicles.SetStatus(sessCtx, reservation.VehicleID, model.VehicleReserved); err != nil {
			return apperrors.Internal("Failed to update vehicle status", err)
		}

		return nil
	})
	if err != nil {
		c.cfg.Log.Error("Failed to reserve vehicle", "vehicle_id", reservation.VehicleID, "error", err)
		return err
	}

	c.cfg.Log.Info("Reservation created successfully",
		"id", reservation.ID,
		"vehicle_id", reservation.VehicleID,
		"holder_id", reservation.HolderID,
		"window_start", reservation.WindowStart,
		"window_end", reservation.WindowEnd,
		"replaced_id", replacedID(replaced),
	)
	for _, stale := range swept {
		c.publishEvent(ctx, reservationEvent(EventReservationExpired, stale, now))
	}
	c.publishEvent(ctx, reservationEvent(EventReservationCreated, reservation, now))
	return nil
}

func (c *coordinator) Release(ctx context.Context, reservationID, holderID string, now time.Time) error {
	if reservationID == "" {
		return apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := c.reservations.FindByID(ctx, reservationID)
	if err != nil {
		return mapReservationError(err, reservationID)
	}

	// Holders may only release their own claims. Respond as if the
	// reservation does not exist rather than confirming it does.
	if holderID != "" && reservation.HolderID != holderID {
		return apperrors.NotFoundWithID("Reservation", reservationID)
	}

	// Releasing an already-settled reservation is a no-op.
	if !reservation.Active {
		return nil
	}

	if err := c.acquireVehicleLock(ctx, reservation.VehicleID); err != nil {
		return err
	}
	defer c.releaseVehicleLock(ctx, reservation.VehicleID)

	var swept []*model.Reservation
	err = c.reservations.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		if err := c.reservations.Deactivate(sessCtx, reservation.ID); err != nil {
			return apperrors.Internal("Failed to release reservation", err)
		}
		// Stale holds must not pin the vehicle in Reserved once the live
		// claim is gone.
		swept, err = c.sweepVehicle(sessCtx, reservation.VehicleID, now)
		if err != nil {
			return err
		}
		return c.settleVehicleStatus(sessCtx, reservation.VehicleID)
	})
	if err != nil {
		c.cfg.Log.Error("Failed to release reservation", "id", reservationID, "error", err)
		return err
	}

	c.cfg.Log.Info("Reservation released successfully",
		"id", reservation.ID,
		"vehicle_id", reservation.VehicleID,
		"holder_id", reservation.HolderID,
	)
	for _, stale := range swept {
		c.publishEvent(ctx, reservationEvent(EventReservationExpired, stale, now))
	}
	c.publishEvent(ctx, reservationEvent(EventReservationReleased, reservation, now))
	return nil
}

func (c *coordinator) ConvertToLease(ctx context.Context, vehicleID, holderID string, leaseStart, leaseEnd, now time.Time) (*model.LeaseContract, error) {
	if vehicleID == "" {
		return nil, apperrors.InvalidInput("Vehicle ID cannot be empty")
	}
	if holderID == "" {
		return nil, apperrors.Unauthorized("Holder identity is required")
	}
	if !leaseEnd.After(leaseStart) {
		return nil, apperrors.InvalidInput("lease_end must be after lease_start")
	}

	vehicle, err := c.vehicles.FindByID(ctx, vehicleID)
	if err != nil {
		return nil, mapVehicleError(err, vehicleID)
	}

	if err := c.acquireVehicleLock(ctx, vehicleID); err != nil {
		return nil, err
	}
	defer c.releaseVehicleLock(ctx, vehicleID)

	var expired *model.Reservation
	contract := &model.LeaseContract{
		VehicleID:  vehicleID,
		HolderID:   holderID,
		LeaseStart: leaseStart,
		LeaseEnd:   leaseEnd,
		TotalCost:  leaseservice.ComputeCost(vehicle.Price, leaseStart, leaseEnd),
	}

	err = c.reservations.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		status, err := c.vehicles.GetStatus(sessCtx, vehicleID)
		if err != nil {
			return mapVehicleError(err, vehicleID)
		}
		if status == model.VehicleLeased {
			return apperrors.InvalidState("Vehicle is already leased")
		}
		if status != model.VehicleReserved {
			return apperrors.InvalidState("Vehicle is not reserved")
		}

		reservation, err := c.reservations.FindActiveByVehicleAndHolder(sessCtx, vehicleID, holderID)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFound("Active reservation for holder")
			}
			return apperrors.Internal("Failed to find holder's reservation", err)
		}

		if reservation.Expired(now) {
			// Expire in place instead of aborting, then report the
			// failed transition after commit.
			if err := c.reservations.Deactivate(sessCtx, reservation.ID); err != nil {
				return apperrors.Internal("Failed to expire reservation", err)
			}
			if err := c.settleVehicleStatus(sessCtx, vehicleID); err != nil {
				return err
			}
			expired = reservation
			return nil
		}

		if err := c.leases.Create(sessCtx, contract); err != nil {
			return apperrors.Internal("Failed to create lease contract", err)
		}
		if err := c.reservations.Deactivate(sessCtx, reservation.ID); err != nil {
			return apperrors.Internal("Failed to settle reservation", err)
		}
		if err := c.vehicles.SetStatus(sessCtx, vehicleID, model.VehicleLeased); err != nil {
			return apperrors.Internal("Failed to update vehicle status", err)
		}

		return nil
	})
	if err != nil {
		c.cfg.Log.Error("Failed to originate lease", "vehicle_id", vehicleID, "error", err)
		return nil, err
	}

	if expired != nil {
		c.cfg.Log.Info("Reservation expired during lease origination",
			"id", expired.ID,
			"vehicle_id", vehicleID,
		)
		c.publishEvent(ctx, reservationEvent(EventReservationExpired, expired, now))
		return nil, apperrors.InvalidState("Reservation window has already ended")
	}

	c.cfg.Log.Info("Lease originated successfully",
		"id", contract.ID,
		"vehicle_id", vehicleID,
		"holder_id", holderID,
		"total_cost", contract.TotalCost,
	)
	c.publishEvent(ctx, leaseEvent(contract, now))
	return contract, nil
}

// SweepExpired settles every vehicle carrying a stale hold, one vehicle at a
// time under that vehicle's lock so a sweep never races a concurrent Reserve,
// Release or ConvertToLease on the same vehicle.
func (c *coordinator) SweepExpired(ctx context.Context, now time.Time) error {
	stale, err := c.reservations.FindActiveExpired(ctx, "", now)
	if err != nil {
		c.cfg.Log.Error("Failed to sweep expired reservations", "error", err)
		return apperrors.Internal("Failed to find expired reservations", err)
	}
	if len(stale) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var vehicleIDs []string
	for _, reservation := range stale {
		if _, ok := seen[reservation.VehicleID]; ok {
			continue
		}
		seen[reservation.VehicleID] = struct{}{}
		vehicleIDs = append(vehicleIDs, reservation.VehicleID)
	}

	total := 0
	for _, vehicleID := range vehicleIDs {
		swept, err := c.sweepVehicleLocked(ctx, vehicleID, now)
		if err != nil {
			if apperrors.IsCode(err, apperrors.CodeBusy) {
				// Another request holds the vehicle and will observe
				// current state; leave it for the next sweep.
				continue
			}
			c.cfg.Log.Error("Failed to sweep expired reservations", "vehicle_id", vehicleID, "error", err)
			return err
		}
		total += len(swept)
		for _, reservation := range swept {
			c.publishEvent(ctx, reservationEvent(EventReservationExpired, reservation, now))
		}
	}

	if total > 0 {
		c.cfg.Log.Info("Expired reservations swept", "count", total)
	}
	return nil
}

// sweepVehicleLocked settles one vehicle's stale holds in its own transaction
// under the vehicle's advisory lock.
func (c *coordinator) sweepVehicleLocked(ctx context.Context, vehicleID string, now time.Time) ([]*model.Reservation, error) {
	if err := c.acquireVehicleLock(ctx, vehicleID); err != nil {
		return nil, err
	}
	defer c.releaseVehicleLock(ctx, vehicleID)

	var swept []*model.Reservation
	err := c.reservations.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		var err error
		swept, err = c.sweepVehicle(sessCtx, vehicleID, now)
		if err != nil {
			return err
		}
		return c.settleVehicleStatus(sessCtx, vehicleID)
	})
	if err != nil {
		return nil, err
	}
	return swept, nil
}

// sweepVehicle deactivates the vehicle's expired active reservations. Runs
// inside a caller-owned transaction; returned rows feed post-commit events.
func (c *coordinator) sweepVehicle(sessCtx context.Context, vehicleID string, now time.Time) ([]*model.Reservation, error) {
	stale, err := c.reservations.FindActiveExpired(sessCtx, vehicleID, now)
	if err != nil {
		return nil, apperrors.Internal("Failed to find expired reservations", err)
	}
	for _, reservation := range stale {
		if err := c.reservations.Deactivate(sessCtx, reservation.ID); err != nil {
			return nil, apperrors.Internal("Failed to expire reservation", err)
		}
	}
	return stale, nil
}

// settleVehicleStatus reverts a Reserved vehicle to Available once its last
// active reservation is gone. Leased vehicles are never touched here; only
// lease completion flows may move a vehicle out of Leased.
func (c *coordinator) settleVehicleStatus(sessCtx context.Context, vehicleID string) error {
	remaining, err := c.reservations.CountActive(sessCtx, vehicleID)
	if err != nil {
		return apperrors.Internal("Failed to count remaining reservations", err)
	}
	if remaining > 0 {
		return nil
	}

	status, err := c.vehicles.GetStatus(sessCtx, vehicleID)
	if err != nil {
		return mapVehicleError(err, vehicleID)
	}
	if status != model.VehicleReserved {
		return nil
	}

	if err := c.vehicles.SetStatus(sessCtx, vehicleID, model.VehicleAvailable); err != nil {
		return apperrors.Internal("Failed to update vehicle status", err)
	}
	return nil
}

// acquireVehicleLock serializes lifecycle operations on one vehicle.
// The lock document's TTL index reclaims locks abandoned by crashed holders.
func (c *coordinator) acquireVehicleLock(ctx context.Context, vehicleID string) error {
	lock := &model.VehicleLock{
		ID:        vehicleID,
		ExpiresAt: time.Now().Add(c.cfg.VehicleLockTTL),
	}

	_, err := c.locks.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.Busy("Vehicle is being modified by another request. Please try again.")
		}
		return apperrors.Internal("Failed to acquire vehicle lock", err)
	}

	return nil
}

func (c *coordinator) releaseVehicleLock(ctx context.Context, vehicleID string) {
	if err := c.locks.Delete(context.WithoutCancel(ctx), vehicleID); err != nil {
		c.cfg.Log.Warn("Failed to release vehicle lock", "vehicle_id", vehicleID, "error", err)
	}
}

func mapVehicleError(err error, id string) error {
	switch {
	case errors.Is(err, vehicleserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Vehicle", id)
	case errors.Is(err, vehicleserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid vehicle ID format")
	default:
		return apperrors.Internal("Failed to read vehicle", err)
	}
}

func mapReservationError(err error, id string) error {
	switch {
	case errors.Is(err, reservationserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Reservation", id)
	case errors.Is(err, reservationserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid reservation ID format")
	default:
		return apperrors.Internal("Failed to read reservation", err)
	}
}

func replacedID(r *model.Reservation) string {
	if r == nil {
		return ""
	}
	return r.ID
}
