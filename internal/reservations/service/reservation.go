package service

import (
	"context"
	"errors"
	"sync"

	reservationserrors "autolease/internal/reservations/errors"
	"autolease/internal/reservations/repository"
	"autolease/pkg/config"
	apperrors "autolease/pkg/errors"
	"autolease/pkg/model"
)

// ReservationService serves the ledger's read paths. All state transitions go
// through the lifecycle coordinator.
type ReservationService interface {
	GetByID(ctx context.Context, id string) (*model.Reservation, error)
	GetActive(ctx context.Context, vehicleID string, limit int, offset int64) ([]*model.Reservation, int64, error)
}

type reservationService struct {
	repo repository.ReservationRepository
	cfg  *config.Config
}

func NewReservationService(repo repository.ReservationRepository, cfg *config.Config) ReservationService {
	return &reservationService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Reservation, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Reservation", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid reservation ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve reservation", err)
	}

	return reservation, nil
}

func (s *reservationService) GetActive(ctx context.Context, vehicleID string, limit int, offset int64) ([]*model.Reservation, int64, error) {
	var count int64
	var reservations []*model.Reservation
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountActive(ctx, vehicleID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count reservations", "vehicle_id", vehicleID, "error", errCount)
			errCount = apperrors.Internal("Failed to count reservations", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		reservations, errFind = s.repo.FindActive(ctx, vehicleID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list reservations", "vehicle_id", vehicleID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve reservations", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return reservations, count, nil
}
