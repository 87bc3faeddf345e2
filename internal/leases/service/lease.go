package service

import (
	"context"
	"sync"
	"time"

	"autolease/internal/leases/repository"
	"autolease/pkg/config"
	apperrors "autolease/pkg/errors"
	"autolease/pkg/model"
)

// LeaseView is a contract enriched with the derived figures callers expect:
// the per-month installment and whether the term is still running.
type LeaseView struct {
	model.LeaseContract
	MonthlyPayment float64 `json:"monthly_payment"`
	Status         string  `json:"status"`
}

// NewLeaseView derives the display view of a contract at the given instant.
func NewLeaseView(contract *model.LeaseContract, now time.Time) *LeaseView {
	return &LeaseView{
		LeaseContract:  *contract,
		MonthlyPayment: ComputeMonthlyPayment(contract.TotalCost, contract.LeaseStart, contract.LeaseEnd),
		Status:         contract.StatusAt(now),
	}
}

// LeaseService serves contract read paths. Origination goes through the
// lifecycle coordinator.
type LeaseService interface {
	GetByHolder(ctx context.Context, holderID string, limit int, offset int64, now time.Time) ([]*LeaseView, int64, error)
}

type leaseService struct {
	repo repository.LeaseRepository
	cfg  *config.Config
}

func NewLeaseService(repo repository.LeaseRepository, cfg *config.Config) LeaseService {
	return &leaseService{
		repo: repo,
		cfg:  cfg,
	}
}

func (s *leaseService) GetByHolder(ctx context.Context, holderID string, limit int, offset int64, now time.Time) ([]*LeaseView, int64, error) {
	if holderID == "" {
		return nil, 0, apperrors.Unauthorized("Holder identity is required")
	}

	var count int64
	var contracts []*model.LeaseContract
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByHolder(ctx, holderID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count lease contracts", "holder_id", holderID, "error", errCount)
			errCount = apperrors.Internal("Failed to count lease contracts", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		contracts, errFind = s.repo.FindByHolder(ctx, holderID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list lease contracts", "holder_id", holderID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve lease contracts", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	views := make([]*LeaseView, 0, len(contracts))
	for _, contract := range contracts {
		views = append(views, NewLeaseView(contract, now))
	}

	return views, count, nil
}
