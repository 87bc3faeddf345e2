package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	reservationserrors "autolease/internal/reservations/errors"
	resvalidator "autolease/internal/reservations/validator"
	vehicleserrors "autolease/internal/vehicles/errors"
	"autolease/pkg/config"
	mongotx "autolease/pkg/db/mongo"
	apperrors "autolease/pkg/errors"
	"autolease/pkg/kafka"
	"autolease/pkg/logger"
	"autolease/pkg/model"
)

const (
	testVehicleID = "64f000000000000000000001"
	testHolderID  = "holder-1"
	otherHolderID = "holder-2"
)

// Mock repositories for testing

type mockVehicleRepository struct {
	createFunc    func(ctx context.Context, vehicle *model.Vehicle) error
	findByIDFunc  func(ctx context.Context, id string) (*model.Vehicle, error)
	getStatusFunc func(ctx context.Context, id string) (model.VehicleStatus, error)
	setStatusFunc func(ctx context.Context, id string, status model.VehicleStatus) error
}

func (m *mockVehicleRepository) Create(ctx context.Context, vehicle *model.Vehicle) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, vehicle)
	}
	return nil
}

func (m *mockVehicleRepository) FindByID(ctx context.Context, id string) (*model.Vehicle, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Vehicle{ID: id, Brand: "Volvo", Model: "XC60", Year: 2024, Price: 2_000_000, Status: model.VehicleAvailable}, nil
}

func (m *mockVehicleRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Vehicle, error) {
	return nil, nil
}

func (m *mockVehicleRepository) Count(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *mockVehicleRepository) GetStatus(ctx context.Context, id string) (model.VehicleStatus, error) {
	if m.getStatusFunc != nil {
		return m.getStatusFunc(ctx, id)
	}
	return model.VehicleAvailable, nil
}

func (m *mockVehicleRepository) SetStatus(ctx context.Context, id string, status model.VehicleStatus) error {
	if m.setStatusFunc != nil {
		return m.setStatusFunc(ctx, id, status)
	}
	return nil
}

func (m *mockVehicleRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.VehicleLock) (*model.VehicleLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.VehicleLock) (*model.VehicleLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

type mockReservationRepository struct {
	createFunc                     func(ctx context.Context, reservation *model.Reservation) error
	findByIDFunc                   func(ctx context.Context, id string) (*model.Reservation, error)
	countActiveFunc                func(ctx context.Context, vehicleID string) (int64, error)
	findActiveByVehicleAndHolderFn func(ctx context.Context, vehicleID, holderID string) (*model.Reservation, error)
	findOverlappingFunc            func(ctx context.Context, vehicleID string, start, end time.Time, excludeHolder string) ([]*model.Reservation, error)
	deactivateFunc                 func(ctx context.Context, id string) error
	findActiveExpiredFunc          func(ctx context.Context, vehicleID string, now time.Time) ([]*model.Reservation, error)
	deactivated                    []string
}

func (m *mockReservationRepository) Create(ctx context.Context, reservation *model.Reservation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, reservation)
	}
	reservation.ID = "64f0000000000000000000aa"
	reservation.Active = true
	return nil
}

func (m *mockReservationRepository) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) FindActive(ctx context.Context, vehicleID string, limit int, offset int64) ([]*model.Reservation, error) {
	return nil, nil
}

func (m *mockReservationRepository) CountActive(ctx context.Context, vehicleID string) (int64, error) {
	if m.countActiveFunc != nil {
		return m.countActiveFunc(ctx, vehicleID)
	}
	return 0, nil
}

func (m *mockReservationRepository) FindActiveByVehicleAndHolder(ctx context.Context, vehicleID, holderID string) (*model.Reservation, error) {
	if m.findActiveByVehicleAndHolderFn != nil {
		return m.findActiveByVehicleAndHolderFn(ctx, vehicleID, holderID)
	}
	return nil, reservationserrors.ErrNotFound
}

func (m *mockReservationRepository) FindOverlapping(ctx context.Context, vehicleID string, start, end time.Time, excludeHolder string) ([]*model.Reservation, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, vehicleID, start, end, excludeHolder)
	}
	return nil, nil
}

func (m *mockReservationRepository) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if m.deactivateFunc != nil {
		return m.deactivateFunc(ctx, id)
	}
	return nil
}

func (m *mockReservationRepository) FindActiveExpired(ctx context.Context, vehicleID string, now time.Time) ([]*model.Reservation, error) {
	if m.findActiveExpiredFunc != nil {
		return m.findActiveExpiredFunc(ctx, vehicleID, now)
	}
	return nil, nil
}

func (m *mockReservationRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(ctx)
}

type mockLeaseRepository struct {
	createFunc func(ctx context.Context, contract *model.LeaseContract) error
	created    []*model.LeaseContract
}

func (m *mockLeaseRepository) Create(ctx context.Context, contract *model.LeaseContract) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, contract)
	}
	contract.ID = "64f0000000000000000000bb"
	m.created = append(m.created, contract)
	return nil
}

func (m *mockLeaseRepository) FindByID(ctx context.Context, id string) (*model.LeaseContract, error) {
	return nil, nil
}

func (m *mockLeaseRepository) FindByHolder(ctx context.Context, holderID string, limit int, offset int64) ([]*model.LeaseContract, error) {
	return nil, nil
}

func (m *mockLeaseRepository) CountByHolder(ctx context.Context, holderID string) (int64, error) {
	return 0, nil
}

type mockPublisher struct {
	published []kafka.Message
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return nil
}

type fixture struct {
	vehicles  *mockVehicleRepository
	locks     *mockLockRepository
	resvs     *mockReservationRepository
	leases    *mockLeaseRepository
	publisher *mockPublisher
}

func newFixture() *fixture {
	return &fixture{
		vehicles:  &mockVehicleRepository{},
		locks:     &mockLockRepository{},
		resvs:     &mockReservationRepository{},
		leases:    &mockLeaseRepository{},
		publisher: &mockPublisher{},
	}
}

func (f *fixture) coordinator() Coordinator {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:            log,
		VehicleLockTTL: 10 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
	}
	return NewCoordinator(
		f.vehicles,
		f.locks,
		f.resvs,
		f.leases,
		resvalidator.NewReservationValidator(log),
		f.publisher,
		cfg,
	)
}

func duplicateKeyError() error {
	return mongo.WriteException{
		WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
	}
}

func newReservation(holderID string, start, end time.Time) *model.Reservation {
	return &model.Reservation{
		VehicleID:   testVehicleID,
		HolderID:    holderID,
		WindowStart: start,
		WindowEnd:   end,
	}
}

func TestReserve_Success(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(48*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.NoError(t, err)
	assert.NotEmpty(t, reservation.ID)
	assert.Equal(t, model.VehicleReserved, setStatus)
	assert.Equal(t, []string{testVehicleID}, f.locks.deleted, "vehicle lock must be released")

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, testVehicleID, f.publisher.published[0].Key)
	assert.Equal(t, EventReservationCreated, f.publisher.published[0].GetEventType())
}

func TestReserve_WindowConflict(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	f.resvs.findOverlappingFunc = func(ctx context.Context, vehicleID string, start, end time.Time, excludeHolder string) ([]*model.Reservation, error) {
		return []*model.Reservation{
			newReservation(otherHolderID, now.Add(time.Hour), now.Add(24*time.Hour)),
		}, nil
	}

	reservation := newReservation(testHolderID, now.Add(2*time.Hour), now.Add(20*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict), "expected CONFLICT, got %v", err)
	assert.Empty(t, f.publisher.published)
	assert.Equal(t, []string{testVehicleID}, f.locks.deleted, "lock released even on conflict")
}

func TestReserve_ExpiredOverlapIgnored(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	// A stale active reservation whose window already ended must not block
	// a new claim that happens to overlap it.
	stale := newReservation(otherHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	stale.ID = "64f0000000000000000000cc"
	f.resvs.findOverlappingFunc = func(ctx context.Context, vehicleID string, start, end time.Time, excludeHolder string) ([]*model.Reservation, error) {
		return []*model.Reservation{stale}, nil
	}

	reservation := newReservation(testHolderID, now.Add(-2*time.Hour), now.Add(20*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.NoError(t, err)
}

func TestReserve_SweepsStaleHoldsFirst(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	// A stale hold left by another holder must be deactivated inside the
	// reserving transaction, not merely skipped in memory, or a later count
	// of active reservations would still see it.
	stale := newReservation(otherHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	stale.ID = "64f0000000000000000000cc"
	stale.Active = true
	f.resvs.findActiveExpiredFunc = func(ctx context.Context, vehicleID string, t time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{stale}, nil
	}

	reservation := newReservation(testHolderID, now.Add(-2*time.Hour), now.Add(20*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.NoError(t, err)
	assert.Equal(t, []string{stale.ID}, f.resvs.deactivated, "stale hold must be settled, not just ignored")

	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, EventReservationExpired, f.publisher.published[0].GetEventType())
	assert.Equal(t, EventReservationCreated, f.publisher.published[1].GetEventType())
}

func TestReserve_ReplacesOwnReservation(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	existing := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	existing.ID = "64f0000000000000000000dd"
	existing.Active = true
	f.resvs.findActiveByVehicleAndHolderFn = func(ctx context.Context, vehicleID, holderID string) (*model.Reservation, error) {
		return existing, nil
	}

	reservation := newReservation(testHolderID, now.Add(2*time.Hour), now.Add(72*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.NoError(t, err)
	assert.Equal(t, []string{existing.ID}, f.resvs.deactivated, "previous claim must be replaced")
}

func TestReserve_LeasedVehicleRejected(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleLeased, nil
	}

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState), "expected INVALID_STATE, got %v", err)
}

func TestReserve_VehicleBusy(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	f.locks.createFunc = func(ctx context.Context, lock *model.VehicleLock) (*model.VehicleLock, error) {
		return nil, duplicateKeyError()
	}

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBusy), "expected BUSY, got %v", err)
}

func TestReserve_ValidationRejectsEndedWindow(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation), "expected VALIDATION_ERROR, got %v", err)
}

func TestReserve_UnknownVehicle(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return "", vehicleserrors.ErrNotFound
	}

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	err := f.coordinator().Reserve(context.Background(), reservation, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "expected NOT_FOUND, got %v", err)
}

func TestRelease_RevertsVehicleToAvailable(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	reservation.ID = "64f0000000000000000000ee"
	reservation.Active = true
	f.resvs.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return reservation, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	err := f.coordinator().Release(context.Background(), reservation.ID, testHolderID, now)

	require.NoError(t, err)
	assert.Equal(t, []string{reservation.ID}, f.resvs.deactivated)
	assert.Equal(t, model.VehicleAvailable, setStatus)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, EventReservationReleased, f.publisher.published[0].GetEventType())
}

func TestRelease_KeepsStatusWhileOthersRemain(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	reservation.ID = "64f0000000000000000000ee"
	reservation.Active = true
	f.resvs.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return reservation, nil
	}
	f.resvs.countActiveFunc = func(ctx context.Context, vehicleID string) (int64, error) {
		return 1, nil
	}

	statusWritten := false
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		statusWritten = true
		return nil
	}

	err := f.coordinator().Release(context.Background(), reservation.ID, testHolderID, now)

	require.NoError(t, err)
	assert.False(t, statusWritten, "status must not change while another active reservation remains")
}

func TestRelease_SweepsStaleHoldsBeforeSettling(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	reservation.ID = "64f0000000000000000000ee"
	reservation.Active = true
	f.resvs.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return reservation, nil
	}

	// Without settling this stale row the active count would stay above
	// zero and the vehicle would remain Reserved forever.
	stale := newReservation(otherHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	stale.ID = "64f0000000000000000000cc"
	stale.Active = true
	f.resvs.findActiveExpiredFunc = func(ctx context.Context, vehicleID string, t time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{stale}, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	err := f.coordinator().Release(context.Background(), reservation.ID, testHolderID, now)

	require.NoError(t, err)
	assert.Equal(t, []string{reservation.ID, stale.ID}, f.resvs.deactivated)
	assert.Equal(t, model.VehicleAvailable, setStatus)

	require.Len(t, f.publisher.published, 2)
	assert.Equal(t, EventReservationExpired, f.publisher.published[0].GetEventType())
	assert.Equal(t, EventReservationReleased, f.publisher.published[1].GetEventType())
}

func TestRelease_InactiveIsNoOp(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-24*time.Hour))
	reservation.ID = "64f0000000000000000000ee"
	reservation.Active = false
	f.resvs.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return reservation, nil
	}

	err := f.coordinator().Release(context.Background(), reservation.ID, testHolderID, now)

	require.NoError(t, err)
	assert.Empty(t, f.resvs.deactivated)
	assert.Empty(t, f.publisher.published)
}

func TestRelease_OtherHoldersClaimHidden(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(otherHolderID, now.Add(time.Hour), now.Add(24*time.Hour))
	reservation.ID = "64f0000000000000000000ee"
	reservation.Active = true
	f.resvs.findByIDFunc = func(ctx context.Context, id string) (*model.Reservation, error) {
		return reservation, nil
	}

	err := f.coordinator().Release(context.Background(), reservation.ID, testHolderID, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "expected NOT_FOUND, got %v", err)
}

func TestConvertToLease_Success(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(-time.Hour), now.Add(24*time.Hour))
	reservation.ID = "64f0000000000000000000ff"
	reservation.Active = true
	f.resvs.findActiveByVehicleAndHolderFn = func(ctx context.Context, vehicleID, holderID string) (*model.Reservation, error) {
		return reservation, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	leaseStart := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	leaseEnd := time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC)

	contract, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID, leaseStart, leaseEnd, now)

	require.NoError(t, err)
	require.NotNil(t, contract)
	assert.Equal(t, 366_000.0, contract.TotalCost)
	assert.Equal(t, model.VehicleLeased, setStatus)
	assert.Equal(t, []string{reservation.ID}, f.resvs.deactivated, "settled reservation must be deactivated")

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, EventLeaseOriginated, f.publisher.published[0].GetEventType())
}

func TestConvertToLease_NotReserved(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	contract, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID,
		now, now.Add(30*24*time.Hour), now)

	require.Error(t, err)
	assert.Nil(t, contract)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState), "expected INVALID_STATE, got %v", err)
}

func TestConvertToLease_NoReservationByHolder(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	// Vehicle is reserved, but not by the requesting holder.
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	contract, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID,
		now, now.Add(30*24*time.Hour), now)

	require.Error(t, err)
	assert.Nil(t, contract)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound), "expected NOT_FOUND, got %v", err)
}

func TestConvertToLease_AlreadyLeased(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleLeased, nil
	}

	_, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID,
		now, now.Add(30*24*time.Hour), now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState), "expected INVALID_STATE, got %v", err)
}

func TestConvertToLease_ExpiredReservationSettled(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	reservation := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	reservation.ID = "64f0000000000000000000ff"
	reservation.Active = true
	f.resvs.findActiveByVehicleAndHolderFn = func(ctx context.Context, vehicleID, holderID string) (*model.Reservation, error) {
		return reservation, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	contract, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID,
		now, now.Add(30*24*time.Hour), now)

	require.Error(t, err)
	assert.Nil(t, contract)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidState), "expected INVALID_STATE, got %v", err)
	assert.Equal(t, []string{reservation.ID}, f.resvs.deactivated, "expired reservation must be settled in place")
	assert.Equal(t, model.VehicleAvailable, setStatus)

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, EventReservationExpired, f.publisher.published[0].GetEventType())
}

func TestConvertToLease_InvalidTerm(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	_, err := f.coordinator().ConvertToLease(context.Background(), testVehicleID, testHolderID,
		now.Add(24*time.Hour), now, now)

	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), "expected INVALID_INPUT, got %v", err)
}

func TestSweepExpired_RevertsIdleVehicles(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	expired := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	expired.ID = "64f0000000000000000000ff"
	expired.Active = true
	f.resvs.findActiveExpiredFunc = func(ctx context.Context, vehicleID string, t time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{expired}, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleReserved, nil
	}

	var setStatus model.VehicleStatus
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		setStatus = status
		return nil
	}

	err := f.coordinator().SweepExpired(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID}, f.resvs.deactivated)
	assert.Equal(t, model.VehicleAvailable, setStatus)
	assert.Equal(t, []string{testVehicleID}, f.locks.deleted, "sweep must hold and release the vehicle lock")

	require.Len(t, f.publisher.published, 1)
	assert.Equal(t, EventReservationExpired, f.publisher.published[0].GetEventType())
}

func TestSweepExpired_LeavesLeasedVehiclesAlone(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	expired := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	expired.ID = "64f0000000000000000000ff"
	expired.Active = true
	f.resvs.findActiveExpiredFunc = func(ctx context.Context, vehicleID string, t time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{expired}, nil
	}
	f.vehicles.getStatusFunc = func(ctx context.Context, id string) (model.VehicleStatus, error) {
		return model.VehicleLeased, nil
	}

	statusWritten := false
	f.vehicles.setStatusFunc = func(ctx context.Context, id string, status model.VehicleStatus) error {
		statusWritten = true
		return nil
	}

	err := f.coordinator().SweepExpired(context.Background(), now)

	require.NoError(t, err)
	assert.False(t, statusWritten, "a leased vehicle must never be reverted by the sweep")
}

func TestSweepExpired_SkipsLockedVehicles(t *testing.T) {
	f := newFixture()
	now := time.Now().UTC()

	expired := newReservation(testHolderID, now.Add(-48*time.Hour), now.Add(-time.Hour))
	expired.ID = "64f0000000000000000000ff"
	expired.Active = true
	f.resvs.findActiveExpiredFunc = func(ctx context.Context, vehicleID string, t time.Time) ([]*model.Reservation, error) {
		return []*model.Reservation{expired}, nil
	}
	f.locks.createFunc = func(ctx context.Context, lock *model.VehicleLock) (*model.VehicleLock, error) {
		return nil, duplicateKeyError()
	}

	err := f.coordinator().SweepExpired(context.Background(), now)

	require.NoError(t, err)
	assert.Empty(t, f.resvs.deactivated, "a locked vehicle is left for its lock holder")
	assert.Empty(t, f.publisher.published)
}

func TestSweepExpired_NothingToDo(t *testing.T) {
	f := newFixture()

	err := f.coordinator().SweepExpired(context.Background(), time.Now().UTC())

	require.NoError(t, err)
	assert.Empty(t, f.publisher.published)
}
