package slot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository/memory"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

func newTestService() (*Service, *memory.SlotRepository) {
	repo := memory.NewSlotRepository()
	return NewService(repo), repo
}

func validCreateRequest(doctorID uuid.UUID, capacity int) *model.CreateSlotRequest {
	day := time.Now().Add(24 * time.Hour).Truncate(time.Hour)
	return &model.CreateSlotRequest{
		DoctorID:  doctorID,
		Date:      day,
		StartTime: day,
		EndTime:   day.Add(30 * time.Minute),
		Capacity:  capacity,
	}
}

func TestCreateSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, validCreateRequest(uuid.New(), 3))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, slot.ID)
	assert.Equal(t, 3, slot.Capacity)
	assert.Equal(t, 0, slot.BookedCount)
	assert.Equal(t, model.SlotStatusAvailable, slot.Status)
}

func TestCreateSlotValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bad := validCreateRequest(uuid.New(), 0)
	_, err := svc.CreateSlot(ctx, bad)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidSlot))

	bad = validCreateRequest(uuid.New(), 2)
	bad.EndTime = bad.StartTime
	_, err = svc.CreateSlot(ctx, bad)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidSlot))

	bad = validCreateRequest(uuid.Nil, 2)
	_, err = svc.CreateSlot(ctx, bad)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidSlot))
}

func TestBookSlotToCapacity(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, validCreateRequest(uuid.New(), 2))
	require.NoError(t, err)

	first, err := svc.BookSlot(ctx, slot.ID, uuid.New())
	require.NoError(t, err)
	assert.True(t, first.Active)

	current, err := svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.BookedCount)
	assert.Equal(t, model.SlotStatusAvailable, current.Status)

	// Last seat flips the slot to full.
	_, err = svc.BookSlot(ctx, slot.ID, uuid.New())
	require.NoError(t, err)

	current, err = svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, current.BookedCount)
	assert.Equal(t, model.SlotStatusFull, current.Status)

	// One past capacity is a conflict, not an error surprise.
	_, err = svc.BookSlot(ctx, slot.ID, uuid.New())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonSlotFull))

	active, err := repo.CountActiveBookings(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, active)
}

func TestBookSlotMissingAndCancelled(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.BookSlot(ctx, uuid.New(), uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))

	_, err = svc.BookSlot(ctx, uuid.New(), uuid.Nil)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidSlot))

	slot, err := svc.CreateSlot(ctx, validCreateRequest(uuid.New(), 2))
	require.NoError(t, err)
	require.NoError(t, svc.CancelSlot(ctx, slot.ID))

	_, err = svc.BookSlot(ctx, slot.ID, uuid.New())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonSlotCancelled))
}

func TestCancelSlot(t *testing.T) {
	svc, repo := newTestService()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, validCreateRequest(uuid.New(), 2))
	require.NoError(t, err)
	_, err = svc.BookSlot(ctx, slot.ID, uuid.New())
	require.NoError(t, err)

	require.NoError(t, svc.CancelSlot(ctx, slot.ID))

	current, err := svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusCancelled, current.Status)

	// Booking rows survive cancellation as inactive history.
	bookings, err := repo.ListBookings(ctx, slot.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.False(t, bookings[0].Active)

	// Cancelling twice is a conflict.
	err = svc.CancelSlot(ctx, slot.ID)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonSlotCancelled))

	err = svc.CancelSlot(ctx, uuid.New())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

// TestBookSlotLastSeatRace races many bookers at a single remaining seat and
// expects exactly one winner; the rest lose with SlotFull.
func TestBookSlotLastSeatRace(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	slot, err := svc.CreateSlot(ctx, validCreateRequest(uuid.New(), 1))
	require.NoError(t, err)

	const bookers = 32
	var wg sync.WaitGroup
	errs := make([]error, bookers)

	wg.Add(bookers)
	for i := 0; i < bookers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.BookSlot(ctx, slot.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperrors.HasReason(err, apperrors.ReasonSlotFull))
	}
	assert.Equal(t, 1, wins)

	current, err := svc.GetSlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, current.BookedCount)
	assert.Equal(t, model.SlotStatusFull, current.Status)
}

func TestListSlotsFilters(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	doctorA := uuid.New()
	doctorB := uuid.New()
	_, err := svc.CreateSlot(ctx, validCreateRequest(doctorA, 2))
	require.NoError(t, err)
	_, err = svc.CreateSlot(ctx, validCreateRequest(doctorA, 2))
	require.NoError(t, err)
	_, err = svc.CreateSlot(ctx, validCreateRequest(doctorB, 2))
	require.NoError(t, err)

	slots, err := svc.ListSlots(ctx, &model.SlotFilters{DoctorID: doctorA})
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	slots, err = svc.ListSlots(ctx, &model.SlotFilters{
		DoctorID: doctorA,
		FromDate: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	assert.Empty(t, slots)
}
