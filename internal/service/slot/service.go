package slot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

// Service is the slot ledger: it owns slot capacity counters and guarantees
// no slot is ever booked past capacity.
type Service struct {
	repo repository.SlotRepository
}

func NewService(repo repository.SlotRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateSlot(ctx context.Context, req *model.CreateSlotRequest) (*model.AppointmentSlot, error) {
	if req.Capacity < 1 {
		return nil, apperrors.Validation(apperrors.ReasonInvalidSlot, "capacity must be at least 1")
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.Validation(apperrors.ReasonInvalidSlot, "end time must be after start time")
	}
	if req.DoctorID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.ReasonInvalidSlot, "doctor is required")
	}

	slot := &model.AppointmentSlot{
		DoctorID:    req.DoctorID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		BookedCount: 0,
		Status:      model.SlotStatusAvailable,
	}

	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, storeErr("slot", err)
	}
	return slot, nil
}

// BookSlot claims one seat. The repository performs the conditional increment
// and booking insert atomically; a zero-row update is disambiguated here by
// re-reading the slot, so the caller always learns whether the seat race was
// lost to capacity, cancellation or a missing slot.
func (s *Service) BookSlot(ctx context.Context, slotID, patientID uuid.UUID) (*model.Booking, error) {
	if patientID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.ReasonInvalidSlot, "patient is required")
	}

	booking, err := s.repo.ReserveSeat(ctx, slotID, patientID)
	if err == nil {
		return booking, nil
	}

	if errors.Is(err, repository.ErrNoSeat) {
		slot, gerr := s.repo.Get(ctx, slotID)
		if gerr != nil {
			if errors.Is(gerr, repository.ErrNotFound) {
				return nil, apperrors.NotFound("slot", gerr)
			}
			return nil, storeErr("slot", gerr)
		}
		switch slot.Status {
		case model.SlotStatusCancelled:
			return nil, apperrors.Conflict(apperrors.ReasonSlotCancelled, "slot has been cancelled")
		case model.SlotStatusCompleted:
			return nil, apperrors.Conflict(apperrors.ReasonSlotCancelled, "slot is already completed")
		default:
			return nil, apperrors.Conflict(apperrors.ReasonSlotFull, "slot is fully booked")
		}
	}

	return nil, storeErr("slot", err)
}

// CancelSlot marks the slot cancelled and its bookings inactive; booking rows
// survive as attendance history.
func (s *Service) CancelSlot(ctx context.Context, slotID uuid.UUID) error {
	err := s.repo.Cancel(ctx, slotID)
	if err == nil {
		return nil
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return apperrors.Conflict(apperrors.ReasonSlotCancelled, "slot is already cancelled")
	}
	return storeErr("slot", err)
}

func (s *Service) GetSlot(ctx context.Context, slotID uuid.UUID) (*model.AppointmentSlot, error) {
	slot, err := s.repo.Get(ctx, slotID)
	if err != nil {
		return nil, storeErr("slot", err)
	}
	return slot, nil
}

func (s *Service) ListSlots(ctx context.Context, filters *model.SlotFilters) ([]*model.AppointmentSlot, error) {
	slots, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, storeErr("slots", err)
	}
	return slots, nil
}

func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, storeErr("booking", err)
	}
	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, slotID uuid.UUID) ([]*model.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx, slotID)
	if err != nil {
		return nil, storeErr("bookings", err)
	}
	return bookings, nil
}

// storeErr translates repository sentinels into typed application errors.
func storeErr(resource string, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(resource, err)
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(fmt.Errorf("%s: %w", resource, err))
	}
}
