package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
)

// Sentinel errors returned by repositories. Services translate them into the
// typed application errors; repositories stay ignorant of HTTP semantics.
var (
	ErrNotFound    = errors.New("not found")
	ErrNoSeat      = errors.New("no seat available")
	ErrDuplicate   = errors.New("duplicate entry")
	ErrUnavailable = errors.New("store unavailable")
)

// All repository interfaces in one file
type (
	// UserRepository resolves users for actor lookups and existence checks.
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		ExistsWithRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error)
		List(ctx context.Context, role model.Role) ([]*model.User, error)
	}

	// SlotRepository owns appointment slots and their bookings.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.AppointmentSlot) error
		Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error)
		List(ctx context.Context, filters *model.SlotFilters) ([]*model.AppointmentSlot, error)
		// ReserveSeat atomically claims one seat: the conditional increment of
		// booked_count and the booking insert commit together or not at all.
		// Returns ErrNoSeat when the slot is absent, full or not available.
		ReserveSeat(ctx context.Context, slotID, patientID uuid.UUID) (*model.Booking, error)
		// Cancel sets the slot cancelled and deactivates its bookings in one
		// transaction. Returns ErrNotFound for absent slots, ErrDuplicate when
		// the slot is already cancelled.
		Cancel(ctx context.Context, slotID uuid.UUID) error
		GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		ListBookings(ctx context.Context, slotID uuid.UUID) ([]*model.Booking, error)
		CountActiveBookings(ctx context.Context, slotID uuid.UUID) (int, error)
	}

	// ReferralRepository persists the prescription -> request -> result chain.
	ReferralRepository interface {
		CreatePrescription(ctx context.Context, p *model.Prescription) error
		GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
		// DeletePrescription removes the row only when nothing references it;
		// callers must check CountPrescriptionRefs first.
		DeletePrescription(ctx context.Context, id uuid.UUID) error
		CountPrescriptionRefs(ctx context.Context, id uuid.UUID) (int, error)
		ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)

		CreateRequest(ctx context.Context, r *model.RadiologyRequest) error
		GetRequest(ctx context.Context, id uuid.UUID) (*model.RadiologyRequest, error)
		ListRequests(ctx context.Context) ([]*model.RadiologyRequest, error)

		// CreateResult inserts the result and transitions the owning request
		// to completed, stamping the radiologist, in a single transaction.
		// Returns ErrDuplicate when the request already holds a result.
		CreateResult(ctx context.Context, res *model.RadiologyResult) error
		GetResult(ctx context.Context, id uuid.UUID) (*model.RadiologyResult, error)
		GetResultForRequest(ctx context.Context, requestID uuid.UUID) (*model.RadiologyResult, error)
		ListResultsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyResult, error)
	}

	// RecordRepository stores the read-oriented medical record aggregation.
	RecordRepository interface {
		Create(ctx context.Context, rec *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		ListForPatient(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicalRecord, error)
	}
)
