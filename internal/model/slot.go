package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusAvailable SlotStatus = "available"
	SlotStatusFull      SlotStatus = "full"
	SlotStatusCancelled SlotStatus = "cancelled"
	SlotStatusCompleted SlotStatus = "completed"
)

// AppointmentSlot is a fixed-capacity doctor time window patients book into.
// Invariant: 0 <= BookedCount <= Capacity, and BookedCount equals the number
// of active bookings referencing the slot.
type AppointmentSlot struct {
	Base
	DoctorID    uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Date        time.Time  `db:"slot_date" json:"date"`
	StartTime   time.Time  `db:"start_time" json:"start_time"`
	EndTime     time.Time  `db:"end_time" json:"end_time"`
	Capacity    int        `db:"capacity" json:"capacity"`
	BookedCount int        `db:"booked_count" json:"booked_count"`
	Status      SlotStatus `db:"status" json:"status"`
}

// Booking is a patient's claim on one seat of a slot. Cancelling a slot marks
// its bookings inactive rather than deleting them, preserving attendance
// history.
type Booking struct {
	Base
	SlotID    uuid.UUID `db:"slot_id" json:"slot_id"`
	PatientID uuid.UUID `db:"patient_id" json:"patient_id"`
	Active    bool      `db:"active" json:"active"`
}

type CreateSlotRequest struct {
	DoctorID  uuid.UUID `json:"doctor_id" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required"`
	Capacity  int       `json:"capacity" validate:"required,min=1"`
}

type BookSlotRequest struct {
	SlotID    uuid.UUID `json:"slot_id" validate:"required"`
	PatientID uuid.UUID `json:"patient_id"`
}

type SlotFilters struct {
	DoctorID uuid.UUID
	Status   SlotStatus
	FromDate time.Time
}
