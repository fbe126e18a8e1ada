package model

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is terminal once created; it optionally flags that radiology
// follow-up was requested.
type Prescription struct {
	Base
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	DoctorID           uuid.UUID `db:"doctor_id" json:"doctor_id"`
	Diagnosis          string    `db:"diagnosis" json:"diagnosis"`
	Treatment          string    `db:"treatment" json:"treatment"`
	RadiologyRequested bool      `db:"radiology_requested" json:"radiology_requested"`
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusCompleted RequestStatus = "completed"
)

// RadiologyRequest moves Pending -> Completed exactly once, when its result is
// filed. PrescriptionID is a weak reference: if set, it must belong to the
// same (patient, doctor) pair.
type RadiologyRequest struct {
	Base
	PatientID      uuid.UUID     `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID     `db:"doctor_id" json:"doctor_id"`
	PrescriptionID *uuid.UUID    `db:"prescription_id" json:"prescription_id,omitempty"`
	TestName       string        `db:"test_name" json:"test_name"`
	ClinicalNotes  string        `db:"clinical_notes" json:"clinical_notes,omitempty"`
	Status         RequestStatus `db:"status" json:"status"`
	RadiologistID  *uuid.UUID    `db:"radiologist_id" json:"radiologist_id,omitempty"`
	RequestDate    time.Time     `db:"request_date" json:"request_date"`
}

// RadiologyResult holds at most one row per request (UNIQUE(request_id)).
// RadiologistID is always stamped from the acting identity, never from
// client input.
type RadiologyResult struct {
	Base
	RequestID     uuid.UUID `db:"request_id" json:"request_id"`
	RadiologistID uuid.UUID `db:"radiologist_id" json:"radiologist_id"`
	ImagePath     string    `db:"image_path" json:"image_path"`
	Report        string    `db:"report" json:"report"`
	Status        string    `db:"status" json:"status"`
	ResultDate    time.Time `db:"result_date" json:"result_date"`
}

type CreatePrescriptionRequest struct {
	PatientID          uuid.UUID `json:"patient_id" validate:"required"`
	Diagnosis          string    `json:"diagnosis" validate:"required"`
	Treatment          string    `json:"treatment" validate:"required"`
	RadiologyRequested bool      `json:"radiology_requested"`
}

type CreateRadiologyRequestRequest struct {
	PatientID      uuid.UUID  `json:"patient_id" validate:"required"`
	DoctorID       uuid.UUID  `json:"doctor_id"`
	TestName       string     `json:"test_name" validate:"required"`
	ClinicalNotes  string     `json:"clinical_notes"`
	PrescriptionID *uuid.UUID `json:"prescription_id,omitempty"`
}

type FileResultRequest struct {
	Report    string `json:"report" validate:"required"`
	Status    string `json:"status"`
	ImageName string `json:"image_name"`
	Image     []byte `json:"image"`
}
