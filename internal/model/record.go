package model

import (
	"time"

	"github.com/google/uuid"
)

// MedicalRecord is a read-oriented aggregation point. It links into the
// referral chain through weak references but never drives its transitions.
type MedicalRecord struct {
	Base
	PatientID         uuid.UUID  `db:"patient_id" json:"patient_id"`
	Description       string     `db:"description" json:"description"`
	RecordDate        time.Time  `db:"record_date" json:"record_date"`
	PrescriptionID    *uuid.UUID `db:"prescription_id" json:"prescription_id,omitempty"`
	RadiologyResultID *uuid.UUID `db:"radiology_result_id" json:"radiology_result_id,omitempty"`
}

// ProjectedRecord is the role-filtered view of a medical record handed to the
// presentation layer. Staff-only fields are left empty for patients.
type ProjectedRecord struct {
	ID                uuid.UUID  `json:"id"`
	PatientID         uuid.UUID  `json:"patient_id"`
	Description       string     `json:"description"`
	RecordDate        time.Time  `json:"record_date"`
	Diagnosis         string     `json:"diagnosis,omitempty"`
	Treatment         string     `json:"treatment,omitempty"`
	RadiologyTestName string     `json:"radiology_test_name,omitempty"`
	RadiologyStatus   string     `json:"radiology_status,omitempty"`

	// Staff-only projection fields.
	ClinicalNotes string     `json:"clinical_notes,omitempty"`
	DoctorID      *uuid.UUID `json:"doctor_id,omitempty"`
	RadiologistID *uuid.UUID `json:"radiologist_id,omitempty"`
}

// PatientFile is the clinical summary view of one patient: their
// prescriptions and medical records together.
type PatientFile struct {
	PatientID     uuid.UUID        `json:"patient_id"`
	Prescriptions []*Prescription  `json:"prescriptions"`
	Records       []*MedicalRecord `json:"records"`
}

type CreateMedicalRecordRequest struct {
	PatientID         uuid.UUID  `json:"patient_id" validate:"required"`
	Description       string     `json:"description" validate:"required"`
	PrescriptionID    *uuid.UUID `json:"prescription_id,omitempty"`
	RadiologyResultID *uuid.UUID `json:"radiology_result_id,omitempty"`
}
