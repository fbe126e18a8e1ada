package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
)

func (r *recordRepository) Create(ctx context.Context, rec *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (
			id, patient_id, description, record_date,
			prescription_id, radiology_result_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		rec.ID,
		rec.PatientID,
		rec.Description,
		rec.RecordDate,
		rec.PrescriptionID,
		rec.RadiologyResultID,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create medical record", err)
	}
	return nil
}

func (r *recordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	query := `
		SELECT id, patient_id, description, record_date,
		       prescription_id, radiology_result_id, created_at, updated_at
		FROM medical_records
		WHERE id = $1
	`
	var rec model.MedicalRecord
	if err := r.db.GetContext(ctx, &rec, query, id); err != nil {
		return nil, wrapErr("get medical record", err)
	}
	return &rec, nil
}

func (r *recordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicalRecord, error) {
	query := `
		SELECT id, patient_id, description, record_date,
		       prescription_id, radiology_result_id, created_at, updated_at
		FROM medical_records
		WHERE patient_id = $1 AND record_date >= $2
		ORDER BY record_date DESC
	`
	var records []*model.MedicalRecord
	if err := r.db.SelectContext(ctx, &records, query, patientID, since); err != nil {
		return nil, wrapErr("list medical records", err)
	}
	return records, nil
}
