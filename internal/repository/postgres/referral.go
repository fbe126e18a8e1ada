package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
)

func (r *referralRepository) CreatePrescription(ctx context.Context, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, patient_id, doctor_id, diagnosis, treatment,
			radiology_requested, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.PatientID,
		p.DoctorID,
		p.Diagnosis,
		p.Treatment,
		p.RadiologyRequested,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create prescription", err)
	}
	return nil
}

func (r *referralRepository) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT id, patient_id, doctor_id, diagnosis, treatment,
		       radiology_requested, created_at, updated_at
		FROM prescriptions
		WHERE id = $1
	`
	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, wrapErr("get prescription", err)
	}
	return &p, nil
}

func (r *referralRepository) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM prescriptions WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete prescription", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return wrapErr("delete prescription", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// CountPrescriptionRefs counts radiology requests and medical records still
// holding a reference to the prescription.
func (r *referralRepository) CountPrescriptionRefs(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM radiology_requests WHERE prescription_id = $1) +
			(SELECT COUNT(*) FROM medical_records WHERE prescription_id = $1)
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, wrapErr("count prescription refs", err)
	}
	return count, nil
}

func (r *referralRepository) ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT id, patient_id, doctor_id, diagnosis, treatment,
		       radiology_requested, created_at, updated_at
		FROM prescriptions
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`
	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID); err != nil {
		return nil, wrapErr("list prescriptions", err)
	}
	return prescriptions, nil
}

func (r *referralRepository) CreateRequest(ctx context.Context, req *model.RadiologyRequest) error {
	query := `
		INSERT INTO radiology_requests (
			id, patient_id, doctor_id, prescription_id, test_name,
			clinical_notes, status, radiologist_id, request_date,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.PatientID,
		req.DoctorID,
		req.PrescriptionID,
		req.TestName,
		req.ClinicalNotes,
		req.Status,
		req.RadiologistID,
		req.RequestDate,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return wrapErr("create radiology request", err)
	}
	return nil
}

func (r *referralRepository) GetRequest(ctx context.Context, id uuid.UUID) (*model.RadiologyRequest, error) {
	query := `
		SELECT id, patient_id, doctor_id, prescription_id, test_name,
		       clinical_notes, status, radiologist_id, request_date,
		       created_at, updated_at
		FROM radiology_requests
		WHERE id = $1
	`
	var req model.RadiologyRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, wrapErr("get radiology request", err)
	}
	return &req, nil
}

func (r *referralRepository) ListRequests(ctx context.Context) ([]*model.RadiologyRequest, error) {
	query := `
		SELECT id, patient_id, doctor_id, prescription_id, test_name,
		       clinical_notes, status, radiologist_id, request_date,
		       created_at, updated_at
		FROM radiology_requests
		ORDER BY request_date DESC
	`
	var requests []*model.RadiologyRequest
	if err := r.db.SelectContext(ctx, &requests, query); err != nil {
		return nil, wrapErr("list radiology requests", err)
	}
	return requests, nil
}

// CreateResult relies on UNIQUE(request_id) to serialize concurrent filings:
// the insert and the request transition commit together, and the loser of a
// race sees ErrDuplicate.
func (r *referralRepository) CreateResult(ctx context.Context, res *model.RadiologyResult) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		res.ID = uuid.New()
		res.CreatedAt = time.Now()
		res.UpdatedAt = res.CreatedAt

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO radiology_results (
				id, request_id, radiologist_id, image_path, report,
				status, result_date, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			res.ID,
			res.RequestID,
			res.RadiologistID,
			res.ImagePath,
			res.Report,
			res.Status,
			res.ResultDate,
			res.CreatedAt,
			res.UpdatedAt,
		); err != nil {
			return wrapErr("create radiology result", err)
		}

		upd, err := tx.ExecContext(ctx, `
			UPDATE radiology_requests
			SET status = 'completed', radiologist_id = $2, updated_at = $3
			WHERE id = $1 AND status = 'pending'
		`, res.RequestID, res.RadiologistID, time.Now())
		if err != nil {
			return wrapErr("complete radiology request", err)
		}

		rows, err := upd.RowsAffected()
		if err != nil {
			return wrapErr("complete radiology request", err)
		}
		if rows == 0 {
			// Request missing or already completed; the insert above would
			// have hit the unique constraint for the completed case, so
			// this is an absent request.
			return repository.ErrNotFound
		}
		return nil
	})
}

func (r *referralRepository) GetResult(ctx context.Context, id uuid.UUID) (*model.RadiologyResult, error) {
	query := `
		SELECT id, request_id, radiologist_id, image_path, report,
		       status, result_date, created_at, updated_at
		FROM radiology_results
		WHERE id = $1
	`
	var res model.RadiologyResult
	if err := r.db.GetContext(ctx, &res, query, id); err != nil {
		return nil, wrapErr("get radiology result", err)
	}
	return &res, nil
}

func (r *referralRepository) GetResultForRequest(ctx context.Context, requestID uuid.UUID) (*model.RadiologyResult, error) {
	query := `
		SELECT id, request_id, radiologist_id, image_path, report,
		       status, result_date, created_at, updated_at
		FROM radiology_results
		WHERE request_id = $1
	`
	var res model.RadiologyResult
	if err := r.db.GetContext(ctx, &res, query, requestID); err != nil {
		return nil, wrapErr("get radiology result", err)
	}
	return &res, nil
}

func (r *referralRepository) ListResultsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyResult, error) {
	query := `
		SELECT res.id, res.request_id, res.radiologist_id, res.image_path,
		       res.report, res.status, res.result_date, res.created_at, res.updated_at
		FROM radiology_results res
		JOIN radiology_requests req ON req.id = res.request_id
		WHERE req.patient_id = $1
		ORDER BY res.result_date DESC
	`
	var results []*model.RadiologyResult
	if err := r.db.SelectContext(ctx, &results, query, patientID); err != nil {
		return nil, wrapErr("list radiology results", err)
	}
	return results, nil
}
