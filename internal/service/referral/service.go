package referral

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
	"github.com/scms/clinic-api/pkg/blob"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

const defaultResultStatus = "Completed"

// Service is the referral chain state machine: prescription ->
// radiology request -> radiology result, with at most one result per request.
type Service struct {
	repo  repository.ReferralRepository
	users repository.UserRepository
	blobs blob.Store
}

func NewService(repo repository.ReferralRepository, users repository.UserRepository, blobs blob.Store) *Service {
	return &Service{
		repo:  repo,
		users: users,
		blobs: blobs,
	}
}

// CreatePrescription records a terminal prescription authored by doctorID.
// The doctor id comes from the resolved actor, never from the payload.
func (s *Service) CreatePrescription(ctx context.Context, doctorID uuid.UUID, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	exists, err := s.users.ExistsWithRole(ctx, req.PatientID, model.RolePatient)
	if err != nil {
		return nil, storeErr("patient", err)
	}
	if !exists {
		return nil, apperrors.NotFound("patient", nil)
	}

	p := &model.Prescription{
		PatientID:          req.PatientID,
		DoctorID:           doctorID,
		Diagnosis:          req.Diagnosis,
		Treatment:          req.Treatment,
		RadiologyRequested: req.RadiologyRequested,
	}

	if err := s.repo.CreatePrescription(ctx, p); err != nil {
		return nil, storeErr("prescription", err)
	}
	return p, nil
}

// CreateRequest files a radiology request in the pending state. When a
// prescription is referenced it must belong to the same (patient, doctor)
// pair; a mismatch is rejected before anything is persisted.
func (s *Service) CreateRequest(ctx context.Context, req *model.CreateRadiologyRequestRequest) (*model.RadiologyRequest, error) {
	patientOK, err := s.users.ExistsWithRole(ctx, req.PatientID, model.RolePatient)
	if err != nil {
		return nil, storeErr("patient", err)
	}
	doctorOK, err := s.users.ExistsWithRole(ctx, req.DoctorID, model.RoleDoctor)
	if err != nil {
		return nil, storeErr("doctor", err)
	}
	if !patientOK || !doctorOK {
		return nil, apperrors.Validation(apperrors.ReasonInvalidReferral, "patient or doctor does not exist")
	}

	if req.PrescriptionID != nil {
		p, err := s.repo.GetPrescription(ctx, *req.PrescriptionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Validation(apperrors.ReasonInvalidReferral, "referenced prescription does not exist")
			}
			return nil, storeErr("prescription", err)
		}
		if p.PatientID != req.PatientID || p.DoctorID != req.DoctorID {
			return nil, apperrors.Validation(apperrors.ReasonInvalidReferral,
				"prescription does not belong to the given patient and doctor")
		}
	}

	r := &model.RadiologyRequest{
		PatientID:      req.PatientID,
		DoctorID:       req.DoctorID,
		PrescriptionID: req.PrescriptionID,
		TestName:       req.TestName,
		ClinicalNotes:  req.ClinicalNotes,
		Status:         model.RequestStatusPending,
		RequestDate:    time.Now(),
	}

	if err := s.repo.CreateRequest(ctx, r); err != nil {
		return nil, storeErr("radiology request", err)
	}
	return r, nil
}

// CreateResult files the single result for a request, uploads the image and
// completes the request. The radiologist id is the acting identity; a second
// filing for the same request fails with ResultAlreadyExists and leaves the
// original untouched.
func (s *Service) CreateResult(ctx context.Context, radiologistID, requestID uuid.UUID, req *model.FileResultRequest) (*model.RadiologyResult, error) {
	if len(req.Image) == 0 {
		return nil, apperrors.Validation(apperrors.ReasonMissingAttachment, "a radiology image upload is required")
	}

	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, storeErr("radiology request", err)
	}
	if request.Status == model.RequestStatusCompleted {
		return nil, apperrors.Conflict(apperrors.ReasonResultAlreadyExists, "request already has a result")
	}

	// Keys embed the request id and upload time, so retries and concurrent
	// filings never overwrite an existing image.
	key := blob.RadiologyKey(requestID.String(), req.ImageName)
	path, err := s.blobs.Put(ctx, key, req.Image)
	if err != nil {
		return nil, apperrors.Unavailable(fmt.Errorf("image upload: %w", err))
	}

	status := req.Status
	if status == "" {
		status = defaultResultStatus
	}

	result := &model.RadiologyResult{
		RequestID:     requestID,
		RadiologistID: radiologistID,
		ImagePath:     path,
		Report:        req.Report,
		Status:        status,
		ResultDate:    time.Now(),
	}

	if err := s.repo.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict(apperrors.ReasonResultAlreadyExists, "request already has a result")
		}
		return nil, storeErr("radiology result", err)
	}
	return result, nil
}

// DeletePrescription enforces the weak-reference policy: deletion is refused
// while any radiology request or medical record still points at the
// prescription, so a stored id never dangles.
func (s *Service) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountPrescriptionRefs(ctx, id)
	if err != nil {
		return storeErr("prescription", err)
	}
	if refs > 0 {
		return apperrors.Conflict(apperrors.ReasonPrescriptionInUse,
			fmt.Sprintf("prescription is referenced by %d records", refs))
	}
	if err := s.repo.DeletePrescription(ctx, id); err != nil {
		return storeErr("prescription", err)
	}
	return nil
}

func (s *Service) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	p, err := s.repo.GetPrescription(ctx, id)
	if err != nil {
		return nil, storeErr("prescription", err)
	}
	return p, nil
}

func (s *Service) GetRequest(ctx context.Context, id uuid.UUID) (*model.RadiologyRequest, error) {
	r, err := s.repo.GetRequest(ctx, id)
	if err != nil {
		return nil, storeErr("radiology request", err)
	}
	return r, nil
}

func (s *Service) GetResult(ctx context.Context, id uuid.UUID) (*model.RadiologyResult, error) {
	r, err := s.repo.GetResult(ctx, id)
	if err != nil {
		return nil, storeErr("radiology result", err)
	}
	return r, nil
}

func (s *Service) GetResultForRequest(ctx context.Context, requestID uuid.UUID) (*model.RadiologyResult, error) {
	r, err := s.repo.GetResultForRequest(ctx, requestID)
	if err != nil {
		return nil, storeErr("radiology result", err)
	}
	return r, nil
}

func (s *Service) ListRequests(ctx context.Context) ([]*model.RadiologyRequest, error) {
	requests, err := s.repo.ListRequests(ctx)
	if err != nil {
		return nil, storeErr("radiology requests", err)
	}
	return requests, nil
}

func (s *Service) ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	prescriptions, err := s.repo.ListPrescriptionsForPatient(ctx, patientID)
	if err != nil {
		return nil, storeErr("prescriptions", err)
	}
	return prescriptions, nil
}

func (s *Service) ListResultsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyResult, error) {
	results, err := s.repo.ListResultsForPatient(ctx, patientID)
	if err != nil {
		return nil, storeErr("radiology results", err)
	}
	return results, nil
}

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
