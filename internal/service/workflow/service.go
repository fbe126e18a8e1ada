package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
	"github.com/scms/clinic-api/internal/service/access"
	"github.com/scms/clinic-api/internal/service/referral"
	"github.com/scms/clinic-api/internal/service/slot"
	apperrors "github.com/scms/clinic-api/pkg/errors"
	"github.com/scms/clinic-api/pkg/messaging"
	"github.com/scms/clinic-api/pkg/metrics"
)

// Workflow event types published on the broker.
const (
	EventBookingCreated = "workflow.booking_created"
	EventSlotCancelled  = "workflow.slot_cancelled"
	EventRequestFiled   = "workflow.request_filed"
	EventResultFiled    = "workflow.result_filed"
)

// Service composes the access guard, slot ledger and referral chain into the
// role-correct operations the controller layer calls. Every operation takes
// the resolved actor explicitly; authorship fields are always derived from
// it, never from the request payload.
type Service struct {
	guard     *access.Service
	slots     *slot.Service
	referrals *referral.Service
	records   repository.RecordRepository
	users     repository.UserRepository
	events    messaging.Publisher
	metrics   *metrics.Metrics
}

func NewService(
	guard *access.Service,
	slots *slot.Service,
	referrals *referral.Service,
	records repository.RecordRepository,
	users repository.UserRepository,
	events messaging.Publisher,
	m *metrics.Metrics,
) *Service {
	return &Service{
		guard:     guard,
		slots:     slots,
		referrals: referrals,
		records:   records,
		users:     users,
		events:    events,
		metrics:   m,
	}
}

// BookAppointment books one seat of a slot. Patients book for themselves
// only; receptionists book on behalf of a patient.
func (s *Service) BookAppointment(ctx context.Context, actor *model.Actor, slotID, patientID uuid.UUID) (*model.Booking, error) {
	if err := s.authorize(actor, model.CapabilityBookAppointment); err != nil {
		return nil, err
	}

	subject := patientID
	if actor.Role == model.RolePatient {
		if patientID != uuid.Nil && patientID != actor.ID {
			return nil, apperrors.AccessDenied("patients may only book for themselves")
		}
		subject = actor.ID
	} else if subject == uuid.Nil {
		return nil, apperrors.Validation(apperrors.ReasonInvalidSlot, "patient is required")
	}

	booking, err := s.slots.BookSlot(ctx, slotID, subject)
	if err != nil {
		if s.metrics != nil && apperrors.CodeOf(err) == apperrors.ErrConflict {
			s.metrics.BookingConflicts.WithLabelValues(string(apperrors.ReasonOf(err))).Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsTotal.Inc()
	}
	s.publish(ctx, EventBookingCreated, map[string]interface{}{
		"booking_id": booking.ID,
		"slot_id":    booking.SlotID,
		"patient_id": booking.PatientID,
		"booked_by":  actor.ID,
	})
	return booking, nil
}

// CreateSlot opens a bookable time window. Doctors open their own slots;
// admins may open slots for any doctor.
func (s *Service) CreateSlot(ctx context.Context, actor *model.Actor, req *model.CreateSlotRequest) (*model.AppointmentSlot, error) {
	switch actor.Role {
	case model.RoleDoctor:
		req.DoctorID = actor.ID
	case model.RoleAdmin:
	default:
		return nil, apperrors.AccessDenied(fmt.Sprintf("role %s may not create slots", actor.Role))
	}

	created, err := s.slots.CreateSlot(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SlotsCreated.Inc()
	}
	return created, nil
}

// CancelSlot cancels a slot the actor controls. Bookings survive as inactive
// history.
func (s *Service) CancelSlot(ctx context.Context, actor *model.Actor, slotID uuid.UUID) error {
	sl, err := s.slots.GetSlot(ctx, slotID)
	if err != nil {
		return err
	}
	if err := s.guard.AuthorizeResource(actor, model.Ownership{DoctorID: sl.DoctorID}); err != nil {
		return err
	}

	if err := s.slots.CancelSlot(ctx, slotID); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.SlotsCancelled.Inc()
	}
	s.publish(ctx, EventSlotCancelled, map[string]interface{}{
		"slot_id":      slotID,
		"cancelled_by": actor.ID,
	})
	return nil
}

// IssuePrescription records a prescription authored by the acting doctor.
func (s *Service) IssuePrescription(ctx context.Context, actor *model.Actor, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if actor == nil {
		return nil, apperrors.NotAuthenticated(nil)
	}
	if actor.Role != model.RoleDoctor {
		return nil, apperrors.AccessDenied("only doctors may issue prescriptions")
	}

	p, err := s.referrals.CreatePrescription(ctx, actor.ID, req)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.PrescriptionsIssued.Inc()
	}
	return p, nil
}

// FileRadiologyRequest files a pending radiology request. A doctor's own id
// always overrides the payload; receptionists and admins must name the
// requesting doctor.
func (s *Service) FileRadiologyRequest(ctx context.Context, actor *model.Actor, req *model.CreateRadiologyRequestRequest) (*model.RadiologyRequest, error) {
	if err := s.authorize(actor, model.CapabilityCreateRequest); err != nil {
		return nil, err
	}

	if actor.Role == model.RoleDoctor {
		req.DoctorID = actor.ID
	} else if req.DoctorID == uuid.Nil {
		return nil, apperrors.Validation(apperrors.ReasonInvalidReferral, "doctor is required")
	}

	r, err := s.referrals.CreateRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RequestsFiled.Inc()
	}
	s.publish(ctx, EventRequestFiled, map[string]interface{}{
		"request_id": r.ID,
		"patient_id": r.PatientID,
		"doctor_id":  r.DoctorID,
		"filed_by":   actor.ID,
	})
	return r, nil
}

// FileRadiologyResult files the single result for a request. The radiologist
// is stamped from the acting identity.
func (s *Service) FileRadiologyResult(ctx context.Context, actor *model.Actor, requestID uuid.UUID, req *model.FileResultRequest) (*model.RadiologyResult, error) {
	if err := s.authorize(actor, model.CapabilityCreateResult); err != nil {
		return nil, err
	}

	result, err := s.referrals.CreateResult(ctx, actor.ID, requestID, req)
	if err != nil {
		if s.metrics != nil && apperrors.HasReason(err, apperrors.ReasonResultAlreadyExists) {
			s.metrics.ResultConflicts.Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ResultsFiled.Inc()
	}
	s.publish(ctx, EventResultFiled, map[string]interface{}{
		"result_id":      result.ID,
		"request_id":     result.RequestID,
		"radiologist_id": result.RadiologistID,
	})
	return result, nil
}

// ViewRecord fetches a medical record, applies the ownership scope and
// returns the projection the actor's role is permitted to see.
func (s *Service) ViewRecord(ctx context.Context, actor *model.Actor, recordID uuid.UUID) (*model.ProjectedRecord, error) {
	rec, err := s.records.Get(ctx, recordID)
	if err != nil {
		return nil, recordStoreErr(err)
	}

	owners := model.Ownership{PatientID: rec.PatientID}

	var prescription *model.Prescription
	if rec.PrescriptionID != nil {
		prescription, err = s.referrals.GetPrescription(ctx, *rec.PrescriptionID)
		if err != nil {
			if apperrors.CodeOf(err) != apperrors.ErrNotFound {
				return nil, err
			}
			// Dangling weak reference; deletion policy should prevent this,
			// so surface it in the logs and project without the link.
			log.Warn().Str("record_id", recordID.String()).Msg("medical record references a missing prescription")
		} else {
			owners.DoctorID = prescription.DoctorID
		}
	}

	var result *model.RadiologyResult
	var request *model.RadiologyRequest
	if rec.RadiologyResultID != nil {
		result, err = s.referrals.GetResult(ctx, *rec.RadiologyResultID)
		if err != nil {
			if apperrors.CodeOf(err) != apperrors.ErrNotFound {
				return nil, err
			}
			log.Warn().Str("record_id", recordID.String()).Msg("medical record references a missing radiology result")
		} else {
			owners.RadiologistID = &result.RadiologistID
			request, err = s.referrals.GetRequest(ctx, result.RequestID)
			if err != nil && apperrors.CodeOf(err) != apperrors.ErrNotFound {
				return nil, err
			}
		}
	}

	if err := s.guard.AuthorizeResource(actor, owners); err != nil {
		return nil, err
	}

	projected := &model.ProjectedRecord{
		ID:          rec.ID,
		PatientID:   rec.PatientID,
		Description: rec.Description,
		RecordDate:  rec.RecordDate,
	}
	if prescription != nil {
		projected.Diagnosis = prescription.Diagnosis
		projected.Treatment = prescription.Treatment
	}
	if result != nil {
		projected.RadiologyStatus = result.Status
	}
	if request != nil {
		projected.RadiologyTestName = request.TestName
	}

	// Staff-only fields stay empty for patients.
	if actor.Role != model.RolePatient {
		if prescription != nil {
			doctorID := prescription.DoctorID
			projected.DoctorID = &doctorID
		}
		if result != nil {
			radiologistID := result.RadiologistID
			projected.RadiologistID = &radiologistID
		}
		if request != nil {
			projected.ClinicalNotes = request.ClinicalNotes
		}
	}
	return projected, nil
}

// AddMedicalRecord links a new record into the chain. Weak references must
// resolve at creation time.
func (s *Service) AddMedicalRecord(ctx context.Context, actor *model.Actor, req *model.CreateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if actor == nil {
		return nil, apperrors.NotAuthenticated(nil)
	}
	if actor.Role != model.RoleDoctor && actor.Role != model.RoleAdmin {
		return nil, apperrors.AccessDenied("only doctors may add medical records")
	}

	if req.PrescriptionID != nil {
		if _, err := s.referrals.GetPrescription(ctx, *req.PrescriptionID); err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrNotFound {
				return nil, apperrors.Validation(apperrors.ReasonInvalidReferral, "referenced prescription does not exist")
			}
			return nil, err
		}
	}
	if req.RadiologyResultID != nil {
		if _, err := s.referrals.GetResult(ctx, *req.RadiologyResultID); err != nil {
			if apperrors.CodeOf(err) == apperrors.ErrNotFound {
				return nil, apperrors.Validation(apperrors.ReasonInvalidReferral, "referenced radiology result does not exist")
			}
			return nil, err
		}
	}

	rec := &model.MedicalRecord{
		PatientID:         req.PatientID,
		Description:       req.Description,
		RecordDate:        time.Now(),
		PrescriptionID:    req.PrescriptionID,
		RadiologyResultID: req.RadiologyResultID,
	}
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, recordStoreErr(err)
	}
	return rec, nil
}

// GetRadiologyRequest returns a request the actor is authorized to see.
func (s *Service) GetRadiologyRequest(ctx context.Context, actor *model.Actor, requestID uuid.UUID) (*model.RadiologyRequest, error) {
	r, err := s.referrals.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeResource(actor, model.Ownership{
		PatientID:     r.PatientID,
		DoctorID:      r.DoctorID,
		RadiologistID: r.RadiologistID,
	}); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRadiologyResult returns a result the actor is authorized to see;
// ownership of the patient and doctor comes from the owning request.
func (s *Service) GetRadiologyResult(ctx context.Context, actor *model.Actor, resultID uuid.UUID) (*model.RadiologyResult, error) {
	result, err := s.referrals.GetResult(ctx, resultID)
	if err != nil {
		return nil, err
	}
	request, err := s.referrals.GetRequest(ctx, result.RequestID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeResource(actor, model.Ownership{
		PatientID:     request.PatientID,
		DoctorID:      request.DoctorID,
		RadiologistID: &result.RadiologistID,
	}); err != nil {
		return nil, err
	}
	return result, nil
}

// ListRequestsForStaff lists every request for staff roles.
func (s *Service) ListRequestsForStaff(ctx context.Context, actor *model.Actor) ([]*model.RadiologyRequest, error) {
	if err := s.authorize(actor, model.CapabilityViewRequestsStaff); err != nil {
		return nil, err
	}
	return s.referrals.ListRequests(ctx)
}

// ListResultsForPatient lists a patient's results. Patients see only their
// own; doctors, radiologists and admins see any patient's.
func (s *Service) ListResultsForPatient(ctx context.Context, actor *model.Actor, patientID uuid.UUID) ([]*model.RadiologyResult, error) {
	if actor == nil {
		return nil, apperrors.NotAuthenticated(nil)
	}
	switch actor.Role {
	case model.RolePatient:
		if patientID != actor.ID {
			return nil, apperrors.AccessDenied("patients may only view their own results")
		}
	case model.RoleDoctor, model.RoleRadiologist, model.RoleAdmin:
	default:
		return nil, apperrors.AccessDenied(fmt.Sprintf("role %s may not view patient results", actor.Role))
	}
	return s.referrals.ListResultsForPatient(ctx, patientID)
}

// GetBooking returns one booking with its ownership scope applied: the booked
// patient, the slot's doctor and unrestricted staff may see it.
func (s *Service) GetBooking(ctx context.Context, actor *model.Actor, bookingID uuid.UUID) (*model.Booking, error) {
	booking, err := s.slots.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	sl, err := s.slots.GetSlot(ctx, booking.SlotID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.AuthorizeResource(actor, model.Ownership{
		PatientID: booking.PatientID,
		DoctorID:  sl.DoctorID,
	}); err != nil {
		return nil, err
	}
	return booking, nil
}

// PatientFile aggregates one patient's prescriptions and medical records.
// Patients read their own file; doctors, receptionists and admins any.
func (s *Service) PatientFile(ctx context.Context, actor *model.Actor, patientID uuid.UUID) (*model.PatientFile, error) {
	if actor == nil {
		return nil, apperrors.NotAuthenticated(nil)
	}
	switch actor.Role {
	case model.RolePatient:
		if patientID != actor.ID {
			return nil, apperrors.AccessDenied("patients may only view their own file")
		}
	case model.RoleDoctor, model.RoleReceptionist, model.RoleAdmin:
	default:
		return nil, apperrors.AccessDenied(fmt.Sprintf("role %s may not view patient files", actor.Role))
	}

	prescriptions, err := s.referrals.ListPrescriptionsForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	records, err := s.records.ListForPatient(ctx, patientID, time.Time{})
	if err != nil {
		return nil, recordStoreErr(err)
	}

	return &model.PatientFile{
		PatientID:     patientID,
		Prescriptions: prescriptions,
		Records:       records,
	}, nil
}

// ListUsersByRole lists active users of a role for the staff directory,
// used by reception when booking on behalf of patients or naming a
// requesting doctor.
func (s *Service) ListUsersByRole(ctx context.Context, actor *model.Actor, role model.Role) ([]*model.User, error) {
	if err := s.authorize(actor, model.CapabilityViewAnyRecord); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, role)
	if err != nil {
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, apperrors.Unavailable(err)
		}
		return nil, apperrors.Internal(err)
	}
	return users, nil
}

// ListSlotsForDoctor lists a doctor's slots from the given date.
func (s *Service) ListSlotsForDoctor(ctx context.Context, actor *model.Actor, doctorID uuid.UUID, from time.Time) ([]*model.AppointmentSlot, error) {
	if actor == nil {
		return nil, apperrors.NotAuthenticated(nil)
	}
	return s.slots.ListSlots(ctx, &model.SlotFilters{DoctorID: doctorID, FromDate: from})
}

// DeletePrescription removes a prescription under the weak-reference policy.
// Doctors may delete their own; admins any.
func (s *Service) DeletePrescription(ctx context.Context, actor *model.Actor, id uuid.UUID) error {
	p, err := s.referrals.GetPrescription(ctx, id)
	if err != nil {
		return err
	}
	switch actor.Role {
	case model.RoleAdmin:
	case model.RoleDoctor:
		if p.DoctorID != actor.ID {
			return apperrors.AccessDenied("doctors may only delete their own prescriptions")
		}
	default:
		return apperrors.AccessDenied(fmt.Sprintf("role %s may not delete prescriptions", actor.Role))
	}
	return s.referrals.DeletePrescription(ctx, id)
}

func (s *Service) authorize(actor *model.Actor, capability model.Capability) error {
	if err := s.guard.Authorize(actor, capability); err != nil {
		if s.metrics != nil && apperrors.CodeOf(err) == apperrors.ErrForbidden {
			s.metrics.AuthDenials.WithLabelValues(string(capability)).Inc()
		}
		return err
	}
	return nil
}

// publish sends a workflow event best-effort; a broker failure never fails
// the operation that produced it.
func (s *Service) publish(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, eventType, payload); err != nil {
		log.Warn().Err(err).Str("event", eventType).Msg("failed to publish workflow event")
	}
}

func recordStoreErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("medical record", err)
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.Unavailable(err)
	default:
		return apperrors.Internal(err)
	}
}
