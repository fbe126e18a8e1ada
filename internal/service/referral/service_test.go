package referral

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository/memory"
	"github.com/scms/clinic-api/pkg/blob"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

type fixture struct {
	svc     *Service
	users   *memory.UserRepository
	repo    *memory.ReferralRepository
	doctor  *model.User
	patient *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := memory.NewUserRepository()
	repo := memory.NewReferralRepository(memory.NewRecordRepository())
	store := blob.NewFSStore(t.TempDir(), "/uploads")

	f := &fixture{
		svc:   NewService(repo, users, store),
		users: users,
		repo:  repo,
	}
	f.doctor = users.Add(&model.User{FullName: "Dr Test", Role: model.RoleDoctor, Active: true})
	f.patient = users.Add(&model.User{FullName: "Pat Test", Role: model.RolePatient, Active: true})
	return f
}

func (f *fixture) prescription(t *testing.T) *model.Prescription {
	t.Helper()
	p, err := f.svc.CreatePrescription(context.Background(), f.doctor.ID, &model.CreatePrescriptionRequest{
		PatientID: f.patient.ID,
		Diagnosis: "fracture suspected",
		Treatment: "immobilize, refer to radiology",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) request(t *testing.T, prescriptionID *uuid.UUID) *model.RadiologyRequest {
	t.Helper()
	r, err := f.svc.CreateRequest(context.Background(), &model.CreateRadiologyRequestRequest{
		PatientID:      f.patient.ID,
		DoctorID:       f.doctor.ID,
		TestName:       "left wrist x-ray",
		PrescriptionID: prescriptionID,
	})
	require.NoError(t, err)
	return r
}

func resultPayload() *model.FileResultRequest {
	return &model.FileResultRequest{
		Report:    "no fracture visible",
		ImageName: "scan.png",
		Image:     []byte("png-bytes"),
	}
}

func TestCreatePrescription(t *testing.T) {
	f := newFixture(t)

	p := f.prescription(t)
	assert.Equal(t, f.doctor.ID, p.DoctorID)
	assert.Equal(t, f.patient.ID, p.PatientID)

	// Unknown patient is a not-found, not a silent insert.
	_, err := f.svc.CreatePrescription(context.Background(), f.doctor.ID, &model.CreatePrescriptionRequest{
		PatientID: uuid.New(),
		Diagnosis: "x",
		Treatment: "y",
	})
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestCreateRequestValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Both parties must exist with the right role.
	_, err := f.svc.CreateRequest(ctx, &model.CreateRadiologyRequestRequest{
		PatientID: uuid.New(),
		DoctorID:  f.doctor.ID,
		TestName:  "chest x-ray",
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidReferral))

	_, err = f.svc.CreateRequest(ctx, &model.CreateRadiologyRequestRequest{
		PatientID: f.patient.ID,
		DoctorID:  uuid.New(),
		TestName:  "chest x-ray",
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidReferral))

	// A patient id in the doctor seat fails the role check.
	_, err = f.svc.CreateRequest(ctx, &model.CreateRadiologyRequestRequest{
		PatientID: f.patient.ID,
		DoctorID:  f.patient.ID,
		TestName:  "chest x-ray",
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidReferral))

	// None of the rejected requests was persisted.
	requests, err := f.svc.ListRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestCreateRequestPrescriptionLink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.prescription(t)
	r := f.request(t, &p.ID)
	assert.Equal(t, model.RequestStatusPending, r.Status)
	require.NotNil(t, r.PrescriptionID)
	assert.Equal(t, p.ID, *r.PrescriptionID)
	assert.Nil(t, r.RadiologistID)

	// Missing prescription.
	ghost := uuid.New()
	_, err := f.svc.CreateRequest(ctx, &model.CreateRadiologyRequestRequest{
		PatientID:      f.patient.ID,
		DoctorID:       f.doctor.ID,
		TestName:       "chest x-ray",
		PrescriptionID: &ghost,
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidReferral))

	// Prescription belonging to a different patient.
	other := f.users.Add(&model.User{FullName: "Other", Role: model.RolePatient, Active: true})
	_, err = f.svc.CreateRequest(ctx, &model.CreateRadiologyRequestRequest{
		PatientID:      other.ID,
		DoctorID:       f.doctor.ID,
		TestName:       "chest x-ray",
		PrescriptionID: &p.ID,
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidReferral))

	// Only the one valid request ever reached the store.
	requests, err := f.svc.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, r.ID, requests[0].ID)
}

func TestCreateResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	radiologist := uuid.New()

	r := f.request(t, nil)
	result, err := f.svc.CreateResult(ctx, radiologist, r.ID, resultPayload())
	require.NoError(t, err)
	assert.Equal(t, radiologist, result.RadiologistID)
	assert.Equal(t, "Completed", result.Status)
	assert.Contains(t, result.ImagePath, "ray_req"+r.ID.String())

	// The request transitioned and carries the radiologist stamp.
	completed, err := f.svc.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, completed.Status)
	require.NotNil(t, completed.RadiologistID)
	assert.Equal(t, radiologist, *completed.RadiologistID)
}

func TestCreateResultRequiresImage(t *testing.T) {
	f := newFixture(t)

	r := f.request(t, nil)
	payload := resultPayload()
	payload.Image = nil

	_, err := f.svc.CreateResult(context.Background(), uuid.New(), r.ID, payload)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonMissingAttachment))

	// Nothing transitioned.
	current, gerr := f.svc.GetRequest(context.Background(), r.ID)
	require.NoError(t, gerr)
	assert.Equal(t, model.RequestStatusPending, current.Status)
}

func TestCreateResultOnlyOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.request(t, nil)
	first, err := f.svc.CreateResult(ctx, uuid.New(), r.ID, resultPayload())
	require.NoError(t, err)

	_, err = f.svc.CreateResult(ctx, uuid.New(), r.ID, resultPayload())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonResultAlreadyExists))

	// The original result is untouched.
	stored, err := f.svc.GetResultForRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, first.RadiologistID, stored.RadiologistID)
}

// Two radiologists race to file a result for the same request; exactly one
// wins and the loser sees ResultAlreadyExists.
func TestCreateResultRace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	const racers = 16
	r := f.request(t, nil)

	var wg sync.WaitGroup
	errs := make([]error, racers)
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.CreateResult(ctx, uuid.New(), r.ID, resultPayload())
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperrors.HasReason(err, apperrors.ReasonResultAlreadyExists))
	}
	assert.Equal(t, 1, wins)
}

func TestCreateResultMissingRequest(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateResult(context.Background(), uuid.New(), uuid.New(), resultPayload())
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestDeletePrescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.prescription(t)
	f.request(t, &p.ID)

	// Referenced prescriptions stay put.
	err := f.svc.DeletePrescription(ctx, p.ID)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonPrescriptionInUse))

	_, err = f.svc.GetPrescription(ctx, p.ID)
	assert.NoError(t, err)

	// Unreferenced prescriptions are deletable.
	free := f.prescription(t)
	require.NoError(t, f.svc.DeletePrescription(ctx, free.ID))
	_, err = f.svc.GetPrescription(ctx, free.ID)
	assert.Equal(t, apperrors.ErrNotFound, apperrors.CodeOf(err))
}

func TestListPrescriptionsForPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.prescription(t)
	f.prescription(t)

	prescriptions, err := f.svc.ListPrescriptionsForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, prescriptions, 2)

	prescriptions, err = f.svc.ListPrescriptionsForPatient(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, prescriptions)
}

func TestListResultsForPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	r := f.request(t, nil)
	_, err := f.svc.CreateResult(ctx, uuid.New(), r.ID, resultPayload())
	require.NoError(t, err)

	results, err := f.svc.ListResultsForPatient(ctx, f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	results, err = f.svc.ListResultsForPatient(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, results)
}
