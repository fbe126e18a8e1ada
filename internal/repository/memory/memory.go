// Package memory provides in-memory repository implementations. They honor
// the same sentinel-error contract as the postgres repositories and are safe
// for concurrent use, which makes them suitable for tests and local
// development without a database.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
)

// UserRepository is a mutex-guarded user store.
type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]*model.User)}
}

// Add seeds a user, assigning an id when missing.
func (r *UserRepository) Add(u *model.User) *model.User {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
		u.UpdatedAt = u.CreatedAt
	}
	r.users[u.ID] = u
	return u
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (r *UserRepository) ExistsWithRole(ctx context.Context, id uuid.UUID, role model.Role) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	return ok && u.Role == role && u.Active, nil
}

func (r *UserRepository) List(ctx context.Context, role model.Role) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.User
	for _, u := range r.users {
		if u.Role == role && u.Active {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

// SlotRepository keeps slots and bookings under one lock so ReserveSeat and
// Cancel stay atomic, matching the transactional postgres behavior.
type SlotRepository struct {
	mu       sync.Mutex
	slots    map[uuid.UUID]*model.AppointmentSlot
	bookings map[uuid.UUID]*model.Booking
}

func NewSlotRepository() *SlotRepository {
	return &SlotRepository{
		slots:    make(map[uuid.UUID]*model.AppointmentSlot),
		bookings: make(map[uuid.UUID]*model.Booking),
	}
}

func (r *SlotRepository) Create(ctx context.Context, slot *model.AppointmentSlot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot.ID = uuid.New()
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = slot.CreatedAt
	copied := *slot
	r.slots[slot.ID] = &copied
	return nil
}

func (r *SlotRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *SlotRepository) List(ctx context.Context, filters *model.SlotFilters) ([]*model.AppointmentSlot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AppointmentSlot
	for _, s := range r.slots {
		if filters != nil {
			if filters.DoctorID != uuid.Nil && s.DoctorID != filters.DoctorID {
				continue
			}
			if filters.Status != "" && s.Status != filters.Status {
				continue
			}
			if !filters.FromDate.IsZero() && s.Date.Before(filters.FromDate) {
				continue
			}
		}
		copied := *s
		out = append(out, &copied)
	}
	return out, nil
}

func (r *SlotRepository) ReserveSeat(ctx context.Context, slotID, patientID uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok || s.Status != model.SlotStatusAvailable || s.BookedCount >= s.Capacity {
		return nil, repository.ErrNoSeat
	}

	s.BookedCount++
	if s.BookedCount >= s.Capacity {
		s.Status = model.SlotStatusFull
	}
	s.UpdatedAt = time.Now()

	b := &model.Booking{
		SlotID:    slotID,
		PatientID: patientID,
		Active:    true,
	}
	b.ID = uuid.New()
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.bookings[b.ID] = b

	copied := *b
	return &copied, nil
}

func (r *SlotRepository) Cancel(ctx context.Context, slotID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.slots[slotID]
	if !ok {
		return repository.ErrNotFound
	}
	if s.Status == model.SlotStatusCancelled {
		return repository.ErrDuplicate
	}
	s.Status = model.SlotStatusCancelled
	s.UpdatedAt = time.Now()
	for _, b := range r.bookings {
		if b.SlotID == slotID {
			b.Active = false
			b.UpdatedAt = time.Now()
		}
	}
	return nil
}

func (r *SlotRepository) GetBooking(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *b
	return &copied, nil
}

func (r *SlotRepository) ListBookings(ctx context.Context, slotID uuid.UUID) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.bookings {
		if b.SlotID == slotID {
			copied := *b
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *SlotRepository) CountActiveBookings(ctx context.Context, slotID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.bookings {
		if b.SlotID == slotID && b.Active {
			n++
		}
	}
	return n, nil
}

// ReferralRepository keeps the prescription, request and result stores under
// one lock; CreateResult's insert-plus-transition is atomic like its postgres
// counterpart. An optional RecordRepository lets CountPrescriptionRefs see
// medical record references too.
type ReferralRepository struct {
	mu            sync.Mutex
	prescriptions map[uuid.UUID]*model.Prescription
	requests      map[uuid.UUID]*model.RadiologyRequest
	results       map[uuid.UUID]*model.RadiologyResult
	byRequest     map[uuid.UUID]uuid.UUID
	records       *RecordRepository
}

func NewReferralRepository(records *RecordRepository) *ReferralRepository {
	return &ReferralRepository{
		prescriptions: make(map[uuid.UUID]*model.Prescription),
		requests:      make(map[uuid.UUID]*model.RadiologyRequest),
		results:       make(map[uuid.UUID]*model.RadiologyResult),
		byRequest:     make(map[uuid.UUID]uuid.UUID),
		records:       records,
	}
}

func (r *ReferralRepository) CreatePrescription(ctx context.Context, p *model.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := *p
	r.prescriptions[p.ID] = &copied
	return nil
}

func (r *ReferralRepository) GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.prescriptions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *ReferralRepository) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.prescriptions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.prescriptions, id)
	return nil
}

func (r *ReferralRepository) CountPrescriptionRefs(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	n := 0
	for _, req := range r.requests {
		if req.PrescriptionID != nil && *req.PrescriptionID == id {
			n++
		}
	}
	r.mu.Unlock()

	if r.records != nil {
		n += r.records.countPrescriptionRefs(id)
	}
	return n, nil
}

func (r *ReferralRepository) ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Prescription
	for _, p := range r.prescriptions {
		if p.PatientID == patientID {
			copied := *p
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *ReferralRepository) CreateRequest(ctx context.Context, req *model.RadiologyRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	copied := *req
	r.requests[req.ID] = &copied
	return nil
}

func (r *ReferralRepository) GetRequest(ctx context.Context, id uuid.UUID) (*model.RadiologyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *req
	return &copied, nil
}

func (r *ReferralRepository) ListRequests(ctx context.Context) ([]*model.RadiologyRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RadiologyRequest
	for _, req := range r.requests {
		copied := *req
		out = append(out, &copied)
	}
	return out, nil
}

func (r *ReferralRepository) CreateResult(ctx context.Context, res *model.RadiologyResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byRequest[res.RequestID]; exists {
		return repository.ErrDuplicate
	}
	req, ok := r.requests[res.RequestID]
	if !ok || req.Status != model.RequestStatusPending {
		return repository.ErrNotFound
	}

	res.ID = uuid.New()
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	copied := *res
	r.results[res.ID] = &copied
	r.byRequest[res.RequestID] = res.ID

	req.Status = model.RequestStatusCompleted
	radiologistID := res.RadiologistID
	req.RadiologistID = &radiologistID
	req.UpdatedAt = time.Now()
	return nil
}

func (r *ReferralRepository) GetResult(ctx context.Context, id uuid.UUID) (*model.RadiologyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.results[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *res
	return &copied, nil
}

func (r *ReferralRepository) GetResultForRequest(ctx context.Context, requestID uuid.UUID) (*model.RadiologyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	resID, ok := r.byRequest[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *r.results[resID]
	return &copied, nil
}

func (r *ReferralRepository) ListResultsForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RadiologyResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.RadiologyResult
	for _, res := range r.results {
		req, ok := r.requests[res.RequestID]
		if ok && req.PatientID == patientID {
			copied := *res
			out = append(out, &copied)
		}
	}
	return out, nil
}

// RecordRepository is a mutex-guarded medical record store.
type RecordRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*model.MedicalRecord
}

func NewRecordRepository() *RecordRepository {
	return &RecordRepository{records: make(map[uuid.UUID]*model.MedicalRecord)}
}

func (r *RecordRepository) Create(ctx context.Context, rec *model.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.ID = uuid.New()
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	copied := *rec
	r.records[rec.ID] = &copied
	return nil
}

func (r *RecordRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (r *RecordRepository) ListForPatient(ctx context.Context, patientID uuid.UUID, since time.Time) ([]*model.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*model.MedicalRecord
	for _, rec := range r.records {
		if rec.PatientID == patientID && !rec.RecordDate.Before(since) {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *RecordRepository) countPrescriptionRefs(id uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, rec := range r.records {
		if rec.PrescriptionID != nil && *rec.PrescriptionID == id {
			n++
		}
	}
	return n
}

// Interface conformance checks.
var (
	_ repository.UserRepository     = (*UserRepository)(nil)
	_ repository.SlotRepository     = (*SlotRepository)(nil)
	_ repository.ReferralRepository = (*ReferralRepository)(nil)
	_ repository.RecordRepository   = (*RecordRepository)(nil)
)
