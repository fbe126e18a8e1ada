package model

import (
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient      Role = "patient"
	RoleDoctor       Role = "doctor"
	RoleReceptionist Role = "receptionist"
	RoleRadiologist  Role = "radiologist"
	RoleAdmin        Role = "admin"
)

// Actor is the authenticated identity performing an operation. It is resolved
// once per request and passed explicitly into every workflow call; nothing in
// the engine reads session state ambiently.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

type Capability string

const (
	CapabilityViewRequestsStaff Capability = "view_requests_staff"
	CapabilityCreateRequest     Capability = "create_request"
	CapabilityCreateResult      Capability = "create_result"
	CapabilityViewOwnRecord     Capability = "view_own_record"
	CapabilityViewAnyRecord     Capability = "view_any_record"
	CapabilityBookAppointment   Capability = "book_appointment"
)

// Ownership carries the owner ids attached to a resource, used for
// ownership-scoped authorization. RadiologistID is nil until a radiologist
// has been assigned; an unassigned resource is visible to any radiologist.
type Ownership struct {
	PatientID     uuid.UUID
	DoctorID      uuid.UUID
	RadiologistID *uuid.UUID
}
