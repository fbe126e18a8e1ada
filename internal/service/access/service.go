package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/repository"
	"github.com/scms/clinic-api/pkg/auth"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

const (
	actorCacheTTL     = time.Minute
	actorCacheCleanup = 5 * time.Minute
)

// capabilities is the fixed role -> capability table. It is not overridable
// at runtime; every entry point authorizes through it instead of re-deriving
// role logic ad hoc.
var capabilities = map[model.Role]map[model.Capability]bool{
	model.RolePatient: {
		model.CapabilityBookAppointment: true,
		model.CapabilityViewOwnRecord:   true,
	},
	model.RoleDoctor: {
		model.CapabilityCreateRequest: true,
		model.CapabilityViewOwnRecord: true,
	},
	model.RoleReceptionist: {
		model.CapabilityViewRequestsStaff: true,
		model.CapabilityCreateRequest:     true,
		model.CapabilityBookAppointment:   true,
		model.CapabilityViewAnyRecord:     true,
	},
	model.RoleRadiologist: {
		model.CapabilityViewRequestsStaff: true,
		model.CapabilityCreateResult:      true,
		model.CapabilityViewOwnRecord:     true,
	},
	model.RoleAdmin: {
		model.CapabilityViewRequestsStaff: true,
		model.CapabilityCreateRequest:     true,
		model.CapabilityViewAnyRecord:     true,
	},
}

type Service struct {
	users  repository.UserRepository
	tokens auth.TokenService
	actors *cache.Cache
}

func NewService(users repository.UserRepository, tokens auth.TokenService) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		actors: cache.New(actorCacheTTL, actorCacheCleanup),
	}
}

// ResolveActor turns a session token into the acting identity. The role comes
// from the user store, not the token, so a stale token cannot carry a revoked
// role past the guard.
func (s *Service) ResolveActor(ctx context.Context, token string) (*model.Actor, error) {
	if token == "" {
		return nil, apperrors.NotAuthenticated(nil)
	}

	// Cache under a digest of the token, not the token itself.
	cacheKey := tokenDigest(token)
	if cached, ok := s.actors.Get(cacheKey); ok {
		return cached.(*model.Actor), nil
	}

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperrors.NotAuthenticated(err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotAuthenticated(fmt.Errorf("unknown user %s", claims.UserID))
		}
		if errors.Is(err, repository.ErrUnavailable) {
			return nil, apperrors.Unavailable(err)
		}
		return nil, apperrors.Internal(err)
	}
	if !user.Active {
		return nil, apperrors.NotAuthenticated(fmt.Errorf("user %s is inactive", user.ID))
	}

	actor := &model.Actor{ID: user.ID, Role: user.Role}
	s.actors.Set(cacheKey, actor, cache.DefaultExpiration)
	return actor, nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Authorize checks the actor against the capability table.
func (s *Service) Authorize(actor *model.Actor, capability model.Capability) error {
	if actor == nil {
		return apperrors.NotAuthenticated(nil)
	}
	if capabilities[actor.Role][capability] {
		return nil
	}
	return apperrors.AccessDenied(fmt.Sprintf("role %s may not %s", actor.Role, capability))
}

// AuthorizeResource applies the ownership scope: a patient only reaches
// resources it is the subject of, a doctor only its own referrals, a
// radiologist only requests assigned to it (or not yet assigned). Staff roles
// with the any-record capability pass unconditionally. A mismatch is always a
// denial, never a silent miss, so probing an existing id leaks nothing.
func (s *Service) AuthorizeResource(actor *model.Actor, owners model.Ownership) error {
	if actor == nil {
		return apperrors.NotAuthenticated(nil)
	}

	switch actor.Role {
	case model.RoleAdmin, model.RoleReceptionist:
		return nil
	case model.RolePatient:
		if owners.PatientID == actor.ID {
			return nil
		}
	case model.RoleDoctor:
		if owners.DoctorID == actor.ID {
			return nil
		}
	case model.RoleRadiologist:
		if owners.RadiologistID == nil || *owners.RadiologistID == actor.ID {
			return nil
		}
	}
	return apperrors.AccessDenied("access denied")
}
