package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/scms/clinic-api/internal/model"
	apperrors "github.com/scms/clinic-api/pkg/errors"
)

// ContextActor is the gin context key the auth middleware stores the resolved
// actor under.
const ContextActor = "actor"

// CurrentActor returns the actor resolved by the auth middleware.
func CurrentActor(c *gin.Context) (*model.Actor, error) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return nil, apperrors.NotAuthenticated(nil)
	}
	actor, ok := v.(*model.Actor)
	if !ok {
		return nil, apperrors.NotAuthenticated(nil)
	}
	return actor, nil
}
