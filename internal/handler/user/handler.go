package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scms/clinic-api/internal/handler"
	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/service/workflow"
)

type Handler struct {
	workflow *workflow.Service
}

func NewHandler(workflowSvc *workflow.Service) *Handler {
	return &Handler{workflow: workflowSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
}

// ListUsers serves the staff directory, filtered by role.
func (h *Handler) ListUsers(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	role := model.Role(c.Query("role"))
	switch role {
	case model.RolePatient, model.RoleDoctor, model.RoleReceptionist, model.RoleRadiologist, model.RoleAdmin:
	default:
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid role"))
		return
	}

	users, err := h.workflow.ListUsersByRole(c.Request.Context(), actor, role)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(users))
}
