package record

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

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
	records := rg.Group("/records")
	{
		records.POST("", h.CreateRecord)
		records.GET("/:id", h.GetRecord)
	}
	rg.GET("/patients/:id/file", h.PatientFile)
}

// PatientFile serves a patient's clinical summary: prescriptions plus
// medical records.
func (h *Handler) PatientFile(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	file, err := h.workflow.PatientFile(c.Request.Context(), actor, patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(file))
}

func (h *Handler) CreateRecord(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	rec, err := h.workflow.AddMedicalRecord(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(rec))
}

func (h *Handler) GetRecord(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid record ID"))
		return
	}

	rec, err := h.workflow.ViewRecord(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(rec))
}
