package slot

import (
	"net/http"
	"time"

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
	slots := rg.Group("/slots")
	{
		slots.POST("", h.CreateSlot)
		slots.POST("/:id/bookings", h.BookAppointment)
		slots.POST("/:id/cancel", h.CancelSlot)
	}
	rg.GET("/bookings/:id", h.GetBooking)
	rg.GET("/doctors/:id/slots", h.ListDoctorSlots)
}

func (h *Handler) GetBooking(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	bookingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid booking ID"))
		return
	}

	booking, err := h.workflow.GetBooking(c.Request.Context(), actor, bookingID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(booking))
}

func (h *Handler) CreateSlot(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	// No struct validation here: the doctor id is forced from the actor for
	// doctors, and the ledger validates capacity and the time window.
	slot, err := h.workflow.CreateSlot(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(slot))
}

func (h *Handler) BookAppointment(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	var req struct {
		PatientID uuid.UUID `json:"patient_id"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
			return
		}
	}

	booking, err := h.workflow.BookAppointment(c.Request.Context(), actor, slotID, req.PatientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(booking))
}

func (h *Handler) CancelSlot(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	slotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid slot ID"))
		return
	}

	if err := h.workflow.CancelSlot(c.Request.Context(), actor, slotID); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListDoctorSlots(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid doctor ID"))
		return
	}

	from := time.Now().Truncate(24 * time.Hour)
	if date := c.Query("from"); date != "" {
		parsed, err := time.Parse(time.RFC3339, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date"))
			return
		}
		from = parsed
	}

	slots, err := h.workflow.ListSlotsForDoctor(c.Request.Context(), actor, doctorID, from)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(slots))
}
