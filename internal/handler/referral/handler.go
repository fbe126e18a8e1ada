package referral

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scms/clinic-api/internal/handler"
	"github.com/scms/clinic-api/internal/model"
	"github.com/scms/clinic-api/internal/service/workflow"
)

// maxImageSize bounds radiology image uploads at 32 MiB.
const maxImageSize = 32 << 20

type Handler struct {
	workflow *workflow.Service
}

func NewHandler(workflowSvc *workflow.Service) *Handler {
	return &Handler{workflow: workflowSvc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	prescriptions := rg.Group("/prescriptions")
	{
		prescriptions.POST("", h.IssuePrescription)
		prescriptions.DELETE("/:id", h.DeletePrescription)
	}

	requests := rg.Group("/radiology/requests")
	{
		requests.POST("", h.FileRequest)
		requests.GET("", h.ListRequests)
		requests.GET("/:id", h.GetRequest)
		requests.POST("/:id/result", h.FileResult)
	}

	results := rg.Group("/radiology/results")
	{
		results.GET("/:id", h.GetResult)
	}
	rg.GET("/patients/:id/results", h.ListPatientResults)
}

func (h *Handler) IssuePrescription(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	prescription, err := h.workflow.IssuePrescription(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(prescription))
}

func (h *Handler) DeletePrescription(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid prescription ID"))
		return
	}

	if err := h.workflow.DeletePrescription(c.Request.Context(), actor, id); err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) FileRequest(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	var req model.CreateRadiologyRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	if err := handler.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	request, err := h.workflow.FileRadiologyRequest(c.Request.Context(), actor, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(request))
}

// FileResult consumes a multipart form: a "report" field, an optional
// "status" field and the scanned "image" file.
func (h *Handler) FileResult(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request ID"))
		return
	}

	req := model.FileResultRequest{
		Report: c.PostForm("report"),
		Status: c.PostForm("status"),
	}

	file, fileHeader, err := c.Request.FormFile("image")
	if err == nil {
		defer file.Close()
		data, readErr := io.ReadAll(io.LimitReader(file, maxImageSize))
		if readErr != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("failed to read image"))
			return
		}
		req.Image = data
		req.ImageName = fileHeader.Filename
	}

	result, err := h.workflow.FileRadiologyResult(c.Request.Context(), actor, requestID, &req)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(result))
}

func (h *Handler) ListRequests(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	requests, err := h.workflow.ListRequestsForStaff(c.Request.Context(), actor)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(requests))
}

func (h *Handler) GetRequest(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid request ID"))
		return
	}

	request, err := h.workflow.GetRadiologyRequest(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(request))
}

func (h *Handler) GetResult(c *gin.Context) {
	actor, err := handler.CurrentActor(c)
	if err != nil {
		handler.Error(c, err)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid result ID"))
		return
	}

	result, err := h.workflow.GetRadiologyResult(c.Request.Context(), actor, id)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(result))
}

func (h *Handler) ListPatientResults(c *gin.Context) {
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

	results, err := h.workflow.ListResultsForPatient(c.Request.Context(), actor, patientID)
	if err != nil {
		handler.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(results))
}
