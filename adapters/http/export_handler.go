package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	exportUC "github.com/khoahotran/wedding-memories/internal/application/usecase/export"
	"github.com/khoahotran/wedding-memories/internal/domain/export"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
)

type ExportHandler struct {
	requestExportUC *exportUC.RequestExportUseCase
	getExportUC     *exportUC.GetExportUseCase
}

func NewExportHandler(requestUC *exportUC.RequestExportUseCase, getUC *exportUC.GetExportUseCase) *ExportHandler {
	return &ExportHandler{requestExportUC: requestUC, getExportUC: getUC}
}

func (h *ExportHandler) RequestExport(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}

	job, err := h.requestExportUC.Execute(c.Request.Context(), weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, ToExportJobDTO(job, 0))
}

func (h *ExportHandler) GetExport(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Error(apperror.NewInvalidInput("invalid export id", err))
		return
	}

	out, err := h.getExportUC.Execute(c.Request.Context(), id, weddingID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, ToExportJobDTO(out.Job, out.Progress))
}

func (h *ExportHandler) ListExports(c *gin.Context) {
	weddingID, ok := GetWeddingIDFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("host session not found in context"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	jobs, err := h.getExportUC.List(c.Request.Context(), weddingID, limit)
	if err != nil {
		c.Error(err)
		return
	}

	dtos := make([]ExportJobDTO, len(jobs))
	for i, j := range jobs {
		progress := 0
		if j.Status == export.StatusReady {
			progress = 100
		}
		dtos[i] = ToExportJobDTO(j, progress)
	}
	c.JSON(http.StatusOK, gin.H{"exports": dtos})
}
