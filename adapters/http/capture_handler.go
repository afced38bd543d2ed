package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/khoahotran/wedding-memories/internal/application/usecase/capture"
	"github.com/khoahotran/wedding-memories/internal/domain/memory"
	"github.com/khoahotran/wedding-memories/pkg/apperror"
	"github.com/khoahotran/wedding-memories/pkg/logger"
	"go.uber.org/zap"
)

type CaptureHandler struct {
	registry *capture.Registry
	logger   logger.Logger
}

func NewCaptureHandler(registry *capture.Registry, log logger.Logger) *CaptureHandler {
	return &CaptureHandler{registry: registry, logger: log}
}

func (h *CaptureHandler) machine(c *gin.Context) (*capture.Machine, bool) {
	cc, ok := GetCaptureContextFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("guest session not found in context"))
		return nil, false
	}
	return h.registry.Get(cc), true
}

// run applies action and answers with the machine status. Failures go to
// ErrorMiddleware; the guest reads the new state with GET /capture.
func (h *CaptureHandler) run(c *gin.Context, action func(m *capture.Machine) error) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	if err := action(m); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, m.Status())
}

func (h *CaptureHandler) GetStatus(c *gin.Context) {
	h.run(c, func(*capture.Machine) error { return nil })
}

func (h *CaptureHandler) CloseSession(c *gin.Context) {
	cc, ok := GetCaptureContextFromGinContext(c)
	if !ok {
		c.Error(apperror.NewPermissionDenied("guest session not found in context"))
		return
	}
	h.registry.Remove(cc)
	c.Status(http.StatusNoContent)
}

func (h *CaptureHandler) SwitchMode(c *gin.Context) {
	var req SwitchModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput("mode must be photo, video or audio", err))
		return
	}
	kind, err := memory.ParseKind(req.Mode)
	if err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return
	}
	h.run(c, func(m *capture.Machine) error { return m.SwitchMode(kind) })
}

func (h *CaptureHandler) Acquire(c *gin.Context) {
	h.run(c, func(m *capture.Machine) error { return m.Acquire(c.Request.Context()) })
}

func (h *CaptureHandler) Snapshot(c *gin.Context) {
	h.run(c, func(m *capture.Machine) error { return m.Snapshot(c.Request.Context()) })
}

func (h *CaptureHandler) StartRecording(c *gin.Context) {
	h.run(c, func(m *capture.Machine) error { return m.StartRecording(c.Request.Context()) })
}

func (h *CaptureHandler) StopRecording(c *gin.Context) {
	h.run(c, func(m *capture.Machine) error { return m.StopRecording(c.Request.Context()) })
}

func (h *CaptureHandler) Discard(c *gin.Context) {
	h.run(c, func(m *capture.Machine) error { return m.Discard() })
}

func (h *CaptureHandler) SelectFile(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperror.NewInvalidInput("'file' is required", err))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperror.NewInternal("failed to open file", err))
		return
	}
	defer file.Close()

	// One byte past the limit is enough for validation to reject it.
	data, err := io.ReadAll(io.LimitReader(file, memory.MaxUploadBytes+1))
	if err != nil {
		c.Error(apperror.NewInternal("failed to read file", err))
		return
	}

	selected := capture.SelectedFile{
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
		Data:     data,
	}
	h.run(c, func(m *capture.Machine) error { return m.SelectFile(c.Request.Context(), selected) })
}

func (h *CaptureHandler) Submit(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	rec, err := m.Submit(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"record": rec, "status": m.Status()})
}

func (h *CaptureHandler) Preview(c *gin.Context) {
	m, ok := h.machine(c)
	if !ok {
		return
	}
	rc, contentType, err := m.OpenPreview()
	if err != nil {
		c.Error(err)
		return
	}
	defer rc.Close()

	c.Header("Cache-Control", "no-store")
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		h.logger.Warn("Preview stream interrupted", zap.Error(err))
	}
}
