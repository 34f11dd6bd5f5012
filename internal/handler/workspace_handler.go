package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

type workspaceService interface {
	Create(ctx context.Context, owner, rawQuery string) (*dto.WorkspaceView, error)
	Get(ctx context.Context, owner, id string) (*dto.WorkspaceView, error)
	Delete(ctx context.Context, owner, id string) error
	UpdateSection(ctx context.Context, owner, id, section string, rawPatch []byte) (*dto.WorkspaceView, error)
	Reset(ctx context.Context, owner, id string) (*dto.WorkspaceView, error)
	SavePreset(ctx context.Context, owner, id string, req dto.SaveWorkspacePresetRequest) (*models.Preset, *dto.WorkspaceView, error)
	ApplyPreset(ctx context.Context, owner, id, presetID string) (*dto.WorkspaceView, error)
}

// WorkspaceHandler drives server-side filter workspaces.
type WorkspaceHandler struct {
	service workspaceService
}

// NewWorkspaceHandler builds a new handler.
func NewWorkspaceHandler(service workspaceService) *WorkspaceHandler {
	return &WorkspaceHandler{service: service}
}

// Create godoc
// @Summary Open a workspace
// @Description The request query string, if it carries filter keys, seeds the workspace.
// @Tags Workspaces
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /workspaces [post]
func (h *WorkspaceHandler) Create(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Create(c.Request.Context(), owner, c.Request.URL.RawQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get a workspace with its latest result
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id} [get]
func (h *WorkspaceHandler) Get(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Close a workspace
// @Tags Workspaces
// @Param id path string true "Workspace ID"
// @Success 204
// @Router /workspaces/{id} [delete]
func (h *WorkspaceHandler) Delete(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), owner, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// UpdateSection godoc
// @Summary Merge a partial update into one filter section
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param section path string true "basic, academic, examSuitability, previouslyAsked or searchDate"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/sections/{section} [patch]
func (h *WorkspaceHandler) UpdateSection(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil || len(raw) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section patch body is required"))
		return
	}
	view, err := h.service.UpdateSection(c.Request.Context(), owner, c.Param("id"), c.Param("section"), raw)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Reset godoc
// @Summary Restore default filters
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/reset [post]
func (h *WorkspaceHandler) Reset(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.Reset(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SavePreset godoc
// @Summary Save the workspace filters as a preset
// @Tags Workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID"
// @Param payload body dto.SaveWorkspacePresetRequest true "Preset name"
// @Success 201 {object} response.Envelope
// @Router /workspaces/{id}/presets [post]
func (h *WorkspaceHandler) SavePreset(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.SaveWorkspacePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preset payload"))
		return
	}
	preset, view, err := h.service.SavePreset(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"preset": preset, "workspace": view})
}

// ApplyPreset godoc
// @Summary Load a preset into the workspace
// @Tags Workspaces
// @Produce json
// @Param id path string true "Workspace ID"
// @Param presetId path string true "Preset ID"
// @Success 200 {object} response.Envelope
// @Router /workspaces/{id}/presets/{presetId}/apply [post]
func (h *WorkspaceHandler) ApplyPreset(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	view, err := h.service.ApplyPreset(c.Request.Context(), owner, c.Param("id"), c.Param("presetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
