package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

// maxPresetFileSize bounds preset import uploads.
const maxPresetFileSize = 1 << 20

const presetExportFilename = "question-filter-presets.json"

type presetService interface {
	List(ctx context.Context, owner string) []models.Preset
	Get(ctx context.Context, owner, id string) (*models.Preset, error)
	Save(ctx context.Context, owner string, req dto.SavePresetRequest) (*models.Preset, error)
	Update(ctx context.Context, owner, id string, filters models.FilterState) (*models.Preset, error)
	Rename(ctx context.Context, owner, id string, req dto.RenamePresetRequest) (*models.Preset, error)
	Delete(ctx context.Context, owner, id string) error
	Duplicate(ctx context.Context, owner, id string, req dto.DuplicatePresetRequest) (*models.Preset, error)
	ClearAll(ctx context.Context, owner string) error
	Export(ctx context.Context, owner string) ([]byte, error)
	Import(ctx context.Context, owner string, data []byte) (*dto.ImportPresetsResponse, error)
	Stats(ctx context.Context, owner string) models.PresetStats
}

// PresetHandler exposes the caller's saved filter presets.
type PresetHandler struct {
	service presetService
}

// NewPresetHandler builds a new handler.
func NewPresetHandler(service presetService) *PresetHandler {
	return &PresetHandler{service: service}
}

// List godoc
// @Summary List presets
// @Tags Presets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /presets [get]
func (h *PresetHandler) List(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.service.List(c.Request.Context(), owner), nil)
}

// Get godoc
// @Summary Get a preset
// @Tags Presets
// @Produce json
// @Param id path string true "Preset ID"
// @Success 200 {object} response.Envelope
// @Router /presets/{id} [get]
func (h *PresetHandler) Get(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	preset, err := h.service.Get(c.Request.Context(), owner, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preset, nil)
}

// Save godoc
// @Summary Save the given filters as a new preset
// @Tags Presets
// @Accept json
// @Produce json
// @Param payload body dto.SavePresetRequest true "Preset payload"
// @Success 201 {object} response.Envelope
// @Router /presets [post]
func (h *PresetHandler) Save(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	req := dto.SavePresetRequest{Filters: models.DefaultFilterState()}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preset payload"))
		return
	}
	preset, err := h.service.Save(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, preset)
}

// Update godoc
// @Summary Replace the filters of a preset
// @Tags Presets
// @Accept json
// @Produce json
// @Param id path string true "Preset ID"
// @Param payload body dto.UpdatePresetRequest true "Filters"
// @Success 200 {object} response.Envelope
// @Router /presets/{id} [put]
func (h *PresetHandler) Update(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	req := dto.UpdatePresetRequest{Filters: models.DefaultFilterState()}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid preset payload"))
		return
	}
	preset, err := h.service.Update(c.Request.Context(), owner, c.Param("id"), req.Filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preset, nil)
}

// Rename godoc
// @Summary Rename a preset
// @Tags Presets
// @Accept json
// @Produce json
// @Param id path string true "Preset ID"
// @Param payload body dto.RenamePresetRequest true "New name"
// @Success 200 {object} response.Envelope
// @Router /presets/{id}/name [patch]
func (h *PresetHandler) Rename(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.RenamePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rename payload"))
		return
	}
	preset, err := h.service.Rename(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, preset, nil)
}

// Duplicate godoc
// @Summary Copy a preset under a new name
// @Tags Presets
// @Accept json
// @Produce json
// @Param id path string true "Preset ID"
// @Param payload body dto.DuplicatePresetRequest true "Name of the copy"
// @Success 201 {object} response.Envelope
// @Router /presets/{id}/duplicate [post]
func (h *PresetHandler) Duplicate(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	var req dto.DuplicatePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid duplicate payload"))
		return
	}
	preset, err := h.service.Duplicate(c.Request.Context(), owner, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, preset)
}

// Delete godoc
// @Summary Delete a preset
// @Tags Presets
// @Param id path string true "Preset ID"
// @Success 204
// @Router /presets/{id} [delete]
func (h *PresetHandler) Delete(c *gin.Context) {
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

// ClearAll godoc
// @Summary Delete every preset
// @Tags Presets
// @Success 204
// @Router /presets [delete]
func (h *PresetHandler) ClearAll(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	if err := h.service.ClearAll(c.Request.Context(), owner); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stats godoc
// @Summary Preset collection statistics
// @Tags Presets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /presets/stats [get]
func (h *PresetHandler) Stats(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	response.JSON(c, http.StatusOK, h.service.Stats(c.Request.Context(), owner), nil)
}

// Export godoc
// @Summary Download presets as JSON
// @Tags Presets
// @Produce json
// @Success 200 {file} file
// @Router /presets/export [get]
func (h *PresetHandler) Export(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	data, err := h.service.Export(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, presetExportFilename, "application/json", data)
}

// Import godoc
// @Summary Import presets from an exported file
// @Description Accepts either a multipart upload in field "file" or the raw JSON array as the body.
// @Tags Presets
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Param file formData file false "Exported preset file"
// @Success 201 {object} response.Envelope
// @Router /presets/import [post]
func (h *PresetHandler) Import(c *gin.Context) {
	owner, ok := ownerFromContext(c)
	if !ok {
		return
	}
	data, err := readPresetFile(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Import(c.Request.Context(), owner, data)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func readPresetFile(c *gin.Context) ([]byte, error) {
	var src io.Reader
	if c.ContentType() == "multipart/form-data" {
		header, err := c.FormFile("file")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "missing file field")
		}
		file, err := header.Open()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidPresetFile.Code, appErrors.ErrInvalidPresetFile.Status, "unreadable preset file")
		}
		defer file.Close()
		src = file
	} else {
		if c.Request.Body == nil {
			return nil, appErrors.ErrInvalidPresetFile
		}
		src = c.Request.Body
	}

	data, err := io.ReadAll(io.LimitReader(src, maxPresetFileSize+1))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidPresetFile.Code, appErrors.ErrInvalidPresetFile.Status, "unreadable preset file")
	}
	if len(data) > maxPresetFileSize {
		return nil, appErrors.Clone(appErrors.ErrInvalidPresetFile, "preset file is too large")
	}
	return data, nil
}
