package dto

import "github.com/noah-isme/qbank-admin-api/internal/models"

// SavePresetRequest stores a named snapshot of filters.
type SavePresetRequest struct {
	Name    string             `json:"name" validate:"required,max=100"`
	Filters models.FilterState `json:"filters"`
}

// UpdatePresetRequest overwrites the filters of a preset.
type UpdatePresetRequest struct {
	Filters models.FilterState `json:"filters"`
}

// RenamePresetRequest changes a preset name.
type RenamePresetRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// DuplicatePresetRequest copies a preset under a new name.
type DuplicatePresetRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

// ImportPresetsResponse summarises an import.
type ImportPresetsResponse struct {
	Imported int             `json:"imported"`
	Skipped  int             `json:"skipped"`
	Presets  []models.Preset `json:"presets"`
}
