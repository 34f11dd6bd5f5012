package dto

import (
	"time"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// WorkspaceView is the client-facing snapshot of a filter workspace.
type WorkspaceView struct {
	ID           string                `json:"id"`
	Filters      models.FilterState    `json:"filters"`
	Location     string                `json:"location"`
	Synced       bool                  `json:"synced"`
	Replacements int                   `json:"replacements"`
	Dispatched   uint64                `json:"dispatched"`
	Applied      uint64                `json:"applied"`
	Loading      bool                  `json:"loading"`
	Result       *QuestionSearchResult `json:"result,omitempty"`
	UpdatedAt    time.Time             `json:"updatedAt"`
}

// SaveWorkspacePresetRequest saves the workspace's current filters as a preset.
type SaveWorkspacePresetRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}
