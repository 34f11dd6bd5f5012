package dto

import "github.com/noah-isme/qbank-admin-api/internal/models"

// Result sources reported by a question search.
const (
	SourceSearch   = "search"
	SourceFallback = "fallback"
	SourceEmpty    = "empty"
)

// QuestionSearchResult is one normalised page of questions.
type QuestionSearchResult struct {
	Items  []models.Question `json:"items"`
	Total  int64             `json:"total"`
	Page   int               `json:"page"`
	Size   int               `json:"size"`
	Source string            `json:"source"`
	Notice string            `json:"notice,omitempty"`
	Query  string            `json:"query"`
	Cached bool              `json:"cached"`
}

// ExportQuestionsQuery selects the export format.
type ExportQuestionsQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
