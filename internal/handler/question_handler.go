package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/filter"
	"github.com/noah-isme/qbank-admin-api/internal/middleware"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	"github.com/noah-isme/qbank-admin-api/internal/service"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

type questionQueryService interface {
	Search(ctx context.Context, state models.FilterState) dto.QuestionSearchResult
	Export(ctx context.Context, state models.FilterState, format string) (*service.ExportFile, error)
}

type searchCacheInvalidator interface {
	InvalidateSearch(ctx context.Context) error
}

// QuestionHandler runs question searches and exports.
type QuestionHandler struct {
	queries   questionQueryService
	cache     searchCacheInvalidator
	validator *validator.Validate
}

// NewQuestionHandler builds a QuestionHandler. cache may be nil when result caching is off.
func NewQuestionHandler(queries questionQueryService, cache searchCacheInvalidator, validate *validator.Validate) *QuestionHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &QuestionHandler{queries: queries, cache: cache, validator: validate}
}

// SearchByBody godoc
// @Summary Search questions with a filter state body
// @Tags Questions
// @Accept json
// @Produce json
// @Param payload body models.FilterState true "Filter state"
// @Success 200 {object} response.Envelope
// @Router /questions/search [post]
func (h *QuestionHandler) SearchByBody(c *gin.Context) {
	var state models.FilterState
	if err := bindFilterState(c, &state); err != nil {
		response.Error(c, err)
		return
	}
	h.respondSearch(c, state)
}

// SearchByQuery godoc
// @Summary Search questions with URL-encoded filters
// @Tags Questions
// @Produce json
// @Param questionType query string false "Question type"
// @Param page query int false "Zero-based page"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /questions/search [get]
func (h *QuestionHandler) SearchByQuery(c *gin.Context) {
	h.respondSearch(c, stateFromQuery(c))
}

// FilterQueryHeader carries the canonical query string of the filters a search ran with.
const FilterQueryHeader = "X-Filter-Query"

func (h *QuestionHandler) respondSearch(c *gin.Context, state models.FilterState) {
	result := h.queries.Search(c.Request.Context(), state)
	c.Header(FilterQueryHeader, result.Query)
	middleware.SetCacheHit(c, result.Cached)
	middleware.SetMeta(c, "source", result.Source)
	if result.Notice != "" {
		middleware.SetMeta(c, "notice", result.Notice)
	}
	pagination := &models.Pagination{Page: result.Page, PageSize: result.Size, TotalCount: int(result.Total)}
	response.JSON(c, http.StatusOK, result, pagination, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export the current search page
// @Tags Questions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /questions/export [get]
func (h *QuestionHandler) Export(c *gin.Context) {
	var query dto.ExportQuestionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "format must be csv or pdf"))
		return
	}

	file, err := h.queries.Export(c.Request.Context(), stateFromQuery(c), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}

// InvalidateCache godoc
// @Summary Drop cached search pages
// @Tags Questions
// @Success 204
// @Router /questions/cache [delete]
func (h *QuestionHandler) InvalidateCache(c *gin.Context) {
	if h.cache != nil {
		if err := h.cache.InvalidateSearch(c.Request.Context()); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate search cache"))
			return
		}
	}
	response.NoContent(c)
}

func stateFromQuery(c *gin.Context) models.FilterState {
	patch, _ := filter.DecodeValues(c.Request.URL.Query())
	return patch.Snapshot(models.DefaultFilterState())
}
