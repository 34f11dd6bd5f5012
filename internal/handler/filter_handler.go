package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/filter"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	"github.com/noah-isme/qbank-admin-api/pkg/response"
)

// FilterHandler exposes the stateless filter codec.
type FilterHandler struct {
	basePath string
}

// NewFilterHandler builds a handler whose encoded locations are rooted at basePath.
func NewFilterHandler(basePath string) *FilterHandler {
	if basePath == "" {
		basePath = "/questions"
	}
	return &FilterHandler{basePath: basePath}
}

// Defaults godoc
// @Summary Default filter state
// @Tags Filters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /filters/defaults [get]
func (h *FilterHandler) Defaults(c *gin.Context) {
	response.JSON(c, http.StatusOK, dto.FilterDefaultsResponse{
		Filters:   models.DefaultFilterState(),
		PageSizes: append([]int(nil), models.AllowedPageSizes...),
		QueryKeys: filter.QueryKeys(),
	}, nil)
}

// Encode godoc
// @Summary Encode filters into a query string
// @Tags Filters
// @Accept json
// @Produce json
// @Param payload body models.FilterState true "Filter state"
// @Success 200 {object} response.Envelope
// @Router /filters/encode [post]
func (h *FilterHandler) Encode(c *gin.Context) {
	var state models.FilterState
	if err := bindFilterState(c, &state); err != nil {
		response.Error(c, err)
		return
	}
	query := filter.EncodeQuery(state)
	location := h.basePath
	if query != "" {
		location += "?" + query
	}
	response.JSON(c, http.StatusOK, dto.EncodeFiltersResponse{Query: query, Location: location}, nil)
}

// Decode godoc
// @Summary Decode filters from the request query string
// @Tags Filters
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /filters/decode [get]
func (h *FilterHandler) Decode(c *gin.Context) {
	patch, found := filter.DecodeValues(c.Request.URL.Query())
	response.JSON(c, http.StatusOK, dto.DecodeFiltersResponse{
		Found:   found,
		Filters: patch.Snapshot(models.DefaultFilterState()),
	}, nil)
}
