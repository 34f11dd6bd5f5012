package dto

import "github.com/noah-isme/qbank-admin-api/internal/models"

// EncodeFiltersResponse carries the query string for a filter state.
type EncodeFiltersResponse struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

// DecodeFiltersResponse reports the filters found in a query string.
type DecodeFiltersResponse struct {
	Found   bool               `json:"found"`
	Filters models.FilterState `json:"filters"`
}

// FilterDefaultsResponse describes the default state and the allowed page sizes.
type FilterDefaultsResponse struct {
	Filters   models.FilterState `json:"filters"`
	PageSizes []int              `json:"pageSizes"`
	QueryKeys []string           `json:"queryKeys"`
}
