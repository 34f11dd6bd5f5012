package models

import "time"

// SystemMetrics is a point-in-time summary of the service's own instrumentation.
type SystemMetrics struct {
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	BackendQueries           uint64    `json:"backendQueries"`
	BackendFallbacks         uint64    `json:"backendFallbacks"`
	StaleResultsDropped      uint64    `json:"staleResultsDropped"`
	ActiveWorkspaces         int64     `json:"activeWorkspaces"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
