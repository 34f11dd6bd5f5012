package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/filter"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/export"
)

// Notices attached to degraded search results.
const (
	NoticeFallback = "Filtered search is unavailable; showing all questions instead."
	NoticeEmpty    = "Questions could not be loaded. Your filters are kept; try again shortly."
)

type questionBackend interface {
	Search(ctx context.Context, body map[string]interface{}) ([]byte, error)
	ListAll(ctx context.Context) ([]byte, error)
}

type questionCSVRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type questionPDFRenderer interface {
	Render(data export.Dataset, title, subtitle string) ([]byte, error)
}

// QueryServiceConfig tunes result caching.
type QueryServiceConfig struct {
	CacheTTL time.Duration
}

// QueryService maps filter state to backend requests and normalises the responses.
type QueryService struct {
	backend questionBackend
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	csv     questionCSVRenderer
	pdf     questionPDFRenderer
	cfg     QueryServiceConfig
}

// NewQueryService constructs a QueryService. cache and metrics may be nil.
func NewQueryService(backend questionBackend, cache *CacheService, metrics *MetricsService, logger *zap.Logger, cfg QueryServiceConfig) *QueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryService{
		backend: backend,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		csv:     export.NewCSVExporter(true),
		pdf:     export.NewPDFExporter(),
		cfg:     cfg,
	}
}

// Search runs the filtered search. On failure it falls back once to the unfiltered list and,
// if that fails too, returns an empty page with a notice. It never returns an error.
func (s *QueryService) Search(ctx context.Context, state models.FilterState) dto.QuestionSearchResult {
	query := filter.EncodeQuery(state)
	result := dto.QuestionSearchResult{
		Items: []models.Question{},
		Page:  state.SearchDate.Page,
		Size:  state.SearchDate.Size,
		Query: query,
	}

	cacheKey := SearchKey(query)
	var cached dto.QuestionSearchResult
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		cached.Cached = true
		s.metrics.RecordSearchOutcome(QueryOutcomeCached)
		return cached
	}

	items, total, err := s.searchFiltered(ctx, state)
	if err == nil {
		result.Items, result.Total, result.Source = items, total, dto.SourceSearch
		_ = s.cache.Set(ctx, cacheKey, result, s.cfg.CacheTTL)
		s.metrics.RecordSearchOutcome(QueryOutcomeSearch)
		return result
	}
	s.logger.Warn("filtered search failed, falling back to list", zap.String("query", query), zap.Error(err))

	items, total, err = s.listAll(ctx)
	if err == nil {
		result.Items, result.Total, result.Source, result.Notice = items, total, dto.SourceFallback, NoticeFallback
		s.metrics.RecordSearchOutcome(QueryOutcomeFallback)
		return result
	}
	s.logger.Error("question list fallback failed", zap.String("query", query), zap.Error(err))

	result.Source, result.Notice = dto.SourceEmpty, NoticeEmpty
	s.metrics.RecordSearchOutcome(QueryOutcomeEmpty)
	return result
}

func (s *QueryService) searchFiltered(ctx context.Context, state models.FilterState) ([]models.Question, int64, error) {
	start := time.Now()
	payload, err := s.backend.Search(ctx, BuildSearchRequest(state))
	if err == nil {
		var items []models.Question
		var total int64
		items, total, err = ParseQuestionPage(payload)
		s.metrics.ObserveBackendRequest("search", err, time.Since(start))
		return items, total, err
	}
	s.metrics.ObserveBackendRequest("search", err, time.Since(start))
	return nil, 0, err
}

func (s *QueryService) listAll(ctx context.Context) ([]models.Question, int64, error) {
	start := time.Now()
	payload, err := s.backend.ListAll(ctx)
	if err == nil {
		var items []models.Question
		var total int64
		items, total, err = ParseQuestionPage(payload)
		s.metrics.ObserveBackendRequest("list", err, time.Since(start))
		return items, total, err
	}
	s.metrics.ObserveBackendRequest("list", err, time.Since(start))
	return nil, 0, err
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export runs the search for state and renders the resulting page as csv or pdf.
func (s *QueryService) Export(ctx context.Context, state models.FilterState, format string) (*ExportFile, error) {
	result := s.Search(ctx, state)
	dataset := questionDataset(result.Items)
	stamp := time.Now().UTC().Format("20060102-150405")

	switch strings.ToLower(format) {
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{Filename: "questions-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: data}, nil
	case "pdf":
		subtitle := fmt.Sprintf("%d of %d questions", len(result.Items), result.Total)
		if result.Query != "" {
			subtitle += " | " + result.Query
		}
		if result.Notice != "" {
			subtitle += " | " + result.Notice
		}
		data, err := s.pdf.Render(dataset, "Question search", subtitle)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{Filename: "questions-" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	}
	return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
}

var questionExportHeaders = []string{"ID", "Question", "Type", "Difficulty", "Marks", "Active", "Subject", "Topic", "Chapter", "Created"}

func questionDataset(items []models.Question) export.Dataset {
	rows := make([]map[string]string, 0, len(items))
	for _, q := range items {
		rows = append(rows, map[string]string{
			"ID":         strconv.FormatInt(q.ID, 10),
			"Question":   q.QuestionText,
			"Type":       q.QuestionType,
			"Difficulty": q.DifficultyLevel,
			"Marks":      strconv.FormatFloat(q.Marks, 'f', -1, 64),
			"Active":     strconv.FormatBool(q.IsActive),
			"Subject":    q.SubjectName,
			"Topic":      q.TopicName,
			"Chapter":    q.ChapterName,
			"Created":    q.CreatedAt,
		})
	}
	return export.Dataset{
		Headers: questionExportHeaders,
		Rows:    rows,
		Widths:  []float64{0.7, 5, 1.2, 1.2, 0.7, 0.7, 1.5, 1.5, 1.5, 1.3},
	}
}

// BuildSearchRequest flattens state into the backend's search body. Enum-like strings are
// upper-cased, a lone difficulty level is sent as difficultyLevel, and null or empty values are
// dropped.
func BuildSearchRequest(state models.FilterState) map[string]interface{} {
	basic := state.Basic
	academic := state.Academic
	exam := state.ExamSuitability
	prev := state.PreviouslyAsked
	search := state.SearchDate

	body := map[string]interface{}{
		"isActive":           ptrValue(basic.IsActive),
		"questionType":       strings.ToUpper(strings.TrimSpace(basic.QuestionType)),
		"minMarks":           basic.MinMarks,
		"maxMarks":           basic.MaxMarks,
		"courseTypeId":       ptrValue(academic.CourseTypeID),
		"relationshipId":     ptrValue(academic.RelationshipID),
		"subjectId":          ptrValue(academic.SubjectID),
		"topicId":            ptrValue(academic.TopicID),
		"moduleId":           ptrValue(academic.ModuleID),
		"chapterId":          ptrValue(academic.ChapterID),
		"examIds":            exam.ExamIDs,
		"suitabilityLevels":  upperAll(exam.SuitabilityLevels),
		"examTypes":          upperAll(exam.ExamTypes),
		"conductingBodies":   exam.ConductingBodies,
		"previousExamIds":    prev.ExamIDs,
		"appearedYears":      prev.AppearedYears,
		"sessions":           upperAll(prev.Sessions),
		"minMarksInExam":     ptrValue(prev.MinMarksInExam),
		"maxMarksInExam":     ptrValue(prev.MaxMarksInExam),
		"questionNumbers":    prev.QuestionNumbers,
		"questionTextSearch": strings.TrimSpace(search.QuestionTextSearch),
		"explanationSearch":  strings.TrimSpace(search.ExplanationSearch),
		"dateFrom":           dateValue(search.DateFrom),
		"dateTo":             dateValue(search.DateTo),
		"page":               search.Page,
		"size":               search.Size,
	}

	levels := upperAll(basic.DifficultyLevels)
	if len(levels) == 1 {
		body["difficultyLevel"] = levels[0]
	} else {
		body["difficultyLevels"] = levels
	}

	for key, value := range body {
		if isEmptyValue(value) {
			delete(body, key)
		}
	}
	return body
}

func ptrValue[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func dateValue(d *models.Date) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func upperAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func isEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []string:
		return len(v) == 0
	case []int64:
		return len(v) == 0
	case []int:
		return len(v) == 0
	}
	return false
}

// ParseQuestionPage normalises the three accepted response shapes: a bare array,
// {content, totalElements} and {data, total}. Anything else is ErrUnrecognizedResponse.
func ParseQuestionPage(payload []byte) ([]models.Question, int64, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return nil, 0, appErrors.Clone(appErrors.ErrUnrecognizedResponse, "empty backend response")
	}

	switch trimmed[0] {
	case '[':
		items, err := decodeQuestions(trimmed)
		if err != nil {
			return nil, 0, err
		}
		return items, int64(len(items)), nil
	case '{':
		var envelope map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrUnrecognizedResponse.Code, appErrors.ErrUnrecognizedResponse.Status, "malformed backend response")
		}
		if raw, ok := envelope["content"]; ok {
			return decodeWrapped(raw, envelope["totalElements"])
		}
		if raw, ok := envelope["data"]; ok {
			return decodeWrapped(raw, envelope["total"])
		}
	}
	return nil, 0, appErrors.ErrUnrecognizedResponse
}

func decodeWrapped(rawItems, rawTotal json.RawMessage) ([]models.Question, int64, error) {
	items, err := decodeQuestions(rawItems)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(items))
	if len(rawTotal) > 0 && string(rawTotal) != "null" {
		var t float64
		if err := json.Unmarshal(rawTotal, &t); err != nil {
			return nil, 0, appErrors.Wrap(err, appErrors.ErrUnrecognizedResponse.Code, appErrors.ErrUnrecognizedResponse.Status, "invalid total in backend response")
		}
		total = int64(t)
	}
	return items, total, nil
}

func decodeQuestions(raw json.RawMessage) ([]models.Question, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '[' {
		return nil, appErrors.Clone(appErrors.ErrUnrecognizedResponse, "backend items are not an array")
	}
	items := []models.Question{}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnrecognizedResponse.Code, appErrors.ErrUnrecognizedResponse.Status, "malformed question items")
	}
	return items, nil
}
