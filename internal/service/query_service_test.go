package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

type backendStub struct {
	mu         sync.Mutex
	search     []byte
	searchErr  error
	list       []byte
	listErr    error
	bodies     []map[string]interface{}
	listCalls  int
	searchHook func(body map[string]interface{}) ([]byte, error)
}

func (b *backendStub) Search(ctx context.Context, body map[string]interface{}) ([]byte, error) {
	b.mu.Lock()
	b.bodies = append(b.bodies, body)
	hook := b.searchHook
	b.mu.Unlock()
	if hook != nil {
		return hook(body)
	}
	return b.search, b.searchErr
}

func (b *backendStub) ListAll(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listCalls++
	return b.list, b.listErr
}

func (b *backendStub) searchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.bodies)
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

func TestBuildSearchRequest(t *testing.T) {
	active := true
	subject := int64(12)
	minInExam := 2
	from := models.NewDate(2024, time.January, 5)

	state := models.DefaultFilterState()
	state.Basic.IsActive = &active
	state.Basic.QuestionType = "mcq"
	state.Basic.DifficultyLevels = []string{"easy"}
	state.Academic.SubjectID = &subject
	state.ExamSuitability.ExamTypes = []string{"mains"}
	state.PreviouslyAsked.ExamIDs = []int64{7, 8}
	state.PreviouslyAsked.MinMarksInExam = &minInExam
	state.SearchDate.QuestionTextSearch = "  cell  "
	state.SearchDate.DateFrom = &from

	body := BuildSearchRequest(state)
	assert.Equal(t, true, body["isActive"])
	assert.Equal(t, "MCQ", body["questionType"])
	assert.Equal(t, "EASY", body["difficultyLevel"])
	assert.NotContains(t, body, "difficultyLevels")
	assert.Equal(t, int64(12), body["subjectId"])
	assert.Equal(t, []string{"MAINS"}, body["examTypes"])
	assert.Equal(t, []int64{7, 8}, body["previousExamIds"])
	assert.NotContains(t, body, "examIds")
	assert.Equal(t, 2, body["minMarksInExam"])
	assert.Equal(t, "cell", body["questionTextSearch"])
	assert.Equal(t, "2024-01-05", body["dateFrom"])
	assert.Equal(t, 0, body["page"])
	assert.Equal(t, 20, body["size"])

	for _, key := range []string{"courseTypeId", "topicId", "sessions", "explanationSearch", "dateTo", "maxMarksInExam", "questionNumbers"} {
		assert.NotContains(t, body, key)
	}
}

func TestBuildSearchRequestMultipleDifficulties(t *testing.T) {
	state := models.DefaultFilterState()
	state.Basic.DifficultyLevels = []string{"easy", "hard"}

	body := BuildSearchRequest(state)
	assert.Equal(t, []string{"EASY", "HARD"}, body["difficultyLevels"])
	assert.NotContains(t, body, "difficultyLevel")

	state.Basic.DifficultyLevels = []string{}
	body = BuildSearchRequest(state)
	assert.NotContains(t, body, "difficultyLevels")
	assert.NotContains(t, body, "difficultyLevel")
}

func TestParseQuestionPageShapes(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		count   int
		total   int64
	}{
		{"bare array", `[{"id":1,"questionText":"a"},{"id":2,"questionText":"b"}]`, 2, 2},
		{"content wrapper", `{"content":[{"id":1}],"totalElements":42}`, 1, 42},
		{"data wrapper", `{"data":[{"id":1},{"id":2}],"total":9}`, 2, 9},
		{"data without total", `{"data":[{"id":1}]}`, 1, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			items, total, err := ParseQuestionPage([]byte(tc.payload))
			require.NoError(t, err)
			assert.Len(t, items, tc.count)
			assert.Equal(t, tc.total, total)
		})
	}
}

func TestParseQuestionPageRejectsUnknownShapes(t *testing.T) {
	for _, payload := range []string{`{"items":[]}`, `"hello"`, ``, `{"data":{"rows":[]}}`, `{"content":[1,2]}`, `42`} {
		_, _, err := ParseQuestionPage([]byte(payload))
		require.Error(t, err, payload)
		assert.Equal(t, appErrors.ErrUnrecognizedResponse.Code, appErrors.FromError(err).Code, payload)
	}
}

func TestQueryServiceSearchSuccess(t *testing.T) {
	backend := &backendStub{search: []byte(`{"content":[{"id":1,"questionText":"q"}],"totalElements":5}`)}
	svc := NewQueryService(backend, nil, NewMetricsService(), zaptest.NewLogger(t), QueryServiceConfig{})

	state := models.DefaultFilterState()
	state.Basic.QuestionType = "MCQ"
	result := svc.Search(context.Background(), state)

	assert.Equal(t, dto.SourceSearch, result.Source)
	assert.Equal(t, int64(5), result.Total)
	assert.Len(t, result.Items, 1)
	assert.Equal(t, "questionType=MCQ", result.Query)
	assert.Empty(t, result.Notice)
	assert.Equal(t, 0, backend.listCalls)
}

func TestQueryServiceFallsBackToList(t *testing.T) {
	backend := &backendStub{
		searchErr: errors.New("502 bad gateway"),
		list:      []byte(`[{"id":1},{"id":2},{"id":3}]`),
	}
	svc := NewQueryService(backend, nil, nil, zaptest.NewLogger(t), QueryServiceConfig{})

	result := svc.Search(context.Background(), models.DefaultFilterState())
	assert.Equal(t, dto.SourceFallback, result.Source)
	assert.Equal(t, NoticeFallback, result.Notice)
	assert.Equal(t, int64(3), result.Total)
	assert.Equal(t, 1, backend.listCalls)
}

func TestQueryServiceUnrecognizedShapeTriggersFallback(t *testing.T) {
	backend := &backendStub{
		search: []byte(`{"rows":[]}`),
		list:   []byte(`{"data":[{"id":9}],"total":1}`),
	}
	svc := NewQueryService(backend, nil, nil, zaptest.NewLogger(t), QueryServiceConfig{})

	result := svc.Search(context.Background(), models.DefaultFilterState())
	assert.Equal(t, dto.SourceFallback, result.Source)
	require.Len(t, result.Items, 1)
	assert.Equal(t, int64(9), result.Items[0].ID)
}

func TestQueryServiceEmptyWhenEverythingFails(t *testing.T) {
	backend := &backendStub{searchErr: errors.New("timeout"), listErr: errors.New("timeout")}
	svc := NewQueryService(backend, nil, NewMetricsService(), zaptest.NewLogger(t), QueryServiceConfig{})

	state := models.DefaultFilterState()
	state.SearchDate.Size = 50
	result := svc.Search(context.Background(), state)

	assert.Equal(t, dto.SourceEmpty, result.Source)
	assert.Equal(t, NoticeEmpty, result.Notice)
	assert.NotNil(t, result.Items)
	assert.Empty(t, result.Items)
	assert.Equal(t, 50, result.Size)
	assert.Equal(t, 1, backend.listCalls, "fallback is attempted exactly once")
}

func TestQueryServiceCachesSuccessfulSearches(t *testing.T) {
	backend := &backendStub{search: []byte(`[{"id":1}]`)}
	cacheRepo := &memoryCacheRepo{entries: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, zaptest.NewLogger(t), true)
	svc := NewQueryService(backend, cache, nil, zaptest.NewLogger(t), QueryServiceConfig{CacheTTL: time.Minute})

	first := svc.Search(context.Background(), models.DefaultFilterState())
	second := svc.Search(context.Background(), models.DefaultFilterState())

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, 1, backend.searchCount())

	require.NoError(t, cache.InvalidateSearch(context.Background()))
	third := svc.Search(context.Background(), models.DefaultFilterState())
	assert.False(t, third.Cached)
	assert.Equal(t, 2, backend.searchCount())
}

func TestQueryServiceDoesNotCacheFallbacks(t *testing.T) {
	backend := &backendStub{searchErr: errors.New("down"), list: []byte(`[]`)}
	cacheRepo := &memoryCacheRepo{entries: map[string][]byte{}}
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewQueryService(backend, cache, nil, nil, QueryServiceConfig{})

	svc.Search(context.Background(), models.DefaultFilterState())
	assert.Empty(t, cacheRepo.entries)
}

func TestQueryServiceExport(t *testing.T) {
	backend := &backendStub{search: []byte(`[{"id":1,"questionText":"What is a cell?","marks":2.5,"isActive":true}]`)}
	svc := NewQueryService(backend, nil, nil, zaptest.NewLogger(t), QueryServiceConfig{})

	file, err := svc.Export(context.Background(), models.DefaultFilterState(), "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Contains(t, string(file.Data), "What is a cell?,,,2.5,true")

	file, err = svc.Export(context.Background(), models.DefaultFilterState(), "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Data, []byte("%PDF")))

	_, err = svc.Export(context.Background(), models.DefaultFilterState(), "xlsx")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
