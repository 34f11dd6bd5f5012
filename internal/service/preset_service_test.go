package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

type kvStoreStub struct {
	values map[string][]byte
	getErr error
	putErr error
	puts   int
}

func newKVStoreStub() *kvStoreStub {
	return &kvStoreStub{values: map[string][]byte{}}
}

func (s *kvStoreStub) Get(ctx context.Context, key string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	value, ok := s.values[key]
	if !ok {
		return nil, appErrors.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (s *kvStoreStub) Put(ctx context.Context, key string, value []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.puts++
	s.values[key] = append([]byte(nil), value...)
	return nil
}

func newTestPresetService(t *testing.T, store presetStorage) *PresetService {
	t.Helper()
	svc := NewPresetService(store, validator.New(), zaptest.NewLogger(t), NewMetricsService(), PresetServiceConfig{MaxCount: 10})
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	seq := 0
	svc.newID = func() (string, error) {
		seq++
		return fmt.Sprintf("preset-%02d", seq), nil
	}
	return svc
}

func stateWithType(questionType string) models.FilterState {
	state := models.DefaultFilterState()
	state.Basic.QuestionType = questionType
	return state
}

func TestPresetServiceNameUniquenessIgnoresCase(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	first, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Algebra", Filters: stateWithType("MCQ")})
	require.NoError(t, err)

	_, err = svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "algebra", Filters: stateWithType("ESSAY")})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrPresetNameTaken)

	list := svc.List(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "Algebra", list[0].Name)
	assert.Equal(t, "MCQ", list[0].Filters.Basic.QuestionType)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestPresetServiceUnicodeCaseFolding(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Straße", Filters: models.DefaultFilterState()})
	require.NoError(t, err)
	_, err = svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "STRASSE", Filters: models.DefaultFilterState()})
	assert.ErrorIs(t, err, appErrors.ErrPresetNameTaken)
}

func TestPresetServiceCap(t *testing.T) {
	store := newKVStoreStub()
	svc := newTestPresetService(t, store)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: fmt.Sprintf("P%d", i), Filters: models.DefaultFilterState()})
		require.NoError(t, err)
	}
	before := string(store.values["questionFilterPresets:u1"])

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Eleventh", Filters: models.DefaultFilterState()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPresetLimit.Code, appErrors.FromError(err).Code)
	assert.Equal(t, before, string(store.values["questionFilterPresets:u1"]))
	assert.Len(t, svc.List(ctx, "u1"), 10)
	assert.False(t, svc.Stats(ctx, "u1").CanAddMore)
}

func TestPresetServiceDeepCopyIsolation(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	live := models.DefaultFilterState()
	live.Basic.DifficultyLevels = []string{"easy"}
	saved, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "X", Filters: live})
	require.NoError(t, err)

	live.Basic.DifficultyLevels[0] = "hard"
	live.Basic.QuestionType = "ESSAY"

	loaded, err := svc.Load(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"easy"}, loaded.Basic.DifficultyLevels)
	assert.Equal(t, "", loaded.Basic.QuestionType)

	loaded.Basic.DifficultyLevels[0] = "medium"
	again, err := svc.Load(ctx, "u1", saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"easy"}, again.Basic.DifficultyLevels)
}

func TestPresetServiceStripsPresetsSection(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	state := models.DefaultFilterState()
	state.Presets.Saved = []models.Preset{{ID: "old", Name: "old"}}
	saved, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "X", Filters: state})
	require.NoError(t, err)
	assert.Empty(t, saved.Filters.Presets.Saved)
}

func TestPresetServiceUpdateRenameDelete(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	a, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "A", Filters: stateWithType("MCQ")})
	require.NoError(t, err)
	_, err = svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "B", Filters: models.DefaultFilterState()})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, "u1", a.ID, stateWithType("ESSAY"))
	require.NoError(t, err)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, a.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))
	assert.Equal(t, "ESSAY", updated.Filters.Basic.QuestionType)

	_, err = svc.Rename(ctx, "u1", a.ID, dto.RenamePresetRequest{Name: "b"})
	assert.ErrorIs(t, err, appErrors.ErrPresetNameTaken)

	renamed, err := svc.Rename(ctx, "u1", a.ID, dto.RenamePresetRequest{Name: "a"})
	require.NoError(t, err, "renaming to a case variant of its own name is allowed")
	assert.Equal(t, "a", renamed.Name)

	_, err = svc.Update(ctx, "u1", "missing", models.DefaultFilterState())
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(ctx, "u1", a.ID))
	require.NoError(t, svc.Delete(ctx, "u1", a.ID))
	list := svc.List(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "B", list[0].Name)
}

func TestPresetServiceDuplicate(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	src, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Source", Filters: stateWithType("MCQ")})
	require.NoError(t, err)

	dup, err := svc.Duplicate(ctx, "u1", src.ID, dto.DuplicatePresetRequest{Name: "Copy"})
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "MCQ", dup.Filters.Basic.QuestionType)
	assert.True(t, dup.CreatedAt.After(src.CreatedAt))

	_, err = svc.Duplicate(ctx, "u1", src.ID, dto.DuplicatePresetRequest{Name: "SOURCE"})
	assert.ErrorIs(t, err, appErrors.ErrPresetNameTaken)

	_, err = svc.Duplicate(ctx, "u1", "missing", dto.DuplicatePresetRequest{Name: "Other"})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPresetServiceValidation(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	_, err := svc.Save(context.Background(), "u1", dto.SavePresetRequest{Name: "   ", Filters: models.DefaultFilterState()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPresetServiceScopesByOwner(t *testing.T) {
	store := newKVStoreStub()
	svc := newTestPresetService(t, store)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Mine", Filters: models.DefaultFilterState()})
	require.NoError(t, err)

	assert.Empty(t, svc.List(ctx, "u2"))
	assert.Contains(t, store.values, "questionFilterPresets:u1")
}

func TestPresetServiceFailedWriteLeavesListUnchanged(t *testing.T) {
	store := newKVStoreStub()
	svc := newTestPresetService(t, store)
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Kept", Filters: models.DefaultFilterState()})
	require.NoError(t, err)

	store.putErr = errors.New("disk full")
	_, err = svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Lost", Filters: models.DefaultFilterState()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	store.putErr = nil
	list := svc.List(ctx, "u1")
	require.Len(t, list, 1)
	assert.Equal(t, "Kept", list[0].Name)
}

func TestPresetServiceCorruptStorageLoadsEmpty(t *testing.T) {
	store := newKVStoreStub()
	store.values["questionFilterPresets:u1"] = []byte(`{not json`)
	svc := newTestPresetService(t, store)
	ctx := context.Background()

	assert.Empty(t, svc.List(ctx, "u1"))
	stats := svc.Stats(ctx, "u1")
	assert.Equal(t, 0, stats.Total)
	assert.Nil(t, stats.Oldest)
	assert.Nil(t, stats.Newest)

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Fresh", Filters: models.DefaultFilterState()})
	require.NoError(t, err)
	assert.Len(t, svc.List(ctx, "u1"), 1)
}

func TestPresetServiceUnavailableStorage(t *testing.T) {
	store := newKVStoreStub()
	store.getErr = errors.New("connection refused")
	svc := newTestPresetService(t, store)
	ctx := context.Background()

	assert.Empty(t, svc.List(ctx, "u1"))

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "X", Filters: models.DefaultFilterState()})
	require.Error(t, err)
	assert.Equal(t, 0, store.puts, "a failed read must not lead to an overwrite")
}

func TestPresetServiceExportImportRoundTrip(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Algebra", Filters: stateWithType("MCQ")})
	require.NoError(t, err)
	_, err = svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Geometry", Filters: stateWithType("ESSAY")})
	require.NoError(t, err)

	payload, err := svc.Export(ctx, "u1")
	require.NoError(t, err)

	var exported []models.Preset
	require.NoError(t, json.Unmarshal(payload, &exported))
	require.Len(t, exported, 2)

	result, err := svc.Import(ctx, "u2", payload)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Skipped)

	imported := svc.List(ctx, "u2")
	require.Len(t, imported, 2)
	for i := range imported {
		assert.NotEqual(t, exported[i].ID, imported[i].ID)
		assert.Equal(t, exported[i].Name, imported[i].Name)
		assert.Equal(t, exported[i].Filters, imported[i].Filters)
		assert.True(t, exported[i].CreatedAt.Equal(imported[i].CreatedAt))
	}
}

func TestPresetServiceImportRenamesCollisions(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Algebra", Filters: models.DefaultFilterState()})
	require.NoError(t, err)

	file := `[
		{"id":"x1","name":"algebra","filters":{},"createdAt":"2023-01-01T00:00:00Z"},
		{"id":"x2","name":"Algebra","filters":{"basic":{"questionType":"MCQ"}},"createdAt":"2023-01-02T00:00:00Z"}
	]`
	result, err := svc.Import(ctx, "u1", []byte(file))
	require.NoError(t, err)
	require.Len(t, result.Presets, 2)
	assert.Equal(t, "algebra (2)", result.Presets[0].Name)
	assert.Equal(t, "Algebra (3)", result.Presets[1].Name)
	assert.Equal(t, models.DefaultMaxMarks, result.Presets[1].Filters.Basic.MaxMarks, "missing fields keep defaults")
	assert.Equal(t, "MCQ", result.Presets[1].Filters.Basic.QuestionType)
}

func TestPresetServiceImportRejection(t *testing.T) {
	cases := []struct {
		name string
		file string
		code string
	}{
		{"object at top level", `{"id":"a","name":"b","filters":{},"createdAt":"2023-01-01T00:00:00Z"}`, appErrors.ErrInvalidPresetFile.Code},
		{"not json", `hello`, appErrors.ErrInvalidPresetFile.Code},
		{"null at top level", `null`, appErrors.ErrInvalidPresetFile.Code},
		{"padded null", " null\n", appErrors.ErrInvalidPresetFile.Code},
		{"entries missing fields", `[{"name":"a","filters":{},"createdAt":"2023-01-01T00:00:00Z"},{"id":"b","filters":{},"createdAt":"2023-01-01T00:00:00Z"},{"id":"c","name":"c","createdAt":"2023-01-01T00:00:00Z"},{"id":"d","name":"d","filters":{}}]`, appErrors.ErrNoValidPresets.Code},
		{"empty array", `[]`, appErrors.ErrNoValidPresets.Code},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newKVStoreStub()
			svc := newTestPresetService(t, store)
			_, err := svc.Import(context.Background(), "u1", []byte(tc.file))
			require.Error(t, err)
			assert.Equal(t, tc.code, appErrors.FromError(err).Code)
			assert.Empty(t, svc.List(context.Background(), "u1"))
			assert.Equal(t, 0, store.puts)
		})
	}
}

func TestPresetServiceImportSkipsInvalidEntries(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	file := `[{"id":"a","name":"Valid","filters":{},"createdAt":"2023-01-01T00:00:00Z"},{"name":"Invalid"}]`

	result, err := svc.Import(context.Background(), "u1", []byte(file))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, result.Skipped)
}

func TestPresetServiceImportOverLimit(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()
	for i := 0; i < 9; i++ {
		_, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: fmt.Sprintf("P%d", i), Filters: models.DefaultFilterState()})
		require.NoError(t, err)
	}

	file := `[{"id":"a","name":"A","filters":{},"createdAt":"2023-01-01T00:00:00Z"},{"id":"b","name":"B","filters":{},"createdAt":"2023-01-01T00:00:00Z"}]`
	_, err := svc.Import(ctx, "u1", []byte(file))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPresetLimit.Code, appErrors.FromError(err).Code)
	assert.Len(t, svc.List(ctx, "u1"), 9)
}

func TestPresetServiceStatsAndClearAll(t *testing.T) {
	svc := newTestPresetService(t, newKVStoreStub())
	ctx := context.Background()

	first, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "First", Filters: models.DefaultFilterState()})
	require.NoError(t, err)
	last, err := svc.Save(ctx, "u1", dto.SavePresetRequest{Name: "Last", Filters: models.DefaultFilterState()})
	require.NoError(t, err)

	stats := svc.Stats(ctx, "u1")
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 10, stats.Max)
	assert.True(t, stats.CanAddMore)
	require.NotNil(t, stats.Oldest)
	require.NotNil(t, stats.Newest)
	assert.True(t, stats.Oldest.Equal(first.CreatedAt))
	assert.True(t, stats.Newest.Equal(last.CreatedAt))

	require.NoError(t, svc.ClearAll(ctx, "u1"))
	assert.Equal(t, 0, svc.Stats(ctx, "u1").Total)
}
