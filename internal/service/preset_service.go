package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

// DefaultMaxPresets is used when no limit is configured.
const DefaultMaxPresets = 10

// presetStorage is a durable key/value store holding one serialised preset list per key.
type presetStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

// PresetServiceConfig tunes storage naming and limits.
type PresetServiceConfig struct {
	StorageKey string
	MaxCount   int
}

// PresetService manages named filter snapshots per admin user. Every mutation rewrites the
// owner's full list.
type PresetService struct {
	store      presetStorage
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
	storageKey string
	max        int

	now   func() time.Time
	newID func() (string, error)

	mu sync.Mutex
}

// NewPresetService constructs a PresetService.
func NewPresetService(store presetStorage, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg PresetServiceConfig) *PresetService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StorageKey == "" {
		cfg.StorageKey = "questionFilterPresets"
	}
	if cfg.MaxCount <= 0 {
		cfg.MaxCount = DefaultMaxPresets
	}
	return &PresetService{
		store:      store,
		validator:  validate,
		logger:     logger,
		metrics:    metrics,
		storageKey: cfg.StorageKey,
		max:        cfg.MaxCount,
		now:        time.Now,
		newID:      newPresetID,
	}
}

func newPresetID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// MaxCount returns the configured preset limit.
func (s *PresetService) MaxCount() int {
	return s.max
}

// List returns the owner's presets in insertion order.
func (s *PresetService) List(ctx context.Context, owner string) []models.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePresets(s.loadBestEffort(ctx, owner))
}

// Get returns one preset.
func (s *PresetService) Get(ctx context.Context, owner, id string) (*models.Preset, error) {
	list := s.List(ctx, owner)
	idx := indexOfPreset(list, id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preset not found")
	}
	return &list[idx], nil
}

// Load returns a deep copy of the stored filters of preset id.
func (s *PresetService) Load(ctx context.Context, owner, id string) (*models.FilterState, error) {
	preset, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	filters := preset.Filters.Clone()
	return &filters, nil
}

// Save appends a new preset. It fails when the name is taken (ignoring case) or the limit is
// reached.
func (s *PresetService) Save(ctx context.Context, owner string, req dto.SavePresetRequest) (*models.Preset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid preset payload")
	}
	name := normalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preset name is required")
	}

	var created models.Preset
	err := s.mutate(ctx, owner, "save", func(list []models.Preset) ([]models.Preset, error) {
		if nameTaken(list, name, "") {
			return nil, appErrors.ErrPresetNameTaken
		}
		if len(list) >= s.max {
			return nil, s.limitError()
		}
		preset, err := s.newPreset(name, req.Filters, time.Time{})
		if err != nil {
			return nil, err
		}
		created = preset
		return append(list, preset), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Update overwrites the filters of a preset, keeping its id, name and createdAt.
func (s *PresetService) Update(ctx context.Context, owner, id string, filters models.FilterState) (*models.Preset, error) {
	var updated models.Preset
	err := s.mutate(ctx, owner, "update", func(list []models.Preset) ([]models.Preset, error) {
		idx := indexOfPreset(list, id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preset not found")
		}
		list[idx].Filters = filters.WithoutPresets()
		list[idx].UpdatedAt = s.now().UTC()
		updated = list[idx].Clone()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Rename changes a preset name. Only collisions with other presets are rejected.
func (s *PresetService) Rename(ctx context.Context, owner, id string, req dto.RenamePresetRequest) (*models.Preset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rename payload")
	}
	name := normalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preset name is required")
	}

	var renamed models.Preset
	err := s.mutate(ctx, owner, "rename", func(list []models.Preset) ([]models.Preset, error) {
		idx := indexOfPreset(list, id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preset not found")
		}
		if nameTaken(list, name, id) {
			return nil, appErrors.ErrPresetNameTaken
		}
		list[idx].Name = name
		list[idx].UpdatedAt = s.now().UTC()
		renamed = list[idx].Clone()
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return &renamed, nil
}

// Delete removes a preset if present. Deleting an unknown id is not an error.
func (s *PresetService) Delete(ctx context.Context, owner, id string) error {
	return s.mutate(ctx, owner, "delete", func(list []models.Preset) ([]models.Preset, error) {
		idx := indexOfPreset(list, id)
		if idx < 0 {
			return nil, errNoChange
		}
		return append(list[:idx], list[idx+1:]...), nil
	})
}

// Duplicate copies a preset's filters under a new name with a fresh id and timestamps.
func (s *PresetService) Duplicate(ctx context.Context, owner, id string, req dto.DuplicatePresetRequest) (*models.Preset, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duplicate payload")
	}
	name := normalizeName(req.Name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "preset name is required")
	}

	var created models.Preset
	err := s.mutate(ctx, owner, "duplicate", func(list []models.Preset) ([]models.Preset, error) {
		idx := indexOfPreset(list, id)
		if idx < 0 {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "preset not found")
		}
		if nameTaken(list, name, "") {
			return nil, appErrors.ErrPresetNameTaken
		}
		if len(list) >= s.max {
			return nil, s.limitError()
		}
		preset, err := s.newPreset(name, list[idx].Filters, time.Time{})
		if err != nil {
			return nil, err
		}
		created = preset
		return append(list, preset), nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ClearAll removes every preset of the owner.
func (s *PresetService) ClearAll(ctx context.Context, owner string) error {
	return s.mutate(ctx, owner, "clear", func([]models.Preset) ([]models.Preset, error) {
		return []models.Preset{}, nil
	})
}

// Export serialises all presets as an indented JSON array accepted by Import.
func (s *PresetService) Export(ctx context.Context, owner string) ([]byte, error) {
	list := s.List(ctx, owner)
	payload, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export presets")
	}
	s.metrics.RecordPresetOperation("export", nil)
	return payload, nil
}

// Import appends the valid entries of an exported file. Entries missing id, name, filters or
// createdAt are skipped. Imported presets get new ids and a refreshed updatedAt; names that
// collide get a numeric suffix.
func (s *PresetService) Import(ctx context.Context, owner string, data []byte) (*dto.ImportPresetsResponse, error) {
	var entries []json.RawMessage
	err := json.Unmarshal(data, &entries)
	if err == nil && !bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		// null decodes into a nil slice without error.
		err = errors.New("top-level value is not an array")
	}
	if err != nil {
		s.metrics.RecordPresetOperation("import", err)
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidPresetFile.Code, appErrors.ErrInvalidPresetFile.Status,
			"invalid preset file format: expected an array")
	}

	candidates := make([]importedPreset, 0, len(entries))
	for _, raw := range entries {
		if entry, ok := decodeImportEntry(raw); ok {
			candidates = append(candidates, entry)
		}
	}
	skipped := len(entries) - len(candidates)
	if len(candidates) == 0 {
		s.metrics.RecordPresetOperation("import", appErrors.ErrNoValidPresets)
		return nil, appErrors.ErrNoValidPresets
	}

	added := make([]models.Preset, 0, len(candidates))
	err = s.mutate(ctx, owner, "import", func(list []models.Preset) ([]models.Preset, error) {
		if len(list)+len(candidates) > s.max {
			return nil, appErrors.Clone(appErrors.ErrPresetLimit,
				fmt.Sprintf("cannot import %d presets: would exceed maximum of %d", len(candidates), s.max))
		}
		for _, entry := range candidates {
			name := uniqueName(list, entry.Name)
			preset, err := s.newPreset(name, entry.Filters, entry.CreatedAt)
			if err != nil {
				return nil, err
			}
			list = append(list, preset)
			added = append(added, preset)
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("presets imported", zap.String("owner", owner), zap.Int("imported", len(added)), zap.Int("skipped", skipped))
	return &dto.ImportPresetsResponse{Imported: len(added), Skipped: skipped, Presets: clonePresets(added)}, nil
}

// Stats summarises the owner's presets.
func (s *PresetService) Stats(ctx context.Context, owner string) models.PresetStats {
	list := s.List(ctx, owner)
	stats := models.PresetStats{Total: len(list), Max: s.max, CanAddMore: len(list) < s.max}
	for i := range list {
		created := list[i].CreatedAt
		if stats.Oldest == nil || created.Before(*stats.Oldest) {
			stats.Oldest = &created
		}
		if stats.Newest == nil || created.After(*stats.Newest) {
			newest := created
			stats.Newest = &newest
		}
	}
	return stats
}

// errNoChange aborts a mutation without writing and without reporting an error.
var errNoChange = errors.New("no change")

// mutate serialises read-modify-write cycles. fn receives a private copy of the list; the
// stored list is only replaced when fn succeeds and the write goes through.
func (s *PresetService) mutate(ctx context.Context, owner, op string, fn func([]models.Preset) ([]models.Preset, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.loadForWrite(ctx, owner)
	if err != nil {
		s.metrics.RecordPresetOperation(op, err)
		return err
	}
	next, err := fn(clonePresets(list))
	if errors.Is(err, errNoChange) {
		s.metrics.RecordPresetOperation(op, nil)
		return nil
	}
	if err != nil {
		s.metrics.RecordPresetOperation(op, err)
		return err
	}

	payload, err := json.Marshal(next)
	if err == nil {
		err = s.store.Put(ctx, s.key(owner), payload)
	}
	if err != nil {
		s.logger.Error("persist presets failed", zap.String("owner", owner), zap.String("operation", op), zap.Error(err))
		s.metrics.RecordPresetOperation(op, err)
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist presets")
	}
	s.metrics.RecordPresetOperation(op, nil)
	return nil
}

// loadBestEffort treats unavailable storage and corrupt data as an empty list.
func (s *PresetService) loadBestEffort(ctx context.Context, owner string) []models.Preset {
	raw, err := s.store.Get(ctx, s.key(owner))
	if err != nil {
		if !errors.Is(err, appErrors.ErrKeyNotFound) {
			s.logger.Warn("load presets failed", zap.String("owner", owner), zap.Error(err))
		}
		return []models.Preset{}
	}
	return s.decodeStored(owner, raw)
}

// loadForWrite refuses to continue on storage errors so a transient outage cannot overwrite the
// stored list. Corrupt data still counts as empty.
func (s *PresetService) loadForWrite(ctx context.Context, owner string) ([]models.Preset, error) {
	raw, err := s.store.Get(ctx, s.key(owner))
	if err != nil {
		if errors.Is(err, appErrors.ErrKeyNotFound) {
			return []models.Preset{}, nil
		}
		s.logger.Error("load presets failed", zap.String("owner", owner), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "preset storage unavailable")
	}
	return s.decodeStored(owner, raw), nil
}

func (s *PresetService) decodeStored(owner string, raw []byte) []models.Preset {
	var list []models.Preset
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("stored presets are corrupt, ignoring", zap.String("owner", owner), zap.Error(err))
		return []models.Preset{}
	}
	if list == nil {
		return []models.Preset{}
	}
	return list
}

func (s *PresetService) key(owner string) string {
	return s.storageKey + ":" + owner
}

func (s *PresetService) limitError() error {
	return appErrors.Clone(appErrors.ErrPresetLimit, fmt.Sprintf("maximum of %d presets reached", s.max))
}

// newPreset builds a preset with a fresh id. A zero createdAt means now.
func (s *PresetService) newPreset(name string, filters models.FilterState, createdAt time.Time) (models.Preset, error) {
	id, err := s.newID()
	if err != nil {
		return models.Preset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate preset id")
	}
	now := s.now().UTC()
	if createdAt.IsZero() {
		createdAt = now
	}
	return models.Preset{
		ID:        id,
		Name:      name,
		Filters:   filters.WithoutPresets(),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}, nil
}

type importedPreset struct {
	Name      string
	Filters   models.FilterState
	CreatedAt time.Time
}

var requiredImportFields = []string{"id", "name", "filters", "createdAt"}

func decodeImportEntry(raw json.RawMessage) (importedPreset, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return importedPreset{}, false
	}
	for _, key := range requiredImportFields {
		value, ok := fields[key]
		if !ok || string(value) == "null" {
			return importedPreset{}, false
		}
	}

	var entry importedPreset
	if err := json.Unmarshal(fields["name"], &entry.Name); err != nil {
		return importedPreset{}, false
	}
	if entry.Name = normalizeName(entry.Name); entry.Name == "" {
		return importedPreset{}, false
	}
	if err := json.Unmarshal(fields["createdAt"], &entry.CreatedAt); err != nil {
		return importedPreset{}, false
	}
	// Fields absent from the file keep their defaults.
	entry.Filters = models.DefaultFilterState()
	if err := json.Unmarshal(fields["filters"], &entry.Filters); err != nil {
		return importedPreset{}, false
	}
	entry.Filters = entry.Filters.Clone()
	return entry, true
}

func normalizeName(name string) string {
	return strings.TrimSpace(name)
}

func foldName(name string) string {
	return cases.Fold().String(normalizeName(name))
}

// nameTaken reports whether name collides, ignoring case, with a preset other than exceptID.
func nameTaken(list []models.Preset, name, exceptID string) bool {
	folded := foldName(name)
	for _, preset := range list {
		if preset.ID != exceptID && foldName(preset.Name) == folded {
			return true
		}
	}
	return false
}

// uniqueName appends " (n)" until name no longer collides.
func uniqueName(list []models.Preset, name string) string {
	if !nameTaken(list, name, "") {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s (%d)", name, n)
		if !nameTaken(list, candidate, "") {
			return candidate
		}
	}
}

func indexOfPreset(list []models.Preset, id string) int {
	for i, preset := range list {
		if preset.ID == id {
			return i
		}
	}
	return -1
}

func clonePresets(list []models.Preset) []models.Preset {
	out := make([]models.Preset, len(list))
	for i, preset := range list {
		out[i] = preset.Clone()
	}
	return out
}
