package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/filter"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
	"github.com/noah-isme/qbank-admin-api/pkg/jobs"
)

const workspaceSearchJob = "workspace.search"

type questionSearcher interface {
	Search(ctx context.Context, state models.FilterState) dto.QuestionSearchResult
}

// WorkspaceServiceConfig tunes debouncing, sweeping and the query worker pool.
type WorkspaceServiceConfig struct {
	BasePath string
	Debounce time.Duration
	IdleTTL  time.Duration
	Workers  int
}

type workspace struct {
	id    string
	owner string

	mu        sync.Mutex
	store     *filter.Store
	history   *filter.MemoryHistory
	syncer    *filter.Synchronizer
	query     *filter.Debouncer
	seq       uint64
	applied   uint64
	result    *dto.QuestionSearchResult
	updatedAt time.Time
	// seenAt is the last client activity, reads included; the idle sweep keys off it.
	seenAt time.Time
}

type workspaceQuery struct {
	workspaceID string
	seq         uint64
	state       models.FilterState
}

// WorkspaceService keeps server-side filter screens: each workspace owns a filter store, mirrors
// it into a URL and runs the matching search in the background. A search result is shown only
// if no newer search has already been applied.
type WorkspaceService struct {
	searcher questionSearcher
	presets  *PresetService
	metrics  *MetricsService
	logger   *zap.Logger
	cfg      WorkspaceServiceConfig
	queue    *jobs.Queue
	now      func() time.Time

	mu         sync.RWMutex
	workspaces map[string]*workspace
	stopSweep  context.CancelFunc
	sweepDone  chan struct{}
}

// NewWorkspaceService constructs a WorkspaceService. Call Start before creating workspaces.
func NewWorkspaceService(searcher questionSearcher, presets *PresetService, metrics *MetricsService, logger *zap.Logger, cfg WorkspaceServiceConfig) *WorkspaceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BasePath == "" {
		cfg.BasePath = "/questions"
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 30 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}

	s := &WorkspaceService{
		searcher:   searcher,
		presets:    presets,
		metrics:    metrics,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
		workspaces: make(map[string]*workspace),
	}
	s.queue = jobs.NewQueue("workspace-search", s.runQuery, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.Workers * 16,
		MaxRetries: -1,
		Logger:     logger,
	})
	return s
}

// Start launches the query workers and the idle sweeper.
func (s *WorkspaceService) Start(ctx context.Context) {
	s.queue.Start(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopSweep != nil {
		return
	}
	sweepCtx, cancel := context.WithCancel(ctx)
	s.stopSweep = cancel
	s.sweepDone = make(chan struct{})
	go s.sweepLoop(sweepCtx, s.sweepDone)
}

// Stop halts the sweeper, cancels pending timers and waits for the workers.
func (s *WorkspaceService) Stop() {
	s.mu.Lock()
	cancel, done := s.stopSweep, s.sweepDone
	s.stopSweep, s.sweepDone = nil, nil
	for _, ws := range s.workspaces {
		ws.stopTimers()
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.queue.Stop()
}

// Create opens a workspace. A query string carrying known filter keys seeds the state, otherwise
// the defaults are used. The URL is synced and the first search dispatched immediately.
func (s *WorkspaceService) Create(ctx context.Context, owner, rawQuery string) (*dto.WorkspaceView, error) {
	initial := models.DefaultFilterState()
	if patch, found := filter.DecodeQuery(rawQuery); found {
		initial = patch.Snapshot(initial)
	}

	location := s.cfg.BasePath
	if q := strings.TrimPrefix(strings.TrimSpace(rawQuery), "?"); q != "" {
		location += "?" + q
	}
	history := filter.NewMemoryHistory(location)

	ws := &workspace{
		id:        newWorkspaceID(),
		owner:     owner,
		store:     filter.NewStore(initial),
		history:   history,
		syncer:    filter.NewSynchronizer(s.cfg.BasePath, history, s.cfg.Debounce),
		query:     filter.NewDebouncer(s.cfg.Debounce),
		updatedAt: s.now(),
	}
	ws.seenAt = ws.updatedAt

	saved := s.presets.List(ctx, owner)
	ws.mu.Lock()
	state := ws.store.Dispatch(filter.UpdatePresetsMeta{Patch: filter.PresetsPatch{Saved: filter.Some(saved)}})
	ws.syncer.Sync(state)
	ws.mu.Unlock()

	s.mu.Lock()
	s.workspaces[ws.id] = ws
	active := len(s.workspaces)
	s.mu.Unlock()
	s.metrics.SetActiveWorkspaces(active)

	s.dispatchQuery(ws)
	s.logger.Debug("workspace created", zap.String("workspace_id", ws.id), zap.String("owner", owner), zap.String("location", history.Location()))
	return ws.view(), nil
}

// Get returns the current view of a workspace.
func (s *WorkspaceService) Get(ctx context.Context, owner, id string) (*dto.WorkspaceView, error) {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	ws.mu.Lock()
	ws.seenAt = s.now()
	ws.mu.Unlock()
	return ws.view(), nil
}

// Delete closes a workspace and cancels its pending sync and search.
func (s *WorkspaceService) Delete(ctx context.Context, owner, id string) error {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return err
	}
	s.remove(ws)
	return nil
}

// UpdateSection merges a partial update into one section. The presets section is managed through
// SavePreset and ApplyPreset and cannot be patched directly.
func (s *WorkspaceService) UpdateSection(ctx context.Context, owner, id, section string, rawPatch []byte) (*dto.WorkspaceView, error) {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	sec, err := filter.ParseSection(section)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if sec == filter.SectionPresets {
		return nil, appErrors.Clone(appErrors.ErrValidation, "the presets section is read-only; use the preset endpoints")
	}
	action, err := filter.DecodeSectionPatch(sec, rawPatch)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	s.apply(ws, action)
	return ws.view(), nil
}

// Reset restores default filters, keeping the saved preset list.
func (s *WorkspaceService) Reset(ctx context.Context, owner, id string) (*dto.WorkspaceView, error) {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	s.apply(ws, filter.ResetAll{})
	return ws.view(), nil
}

// SavePreset stores the workspace's current filters under name and refreshes the mirrored list.
func (s *WorkspaceService) SavePreset(ctx context.Context, owner, id string, req dto.SaveWorkspacePresetRequest) (*models.Preset, *dto.WorkspaceView, error) {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return nil, nil, err
	}

	ws.mu.Lock()
	current := ws.store.State()
	ws.mu.Unlock()

	preset, err := s.presets.Save(ctx, owner, dto.SavePresetRequest{Name: req.Name, Filters: current})
	if err != nil {
		return nil, nil, err
	}
	s.mirrorPresets(ctx, ws, nil)
	return preset, ws.view(), nil
}

// ApplyPreset loads a preset's filters into the workspace and marks it active.
func (s *WorkspaceService) ApplyPreset(ctx context.Context, owner, id, presetID string) (*dto.WorkspaceView, error) {
	ws, err := s.lookup(owner, id)
	if err != nil {
		return nil, err
	}
	filters, err := s.presets.Load(ctx, owner, presetID)
	if err != nil {
		return nil, err
	}

	s.apply(ws, filter.LoadSnapshot{Snapshot: *filters})
	active := presetID
	s.mirrorPresets(ctx, ws, &active)
	return ws.view(), nil
}

// ActiveCount returns the number of open workspaces.
func (s *WorkspaceService) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workspaces)
}

// SweepIdle closes workspaces without client activity for longer than the idle TTL and returns how many.
func (s *WorkspaceService) SweepIdle() int {
	cutoff := s.now().Add(-s.cfg.IdleTTL)

	s.mu.RLock()
	var idle []*workspace
	for _, ws := range s.workspaces {
		ws.mu.Lock()
		if ws.seenAt.Before(cutoff) {
			idle = append(idle, ws)
		}
		ws.mu.Unlock()
	}
	s.mu.RUnlock()

	for _, ws := range idle {
		s.remove(ws)
	}
	if len(idle) > 0 {
		s.logger.Info("idle workspaces swept", zap.Int("count", len(idle)))
	}
	return len(idle)
}

func (s *WorkspaceService) sweepLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	interval := s.cfg.IdleTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.SweepIdle()
		}
	}
}

// apply dispatches action and schedules the URL sync and the search. The debounced search reads
// the state when it fires, so a burst of edits produces one search for the final state.
func (s *WorkspaceService) apply(ws *workspace, action filter.Action) {
	ws.mu.Lock()
	state := ws.store.Dispatch(action)
	ws.updatedAt = s.now()
	ws.seenAt = ws.updatedAt
	ws.syncer.Schedule(state)
	ws.mu.Unlock()

	ws.query.Schedule(func() { s.dispatchQuery(ws) })
}

func (s *WorkspaceService) mirrorPresets(ctx context.Context, ws *workspace, active *string) {
	saved := s.presets.List(ctx, ws.owner)
	patch := filter.PresetsPatch{Saved: filter.Some(saved)}
	if active != nil {
		patch.Active = filter.Some(active)
	}

	ws.mu.Lock()
	ws.store.Dispatch(filter.UpdatePresetsMeta{Patch: patch})
	ws.updatedAt = s.now()
	ws.seenAt = ws.updatedAt
	ws.mu.Unlock()
}

func (s *WorkspaceService) dispatchQuery(ws *workspace) {
	ws.mu.Lock()
	ws.seq++
	job := workspaceQuery{workspaceID: ws.id, seq: ws.seq, state: ws.store.State().WithoutPresets()}
	ws.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.queue.Enqueue(ctx, jobs.Job{
		ID:      fmt.Sprintf("%s#%d", job.workspaceID, job.seq),
		Kind:    workspaceSearchJob,
		Payload: job,
	})
	if err != nil {
		s.logger.Warn("workspace search not dispatched", zap.String("workspace_id", ws.id), zap.Uint64("seq", job.seq), zap.Error(err))
	}
}

func (s *WorkspaceService) runQuery(ctx context.Context, job jobs.Job) error {
	q, ok := job.Payload.(workspaceQuery)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}

	s.mu.RLock()
	ws := s.workspaces[q.workspaceID]
	s.mu.RUnlock()
	if ws == nil {
		return nil
	}

	result := s.searcher.Search(ctx, q.state)

	ws.mu.Lock()
	defer ws.mu.Unlock()
	if q.seq <= ws.applied {
		s.metrics.RecordStaleResult()
		s.logger.Debug("stale search result dropped", zap.String("workspace_id", ws.id), zap.Uint64("seq", q.seq), zap.Uint64("applied", ws.applied))
		return nil
	}
	ws.applied = q.seq
	ws.result = &result
	return nil
}

func (s *WorkspaceService) lookup(owner, id string) (*workspace, error) {
	s.mu.RLock()
	ws := s.workspaces[id]
	s.mu.RUnlock()
	if ws == nil || ws.owner != owner {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "workspace not found")
	}
	return ws, nil
}

func (s *WorkspaceService) remove(ws *workspace) {
	s.mu.Lock()
	delete(s.workspaces, ws.id)
	active := len(s.workspaces)
	s.mu.Unlock()

	ws.stopTimers()
	s.metrics.SetActiveWorkspaces(active)
}

func (ws *workspace) stopTimers() {
	ws.syncer.Stop()
	ws.query.Stop()
}

func (ws *workspace) view() *dto.WorkspaceView {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	state := ws.store.State()
	location := ws.history.Location()
	view := &dto.WorkspaceView{
		ID:           ws.id,
		Filters:      state,
		Location:     location,
		Synced:       location == ws.syncer.Location(state),
		Replacements: ws.history.Replacements(),
		Dispatched:   ws.seq,
		Applied:      ws.applied,
		Loading:      ws.applied < ws.seq,
		UpdatedAt:    ws.updatedAt,
	}
	if ws.result != nil {
		result := *ws.result
		result.Items = make([]models.Question, len(ws.result.Items))
		copy(result.Items, ws.result.Items)
		view.Result = &result
	}
	return view
}

func newWorkspaceID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
