package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/qbank-admin-api/internal/dto"
	"github.com/noah-isme/qbank-admin-api/internal/models"
	appErrors "github.com/noah-isme/qbank-admin-api/pkg/errors"
)

type workspaceServiceStub struct {
	owner    string
	rawQuery string
	section  string
	patch    string
	preset   string
	saveName string
	err      error
}

func (s *workspaceServiceStub) view(id string) *dto.WorkspaceView {
	return &dto.WorkspaceView{ID: id, Filters: models.DefaultFilterState(), Location: "/questions", Synced: true}
}

func (s *workspaceServiceStub) Create(ctx context.Context, owner, rawQuery string) (*dto.WorkspaceView, error) {
	s.owner, s.rawQuery = owner, rawQuery
	if s.err != nil {
		return nil, s.err
	}
	return s.view("ws-1"), nil
}

func (s *workspaceServiceStub) Get(ctx context.Context, owner, id string) (*dto.WorkspaceView, error) {
	s.owner = owner
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func (s *workspaceServiceStub) Delete(ctx context.Context, owner, id string) error {
	s.owner = owner
	return s.err
}

func (s *workspaceServiceStub) UpdateSection(ctx context.Context, owner, id, section string, rawPatch []byte) (*dto.WorkspaceView, error) {
	s.owner, s.section, s.patch = owner, section, string(rawPatch)
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func (s *workspaceServiceStub) Reset(ctx context.Context, owner, id string) (*dto.WorkspaceView, error) {
	s.owner = owner
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func (s *workspaceServiceStub) SavePreset(ctx context.Context, owner, id string, req dto.SaveWorkspacePresetRequest) (*models.Preset, *dto.WorkspaceView, error) {
	s.owner, s.saveName = owner, req.Name
	if s.err != nil {
		return nil, nil, s.err
	}
	return &models.Preset{ID: "p-1", Name: req.Name, Filters: models.DefaultFilterState()}, s.view(id), nil
}

func (s *workspaceServiceStub) ApplyPreset(ctx context.Context, owner, id, presetID string) (*dto.WorkspaceView, error) {
	s.owner, s.preset = owner, presetID
	if s.err != nil {
		return nil, s.err
	}
	return s.view(id), nil
}

func workspaceRouter(user string, svc *workspaceServiceStub) http.Handler {
	h := NewWorkspaceHandler(svc)
	r := testRouter(user)
	r.POST("/workspaces", h.Create)
	r.GET("/workspaces/:id", h.Get)
	r.DELETE("/workspaces/:id", h.Delete)
	r.PATCH("/workspaces/:id/sections/:section", h.UpdateSection)
	r.POST("/workspaces/:id/reset", h.Reset)
	r.POST("/workspaces/:id/presets", h.SavePreset)
	r.POST("/workspaces/:id/presets/:presetId/apply", h.ApplyPreset)
	return r
}

func TestWorkspaceHandlerCreatePassesRawQuery(t *testing.T) {
	svc := &workspaceServiceStub{}
	w := doRequest(workspaceRouter("u1", svc), http.MethodPost, "/workspaces?questionType=MCQ&page=2", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var view dto.WorkspaceView
	decodeEnvelope(t, w, &view)
	assert.Equal(t, "ws-1", view.ID)
	assert.Equal(t, "u1", svc.owner)
	assert.Equal(t, "questionType=MCQ&page=2", svc.rawQuery)
}

func TestWorkspaceHandlerUpdateSection(t *testing.T) {
	svc := &workspaceServiceStub{}
	r := workspaceRouter("u1", svc)

	w := doRequest(r, http.MethodPatch, "/workspaces/ws-1/sections/basic", `{"questionType":"TF"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "basic", svc.section)
	assert.JSONEq(t, `{"questionType":"TF"}`, svc.patch)

	svc.section = ""
	w = doRequest(r, http.MethodPatch, "/workspaces/ws-1/sections/basic", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, svc.section, "empty bodies never reach the service")
}

func TestWorkspaceHandlerPresets(t *testing.T) {
	svc := &workspaceServiceStub{}
	r := workspaceRouter("u1", svc)

	w := doRequest(r, http.MethodPost, "/workspaces/ws-1/presets", dto.SaveWorkspacePresetRequest{Name: "Algebra"})
	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		Preset    models.Preset     `json:"preset"`
		Workspace dto.WorkspaceView `json:"workspace"`
	}
	decodeEnvelope(t, w, &body)
	assert.Equal(t, "Algebra", body.Preset.Name)
	assert.Equal(t, "ws-1", body.Workspace.ID)

	w = doRequest(r, http.MethodPost, "/workspaces/ws-1/presets", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodPost, "/workspaces/ws-1/presets/p-9/apply", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "p-9", svc.preset)
}

func TestWorkspaceHandlerMapsServiceErrors(t *testing.T) {
	svc := &workspaceServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "workspace not found")}
	r := workspaceRouter("u1", svc)

	for _, tc := range []struct {
		method string
		target string
	}{
		{http.MethodGet, "/workspaces/missing"},
		{http.MethodDelete, "/workspaces/missing"},
		{http.MethodPost, "/workspaces/missing/reset"},
		{http.MethodPost, "/workspaces/missing/presets/p-1/apply"},
	} {
		w := doRequest(r, tc.method, tc.target, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.target)
		assert.Equal(t, appErrors.ErrNotFound.Code, decodeEnvelope(t, w, nil).Error.Code, tc.target)
	}
}

func TestWorkspaceHandlerDeleteAndReset(t *testing.T) {
	svc := &workspaceServiceStub{}
	r := workspaceRouter("u1", svc)

	w := doRequest(r, http.MethodPost, "/workspaces/ws-1/reset", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodDelete, "/workspaces/ws-1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestWorkspaceHandlerRequiresUser(t *testing.T) {
	svc := &workspaceServiceStub{}
	w := doRequest(workspaceRouter("", svc), http.MethodPost, "/workspaces", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, svc.owner)
}
