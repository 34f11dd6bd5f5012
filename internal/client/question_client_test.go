package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/noah-isme/qbank-admin-api/pkg/config"
)

func newTestClient(t *testing.T, srv *httptest.Server, retries int) *QuestionClient {
	t.Helper()
	return NewQuestionClient(config.BackendConfig{
		BaseURL:    srv.URL,
		SearchPath: "/questions/filter",
		ListPath:   "/questions",
		Timeout:    time.Second,
		RetryMax:   retries,
		AuthToken:  "service-token",
	}, zaptest.NewLogger(t))
}

func TestQuestionClientSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/questions/filter", r.URL.Path)
		assert.Equal(t, "Bearer service-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "MCQ", body["questionType"])
		_, _ = w.Write([]byte(`{"data":[],"total":0}`))
	}))
	defer srv.Close()

	payload, err := newTestClient(t, srv, 0).Search(context.Background(), map[string]interface{}{"questionType": "MCQ"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[],"total":0}`, string(payload))
}

func TestQuestionClientListAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/questions", r.URL.Path)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	payload, err := newTestClient(t, srv, 0).ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(payload))
}

func TestQuestionClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"bad filter"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 2).Search(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "bad filter")
}

func TestQuestionClientRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1},{"id":2}],"total":2}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv, 0)
	client.maxBody = 16
	_, err := client.ListAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	client.maxBody = int64(len(`{"data":[{"id":1},{"id":2}],"total":2}`))
	payload, err := client.ListAll(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":[{"id":1},{"id":2}],"total":2}`, string(payload))
}

func TestQuestionClientRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, 1).ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
