package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kanban-sync/internal/domain"
	"kanban-sync/internal/metrics"
)

func newTestBinClient(t *testing.T, handler http.HandlerFunc) *BinClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	m := metrics.NewWithRegistry(prometheus.NewRegistry(), zap.NewNop())
	return NewBinClient(srv.URL, BinCredentials{BinID: "bin123", APIKey: "secret"}, 2*time.Second, zap.NewNop(), m)
}

func TestBinClient_FetchDocument_Object(t *testing.T) {
	c := newTestBinClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/b/bin123", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Master-Key"))
		_, _ = io.WriteString(w, `{"record":{"tasks":[{"id":"1","title":"A","description":"","columnId":"todo","color":"#6366f1","createdAt":1,"attachments":[]}],"presence":{"2":{"userId":2,"lastSeen":5,"viewingTaskId":"1"}}},"metadata":{}}`)
	})

	snap, err := c.FetchDocument(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, domain.ColumnTodo, snap.Tasks[0].ColumnID)
	require.Contains(t, snap.Presence, "2")
	assert.Equal(t, "1", *snap.Presence["2"].ViewingTaskID)
}

func TestBinClient_FetchDocument_LegacyArray(t *testing.T) {
	c := newTestBinClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"record":[{"id":"9","title":"Old","description":"","columnId":"done","color":"#10b981","createdAt":1,"attachments":[]}]}`)
	})

	snap, err := c.FetchDocument(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "9", snap.Tasks[0].ID)
	assert.NotNil(t, snap.Presence)
	assert.Empty(t, snap.Presence)
}

func TestBinClient_FetchDocument_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   ErrorKind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{}`, kind: KindUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, body: `{}`, kind: KindUnauthorized},
		{name: "server error", status: http.StatusInternalServerError, body: `{}`, kind: KindBadStatus},
		{name: "not json", status: http.StatusOK, body: `<html>`, kind: KindMalformedBody},
		{name: "record is a string", status: http.StatusOK, body: `{"record":"x"}`, kind: KindMalformedBody},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestBinClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := c.FetchDocument(context.Background())
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestBinClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewBinClient(url, BinCredentials{BinID: "b", APIKey: "k"}, time.Second, zap.NewNop(), nil)
	_, err := c.FetchDocument(context.Background())
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindUnreachable, kind)
}

func TestBinClient_WriteDocument(t *testing.T) {
	var got map[string]json.RawMessage
	c := newTestBinClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"record":{}}`)
	})

	err := c.WriteDocument(context.Background(), domain.BoardSnapshot{})
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(got["tasks"]))
	assert.JSONEq(t, `{}`, string(got["presence"]))
}

func TestBinClient_WriteDocument_NonSuccessIsFailure(t *testing.T) {
	c := newTestBinClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.WriteDocument(context.Background(), domain.BoardSnapshot{})
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindBadStatus, kind)
}

func TestBinClient_NotConfiguredAndReconfigure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = io.WriteString(w, `{"record":{"tasks":[]}}`)
	}))
	t.Cleanup(srv.Close)

	c := NewBinClient(srv.URL, BinCredentials{}, time.Second, zap.NewNop(), nil)
	assert.False(t, c.Configured())
	_, err := c.FetchDocument(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, c.WriteDocument(context.Background(), domain.BoardSnapshot{}), ErrNotConfigured)
	assert.Zero(t, calls)

	c.Reconfigure(BinCredentials{BinID: "b", APIKey: "k"})
	assert.True(t, c.Configured())
	_, err = c.FetchDocument(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}
