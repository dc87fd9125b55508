package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, env *testEnv) (*websocket.Conn, *http.Response, error) {
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/stream"
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestStream_RejectsWithoutSession(t *testing.T) {
	env := setupTestEnv(t)

	_, resp, err := dialStream(t, env)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStream_PushesStateOnChange(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, 1)

	conn, _, err := dialStream(t, env)
	require.NoError(t, err)
	defer conn.Close()

	var msg StreamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "state", msg.Type)
	require.NotNil(t, msg.Data)
	assert.Empty(t, msg.Data.Tasks)
	assert.Equal(t, 1.0, testutil.ToFloat64(env.metrics.StreamClients))

	task := env.createTask(t, "todo", "Live")

	// signals are coalesced, read until the new task shows up
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		if len(msg.Data.Tasks) == 1 {
			break
		}
	}
	assert.Equal(t, task.ID, msg.Data.Tasks[0].ID)
}

func TestStream_ClosesWhenSessionEnds(t *testing.T) {
	env := setupTestEnv(t)
	env.login(t, 1)

	conn, _, err := dialStream(t, env)
	require.NoError(t, err)
	defer conn.Close()

	var msg StreamMessage
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))

	require.NoError(t, env.sessions.Logout(t.Context()))

	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		if err = conn.ReadJSON(&msg); err != nil {
			break
		}
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
}
