package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/circuitlens/circuitlens/graph"
	"github.com/circuitlens/circuitlens/inference"
	"github.com/circuitlens/circuitlens/logger"
)

// newWSTestServer starts a server with a running hub so broadcasts
// actually reach clients.
func newWSTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := testConfig(deadBackendURL(t), "")
	backend := inference.NewClient(cfg.Backend.BaseURL, 5*time.Second, logger.Logger)
	s := New(cfg, backend, nil, logger.Logger)
	go s.Run()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.cancel()
	})
	return s, ts
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readGraph(t *testing.T, conn *websocket.Conn) *graph.Graph {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var g graph.Graph
	require.NoError(t, conn.ReadJSON(&g))
	return &g
}

func TestWebSocketInitialGraph(t *testing.T) {
	_, ts := newWSTestServer(t)
	conn := dialWS(t, ts)

	// A fresh connection gets the current (empty) projection
	g := readGraph(t, conn)
	assert.Empty(t, g.Nodes)
	assert.Empty(t, g.Links)
}

func TestWebSocketBroadcastOnMutation(t *testing.T) {
	_, ts := newWSTestServer(t)
	conn := dialWS(t, ts)
	readGraph(t, conn) // initial projection

	uploadDataset(t, ts, smallDataset)

	g := readGraph(t, conn)
	assert.Len(t, g.Nodes, 6, "3 layers x 2 tokens")

	// Selecting heads re-broadcasts with links present
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/selection/spec", map[string]string{"spec": ":,:"})
	require.Equal(t, http.StatusOK, status)

	g = readGraph(t, conn)
	assert.NotEmpty(t, g.Links)
}

func TestWebSocketSetThreshold(t *testing.T) {
	_, ts := newWSTestServer(t)
	conn := dialWS(t, ts)
	readGraph(t, conn)

	uploadDataset(t, ts, smallDataset)
	readGraph(t, conn)

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/selection/spec", map[string]string{"spec": ":,:"})
	require.Equal(t, http.StatusOK, status)
	g := readGraph(t, conn)
	require.Len(t, g.Links, 2)

	// Raising the threshold over the socket re-projects and broadcasts
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":      "set_threshold",
		"threshold": 0.8,
	}))
	g = readGraph(t, conn)
	assert.Len(t, g.Links, 1)
	assert.Equal(t, 0.8, g.Meta.Threshold)
}

func TestWebSocketRejectsDisallowedOrigin(t *testing.T) {
	_, ts := newWSTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	if resp != nil {
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	}
}
