package common

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueHandlerBatches(t *testing.T) {
	var mu sync.Mutex
	batches := [][]int{}
	q := NewQueueHandler(func(items []int) {
		mu.Lock()
		defer mu.Unlock()
		batches = append(batches, append([]int{}, items...))
	}, 3, time.Hour)

	q.Add(1, 2, 3, 4)
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) >= 1
	}, time.Second, time.Millisecond)

	q.Add(5)
	q.Close()
	q.Close()

	mu.Lock()
	defer mu.Unlock()
	all := []int{}
	for _, b := range batches {
		assert.LessOrEqual(t, len(b), 3)
		all = append(all, b...)
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5}, all)
	assert.Equal(t, 0, q.Len())
}

func TestQueueHandlerInterval(t *testing.T) {
	got := make(chan []string, 1)
	q := NewQueueHandler(func(items []string) { got <- items }, 100, 10*time.Millisecond)
	defer q.Close()
	q.Add("a")
	select {
	case items := <-got:
		assert.Equal(t, []string{"a"}, items)
	case <-time.After(time.Second):
		t.Fatal("queue was not flushed")
	}
}

func TestJsonHandler(t *testing.T) {
	h := JsonHandler(func(w http.ResponseWriter, r *http.Request, enc *json.Encoder) error {
		if r.URL.Query().Get("fail") != "" {
			return NewHttpError(http.StatusNotFound, errors.New("missing"))
		}
		return enc.Encode(map[string]string{"ok": "yes"})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	h(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"ok":"yes"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/x?fail=1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"missing"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSessionCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	id, created := HandleSessionCookie(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.True(t, created)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, id, cookies[0].Value)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: id})
	same, created := HandleSessionCookie(httptest.NewRecorder(), req)
	assert.False(t, created)
	assert.Equal(t, id, same)
}

func TestServeRunsHooksOnShutdown(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	server := NewServerWithTimeouts(&http.Server{Handler: http.NotFoundHandler()}, DefaultTimeoutConfig())

	ctx, cancel := context.WithCancel(context.Background())
	hookRan := false
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, server, listener, "test", TimeoutConfig{}, func(context.Context) error {
			hookRan = true
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String())
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	assert.True(t, hookRan)
}

func TestLoadTimeoutConfig(t *testing.T) {
	t.Setenv("READ_TIMEOUT", "42")
	t.Setenv("WRITE_TIMEOUT", "nope")
	cfg := LoadTimeoutConfig(DefaultTimeoutConfig())
	assert.Equal(t, 42*time.Second, cfg.Read)
	assert.Equal(t, 30*time.Second, cfg.Write)
}
