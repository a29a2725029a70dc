package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/friendsincode/grimnir_timeline/internal/clock"
	"github.com/friendsincode/grimnir_timeline/internal/config"
	"github.com/friendsincode/grimnir_timeline/internal/logbuffer"
	"github.com/friendsincode/grimnir_timeline/internal/telemetry"
	"github.com/friendsincode/grimnir_timeline/internal/timeline"
)

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestServer(t *testing.T, mutate func(*timeline.Options)) (*Server, *httptest.Server, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(day("2024-06-01"))
	opts := timeline.Options{
		Interval: time.Second,
		Clock:    clk,
		Timeline: timeline.TimelineOptions{
			DateFormat: "2006.01.02",
			Range:      timeline.Between(day("2020-01-01"), day("2020-01-05"), timeline.Days(1)),
		},
	}
	if mutate != nil {
		mutate(&opts)
	}

	logBuf := logbuffer.New(100)
	logger := zerolog.New(logbuffer.NewWriter(logBuf, nil)).Level(zerolog.DebugLevel)
	srv, err := New(&config.Config{HTTPBind: "127.0.0.1", HTTPPort: 8080}, opts, logBuf, logger)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(func() { require.NoError(t, srv.Close()) })
	return srv, ts, clk
}

func post(t *testing.T, ts *httptest.Server, path string) (int, timelineResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body timelineResponse
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	}
	return resp.StatusCode, body
}

func TestNewRejectsInvalidTimeline(t *testing.T) {
	_, err := New(&config.Config{}, timeline.Options{
		Interval: time.Second,
		Timeline: timeline.TimelineOptions{
			Range: timeline.Between(day("2020-01-05"), day("2020-01-01"), timeline.Days(1)),
		},
	}, nil, zerolog.Nop())
	assert.ErrorIs(t, err, timeline.ErrReversedRange)
}

func TestHealthz(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["mounted"])
	assert.Equal(t, false, body["playing"])
}

func TestGetTimelineListsSteps(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/api/timeline")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body timelineResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 5, body.Count)
	assert.Equal(t, "paused", body.State)
	require.Len(t, body.Steps, 5)
	assert.Equal(t, "2020.01.03", body.Steps[2].Label)
	assert.True(t, body.Steps[4].Step.Equal(day("2020-01-05")))
}

func TestPlaybackCommands(t *testing.T) {
	var seen []time.Time
	_, ts, clk := newTestServer(t, func(o *timeline.Options) {
		o.OnNextStep = func(step time.Time) { seen = append(seen, step) }
	})

	status, body := post(t, ts, "/api/timeline/play")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Playing)

	clk.Advance(2 * time.Second)

	status, body = post(t, ts, "/api/timeline/pause")
	require.Equal(t, http.StatusOK, status)
	assert.False(t, body.Playing)
	assert.Equal(t, 2, body.Index)
	assert.Equal(t, "2020.01.03", body.Label)

	status, body = post(t, ts, "/api/timeline/toggle")
	require.Equal(t, http.StatusOK, status)
	assert.True(t, body.Playing)

	require.Len(t, seen, 2)
	assert.True(t, seen[1].Equal(day("2020-01-03")))
}

func TestSelect(t *testing.T) {
	_, ts, _ := newTestServer(t, func(o *timeline.Options) { o.Autoplay = true })

	status, body := post(t, ts, "/api/timeline/select/3")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, body.Index)
	assert.False(t, body.Playing)

	status, _ = post(t, ts, "/api/timeline/select/99")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = post(t, ts, "/api/timeline/select/abc")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestPageRendersControl(t *testing.T) {
	_, ts, _ := newTestServer(t, func(o *timeline.Options) { o.Position = "bottomleft" })
	_, _ = post(t, ts, "/api/timeline/select/1")

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	page := string(raw)

	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, page, `class="timeline-control timeline-control--bottomleft"`)
	assert.Contains(t, page, `class="timeline-control__slot timeline-control__slot--active" data-date="2020.01.02" data-index="1"`)
	assert.Contains(t, page, ">PLAY<")
	assert.Equal(t, 5, strings.Count(page, "data-index="))
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	_, _ = post(t, ts, "/api/timeline/play")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "timeline_playing 1")
	assert.Contains(t, string(raw), "timeline_step_index")
}

func TestMountIsNotCountedAsStepChange(t *testing.T) {
	telemetry.StepIndex.Set(3)
	_, ts, _ := newTestServer(t, nil)
	assert.Equal(t, float64(0), testutil.ToFloat64(telemetry.StepIndex))

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `source="mount"`)
}

func TestLogsEndpoint(t *testing.T) {
	_, ts, _ := newTestServer(t, nil)
	_, _ = post(t, ts, "/api/timeline/select/2")

	resp, err := http.Get(ts.URL + "/api/logs?component=timeline&search=selected")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Entries []logbuffer.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "step selected", body.Entries[0].Message)
	assert.Equal(t, float64(2), body.Entries[0].Fields["index"])
}

func TestRedisMirrorWiring(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	pubsub := client.Subscribe(ctx, "tl:timeline.playback")
	defer pubsub.Close()
	_, err := pubsub.Receive(ctx)
	require.NoError(t, err)

	cfg := &config.Config{HTTPBind: "127.0.0.1", HTTPPort: 8080, RedisAddr: mr.Addr(), RedisChannelPrefix: "tl"}
	srv, err := New(cfg, timeline.Options{
		Interval: time.Second,
		Clock:    clock.NewManual(day("2024-06-01")),
		Timeline: timeline.TimelineOptions{
			Range: timeline.Points(day("2020-01-01"), day("2020-02-01")),
		},
	}, nil, zerolog.Nop())
	require.NoError(t, err)
	defer srv.Close()

	require.NoError(t, srv.Timeline().Play())

	select {
	case msg := <-pubsub.Channel():
		assert.Contains(t, msg.Payload, `"playing":true`)
	case <-ctx.Done():
		t.Fatal("playback change not mirrored")
	}
}

func TestSecurityHeaders(t *testing.T) {
	h := securityHeadersMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rr.Header().Get("Content-Security-Policy"))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, "max-age=31536000; includeSubDomains", rr.Header().Get("Strict-Transport-Security"))
}

func dialWS(t *testing.T, ts *httptest.Server) (context.Context, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })

	var hello WSMessage
	require.NoError(t, wsjson.Read(ctx, conn, &hello))
	require.Equal(t, "snapshot", hello.Type)
	return ctx, conn
}

func TestWebsocketPushesTicks(t *testing.T) {
	srv, ts, clk := newTestServer(t, nil)
	ctx, conn := dialWS(t, ts)

	require.NoError(t, srv.Timeline().Play())
	var msg WSMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "playback", msg.Type)
	assert.Equal(t, true, msg.Data["playing"])

	clk.Advance(time.Second)
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "step", msg.Type)
	assert.Equal(t, float64(1), msg.Data["index"])
	assert.Equal(t, "tick", msg.Data["cause"])
}

func TestWebsocketCommands(t *testing.T) {
	srv, ts, _ := newTestServer(t, nil)
	ctx, conn := dialWS(t, ts)

	require.NoError(t, wsjson.Write(ctx, conn, WSCommand{Type: "select", Index: 2}))
	var msg WSMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "step", msg.Type)
	assert.Equal(t, float64(2), msg.Data["index"])
	assert.Equal(t, "select", msg.Data["cause"])
	assert.Equal(t, 2, srv.Timeline().Snapshot().Index)

	require.NoError(t, wsjson.Write(ctx, conn, WSCommand{Type: "rewind"}))
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "error", msg.Type)
	assert.Contains(t, msg.Data["error"], "rewind")
}

func TestCloseUnmountsAndDisconnectsClients(t *testing.T) {
	srv, ts, clk := newTestServer(t, func(o *timeline.Options) { o.Autoplay = true })
	ctx, conn := dialWS(t, ts)

	require.NoError(t, srv.Close())
	assert.False(t, srv.Timeline().Snapshot().Mounted)

	var msg WSMessage
	assert.Error(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, 0, clk.Pending())
}

func TestWebsocketRejectedAfterClose(t *testing.T) {
	srv, ts, _ := newTestServer(t, nil)
	require.NoError(t, srv.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
