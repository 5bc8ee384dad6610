package introspect

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-ringnode/config"
	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/types"
)

func peerAt(v float64) types.PeerKeyLocation {
	return types.NewPeerKeyLocation(types.RandomPeerID(), types.MustLocation(v))
}

// newTestServer 创建以 self 为自身、连接表包含 locs 的服务
func newTestServer(t *testing.T, self float64, locs ...float64) (*Server, *ring.Ring) {
	t.Helper()

	m := ring.NewMetrics()
	r, err := ring.New(ring.DefaultConfig(), ring.WithMetrics(m))
	require.NoError(t, err)
	for _, v := range locs {
		require.NoError(t, r.Connections().Insert(peerAt(v)))
	}

	mgr, err := connmgr.New(connmgr.DefaultConfig(), r, peerAt(self), nil)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(m))

	return New(Config{Ring: r, Manager: mgr, Gatherer: reg}), r
}

func get(t *testing.T, h http.Handler, path string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestNew(t *testing.T) {
	server := New(Config{})
	assert.NotNil(t, server)
	assert.Equal(t, DefaultAddr, server.config.Addr)

	server = New(Config{Addr: "127.0.0.1:8080"})
	assert.Equal(t, "127.0.0.1:8080", server.config.Addr)
}

func TestServer_StartStop(t *testing.T) {
	server, _ := newTestServer(t, 0.5, 0.1)
	server.config.Addr = "127.0.0.1:0" // 使用随机端口

	ctx := context.Background()
	require.NoError(t, server.Start(ctx))
	assert.True(t, server.running)

	addr := server.Addr()
	assert.NotEqual(t, "127.0.0.1:0", addr)

	// 重复启动应该无效
	require.NoError(t, server.Start(ctx))

	resp, err := http.Get("http://" + addr + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, server.Stop())
	assert.False(t, server.running)

	// 重复停止应该无效
	require.NoError(t, server.Stop())
}

func TestServer_Health(t *testing.T) {
	server, r := newTestServer(t, 0.5)
	h := server.Handler()

	var health HealthResponse
	assert.Equal(t, http.StatusOK, get(t, h, "/health", &health))
	assert.Equal(t, "degraded", health.Status) // 没有连接

	require.NoError(t, r.Connections().Insert(peerAt(0.3)))
	assert.Equal(t, http.StatusOK, get(t, h, "/health", &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 1, health.Connections)
}

func TestServer_Ring(t *testing.T) {
	server, _ := newTestServer(t, 0.5, 0.1, 0.3, 0.6)

	var info RingInfo
	require.Equal(t, http.StatusOK, get(t, server.Handler(), "/debug/ring", &info))
	assert.Equal(t, 3, info.Connections)
	assert.Equal(t, ring.MinConnections, info.MinConnections)
	assert.Equal(t, ring.MaxConnections, info.MaxConnections)
	assert.Equal(t, ring.DefaultRandWalkAbove, info.RandWalkAbove)
	require.NotNil(t, info.Self)
	assert.Equal(t, 0.5, info.Self.Location.Float64())

	// 距离 {0.4, 0.2, 0.1}，中位数 0.2
	require.NotNil(t, info.Median)
	assert.InDelta(t, 0.2, info.Median.Float64(), 1e-12)
}

func TestServer_Connections(t *testing.T) {
	server, _ := newTestServer(t, 0.5, 0.1, 0.3, 0.6)
	h := server.Handler()

	var conns []ring.PeerDistance
	require.Equal(t, http.StatusOK, get(t, h, "/debug/ring/connections?loc=0", &conns))
	require.Len(t, conns, 3)
	assert.InDelta(t, 0.1, conns[0].Distance.Float64(), 1e-12)
	assert.InDelta(t, 0.3, conns[1].Distance.Float64(), 1e-12)
	assert.InDelta(t, 0.4, conns[2].Distance.Float64(), 1e-12)

	// 缺省使用自身坐标
	require.Equal(t, http.StatusOK, get(t, h, "/debug/ring/connections", &conns))
	assert.InDelta(t, 0.4, conns[0].Distance.Float64(), 1e-12)
}

func TestServer_Median(t *testing.T) {
	server, _ := newTestServer(t, 0.5, 0.1, 0.3, 0.6)
	h := server.Handler()

	var resp MedianResponse
	require.Equal(t, http.StatusOK, get(t, h, "/debug/ring/median?loc=0.5", &resp))
	assert.InDelta(t, 0.2, resp.Median.Float64(), 1e-12)

	var e ErrorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/debug/ring/median?loc=1.5", &e))
	assert.NotEmpty(t, e.Error)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/debug/ring/median?loc=abc", &e))
}

func TestServer_MedianEmptyRing(t *testing.T) {
	server, _ := newTestServer(t, 0.5)

	var e ErrorResponse
	assert.Equal(t, http.StatusConflict, get(t, server.Handler(), "/debug/ring/median?loc=0.5", &e))
	assert.Contains(t, e.Error, "no connections")
}

func TestServer_MissingManager(t *testing.T) {
	server := New(Config{Ring: ring.NewDefault()})
	h := server.Handler()

	var e ErrorResponse
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/debug/ring/median", &e))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, h, "/debug/conns", &e))
}

func TestServer_Conns(t *testing.T) {
	server, _ := newTestServer(t, 0.5)
	mgr := server.config.Manager

	var conns []json.RawMessage
	require.Equal(t, http.StatusOK, get(t, server.Handler(), "/debug/conns", &conns))
	assert.Empty(t, conns)
	assert.Equal(t, 0, mgr.Len())
}

func TestServer_Runtime(t *testing.T) {
	server := New(Config{})

	var info RuntimeInfo
	require.Equal(t, http.StatusOK, get(t, server.Handler(), "/debug/runtime", &info))
	assert.NotEmpty(t, info.GoVersion)
	assert.Greater(t, info.NumGoroutine, 0)
	assert.Greater(t, info.NumCPU, 0)
}

func TestServer_Metrics(t *testing.T) {
	server, _ := newTestServer(t, 0.5, 0.1, 0.3)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "ringnode_ring_connections 2")

	// 未设置 Gatherer 时不挂载
	rec = httptest.NewRecorder()
	New(Config{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_Pprof(t *testing.T) {
	rec := httptest.NewRecorder()
	New(Config{}).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestModule_Disabled(t *testing.T) {
	var server *Server
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(config.NewConfig()),
		fx.Provide(ring.NewDefault),
		Module(),
		fx.Populate(&server),
	)
	app.RequireStart()
	defer app.RequireStop()

	assert.Nil(t, server)
}

func TestModule_Enabled(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Diagnostics.EnableIntrospect = true
	cfg.Diagnostics.IntrospectAddr = "127.0.0.1:0"

	var server *Server
	app := fxtest.New(t,
		fx.NopLogger,
		fx.Supply(cfg),
		fx.Provide(ring.NewDefault),
		Module(),
		fx.Populate(&server),
	)
	app.RequireStart()
	require.NotNil(t, server)

	resp, err := http.Get("http://" + server.Addr() + "/debug/ring")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	app.RequireStop()
}
