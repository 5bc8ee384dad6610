package introspect

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dep2p/go-ringnode/internal/core/connmgr"
	"github.com/dep2p/go-ringnode/internal/core/ring"
	"github.com/dep2p/go-ringnode/pkg/lib/log"
	"github.com/dep2p/go-ringnode/pkg/types"
)

var logger = log.Logger("debug/introspect")

// DefaultAddr 默认监听地址
const DefaultAddr = "127.0.0.1:6060"

// ============================================================================
//                              配置
// ============================================================================

// Config 服务配置
type Config struct {
	// Addr 监听地址，默认 "127.0.0.1:6060"
	Addr string

	// Ring 必需
	Ring *ring.Ring

	// Manager 可选的连接管理器，提供自身坐标与连接列表
	Manager *connmgr.Manager

	// Gatherer 可选的指标源，为空时不挂载 /metrics
	Gatherer prometheus.Gatherer
}

// ============================================================================
//                              Server
// ============================================================================

// Server 本地自省 HTTP 服务
type Server struct {
	config Config

	server   *http.Server
	listener net.Listener

	running   bool
	startTime time.Time

	mu sync.Mutex
}

// New 创建自省服务
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	return &Server{
		config:    cfg,
		startTime: time.Now(),
	}
}

// Handler 返回挂载了所有端点的路由
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Get("/debug/ring", s.handleRing)
	r.Get("/debug/ring/connections", s.handleConnections)
	r.Get("/debug/ring/median", s.handleMedian)
	r.Get("/debug/conns", s.handleConns)
	r.Get("/debug/runtime", s.handleRuntime)

	// /debug/pprof/*
	r.Mount("/debug", middleware.Profiler())

	if s.config.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Start 启动服务
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("自省服务异常退出", "error", err)
		}
	}()

	s.running = true
	s.startTime = time.Now()
	logger.Info("自省服务已启动", "addr", listener.Addr().String())
	return nil
}

// Stop 停止服务
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logger.Error("关闭自省服务失败", "error", err)
		return err
	}

	s.running = false
	logger.Info("自省服务已停止")
	return nil
}

// Addr 返回实际监听地址
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// ============================================================================
//                              响应结构
// ============================================================================

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Uptime      string    `json:"uptime,omitempty"`
	Connections int       `json:"connections"`
}

// RingInfo 环概况
type RingInfo struct {
	Self           *types.PeerKeyLocation `json:"self,omitempty"`
	Connections    int                    `json:"connections"`
	MinConnections int                    `json:"min_connections"`
	MaxConnections int                    `json:"max_connections"`
	RandWalkAbove  int                    `json:"rand_walk_above"`
	MaxHopsToLive  int                    `json:"max_hops_to_live"`

	// Median 到自身的中位距离，连接表为空或未知自身坐标时缺省
	Median *types.Distance `json:"median,omitempty"`
}

// MedianResponse 中位距离响应
type MedianResponse struct {
	Location types.Location `json:"location"`
	Median   types.Distance `json:"median"`
}

// RuntimeInfo 运行时信息
type RuntimeInfo struct {
	GoVersion    string `json:"go_version"`
	NumGoroutine int    `json:"num_goroutine"`
	NumCPU       int    `json:"num_cpu"`
	MemAlloc     uint64 `json:"mem_alloc"`
	MemSys       uint64 `json:"mem_sys"`
	NumGC        uint32 `json:"num_gc"`
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error string `json:"error"`
}

// ============================================================================
//                              HTTP 处理器
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	health := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startTime).String(),
	}

	// 没有任何连接的节点无法路由
	if s.config.Ring == nil {
		health.Status = "degraded"
	} else {
		health.Connections = s.config.Ring.Len()
		if health.Connections == 0 {
			health.Status = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, health)
}

func (s *Server) handleRing(w http.ResponseWriter, _ *http.Request) {
	if s.config.Ring == nil {
		writeError(w, http.StatusServiceUnavailable, "ring not available")
		return
	}

	r := s.config.Ring
	info := RingInfo{
		Connections:    r.Len(),
		MinConnections: ring.MinConnections,
		MaxConnections: ring.MaxConnections,
		RandWalkAbove:  r.RandWalkAbove(),
		MaxHopsToLive:  r.MaxHopsToLive(),
	}
	if s.config.Manager != nil {
		self := s.config.Manager.Self()
		info.Self = &self
		if median, err := r.MedianDistanceTo(self.Location); err == nil {
			info.Median = &median
		}
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleConnections(w http.ResponseWriter, req *http.Request) {
	if s.config.Ring == nil {
		writeError(w, http.StatusServiceUnavailable, "ring not available")
		return
	}
	ref, ok := s.reference(w, req)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.config.Ring.ConnectionsByDistance(ref))
}

func (s *Server) handleMedian(w http.ResponseWriter, req *http.Request) {
	if s.config.Ring == nil {
		writeError(w, http.StatusServiceUnavailable, "ring not available")
		return
	}
	ref, ok := s.reference(w, req)
	if !ok {
		return
	}

	median, err := s.config.Ring.MedianDistanceTo(ref)
	if errors.Is(err, ring.ErrEmptyRing) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, MedianResponse{Location: ref, Median: median})
}

func (s *Server) handleConns(w http.ResponseWriter, _ *http.Request) {
	if s.config.Manager == nil {
		writeError(w, http.StatusServiceUnavailable, "connection manager not available")
		return
	}
	writeJSON(w, http.StatusOK, s.config.Manager.Conns())
}

func (s *Server) handleRuntime(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	writeJSON(w, http.StatusOK, RuntimeInfo{
		GoVersion:    runtime.Version(),
		NumGoroutine: runtime.NumGoroutine(),
		NumCPU:       runtime.NumCPU(),
		MemAlloc:     memStats.Alloc,
		MemSys:       memStats.Sys,
		NumGC:        memStats.NumGC,
	})
}

// ============================================================================
//                              辅助方法
// ============================================================================

// reference 解析 ?loc= 参数，缺省时使用自身坐标
func (s *Server) reference(w http.ResponseWriter, req *http.Request) (types.Location, bool) {
	if raw := req.URL.Query().Get("loc"); raw != "" {
		loc, err := types.ParseLocation(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return types.Location{}, false
		}
		return loc, true
	}
	if s.config.Manager != nil {
		return s.config.Manager.Self().Location, true
	}
	writeError(w, http.StatusBadRequest, "missing loc parameter")
	return types.Location{}, false
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeJSON 写入 JSON 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		logger.Error("JSON 编码失败", "error", err)
	}
}
