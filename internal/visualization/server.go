package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/nvandessel/desirepath/internal/logging"
	"github.com/nvandessel/desirepath/internal/ratelimit"
	"github.com/nvandessel/desirepath/internal/world"
)

// MaxStepsPerRequest bounds /api/step?n=.
const MaxStepsPerRequest = 10000

// Source is the simulation the server drives. *world.World satisfies it.
type Source interface {
	Step() world.TickStats
	Snapshot() world.Snapshot
	Series() []float64
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithInterval advances the simulation by one tick every d. Zero disables
// automatic advancing.
func WithInterval(d time.Duration) ServerOption {
	return func(s *Server) { s.interval = d }
}

// WithListenAddr sets the listen address. The default lets the OS pick a
// free localhost port.
func WithListenAddr(addr string) ServerOption {
	return func(s *Server) { s.listen = addr }
}

// WithOnTick is called with every tick's statistics, from whichever
// goroutine advanced the simulation, while the simulation lock is held.
func WithOnTick(fn func(world.TickStats)) ServerOption {
	return func(s *Server) { s.onTick = fn }
}

// WithServerLogger sets the operational logger.
func WithServerLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStepLimiter throttles /api/step per client. Nil disables limiting.
func WithStepLimiter(l *ratelimit.Limiter) ServerOption {
	return func(s *Server) { s.stepLimiter = l }
}

// Server serves the live heatmap page and a small JSON API for stepping
// the simulation.
type Server struct {
	simMu    sync.Mutex // serialises all access to src
	src      Source
	interval time.Duration
	onTick   func(world.TickStats)
	logger   *slog.Logger

	stepLimiter *ratelimit.Limiter

	mu         sync.Mutex
	listen     string
	httpServer *http.Server
	listener   net.Listener
	addr       string
}

// NewServer creates a new simulation server.
func NewServer(src Source, opts ...ServerOption) *Server {
	s := &Server{
		src:    src,
		listen: "localhost:0",
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	var step http.Handler = http.HandlerFunc(s.handleStep)
	if s.stepLimiter != nil {
		step = s.stepLimiter.Middleware(step)
	}
	mux.Handle("/api/step", step)
	mux.HandleFunc("/api/series", s.handleSeries)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until the context is
// cancelled. It returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("serving", "addr", s.Addr(), "interval", s.interval)

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if s.interval > 0 {
		go s.advance(ctx)
	}

	err = srv.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// advance steps the simulation on every interval until ctx is done.
func (s *Server) advance(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.step(1)
		}
	}
}

// step advances n ticks under the simulation lock.
func (s *Server) step(n int) []world.TickStats {
	s.simMu.Lock()
	defer s.simMu.Unlock()

	out := make([]world.TickStats, 0, n)
	for i := 0; i < n; i++ {
		t := s.src.Step()
		if s.onTick != nil {
			s.onTick(t)
		}
		out = append(out, t)
	}
	return out
}

func (s *Server) read() (world.Snapshot, []float64) {
	s.simMu.Lock()
	defer s.simMu.Unlock()
	return s.src.Snapshot(), s.src.Series()
}

// handleIndex serves the heatmap page wired to this server's API.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	snap, series := s.read()
	html, err := RenderHTMLForServer(snap, series, "http://"+s.Addr())
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, _ := s.read()
	writeJSON(w, snap)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	_, series := s.read()
	if series == nil {
		series = []float64{}
	}
	writeJSON(w, series)
}

// handleStep advances the simulation by ?n= ticks (default 1) and returns
// the statistics of each tick.
func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	n := 1
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > MaxStepsPerRequest {
			http.Error(w, fmt.Sprintf("'n' must be an integer in [1,%d]", MaxStepsPerRequest), http.StatusBadRequest)
			return
		}
		n = parsed
	}

	writeJSON(w, s.step(n))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
