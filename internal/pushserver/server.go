// Package pushserver implements the authenticated HTTP endpoint that lets
// the remote content server short-circuit polling for urgent content.
package pushserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flipdot/driver/internal/config"
	"github.com/flipdot/driver/internal/frame"
	"github.com/flipdot/driver/internal/logging"
)

// DefaultMaxRequestSize is the spec's MAX_REQUEST_SIZE default.
const DefaultMaxRequestSize = 10 * 1024 * 1024

// ShutdownTimeout bounds how long Shutdown waits for the in-flight request
// to finish before forcing the listener closed.
const ShutdownTimeout = 5 * time.Second

// Inspector answers the liveness questions the extended /health body
// reports - whether content is playing and its identity - without pushserver needing
// to import the queue package directly.
type Inspector interface {
	HasContent() bool
	CurrentID() string
}

// Options configures a Server.
type Options struct {
	Host                        string
	Port                        int
	Auth                        config.Auth
	MaxRequestSize              int64
	DisplayWidth, DisplayHeight int
	Limits                      frame.Limits
	// OnPush is called with validated content once a POST / is accepted.
	// It is expected to enqueue the content and reset the poll client's
	// timer; pushserver does not know about either.
	OnPush func(*frame.Content)
	Queue  Inspector
	Log    *logging.Logger
}

// Server is the push endpoint, running its own net/http.Server.
type Server struct {
	opts   Options
	httpSrv *http.Server
}

// New builds a Server bound to opts.Host:opts.Port but does not yet listen.
func New(opts Options) *Server {
	if opts.MaxRequestSize <= 0 {
		opts.MaxRequestSize = DefaultMaxRequestSize
	}
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /", s.handlePush)

	s.httpSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", opts.Host, opts.Port),
		Handler: mux,
	}
	return s
}

// Handler exposes the underlying http.Handler, for tests that want to drive
// requests through httptest.NewServer without binding a real port.
func (s *Server) Handler() http.Handler {
	return s.httpSrv.Handler
}

// ListenAndServe blocks serving requests until the server is shut down,
// mirroring http.Server.ListenAndServe's contract: it always returns a
// non-nil error, http.ErrServerClosed on a clean Shutdown.
func (s *Server) ListenAndServe() error {
	s.opts.Log.Info().Str("addr", s.httpSrv.Addr).Log("pushserver: listening")
	err := s.httpSrv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.opts.Log.Warning().Err(err).Log("pushserver: listener stopped")
	return err
}

// Shutdown stops accepting new connections, lets the in-flight request
// finish, and returns once that's done or ShutdownTimeout elapses.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ShutdownTimeout)
	defer cancel()
	s.opts.Log.Info().Log("pushserver: shutting down")
	return s.httpSrv.Shutdown(ctx)
}

type statusBody struct {
	Status string `json:"status"`
}

type healthBody struct {
	Status     string `json:"status"`
	HasContent *bool  `json:"has_content,omitempty"`
	CurrentID  string `json:"current_id,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := healthBody{Status: "ok"}
	if s.opts.Queue != nil {
		has := s.opts.Queue.HasContent()
		body.HasContent = &has
		body.CurrentID = s.opts.Queue.CurrentID()
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	log := s.opts.Log

	if r.ContentLength > s.opts.MaxRequestSize {
		log.Warning().Int("content_length", int(r.ContentLength)).Log("pushserver: reject, too large")
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request too large"})
		return
	}

	if !checkAuth(r, s.opts.Auth) {
		log.Warning().Str("remote", r.RemoteAddr).Log("pushserver: reject, unauthorized")
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "unauthorized"})
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxRequestSize)
	var c frame.Content
	if err := json.NewDecoder(body).Decode(&c); err != nil {
		log.Warning().Err(err).Log("pushserver: reject, malformed body")
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "malformed request body"})
		return
	}

	if err := c.Validate(s.opts.Limits); err != nil {
		log.Warning().Str("content_id", c.ContentID).Err(err).Log("pushserver: reject, invalid content")
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	if err := c.ValidateDisplayDimensions(s.opts.DisplayWidth, s.opts.DisplayHeight); err != nil {
		log.Warning().Str("content_id", c.ContentID).Err(err).Log("pushserver: reject, dimension mismatch")
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
		return
	}

	log.Info().Str("content_id", c.ContentID).Log("pushserver: accepted")
	s.opts.OnPush(&c)
	writeJSON(w, http.StatusOK, statusBody{Status: "accepted"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
