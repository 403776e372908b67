// Package api exposes configuration resolution as a small JSON-over-HTTP
// API on a Unix domain socket. A long-lived daemon keeps one mount table for
// its whole lifetime, so archives are opened once and reused by every
// request.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/lc/ruleconf/internal/baseline"
	"github.com/lc/ruleconf/internal/buildinfo"
	"github.com/lc/ruleconf/internal/config"
	"github.com/lc/ruleconf/internal/log"
	"github.com/lc/ruleconf/internal/mount"
	"github.com/lc/ruleconf/internal/resolve"
	"github.com/lc/ruleconf/internal/resource"
	"github.com/lc/ruleconf/internal/socket"
)

// ResolveRequest asks the daemon to resolve a configuration.
type ResolveRequest struct {
	ConfigPaths     []string `json:"config_paths,omitempty"`
	ConfigResources []string `json:"config_resources,omitempty"`
	// Classpath lists the roots searched for ConfigResources. Empty means the
	// daemon's own classpath. Relative roots resolve against the daemon's
	// working directory.
	Classpath              []string `json:"classpath,omitempty"`
	BuildUponDefaultConfig bool     `json:"build_upon_default_config"`
	FailFast               bool     `json:"fail_fast"`
	AutoCorrect            bool     `json:"auto_correct"`
	// Keys limits the response to these qualified keys. Empty means all.
	Keys []string `json:"keys,omitempty"`
}

// Options converts the request into resolver options.
func (r ResolveRequest) Options() resolve.Options {
	return resolve.Options{
		ConfigPaths:       r.ConfigPaths,
		ConfigResources:   r.ConfigResources,
		Classpath:         r.Classpath,
		BuildUponBaseline: r.BuildUponDefaultConfig,
		FailFast:          r.FailFast,
		AutoCorrect:       r.AutoCorrect,
	}
}

// ResolveResponse carries the effective values of a resolution.
type ResolveResponse struct {
	Values      map[string]any `json:"values"`
	Fingerprint string         `json:"fingerprint"`
}

// StatusResponse represents the daemon status.
type StatusResponse struct {
	Mounts          mount.Stats   `json:"mounts"`
	Uptime          time.Duration `json:"uptime"`
	Version         string        `json:"version"`
	Commit          string        `json:"commit"`
	BaselineVersion string        `json:"baseline_version"`
}

// Resolver is the resolution entry point the server delegates to.
type Resolver interface {
	Resolve(opts resolve.Options) (config.Config, error)
}

// -------- server -----------------------------------------------------

// Server handles API requests.
type Server struct {
	res    Resolver
	mounts *mount.Table
	start  time.Time
	mux    *http.ServeMux
	srv    *http.Server
}

// New creates a server resolving with res and reporting on mounts.
func New(res Resolver, mounts *mount.Table) *Server {
	s := &Server{
		res:    res,
		mounts: mounts,
		start:  time.Now(),
		mux:    http.NewServeMux(),
	}

	s.mux.HandleFunc("/v1/resolve", s.handleResolve)
	s.mux.HandleFunc("/v1/status", s.handleStatus)

	s.srv = &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.mux }

// ListenAndServe serves the API on the Unix socket at path.
func (s *Server) ListenAndServe(path string) error {
	ln, err := socket.New().Listen(path)
	if err != nil {
		return err
	}
	return s.srv.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error { return s.srv.Shutdown(ctx) }

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	cfg, err := s.res.Resolve(req.Options())
	if err != nil {
		log.Warn("api: resolve failed", "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	resp := ResolveResponse{Fingerprint: config.Fingerprint(cfg)}
	if len(req.Keys) == 0 {
		resp.Values = config.Flatten(cfg)
	} else {
		resp.Values = make(map[string]any, len(req.Keys))
		for _, k := range req.Keys {
			if v, ok := config.LookupPath(cfg, k); ok {
				resp.Values[k] = v
			}
		}
	}
	writeJSON(w, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, StatusResponse{
		Mounts:          s.mounts.Stats(),
		Uptime:          time.Since(s.start),
		Version:         buildinfo.Version,
		Commit:          buildinfo.Commit,
		BaselineVersion: baseline.Version,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, config.ErrSourceNotFound), errors.Is(err, resource.ErrEmptyResourceSet):
		return http.StatusNotFound
	case errors.Is(err, config.ErrInvalidConfig), errors.Is(err, config.ErrTypeMismatch):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("api: encoding response: %v", err)
	}
}
