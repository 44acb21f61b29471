// Package mockapi is an in-memory stand-in for the Addressable REST API.
//
// It backs the client and wizard tests and the mock-server command. State
// lives in memory only and resets with each Server.
package mockapi

import (
	"context"
	"crypto/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/logging"
)

const (
	DefaultEmail    = "demo@addressable.app"
	DefaultPassword = "demo"
)

// Options configures a Server.
type Options struct {
	Email    string
	Password string
	// AutoAdvanceList moves a mailing's audience list one pipeline stage
	// forward each time the mailing is fetched.
	AutoAdvanceList bool
	Logger          logging.Logger
}

// Server is the fake API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	logger     logging.Logger
	opts       Options
	signingKey []byte

	mu     sync.Mutex
	data   *Data
	faults map[string]int
	calls  map[string]int
	notes  []addressable.CustomNote
	nextID int
}

// New returns a Server seeded with demo data.
func New(opts Options) *Server {
	if opts.Email == "" {
		opts.Email = DefaultEmail
	}
	if opts.Password == "" {
		opts.Password = DefaultPassword
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}
	key := make([]byte, 32)
	_, _ = rand.Read(key)

	s := &Server{
		router:     chi.NewRouter(),
		logger:     opts.Logger,
		opts:       opts,
		signingKey: key,
		data:       Seed(opts.Email),
		faults:     make(map[string]int),
		calls:      make(map[string]int),
		nextID:     1000,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Token returns the basic token the server accepts.
func (s *Server) Token() string {
	return addressable.BasicToken(s.opts.Email, s.opts.Password)
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.router.Get("/debug/state", s.handleDump)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.countMiddleware)
		r.Use(s.faultMiddleware)
		r.Use(s.authMiddleware)

		r.Get("/auth", s.handleAuth)
		r.Post("/auth/mobile_login", s.handleMobileLogin)
		r.Post("/auth/mobile_logout", s.handleMobileLogout)

		r.Get("/campaigns", s.handleCampaigns)

		r.Get("/incoming_leads", s.handleIncomingLeads)
		r.Patch("/incoming_leads/{id}", s.handleTagLead)
		r.Get("/lead_messages", s.handleLeadsWithMessages)
		r.Get("/lead_messages/{id}", s.handleLeadMessages)
		r.Post("/lead_messages", s.handleSendMessage)

		r.Get("/message_templates", s.handleTemplates)
		r.Post("/message_templates", s.handleCreateTemplate)
		r.Get("/message_templates/{id}", s.handleTemplate)
		r.Patch("/message_templates/{id}", s.handleUpdateTemplate)
		r.Get("/multi_touch_topics", s.handleTopics)

		r.Get("/layout_templates", s.handleCovers)
		r.Get("/return_addresses", s.handleReturnAddress)
		r.Post("/custom_notes", s.handleCustomNote)

		r.Post("/radius_mailings", s.handleCreateMailing)
		r.Get("/radius_mailings/{id}", s.handleMailing)
		r.Patch("/radius_mailings/{id}/{component}", s.handleUpdateMailing)
		r.Get("/radius_mailings/{id}/recipients", s.handleRecipients)
		r.Patch("/list_entries/{id}", s.handleListEntry)
		r.Get("/accounts/{aid}/removals/{rid}/create_removal_from_list_entry", s.handleRemoval)

		r.Get("/data_tree_search/default_criteria", s.handleCriteria)
		r.Get("/accounts/{id}", s.handleAccount)
		r.Get("/list_uploads", s.handleUploads)
	})
}

// ListenAndServe serves on addr until Shutdown.
func (s *Server) ListenAndServe(addr string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.logger.Info(context.Background(), "starting mock api", "addr", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops a server started with ListenAndServe.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Fail makes the next request matching method and path (relative to
// /api/v1) answer with status.
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[method+" "+path] = status
}

// Calls returns how many requests matched method and path.
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

func (s *Server) handleDump(w http.ResponseWriter, r *http.Request) {
	raw, err := s.Dump()
	if err != nil {
		sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug(r.Context(), "mock api request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func apiPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api/v1")
}

func (s *Server) countMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.Method+" "+apiPath(r)]++
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + apiPath(r)
		s.mu.Lock()
		status, ok := s.faults[key]
		if ok {
			delete(s.faults, key)
		}
		s.mu.Unlock()
		if ok {
			sendError(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Basic ")
		if !ok || (token != s.Token() && token != s.userToken()) {
			s.logger.Warn(r.Context(), "unauthorized mock api request", "path", r.URL.Path)
			sendError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) userToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.User.AuthenticationToken
}
