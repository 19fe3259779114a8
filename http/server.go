package http

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/mux"

	"pigdice/game"
	"pigdice/ws"
)

type Server struct {
	router    *mux.Router
	handlers  *Handlers
	staticDir string
}

func NewServer(registry *game.Registry, sessions *game.SessionStore, coordinator *ws.Coordinator, staticDir string) *Server {
	server := &Server{
		router:    mux.NewRouter(),
		handlers:  NewHandlers(registry, sessions, coordinator),
		staticDir: staticDir,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware)
	s.router.Use(SecurityHeadersMiddleware)
	s.router.Use(CORSMiddleware)

	// Read-only query surface
	s.router.HandleFunc("/api/health", s.handlers.Health).Methods("GET")
	s.router.HandleFunc("/api/sessions", s.handlers.ListSessions).Methods("GET")
	s.router.HandleFunc("/api/players", s.handlers.ListPlayers).Methods("GET")
	s.router.HandleFunc("/api/leaderboard", s.handlers.Leaderboard).Methods("GET")

	// WebSocket endpoint, rate limited per IP to dampen reconnect storms
	connLimiter := NewRateLimiter(1.0, 10)
	s.router.Handle("/ws", connLimiter.Middleware(http.HandlerFunc(s.handlers.HandleWebSocket)))

	// Catch-all for unmatched API routes — return JSON 404 instead of SPA HTML
	s.router.PathPrefix("/api/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	})

	// Static files with cache-control (no-cache forces revalidation via If-Modified-Since)
	s.router.PathPrefix("/css/").Handler(noCacheHandler(http.StripPrefix("/css/", http.FileServer(http.Dir(filepath.Join(s.staticDir, "css"))))))
	s.router.PathPrefix("/js/").Handler(noCacheHandler(http.StripPrefix("/js/", http.FileServer(http.Dir(filepath.Join(s.staticDir, "js"))))))

	// SPA fallback - serve index.html for all other routes
	s.router.PathPrefix("/").HandlerFunc(s.serveSPA)
}

func noCacheHandler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		h.ServeHTTP(w, r)
	})
}

func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) GetHTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
