package server

import "net/http"

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route - per-request progress stream
	mux.HandleFunc("/ws", s.app.WSHandler.HandleProgress)

	// API routes - Analysis
	mux.HandleFunc("/api/analyze", s.app.AnalyzeHandler.HandleAnalyze)

	// API routes - System
	mux.HandleFunc("/api/health", s.app.StatusHandler.HandleHealth)
	mux.HandleFunc("/api/version", s.app.StatusHandler.HandleVersion)

	// Unknown API paths get a JSON 404 instead of the default page
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return mux
}
