package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Sync engine
	mux.HandleFunc("/api/sync/bulk", s.app.SyncHandler.BulkSyncHandler)        // POST - start bulk run
	mux.HandleFunc("/api/sync/status", s.app.SyncHandler.StatusHandler)        // GET - progress + report
	mux.HandleFunc("/api/sync/pause", s.app.SyncHandler.PauseHandler)          // POST
	mux.HandleFunc("/api/sync/resume", s.app.SyncHandler.ResumeHandler)        // POST
	mux.HandleFunc("/api/sync/cancel", s.app.SyncHandler.CancelHandler)        // POST
	mux.HandleFunc("/api/sync/estimate", s.app.SyncHandler.EstimateHandler)    // POST - advisory duration
	mux.HandleFunc("/api/sync/", s.app.SyncHandler.SyncTickerHandler)          // POST /{ticker}

	// API routes - Snapshots
	mux.HandleFunc("/api/snapshots", s.app.SnapshotHandler.CollectionHandler)                    // GET (list), POST (create)
	mux.HandleFunc("/api/snapshots/current-tickers", s.app.SnapshotHandler.CurrentTickersHandler) // GET
	mux.HandleFunc("/api/snapshots/", s.app.SnapshotHandler.ItemHandler)                         // GET/PUT/DELETE /{id}, POST /{id}/current

	// API routes - Presets
	mux.HandleFunc("/api/presets", s.app.PresetHandler.ListHandler) // GET
	mux.HandleFunc("/api/presets/", s.app.PresetHandler.ItemHandler) // GET/PUT/DELETE /{id}

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler) // GET

	return mux
}
