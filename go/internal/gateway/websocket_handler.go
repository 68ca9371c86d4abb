package gateway

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for match feeds.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{connectionManager: cm}
}

// HandleMatchConnection upgrades a connection subscribed to one team's
// proposal and fixture events. The team comes from the path on
// /ws/teams/{teamID} and from the team_id query parameter on /ws/matches.
func (h *WebSocketHandler) HandleMatchConnection(w http.ResponseWriter, r *http.Request) {
	teamIDStr := r.PathValue("teamID")
	if teamIDStr == "" {
		teamIDStr = r.URL.Query().Get("team_id")
	}
	if teamIDStr == "" {
		http.Error(w, "team_id is required", http.StatusBadRequest)
		return
	}

	teamID, err := uuid.Parse(teamIDStr)
	if err != nil {
		http.Error(w, "invalid team_id format", http.StatusBadRequest)
		return
	}

	// In production the user identity would come from a JWT or session.
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		userID = "anonymous"
	}

	if err := h.connectionManager.UpgradeConnection(w, r, userID, teamID); err != nil {
		log.Error().
			Err(err).
			Str("team_id", teamID.String()).
			Str("user_id", userID).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, teams := h.connectionManager.ConnectionStats()
	writeJSON(w, http.StatusOK, map[string]int{
		"total_connections": total,
		"teams_followed":    teams,
	})
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/matches", h.HandleMatchConnection)
	mux.HandleFunc("GET /ws/teams/{teamID}", h.HandleMatchConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
