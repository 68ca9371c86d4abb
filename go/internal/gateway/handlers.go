package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/availability"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/proposal"
	"github.com/mcdev12/pitchside/go/internal/standings"
	"github.com/mcdev12/pitchside/go/internal/teams"
	"github.com/rs/zerolog/log"
)

// ProposalService covers the lifecycle operations the gateway exposes.
type ProposalService interface {
	Respond(ctx context.Context, req proposal.RespondRequest) (*models.MatchProposal, error)
	Cancel(ctx context.Context, req proposal.CancelRequest) (*models.MatchProposal, error)
	SweepExpired(ctx context.Context) (int, error)
	GetProposal(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error)
	ListProposals(ctx context.Context, filter proposal.ListProposalsFilter) ([]models.MatchProposal, error)
}

// MatchmakingService runs candidate generation and scoring for a vendor.
type MatchmakingService interface {
	GenerateProposals(ctx context.Context, vendorID uuid.UUID, windowStart, windowEnd time.Time) ([]models.MatchProposal, error)
}

// StandingsService records results and serves the season table.
type StandingsService interface {
	RecordResult(ctx context.Context, req standings.RecordResultRequest) ([]models.TeamStanding, error)
	ListStandings(ctx context.Context, sportID, season string) ([]models.TeamStanding, error)
}

// AvailabilityService manages recurring availability slots.
type AvailabilityService interface {
	CreateSlot(ctx context.Context, req availability.CreateSlotRequest) (*models.AvailabilitySlot, error)
	ListSlotsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
}

// TeamsService manages teams, venues and their relationships.
type TeamsService interface {
	CreateTeam(ctx context.Context, req teams.CreateTeamRequest) (*models.Team, error)
	CreateVenue(ctx context.Context, req teams.CreateVenueRequest) (*models.Venue, error)
	EnsureRelationship(ctx context.Context, teamID, venueID uuid.UUID) (*models.TeamVenueRelationship, error)
	ListTeamsForVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Team, error)
	ListVenuesByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.Venue, error)
}

// Waker nudges the scheduler after proposals are created out of band.
type Waker interface {
	Wake()
}

// Handlers maps the HTTP API onto the application services.
type Handlers struct {
	proposals    ProposalService
	matchmaking  MatchmakingService
	standings    StandingsService
	availability AvailabilityService
	teams        TeamsService
	waker        Waker
	ws           *WebSocketHandler
}

func NewHandlers(
	proposals ProposalService,
	matchmaking MatchmakingService,
	standingsSvc StandingsService,
	availabilitySvc AvailabilityService,
	teamsSvc TeamsService,
	waker Waker,
	ws *WebSocketHandler,
) *Handlers {
	return &Handlers{
		proposals:    proposals,
		matchmaking:  matchmaking,
		standings:    standingsSvc,
		availability: availabilitySvc,
		teams:        teamsSvc,
		waker:        waker,
		ws:           ws,
	}
}

// RegisterRoutes registers the API routes with an HTTP mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/teams", h.handleCreateTeam)
	mux.HandleFunc("POST /api/venues", h.handleCreateVenue)
	mux.HandleFunc("POST /api/teams/{teamID}/venues/{venueID}", h.handleEnsureRelationship)
	mux.HandleFunc("GET /api/vendors/{vendorID}/teams", h.handleListTeams)
	mux.HandleFunc("GET /api/vendors/{vendorID}/venues", h.handleListVenues)

	mux.HandleFunc("POST /api/slots", h.handleCreateSlot)
	mux.HandleFunc("GET /api/teams/{teamID}/slots", h.handleListSlots)
	mux.HandleFunc("DELETE /api/slots/{id}", h.handleDeleteSlot)

	mux.HandleFunc("POST /api/proposals/generate", h.handleGenerateProposals)
	mux.HandleFunc("POST /api/proposals/{id}/respond", h.handleRespond)
	mux.HandleFunc("POST /api/proposals/{id}/cancel", h.handleCancel)
	mux.HandleFunc("POST /api/proposals/sweep", h.handleSweep)
	mux.HandleFunc("GET /api/proposals/{id}", h.handleGetProposal)
	mux.HandleFunc("GET /api/vendors/{vendorID}/proposals", h.handleListProposals)
	mux.HandleFunc("GET /api/teams/{teamID}/proposals", h.handleListTeamProposals)

	mux.HandleFunc("POST /api/results", h.handleRecordResult)
	mux.HandleFunc("GET /api/standings", h.handleListStandings)

	if h.ws != nil {
		h.ws.RegisterRoutes(mux)
	}
}

func (h *Handlers) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req teams.CreateTeamRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	team, err := h.teams.CreateTeam(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *Handlers) handleCreateVenue(w http.ResponseWriter, r *http.Request) {
	var req teams.CreateVenueRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	venue, err := h.teams.CreateVenue(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, venue)
}

func (h *Handlers) handleEnsureRelationship(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	venueID, ok := pathUUID(w, r, "venueID")
	if !ok {
		return
	}
	rel, err := h.teams.EnsureRelationship(r.Context(), teamID, venueID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

func (h *Handlers) handleListTeams(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "vendorID")
	if !ok {
		return
	}
	list, err := h.teams.ListTeamsForVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) handleListVenues(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "vendorID")
	if !ok {
		return
	}
	list, err := h.teams.ListVenuesByVendor(r.Context(), vendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	var req availability.CreateSlotRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	slot, err := h.availability.CreateSlot(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, slot)
}

func (h *Handlers) handleListSlots(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	slots, err := h.availability.ListSlotsByTeam(r.Context(), teamID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slots)
}

func (h *Handlers) handleDeleteSlot(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.availability.DeleteSlot(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type generateRequest struct {
	VendorID    uuid.UUID `json:"vendor_id"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

func (h *Handlers) handleGenerateProposals(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !decode(w, r, &req) {
		return
	}
	proposals, err := h.matchmaking.GenerateProposals(r.Context(), req.VendorID, req.WindowStart, req.WindowEnd)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.waker != nil && len(proposals) > 0 {
		h.waker.Wake()
	}
	writeJSON(w, http.StatusCreated, proposals)
}

type respondRequest struct {
	Side   models.ProposalSide `json:"side"`
	Accept bool                `json:"accept"`
}

func (h *Handlers) handleRespond(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req respondRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.proposals.Respond(r.Context(), proposal.RespondRequest{
		ProposalID: id,
		Side:       req.Side,
		Accept:     req.Accept,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handlers) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if !decode(w, r, &req) {
		return
	}
	p, err := h.proposals.Cancel(r.Context(), proposal.CancelRequest{ProposalID: id, Reason: req.Reason})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) handleSweep(w http.ResponseWriter, r *http.Request) {
	count, err := h.proposals.SweepExpired(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": count})
}

func (h *Handlers) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.proposals.GetProposal(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) handleListProposals(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := pathUUID(w, r, "vendorID")
	if !ok {
		return
	}
	filter := proposal.ListProposalsFilter{VendorID: vendorID}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ProposalStatus(s)
		filter.Status = &status
	}
	if t := r.URL.Query().Get("team_id"); t != "" {
		teamID, err := uuid.Parse(t)
		if err != nil {
			writeError(w, apperr.Validationf("team_id", "invalid uuid"))
			return
		}
		filter.TeamID = &teamID
	}
	list, err := h.proposals.ListProposals(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) handleListTeamProposals(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathUUID(w, r, "teamID")
	if !ok {
		return
	}
	filter := proposal.ListProposalsFilter{TeamID: &teamID}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.ProposalStatus(s)
		filter.Status = &status
	}
	list, err := h.proposals.ListProposals(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) handleRecordResult(w http.ResponseWriter, r *http.Request) {
	var req standings.RecordResultRequest
	if !decode(w, r, &req) {
		return
	}
	updated, err := h.standings.RecordResult(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handlers) handleListStandings(w http.ResponseWriter, r *http.Request) {
	sportID := r.URL.Query().Get("sport_id")
	season := r.URL.Query().Get("season")
	if sportID == "" || season == "" {
		writeError(w, apperr.Validationf("query", "sport_id and season are required"))
		return
	}
	table, err := h.standings.ListStandings(r.Context(), sportID, season)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, apperr.Validationf("body", "invalid JSON: %v", err))
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, apperr.Validationf(name, "invalid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, apperr.ErrConstraintViolation):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
