package proposal

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/matchmaking"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProposalRepository defines what the app layer needs from the repository.
// Every transition method is a conditional write: it fires only from the
// states the lifecycle allows and returns the fresh row either way.
type ProposalRepository interface {
	CreateProposal(ctx context.Context, req CreateProposalRequest) (*models.MatchProposal, error)
	GetProposal(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error)
	ListProposals(ctx context.Context, filter ListProposalsFilter) ([]models.MatchProposal, error)
	AcceptSide(ctx context.Context, id uuid.UUID, side models.ProposalSide) (*models.MatchProposal, error)
	Promote(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.MatchProposal, error)
	SweepExpired(ctx context.Context, now time.Time) (int, error)
	NextExpiry(ctx context.Context) (*time.Time, error)
	GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error)
}

// CapChecker rechecks a team's weekly match cap at acceptance time, when
// generation-time headroom may have been consumed by other proposals.
type CapChecker interface {
	ExceedsWeeklyCap(ctx context.Context, teamID uuid.UUID, at time.Time) (bool, error)
}

// App manages the proposal lifecycle: creation from scored candidates,
// per-side acceptance, cancellation, expiration and fixture promotion.
type App struct {
	repo         ProposalRepository
	caps         CapChecker
	clock        clockwork.Clock
	expiryWindow time.Duration
}

// NewApp creates a new proposal App. expiryWindow is how long after creation
// a proposal stays open for responses.
func NewApp(repo ProposalRepository, caps CapChecker, clock clockwork.Clock, expiryWindow time.Duration) (*App, error) {
	if expiryWindow <= 0 {
		return nil, apperr.Validationf("expiry_window", "must be positive")
	}
	return &App{repo: repo, caps: caps, clock: clock, expiryWindow: expiryWindow}, nil
}

// CreateFromCandidate persists a scored candidate as a PENDING proposal.
func (a *App) CreateFromCandidate(ctx context.Context, cand matchmaking.FixtureCandidate) (*models.MatchProposal, error) {
	proposal, err := a.repo.CreateProposal(ctx, CreateProposalRequest{
		ID:             uuid.New(),
		HomeTeamID:     cand.HomeTeamID,
		AwayTeamID:     cand.AwayTeamID,
		VenueID:        cand.VenueID,
		VendorID:       cand.VendorID,
		ScheduledTime:  cand.ScheduledTime,
		DurationMin:    cand.DurationMin,
		AIScore:        cand.Score,
		ScoringFactors: cand.Factors,
		ExpiresAt:      a.clock.Now().Add(a.expiryWindow),
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("proposal_id", proposal.ID.String()).
		Str("home_team_id", proposal.HomeTeamID.String()).
		Str("away_team_id", proposal.AwayTeamID.String()).
		Time("scheduled_time", proposal.ScheduledTime).
		Float64("ai_score", proposal.AIScore).
		Msg("created match proposal")
	return proposal, nil
}

// Respond records a captain's acceptance or decline. Accepting twice from the
// same side is a no-op returning the current state; any response to a
// terminal proposal is an invalid transition.
func (a *App) Respond(ctx context.Context, req RespondRequest) (*models.MatchProposal, error) {
	if req.Side != models.ProposalSideHome && req.Side != models.ProposalSideAway {
		return nil, apperr.Validationf("side", "must be HOME or AWAY")
	}

	current, err := a.repo.GetProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, a.invalidTransition(current, req.Accept)
	}

	if !req.Accept {
		return a.decline(ctx, current, req.Side)
	}
	return a.accept(ctx, current, req.Side)
}

func (a *App) accept(ctx context.Context, current *models.MatchProposal, side models.ProposalSide) (*models.MatchProposal, error) {
	proposal, err := a.repo.AcceptSide(ctx, current.ID, side)
	if err != nil {
		return nil, err
	}

	// A concurrent decline or sweep may have won between the read and the
	// conditional write. SCHEDULED means a concurrent accept completed the
	// pair; our side's flag is set either way, so that is success.
	if proposal.Terminal() {
		if proposal.Status == models.ProposalStatusScheduled {
			return proposal, nil
		}
		return nil, a.invalidTransition(proposal, true)
	}

	bothAccepted := proposal.HomeTeamAccepted != nil && *proposal.HomeTeamAccepted &&
		proposal.AwayTeamAccepted != nil && *proposal.AwayTeamAccepted
	if !bothAccepted {
		log.Info().
			Str("proposal_id", proposal.ID.String()).
			Str("side", string(side)).
			Msg("recorded partial acceptance")
		return proposal, nil
	}

	if err := a.recheckCaps(ctx, proposal); err != nil {
		return nil, err
	}

	promoted, err := a.repo.Promote(ctx, proposal.ID)
	if err != nil {
		return nil, err
	}
	if promoted.Status != models.ProposalStatusScheduled {
		// The expiration sweep got there first.
		return nil, a.invalidTransition(promoted, true)
	}

	log.Info().
		Str("proposal_id", promoted.ID.String()).
		Time("scheduled_time", promoted.ScheduledTime).
		Msg("proposal fully accepted and scheduled")
	return promoted, nil
}

func (a *App) decline(ctx context.Context, current *models.MatchProposal, side models.ProposalSide) (*models.MatchProposal, error) {
	reason := "declined by " + string(side)
	proposal, err := a.repo.Cancel(ctx, current.ID, reason)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalStatusCancelled {
		return nil, a.invalidTransition(proposal, false)
	}

	log.Info().
		Str("proposal_id", proposal.ID.String()).
		Str("side", string(side)).
		Msg("proposal declined")
	return proposal, nil
}

// Cancel cancels a pending proposal on behalf of an administrative actor.
func (a *App) Cancel(ctx context.Context, req CancelRequest) (*models.MatchProposal, error) {
	if req.Reason == "" {
		return nil, apperr.Validationf("reason", "is required")
	}

	current, err := a.repo.GetProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if current.Terminal() {
		return nil, a.invalidTransition(current, false)
	}

	proposal, err := a.repo.Cancel(ctx, req.ProposalID, req.Reason)
	if err != nil {
		return nil, err
	}
	if proposal.Status != models.ProposalStatusCancelled {
		return nil, a.invalidTransition(proposal, false)
	}

	log.Info().
		Str("proposal_id", proposal.ID.String()).
		Str("reason", req.Reason).
		Msg("proposal cancelled")
	return proposal, nil
}

// SweepExpired transitions every PENDING proposal past its deadline to
// EXPIRED and returns how many were transitioned. Safe to re-run.
func (a *App) SweepExpired(ctx context.Context) (int, error) {
	count, err := a.repo.SweepExpired(ctx, a.clock.Now())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("expired stale proposals")
	}
	return count, nil
}

// GetProposal retrieves a proposal by ID
func (a *App) GetProposal(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	return a.repo.GetProposal(ctx, id)
}

// ListProposals retrieves proposals scoped to a vendor, a team, or both
func (a *App) ListProposals(ctx context.Context, filter ListProposalsFilter) ([]models.MatchProposal, error) {
	if filter.VendorID == uuid.Nil && filter.TeamID == nil {
		return nil, apperr.Validationf("filter", "vendor or team scope is required")
	}
	return a.repo.ListProposals(ctx, filter)
}

// GetFixture retrieves a confirmed fixture by ID
func (a *App) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	return a.repo.GetFixture(ctx, id)
}

// NextExpiry returns the earliest PENDING deadline, used by the expiration
// scheduler to sleep precisely.
func (a *App) NextExpiry(ctx context.Context) (*time.Time, error) {
	return a.repo.NextExpiry(ctx)
}

// recheckCaps verifies both teams still have weekly headroom before the
// SCHEDULED transition. A violated cap cancels the proposal rather than
// silently dropping the acceptance.
func (a *App) recheckCaps(ctx context.Context, p *models.MatchProposal) error {
	for _, teamID := range []uuid.UUID{p.HomeTeamID, p.AwayTeamID} {
		exceeded, err := a.caps.ExceedsWeeklyCap(ctx, teamID, p.ScheduledTime)
		if err != nil {
			return err
		}
		if exceeded {
			if _, err := a.repo.Cancel(ctx, p.ID, "cap exceeded"); err != nil {
				return err
			}
			log.Warn().
				Str("proposal_id", p.ID.String()).
				Str("team_id", teamID.String()).
				Msg("cancelled proposal over weekly cap at acceptance")
			return &apperr.ConstraintError{Reason: "cap exceeded"}
		}
	}
	return nil
}

func (a *App) invalidTransition(p *models.MatchProposal, accept bool) error {
	requested := string(models.ProposalStatusCancelled)
	if accept {
		requested = string(models.ProposalStatusScheduled)
	}
	return &apperr.InvalidTransitionError{
		ProposalID: p.ID,
		Current:    string(p.Status),
		Requested:  requested,
	}
}
