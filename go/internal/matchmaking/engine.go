package matchmaking

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/availability"
	"github.com/mcdev12/pitchside/go/internal/geo"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// SlotSource feeds the generator with a vendor's availability slots.
type SlotSource interface {
	ListVenueSlotsForVendor(ctx context.Context, vendorID uuid.UUID) ([]availability.VenueSlot, error)
}

// TeamSource resolves teams and venues for scoring inputs.
type TeamSource interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
	GetVenue(ctx context.Context, id uuid.UUID) (*models.Venue, error)
}

// StandingsSource resolves a team's season points for the skill factor.
// A nil result means the team has no history yet and scores neutral.
type StandingsSource interface {
	PointsFor(ctx context.Context, teamID uuid.UUID, sportID, season string) (*int, error)
}

// ProposalWriter persists surviving candidates as match proposals.
type ProposalWriter interface {
	CreateFromCandidate(ctx context.Context, cand FixtureCandidate) (*models.MatchProposal, error)
}

// Engine runs a full generation pass: enumerate candidates, score them in
// parallel, filter, and persist the winners as proposals.
type Engine struct {
	cfg       Config
	season    string
	gen       *Generator
	scorer    *Scorer
	slots     SlotSource
	teams     TeamSource
	standings StandingsSource
	writer    ProposalWriter
}

// NewEngine creates a matchmaking engine from a validated config.
func NewEngine(cfg Config, season string, gen *Generator, slots SlotSource, teams TeamSource, standings StandingsSource, writer ProposalWriter) (*Engine, error) {
	scorer, err := NewScorer(cfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:       cfg,
		season:    season,
		gen:       gen,
		scorer:    scorer,
		slots:     slots,
		teams:     teams,
		standings: standings,
		writer:    writer,
	}, nil
}

// GenerateProposals runs candidate generation, scoring and persistence for a
// vendor scope and returns the newly created proposals. Re-running for an
// already-proposed window creates nothing new.
func (e *Engine) GenerateProposals(ctx context.Context, vendorID uuid.UUID, windowStart, windowEnd time.Time) ([]models.MatchProposal, error) {
	if !windowEnd.After(windowStart) {
		return nil, fmt.Errorf("window end must be after window start")
	}

	venueSlots, err := e.slots.ListVenueSlotsForVendor(ctx, vendorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor slots: %w", err)
	}
	if len(venueSlots) == 0 {
		return nil, nil
	}

	cands, err := e.gen.generate(ctx, venueSlots, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, nil
	}

	snap, err := e.snapshot(ctx, cands)
	if err != nil {
		return nil, err
	}

	scored := e.scoreAll(vendorID, cands, snap)

	winners := e.selectWinners(cands, scored)

	var created []models.MatchProposal
	for _, c := range winners {
		p, err := e.writer.CreateFromCandidate(ctx, c)
		if err != nil {
			return created, fmt.Errorf("failed to persist proposal: %w", err)
		}
		created = append(created, *p)
	}

	log.Info().
		Str("vendor_id", vendorID.String()).
		Int("candidates", len(cands)).
		Int("created", len(created)).
		Msg("generation run complete")
	return created, nil
}

// scoreSnapshot is the read-only data scoring needs, prefetched once per run
// so the parallel scoring phase touches no shared mutable state.
type scoreSnapshot struct {
	teams  map[uuid.UUID]*models.Team
	venues map[uuid.UUID]*models.Venue
	points map[uuid.UUID]*int
}

func (e *Engine) snapshot(ctx context.Context, cands []pairCandidate) (*scoreSnapshot, error) {
	snap := &scoreSnapshot{
		teams:  make(map[uuid.UUID]*models.Team),
		venues: make(map[uuid.UUID]*models.Venue),
		points: make(map[uuid.UUID]*int),
	}

	for _, c := range cands {
		for _, teamID := range []uuid.UUID{c.home.Slot.TeamID, c.away.Slot.TeamID} {
			if _, ok := snap.teams[teamID]; ok {
				continue
			}
			team, err := e.teams.GetTeam(ctx, teamID)
			if err != nil {
				return nil, fmt.Errorf("failed to load team for scoring: %w", err)
			}
			snap.teams[teamID] = team

			pts, err := e.standings.PointsFor(ctx, teamID, team.SportID, e.season)
			if err != nil {
				// Missing history degrades to neutral, it never aborts the run.
				log.Warn().Err(err).Str("team_id", teamID.String()).Msg("standings lookup failed; scoring neutral")
				pts = nil
			}
			snap.points[teamID] = pts
		}
		if _, ok := snap.venues[c.venueID]; !ok {
			venue, err := e.teams.GetVenue(ctx, c.venueID)
			if err != nil {
				return nil, fmt.Errorf("failed to load venue for scoring: %w", err)
			}
			snap.venues[c.venueID] = venue
		}
	}
	return snap, nil
}

// scoreAll fans candidate scoring out over a bounded worker pool. Each
// candidate's scoring is read-only and independent, so parallelism is safe.
func (e *Engine) scoreAll(vendorID uuid.UUID, cands []pairCandidate, snap *scoreSnapshot) []FixtureCandidate {
	out := make([]FixtureCandidate, len(cands))

	workers := e.cfg.Workers
	if workers > len(cands) {
		workers = len(cands)
	}

	workCh := make(chan int, len(cands))
	for i := range cands {
		workCh <- i
	}
	close(workCh)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workCh {
				out[i] = e.scoreOne(vendorID, cands[i], snap)
			}
		}()
	}
	wg.Wait()

	return out
}

func (e *Engine) scoreOne(vendorID uuid.UUID, c pairCandidate, snap *scoreSnapshot) FixtureCandidate {
	homeTeam := snap.teams[c.home.Slot.TeamID]
	awayTeam := snap.teams[c.away.Slot.TeamID]
	venue := snap.venues[c.venueID]

	in := ScoringInput{
		HomeStart:       c.home.Slot.StartTime,
		HomeEnd:         c.home.Slot.EndTime,
		AwayStart:       c.away.Slot.StartTime,
		AwayEnd:         c.away.Slot.EndTime,
		HomeVenueRating: c.home.Rel.VenueRating,
		AwayVenueRating: c.away.Rel.VenueRating,
		HomeHeadroom:    c.homeHeadroom,
		HomeCap:         c.home.Slot.MaxMatchesPerWeek,
		AwayHeadroom:    c.awayHeadroom,
		AwayCap:         c.away.Slot.MaxMatchesPerWeek,
		HomeLocation:    teamPoint(homeTeam),
		AwayLocation:    teamPoint(awayTeam),
		VenueLocation:   venuePoint(venue),
		Contenders:      c.contenders,
		HomePoints:      snap.points[c.home.Slot.TeamID],
		AwayPoints:      snap.points[c.away.Slot.TeamID],
	}

	factors, score := e.scorer.Score(in)
	return FixtureCandidate{
		HomeTeamID:    c.home.Slot.TeamID,
		AwayTeamID:    c.away.Slot.TeamID,
		VenueID:       c.venueID,
		VendorID:      vendorID,
		ScheduledTime: c.scheduledTime,
		DurationMin:   c.durationMin,
		Factors:       factors,
		Score:         score,
	}
}

// selectWinners drops candidates under the minimum score and keeps only the
// top N per (team pair, week) window.
func (e *Engine) selectWinners(cands []pairCandidate, scored []FixtureCandidate) []FixtureCandidate {
	type pairWeek struct {
		a, b uuid.UUID
		week time.Time
	}

	idx := make([]int, 0, len(scored))
	for i, fc := range scored {
		if fc.Score >= e.cfg.MinScore {
			idx = append(idx, i)
		}
	}

	// Best-first, ties broken deterministically.
	sort.Slice(idx, func(x, y int) bool {
		a, b := scored[idx[x]], scored[idx[y]]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.ScheduledTime.Equal(b.ScheduledTime) {
			return a.ScheduledTime.Before(b.ScheduledTime)
		}
		return a.VenueID.String() < b.VenueID.String()
	})

	taken := make(map[pairWeek]int)
	var winners []FixtureCandidate
	for _, i := range idx {
		fc := scored[i]
		k := pairWeek{a: fc.HomeTeamID, b: fc.AwayTeamID, week: cands[i].weekStart}
		if fc.AwayTeamID.String() < fc.HomeTeamID.String() {
			k.a, k.b = fc.AwayTeamID, fc.HomeTeamID
		}
		if taken[k] >= e.cfg.TopNPerPair {
			continue
		}
		taken[k]++
		winners = append(winners, fc)
	}
	return winners
}

func teamPoint(t *models.Team) *geo.Point {
	if t == nil || t.HomeLat == nil || t.HomeLng == nil {
		return nil
	}
	return &geo.Point{Lat: *t.HomeLat, Lng: *t.HomeLng}
}

func venuePoint(v *models.Venue) *geo.Point {
	if v == nil || v.Lat == nil || v.Lng == nil {
		return nil
	}
	return &geo.Point{Lat: *v.Lat, Lng: *v.Lng}
}
