package matchmaking

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/availability"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ConflictOracle answers whether a venue is free for a window, checked
// against existing confirmed bookings and fixtures.
type ConflictOracle interface {
	IsVenueFree(ctx context.Context, venueID uuid.UUID, start, end time.Time) (bool, error)
}

// HeadroomSource reports a team's in-flight match load for a week.
type HeadroomSource interface {
	CountMatchesInWeek(ctx context.Context, teamID uuid.UUID, weekStart, weekEnd time.Time) (int, error)
}

// ProposalIndex answers whether an equivalent proposal is already in flight,
// making re-runs of generation idempotent.
type ProposalIndex interface {
	ExistsActiveProposal(ctx context.Context, homeTeamID, awayTeamID, venueID uuid.UUID, scheduledTime time.Time) (bool, error)
}

// pairCandidate is the generator's working form of a candidate: the concrete
// occurrence plus the slot and relationship data the scorer will need.
type pairCandidate struct {
	home, away    availability.VenueSlot
	venueID       uuid.UUID
	scheduledTime time.Time
	durationMin   int
	weekStart     time.Time
	weekEnd       time.Time
	homeHeadroom  int
	awayHeadroom  int
	contenders    int
}

// Generator enumerates feasible fixture candidates from availability
// overlaps, weekly cap headroom and venue conflicts.
type Generator struct {
	oracle    ConflictOracle
	headroom  HeadroomSource
	proposals ProposalIndex
}

// NewGenerator creates a candidate generator
func NewGenerator(oracle ConflictOracle, headroom HeadroomSource, proposals ProposalIndex) *Generator {
	return &Generator{oracle: oracle, headroom: headroom, proposals: proposals}
}

// generate enumerates candidates for a vendor's venue slots across a window.
// Candidates failing a precondition (venue busy, no headroom, already
// proposed) are dropped silently, not reported as errors. A team with no
// slots simply produces nothing.
func (g *Generator) generate(ctx context.Context, slots []availability.VenueSlot, windowStart, windowEnd time.Time) ([]pairCandidate, error) {
	type groupKey struct {
		venueID uuid.UUID
		day     models.Weekday
	}
	groups := make(map[groupKey][]availability.VenueSlot)
	for _, vs := range slots {
		k := groupKey{venueID: vs.VenueID, day: vs.Slot.DayOfWeek}
		groups[k] = append(groups[k], vs)
	}

	// Deterministic iteration order so re-runs score and rank identically.
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].venueID != keys[j].venueID {
			return keys[i].venueID.String() < keys[j].venueID.String()
		}
		return keys[i].day < keys[j].day
	})

	headroomCache := make(map[string]int)
	var out []pairCandidate

	for _, k := range keys {
		group := groups[k]
		sort.Slice(group, func(i, j int) bool {
			return group[i].Slot.ID.String() < group[j].Slot.ID.String()
		})

		for _, date := range occurrences(k.day, windowStart, windowEnd) {
			for i := 0; i < len(group); i++ {
				for j := i + 1; j < len(group); j++ {
					cand, ok, err := g.buildCandidate(ctx, group[i], group[j], date, windowStart, windowEnd, headroomCache)
					if err != nil {
						return nil, err
					}
					if ok {
						out = append(out, *cand)
					}
				}
			}
		}
	}

	countContenders(out)
	return out, nil
}

// buildCandidate runs the constraint checks, in order, for one slot pair on
// one date. A false return with nil error means the pair was dropped.
func (g *Generator) buildCandidate(ctx context.Context, a, b availability.VenueSlot, date, windowStart, windowEnd time.Time, headroomCache map[string]int) (*pairCandidate, bool, error) {
	if a.Slot.TeamID == b.Slot.TeamID {
		return nil, false, nil
	}

	overlapStart := maxTime(a.Slot.StartTime, b.Slot.StartTime)
	overlapEnd := minTime(a.Slot.EndTime, b.Slot.EndTime)
	if overlapEnd <= overlapStart {
		return nil, false, nil
	}

	start := date.Add(time.Duration(overlapStart) * time.Minute)
	end := date.Add(time.Duration(overlapEnd) * time.Minute)

	// Occurrence dates are midnights, so a window opening or closing mid-day
	// can enclose the date but not the kickoff itself.
	if start.Before(windowStart) || !start.Before(windowEnd) {
		return nil, false, nil
	}

	free, err := g.oracle.IsVenueFree(ctx, a.VenueID, start, end)
	if err != nil {
		return nil, false, fmt.Errorf("venue conflict check failed: %w", err)
	}
	if !free {
		return nil, false, nil
	}

	weekStart := startOfWeek(start)
	weekEnd := weekStart.AddDate(0, 0, 7)

	homeSlot, awaySlot := orderPair(a, b)

	homeHeadroom, err := g.weeklyHeadroom(ctx, homeSlot, weekStart, weekEnd, headroomCache)
	if err != nil {
		return nil, false, err
	}
	awayHeadroom, err := g.weeklyHeadroom(ctx, awaySlot, weekStart, weekEnd, headroomCache)
	if err != nil {
		return nil, false, err
	}
	if homeHeadroom <= 0 || awayHeadroom <= 0 {
		return nil, false, nil
	}

	exists, err := g.proposals.ExistsActiveProposal(ctx, homeSlot.Slot.TeamID, awaySlot.Slot.TeamID, a.VenueID, start)
	if err != nil {
		return nil, false, fmt.Errorf("proposal idempotence check failed: %w", err)
	}
	if exists {
		log.Debug().
			Str("home_team_id", homeSlot.Slot.TeamID.String()).
			Str("away_team_id", awaySlot.Slot.TeamID.String()).
			Time("scheduled_time", start).
			Msg("skipping already-proposed candidate")
		return nil, false, nil
	}

	return &pairCandidate{
		home:          homeSlot,
		away:          awaySlot,
		venueID:       a.VenueID,
		scheduledTime: start,
		durationMin:   int(end.Sub(start) / time.Minute),
		weekStart:     weekStart,
		weekEnd:       weekEnd,
		homeHeadroom:  homeHeadroom,
		awayHeadroom:  awayHeadroom,
	}, true, nil
}

func (g *Generator) weeklyHeadroom(ctx context.Context, vs availability.VenueSlot, weekStart, weekEnd time.Time, cache map[string]int) (int, error) {
	key := vs.Slot.TeamID.String() + weekStart.Format(time.RFC3339)
	inFlight, ok := cache[key]
	if !ok {
		var err error
		inFlight, err = g.headroom.CountMatchesInWeek(ctx, vs.Slot.TeamID, weekStart, weekEnd)
		if err != nil {
			return 0, fmt.Errorf("headroom check failed: %w", err)
		}
		cache[key] = inFlight
	}
	return vs.Slot.MaxMatchesPerWeek - inFlight, nil
}

// orderPair assigns home advantage to the team with the stronger affinity for
// the venue; ties break on team id so the assignment is deterministic.
func orderPair(a, b availability.VenueSlot) (home, away availability.VenueSlot) {
	if a.Rel.VenueRating > b.Rel.VenueRating {
		return a, b
	}
	if b.Rel.VenueRating > a.Rel.VenueRating {
		return b, a
	}
	if a.Slot.TeamID.String() < b.Slot.TeamID.String() {
		return a, b
	}
	return b, a
}

// countContenders fills in how many candidates compete for each venue/time
// window, feeding the venueAvailability penalty.
func countContenders(cands []pairCandidate) {
	type slotKey struct {
		venueID uuid.UUID
		start   time.Time
	}
	counts := make(map[slotKey]int)
	for _, c := range cands {
		counts[slotKey{c.venueID, c.scheduledTime}]++
	}
	for i := range cands {
		cands[i].contenders = counts[slotKey{cands[i].venueID, cands[i].scheduledTime}]
	}
}

// occurrences lists the midnights in [windowStart, windowEnd) falling on the
// given weekday.
func occurrences(day models.Weekday, windowStart, windowEnd time.Time) []time.Time {
	target := weekdayToTime(day)
	d := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	for d.Weekday() != target {
		d = d.AddDate(0, 0, 1)
	}

	var out []time.Time
	for d.Before(windowEnd) {
		out = append(out, d)
		d = d.AddDate(0, 0, 7)
	}
	return out
}

func weekdayToTime(day models.Weekday) time.Weekday {
	switch day {
	case models.WeekdayMonday:
		return time.Monday
	case models.WeekdayTuesday:
		return time.Tuesday
	case models.WeekdayWednesday:
		return time.Wednesday
	case models.WeekdayThursday:
		return time.Thursday
	case models.WeekdayFriday:
		return time.Friday
	case models.WeekdaySaturday:
		return time.Saturday
	default:
		return time.Sunday
	}
}

// startOfWeek truncates to the Monday midnight opening the week containing t.
func startOfWeek(t time.Time) time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}
