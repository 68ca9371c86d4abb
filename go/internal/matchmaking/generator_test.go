package matchmaking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/availability"
	"github.com/mcdev12/pitchside/go/internal/models"
)

type fakeOracle struct {
	busy map[uuid.UUID]bool
}

func (f *fakeOracle) IsVenueFree(ctx context.Context, venueID uuid.UUID, start, end time.Time) (bool, error) {
	return !f.busy[venueID], nil
}

type fakeHeadroom struct {
	inFlight map[uuid.UUID]int
}

func (f *fakeHeadroom) CountMatchesInWeek(ctx context.Context, teamID uuid.UUID, weekStart, weekEnd time.Time) (int, error) {
	return f.inFlight[teamID], nil
}

type fakeIndex struct {
	existing map[string]bool
}

func (f *fakeIndex) ExistsActiveProposal(ctx context.Context, homeTeamID, awayTeamID, venueID uuid.UUID, scheduledTime time.Time) (bool, error) {
	return f.existing[homeTeamID.String()+awayTeamID.String()+scheduledTime.Format(time.RFC3339)], nil
}

func newTestGenerator() (*Generator, *fakeOracle, *fakeHeadroom, *fakeIndex) {
	oracle := &fakeOracle{busy: make(map[uuid.UUID]bool)}
	headroom := &fakeHeadroom{inFlight: make(map[uuid.UUID]int)}
	index := &fakeIndex{existing: make(map[string]bool)}
	return NewGenerator(oracle, headroom, index), oracle, headroom, index
}

func venueSlot(teamID, venueID uuid.UUID, day models.Weekday, start, end models.TimeOfDay, cap int, rating float64) availability.VenueSlot {
	return availability.VenueSlot{
		Slot: models.AvailabilitySlot{
			ID:                uuid.New(),
			TeamID:            teamID,
			RelationshipID:    uuid.New(),
			DayOfWeek:         day,
			StartTime:         start,
			EndTime:           end,
			MaxMatchesPerWeek: cap,
		},
		VenueID: venueID,
		Rel: models.TeamVenueRelationship{
			TeamID:      teamID,
			VenueID:     venueID,
			VenueRating: rating,
		},
	}
}

// One-week window containing Tuesday 2025-03-04.
var (
	windowStart = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	windowEnd   = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
)

func TestGenerateIdenticalSlotsSingleCandidate(t *testing.T) {
	gen, _, _, _ := newTestGenerator()
	venueID := uuid.New()
	teamA, teamB := uuid.New(), uuid.New()

	slots := []availability.VenueSlot{
		venueSlot(teamA, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 4),
		venueSlot(teamB, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	cands, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(cands))
	}

	c := cands[0]
	// Higher venue rating hosts.
	if c.home.Slot.TeamID != teamB || c.away.Slot.TeamID != teamA {
		t.Errorf("expected team with rating 5 to host")
	}
	wantTime := time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)
	if !c.scheduledTime.Equal(wantTime) {
		t.Errorf("scheduledTime = %v, want %v", c.scheduledTime, wantTime)
	}
	if c.durationMin != 120 {
		t.Errorf("durationMin = %d, want 120", c.durationMin)
	}
	if c.contenders != 1 {
		t.Errorf("contenders = %d, want 1", c.contenders)
	}
}

func TestGenerateNoSlotsNoCandidates(t *testing.T) {
	gen, _, _, _ := newTestGenerator()

	cands, err := gen.generate(context.Background(), nil, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Errorf("expected no candidates, got %d", len(cands))
	}
}

func TestGenerateDropsBusyVenueSilently(t *testing.T) {
	gen, oracle, _, _ := newTestGenerator()
	venueID := uuid.New()
	oracle.busy[venueID] = true

	slots := []availability.VenueSlot{
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 4),
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	cands, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Errorf("busy venue should produce no candidates, got %d", len(cands))
	}
}

func TestGenerateRespectsWeeklyCap(t *testing.T) {
	gen, _, headroom, _ := newTestGenerator()
	venueID := uuid.New()
	teamA, teamB := uuid.New(), uuid.New()

	// Team A already has 2 matches in flight against a cap of 2.
	headroom.inFlight[teamA] = 2

	slots := []availability.VenueSlot{
		venueSlot(teamA, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 4),
		venueSlot(teamB, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	cands, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Errorf("capped team should be excluded, got %d candidates", len(cands))
	}
}

func TestGenerateIdempotentAgainstExistingProposals(t *testing.T) {
	gen, _, _, index := newTestGenerator()
	venueID := uuid.New()
	teamA, teamB := uuid.New(), uuid.New()

	slots := []availability.VenueSlot{
		venueSlot(teamA, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 4),
		venueSlot(teamB, venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	first, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected one candidate, got %d", len(first))
	}

	// Mark the candidate as an in-flight proposal and re-run.
	c := first[0]
	index.existing[c.home.Slot.TeamID.String()+c.away.Slot.TeamID.String()+c.scheduledTime.Format(time.RFC3339)] = true

	second, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("re-run should create nothing, got %d candidates", len(second))
	}
}

func TestGenerateNonOverlappingWindows(t *testing.T) {
	gen, _, _, _ := newTestGenerator()
	venueID := uuid.New()

	slots := []availability.VenueSlot{
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 9*60, 11*60, 2, 4),
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	cands, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Errorf("disjoint windows should not pair, got %d", len(cands))
	}
}

func TestGenerateSkipsKickoffsOutsideWindow(t *testing.T) {
	gen, _, _, _ := newTestGenerator()
	venueID := uuid.New()

	slots := []availability.VenueSlot{
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 4),
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 2, 5),
	}

	// Window opens Tuesday 19:00, after the 18:00 kickoff on the same day.
	midDayStart := time.Date(2025, 3, 4, 19, 0, 0, 0, time.UTC)
	midDayEnd := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	cands, err := gen.generate(context.Background(), slots, midDayStart, midDayEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("kickoff before window open should be dropped, got %d candidates", len(cands))
	}

	// Window closing mid-day cuts off that day's kickoff too.
	earlyEnd := time.Date(2025, 3, 4, 17, 0, 0, 0, time.UTC)
	cands, err = gen.generate(context.Background(), slots, windowStart, earlyEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 0 {
		t.Fatalf("kickoff past window close should be dropped, got %d candidates", len(cands))
	}

	// A window opening just before kickoff keeps the candidate.
	justBefore := time.Date(2025, 3, 4, 17, 30, 0, 0, time.UTC)
	cands, err = gen.generate(context.Background(), slots, justBefore, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 1 {
		t.Fatalf("kickoff inside window should survive, got %d candidates", len(cands))
	}
}

func TestGenerateCountsContenders(t *testing.T) {
	gen, _, _, _ := newTestGenerator()
	venueID := uuid.New()

	// Three teams sharing the same window produce three pairings competing
	// for one venue slot.
	slots := []availability.VenueSlot{
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 3, 3),
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 3, 4),
		venueSlot(uuid.New(), venueID, models.WeekdayTuesday, 18*60, 20*60, 3, 5),
	}

	cands, err := gen.generate(context.Background(), slots, windowStart, windowEnd)
	if err != nil {
		t.Fatal(err)
	}
	if len(cands) != 3 {
		t.Fatalf("expected 3 pairings, got %d", len(cands))
	}
	for _, c := range cands {
		if c.contenders != 3 {
			t.Errorf("contenders = %d, want 3", c.contenders)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	// A Thursday evening belongs to the week opened the preceding Monday.
	thu := time.Date(2025, 3, 6, 19, 30, 0, 0, time.UTC)
	want := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	if got := startOfWeek(thu); !got.Equal(want) {
		t.Errorf("startOfWeek = %v, want %v", got, want)
	}

	// Monday maps to itself.
	if got := startOfWeek(want); !got.Equal(want) {
		t.Errorf("startOfWeek of Monday = %v, want %v", got, want)
	}
}
