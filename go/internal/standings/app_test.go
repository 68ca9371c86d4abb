package standings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/teams"
)

type standingKey struct {
	teamID  uuid.UUID
	sportID string
	season  string
}

type fakeStandingsRepo struct {
	performances []models.MatchPerformance
	standings    map[standingKey]*models.TeamStanding
	positions    map[uuid.UUID]int
}

func newFakeStandingsRepo() *fakeStandingsRepo {
	return &fakeStandingsRepo{
		standings: make(map[standingKey]*models.TeamStanding),
		positions: make(map[uuid.UUID]int),
	}
}

func (r *fakeStandingsRepo) SavePerformance(ctx context.Context, perf models.MatchPerformance) error {
	r.performances = append(r.performances, perf)
	return nil
}

func (r *fakeStandingsRepo) GetStanding(ctx context.Context, teamID uuid.UUID, sportID, season string) (*models.TeamStanding, error) {
	st, ok := r.standings[standingKey{teamID, sportID, season}]
	if !ok {
		return nil, apperr.NotFoundf("standing", teamID)
	}
	out := *st
	return &out, nil
}

func (r *fakeStandingsRepo) UpsertStanding(ctx context.Context, st models.TeamStanding) (*models.TeamStanding, error) {
	stored := st
	r.standings[standingKey{st.TeamID, st.SportID, st.Season}] = &stored
	out := st
	return &out, nil
}

func (r *fakeStandingsRepo) ListStandings(ctx context.Context, sportID, season string) ([]models.TeamStanding, error) {
	var out []models.TeamStanding
	for k, st := range r.standings {
		if k.sportID == sportID && k.season == season {
			out = append(out, *st)
		}
	}
	return out, nil
}

func (r *fakeStandingsRepo) UpdatePositions(ctx context.Context, ranked []models.TeamStanding) error {
	for _, st := range ranked {
		r.positions[st.TeamID] = st.Position
	}
	return nil
}

func (r *fakeStandingsRepo) ListPerformancesByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]models.MatchPerformance, error) {
	var out []models.MatchPerformance
	for i := len(r.performances) - 1; i >= 0 && len(out) < limit; i-- {
		if r.performances[i].TeamID == teamID {
			out = append(out, r.performances[i])
		}
	}
	return out, nil
}

type fakeFixtures struct {
	fixtures map[uuid.UUID]*models.Fixture
}

func (f *fakeFixtures) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, apperr.NotFoundf("fixture", id)
	}
	out := *fx
	return &out, nil
}

func (f *fakeFixtures) MarkFixturePlayed(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	fx, ok := f.fixtures[id]
	if !ok {
		return nil, apperr.NotFoundf("fixture", id)
	}
	if fx.Status == models.FixtureStatusConfirmed {
		fx.Status = models.FixtureStatusPlayed
	}
	out := *fx
	return &out, nil
}

type fakeTeamLookup struct {
	sportID string
}

func (f *fakeTeamLookup) GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	return &models.Team{ID: id, SportID: f.sportID}, nil
}

type fakeVenueFeedback struct {
	outcomes []teams.RecordOutcomeRequest
}

func (f *fakeVenueFeedback) RecordOutcome(ctx context.Context, req teams.RecordOutcomeRequest) (*models.TeamVenueRelationship, error) {
	f.outcomes = append(f.outcomes, req)
	return &models.TeamVenueRelationship{TeamID: req.TeamID, VenueID: req.VenueID}, nil
}

type fakeCache struct {
	values map[string]int
	dels   []string
}

func (c *fakeCache) GetPoints(ctx context.Context, key string) (int, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *fakeCache) SetPoints(ctx context.Context, key string, points int) error {
	c.values[key] = points
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
		c.dels = append(c.dels, k)
	}
	return nil
}

type harness struct {
	app      *App
	repo     *fakeStandingsRepo
	fixtures *fakeFixtures
	venues   *fakeVenueFeedback
	cache    *fakeCache
	fixture  *models.Fixture
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	repo := newFakeStandingsRepo()
	fixture := &models.Fixture{
		ID:            uuid.New(),
		ProposalID:    uuid.New(),
		HomeTeamID:    uuid.New(),
		AwayTeamID:    uuid.New(),
		VenueID:       uuid.New(),
		ScheduledTime: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC),
		DurationMin:   120,
		Status:        models.FixtureStatusConfirmed,
	}
	fixtures := &fakeFixtures{fixtures: map[uuid.UUID]*models.Fixture{fixture.ID: fixture}}
	venues := &fakeVenueFeedback{}
	cache := &fakeCache{values: make(map[string]int)}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 4, 21, 0, 0, 0, time.UTC))

	app, err := NewApp(repo, fixtures, &fakeTeamLookup{sportID: "football"}, venues, cache, clock, DefaultFormLength)
	if err != nil {
		t.Fatal(err)
	}
	return &harness{app: app, repo: repo, fixtures: fixtures, venues: venues, cache: cache, fixture: fixture}
}

func TestRecordResultHomeWin(t *testing.T) {
	h := newHarness(t)

	got, err := h.app.RecordResult(context.Background(), RecordResultRequest{
		FixtureID: h.fixture.ID,
		Season:    "2025",
		HomeGoals: 3,
		AwayGoals: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected standings for both teams, got %d", len(got))
	}

	home, away := got[0], got[1]
	if home.Wins != 1 || home.Points != 3 || home.GoalDifference != 2 {
		t.Errorf("home standing = %d wins, %d pts, %+d GD; want 1, 3, +2", home.Wins, home.Points, home.GoalDifference)
	}
	if away.Losses != 1 || away.Points != 0 || away.GoalDifference != -2 {
		t.Errorf("away standing = %d losses, %d pts, %+d GD; want 1, 0, -2", away.Losses, away.Points, away.GoalDifference)
	}
	if home.Form != "W" || away.Form != "L" {
		t.Errorf("form = %q / %q, want W / L", home.Form, away.Form)
	}

	if len(h.repo.performances) != 2 {
		t.Errorf("performances = %d, want 2", len(h.repo.performances))
	}
	if len(h.venues.outcomes) != 2 {
		t.Errorf("venue outcomes = %d, want 2", len(h.venues.outcomes))
	}

	fx, _ := h.fixtures.GetFixture(context.Background(), h.fixture.ID)
	if fx.Status != models.FixtureStatusPlayed {
		t.Errorf("fixture status = %s, want PLAYED", fx.Status)
	}
}

func TestRecordResultDraw(t *testing.T) {
	h := newHarness(t)

	got, err := h.app.RecordResult(context.Background(), RecordResultRequest{
		FixtureID: h.fixture.ID,
		Season:    "2025",
		HomeGoals: 2,
		AwayGoals: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range got {
		if st.Draws != 1 || st.Points != 1 || st.GoalDifference != 0 {
			t.Errorf("draw standing = %d draws, %d pts, %d GD; want 1, 1, 0", st.Draws, st.Points, st.GoalDifference)
		}
	}
}

func TestRecordResultRejectsReplay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	req := RecordResultRequest{FixtureID: h.fixture.ID, Season: "2025", HomeGoals: 1, AwayGoals: 0}
	if _, err := h.app.RecordResult(ctx, req); err != nil {
		t.Fatal(err)
	}
	_, err := h.app.RecordResult(ctx, req)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("replaying a result must fail validation, got %v", err)
	}
}

func TestRecordResultBeforeKickoff(t *testing.T) {
	h := newHarness(t)
	h.fixture.ScheduledTime = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

	_, err := h.app.RecordResult(context.Background(), RecordResultRequest{
		FixtureID: h.fixture.ID,
		Season:    "2025",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error before kickoff, got %v", err)
	}
}

func TestFormTruncation(t *testing.T) {
	form := ""
	results := []models.MatchResult{
		models.MatchResultWin, models.MatchResultWin, models.MatchResultDraw,
		models.MatchResultLoss, models.MatchResultWin, models.MatchResultLoss,
	}
	for _, r := range results {
		form = pushForm(form, r, DefaultFormLength)
	}
	if form != "LWLDW" {
		t.Errorf("form = %q, want LWLDW", form)
	}
	if len(form) != DefaultFormLength {
		t.Errorf("form length = %d, want %d", len(form), DefaultFormLength)
	}
}

func TestRank(t *testing.T) {
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	snapshot := []models.TeamStanding{
		{TeamID: a, Points: 6, GoalDifference: 2, GoalsFor: 8},
		{TeamID: b, Points: 9, GoalDifference: -1, GoalsFor: 4},
		{TeamID: c, Points: 6, GoalDifference: 2, GoalsFor: 10},
	}

	ranked := Rank(snapshot)
	order := []uuid.UUID{ranked[0].TeamID, ranked[1].TeamID, ranked[2].TeamID}
	want := []uuid.UUID{b, c, a}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("rank order = %v, want %v", order, want)
		}
	}
	for i, st := range ranked {
		if st.Position != i+1 {
			t.Errorf("position[%d] = %d, want %d", i, st.Position, i+1)
		}
	}
	// Input order must be untouched.
	if snapshot[0].Position != 0 {
		t.Error("Rank mutated its input snapshot")
	}
}

func TestPointsForReadThrough(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.app.RecordResult(ctx, RecordResultRequest{
		FixtureID: h.fixture.ID, Season: "2025", HomeGoals: 2, AwayGoals: 0,
	}); err != nil {
		t.Fatal(err)
	}

	points, err := h.app.PointsFor(ctx, h.fixture.HomeTeamID, "football", "2025")
	if err != nil {
		t.Fatal(err)
	}
	if points == nil || *points != 3 {
		t.Fatalf("points = %v, want 3", points)
	}

	// Now cached; a second read must not need the store.
	key := pointsKey(h.fixture.HomeTeamID, "football", "2025")
	if _, ok := h.cache.values[key]; !ok {
		t.Error("points not cached after read")
	}

	// Unknown team degrades to nil, not an error.
	points, err = h.app.PointsFor(ctx, uuid.New(), "football", "2025")
	if err != nil {
		t.Fatal(err)
	}
	if points != nil {
		t.Errorf("expected nil points for unknown team, got %v", points)
	}
}

func TestRecordResultInvalidatesCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	key := pointsKey(h.fixture.HomeTeamID, "football", "2025")
	h.cache.values[key] = 99

	if _, err := h.app.RecordResult(ctx, RecordResultRequest{
		FixtureID: h.fixture.ID, Season: "2025", HomeGoals: 1, AwayGoals: 1,
	}); err != nil {
		t.Fatal(err)
	}
	if _, ok := h.cache.values[key]; ok {
		t.Error("stale points survived result recording")
	}
}
