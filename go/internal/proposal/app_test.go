package proposal

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/matchmaking"
	"github.com/mcdev12/pitchside/go/internal/models"
)

// fakeRepo mirrors the repository's conditional-update semantics in memory so
// lifecycle races can be exercised without a database.
type fakeRepo struct {
	mu        sync.Mutex
	proposals map[uuid.UUID]*models.MatchProposal
	fixtures  map[uuid.UUID]*models.Fixture
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		proposals: make(map[uuid.UUID]*models.MatchProposal),
		fixtures:  make(map[uuid.UUID]*models.Fixture),
	}
}

func (r *fakeRepo) CreateProposal(ctx context.Context, req CreateProposalRequest) (*models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := &models.MatchProposal{
		ID:             req.ID,
		HomeTeamID:     req.HomeTeamID,
		AwayTeamID:     req.AwayTeamID,
		VenueID:        req.VenueID,
		VendorID:       req.VendorID,
		ScheduledTime:  req.ScheduledTime,
		DurationMin:    req.DurationMin,
		AIScore:        req.AIScore,
		ScoringFactors: req.ScoringFactors,
		Status:         models.ProposalStatusPending,
		ExpiresAt:      req.ExpiresAt,
	}
	r.proposals[p.ID] = p
	out := *p
	return &out, nil
}

func (r *fakeRepo) GetProposal(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, apperr.NotFoundf("proposal", id)
	}
	out := *p
	return &out, nil
}

func (r *fakeRepo) ListProposals(ctx context.Context, filter ListProposalsFilter) ([]models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.MatchProposal
	for _, p := range r.proposals {
		if p.VendorID == filter.VendorID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeRepo) AcceptSide(ctx context.Context, id uuid.UUID, side models.ProposalSide) (*models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, apperr.NotFoundf("proposal", id)
	}
	if p.Status == models.ProposalStatusPending {
		now := time.Now()
		accepted := true
		if side == models.ProposalSideHome && p.HomeTeamAccepted == nil {
			p.HomeTeamAccepted = &accepted
			p.HomeRespondedAt = &now
		}
		if side == models.ProposalSideAway && p.AwayTeamAccepted == nil {
			p.AwayTeamAccepted = &accepted
			p.AwayRespondedAt = &now
		}
	}
	out := *p
	return &out, nil
}

func (r *fakeRepo) Promote(ctx context.Context, id uuid.UUID) (*models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, apperr.NotFoundf("proposal", id)
	}
	bothAccepted := p.HomeTeamAccepted != nil && *p.HomeTeamAccepted &&
		p.AwayTeamAccepted != nil && *p.AwayTeamAccepted
	if p.Status == models.ProposalStatusPending && bothAccepted {
		now := time.Now()
		p.Status = models.ProposalStatusScheduled
		p.AcceptedAt = &now
		f := &models.Fixture{
			ID:            uuid.New(),
			ProposalID:    p.ID,
			HomeTeamID:    p.HomeTeamID,
			AwayTeamID:    p.AwayTeamID,
			VenueID:       p.VenueID,
			ScheduledTime: p.ScheduledTime,
			DurationMin:   p.DurationMin,
			Status:        models.FixtureStatusConfirmed,
		}
		r.fixtures[f.ID] = f
	}
	out := *p
	return &out, nil
}

func (r *fakeRepo) Cancel(ctx context.Context, id uuid.UUID, reason string) (*models.MatchProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.proposals[id]
	if !ok {
		return nil, apperr.NotFoundf("proposal", id)
	}
	if p.Status == models.ProposalStatusPending {
		now := time.Now()
		p.Status = models.ProposalStatusCancelled
		p.CancelledAt = &now
		p.CancellationReason = &reason
	}
	out := *p
	return &out, nil
}

func (r *fakeRepo) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, p := range r.proposals {
		if p.Status == models.ProposalStatusPending && p.ExpiresAt.Before(now) {
			p.Status = models.ProposalStatusExpired
			count++
		}
	}
	return count, nil
}

func (r *fakeRepo) NextExpiry(ctx context.Context) (*time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var next *time.Time
	for _, p := range r.proposals {
		if p.Status != models.ProposalStatusPending {
			continue
		}
		if next == nil || p.ExpiresAt.Before(*next) {
			t := p.ExpiresAt
			next = &t
		}
	}
	return next, nil
}

func (r *fakeRepo) GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fixtures[id]
	if !ok {
		return nil, apperr.NotFoundf("fixture", id)
	}
	out := *f
	return &out, nil
}

func (r *fakeRepo) fixtureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fixtures)
}

type fakeCaps struct {
	mu       sync.Mutex
	exceeded map[uuid.UUID]bool
}

func (c *fakeCaps) ExceedsWeeklyCap(ctx context.Context, teamID uuid.UUID, at time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.exceeded[teamID], nil
}

func newTestApp(t *testing.T) (*App, *fakeRepo, *fakeCaps, *clockwork.FakeClock) {
	t.Helper()
	repo := newFakeRepo()
	caps := &fakeCaps{exceeded: make(map[uuid.UUID]bool)}
	clock := clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	app, err := NewApp(repo, caps, clock, 24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return app, repo, caps, clock
}

func candidate() matchmaking.FixtureCandidate {
	return matchmaking.FixtureCandidate{
		HomeTeamID:    uuid.New(),
		AwayTeamID:    uuid.New(),
		VenueID:       uuid.New(),
		VendorID:      uuid.New(),
		ScheduledTime: time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC),
		DurationMin:   120,
		Score:         0.88,
	}
}

func TestCreateFromCandidate(t *testing.T) {
	app, _, _, clock := newTestApp(t)

	p, err := app.CreateFromCandidate(context.Background(), candidate())
	if err != nil {
		t.Fatal(err)
	}
	if p.Status != models.ProposalStatusPending {
		t.Errorf("status = %s, want PENDING", p.Status)
	}
	want := clock.Now().Add(24 * time.Hour)
	if !p.ExpiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", p.ExpiresAt, want)
	}
	if p.HomeTeamAccepted != nil || p.AwayTeamAccepted != nil {
		t.Error("acceptance flags must start unset")
	}
}

func TestRespondPartialAcceptance(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	got, err := app.Respond(context.Background(), RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ProposalStatusPending {
		t.Errorf("status = %s, want PENDING after one acceptance", got.Status)
	}
	if got.HomeTeamAccepted == nil || !*got.HomeTeamAccepted {
		t.Error("home acceptance not recorded")
	}
	if got.AwayTeamAccepted != nil {
		t.Error("away flag must stay unset")
	}
}

func TestRespondBothSidesSchedules(t *testing.T) {
	app, repo, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	ctx := context.Background()
	if _, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true}); err != nil {
		t.Fatal(err)
	}
	got, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideAway, Accept: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ProposalStatusScheduled {
		t.Fatalf("status = %s, want SCHEDULED", got.Status)
	}
	if got.AcceptedAt == nil {
		t.Error("acceptedAt not stamped")
	}
	if repo.fixtureCount() != 1 {
		t.Errorf("fixtures = %d, want 1", repo.fixtureCount())
	}
}

func TestRespondSameSideIdempotent(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	ctx := context.Background()
	first, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true})
	if err != nil {
		t.Fatal(err)
	}
	second, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true})
	if err != nil {
		t.Fatalf("repeat acceptance must be a no-op, got %v", err)
	}
	if second.Status != models.ProposalStatusPending {
		t.Errorf("status = %s, want PENDING", second.Status)
	}
	if !first.HomeRespondedAt.Equal(*second.HomeRespondedAt) {
		t.Error("repeat acceptance must not move the response timestamp")
	}
}

func TestRespondDecline(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	got, err := app.Respond(context.Background(), RespondRequest{ProposalID: p.ID, Side: models.ProposalSideAway, Accept: false})
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ProposalStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.CancellationReason == nil || *got.CancellationReason != "declined by AWAY" {
		t.Errorf("reason = %v, want declined by AWAY", got.CancellationReason)
	}
}

func TestRespondOnTerminalProposal(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	ctx := context.Background()
	app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true})
	app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideAway, Accept: true})

	_, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}

	var ite *apperr.InvalidTransitionError
	if !errors.As(err, &ite) {
		t.Fatal("expected typed InvalidTransitionError")
	}
	if ite.Current != string(models.ProposalStatusScheduled) {
		t.Errorf("current = %s, want SCHEDULED", ite.Current)
	}

	// The record is unchanged afterward.
	got, _ := app.GetProposal(ctx, p.ID)
	if got.Status != models.ProposalStatusScheduled {
		t.Errorf("status moved to %s after refused transition", got.Status)
	}
}

func TestConcurrentAcceptsConverge(t *testing.T) {
	app, repo, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		side := models.ProposalSideHome
		if i%2 == 1 {
			side = models.ProposalSideAway
		}
		wg.Add(1)
		go func(side models.ProposalSide) {
			defer wg.Done()
			// Losing a race surfaces as InvalidTransition; that is fine here,
			// the invariant under test is the final state.
			app.Respond(context.Background(), RespondRequest{ProposalID: p.ID, Side: side, Accept: true})
		}(side)
	}
	wg.Wait()

	got, err := app.GetProposal(context.Background(), p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.ProposalStatusScheduled {
		t.Errorf("status = %s, want SCHEDULED after concurrent accepts", got.Status)
	}
	if got.HomeTeamAccepted == nil || !*got.HomeTeamAccepted || got.AwayTeamAccepted == nil || !*got.AwayTeamAccepted {
		t.Error("SCHEDULED requires both acceptance flags true")
	}
	if repo.fixtureCount() != 1 {
		t.Errorf("fixtures = %d, want exactly 1", repo.fixtureCount())
	}
}

func TestCapExceededAtAcceptance(t *testing.T) {
	app, _, caps, _ := newTestApp(t)
	cand := candidate()
	p, _ := app.CreateFromCandidate(context.Background(), cand)

	ctx := context.Background()
	if _, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true}); err != nil {
		t.Fatal(err)
	}

	caps.mu.Lock()
	caps.exceeded[cand.AwayTeamID] = true
	caps.mu.Unlock()

	_, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideAway, Accept: true})
	if !errors.Is(err, apperr.ErrConstraintViolation) {
		t.Fatalf("expected constraint violation, got %v", err)
	}

	got, _ := app.GetProposal(ctx, p.ID)
	if got.Status != models.ProposalStatusCancelled {
		t.Errorf("status = %s, want CANCELLED", got.Status)
	}
	if got.CancellationReason == nil || *got.CancellationReason != "cap exceeded" {
		t.Errorf("reason = %v, want cap exceeded", got.CancellationReason)
	}
}

func TestSweepExpiredIdempotent(t *testing.T) {
	app, _, _, clock := newTestApp(t)
	ctx := context.Background()
	app.CreateFromCandidate(ctx, candidate())
	app.CreateFromCandidate(ctx, candidate())

	clock.Advance(25 * time.Hour)

	count, err := app.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("first sweep = %d, want 2", count)
	}

	count, err = app.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("second sweep = %d, want 0", count)
	}
}

func TestLateAcceptAfterExpiry(t *testing.T) {
	app, _, _, clock := newTestApp(t)
	ctx := context.Background()
	p, _ := app.CreateFromCandidate(ctx, candidate())

	if _, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideHome, Accept: true}); err != nil {
		t.Fatal(err)
	}

	clock.Advance(25 * time.Hour)
	if _, err := app.SweepExpired(ctx); err != nil {
		t.Fatal(err)
	}

	got, _ := app.GetProposal(ctx, p.ID)
	if got.Status != models.ProposalStatusExpired {
		t.Fatalf("status = %s, want EXPIRED", got.Status)
	}

	_, err := app.Respond(ctx, RespondRequest{ProposalID: p.ID, Side: models.ProposalSideAway, Accept: true})
	if !errors.Is(err, apperr.ErrInvalidTransition) {
		t.Fatalf("late accept must fail with invalid transition, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	app, _, _, _ := newTestApp(t)
	p, _ := app.CreateFromCandidate(context.Background(), candidate())

	_, err := app.Cancel(context.Background(), CancelRequest{ProposalID: p.ID})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNextExpiry(t *testing.T) {
	app, _, _, clock := newTestApp(t)
	ctx := context.Background()

	next, err := app.NextExpiry(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if next != nil {
		t.Errorf("expected nil with no pending proposals, got %v", next)
	}

	app.CreateFromCandidate(ctx, candidate())
	next, err = app.NextExpiry(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := clock.Now().Add(24 * time.Hour)
	if next == nil || !next.Equal(want) {
		t.Errorf("next expiry = %v, want %v", next, want)
	}
}
