package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
)

type fakeSlotRepo struct {
	slots    map[uuid.UUID]models.AvailabilitySlot
	inFlight map[uuid.UUID]int
}

func newFakeSlotRepo() *fakeSlotRepo {
	return &fakeSlotRepo{
		slots:    make(map[uuid.UUID]models.AvailabilitySlot),
		inFlight: make(map[uuid.UUID]int),
	}
}

func (f *fakeSlotRepo) CreateSlot(ctx context.Context, req CreateSlotRequest) (*models.AvailabilitySlot, error) {
	for _, s := range f.slots {
		if s.TeamID == req.TeamID && s.DayOfWeek == req.DayOfWeek &&
			s.StartTime == req.StartTime && s.EndTime == req.EndTime {
			return nil, apperr.Validationf("slot", "duplicate slot for (day, start, end)")
		}
	}
	slot := models.AvailabilitySlot{
		ID:                req.ID,
		TeamID:            req.TeamID,
		RelationshipID:    req.RelationshipID,
		DayOfWeek:         req.DayOfWeek,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		MaxMatchesPerWeek: req.MaxMatchesPerWeek,
		CourtType:         req.CourtType,
		CreatedAt:         time.Now(),
	}
	f.slots[req.ID] = slot
	return &slot, nil
}

func (f *fakeSlotRepo) GetSlot(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	s, ok := f.slots[id]
	if !ok {
		return nil, apperr.NotFoundf("slot", id)
	}
	return &s, nil
}

func (f *fakeSlotRepo) ListSlotsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AvailabilitySlot, error) {
	var out []models.AvailabilitySlot
	for _, s := range f.slots {
		if s.TeamID == teamID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSlotRepo) ListVenueSlotsForVendor(ctx context.Context, vendorID uuid.UUID) ([]VenueSlot, error) {
	return nil, nil
}

func (f *fakeSlotRepo) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	if _, ok := f.slots[id]; !ok {
		return apperr.NotFoundf("slot", id)
	}
	delete(f.slots, id)
	return nil
}

func (f *fakeSlotRepo) CountMatchesInWeek(ctx context.Context, teamID uuid.UUID, weekStart, weekEnd time.Time) (int, error) {
	return f.inFlight[teamID], nil
}

func validCreateReq(teamID uuid.UUID) CreateSlotRequest {
	return CreateSlotRequest{
		ID:                uuid.New(),
		TeamID:            teamID,
		RelationshipID:    uuid.New(),
		DayOfWeek:         models.WeekdayTuesday,
		StartTime:         18 * 60,
		EndTime:           20 * 60,
		MaxMatchesPerWeek: 2,
	}
}

func TestCreateSlotValidation(t *testing.T) {
	app := NewApp(newFakeSlotRepo())
	teamID := uuid.New()

	tests := []struct {
		name   string
		mutate func(*CreateSlotRequest)
	}{
		{"end before start", func(r *CreateSlotRequest) { r.EndTime = r.StartTime - 60 }},
		{"end equals start", func(r *CreateSlotRequest) { r.EndTime = r.StartTime }},
		{"cap zero", func(r *CreateSlotRequest) { r.MaxMatchesPerWeek = 0 }},
		{"cap too high", func(r *CreateSlotRequest) { r.MaxMatchesPerWeek = 8 }},
		{"bad weekday", func(r *CreateSlotRequest) { r.DayOfWeek = "FUNDAY" }},
		{"missing team", func(r *CreateSlotRequest) { r.TeamID = uuid.Nil }},
		{"window past midnight", func(r *CreateSlotRequest) { r.EndTime = 25 * 60 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreateReq(teamID)
			tt.mutate(&req)
			_, err := app.CreateSlot(context.Background(), req)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateSlotRejectsDuplicate(t *testing.T) {
	app := NewApp(newFakeSlotRepo())
	teamID := uuid.New()

	req := validCreateReq(teamID)
	if _, err := app.CreateSlot(context.Background(), req); err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	dup := validCreateReq(teamID)
	_, err := app.CreateSlot(context.Background(), dup)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}

	// Same window on a different day is fine.
	other := validCreateReq(teamID)
	other.DayOfWeek = models.WeekdayWednesday
	if _, err := app.CreateSlot(context.Background(), other); err != nil {
		t.Errorf("different day should be allowed, got %v", err)
	}
}

func TestWeeklyHeadroom(t *testing.T) {
	repo := newFakeSlotRepo()
	app := NewApp(repo)
	teamID := uuid.New()
	weekStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)

	repo.inFlight[teamID] = 1
	headroom, err := app.WeeklyHeadroom(context.Background(), teamID, 2, weekStart, weekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if headroom != 1 {
		t.Errorf("expected headroom 1, got %d", headroom)
	}

	// At or over cap clamps to zero.
	repo.inFlight[teamID] = 3
	headroom, err = app.WeeklyHeadroom(context.Background(), teamID, 2, weekStart, weekEnd)
	if err != nil {
		t.Fatal(err)
	}
	if headroom != 0 {
		t.Errorf("expected headroom 0, got %d", headroom)
	}
}
