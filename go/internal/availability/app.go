package availability

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// AvailabilityRepository defines what the app layer needs from the repository
type AvailabilityRepository interface {
	CreateSlot(ctx context.Context, req CreateSlotRequest) (*models.AvailabilitySlot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error)
	ListSlotsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AvailabilitySlot, error)
	ListVenueSlotsForVendor(ctx context.Context, vendorID uuid.UUID) ([]VenueSlot, error)
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	CountMatchesInWeek(ctx context.Context, teamID uuid.UUID, weekStart, weekEnd time.Time) (int, error)
}

// App handles availability slot business logic
type App struct {
	repo AvailabilityRepository
}

// NewApp creates a new availability App
func NewApp(repo AvailabilityRepository) *App {
	return &App{repo: repo}
}

// CreateSlot creates a new availability slot with validation
func (a *App) CreateSlot(ctx context.Context, req CreateSlotRequest) (*models.AvailabilitySlot, error) {
	if err := validateSlot(req); err != nil {
		return nil, err
	}

	// Pre-check duplicates for a friendlier error; the unique constraint on
	// (team_id, day_of_week, start_time, end_time) still backstops races.
	existing, err := a.repo.ListSlotsByTeam(ctx, req.TeamID)
	if err != nil {
		return nil, err
	}
	for _, s := range existing {
		if s.DayOfWeek == req.DayOfWeek && s.StartTime == req.StartTime && s.EndTime == req.EndTime {
			return nil, apperr.Validationf("slot", "duplicate slot for (day, start, end)")
		}
	}

	slot, err := a.repo.CreateSlot(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("slot_id", slot.ID.String()).
		Str("team_id", slot.TeamID.String()).
		Str("day", string(slot.DayOfWeek)).
		Msg("created availability slot")
	return slot, nil
}

// GetSlot retrieves a slot by ID
func (a *App) GetSlot(ctx context.Context, id uuid.UUID) (*models.AvailabilitySlot, error) {
	return a.repo.GetSlot(ctx, id)
}

// ListSlotsByTeam retrieves all slots for a team
func (a *App) ListSlotsByTeam(ctx context.Context, teamID uuid.UUID) ([]models.AvailabilitySlot, error) {
	return a.repo.ListSlotsByTeam(ctx, teamID)
}

// ListVenueSlotsForVendor retrieves the candidate generation feed for a vendor
func (a *App) ListVenueSlotsForVendor(ctx context.Context, vendorID uuid.UUID) ([]VenueSlot, error) {
	return a.repo.ListVenueSlotsForVendor(ctx, vendorID)
}

// DeleteSlot deletes a slot, e.g. when a team disbands or changes preferences
func (a *App) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	if err := a.repo.DeleteSlot(ctx, id); err != nil {
		return err
	}
	log.Info().Str("slot_id", id.String()).Msg("deleted availability slot")
	return nil
}

// WeeklyHeadroom returns how many more matches a team can take on in the week
// containing the slot's cap, given proposals and fixtures already in flight.
func (a *App) WeeklyHeadroom(ctx context.Context, teamID uuid.UUID, cap int, weekStart, weekEnd time.Time) (int, error) {
	inFlight, err := a.repo.CountMatchesInWeek(ctx, teamID, weekStart, weekEnd)
	if err != nil {
		return 0, err
	}
	headroom := cap - inFlight
	if headroom < 0 {
		headroom = 0
	}
	return headroom, nil
}

// ExceedsWeeklyCap reports whether the team's in-flight matches for the week
// containing at have gone past its cap. Called at acceptance time, when the
// proposal under consideration is itself among the counted in-flight matches,
// so a team exactly at its cap is still within it.
func (a *App) ExceedsWeeklyCap(ctx context.Context, teamID uuid.UUID, at time.Time) (bool, error) {
	slots, err := a.repo.ListSlotsByTeam(ctx, teamID)
	if err != nil {
		return false, err
	}
	if len(slots) == 0 {
		// The team withdrew all availability since generation; the captains
		// still chose to accept, so the cap no longer binds.
		return false, nil
	}

	day := models.WeekdayOf(at)
	cap := 0
	for _, s := range slots {
		if s.DayOfWeek == day && s.MaxMatchesPerWeek > cap {
			cap = s.MaxMatchesPerWeek
		}
	}
	if cap == 0 {
		for _, s := range slots {
			if s.MaxMatchesPerWeek > cap {
				cap = s.MaxMatchesPerWeek
			}
		}
	}

	weekStart := startOfWeek(at)
	inFlight, err := a.repo.CountMatchesInWeek(ctx, teamID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return false, err
	}
	return inFlight > cap, nil
}

// startOfWeek returns the Monday 00:00 opening the week containing t.
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

func validateSlot(req CreateSlotRequest) error {
	if req.TeamID == uuid.Nil {
		return apperr.Validationf("team_id", "is required")
	}
	if req.RelationshipID == uuid.Nil {
		return apperr.Validationf("relationship_id", "is required")
	}
	if !validWeekday(req.DayOfWeek) {
		return apperr.Validationf("day_of_week", "invalid weekday: %s", req.DayOfWeek)
	}
	if req.EndTime <= req.StartTime {
		return apperr.Validationf("end_time", "must be after start_time")
	}
	if req.StartTime < 0 || req.EndTime > 24*60 {
		return apperr.Validationf("start_time", "window must fall within a single day")
	}
	if req.MaxMatchesPerWeek < 1 || req.MaxMatchesPerWeek > 7 {
		return apperr.Validationf("max_matches_per_week", "must be between 1 and 7")
	}
	return nil
}

func validWeekday(d models.Weekday) bool {
	switch d {
	case models.WeekdayMonday, models.WeekdayTuesday, models.WeekdayWednesday,
		models.WeekdayThursday, models.WeekdayFriday, models.WeekdaySaturday, models.WeekdaySunday:
		return true
	default:
		return false
	}
}
