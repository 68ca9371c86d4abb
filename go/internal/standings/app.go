package standings

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/mcdev12/pitchside/go/internal/teams"
	"github.com/rs/zerolog/log"
)

// Match points awarded per result.
const (
	pointsWin  = 3
	pointsDraw = 1
	pointsLoss = 0
)

// DefaultFormLength is how many results a team's rolling form retains.
const DefaultFormLength = 5

// StandingsRepository defines what the app layer needs from the repository
type StandingsRepository interface {
	SavePerformance(ctx context.Context, perf models.MatchPerformance) error
	GetStanding(ctx context.Context, teamID uuid.UUID, sportID, season string) (*models.TeamStanding, error)
	UpsertStanding(ctx context.Context, st models.TeamStanding) (*models.TeamStanding, error)
	ListStandings(ctx context.Context, sportID, season string) ([]models.TeamStanding, error)
	UpdatePositions(ctx context.Context, ranked []models.TeamStanding) error
	ListPerformancesByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]models.MatchPerformance, error)
}

// FixtureSource reads and settles confirmed fixtures.
type FixtureSource interface {
	GetFixture(ctx context.Context, id uuid.UUID) (*models.Fixture, error)
	MarkFixturePlayed(ctx context.Context, id uuid.UUID) (*models.Fixture, error)
}

// TeamSource resolves a team's sport for standings keying.
type TeamSource interface {
	GetTeam(ctx context.Context, id uuid.UUID) (*models.Team, error)
}

// VenueFeedback folds a played fixture into venue affinity.
type VenueFeedback interface {
	RecordOutcome(ctx context.Context, req teams.RecordOutcomeRequest) (*models.TeamVenueRelationship, error)
}

// App closes the feedback loop: confirmed results become performance records,
// refreshed standings and venue-affinity updates that feed the next scoring
// run.
type App struct {
	repo       StandingsRepository
	fixtures   FixtureSource
	teams      TeamSource
	venues     VenueFeedback
	cache      PointsCache
	clock      clockwork.Clock
	formLength int
}

// NewApp creates a new standings App. cache may be nil to disable the points
// cache.
func NewApp(repo StandingsRepository, fixtures FixtureSource, teamSrc TeamSource, venues VenueFeedback, cache PointsCache, clock clockwork.Clock, formLength int) (*App, error) {
	if formLength < 1 {
		return nil, apperr.Validationf("form_length", "must be at least 1")
	}
	return &App{
		repo:       repo,
		fixtures:   fixtures,
		teams:      teamSrc,
		venues:     venues,
		cache:      cache,
		clock:      clock,
		formLength: formLength,
	}, nil
}

// RecordResult settles a played fixture: one performance record per team,
// incremental standings updates, a full table re-rank and venue-affinity
// feedback. Returns the home and away standings in that order.
func (a *App) RecordResult(ctx context.Context, req RecordResultRequest) ([]models.TeamStanding, error) {
	if req.HomeGoals < 0 || req.AwayGoals < 0 {
		return nil, apperr.Validationf("goals", "must be non-negative")
	}
	if req.Season == "" {
		return nil, apperr.Validationf("season", "is required")
	}

	fixture, err := a.fixtures.GetFixture(ctx, req.FixtureID)
	if err != nil {
		return nil, err
	}
	if fixture.Status != models.FixtureStatusConfirmed {
		return nil, apperr.Validationf("fixture", "result already recorded or fixture cancelled")
	}
	if a.clock.Now().Before(fixture.ScheduledTime) {
		return nil, apperr.Validationf("fixture", "cannot record a result before the scheduled time")
	}

	homeTeam, err := a.teams.GetTeam(ctx, fixture.HomeTeamID)
	if err != nil {
		return nil, err
	}

	homeResult, awayResult := resultsFor(req.HomeGoals, req.AwayGoals)

	sides := []struct {
		teamID     uuid.UUID
		opponentID uuid.UUID
		result     models.MatchResult
		goalsFor   int
		goalsAgnst int
		ratings    map[string]float64
		venueStars *float64
	}{
		{fixture.HomeTeamID, fixture.AwayTeamID, homeResult, req.HomeGoals, req.AwayGoals, req.HomePlayerRatings, req.HomeVenueRating},
		{fixture.AwayTeamID, fixture.HomeTeamID, awayResult, req.AwayGoals, req.HomeGoals, req.AwayPlayerRatings, req.AwayVenueRating},
	}

	updated := make([]models.TeamStanding, 0, 2)
	for _, side := range sides {
		perf := models.MatchPerformance{
			ID:            uuid.New(),
			FixtureID:     fixture.ID,
			TeamID:        side.teamID,
			OpponentID:    side.opponentID,
			Result:        side.result,
			GoalsFor:      side.goalsFor,
			GoalsAgainst:  side.goalsAgnst,
			PlayerRatings: side.ratings,
		}
		if err := a.repo.SavePerformance(ctx, perf); err != nil {
			return nil, err
		}

		standing, err := a.applyPerformance(ctx, perf, homeTeam.SportID, req.Season)
		if err != nil {
			return nil, err
		}
		updated = append(updated, *standing)

		if _, err := a.venues.RecordOutcome(ctx, teams.RecordOutcomeRequest{
			TeamID:      side.teamID,
			VenueID:     fixture.VenueID,
			VenueRating: side.venueStars,
		}); err != nil {
			// Missing venue affinity must not lose the result itself.
			log.Warn().Err(err).
				Str("team_id", side.teamID.String()).
				Str("venue_id", fixture.VenueID.String()).
				Msg("failed to update venue affinity")
		}
	}

	if err := a.rerank(ctx, homeTeam.SportID, req.Season); err != nil {
		return nil, err
	}

	if _, err := a.fixtures.MarkFixturePlayed(ctx, fixture.ID); err != nil {
		return nil, err
	}

	if a.cache != nil {
		keys := []string{
			pointsKey(fixture.HomeTeamID, homeTeam.SportID, req.Season),
			pointsKey(fixture.AwayTeamID, homeTeam.SportID, req.Season),
		}
		if err := a.cache.Invalidate(ctx, keys...); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate points cache")
		}
	}

	log.Info().
		Str("fixture_id", fixture.ID.String()).
		Int("home_goals", req.HomeGoals).
		Int("away_goals", req.AwayGoals).
		Msg("recorded match result")
	return updated, nil
}

// GetStanding retrieves a team's standing for a sport and season
func (a *App) GetStanding(ctx context.Context, teamID uuid.UUID, sportID, season string) (*models.TeamStanding, error) {
	return a.repo.GetStanding(ctx, teamID, sportID, season)
}

// ListStandings retrieves the season table for a sport
func (a *App) ListStandings(ctx context.Context, sportID, season string) ([]models.TeamStanding, error) {
	return a.repo.ListStandings(ctx, sportID, season)
}

// ListPerformancesByTeam retrieves a team's recent match history
func (a *App) ListPerformancesByTeam(ctx context.Context, teamID uuid.UUID, limit int) ([]models.MatchPerformance, error) {
	return a.repo.ListPerformancesByTeam(ctx, teamID, limit)
}

// PointsFor returns a team's season points, or nil when the team has no
// standing yet. Served from the cache when possible.
func (a *App) PointsFor(ctx context.Context, teamID uuid.UUID, sportID, season string) (*int, error) {
	key := pointsKey(teamID, sportID, season)
	if a.cache != nil {
		points, hit, err := a.cache.GetPoints(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("points cache read failed, falling back to store")
		} else if hit {
			return &points, nil
		}
	}

	standing, err := a.repo.GetStanding(ctx, teamID, sportID, season)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.SetPoints(ctx, key, standing.Points); err != nil {
			log.Warn().Err(err).Msg("points cache write failed")
		}
	}
	points := standing.Points
	return &points, nil
}

// applyPerformance folds one performance into the team's standing, creating
// the standing on the team's first result.
func (a *App) applyPerformance(ctx context.Context, perf models.MatchPerformance, sportID, season string) (*models.TeamStanding, error) {
	standing, err := a.repo.GetStanding(ctx, perf.TeamID, sportID, season)
	if errors.Is(err, apperr.ErrNotFound) {
		standing = &models.TeamStanding{
			ID:      uuid.New(),
			TeamID:  perf.TeamID,
			SportID: sportID,
			Season:  season,
		}
	} else if err != nil {
		return nil, err
	}

	standing.MatchesPlayed++
	switch perf.Result {
	case models.MatchResultWin:
		standing.Wins++
		standing.Points += pointsWin
	case models.MatchResultDraw:
		standing.Draws++
		standing.Points += pointsDraw
	default:
		standing.Losses++
		standing.Points += pointsLoss
	}
	standing.GoalsFor += perf.GoalsFor
	standing.GoalsAgainst += perf.GoalsAgainst
	standing.GoalDifference = standing.GoalsFor - standing.GoalsAgainst
	standing.Form = pushForm(standing.Form, perf.Result, a.formLength)

	return a.repo.UpsertStanding(ctx, *standing)
}

// rerank recomputes table positions across the whole sport/season snapshot.
func (a *App) rerank(ctx context.Context, sportID, season string) error {
	snapshot, err := a.repo.ListStandings(ctx, sportID, season)
	if err != nil {
		return err
	}
	return a.repo.UpdatePositions(ctx, Rank(snapshot))
}

// Rank orders a season snapshot by (points desc, goal difference desc, goals
// for desc) and assigns 1-based positions. Pure so ranking is deterministic
// and testable in isolation.
func Rank(snapshot []models.TeamStanding) []models.TeamStanding {
	ranked := make([]models.TeamStanding, len(snapshot))
	copy(ranked, snapshot)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Points != ranked[j].Points {
			return ranked[i].Points > ranked[j].Points
		}
		if ranked[i].GoalDifference != ranked[j].GoalDifference {
			return ranked[i].GoalDifference > ranked[j].GoalDifference
		}
		return ranked[i].GoalsFor > ranked[j].GoalsFor
	})
	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

func resultsFor(homeGoals, awayGoals int) (models.MatchResult, models.MatchResult) {
	switch {
	case homeGoals > awayGoals:
		return models.MatchResultWin, models.MatchResultLoss
	case homeGoals < awayGoals:
		return models.MatchResultLoss, models.MatchResultWin
	default:
		return models.MatchResultDraw, models.MatchResultDraw
	}
}

// pushForm prepends the newest result code and truncates to length.
func pushForm(form string, result models.MatchResult, length int) string {
	form = result.FormCode() + form
	if len(form) > length {
		form = form[:length]
	}
	return form
}
