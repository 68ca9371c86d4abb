package matchmaking

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/pitchside/go/internal/apperr"
	"github.com/mcdev12/pitchside/go/internal/models"
)

// FixtureCandidate is an ephemeral possible fixture considered during a
// generation run. It is never persisted; surviving candidates become
// MatchProposal rows.
type FixtureCandidate struct {
	HomeTeamID    uuid.UUID             `json:"home_team_id"`
	AwayTeamID    uuid.UUID             `json:"away_team_id"`
	VenueID       uuid.UUID             `json:"venue_id"`
	VendorID      uuid.UUID             `json:"vendor_id"`
	ScheduledTime time.Time             `json:"scheduled_time"`
	DurationMin   int                   `json:"duration_min"`
	Factors       models.ScoringFactors `json:"factors"`
	Score         float64               `json:"score"`
}

// Weights holds the per-factor weights of the composite score. Tunable via
// configuration, but a weight set must always sum to 1.0.
type Weights struct {
	TimeSlotCompatibility float64 `yaml:"time_slot_compatibility"`
	VenuePreference       float64 `yaml:"venue_preference"`
	TeamAvailability      float64 `yaml:"team_availability"`
	TravelDistance        float64 `yaml:"travel_distance"`
	VenueAvailability     float64 `yaml:"venue_availability"`
	SkillLevelMatch       float64 `yaml:"skill_level_match"`
}

// DefaultWeights returns the stock weight configuration.
func DefaultWeights() Weights {
	return Weights{
		TimeSlotCompatibility: 0.25,
		VenuePreference:       0.20,
		TeamAvailability:      0.25,
		TravelDistance:        0.15,
		VenueAvailability:     0.10,
		SkillLevelMatch:       0.05,
	}
}

const weightSumTolerance = 1e-9

// Validate rejects weight sets that are negative or do not sum to 1.0.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"time_slot_compatibility": w.TimeSlotCompatibility,
		"venue_preference":        w.VenuePreference,
		"team_availability":       w.TeamAvailability,
		"travel_distance":         w.TravelDistance,
		"venue_availability":      w.VenueAvailability,
		"skill_level_match":       w.SkillLevelMatch,
	} {
		if v < 0 {
			return apperr.Validationf(name, "weight must not be negative")
		}
	}
	sum := w.TimeSlotCompatibility + w.VenuePreference + w.TeamAvailability +
		w.TravelDistance + w.VenueAvailability + w.SkillLevelMatch
	if math.Abs(sum-1.0) > weightSumTolerance {
		return apperr.Validationf("weights", "must sum to 1.0, got %v", sum)
	}
	return nil
}

// Config holds engine tunables for a generation run.
type Config struct {
	Weights Weights `yaml:"weights"`
	// MinScore discards candidates below this composite score before
	// persistence.
	MinScore float64 `yaml:"min_score"`
	// TopNPerPair caps how many proposals per (team pair, week) window
	// survive, so captains are not flooded with overlapping offers.
	TopNPerPair int `yaml:"top_n_per_pair"`
	// MaxTravelKm is the distance at which the travel factor bottoms out.
	MaxTravelKm float64 `yaml:"max_travel_km"`
	// SkillPointsScale is the standings-points gap at which the skill factor
	// bottoms out.
	SkillPointsScale float64 `yaml:"skill_points_scale"`
	// Workers bounds the per-pair scoring fan-out.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the stock engine configuration.
func DefaultConfig() Config {
	return Config{
		Weights:          DefaultWeights(),
		MinScore:         0.5,
		TopNPerPair:      1,
		MaxTravelKm:      50,
		SkillPointsScale: 15,
		Workers:          8,
	}
}

// Validate checks the whole engine configuration.
func (c Config) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		return apperr.Validationf("min_score", "must be in [0, 1]")
	}
	if c.TopNPerPair < 1 {
		return apperr.Validationf("top_n_per_pair", "must be at least 1")
	}
	if c.MaxTravelKm <= 0 {
		return apperr.Validationf("max_travel_km", "must be positive")
	}
	if c.SkillPointsScale <= 0 {
		return apperr.Validationf("skill_points_scale", "must be positive")
	}
	if c.Workers < 1 {
		return apperr.Validationf("workers", "must be at least 1")
	}
	return nil
}
