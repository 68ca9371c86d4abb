package matchmaking

import (
	"github.com/mcdev12/pitchside/go/internal/geo"
	"github.com/mcdev12/pitchside/go/internal/models"
)

// neutralScore is the factor value used when the underlying signal is
// unavailable (no location data, no playing history). Incomplete profiles
// degrade to neutral instead of failing the run.
const neutralScore = 0.5

// ScoringInput carries everything the scorer needs for one candidate. All
// fields are plain values so scoring is deterministic and reproducible for
// identical inputs.
type ScoringInput struct {
	// Slot windows of the two teams, minutes since midnight.
	HomeStart, HomeEnd models.TimeOfDay
	AwayStart, AwayEnd models.TimeOfDay

	// Venue affinity ratings (1-5) from each team's relationship.
	HomeVenueRating float64
	AwayVenueRating float64

	// Weekly headroom: remaining matches under the cap for the target week.
	HomeHeadroom, HomeCap int
	AwayHeadroom, AwayCap int

	// Team home areas and the venue location; nil when unknown.
	HomeLocation  *geo.Point
	AwayLocation  *geo.Point
	VenueLocation *geo.Point

	// Contenders is how many candidates in this run compete for the same
	// venue/time window, including this one.
	Contenders int

	// Standings points for each team in the active season; nil when a team
	// has no history yet.
	HomePoints *int
	AwayPoints *int
}

// Scorer computes the weighted composite score for fixture candidates.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer from a validated config.
func NewScorer(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Score computes the factor vector and the weighted composite for one
// candidate. The result is always in [0, 1].
func (s *Scorer) Score(in ScoringInput) (models.ScoringFactors, float64) {
	f := models.ScoringFactors{
		TimeSlotCompatibility: timeSlotCompatibility(in),
		VenuePreference:       venuePreference(in),
		TeamAvailability:      teamAvailability(in),
		TravelDistance:        s.travelDistance(in),
		VenueAvailability:     venueAvailability(in),
		SkillLevelMatch:       s.skillLevelMatch(in),
	}

	w := s.cfg.Weights
	score := w.TimeSlotCompatibility*f.TimeSlotCompatibility +
		w.VenuePreference*f.VenuePreference +
		w.TeamAvailability*f.TeamAvailability +
		w.TravelDistance*f.TravelDistance +
		w.VenueAvailability*f.VenueAvailability +
		w.SkillLevelMatch*f.SkillLevelMatch

	return f, clamp01(score)
}

// timeSlotCompatibility scores the overlap between the two teams' windows:
// identical windows score 1.0, partial overlaps scale by the overlap
// fraction of the longer window.
func timeSlotCompatibility(in ScoringInput) float64 {
	overlapStart := maxTime(in.HomeStart, in.AwayStart)
	overlapEnd := minTime(in.HomeEnd, in.AwayEnd)
	if overlapEnd <= overlapStart {
		return 0
	}

	overlap := float64(overlapEnd - overlapStart)
	longer := float64(maxTime(in.HomeEnd-in.HomeStart, in.AwayEnd-in.AwayStart))
	if longer == 0 {
		return 0
	}
	return clamp01(overlap / longer)
}

// venuePreference averages both teams' venue ratings, normalized 1-5 -> 0-1
// by dividing by the rating ceiling.
func venuePreference(in ScoringInput) float64 {
	return clamp01((in.HomeVenueRating/5 + in.AwayVenueRating/5) / 2)
}

// teamAvailability is 1.0 when neither team is near its weekly cap and
// shrinks with remaining headroom.
func teamAvailability(in ScoringInput) float64 {
	return (headroomFraction(in.HomeHeadroom, in.HomeCap) + headroomFraction(in.AwayHeadroom, in.AwayCap)) / 2
}

func headroomFraction(headroom, cap int) float64 {
	if cap <= 0 || headroom <= 0 {
		return 0
	}
	if headroom > cap {
		headroom = cap
	}
	return float64(headroom) / float64(cap)
}

// travelDistance inverse-normalizes the average distance from the team home
// areas to the venue. Missing locations score the neutral default.
func (s *Scorer) travelDistance(in ScoringInput) float64 {
	if in.VenueLocation == nil {
		return neutralScore
	}

	var sum float64
	var n int
	if in.HomeLocation != nil {
		sum += distanceScore(geo.DistanceKm(*in.HomeLocation, *in.VenueLocation), s.cfg.MaxTravelKm)
		n++
	}
	if in.AwayLocation != nil {
		sum += distanceScore(geo.DistanceKm(*in.AwayLocation, *in.VenueLocation), s.cfg.MaxTravelKm)
		n++
	}
	if n == 0 {
		return neutralScore
	}
	return sum / float64(n)
}

func distanceScore(distKm, maxKm float64) float64 {
	if distKm >= maxKm {
		return 0
	}
	return 1 - distKm/maxKm
}

// venueAvailability is 1.0 for an uncontended free slot and is penalized
// when multiple candidates in the run compete for the same window.
func venueAvailability(in ScoringInput) float64 {
	if in.Contenders <= 1 {
		return 1
	}
	return 1 / float64(in.Contenders)
}

// skillLevelMatch scores how close the two teams are in the season table;
// near-equal strength scores higher to avoid lopsided fixtures. Teams with no
// history score the neutral default.
func (s *Scorer) skillLevelMatch(in ScoringInput) float64 {
	if in.HomePoints == nil || in.AwayPoints == nil {
		return neutralScore
	}
	gap := float64(*in.HomePoints - *in.AwayPoints)
	if gap < 0 {
		gap = -gap
	}
	if gap >= s.cfg.SkillPointsScale {
		return 0
	}
	return 1 - gap/s.cfg.SkillPointsScale
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func minTime(a, b models.TimeOfDay) models.TimeOfDay {
	if a < b {
		return a
	}
	return b
}

func maxTime(a, b models.TimeOfDay) models.TimeOfDay {
	if a > b {
		return a
	}
	return b
}
