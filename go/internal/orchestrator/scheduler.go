package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pitchside/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProposalSweeper expires stale proposals and exposes the next deadline.
type ProposalSweeper interface {
	SweepExpired(ctx context.Context) (int, error)
	NextExpiry(ctx context.Context) (*time.Time, error)
}

// ProposalGenerator runs candidate generation and scoring for one vendor.
type ProposalGenerator interface {
	GenerateProposals(ctx context.Context, vendorID uuid.UUID, windowStart, windowEnd time.Time) ([]models.MatchProposal, error)
}

// VendorSource lists the vendors to generate for.
type VendorSource interface {
	ListVendorIDs(ctx context.Context) ([]uuid.UUID, error)
}

type Config struct {
	// GenerateInterval is how often the generation pass runs. Zero disables
	// scheduled generation; it can still be triggered through the gateway.
	GenerateInterval time.Duration
	// WindowAhead is how far into the future generated candidates may fall.
	WindowAhead time.Duration
	// SweepFallback caps how long the sweep loop sleeps when no proposal is
	// pending, so a missed wake cannot stall expiration forever.
	SweepFallback time.Duration
}

func DefaultConfig() Config {
	return Config{
		GenerateInterval: 24 * time.Hour,
		WindowAhead:      14 * 24 * time.Hour,
		SweepFallback:    time.Hour,
	}
}

// Scheduler drives the two background jobs of the engine: the expiration
// sweep, timed to the earliest pending deadline, and the periodic generation
// pass across all vendors.
type Scheduler struct {
	cfg       Config
	sweeper   ProposalSweeper
	generator ProposalGenerator
	vendors   VendorSource
	clock     clockwork.Clock

	wakeCh chan struct{}
	wg     sync.WaitGroup
}

func NewScheduler(cfg Config, sweeper ProposalSweeper, generator ProposalGenerator, vendors VendorSource, clock clockwork.Clock) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		sweeper:   sweeper,
		generator: generator,
		vendors:   vendors,
		clock:     clock,
		wakeCh:    make(chan struct{}, 1),
	}
}

// Wake nudges the sweep loop to recompute its deadline, e.g. after new
// proposals were created. Never blocks.
func (s *Scheduler) Wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweeps(ctx)
	}()

	if s.cfg.GenerateInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runGeneration(ctx)
		}()
	}

	log.Info().
		Dur("generate_interval", s.cfg.GenerateInterval).
		Dur("sweep_fallback", s.cfg.SweepFallback).
		Msg("scheduler started")

	<-ctx.Done()
	s.wg.Wait()
	log.Info().Msg("scheduler stopped")
	return ctx.Err()
}

// runSweeps sleeps until the earliest pending deadline, sweeps, and repeats.
// A Wake or the fallback interval forces a recompute.
func (s *Scheduler) runSweeps(ctx context.Context) {
	for {
		sleep := s.cfg.SweepFallback
		next, err := s.sweeper.NextExpiry(ctx)
		if err != nil {
			log.Error().Err(err).Msg("failed to read next expiry")
		} else if next != nil {
			if until := next.Sub(s.clock.Now()); until < sleep {
				sleep = until
			}
		}
		if sleep < 0 {
			sleep = 0
		}

		timer := s.clock.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wakeCh:
			timer.Stop()
			continue
		case <-timer.Chan():
		}

		count, err := s.sweeper.SweepExpired(ctx)
		if err != nil {
			log.Error().Err(err).Msg("expiration sweep failed")
			continue
		}
		if count > 0 {
			log.Info().Int("count", count).Msg("expiration sweep transitioned proposals")
		}
	}
}

// runGeneration triggers a generation pass for every vendor on each tick.
func (s *Scheduler) runGeneration(ctx context.Context) {
	ticker := s.clock.NewTicker(s.cfg.GenerateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.generateAll(ctx)
		}
	}
}

func (s *Scheduler) generateAll(ctx context.Context) {
	vendorIDs, err := s.vendors.ListVendorIDs(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list vendors for generation")
		return
	}

	now := s.clock.Now()
	total := 0
	for _, vendorID := range vendorIDs {
		proposals, err := s.generator.GenerateProposals(ctx, vendorID, now, now.Add(s.cfg.WindowAhead))
		if err != nil {
			// One vendor's bad data must not abort the rest of the pass.
			log.Error().Err(err).
				Str("vendor_id", vendorID.String()).
				Msg("generation pass failed for vendor")
			continue
		}
		total += len(proposals)
	}

	if total > 0 {
		// New proposals mean a new earliest deadline.
		s.Wake()
	}
	log.Info().
		Int("vendors", len(vendorIDs)).
		Int("proposals", total).
		Msg("generation pass complete")
}
