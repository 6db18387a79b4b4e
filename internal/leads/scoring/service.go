package scoring

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"funnel_crm_backend/internal/events"
	"funnel_crm_backend/internal/leads/repository"
	"funnel_crm_backend/platform/apperr"
	"funnel_crm_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence surface the scoring service needs. Implemented by
// repository.Repository; faked in tests.
type Store interface {
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ListAll(ctx context.Context) ([]repository.Lead, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
	UpdateScore(ctx context.Context, leadID uuid.UUID, score repository.Score) error
	ListScoreHistory(ctx context.Context, leadID uuid.UUID) ([]repository.ScoreSnapshot, error)
}

// Service recomputes and persists lead scores. The arithmetic lives in the
// pure Engine; this layer loads inputs, persists the result, and announces
// the change on the bus.
type Service struct {
	store  Store
	engine *Engine
	bus    events.Bus
	log    *logger.Logger
}

func NewService(store Store, engine *Engine, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, engine: engine, bus: bus, log: log}
}

// Recalculate recomputes the score for one lead from its stored profile and
// activity history. Recomputing with unchanged inputs persists an identical
// score; the trend compares against the previous persisted overall.
func (s *Service) Recalculate(ctx context.Context, leadID uuid.UUID) (Score, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Score{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return Score{}, err
	}

	activities, err := s.store.ListActivities(ctx, leadID)
	if err != nil {
		return Score{}, err
	}

	in := Input{
		Profile:      profileOf(lead),
		Activity:     toEvents(activities),
		LastActivity: lead.LastActivity,
		Now:          time.Now().UTC(),
	}
	// A lead that has never been scored has no trend reference.
	if lead.Score.Version != "" {
		previous := lead.Score.Overall
		in.PreviousOverall = &previous
	}

	score := s.engine.Compute(in)

	err = s.store.UpdateScore(ctx, leadID, repository.Score{
		Fit:      score.Fit,
		Intent:   score.Intent,
		Behavior: score.Behavior,
		Overall:  score.Overall,
		Tier:     string(score.Tier),
		Trend:    string(score.Trend),
		Version:  score.Version,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return Score{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return Score{}, err
	}

	s.bus.Publish(ctx, events.LeadScoreChanged{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    leadID,
		Overall:   score.Overall,
		Tier:      string(score.Tier),
		Trend:     string(score.Trend),
		Previous:  in.PreviousOverall,
	})

	s.log.Debug("lead score recalculated",
		"leadId", leadID, "overall", score.Overall, "tier", score.Tier, "trend", score.Trend)

	return score, nil
}

// RecalculateAll recomputes every lead's score with bounded parallelism.
// Run after changing the scoring model so stored scores catch up with the
// new weights. Individual failures are logged and skipped; the count of
// successful recomputes is returned.
func (s *Service) RecalculateAll(ctx context.Context) (int, error) {
	leads, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	var recomputed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, lead := range leads {
		leadID := lead.ID
		g.Go(func() error {
			if _, err := s.Recalculate(gctx, leadID); err != nil {
				if apperr.Is(err, apperr.KindNotFound) {
					return nil
				}
				s.log.Error("bulk score recompute failed for lead", "leadId", leadID, "error", err)
				return nil
			}
			recomputed.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(recomputed.Load()), err
	}

	s.log.Info("bulk score recompute finished", "leads", len(leads), "recomputed", recomputed.Load())
	return int(recomputed.Load()), nil
}

// History returns a lead's past score snapshots, newest first.
func (s *Service) History(ctx context.Context, leadID uuid.UUID) ([]repository.ScoreSnapshot, error) {
	if _, err := s.store.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return nil, err
	}
	return s.store.ListScoreHistory(ctx, leadID)
}

func profileOf(lead repository.Lead) Profile {
	profile := Profile{Interests: lead.Interests}
	if lead.Industry != nil {
		profile.Industry = *lead.Industry
	}
	if lead.CompanySize != nil {
		profile.CompanySize = *lead.CompanySize
	}
	if lead.JobTitle != nil {
		profile.JobTitle = *lead.JobTitle
	}
	return profile
}

func toEvents(activities []repository.Activity) []ActivityEvent {
	out := make([]ActivityEvent, 0, len(activities))
	for _, item := range activities {
		out = append(out, ActivityEvent{Type: item.Type, OccurredAt: item.OccurredAt})
	}
	return out
}
