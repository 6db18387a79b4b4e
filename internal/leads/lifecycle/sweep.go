package lifecycle

import (
	"context"
	"errors"
	"time"

	"funnel_crm_backend/internal/events"
	"funnel_crm_backend/internal/leads/domain"
	"funnel_crm_backend/internal/leads/repository"
)

const sweepReason = "auto_cold_sweep"

// SweepIdleMOFU demotes MOFU leads with no activity since the cutoff into
// the cold bucket, one audited move per lead. Leads that move concurrently
// during the sweep are skipped, not failed.
func (s *Service) SweepIdleMOFU(ctx context.Context, idleBefore time.Time) (int, error) {
	idle, err := s.store.ListIdleInStage(ctx, domain.StageMOFU, idleBefore)
	if err != nil {
		return 0, err
	}

	moved := 0
	for _, lead := range idle {
		_, err := s.store.Move(ctx, repository.MoveLeadParams{
			LeadID:    lead.ID,
			FromStage: domain.StageMOFU,
			ToStage:   domain.StageColdBucket,
			ToStatus:  domain.DefaultStatus(domain.StageColdBucket),
			Reason:    sweepReason,
			Extra:     map[string]interface{}{"idleSince": lead.LastActivity.Format(time.RFC3339)},
		})
		if err != nil {
			if errors.Is(err, repository.ErrStageMismatch) || errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return moved, err
		}
		moved++

		s.bus.Publish(ctx, events.LeadMoved{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			FromStage: string(domain.StageMOFU),
			ToStage:   string(domain.StageColdBucket),
			Status:    string(domain.DefaultStatus(domain.StageColdBucket)),
			Reason:    sweepReason,
			MovedAt:   time.Now().UTC(),
		})
	}

	if moved > 0 {
		s.log.Info("cold sweep moved idle leads", "count", moved, "cutoff", idleBefore)
	}
	return moved, nil
}
