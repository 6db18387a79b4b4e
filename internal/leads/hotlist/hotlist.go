// Package hotlist keeps a Redis sorted set of the leads sales should touch
// first: every tier A or B lead, ranked by overall score. It is derived
// state, rebuilt from the database at startup and kept current from score
// change events.
package hotlist

import (
	"context"
	"fmt"

	"funnel_crm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const key = "leads:hot"

// Entry is one ranked member of the hot list.
type Entry struct {
	LeadID  uuid.UUID
	Overall int
}

type HotList struct {
	rdb *redis.Client
	log *logger.Logger
}

func New(rdb *redis.Client, log *logger.Logger) *HotList {
	return &HotList{rdb: rdb, log: log}
}

// Update reflects a lead's latest score: hot tiers are upserted, everything
// else is evicted.
func (h *HotList) Update(ctx context.Context, leadID uuid.UUID, tier string, overall int) error {
	if tier == "A" || tier == "B" {
		err := h.rdb.ZAdd(ctx, key, redis.Z{
			Score:  float64(overall),
			Member: leadID.String(),
		}).Err()
		if err != nil {
			return fmt.Errorf("hotlist add: %w", err)
		}
		return nil
	}
	if err := h.rdb.ZRem(ctx, key, leadID.String()).Err(); err != nil {
		return fmt.Errorf("hotlist remove: %w", err)
	}
	return nil
}

// Remove evicts a lead regardless of tier, e.g. after disqualification.
func (h *HotList) Remove(ctx context.Context, leadID uuid.UUID) error {
	if err := h.rdb.ZRem(ctx, key, leadID.String()).Err(); err != nil {
		return fmt.Errorf("hotlist remove: %w", err)
	}
	return nil
}

// Top returns the hottest leads, best score first.
func (h *HotList) Top(ctx context.Context, limit int64) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	members, err := h.rdb.ZRevRangeWithScores(ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("hotlist top: %w", err)
	}

	entries := make([]Entry, 0, len(members))
	for _, member := range members {
		raw, ok := member.Member.(string)
		if !ok {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			h.log.Warn("hotlist member is not a lead id", "member", raw)
			continue
		}
		entries = append(entries, Entry{LeadID: id, Overall: int(member.Score)})
	}
	return entries, nil
}

// Rebuild replaces the whole set in one pipeline. Used at startup so the
// list survives Redis restarts without waiting for the next score changes.
func (h *HotList) Rebuild(ctx context.Context, entries []Entry) error {
	pipe := h.rdb.TxPipeline()
	pipe.Del(ctx, key)
	for _, entry := range entries {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.Overall),
			Member: entry.LeadID.String(),
		})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hotlist rebuild: %w", err)
	}
	h.log.Info("hotlist rebuilt", "size", len(entries))
	return nil
}
