package hotlist

import (
	"context"
	"testing"

	"funnel_crm_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func newTestHotList(t *testing.T) *HotList {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, logger.New("development"))
}

func TestUpdateKeepsOnlyHotTiers(t *testing.T) {
	hl := newTestHotList(t)
	ctx := context.Background()

	hotA := uuid.New()
	hotB := uuid.New()
	cold := uuid.New()

	if err := hl.Update(ctx, hotA, "A", 92); err != nil {
		t.Fatalf("update A: %v", err)
	}
	if err := hl.Update(ctx, hotB, "B", 74); err != nil {
		t.Fatalf("update B: %v", err)
	}
	if err := hl.Update(ctx, cold, "C", 55); err != nil {
		t.Fatalf("update C: %v", err)
	}

	top, err := hl.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("hot list size = %d, want 2", len(top))
	}
	if top[0].LeadID != hotA || top[0].Overall != 92 {
		t.Errorf("top[0] = %+v, want %s at 92", top[0], hotA)
	}
	if top[1].LeadID != hotB {
		t.Errorf("top[1] = %+v, want %s", top[1], hotB)
	}
}

func TestUpdateEvictsOnTierDrop(t *testing.T) {
	hl := newTestHotList(t)
	ctx := context.Background()
	lead := uuid.New()

	if err := hl.Update(ctx, lead, "A", 90); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if err := hl.Update(ctx, lead, "D", 30); err != nil {
		t.Fatalf("demote: %v", err)
	}

	top, err := hl.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 0 {
		t.Errorf("demoted lead still listed: %+v", top)
	}
}

func TestRebuildReplacesExistingSet(t *testing.T) {
	hl := newTestHotList(t)
	ctx := context.Background()

	stale := uuid.New()
	if err := hl.Update(ctx, stale, "A", 99); err != nil {
		t.Fatalf("seed: %v", err)
	}

	fresh := []Entry{
		{LeadID: uuid.New(), Overall: 88},
		{LeadID: uuid.New(), Overall: 71},
	}
	if err := hl.Rebuild(ctx, fresh); err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	top, err := hl.Top(ctx, 10)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("size after rebuild = %d, want 2", len(top))
	}
	for _, entry := range top {
		if entry.LeadID == stale {
			t.Error("stale member survived the rebuild")
		}
	}
	if top[0].Overall != 88 || top[1].Overall != 71 {
		t.Errorf("unexpected ordering: %+v", top)
	}
}
