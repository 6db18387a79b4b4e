package scoring

import (
	"context"
	"sync"
	"testing"
	"time"

	"funnel_crm_backend/internal/events"
	"funnel_crm_backend/internal/leads/repository"
	"funnel_crm_backend/platform/apperr"
	"funnel_crm_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeScoreStore struct {
	mu         sync.Mutex
	leads      map[uuid.UUID]repository.Lead
	activities map[uuid.UUID][]repository.Activity
	history    map[uuid.UUID][]repository.ScoreSnapshot
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{
		leads:      make(map[uuid.UUID]repository.Lead),
		activities: make(map[uuid.UUID][]repository.Activity),
		history:    make(map[uuid.UUID][]repository.ScoreSnapshot),
	}
}

func (f *fakeScoreStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeScoreStore) ListAll(_ context.Context) ([]repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeScoreStore) ListActivities(_ context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activities[leadID], nil
}

func (f *fakeScoreStore) UpdateScore(_ context.Context, leadID uuid.UUID, score repository.Score) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.ErrNotFound
	}
	now := time.Now()
	score.UpdatedAt = &now
	lead.Score = score
	f.leads[leadID] = lead
	f.history[leadID] = append(f.history[leadID], repository.ScoreSnapshot{
		ID:         uuid.New(),
		LeadID:     leadID,
		Fit:        score.Fit,
		Intent:     score.Intent,
		Behavior:   score.Behavior,
		Overall:    score.Overall,
		Tier:       score.Tier,
		Version:    score.Version,
		ComputedAt: now,
	})
	return nil
}

func (f *fakeScoreStore) ListScoreHistory(_ context.Context, leadID uuid.UUID) ([]repository.ScoreSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history[leadID], nil
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func newScoringService() (*Service, *fakeScoreStore, *recordingBus) {
	store := newFakeScoreStore()
	bus := &recordingBus{}
	svc := NewService(store, NewEngine(DefaultConfig()), bus, logger.New("development"))
	return svc, store, bus
}

func TestRecalculatePersistsScoreAndSnapshot(t *testing.T) {
	svc, store, bus := newScoringService()
	industry := "saas"
	size := 200
	title := "cto"
	lead := repository.Lead{
		ID:           uuid.New(),
		Name:         "Nienke Bosch",
		Company:      "Bosch Analytics",
		Industry:     &industry,
		CompanySize:  &size,
		JobTitle:     &title,
		LastActivity: time.Now().Add(-2 * time.Hour),
	}
	store.leads[lead.ID] = lead
	store.activities[lead.ID] = []repository.Activity{
		{LeadID: lead.ID, Type: "demo_request", OccurredAt: time.Now().Add(-3 * time.Hour)},
	}

	score, err := svc.Recalculate(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if score.Fit != 100 {
		t.Errorf("fit = %d, want 100 for an ideal profile", score.Fit)
	}
	if score.Trend != TrendStable {
		t.Errorf("first compute trend = %s, want stable", score.Trend)
	}

	persisted := store.leads[lead.ID].Score
	if persisted.Overall != score.Overall || persisted.Version != score.Version {
		t.Errorf("persisted score %+v does not match computed %+v", persisted, score)
	}
	if len(store.history[lead.ID]) != 1 {
		t.Fatalf("history entries = %d, want 1", len(store.history[lead.ID]))
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "leads.score.changed" {
		t.Errorf("expected a leads.score.changed event, got %v", bus.published)
	}
}

func TestRecalculateIsIdempotent(t *testing.T) {
	svc, store, _ := newScoringService()
	lead := repository.Lead{ID: uuid.New(), Name: "X", Company: "Y", LastActivity: time.Now()}
	store.leads[lead.ID] = lead
	ctx := context.Background()

	first, err := svc.Recalculate(ctx, lead.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := svc.Recalculate(ctx, lead.ID)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.Fit != second.Fit || first.Intent != second.Intent ||
		first.Behavior != second.Behavior || first.Overall != second.Overall {
		t.Errorf("recompute with unchanged inputs differs: %+v vs %+v", first, second)
	}
	if second.Trend != TrendStable {
		t.Errorf("unchanged overall should trend stable, got %s", second.Trend)
	}
	if len(store.history[lead.ID]) != 2 {
		t.Errorf("each recompute appends a snapshot, got %d", len(store.history[lead.ID]))
	}
}

func TestRecalculateTrendsUpAgainstPreviousScore(t *testing.T) {
	svc, store, _ := newScoringService()
	lead := repository.Lead{
		ID:           uuid.New(),
		Name:         "Z",
		Company:      "ZCo",
		LastActivity: time.Now(),
		Score:        repository.Score{Overall: 10, Tier: "D", Trend: "stable", Version: "2026-v1"},
	}
	store.leads[lead.ID] = lead
	store.activities[lead.ID] = []repository.Activity{
		{LeadID: lead.ID, Type: "demo_request", OccurredAt: time.Now()},
		{LeadID: lead.ID, Type: "pricing_visit", OccurredAt: time.Now()},
	}

	score, err := svc.Recalculate(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if score.Trend != TrendUp {
		t.Errorf("trend = %s, want up (previous overall 10)", score.Trend)
	}
}

func TestRecalculateAllCoversEveryLead(t *testing.T) {
	svc, store, _ := newScoringService()
	for i := 0; i < 5; i++ {
		lead := repository.Lead{ID: uuid.New(), Name: "N", Company: "C", LastActivity: time.Now()}
		store.leads[lead.ID] = lead
	}

	recomputed, err := svc.RecalculateAll(context.Background())
	if err != nil {
		t.Fatalf("RecalculateAll: %v", err)
	}
	if recomputed != 5 {
		t.Errorf("recomputed = %d, want 5", recomputed)
	}
	for id, lead := range store.leads {
		if lead.Score.Version == "" {
			t.Errorf("lead %s was not scored", id)
		}
	}
}

func TestRecalculateUnknownLead(t *testing.T) {
	svc, _, _ := newScoringService()

	_, err := svc.Recalculate(context.Background(), uuid.New())
	if apperr.GetCode(err) != "LEAD_NOT_FOUND" {
		t.Fatalf("expected LEAD_NOT_FOUND, got %v", err)
	}
}
