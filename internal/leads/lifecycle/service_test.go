package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"funnel_crm_backend/internal/events"
	"funnel_crm_backend/internal/leads/domain"
	"funnel_crm_backend/internal/leads/repository"
	"funnel_crm_backend/internal/leads/scoring"
	"funnel_crm_backend/internal/leads/transport"
	"funnel_crm_backend/platform/apperr"
	"funnel_crm_backend/platform/logger"
	"funnel_crm_backend/platform/validator"

	"github.com/google/uuid"
)

type fakeStore struct {
	leads      map[uuid.UUID]repository.Lead
	movements  []repository.MovementRecord
	activities []repository.Activity
	notes      []repository.Note
}

func newFakeStore() *fakeStore {
	return &fakeStore{leads: make(map[uuid.UUID]repository.Lead)}
}

func (f *fakeStore) Create(_ context.Context, params repository.CreateLeadParams) (repository.Lead, error) {
	lead := repository.Lead{
		ID:             uuid.New(),
		Name:           params.Name,
		Company:        params.Company,
		Email:          params.Email,
		Phone:          params.Phone,
		SecondaryEmail: params.SecondaryEmail,
		SecondaryPhone: params.SecondaryPhone,
		Website:        params.Website,
		Industry:       params.Industry,
		CompanySize:    params.CompanySize,
		JobTitle:       params.JobTitle,
		Interests:      params.Interests,
		Source:         params.Source,
		Stage:          params.Stage,
		Status:         params.Status,
		DealValue:      params.DealValue,
		Tags:           params.Tags,
		Notes:          params.Notes,
		Score:          params.Score,
		CreatedAt:      time.Now(),
		LastActivity:   time.Now(),
	}
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeStore) ListByStage(_ context.Context, stage domain.Stage) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.Stage == stage {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeStore) ListAll(_ context.Context) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		out = append(out, lead)
	}
	return out, nil
}

func (f *fakeStore) ListIdleInStage(_ context.Context, stage domain.Stage, idleBefore time.Time) ([]repository.Lead, error) {
	out := make([]repository.Lead, 0)
	for _, lead := range f.leads {
		if lead.Stage == stage && lead.LastActivity.Before(idleBefore) {
			out = append(out, lead)
		}
	}
	return out, nil
}

func (f *fakeStore) ExistsContactInStage(_ context.Context, stage domain.Stage, email string) (bool, error) {
	for _, lead := range f.leads {
		if lead.Stage == stage && lead.Email != nil && *lead.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) Move(_ context.Context, params repository.MoveLeadParams) (repository.Lead, error) {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if lead.Stage != params.FromStage {
		return repository.Lead{}, repository.ErrStageMismatch
	}
	lead.Stage = params.ToStage
	lead.Status = params.ToStatus
	lead.LastActivity = time.Now()
	f.leads[lead.ID] = lead
	f.movements = append(f.movements, repository.MovementRecord{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		FromStage: params.FromStage,
		ToStage:   params.ToStage,
		Reason:    params.Reason,
		MovedAt:   lead.LastActivity,
	})
	return lead, nil
}

func (f *fakeStore) CloseDeal(_ context.Context, params repository.CloseDealParams) (repository.Lead, error) {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if lead.Stage != domain.StageBOFU {
		return repository.Lead{}, repository.ErrStageMismatch
	}
	lead.Status = params.Status
	lead.Close = &repository.DealCloseRecord{
		Outcome:        params.Outcome,
		FinalValue:     params.FinalValue,
		CloseDate:      params.CloseDate,
		WinReason:      params.WinReason,
		PaymentTerms:   params.PaymentTerms,
		ContractLength: params.ContractLength,
		LossReason:     params.LossReason,
		RenewalDate:    params.RenewalDate,
	}
	lead.LastActivity = time.Now()
	f.leads[lead.ID] = lead
	f.movements = append(f.movements, repository.MovementRecord{
		ID:        uuid.New(),
		LeadID:    lead.ID,
		FromStage: domain.StageBOFU,
		ToStage:   domain.StageBOFU,
		Reason:    params.Reason,
		MovedAt:   lead.LastActivity,
	})
	return lead, nil
}

func (f *fakeStore) RecordActivity(_ context.Context, params repository.RecordActivityParams) (repository.Lead, error) {
	lead, ok := f.leads[params.LeadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	if params.NewStatus != nil {
		lead.Status = *params.NewStatus
	}
	lead.LastActivity = time.Now()
	f.leads[lead.ID] = lead
	f.activities = append(f.activities, repository.Activity{
		ID:         uuid.New(),
		LeadID:     lead.ID,
		Type:       params.Type,
		OccurredAt: lead.LastActivity,
	})
	return lead, nil
}

func (f *fakeStore) UpdateTags(_ context.Context, leadID uuid.UUID, tags []string) (repository.Lead, error) {
	lead, ok := f.leads[leadID]
	if !ok {
		return repository.Lead{}, repository.ErrNotFound
	}
	lead.Tags = tags
	f.leads[leadID] = lead
	return lead, nil
}

func (f *fakeStore) ListMovements(_ context.Context, leadID uuid.UUID) ([]repository.MovementRecord, error) {
	out := make([]repository.MovementRecord, 0)
	for _, rec := range f.movements {
		if rec.LeadID == leadID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeStore) ListActivities(_ context.Context, leadID uuid.UUID) ([]repository.Activity, error) {
	out := make([]repository.Activity, 0)
	for _, item := range f.activities {
		if item.LeadID == leadID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeStore) AddNote(_ context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (repository.Note, error) {
	if _, ok := f.leads[leadID]; !ok {
		return repository.Note{}, repository.ErrNotFound
	}
	note := repository.Note{ID: uuid.New(), LeadID: leadID, AuthorID: authorID, Body: body, CreatedAt: time.Now()}
	f.notes = append(f.notes, note)
	return note, nil
}

func (f *fakeStore) ListNotes(_ context.Context, leadID uuid.UUID) ([]repository.Note, error) {
	out := make([]repository.Note, 0)
	for _, note := range f.notes {
		if note.LeadID == leadID {
			out = append(out, note)
		}
	}
	return out, nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *captureBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *captureBus) Subscribe(string, events.Handler) {}

func (b *captureBus) names() []string {
	out := make([]string, 0, len(b.published))
	for _, event := range b.published {
		out = append(out, event.EventName())
	}
	return out
}

func newTestService() (*Service, *fakeStore, *captureBus) {
	store := newFakeStore()
	bus := &captureBus{}
	engine := scoring.NewEngine(scoring.DefaultConfig())
	svc := New(store, bus, validator.New(), engine, logger.New("development"))
	return svc, store, bus
}

func seedLead(store *fakeStore, stage domain.Stage, status domain.Status) repository.Lead {
	email := string(stage) + "-lead@example.com"
	lead := repository.Lead{
		ID:           uuid.New(),
		Name:         "Dana Seed",
		Company:      "Seedling BV",
		Email:        &email,
		Stage:        stage,
		Status:       status,
		Tags:         []string{},
		CreatedAt:    time.Now().Add(-48 * time.Hour),
		LastActivity: time.Now().Add(-48 * time.Hour),
	}
	store.leads[lead.ID] = lead
	return lead
}

func assertAppErr(t *testing.T, err error, kind apperr.Kind, code string) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperr.Error, got %T: %v", err, err)
	}
	if appErr.Kind != kind {
		t.Errorf("kind = %v, want %v", appErr.Kind, kind)
	}
	if appErr.Code != code {
		t.Errorf("code = %q, want %q", appErr.Code, code)
	}
	return appErr
}

func TestCreateStartsAtTopOfFunnel(t *testing.T) {
	svc, store, bus := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:    "Dana Velt",
		Company: "Veltworks",
		Email:   "dana@veltworks.example",
		Phone:   "+12025550147",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Stage != string(domain.StageTOFU) {
		t.Errorf("stage = %s, want %s", resp.Stage, domain.StageTOFU)
	}
	if resp.Status != string(domain.DefaultStatus(domain.StageTOFU)) {
		t.Errorf("status = %s, want default for TOFU", resp.Status)
	}
	if resp.Tags == nil {
		t.Error("tags should default to an empty list, not null")
	}
	if len(store.leads) != 1 {
		t.Fatalf("stored leads = %d, want 1", len(store.leads))
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.lead.created" {
		t.Errorf("published = %v, want [leads.lead.created]", got)
	}
}

func TestCreateCollectsEveryFieldViolation(t *testing.T) {
	svc, _, _ := newTestService()

	size := 0
	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Email:       "not-an-email",
		Phone:       "12",
		Website:     "not a url",
		CompanySize: &size,
		DealValue:   -5,
	})
	appErr := assertAppErr(t, err, apperr.KindValidation, "VALIDATION_FAILED")

	for _, field := range []string{"name", "company", "email", "phone", "website", "companySize", "dealValue"} {
		if _, ok := appErr.Fields[field]; !ok {
			t.Errorf("missing violation for field %q: %v", field, appErr.Fields)
		}
	}
}

func TestCreateRejectsDuplicateContactInStage(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first := transport.CreateLeadRequest{Name: "A", Company: "ACo", Email: "dup@example.com"}
	if _, err := svc.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "B", Company: "BCo", Email: "dup@example.com"})
	assertAppErr(t, err, apperr.KindConflict, "DUPLICATE_CONTACT")
}

func TestCreateAtRequestedStage(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Stage:   "MOFU",
		Name:    "Imported Lead",
		Company: "Migrations Inc",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Stage != string(domain.StageMOFU) {
		t.Errorf("stage = %s, want MOFU", resp.Stage)
	}
	if resp.Status != string(domain.DefaultStatus(domain.StageMOFU)) {
		t.Errorf("status = %s, want default for MOFU", resp.Status)
	}
}

func TestCreateRejectsUnknownStage(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Stage: "SOFU", Name: "N", Company: "C",
	})
	appErr := assertAppErr(t, err, apperr.KindValidation, "VALIDATION_FAILED")
	if _, ok := appErr.Fields["stage"]; !ok {
		t.Errorf("missing violation for field stage: %v", appErr.Fields)
	}
}

func TestCreateDuplicateCheckScopedToStage(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Name: "A", Company: "ACo", Email: "shared@example.com"}); err != nil {
		t.Fatalf("TOFU create: %v", err)
	}

	// Same contact in a different stage is a different collection.
	if _, err := svc.Create(ctx, transport.CreateLeadRequest{Stage: "MOFU", Name: "B", Company: "BCo", Email: "shared@example.com"}); err != nil {
		t.Fatalf("MOFU create with TOFU-only duplicate: %v", err)
	}

	_, err := svc.Create(ctx, transport.CreateLeadRequest{Stage: "MOFU", Name: "C", Company: "CCo", Email: "shared@example.com"})
	assertAppErr(t, err, apperr.KindConflict, "DUPLICATE_CONTACT")
}

func TestCreateComputesInitialScore(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name:     "Ada Quist",
		Company:  "Acme Cloud",
		Industry: "SaaS",
		JobTitle: "CTO",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	// Fit: base 50 + industry 20 + senior title 15. Overall: 0.35 * 85.
	if resp.Score.Fit != 85 {
		t.Errorf("fit = %d, want 85", resp.Score.Fit)
	}
	if resp.Score.Overall != 30 {
		t.Errorf("overall = %d, want 30", resp.Score.Overall)
	}
	if resp.Score.Trend != string(scoring.TrendStable) {
		t.Errorf("trend = %s, want stable", resp.Score.Trend)
	}
	if resp.Score.Version == "" {
		t.Error("initial score must carry the model version")
	}
	if resp.Score.UpdatedAt == nil {
		t.Error("initial score must carry an updatedAt")
	}
}

func TestMoveAdvancesStageAndRecordsMovement(t *testing.T) {
	svc, store, bus := newTestService()
	lead := seedLead(store, domain.StageTOFU, domain.StatusNew)

	resp, err := svc.Move(context.Background(), lead.ID, transport.MoveLeadRequest{
		FromStage: "TOFU", ToStage: "MOFU", Reason: "qualified by sdr",
	})
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if resp.Stage != "MOFU" {
		t.Errorf("stage = %s, want MOFU", resp.Stage)
	}
	if resp.Status != string(domain.DefaultStatus(domain.StageMOFU)) {
		t.Errorf("status = %s, want MOFU default", resp.Status)
	}
	if len(store.movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(store.movements))
	}
	rec := store.movements[0]
	if rec.FromStage != domain.StageTOFU || rec.ToStage != domain.StageMOFU || rec.Reason != "qualified by sdr" {
		t.Errorf("unexpected movement record: %+v", rec)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.lead.moved" {
		t.Errorf("published = %v, want [leads.lead.moved]", got)
	}
}

func TestMoveRejectsIllegalTransition(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageTOFU, domain.StatusNew)

	_, err := svc.Move(context.Background(), lead.ID, transport.MoveLeadRequest{
		FromStage: "TOFU", ToStage: "BOFU", Reason: "skipping the middle",
	})
	assertAppErr(t, err, apperr.KindUnprocessable, "INVALID_TRANSITION")

	if len(store.movements) != 0 {
		t.Errorf("rejected move must not leave a movement record, got %d", len(store.movements))
	}
}

func TestMoveDetectsConcurrentStageChange(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageMOFU, domain.StatusMQL)

	_, err := svc.Move(context.Background(), lead.ID, transport.MoveLeadRequest{
		FromStage: "TOFU", ToStage: "MOFU", Reason: "stale client state",
	})
	assertAppErr(t, err, apperr.KindConflict, "STAGE_MISMATCH")
}

func TestMoveUnknownLead(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Move(context.Background(), uuid.New(), transport.MoveLeadRequest{
		FromStage: "TOFU", ToStage: "MOFU", Reason: "x",
	})
	assertAppErr(t, err, apperr.KindNotFound, "LEAD_NOT_FOUND")
}

func TestMoveOutOfTerminalStage(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageInvalidLeads, domain.StatusDisqualified)

	_, err := svc.Move(context.Background(), lead.ID, transport.MoveLeadRequest{
		FromStage: "InvalidLeads", ToStage: "TOFU", Reason: "second chance",
	})
	assertAppErr(t, err, apperr.KindUnprocessable, "INVALID_TRANSITION")
}

func TestColdBucketReactivation(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageColdBucket, domain.StatusDormant)

	resp, err := svc.Move(context.Background(), lead.ID, transport.MoveLeadRequest{
		FromStage: "ColdBucket", ToStage: "TOFU", Reason: "replied to winback email",
	})
	if err != nil {
		t.Fatalf("reactivation should be allowed: %v", err)
	}
	if resp.Stage != "TOFU" || resp.Status != string(domain.StatusNew) {
		t.Errorf("got stage=%s status=%s, want TOFU/new", resp.Stage, resp.Status)
	}
}

func TestCloseDealWonComputesRenewal(t *testing.T) {
	svc, store, bus := newTestService()
	lead := seedLead(store, domain.StageBOFU, domain.StatusNegotiating)

	resp, err := svc.CloseDeal(context.Background(), lead.ID, transport.CloseDealRequest{
		Outcome:         "won",
		FinalValue:      24000,
		ActualCloseDate: "2026-03-15",
		WinReason:       "best integration story",
		PaymentTerms:    "net 30",
		ContractLength:  "18 months",
	}, false)
	if err != nil {
		t.Fatalf("CloseDeal: %v", err)
	}
	if resp.Status != string(domain.StatusWon) {
		t.Errorf("status = %s, want won", resp.Status)
	}
	if resp.Close == nil {
		t.Fatal("close block missing from response")
	}
	if resp.Close.RenewalDate == nil {
		t.Fatal("renewal date missing on won deal")
	}
	if got := resp.Close.RenewalDate.Format("2006-01-02"); got != "2027-09-15" {
		t.Errorf("renewalDate = %s, want 2027-09-15 (close + 18 months)", got)
	}
	if len(store.movements) != 1 || store.movements[0].Reason != "deal_won" {
		t.Errorf("expected one deal_won movement, got %+v", store.movements)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.deal.closed" {
		t.Errorf("published = %v, want [leads.deal.closed]", got)
	}
}

func TestCloseDealOutsideBOFU(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageMOFU, domain.StatusMQL)

	_, err := svc.CloseDeal(context.Background(), lead.ID, transport.CloseDealRequest{
		Outcome: "won", FinalValue: 100, ActualCloseDate: "2026-01-01",
		WinReason: "x", PaymentTerms: "net 30", ContractLength: "12 months",
	}, false)
	assertAppErr(t, err, apperr.KindConflict, "STAGE_MISMATCH")
}

func TestCloseDealTwiceNeedsAmend(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageBOFU, domain.StatusNegotiating)
	ctx := context.Background()

	req := transport.CloseDealRequest{
		Outcome: "lost", FinalValue: 5000, ActualCloseDate: "2026-02-01",
		LossReason: "went with incumbent",
	}
	if _, err := svc.CloseDeal(ctx, lead.ID, req, false); err != nil {
		t.Fatalf("first close: %v", err)
	}

	_, err := svc.CloseDeal(ctx, lead.ID, req, false)
	assertAppErr(t, err, apperr.KindConflict, "DEAL_ALREADY_CLOSED")

	req.LossReason = "budget cut, not incumbent"
	resp, err := svc.CloseDeal(ctx, lead.ID, req, true)
	if err != nil {
		t.Fatalf("amend close: %v", err)
	}
	if resp.Close == nil || resp.Close.LossReason == nil || *resp.Close.LossReason != "budget cut, not incumbent" {
		t.Errorf("amended loss reason not persisted: %+v", resp.Close)
	}
}

func TestCloseDealCollectsMissingFields(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageBOFU, domain.StatusNegotiating)

	_, err := svc.CloseDeal(context.Background(), lead.ID, transport.CloseDealRequest{
		Outcome: "lost", ActualCloseDate: "2026-02-01",
	}, false)
	appErr := assertAppErr(t, err, apperr.KindValidation, "VALIDATION_FAILED")
	for _, field := range []string{"finalValue", "lossReason"} {
		if _, ok := appErr.Fields[field]; !ok {
			t.Errorf("missing violation for %q: %v", field, appErr.Fields)
		}
	}
}

func TestRecordActionAdvancesStatus(t *testing.T) {
	svc, store, bus := newTestService()
	lead := seedLead(store, domain.StageMOFU, domain.StatusMQL)

	resp, err := svc.RecordAction(context.Background(), lead.ID, transport.RecordActionRequest{Type: "meet"})
	if err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if resp.Status != string(domain.StatusSQL) {
		t.Errorf("status = %s, want sql after a MOFU meeting", resp.Status)
	}
	if len(store.activities) != 1 || store.activities[0].Type != "meet" {
		t.Errorf("activity not appended: %+v", store.activities)
	}
	if got := bus.names(); len(got) != 1 || got[0] != "leads.action.recorded" {
		t.Errorf("published = %v, want [leads.action.recorded]", got)
	}
	evt, ok := bus.published[0].(events.LeadActionRecorded)
	if !ok {
		t.Fatalf("published %T, want events.LeadActionRecorded", bus.published[0])
	}
	if evt.OccurredAt().IsZero() {
		t.Error("event timestamp missing")
	}
	if evt.RecordedAt.IsZero() {
		t.Error("recordedAt missing")
	}
}

func TestRecordActionUnknownType(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageTOFU, domain.StatusNew)

	_, err := svc.RecordAction(context.Background(), lead.ID, transport.RecordActionRequest{Type: "carrier_pigeon"})
	assertAppErr(t, err, apperr.KindValidation, "VALIDATION_FAILED")
	if len(store.activities) != 0 {
		t.Error("rejected action must not be recorded")
	}
}

func TestRecordActionOnClosedDealKeepsStatus(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageBOFU, domain.StatusWon)

	resp, err := svc.RecordAction(context.Background(), lead.ID, transport.RecordActionRequest{Type: "call"})
	if err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	if resp.Status != string(domain.StatusWon) {
		t.Errorf("closed deal status changed to %s", resp.Status)
	}
	if len(store.activities) != 1 {
		t.Errorf("activity should still be recorded, got %d", len(store.activities))
	}
}

func TestTagsFormASet(t *testing.T) {
	svc, store, _ := newTestService()
	lead := seedLead(store, domain.StageTOFU, domain.StatusNew)

	resp, err := svc.UpdateTags(context.Background(), lead.ID, transport.UpdateTagsRequest{
		Tags: []string{" vip", "vip", "", "enterprise", "vip "},
	})
	if err != nil {
		t.Fatalf("UpdateTags: %v", err)
	}
	want := []string{"vip", "enterprise"}
	if len(resp.Tags) != len(want) {
		t.Fatalf("tags = %v, want %v", resp.Tags, want)
	}
	for i, tag := range want {
		if resp.Tags[i] != tag {
			t.Errorf("tags[%d] = %q, want %q", i, resp.Tags[i], tag)
		}
	}
}

func TestCreateDeduplicatesTags(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), transport.CreateLeadRequest{
		Name: "Tagged", Company: "Tags BV",
		Tags: []string{"inbound", "inbound", "  ", "priority"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(resp.Tags) != 2 || resp.Tags[0] != "inbound" || resp.Tags[1] != "priority" {
		t.Errorf("tags = %v, want [inbound priority]", resp.Tags)
	}
}

func TestSweepIdleMOFU(t *testing.T) {
	svc, store, _ := newTestService()
	idleA := seedLead(store, domain.StageMOFU, domain.StatusMQL)
	idleB := seedLead(store, domain.StageMOFU, domain.StatusEngaged)
	fresh := seedLead(store, domain.StageMOFU, domain.StatusMQL)
	freshLead := store.leads[fresh.ID]
	freshLead.LastActivity = time.Now()
	store.leads[fresh.ID] = freshLead

	moved, err := svc.SweepIdleMOFU(context.Background(), time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("SweepIdleMOFU: %v", err)
	}
	if moved != 2 {
		t.Fatalf("moved = %d, want 2", moved)
	}
	for _, id := range []uuid.UUID{idleA.ID, idleB.ID} {
		if got := store.leads[id].Stage; got != domain.StageColdBucket {
			t.Errorf("idle lead %s stage = %s, want ColdBucket", id, got)
		}
	}
	if got := store.leads[fresh.ID].Stage; got != domain.StageMOFU {
		t.Errorf("fresh lead moved to %s, want MOFU", got)
	}
	for _, rec := range store.movements {
		if rec.Reason != sweepReason {
			t.Errorf("sweep movement reason = %q, want %q", rec.Reason, sweepReason)
		}
	}
}
