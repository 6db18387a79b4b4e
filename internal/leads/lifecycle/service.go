// Package lifecycle implements the funnel state machine: lead intake,
// stage transitions with audited movement records, deal closes inside
// BOFU, and outreach actions that drive per-stage sub-states.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"funnel_crm_backend/internal/events"
	"funnel_crm_backend/internal/leads/domain"
	"funnel_crm_backend/internal/leads/repository"
	"funnel_crm_backend/internal/leads/scoring"
	"funnel_crm_backend/internal/leads/transport"
	"funnel_crm_backend/platform/apperr"
	"funnel_crm_backend/platform/logger"
	"funnel_crm_backend/platform/phone"
	"funnel_crm_backend/platform/validator"

	"github.com/google/uuid"
)

// Store is the persistence surface the lifecycle service needs. Implemented
// by repository.Repository; faked in tests.
type Store interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ListByStage(ctx context.Context, stage domain.Stage) ([]repository.Lead, error)
	ListAll(ctx context.Context) ([]repository.Lead, error)
	ListIdleInStage(ctx context.Context, stage domain.Stage, idleBefore time.Time) ([]repository.Lead, error)
	ExistsContactInStage(ctx context.Context, stage domain.Stage, email string) (bool, error)
	Move(ctx context.Context, params repository.MoveLeadParams) (repository.Lead, error)
	CloseDeal(ctx context.Context, params repository.CloseDealParams) (repository.Lead, error)
	RecordActivity(ctx context.Context, params repository.RecordActivityParams) (repository.Lead, error)
	UpdateTags(ctx context.Context, leadID uuid.UUID, tags []string) (repository.Lead, error)
	ListMovements(ctx context.Context, leadID uuid.UUID) ([]repository.MovementRecord, error)
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]repository.Activity, error)
	AddNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (repository.Note, error)
	ListNotes(ctx context.Context, leadID uuid.UUID) ([]repository.Note, error)
}

type Service struct {
	store    Store
	bus      events.Bus
	validate *validator.Validator
	engine   *scoring.Engine
	log      *logger.Logger
}

func New(store Store, bus events.Bus, validate *validator.Validator, engine *scoring.Engine, log *logger.Logger) *Service {
	return &Service{store: store, bus: bus, validate: validate, engine: engine, log: log}
}

// Create validates and inserts a new lead at the requested stage, defaulting
// to the top of the funnel. Every field violation is collected before
// returning, so the caller sees the full picture in one response. The initial
// score is computed synchronously from the supplied attributes; activity
// signals accrue later through recorded actions.
func (s *Service) Create(ctx context.Context, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	fields := map[string]string{}

	stage := domain.StageTOFU
	if req.Stage != "" {
		stage = domain.Stage(req.Stage)
		if !domain.IsKnownStage(stage) {
			fields["stage"] = "unknown stage"
		}
	}
	if strings.TrimSpace(req.Name) == "" {
		fields["name"] = "name is required"
	}
	if strings.TrimSpace(req.Company) == "" {
		fields["company"] = "company is required"
	}
	if req.Email != "" {
		if err := s.validate.Var(req.Email, "email"); err != nil {
			fields["email"] = "must be a valid email address"
		}
	}
	if req.SecondaryEmail != "" {
		if err := s.validate.Var(req.SecondaryEmail, "email"); err != nil {
			fields["secondaryEmail"] = "must be a valid email address"
		}
	}
	if !phone.IsValid(req.Phone) {
		fields["phone"] = "must be a valid phone number"
	}
	if !phone.IsValid(req.SecondaryPhone) {
		fields["secondaryPhone"] = "must be a valid phone number"
	}
	if req.Website != "" {
		if err := s.validate.Var(req.Website, "url"); err != nil {
			fields["website"] = "must be a valid URL"
		}
	}
	if req.CompanySize != nil && *req.CompanySize < 1 {
		fields["companySize"] = "must be a positive number"
	}
	if req.DealValue < 0 {
		fields["dealValue"] = "must not be negative"
	}
	if len(fields) > 0 {
		return transport.LeadResponse{}, apperr.Validation(fields)
	}

	if req.Email != "" {
		exists, err := s.store.ExistsContactInStage(ctx, stage, req.Email)
		if err != nil {
			return transport.LeadResponse{}, err
		}
		if exists {
			return transport.LeadResponse{}, apperr.Conflict("DUPLICATE_CONTACT", "a lead with this email already exists in "+string(stage))
		}
	}

	now := time.Now().UTC()
	companySize := 0
	if req.CompanySize != nil {
		companySize = *req.CompanySize
	}
	initial := s.engine.Compute(scoring.Input{
		Profile: scoring.Profile{
			Industry:    req.Industry,
			CompanySize: companySize,
			JobTitle:    req.JobTitle,
			Interests:   req.Interests,
		},
		LastActivity: now,
		Now:          now,
	})

	params := repository.CreateLeadParams{
		Name:      strings.TrimSpace(req.Name),
		Company:   strings.TrimSpace(req.Company),
		Interests: req.Interests,
		Stage:     stage,
		Status:    domain.DefaultStatus(stage),
		DealValue: req.DealValue,
		Tags:      normalizeTags(req.Tags),
		Notes:     req.Notes,
		Score: repository.Score{
			Fit:       initial.Fit,
			Intent:    initial.Intent,
			Behavior:  initial.Behavior,
			Overall:   initial.Overall,
			Tier:      string(initial.Tier),
			Trend:     string(initial.Trend),
			Version:   initial.Version,
			UpdatedAt: &now,
		},
	}
	params.Email = optional(req.Email)
	params.Phone = optional(phone.NormalizeE164(req.Phone))
	params.SecondaryEmail = optional(req.SecondaryEmail)
	params.SecondaryPhone = optional(phone.NormalizeE164(req.SecondaryPhone))
	params.Website = optional(req.Website)
	params.Industry = optional(req.Industry)
	params.JobTitle = optional(req.JobTitle)
	params.Source = optional(req.Source)
	params.CompanySize = req.CompanySize

	lead, err := s.store.Create(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateContact) {
			return transport.LeadResponse{}, apperr.Conflict("DUPLICATE_CONTACT", "a lead with this email already exists in "+string(stage))
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		Name:      lead.Name,
		Company:   lead.Company,
		Email:     req.Email,
		Stage:     string(lead.Stage),
		Status:    string(lead.Status),
		Source:    req.Source,
	})

	return transport.ToLeadResponse(lead), nil
}

// Move transitions a lead along the funnel. The caller states the stage it
// believes the lead is in; a mismatch means someone moved it first and the
// caller should re-read before retrying.
func (s *Service) Move(ctx context.Context, leadID uuid.UUID, req transport.MoveLeadRequest) (transport.LeadResponse, error) {
	fields := map[string]string{}
	from := domain.Stage(req.FromStage)
	to := domain.Stage(req.ToStage)
	if !domain.IsKnownStage(from) {
		fields["fromStage"] = "unknown stage"
	}
	if !domain.IsKnownStage(to) {
		fields["toStage"] = "unknown stage"
	}
	if strings.TrimSpace(req.Reason) == "" {
		fields["reason"] = "reason is required"
	}
	if len(fields) > 0 {
		return transport.LeadResponse{}, apperr.Validation(fields)
	}

	if !domain.CanTransition(from, to) {
		allowed := domain.TransitionsFrom(from)
		msg := fmt.Sprintf("cannot move from %s to %s", from, to)
		if len(allowed) > 0 {
			msg = fmt.Sprintf("%s; allowed targets: %s", msg, joinStages(allowed))
		} else {
			msg += "; stage is terminal"
		}
		return transport.LeadResponse{}, apperr.Unprocessable("INVALID_TRANSITION", msg)
	}

	lead, err := s.store.Move(ctx, repository.MoveLeadParams{
		LeadID:    leadID,
		FromStage: from,
		ToStage:   to,
		ToStatus:  domain.DefaultStatus(to),
		Reason:    req.Reason,
		Extra:     req.Extra,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		case errors.Is(err, repository.ErrStageMismatch):
			return transport.LeadResponse{}, apperr.Conflict("STAGE_MISMATCH", "lead is no longer in "+string(from))
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadMoved{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    lead.ID,
		FromStage: string(from),
		ToStage:   string(to),
		Status:    string(lead.Status),
		Reason:    req.Reason,
		MovedAt:   lead.LastActivity,
	})

	return transport.ToLeadResponse(lead), nil
}

// CloseDeal records the terminal outcome of a BOFU deal. With amend set the
// close may overwrite an existing one (correcting a mis-entered close);
// otherwise closing twice is a conflict.
func (s *Service) CloseDeal(ctx context.Context, leadID uuid.UUID, req transport.CloseDealRequest, amend bool) (transport.LeadResponse, error) {
	current, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.LeadResponse{}, err
	}
	if current.Stage != domain.StageBOFU {
		return transport.LeadResponse{}, apperr.Conflict("STAGE_MISMATCH", "deals close in BOFU; lead is in "+string(current.Stage))
	}
	if current.Close != nil && !amend {
		return transport.LeadResponse{}, apperr.Conflict("DEAL_ALREADY_CLOSED", "deal is already closed; use an update to amend it")
	}
	if current.Close == nil && amend {
		return transport.LeadResponse{}, apperr.NotFound("DEAL_NOT_CLOSED", "no close to amend")
	}

	dealClose := domain.DealClose{
		Outcome:         domain.Outcome(req.Outcome),
		FinalValue:      req.FinalValue,
		ActualCloseDate: req.ActualCloseDate,
		WinReason:       req.WinReason,
		PaymentTerms:    req.PaymentTerms,
		ContractLength:  req.ContractLength,
		LossReason:      req.LossReason,
	}
	if fields := domain.ValidateDealClose(dealClose); len(fields) > 0 {
		return transport.LeadResponse{}, apperr.Validation(fields)
	}

	closeDate, err := time.Parse("2006-01-02", req.ActualCloseDate)
	if err != nil {
		return transport.LeadResponse{}, apperr.Validation(map[string]string{
			"actualCloseDate": "must be a date in YYYY-MM-DD format",
		})
	}

	params := repository.CloseDealParams{
		LeadID:     leadID,
		Outcome:    req.Outcome,
		FinalValue: req.FinalValue,
		CloseDate:  closeDate,
		Reason:     "deal_" + req.Outcome,
	}
	if dealClose.Outcome == domain.OutcomeWon {
		params.Status = domain.StatusWon
		params.WinReason = optional(req.WinReason)
		params.PaymentTerms = optional(req.PaymentTerms)
		params.ContractLength = optional(req.ContractLength)
		renewal := domain.RenewalDate(closeDate, req.ContractLength)
		params.RenewalDate = &renewal
	} else {
		params.Status = domain.StatusLost
		params.LossReason = optional(req.LossReason)
	}
	if amend {
		params.Reason = "deal_close_amended"
	}

	lead, err := s.store.CloseDeal(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		case errors.Is(err, repository.ErrStageMismatch):
			return transport.LeadResponse{}, apperr.Conflict("STAGE_MISMATCH", "lead left BOFU during the close")
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.DealClosed{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      lead.ID,
		Outcome:     req.Outcome,
		FinalValue:  req.FinalValue,
		CloseDate:   closeDate,
		RenewalDate: params.RenewalDate,
	})

	return transport.ToLeadResponse(lead), nil
}

// RecordAction appends an outreach action to a lead's history. When the
// (stage, action) pair maps to a sub-state the lead's status advances;
// closed deals and unmapped pairs keep their status and only gain the
// history entry.
func (s *Service) RecordAction(ctx context.Context, leadID uuid.UUID, req transport.RecordActionRequest) (transport.LeadResponse, error) {
	action := domain.ActionType(req.Type)
	if !domain.IsKnownActionType(action) {
		return transport.LeadResponse{}, apperr.Validation(map[string]string{
			"type": "unknown action type",
		})
	}

	current, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.LeadResponse{}, err
	}

	params := repository.RecordActivityParams{
		LeadID:  leadID,
		Type:    req.Type,
		Payload: req.Payload,
	}
	if next, ok := domain.StatusAfterAction(current.Stage, current.Status, action); ok {
		params.NewStatus = &next
	}

	lead, err := s.store.RecordActivity(ctx, params)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.LeadResponse{}, err
	}

	s.bus.Publish(ctx, events.LeadActionRecorded{
		BaseEvent:  events.NewBaseEvent(),
		LeadID:     lead.ID,
		ActionType: req.Type,
		Status:     string(lead.Status),
		RecordedAt: lead.LastActivity,
	})

	return transport.ToLeadResponse(lead), nil
}

// Get returns one lead by id.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.store.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

// List returns leads, optionally filtered to one stage.
func (s *Service) List(ctx context.Context, stageFilter string) ([]transport.LeadResponse, error) {
	if stageFilter == "" {
		leads, err := s.store.ListAll(ctx)
		if err != nil {
			return nil, err
		}
		return transport.ToLeadResponses(leads), nil
	}

	stage := domain.Stage(stageFilter)
	if !domain.IsKnownStage(stage) {
		return nil, apperr.Validation(map[string]string{"stage": "unknown stage"})
	}
	leads, err := s.store.ListByStage(ctx, stage)
	if err != nil {
		return nil, err
	}
	return transport.ToLeadResponses(leads), nil
}

// Movements returns the audited journey of a lead, oldest first.
func (s *Service) Movements(ctx context.Context, leadID uuid.UUID) ([]transport.MovementResponse, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	records, err := s.store.ListMovements(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return transport.ToMovementResponses(records), nil
}

// Activities returns a lead's activity history, newest first.
func (s *Service) Activities(ctx context.Context, leadID uuid.UUID) ([]transport.ActivityResponse, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	items, err := s.store.ListActivities(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return transport.ToActivityResponses(items), nil
}

// AddNote appends a note to a lead.
func (s *Service) AddNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, req transport.AddNoteRequest) (transport.NoteResponse, error) {
	if strings.TrimSpace(req.Body) == "" {
		return transport.NoteResponse{}, apperr.Validation(map[string]string{"body": "body is required"})
	}
	note, err := s.store.AddNote(ctx, leadID, authorID, req.Body)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.NoteResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.NoteResponse{}, err
	}
	return transport.NoteResponse{ID: note.ID, AuthorID: note.AuthorID, Body: note.Body, CreatedAt: note.CreatedAt}, nil
}

// Notes returns a lead's notes, newest first.
func (s *Service) Notes(ctx context.Context, leadID uuid.UUID) ([]transport.NoteResponse, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotes(ctx, leadID)
	if err != nil {
		return nil, err
	}
	return transport.ToNoteResponses(notes), nil
}

// UpdateTags replaces a lead's tag set.
func (s *Service) UpdateTags(ctx context.Context, leadID uuid.UUID, req transport.UpdateTagsRequest) (transport.LeadResponse, error) {
	lead, err := s.store.UpdateTags(ctx, leadID, normalizeTags(req.Tags))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.LeadResponse{}, apperr.NotFound("LEAD_NOT_FOUND", "lead not found")
		}
		return transport.LeadResponse{}, err
	}
	return transport.ToLeadResponse(lead), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// normalizeTags trims tags and drops empties and repeats, preserving first
// occurrence order. Tags are a set within a lead.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func joinStages(stages []domain.Stage) string {
	parts := make([]string, 0, len(stages))
	for _, stage := range stages {
		parts = append(parts, string(stage))
	}
	return strings.Join(parts, ", ")
}
