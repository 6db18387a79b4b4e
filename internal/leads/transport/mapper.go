package transport

import (
	"encoding/json"

	"funnel_crm_backend/internal/leads/repository"
)

func ToLeadResponse(lead repository.Lead) LeadResponse {
	resp := LeadResponse{
		ID:             lead.ID,
		Name:           lead.Name,
		Company:        lead.Company,
		Email:          lead.Email,
		Phone:          lead.Phone,
		SecondaryEmail: lead.SecondaryEmail,
		SecondaryPhone: lead.SecondaryPhone,
		Website:        lead.Website,
		Industry:       lead.Industry,
		CompanySize:    lead.CompanySize,
		JobTitle:       lead.JobTitle,
		Interests:      lead.Interests,
		Source:         lead.Source,
		Stage:          string(lead.Stage),
		Status:         string(lead.Status),
		DealValue:      lead.DealValue,
		Tags:           lead.Tags,
		Notes:          lead.Notes,
		Score: ScoreResponse{
			Fit:       lead.Score.Fit,
			Intent:    lead.Score.Intent,
			Behavior:  lead.Score.Behavior,
			Overall:   lead.Score.Overall,
			Tier:      lead.Score.Tier,
			Trend:     lead.Score.Trend,
			Version:   lead.Score.Version,
			UpdatedAt: lead.Score.UpdatedAt,
		},
		CreatedAt:    lead.CreatedAt,
		LastActivity: lead.LastActivity,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if lead.Close != nil {
		resp.Close = &DealCloseResponse{
			Outcome:        lead.Close.Outcome,
			FinalValue:     lead.Close.FinalValue,
			CloseDate:      lead.Close.CloseDate.Format("2006-01-02"),
			WinReason:      lead.Close.WinReason,
			PaymentTerms:   lead.Close.PaymentTerms,
			ContractLength: lead.Close.ContractLength,
			LossReason:     lead.Close.LossReason,
			RenewalDate:    lead.Close.RenewalDate,
		}
	}
	return resp
}

func ToLeadResponses(leads []repository.Lead) []LeadResponse {
	out := make([]LeadResponse, 0, len(leads))
	for _, lead := range leads {
		out = append(out, ToLeadResponse(lead))
	}
	return out
}

func ToMovementResponse(rec repository.MovementRecord) MovementResponse {
	return MovementResponse{
		ID:        rec.ID,
		FromStage: string(rec.FromStage),
		ToStage:   string(rec.ToStage),
		Reason:    rec.Reason,
		Extra:     decodeExtra(rec.Extra),
		MovedAt:   rec.MovedAt,
	}
}

func ToMovementResponses(records []repository.MovementRecord) []MovementResponse {
	out := make([]MovementResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, ToMovementResponse(rec))
	}
	return out
}

func ToActivityResponse(item repository.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         item.ID,
		Type:       item.Type,
		Payload:    decodeExtra(item.Payload),
		OccurredAt: item.OccurredAt,
	}
}

func ToActivityResponses(items []repository.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToActivityResponse(item))
	}
	return out
}

func ToScoreSnapshotResponses(snapshots []repository.ScoreSnapshot) []ScoreSnapshotResponse {
	out := make([]ScoreSnapshotResponse, 0, len(snapshots))
	for _, snap := range snapshots {
		out = append(out, ScoreSnapshotResponse{
			Fit:        snap.Fit,
			Intent:     snap.Intent,
			Behavior:   snap.Behavior,
			Overall:    snap.Overall,
			Tier:       snap.Tier,
			Version:    snap.Version,
			ComputedAt: snap.ComputedAt,
		})
	}
	return out
}

func ToNoteResponses(notes []repository.Note) []NoteResponse {
	out := make([]NoteResponse, 0, len(notes))
	for _, note := range notes {
		out = append(out, NoteResponse{
			ID:        note.ID,
			AuthorID:  note.AuthorID,
			Body:      note.Body,
			CreatedAt: note.CreatedAt,
		})
	}
	return out
}

// decodeExtra tolerates malformed stored JSON rather than failing a read.
func decodeExtra(raw []byte) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}
