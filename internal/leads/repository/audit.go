package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ListMovements returns a lead's movement records, oldest first, so the
// result reads as the lead's journey through the funnel.
func (r *Repository) ListMovements(ctx context.Context, leadID uuid.UUID) ([]MovementRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, from_stage, to_stage, reason, extra, moved_at
		FROM movement_records
		WHERE lead_id = $1
		ORDER BY moved_at ASC, id ASC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]MovementRecord, 0)
	for rows.Next() {
		var rec MovementRecord
		if err := rows.Scan(&rec.ID, &rec.LeadID, &rec.FromStage, &rec.ToStage, &rec.Reason, &rec.Extra, &rec.MovedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

// ListActivities returns a lead's activity history, newest first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, type, payload, occurred_at
		FROM lead_activities
		WHERE lead_id = $1
		ORDER BY occurred_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Activity, 0)
	for rows.Next() {
		var item Activity
		if err := rows.Scan(&item.ID, &item.LeadID, &item.Type, &item.Payload, &item.OccurredAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return items, nil
}

// ListScoreHistory returns a lead's past score snapshots, newest first.
func (r *Repository) ListScoreHistory(ctx context.Context, leadID uuid.UUID) ([]ScoreSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, fit, intent, behavior, overall, tier, version, computed_at
		FROM lead_score_history
		WHERE lead_id = $1
		ORDER BY computed_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]ScoreSnapshot, 0)
	for rows.Next() {
		var snap ScoreSnapshot
		if err := rows.Scan(&snap.ID, &snap.LeadID, &snap.Fit, &snap.Intent, &snap.Behavior, &snap.Overall, &snap.Tier, &snap.Version, &snap.ComputedAt); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return snapshots, nil
}

// AddNote appends a note to a lead.
func (r *Repository) AddNote(ctx context.Context, leadID uuid.UUID, authorID *uuid.UUID, body string) (Note, error) {
	var note Note
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lead_notes (lead_id, author_id, body)
		VALUES ($1, $2, $3)
		RETURNING id, lead_id, author_id, body, created_at
	`, leadID, authorID, body).Scan(&note.ID, &note.LeadID, &note.AuthorID, &note.Body, &note.CreatedAt)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23503" {
			return Note{}, ErrNotFound
		}
		return Note{}, fmt.Errorf("insert note: %w", err)
	}
	return note, nil
}

// ListNotes returns a lead's notes, newest first.
func (r *Repository) ListNotes(ctx context.Context, leadID uuid.UUID) ([]Note, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, author_id, body, created_at
		FROM lead_notes
		WHERE lead_id = $1
		ORDER BY created_at DESC, id DESC
	`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := make([]Note, 0)
	for rows.Next() {
		var note Note
		if err := rows.Scan(&note.ID, &note.LeadID, &note.AuthorID, &note.Body, &note.CreatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return notes, nil
}
