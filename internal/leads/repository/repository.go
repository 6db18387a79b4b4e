package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"funnel_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound         = errors.New("lead not found")
	ErrStageMismatch    = errors.New("lead stage mismatch")
	ErrDuplicateContact = errors.New("duplicate contact in stage")
)

const pgUniqueViolation = "23505"

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, name, company, email, phone, secondary_email, secondary_phone, website,
	industry, company_size, job_title, interests, source, stage, status,
	deal_value, tags, notes,
	score_fit, score_intent, score_behavior, score_overall, score_tier,
	score_trend, score_version, score_updated_at,
	close_outcome, close_final_value, close_date, close_win_reason,
	close_payment_terms, close_contract_length, close_loss_reason, renewal_date,
	created_at, last_activity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var (
		lead         Lead
		closeOutcome *string
		closeValue   *float64
		closeDate    *time.Time
		winReason    *string
		paymentTerms *string
		contractLen  *string
		lossReason   *string
		renewalDate  *time.Time
	)
	err := row.Scan(
		&lead.ID, &lead.Name, &lead.Company, &lead.Email, &lead.Phone,
		&lead.SecondaryEmail, &lead.SecondaryPhone, &lead.Website,
		&lead.Industry, &lead.CompanySize, &lead.JobTitle, &lead.Interests,
		&lead.Source, &lead.Stage, &lead.Status,
		&lead.DealValue, &lead.Tags, &lead.Notes,
		&lead.Score.Fit, &lead.Score.Intent, &lead.Score.Behavior,
		&lead.Score.Overall, &lead.Score.Tier, &lead.Score.Trend,
		&lead.Score.Version, &lead.Score.UpdatedAt,
		&closeOutcome, &closeValue, &closeDate, &winReason,
		&paymentTerms, &contractLen, &lossReason, &renewalDate,
		&lead.CreatedAt, &lead.LastActivity,
	)
	if err != nil {
		return Lead{}, err
	}
	if closeOutcome != nil {
		rec := DealCloseRecord{
			Outcome:        *closeOutcome,
			WinReason:      winReason,
			PaymentTerms:   paymentTerms,
			ContractLength: contractLen,
			LossReason:     lossReason,
			RenewalDate:    renewalDate,
		}
		if closeValue != nil {
			rec.FinalValue = *closeValue
		}
		if closeDate != nil {
			rec.CloseDate = *closeDate
		}
		lead.Close = &rec
	}
	return lead, nil
}

func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (
			name, company, email, phone, secondary_email, secondary_phone, website,
			industry, company_size, job_title, interests, source, stage, status,
			deal_value, tags, notes,
			score_fit, score_intent, score_behavior, score_overall, score_tier,
			score_trend, score_version, score_updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25
		)
		RETURNING`+leadColumns,
		params.Name, params.Company, params.Email, params.Phone,
		params.SecondaryEmail, params.SecondaryPhone, params.Website,
		params.Industry, params.CompanySize, params.JobTitle,
		params.Interests, params.Source, params.Stage, params.Status,
		params.DealValue, params.Tags, params.Notes,
		params.Score.Fit, params.Score.Intent, params.Score.Behavior,
		params.Score.Overall, params.Score.Tier, params.Score.Trend,
		params.Score.Version, params.Score.UpdatedAt,
	)
	lead, err := scanLead(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Lead{}, ErrDuplicateContact
		}
		return Lead{}, fmt.Errorf("insert lead: %w", err)
	}
	return lead, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

func (r *Repository) ListByStage(ctx context.Context, stage domain.Stage) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+leadColumns+` FROM leads WHERE stage = $1 ORDER BY last_activity DESC`, stage)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func (r *Repository) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+leadColumns+` FROM leads ORDER BY last_activity DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListByTiers returns leads whose current tier is in the given set, best
// overall score first. Used to rebuild the hot list.
func (r *Repository) ListByTiers(ctx context.Context, tiers []string) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+leadColumns+` FROM leads WHERE score_tier = ANY($1) ORDER BY score_overall DESC`, tiers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

// ListIdleInStage returns leads sitting in the given stage with no activity
// since the cutoff. The cold sweep feeds these back through the normal move
// path so every demotion still gets a movement record.
func (r *Repository) ListIdleInStage(ctx context.Context, stage domain.Stage, idleBefore time.Time) ([]Lead, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT`+leadColumns+` FROM leads WHERE stage = $1 AND last_activity < $2 ORDER BY last_activity ASC`,
		stage, idleBefore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectLeads(rows)
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return leads, nil
}

// ExistsContactInStage reports whether another lead in the stage already
// carries the given email (case-insensitive).
func (r *Repository) ExistsContactInStage(ctx context.Context, stage domain.Stage, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM leads WHERE stage = $1 AND lower(email) = lower($2)
		)
	`, stage, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Move transitions a lead to a new stage atomically. The stored stage must
// still equal FromStage; on a zero-row update the current stage is re-read to
// distinguish a vanished lead from a concurrent move. The movement record is
// written in the same transaction.
func (r *Repository) Move(ctx context.Context, params MoveLeadParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET stage = $3, status = $4, last_activity = now()
		WHERE id = $1 AND stage = $2
		RETURNING`+leadColumns,
		params.LeadID, params.FromStage, params.ToStage, params.ToStatus)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var current string
			probeErr := tx.QueryRow(ctx, `SELECT stage FROM leads WHERE id = $1`, params.LeadID).Scan(&current)
			if errors.Is(probeErr, pgx.ErrNoRows) {
				return Lead{}, ErrNotFound
			}
			if probeErr != nil {
				return Lead{}, probeErr
			}
			return Lead{}, ErrStageMismatch
		}
		return Lead{}, fmt.Errorf("move lead: %w", err)
	}

	if err := insertMovement(ctx, tx, params.LeadID, params.FromStage, params.ToStage, params.Reason, params.Extra); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// CloseDeal stamps the close block onto a BOFU lead. Closing does not leave
// the funnel: the lead stays in BOFU with a terminal status, so the movement
// record is a same-stage entry carrying the outcome.
func (r *Repository) CloseDeal(ctx context.Context, params CloseDealParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE leads
		SET status = $2,
			close_outcome = $3, close_final_value = $4, close_date = $5,
			close_win_reason = $6, close_payment_terms = $7,
			close_contract_length = $8, close_loss_reason = $9,
			renewal_date = $10, last_activity = now()
		WHERE id = $1 AND stage = $11
		RETURNING`+leadColumns,
		params.LeadID, params.Status,
		params.Outcome, params.FinalValue, params.CloseDate,
		params.WinReason, params.PaymentTerms,
		params.ContractLength, params.LossReason,
		params.RenewalDate, domain.StageBOFU)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var current string
			probeErr := tx.QueryRow(ctx, `SELECT stage FROM leads WHERE id = $1`, params.LeadID).Scan(&current)
			if errors.Is(probeErr, pgx.ErrNoRows) {
				return Lead{}, ErrNotFound
			}
			if probeErr != nil {
				return Lead{}, probeErr
			}
			return Lead{}, ErrStageMismatch
		}
		return Lead{}, fmt.Errorf("close deal: %w", err)
	}

	if err := insertMovement(ctx, tx, params.LeadID, domain.StageBOFU, domain.StageBOFU, params.Reason, closeExtra(params)); err != nil {
		return Lead{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// closeExtra builds the movement-record payload for a deal close: the full
// set of close fields, so the audit trail reads without joining the lead row.
func closeExtra(params CloseDealParams) map[string]interface{} {
	extra := map[string]interface{}{
		"outcome":    params.Outcome,
		"finalValue": params.FinalValue,
		"closeDate":  params.CloseDate.Format("2006-01-02"),
	}
	if params.WinReason != nil {
		extra["winReason"] = *params.WinReason
	}
	if params.PaymentTerms != nil {
		extra["paymentTerms"] = *params.PaymentTerms
	}
	if params.ContractLength != nil {
		extra["contractLength"] = *params.ContractLength
	}
	if params.LossReason != nil {
		extra["lossReason"] = *params.LossReason
	}
	if params.RenewalDate != nil {
		extra["renewalDate"] = params.RenewalDate.Format("2006-01-02")
	}
	return extra
}

// RecordActivity appends an activity entry and bumps last_activity, moving
// the lead's status when the action maps to a new sub-state.
func (r *Repository) RecordActivity(ctx context.Context, params RecordActivityParams) (Lead, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return Lead{}, err
	}
	defer tx.Rollback(ctx)

	var row pgx.Row
	if params.NewStatus != nil {
		row = tx.QueryRow(ctx, `
			UPDATE leads SET status = $2, last_activity = now()
			WHERE id = $1
			RETURNING`+leadColumns, params.LeadID, *params.NewStatus)
	} else {
		row = tx.QueryRow(ctx, `
			UPDATE leads SET last_activity = now()
			WHERE id = $1
			RETURNING`+leadColumns, params.LeadID)
	}
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, fmt.Errorf("record activity: %w", err)
	}

	payload, err := marshalExtra(params.Payload)
	if err != nil {
		return Lead{}, err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, type, payload) VALUES ($1, $2, $3)
	`, params.LeadID, params.Type, payload)
	if err != nil {
		return Lead{}, fmt.Errorf("insert activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Lead{}, err
	}
	return lead, nil
}

// UpdateScore replaces the embedded score block in one statement and appends
// the matching history snapshot. Readers never observe a half-written score.
func (r *Repository) UpdateScore(ctx context.Context, leadID uuid.UUID, score Score) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE leads
		SET score_fit = $2, score_intent = $3, score_behavior = $4,
			score_overall = $5, score_tier = $6, score_trend = $7,
			score_version = $8, score_updated_at = now()
		WHERE id = $1
	`, leadID, score.Fit, score.Intent, score.Behavior,
		score.Overall, score.Tier, score.Trend, score.Version)
	if err != nil {
		return fmt.Errorf("update score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_score_history (lead_id, fit, intent, behavior, overall, tier, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, leadID, score.Fit, score.Intent, score.Behavior, score.Overall, score.Tier, score.Version)
	if err != nil {
		return fmt.Errorf("insert score snapshot: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdateTags replaces the tag set of a lead.
func (r *Repository) UpdateTags(ctx context.Context, leadID uuid.UUID, tags []string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads SET tags = $2 WHERE id = $1 RETURNING`+leadColumns,
		leadID, tags)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

func insertMovement(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, from, to domain.Stage, reason string, extra map[string]interface{}) error {
	payload, err := marshalExtra(extra)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO movement_records (lead_id, from_stage, to_stage, reason, extra)
		VALUES ($1, $2, $3, $4, $5)
	`, leadID, from, to, reason, payload)
	if err != nil {
		return fmt.Errorf("insert movement record: %w", err)
	}
	return nil
}

func marshalExtra(extra map[string]interface{}) ([]byte, error) {
	if len(extra) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("marshal extra: %w", err)
	}
	return payload, nil
}
