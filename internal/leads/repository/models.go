package repository

import (
	"time"

	"funnel_crm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Lead is the stored representation of a funnel lead. The score block is
// derived state owned by the scoring service; everything else is written by
// the lifecycle service.
type Lead struct {
	ID             uuid.UUID
	Name           string
	Company        string
	Email          *string
	Phone          *string
	SecondaryEmail *string
	SecondaryPhone *string
	Website        *string
	Industry       *string
	CompanySize    *int
	JobTitle       *string
	Interests      []string
	Source         *string
	Stage          domain.Stage
	Status         domain.Status
	DealValue      float64
	Tags           []string
	Notes          string
	Score          Score
	Close          *DealCloseRecord
	CreatedAt      time.Time
	LastActivity   time.Time
}

// Score is the embedded scoring block of a lead. UpdatedAt is nil until the
// first recompute has been persisted.
type Score struct {
	Fit       int
	Intent    int
	Behavior  int
	Overall   int
	Tier      string
	Trend     string
	Version   string
	UpdatedAt *time.Time
}

// DealCloseRecord captures the close event of a BOFU deal. RenewalDate is
// derived from CloseDate and ContractLength on won deals.
type DealCloseRecord struct {
	Outcome        string
	FinalValue     float64
	CloseDate      time.Time
	WinReason      *string
	PaymentTerms   *string
	ContractLength *string
	LossReason     *string
	RenewalDate    *time.Time
}

// MovementRecord is one append-only audit entry for a stage transition.
type MovementRecord struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	FromStage domain.Stage
	ToStage   domain.Stage
	Reason    string
	Extra     []byte
	MovedAt   time.Time
}

// Activity is one append-only entry in a lead's activity history.
type Activity struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Type       string
	Payload    []byte
	OccurredAt time.Time
}

// Note is one append-only human commentary entry against a lead.
type Note struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	AuthorID  *uuid.UUID
	Body      string
	CreatedAt time.Time
}

// ScoreSnapshot is one append-only scoring history entry; the immediately
// preceding snapshot is the trend reference for the next recompute.
type ScoreSnapshot struct {
	ID         uuid.UUID
	LeadID     uuid.UUID
	Fit        int
	Intent     int
	Behavior   int
	Overall    int
	Tier       string
	Version    string
	ComputedAt time.Time
}

// CreateLeadParams are the attributes accepted at lead creation.
type CreateLeadParams struct {
	Name           string
	Company        string
	Email          *string
	Phone          *string
	SecondaryEmail *string
	SecondaryPhone *string
	Website        *string
	Industry       *string
	CompanySize    *int
	JobTitle       *string
	Interests      []string
	Source         *string
	Stage          domain.Stage
	Status         domain.Status
	DealValue      float64
	Tags           []string
	Notes          string
	Score          Score
}

// MoveLeadParams describe one stage transition. FromStage is the optimistic
// precondition: the move fails with ErrStageMismatch when the lead's stored
// stage no longer matches.
type MoveLeadParams struct {
	LeadID    uuid.UUID
	FromStage domain.Stage
	ToStage   domain.Stage
	ToStatus  domain.Status
	Reason    string
	Extra     map[string]interface{}
}

// CloseDealParams persist a validated deal close inside BOFU.
type CloseDealParams struct {
	LeadID         uuid.UUID
	Status         domain.Status
	Outcome        string
	FinalValue     float64
	CloseDate      time.Time
	WinReason      *string
	PaymentTerms   *string
	ContractLength *string
	LossReason     *string
	RenewalDate    *time.Time
	Reason         string
}

// RecordActivityParams append one activity entry, optionally moving the
// lead's sub-state per the (stage, action) side-effect table.
type RecordActivityParams struct {
	LeadID    uuid.UUID
	Type      string
	Payload   map[string]interface{}
	NewStatus *domain.Status
}
