// Package transport defines the JSON request/response shapes for the leads
// module. Validation that can fail per-field lives in the lifecycle service
// so one response can report every violation at once.
package transport

import (
	"time"

	"github.com/google/uuid"
)

type CreateLeadRequest struct {
	Stage          string   `json:"stage"`
	Name           string   `json:"name"`
	Company        string   `json:"company"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	SecondaryEmail string   `json:"secondaryEmail"`
	SecondaryPhone string   `json:"secondaryPhone"`
	Website        string   `json:"website"`
	Industry       string   `json:"industry"`
	CompanySize    *int     `json:"companySize"`
	JobTitle       string   `json:"jobTitle"`
	Interests      []string `json:"interests"`
	Source         string   `json:"source"`
	DealValue      float64  `json:"dealValue"`
	Tags           []string `json:"tags"`
	Notes          string   `json:"notes"`
}

type MoveLeadRequest struct {
	FromStage string                 `json:"fromStage" binding:"required"`
	ToStage   string                 `json:"toStage" binding:"required"`
	Reason    string                 `json:"reason" binding:"required"`
	Extra     map[string]interface{} `json:"extra"`
}

type CloseDealRequest struct {
	Outcome         string  `json:"outcome"`
	FinalValue      float64 `json:"finalValue"`
	ActualCloseDate string  `json:"actualCloseDate"`
	WinReason       string  `json:"winReason"`
	PaymentTerms    string  `json:"paymentTerms"`
	ContractLength  string  `json:"contractLength"`
	LossReason      string  `json:"lossReason"`
}

type RecordActionRequest struct {
	Type    string                 `json:"type" binding:"required"`
	Payload map[string]interface{} `json:"payload"`
}

type AddNoteRequest struct {
	Body string `json:"body" binding:"required"`
}

type UpdateTagsRequest struct {
	Tags []string `json:"tags" binding:"required"`
}

type ScoreResponse struct {
	Fit       int        `json:"fit"`
	Intent    int        `json:"intent"`
	Behavior  int        `json:"behavior"`
	Overall   int        `json:"overall"`
	Tier      string     `json:"tier"`
	Trend     string     `json:"trend"`
	Version   string     `json:"version,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

type DealCloseResponse struct {
	Outcome        string     `json:"outcome"`
	FinalValue     float64    `json:"finalValue"`
	CloseDate      string     `json:"closeDate"`
	WinReason      *string    `json:"winReason,omitempty"`
	PaymentTerms   *string    `json:"paymentTerms,omitempty"`
	ContractLength *string    `json:"contractLength,omitempty"`
	LossReason     *string    `json:"lossReason,omitempty"`
	RenewalDate    *time.Time `json:"renewalDate,omitempty"`
}

type LeadResponse struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	Company        string             `json:"company"`
	Email          *string            `json:"email,omitempty"`
	Phone          *string            `json:"phone,omitempty"`
	SecondaryEmail *string            `json:"secondaryEmail,omitempty"`
	SecondaryPhone *string            `json:"secondaryPhone,omitempty"`
	Website        *string            `json:"website,omitempty"`
	Industry       *string            `json:"industry,omitempty"`
	CompanySize    *int               `json:"companySize,omitempty"`
	JobTitle       *string            `json:"jobTitle,omitempty"`
	Interests      []string           `json:"interests,omitempty"`
	Source         *string            `json:"source,omitempty"`
	Stage          string             `json:"stage"`
	Status         string             `json:"status"`
	DealValue      float64            `json:"dealValue"`
	Tags           []string           `json:"tags"`
	Notes          string             `json:"notes,omitempty"`
	Score          ScoreResponse      `json:"score"`
	Close          *DealCloseResponse `json:"close,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
	LastActivity   time.Time          `json:"lastActivity"`
}

type MovementResponse struct {
	ID        uuid.UUID              `json:"id"`
	FromStage string                 `json:"fromStage"`
	ToStage   string                 `json:"toStage"`
	Reason    string                 `json:"reason"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
	MovedAt   time.Time              `json:"movedAt"`
}

type ActivityResponse struct {
	ID         uuid.UUID              `json:"id"`
	Type       string                 `json:"type"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
	OccurredAt time.Time              `json:"occurredAt"`
}

type ScoreSnapshotResponse struct {
	Fit        int       `json:"fit"`
	Intent     int       `json:"intent"`
	Behavior   int       `json:"behavior"`
	Overall    int       `json:"overall"`
	Tier       string    `json:"tier"`
	Version    string    `json:"version"`
	ComputedAt time.Time `json:"computedAt"`
}

type NoteResponse struct {
	ID        uuid.UUID  `json:"id"`
	AuthorID  *uuid.UUID `json:"authorId,omitempty"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"createdAt"`
}

type HotLeadResponse struct {
	LeadID  uuid.UUID `json:"leadId"`
	Overall int       `json:"overall"`
}
