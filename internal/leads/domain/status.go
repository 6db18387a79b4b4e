package domain

// Status is the sub-state of a lead within its current stage. A status is
// meaningful only relative to the stage it belongs to.
type Status string

const (
	// TOFU statuses
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"

	// MOFU statuses ("engaged" is shared with TOFU)
	StatusMQL           Status = "mql"
	StatusSQL           Status = "sql"
	StatusEngaged       Status = "engaged"
	StatusNurturing     Status = "nurturing"
	StatusOpportunity   Status = "opportunity"
	StatusDemoRequested Status = "demo_requested"

	// BOFU statuses
	StatusEvaluating   Status = "evaluating"
	StatusNegotiating  Status = "negotiating"
	StatusProposalSent Status = "proposal_sent"
	StatusReadyToClose Status = "ready_to_close"
	StatusWon          Status = "won"
	StatusLost         Status = "lost"

	// Terminal bucket statuses
	StatusDormant      Status = "dormant"
	StatusDisqualified Status = "disqualified"
)

// stageStatuses is the set of valid statuses per stage; the first entry is
// the default applied when a lead enters the stage.
var stageStatuses = map[Stage][]Status{
	StageTOFU:         {StatusNew, StatusContacted, StatusEngaged},
	StageMOFU:         {StatusMQL, StatusSQL, StatusEngaged, StatusNurturing, StatusOpportunity, StatusDemoRequested},
	StageBOFU:         {StatusEvaluating, StatusNegotiating, StatusProposalSent, StatusReadyToClose, StatusWon, StatusLost},
	StageColdBucket:   {StatusDormant},
	StageInvalidLeads: {StatusDisqualified},
}

// DefaultStatus returns the status a lead receives on entering the stage.
func DefaultStatus(stage Stage) Status {
	statuses := stageStatuses[stage]
	if len(statuses) == 0 {
		return ""
	}
	return statuses[0]
}

// IsValidStatus reports whether the status belongs to the stage.
func IsValidStatus(stage Stage, status Status) bool {
	for _, s := range stageStatuses[stage] {
		if s == status {
			return true
		}
	}
	return false
}

// ActionType classifies a recorded communication or meeting against a lead.
type ActionType string

const (
	ActionCall     ActionType = "call"
	ActionEmail    ActionType = "email"
	ActionMeet     ActionType = "meet"
	ActionProposal ActionType = "proposal"
	ActionSchedule ActionType = "schedule"
)

// IsKnownActionType reports whether the value names a recordable action.
func IsKnownActionType(action ActionType) bool {
	switch action {
	case ActionCall, ActionEmail, ActionMeet, ActionProposal, ActionSchedule:
		return true
	}
	return false
}

// actionStatusTable encodes the stage-specific side effect of recording an
// action: a (stage, action) pair maps to the status the lead's sub-state
// moves to. Pairs absent from the table leave the status untouched.
var actionStatusTable = map[Stage]map[ActionType]Status{
	StageTOFU: {
		ActionCall:  StatusContacted,
		ActionEmail: StatusContacted,
		ActionMeet:  StatusEngaged,
	},
	StageMOFU: {
		ActionCall:     StatusDemoRequested,
		ActionEmail:    StatusEngaged,
		ActionMeet:     StatusSQL,
		ActionProposal: StatusOpportunity,
		ActionSchedule: StatusNurturing,
	},
	StageBOFU: {
		ActionCall:     StatusNegotiating,
		ActionMeet:     StatusNegotiating,
		ActionProposal: StatusProposalSent,
		ActionSchedule: StatusReadyToClose,
	},
}

// StatusAfterAction returns the status a recorded action moves the lead to
// within its current stage, or ok=false when the pair has no mapping.
// Closed deals keep their terminal status regardless of later actions.
func StatusAfterAction(stage Stage, current Status, action ActionType) (Status, bool) {
	if current == StatusWon || current == StatusLost {
		return "", false
	}
	next, ok := actionStatusTable[stage][action]
	if !ok {
		return "", false
	}
	return next, true
}
