// Package domain provides core business rules for the leads bounded context.
package domain

// Stage is the funnel bucket a lead currently sits in. A lead is in exactly
// one stage at a time; movement between stages goes through the lifecycle
// service so every transition is reason-coded and audited.
type Stage string

const (
	StageTOFU         Stage = "TOFU"
	StageMOFU         Stage = "MOFU"
	StageBOFU         Stage = "BOFU"
	StageColdBucket   Stage = "ColdBucket"
	StageInvalidLeads Stage = "InvalidLeads"
)

// allowedTransitions is the declarative state machine for stage movement.
// ColdBucket -> TOFU is the explicit reactivation path; InvalidLeads is
// strictly terminal.
var allowedTransitions = map[Stage]map[Stage]bool{
	StageTOFU: {
		StageMOFU: true,
	},
	StageMOFU: {
		StageBOFU:         true,
		StageColdBucket:   true,
		StageInvalidLeads: true,
	},
	StageBOFU:         {},
	StageColdBucket:   {StageTOFU: true},
	StageInvalidLeads: {},
}

// IsKnownStage reports whether the value names a funnel stage.
func IsKnownStage(stage Stage) bool {
	_, ok := allowedTransitions[stage]
	return ok
}

// CanTransition reports whether the (from, to) pair is in the allowed
// transition table.
func CanTransition(from, to Stage) bool {
	targets, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// TransitionsFrom returns the stages reachable from the given stage.
func TransitionsFrom(from Stage) []Stage {
	targets := allowedTransitions[from]
	out := make([]Stage, 0, len(targets))
	for _, stage := range allStages {
		if targets[stage] {
			out = append(out, stage)
		}
	}
	return out
}

// IsTerminalStage reports whether no forward movement is defined from the
// stage. Deals close inside BOFU via won/lost statuses, so BOFU is terminal
// at the stage level too.
func IsTerminalStage(stage Stage) bool {
	return len(allowedTransitions[stage]) == 0
}

// allStages enumerates stages in funnel order for deterministic iteration.
var allStages = []Stage{StageTOFU, StageMOFU, StageBOFU, StageColdBucket, StageInvalidLeads}

// AllStages returns the stages in funnel order.
func AllStages() []Stage {
	out := make([]Stage, len(allStages))
	copy(out, allStages)
	return out
}
