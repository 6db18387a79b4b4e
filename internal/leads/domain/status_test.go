package domain

import "testing"

func TestDefaultStatus(t *testing.T) {
	tests := []struct {
		stage Stage
		want  Status
	}{
		{StageTOFU, StatusNew},
		{StageMOFU, StatusMQL},
		{StageBOFU, StatusEvaluating},
		{StageColdBucket, StatusDormant},
		{StageInvalidLeads, StatusDisqualified},
	}

	for _, tc := range tests {
		if got := DefaultStatus(tc.stage); got != tc.want {
			t.Errorf("DefaultStatus(%q) = %q, want %q", tc.stage, got, tc.want)
		}
	}
}

func TestStatusAfterAction(t *testing.T) {
	tests := []struct {
		stage   Stage
		current Status
		action  ActionType
		want    Status
		wantOK  bool
	}{
		{StageMOFU, StatusMQL, ActionCall, StatusDemoRequested, true},
		{StageMOFU, StatusMQL, ActionEmail, StatusEngaged, true},
		{StageMOFU, StatusNurturing, ActionMeet, StatusSQL, true},
		{StageTOFU, StatusNew, ActionCall, StatusContacted, true},
		{StageBOFU, StatusEvaluating, ActionProposal, StatusProposalSent, true},
		{StageBOFU, StatusEvaluating, ActionSchedule, StatusReadyToClose, true},

		// No mapping: status untouched
		{StageTOFU, StatusNew, ActionProposal, "", false},
		{StageColdBucket, StatusDormant, ActionCall, "", false},
		{StageInvalidLeads, StatusDisqualified, ActionEmail, "", false},

		// Closed deals never change status again
		{StageBOFU, StatusWon, ActionCall, "", false},
		{StageBOFU, StatusLost, ActionProposal, "", false},
	}

	for _, tc := range tests {
		got, ok := StatusAfterAction(tc.stage, tc.current, tc.action)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("StatusAfterAction(%q, %q, %q) = (%q, %v), want (%q, %v)",
				tc.stage, tc.current, tc.action, got, ok, tc.want, tc.wantOK)
		}
	}
}

// The side-effect table must only name statuses that are valid for the stage
// they apply to, otherwise recording an action could corrupt the sub-state.
func TestActionStatusTableTargetsAreValid(t *testing.T) {
	for stage, actions := range actionStatusTable {
		for action, status := range actions {
			if !IsValidStatus(stage, status) {
				t.Errorf("action table maps (%q, %q) to %q, which is not a valid %q status",
					stage, action, status, stage)
			}
		}
	}
}

func TestIsKnownActionType(t *testing.T) {
	for _, action := range []ActionType{ActionCall, ActionEmail, ActionMeet, ActionProposal, ActionSchedule} {
		if !IsKnownActionType(action) {
			t.Errorf("IsKnownActionType(%q) = false, want true", action)
		}
	}
	if IsKnownActionType(ActionType("sms")) {
		t.Error("IsKnownActionType(\"sms\") = true, want false")
	}
}
