package domain

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from Stage
		to   Stage
		want bool
	}{
		{StageTOFU, StageMOFU, true},
		{StageMOFU, StageBOFU, true},
		{StageMOFU, StageColdBucket, true},
		{StageMOFU, StageInvalidLeads, true},
		{StageColdBucket, StageTOFU, true},

		{StageTOFU, StageBOFU, false},
		{StageTOFU, StageColdBucket, false},
		{StageBOFU, StageMOFU, false},
		{StageBOFU, StageColdBucket, false},
		{StageInvalidLeads, StageTOFU, false},
		{StageInvalidLeads, StageMOFU, false},
		{StageColdBucket, StageMOFU, false},
		{StageMOFU, StageTOFU, false},
		{Stage("Pipeline"), StageMOFU, false},
	}

	for _, tc := range tests {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%q, %q) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestEveryReachableStageHasDefaultStatus(t *testing.T) {
	for _, from := range AllStages() {
		for _, to := range TransitionsFrom(from) {
			if DefaultStatus(to) == "" {
				t.Errorf("stage %q is reachable from %q but has no default status", to, from)
			}
		}
	}
}

func TestIsTerminalStage(t *testing.T) {
	tests := []struct {
		stage Stage
		want  bool
	}{
		{StageTOFU, false},
		{StageMOFU, false},
		{StageBOFU, true},
		{StageColdBucket, false},
		{StageInvalidLeads, true},
	}

	for _, tc := range tests {
		if got := IsTerminalStage(tc.stage); got != tc.want {
			t.Errorf("IsTerminalStage(%q) = %v, want %v", tc.stage, got, tc.want)
		}
	}
}

func TestIsKnownStage(t *testing.T) {
	for _, stage := range AllStages() {
		if !IsKnownStage(stage) {
			t.Errorf("IsKnownStage(%q) = false, want true", stage)
		}
	}
	if IsKnownStage(Stage("tofu")) {
		t.Error("stage names are case-sensitive, lowercase should be unknown")
	}
}
