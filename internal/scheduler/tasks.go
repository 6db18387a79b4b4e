package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskScoreRecalculate = "leads.score.recalculate"

const TaskColdSweep = "leads.cold_sweep"

type ScoreRecalculatePayload struct {
	LeadID string `json:"leadId"`
}

type ColdSweepPayload struct {
	IdleDays int `json:"idleDays"`
}

func NewScoreRecalculateTask(payload ScoreRecalculatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskScoreRecalculate, data), nil
}

func ParseScoreRecalculatePayload(task *asynq.Task) (ScoreRecalculatePayload, error) {
	var payload ScoreRecalculatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ScoreRecalculatePayload{}, err
	}
	return payload, nil
}

func NewColdSweepTask(payload ColdSweepPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskColdSweep, data), nil
}

func ParseColdSweepPayload(task *asynq.Task) (ColdSweepPayload, error) {
	var payload ColdSweepPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ColdSweepPayload{}, err
	}
	return payload, nil
}
