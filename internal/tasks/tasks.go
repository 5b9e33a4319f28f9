package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	TypeRunTrial = "trial:run"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	TrialID string `json:"trial_id,omitempty"`
}

// NewRunTrialTask creates a task that executes a pending trial
func NewRunTrialTask(trialID string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		TrialID: trialID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeRunTrial, payload), nil
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
