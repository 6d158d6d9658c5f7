package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// JobContext is the job-scoped identity shared by every node of one run.
// It is immutable by convention and forked through a JSON round-trip.
type JobContext struct {
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id"`
	JobID      string          `json:"job_id"`
	WorkflowID string          `json:"workflow_id,omitempty"`
	Args       map[string]any  `json:"args,omitempty"`
	Flags      map[string]bool `json:"flags,omitempty"`
}

// NewJobContext creates a job context with a fresh job id.
func NewJobContext(sessionID, userID, workflowID string, args map[string]any) JobContext {
	return JobContext{
		SessionID:  sessionID,
		UserID:     userID,
		JobID:      "job-" + uuid.New().String(),
		WorkflowID: workflowID,
		Args:       args,
		Flags:      make(map[string]bool),
	}
}

// Fork returns an independent copy of the job context.
func (j JobContext) Fork() (JobContext, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return JobContext{}, fmt.Errorf("failed to fork job context: %w", err)
	}

	var forked JobContext

	err = json.Unmarshal(b, &forked)
	if err != nil {
		return JobContext{}, fmt.Errorf("failed to fork job context: %w", err)
	}

	return forked, nil
}
