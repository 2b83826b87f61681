package models

import (
	"time"

	"github.com/google/uuid"
)

// Workflow groups the execution events of one logical multi-agent run.
type Workflow struct {
	WorkflowID   uuid.UUID `json:"workflow_id" db:"workflow_id"`
	CustomerID   string    `json:"customer_id" db:"customer_id"`
	WorkflowName string    `json:"workflow_name" db:"workflow_name"`
	TaskType     *string   `json:"task_type,omitempty" db:"task_type"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for the Workflow model
func (Workflow) TableName() string {
	return "workflows"
}

// NewWorkflow creates a new Workflow instance
func NewWorkflow(customerID, name string, taskType *string) *Workflow {
	return &Workflow{
		WorkflowID:   uuid.New(),
		CustomerID:   customerID,
		WorkflowName: name,
		TaskType:     taskType,
		CreatedAt:    time.Now().UTC(),
	}
}
