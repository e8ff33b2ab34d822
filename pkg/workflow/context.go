package workflow

import (
	"encoding/json"
	"fmt"
)

// Envelope is the opaque context blob the engine persists between turns. Each
// workflow decodes it into its own typed context and encodes it back, so only
// the workflow knows the shape while storage stays workflow-agnostic.
type Envelope map[string]interface{}

// DecodeContext unmarshals an envelope into a typed workflow context.
func DecodeContext(env Envelope, out interface{}) error {
	if env == nil {
		return nil
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode workflow context: %w", err)
	}
	return nil
}

// EncodeContext marshals a typed workflow context back into an envelope.
func EncodeContext(in interface{}) (Envelope, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode workflow context: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// SchedulerContext is the typed state of the scheduling workflow.
type SchedulerContext struct {
	SlotOffset int `json:"slot_offset,omitempty"`

	SlotOptions     OptionSet `json:"slot_options,omitempty"`
	FacilityOptions OptionSet `json:"facility_options,omitempty"`
	TaskOptions     OptionSet `json:"task_options,omitempty"`
	AssigneeOptions OptionSet `json:"assignee_options,omitempty"`

	SelectedSlotId       int64  `json:"selected_slot_id,omitempty"`
	SelectedSlotName     string `json:"selected_slot_name,omitempty"`
	SelectedFacilityId   int64  `json:"selected_facility_id,omitempty"`
	SelectedFacilityName string `json:"selected_facility_name,omitempty"`
	SelectedTaskId       int64  `json:"selected_task_id,omitempty"`
	SelectedTaskName     string `json:"selected_task_name,omitempty"`
	SelectedAssigneeId   int64  `json:"selected_assignee_id,omitempty"`
	SelectedAssigneeName string `json:"selected_assignee_name,omitempty"`

	EstimateDuration string `json:"estimate_duration,omitempty"`
}

// UpdateTaskContext is the typed state of the status-update workflow.
type UpdateTaskContext struct {
	TaskOptions OptionSet `json:"task_options,omitempty"`

	SelectedTaskId   int64  `json:"selected_task_id,omitempty"`
	SelectedTaskName string `json:"selected_task_name,omitempty"`
	NewStatus        string `json:"new_status,omitempty"`
}
