package protocol

import "bsr/internal/step"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeStepAdded is broadcast when a new step lands in the ledger
	TypeStepAdded MessageType = "step_added"

	// TypeStepsReplaced is broadcast with the full ordered list after any
	// reorder, removal or project load
	TypeStepsReplaced MessageType = "steps_replaced"

	// TypeRecordingState is broadcast when recording starts or stops
	TypeRecordingState MessageType = "recording_state"

	// TypeSyncError is broadcast when persisting the project failed
	TypeSyncError MessageType = "sync_error"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// StepPayload carries one step for TypeStepAdded. Screenshots are not
// pushed over the socket; the browser fetches them on demand.
type StepPayload struct {
	ID            string `json:"id"`
	Number        int    `json:"number"`
	Text          string `json:"text"`
	HasScreenshot bool   `json:"has_screenshot"`
}

// StepListPayload is the payload for TypeStepsReplaced
type StepListPayload struct {
	Steps []StepPayload `json:"steps"`
}

// RecordingStatePayload is the payload for TypeRecordingState
type RecordingStatePayload struct {
	Recording bool `json:"recording"`
}

// SyncErrorPayload is the payload for TypeSyncError
type SyncErrorPayload struct {
	Error string `json:"error"`
}

// PayloadFor converts a ledger step to its wire form.
func PayloadFor(s *step.Step) StepPayload {
	return StepPayload{
		ID:            s.ID.String(),
		Number:        s.Number,
		Text:          s.Text,
		HasScreenshot: len(s.Screenshot) > 0,
	}
}

// PayloadsFor converts an ordered step list to its wire form.
func PayloadsFor(steps []*step.Step) StepListPayload {
	out := StepListPayload{Steps: make([]StepPayload, 0, len(steps))}
	for _, s := range steps {
		out.Steps = append(out.Steps, PayloadFor(s))
	}
	return out
}
