package types

import "encoding/json"

const (
	EventPartDelta     = "part_delta"
	EventPartUpdate    = "part_update"
	EventSessionStatus = "session_status"
	EventError         = "error"
)

const (
	StreamPartText      = "text"
	StreamPartReasoning = "reasoning"
	StreamPartTool      = "tool"
)

const SessionStatusIdle = "idle"

// StreamEvent is the wire union for both stream transports. Which fields
// are populated depends on Type. State stays raw because servers send it
// either as a bare status string or as a nested object; the parts package
// owns decoding it.
type StreamEvent struct {
	Type           string          `json:"type"`
	PartType       string          `json:"ptype,omitempty"`
	ID             string          `json:"id,omitempty"`
	Delta          string          `json:"delta,omitempty"`
	Name           string          `json:"name,omitempty"`
	State          json.RawMessage `json:"state,omitempty"`
	ToolStatus     string          `json:"tool_status,omitempty"`
	ToolInput      json.RawMessage `json:"tool_input,omitempty"`
	ToolOutput     json.RawMessage `json:"tool_output,omitempty"`
	ToolStartedAt  *int64          `json:"tool_started_at,omitempty"`
	ToolEndedAt    *int64          `json:"tool_ended_at,omitempty"`
	ToolDurationMs *int64          `json:"tool_duration_ms,omitempty"`
	Status         string          `json:"status,omitempty"`
	Message        string          `json:"message,omitempty"`
}
