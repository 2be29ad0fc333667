package types

// ToolCallState is the flattened view of one tool invocation in the
// current stream, keyed by source id. Exactly one entry exists per
// distinct source id; later updates overwrite it in place.
type ToolCallState struct {
	ID          string     `json:"id"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	State       ToolStatus `json:"state"`
	Input       string     `json:"input,omitempty"`
	Output      string     `json:"output,omitempty"`
	StartedAt   *int64     `json:"startedAt,omitempty"`
	EndedAt     *int64     `json:"endedAt,omitempty"`
	DurationMs  *int64     `json:"durationMs,omitempty"`
}
