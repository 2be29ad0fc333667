package types

type PartType string

const (
	PartText     PartType = "text"
	PartThinking PartType = "thinking"
	PartTool     PartType = "tool"
)

type ToolStatus string

const (
	ToolPending   ToolStatus = "pending"
	ToolRunning   ToolStatus = "running"
	ToolCompleted ToolStatus = "completed"
	ToolError     ToolStatus = "error"
)

// Part is one ordered fragment of a message. ID is unique within the
// message; SourceID is the server-assigned correlation key and may repeat
// when the server re-keys two distinct parts identically.
type Part struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"sourceId"`
	Type        PartType   `json:"type"`
	Content     string     `json:"content,omitempty"`
	ToolName    string     `json:"toolName,omitempty"`
	Description string     `json:"description,omitempty"`
	State       ToolStatus `json:"state,omitempty"`
	Input       string     `json:"input,omitempty"`
	Output      string     `json:"output,omitempty"`
	StartedAt   *int64     `json:"startedAt,omitempty"`
	EndedAt     *int64     `json:"endedAt,omitempty"`
	DurationMs  *int64     `json:"durationMs,omitempty"`
}
