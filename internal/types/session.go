package types

const StreamStatusRunning = "running"

type SessionSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	MessageCount int    `json:"message_count"`
	CreatedAt    int64  `json:"created_at"`
}

type SessionDetail struct {
	ID           string                `json:"id"`
	Messages     []Message             `json:"messages"`
	ActiveStream *ActiveStreamSnapshot `json:"active_stream,omitempty"`
}

// ActiveStreamSnapshot describes a generation already running on the
// server for a session. Sequence is the monotonic cursor to resume event
// consumption from; Parts (or the flattened Text/Thinking fallback) seed
// the local streaming view until live events take over.
type ActiveStreamSnapshot struct {
	Status   string `json:"status"`
	Sequence int64  `json:"sequence"`
	RunID    string `json:"run_id,omitempty"`
	Parts    []Part `json:"parts,omitempty"`
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}
