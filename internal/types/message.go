package types

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one persisted transcript entry. Timestamp is seconds since
// epoch, matching the server wire format. Parts, when present, carry the
// ordered per-fragment breakdown; Content and Thinking are the flattened
// views kept for consumers that do not need per-part granularity.
type Message struct {
	ID        string `json:"id,omitempty"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Thinking  string `json:"thinking,omitempty"`
	Parts     []Part `json:"parts,omitempty"`
}
