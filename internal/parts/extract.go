package parts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// ToolState is the normalized view of a tool part's wire payload.
type ToolState struct {
	Status      types.ToolStatus
	Description string
	Input       string
	Output      string
	StartedAt   *int64
	EndedAt     *int64
	DurationMs  *int64
}

// ExtractToolState decodes a tool "state" payload, which servers send
// either as a bare status string or as an object carrying input, output,
// timing, and metadata. Malformed or partial payloads degrade to pending
// status with whichever fields were extractable; this never fails.
func ExtractToolState(raw json.RawMessage) ToolState {
	out := ToolState{Status: types.ToolPending}
	if len(raw) == 0 {
		return out
	}

	var status string
	if err := json.Unmarshal(raw, &status); err == nil {
		out.Status = NormalizeStatus(status)
		return out
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return out
	}

	out.Status = NormalizeStatus(asString(obj["status"]))
	input, _ := obj["input"].(map[string]any)
	out.Description = firstNonEmpty(
		asString(input["description"]),
		asString(input["title"]),
		asString(obj["title"]),
	)
	out.Input = Stringify(obj["input"])
	out.Output = Stringify(obj["output"])

	if tm, ok := obj["time"].(map[string]any); ok {
		out.StartedAt = asMillis(tm["start"])
		out.EndedAt = asMillis(tm["end"])
	}
	if out.StartedAt != nil && out.EndedAt != nil && *out.EndedAt >= *out.StartedAt {
		d := *out.EndedAt - *out.StartedAt
		out.DurationMs = &d
	}
	return out
}

// NormalizeStatus folds the status synonyms seen across backends into the
// four canonical tool states; anything unrecognized is pending.
func NormalizeStatus(raw string) types.ToolStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running", "in_progress", "in-progress":
		return types.ToolRunning
	case "completed", "complete", "done", "success":
		return types.ToolCompleted
	case "error", "failed", "failure":
		return types.ToolError
	default:
		return types.ToolPending
	}
}

// Stringify renders a decoded JSON value for display: strings pass
// through, primitives format plainly, objects and arrays pretty-print,
// and null or absent values become the empty string.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// StringifyRaw is Stringify for an undecoded payload.
func StringifyRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return Stringify(value)
}

func asString(value any) string {
	s, _ := value.(string)
	return s
}

func asMillis(value any) *int64 {
	switch v := value.(type) {
	case float64:
		ms := int64(v)
		return &ms
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return &n
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
