package stream

import (
	"errors"
	"fmt"

	"github.com/hao-ai-lab/research-agent-sub004/internal/parts"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// Effect reports what one event contributed, so callers can accumulate
// transcript text and completion outside the state's own bookkeeping.
type Effect struct {
	TextDelta     string
	ThinkingDelta string
	SawTool       bool
	Done          bool
	Err           error
}

// Apply folds one transport event into the state and reports its effect.
// Events are applied strictly in arrival order; unknown event types are
// no-ops so newer servers cannot corrupt older clients.
func (s *State) Apply(ev types.StreamEvent) Effect {
	switch ev.Type {
	case types.EventPartDelta:
		return s.applyDelta(ev)
	case types.EventPartUpdate:
		if ev.PartType == types.StreamPartTool {
			return s.applyTool(ev)
		}
		return Effect{}
	case types.EventSessionStatus:
		if ev.Status == types.SessionStatusIdle {
			return Effect{Done: true}
		}
		return Effect{}
	case types.EventError:
		msg := ev.Message
		if msg == "" {
			msg = "stream reported an error"
		}
		return Effect{Done: true, Err: errors.New(msg)}
	default:
		return Effect{}
	}
}

func (s *State) applyDelta(ev types.StreamEvent) Effect {
	// empty deltas would create spurious zero-length segments
	if ev.Delta == "" {
		return Effect{}
	}
	var typ types.PartType
	switch ev.PartType {
	case types.StreamPartText:
		typ = types.PartText
	case types.StreamPartReasoning:
		typ = types.PartThinking
	default:
		return Effect{}
	}

	idx := s.openPartIndex(typ, ev.ID)
	if idx < 0 {
		source := ev.ID
		if source == "" {
			// synthesized keys use the mapped part type so replayed and
			// live-streamed transcripts agree on ids
			source = fmt.Sprintf("%s-%d", typ, len(s.Parts))
		}
		s.Parts = append(s.Parts, types.Part{
			ID:       s.ids.Assign(source),
			SourceID: source,
			Type:     typ,
		})
		idx = len(s.Parts) - 1
	}
	s.Parts[idx].Content += ev.Delta

	if typ == types.PartText {
		s.TextContent += ev.Delta
		return Effect{TextDelta: ev.Delta}
	}
	s.ThinkingContent += ev.Delta
	return Effect{ThinkingDelta: ev.Delta}
}

// openPartIndex finds the part a delta extends. Deltas without an id
// coalesce with the trailing part of the same type; deltas carrying an id
// extend the most recent part with that source id, so two interleaved id
// streams stay two ordered parts instead of merging or fragmenting.
func (s *State) openPartIndex(typ types.PartType, id string) int {
	if id == "" {
		if n := len(s.Parts); n > 0 && s.Parts[n-1].Type == typ {
			return n - 1
		}
		return -1
	}
	for i := len(s.Parts) - 1; i >= 0; i-- {
		if s.Parts[i].Type == typ && s.Parts[i].SourceID == id {
			return i
		}
	}
	return -1
}

func (s *State) applyTool(ev types.StreamEvent) Effect {
	key := ev.ID
	if key == "" {
		key = ev.Name
	}
	if key == "" {
		key = string(types.PartTool)
	}

	st := parts.ExtractToolState(ev.State)
	// flat wire fields override the nested payload when present
	if ev.ToolStatus != "" {
		st.Status = parts.NormalizeStatus(ev.ToolStatus)
	}
	if len(ev.ToolInput) > 0 {
		st.Input = parts.StringifyRaw(ev.ToolInput)
	}
	if len(ev.ToolOutput) > 0 {
		st.Output = parts.StringifyRaw(ev.ToolOutput)
	}
	if ev.ToolStartedAt != nil {
		st.StartedAt = ev.ToolStartedAt
	}
	if ev.ToolEndedAt != nil {
		st.EndedAt = ev.ToolEndedAt
	}
	if ev.ToolDurationMs != nil {
		st.DurationMs = ev.ToolDurationMs
	} else if st.DurationMs == nil && st.StartedAt != nil && st.EndedAt != nil && *st.EndedAt >= *st.StartedAt {
		d := *st.EndedAt - *st.StartedAt
		st.DurationMs = &d
	}

	if s.tools == nil {
		s.tools = map[string]toolSlot{}
	}
	slot, ok := s.tools[key]
	if !ok {
		// first occurrence claims a position in the ordered sequence;
		// later updates mutate it in place so the call never jumps
		s.Parts = append(s.Parts, types.Part{
			ID:       s.ids.Assign(key),
			SourceID: key,
			Type:     types.PartTool,
		})
		s.ToolCalls = append(s.ToolCalls, types.ToolCallState{ID: key, State: types.ToolPending})
		slot = toolSlot{part: len(s.Parts) - 1, call: len(s.ToolCalls) - 1}
		s.tools[key] = slot
	}

	part := &s.Parts[slot.part]
	call := &s.ToolCalls[slot.call]
	if ev.Name != "" {
		part.ToolName = ev.Name
		call.Name = ev.Name
	}
	if st.Description != "" {
		part.Description = st.Description
		call.Description = st.Description
	}
	part.State = st.Status
	call.State = st.Status
	if st.Input != "" {
		part.Input = st.Input
		call.Input = st.Input
	}
	if st.Output != "" {
		part.Output = st.Output
		call.Output = st.Output
	}
	if st.StartedAt != nil {
		part.StartedAt = st.StartedAt
		call.StartedAt = st.StartedAt
	}
	if st.EndedAt != nil {
		part.EndedAt = st.EndedAt
		call.EndedAt = st.EndedAt
	}
	if st.DurationMs != nil {
		part.DurationMs = st.DurationMs
		call.DurationMs = st.DurationMs
	}
	return Effect{SawTool: true}
}
