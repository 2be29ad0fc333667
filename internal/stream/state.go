// Package stream holds the transient accumulation for the assistant
// message currently being generated, and the pure reducer that folds
// transport events into it.
package stream

import (
	"fmt"

	"github.com/hao-ai-lab/research-agent-sub004/internal/parts"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// State is the tab-local streaming accumulation. ThinkingContent and
// TextContent always equal the in-order concatenation of the thinking and
// text parts respectively. It has a single writer (the controller, via
// Apply) and is handed to readers only as Clone copies.
type State struct {
	Streaming       bool
	Parts           []types.Part
	ThinkingContent string
	TextContent     string
	ToolCalls       []types.ToolCallState

	ids   parts.IDAllocator
	tools map[string]toolSlot
}

// toolSlot pins a tool source id to its position in both the ordered
// parts sequence and the flattened tool-call set, so status updates
// mutate in place instead of appending.
type toolSlot struct {
	part int
	call int
}

// Reset discards all accumulated content.
func (s *State) Reset(streaming bool) {
	*s = State{Streaming: streaming}
}

// Clone returns a deep copy safe to hand to readers.
func (s *State) Clone() State {
	out := State{
		Streaming:       s.Streaming,
		ThinkingContent: s.ThinkingContent,
		TextContent:     s.TextContent,
	}
	if len(s.Parts) > 0 {
		out.Parts = append([]types.Part(nil), s.Parts...)
	}
	if len(s.ToolCalls) > 0 {
		out.ToolCalls = append([]types.ToolCallState(nil), s.ToolCalls...)
	}
	return out
}

// Seed primes the state from a running stream's snapshot so the view
// shows continuity while attach catches up. Ordered parts win when the
// snapshot provides them; otherwise a thinking-then-text fallback is
// built from the flattened strings. Seeded content is a rendering seed
// only; the post-completion re-fetch remains authoritative.
func (s *State) Seed(snap *types.ActiveStreamSnapshot) {
	s.Reset(true)
	if snap == nil {
		return
	}
	if len(snap.Parts) > 0 {
		for _, part := range parts.Normalize(snap.Parts) {
			s.adopt(part)
		}
		return
	}
	if snap.Thinking != "" {
		s.adopt(types.Part{
			SourceID: fmt.Sprintf("%s-0", types.PartThinking),
			Type:     types.PartThinking,
			Content:  snap.Thinking,
		})
	}
	if snap.Text != "" {
		s.adopt(types.Part{
			SourceID: fmt.Sprintf("%s-%d", types.PartText, len(s.Parts)),
			Type:     types.PartText,
			Content:  snap.Text,
		})
	}
}

func (s *State) adopt(part types.Part) {
	part.ID = s.ids.Assign(part.SourceID)
	s.Parts = append(s.Parts, part)
	switch part.Type {
	case types.PartText:
		s.TextContent += part.Content
	case types.PartThinking:
		s.ThinkingContent += part.Content
	case types.PartTool:
		if s.tools == nil {
			s.tools = map[string]toolSlot{}
		}
		call := types.ToolCallState{
			ID:          part.SourceID,
			Name:        part.ToolName,
			Description: part.Description,
			State:       part.State,
			Input:       part.Input,
			Output:      part.Output,
			StartedAt:   part.StartedAt,
			EndedAt:     part.EndedAt,
			DurationMs:  part.DurationMs,
		}
		// one flattened entry per source id, even when the ordered
		// sequence keeps re-keyed duplicates as separate parts
		if slot, ok := s.tools[part.SourceID]; ok {
			s.ToolCalls[slot.call] = call
			return
		}
		s.ToolCalls = append(s.ToolCalls, call)
		s.tools[part.SourceID] = toolSlot{part: len(s.Parts) - 1, call: len(s.ToolCalls) - 1}
	}
}
