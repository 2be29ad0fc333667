// Package parts owns the canonical representation of message parts: id
// disambiguation for re-keyed server payloads and total extraction of
// tool-state payloads that vary in shape.
package parts

import (
	"fmt"

	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// IDAllocator assigns unique part ids within one message. The first part
// seen for a source id keeps the bare id; later parts sharing it get an
// incrementing "#N" suffix. Full-message sync and incremental streaming
// both allocate through this so a replayed transcript and a live-streamed
// one converge to the same ids.
type IDAllocator struct {
	seen map[string]int
}

func (a *IDAllocator) Assign(sourceID string) string {
	if a.seen == nil {
		a.seen = map[string]int{}
	}
	n := a.seen[sourceID]
	a.seen[sourceID] = n + 1
	if n == 0 {
		return sourceID
	}
	return fmt.Sprintf("%s#%d", sourceID, n)
}

// Normalize rewrites a server-provided part list into the canonical form:
// source ids filled in (falling back to the bare id, then to a synthesized
// type-index key) and ids deduplicated in first-seen order.
func Normalize(raw []types.Part) []types.Part {
	if len(raw) == 0 {
		return nil
	}
	var ids IDAllocator
	out := make([]types.Part, 0, len(raw))
	for i, part := range raw {
		source := part.SourceID
		if source == "" {
			source = part.ID
		}
		if source == "" {
			source = fmt.Sprintf("%s-%d", part.Type, i)
		}
		part.SourceID = source
		part.ID = ids.Assign(source)
		out = append(out, part)
	}
	return out
}
