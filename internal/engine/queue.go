package engine

import (
	"context"
	"strings"

	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
)

// QueueMessage records input submitted while a stream is active. Items
// drain one at a time, in submission order, only after the previous
// stream fully completes. Blank input is dropped.
func (c *Controller) QueueMessage(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	c.mu.Lock()
	c.queue = append(c.queue, content)
	c.mu.Unlock()
}

func (c *Controller) RemoveFromQueue(index int) {
	c.mu.Lock()
	if index >= 0 && index < len(c.queue) {
		c.queue = append(c.queue[:index], c.queue[index+1:]...)
	}
	c.mu.Unlock()
}

func (c *Controller) ClearQueue() {
	c.mu.Lock()
	c.queue = nil
	c.mu.Unlock()
}

func (c *Controller) QueuedMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.queue...)
}

// drainQueue runs after every stream completion. It pops at most one item
// and sends it with the mode current at drain time, not the mode active
// when the item was queued.
func (c *Controller) drainQueue() {
	c.mu.Lock()
	if c.state.Streaming || len(c.queue) == 0 || c.sessionID == "" {
		c.mu.Unlock()
		return
	}
	head := c.queue[0]
	c.queue = append([]string(nil), c.queue[1:]...)
	c.mu.Unlock()

	if err := c.Send(context.Background(), "", head); err != nil {
		c.log.Warn("queued send failed", logging.F("error", err))
	}
}
