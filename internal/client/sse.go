package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hao-ai-lab/research-agent-sub004/internal/logging"
	"github.com/hao-ai-lab/research-agent-sub004/internal/types"
)

// streamChannelBuffer absorbs short render stalls in consumers without
// letting the HTTP read goroutine run far ahead.
const streamChannelBuffer = 256

// StreamChat submits a user message and opens the event stream for the
// resulting generation. The returned cancel func aborts consumption; the
// channel closes when the stream ends for any reason.
func (c *Client) StreamChat(ctx context.Context, sessionID, content, mode string) (<-chan types.StreamEvent, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, errors.New("session id is required")
	}
	body, err := json.Marshal(ChatRequest{Content: content, Mode: mode})
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	endpoint := fmt.Sprintf("%s/api/sessions/%s/chat", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		cancel()
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	ch, err := c.openStream(ctx, req, sessionID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// StreamSession resumes consumption of a stream already running on the
// server, starting after the given sequence cursor. runID, when known,
// pins the resume to a specific generation.
func (c *Client) StreamSession(ctx context.Context, sessionID string, fromSeq int64, runID string) (<-chan types.StreamEvent, func(), error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, nil, errors.New("session id is required")
	}

	query := url.Values{}
	query.Set("from_seq", strconv.FormatInt(fromSeq, 10))
	if runID = strings.TrimSpace(runID); runID != "" {
		query.Set("run_id", runID)
	}

	ctx, cancel := context.WithCancel(ctx)
	endpoint := fmt.Sprintf("%s/api/sessions/%s/stream?%s", c.baseURL, sessionID, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		cancel()
		return nil, nil, err
	}

	ch, err := c.openStream(ctx, req, sessionID)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	return ch, cancel, nil
}

// openStream issues the request and spawns the SSE reader. Events are
// delivered strictly in arrival order; the send blocks (rather than
// dropping) so the consumer sees every event the server emitted.
func (c *Client) openStream(ctx context.Context, req *http.Request, sessionID string) (<-chan types.StreamEvent, error) {
	req.Header.Set("Accept", "text/event-stream")

	// streams outlive any sane request timeout, so skip the shared client
	httpClient := &http.Client{Transport: c.http.Transport}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	log := c.log.With(logging.F("session_id", sessionID))
	log.Debug("stream open", logging.F("url", req.URL.Path))

	ch := make(chan types.StreamEvent, streamChannelBuffer)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		count := 0
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		var dataLines []string

		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				if len(dataLines) == 0 {
					continue
				}
				payload := strings.Join(dataLines, "\n")
				dataLines = dataLines[:0]
				var event types.StreamEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					log.Warn("stream payload discarded", logging.F("error", err))
					continue
				}
				select {
				case ch <- event:
					count++
				case <-ctx.Done():
					return
				}
				continue
			}
			if strings.HasPrefix(line, "data:") {
				dataLines = append(dataLines, strings.TrimSpace(line[len("data:"):]))
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			log.Warn("stream read error", logging.F("error", err))
		}
		log.Debug("stream close", logging.F("events", count))
	}()

	return ch, nil
}
