package client

import "github.com/hao-ai-lab/research-agent-sub004/internal/types"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Version string `json:"version,omitempty"`
}

type SessionsResponse struct {
	Sessions []types.SessionSummary `json:"sessions"`
}

type ChatRequest struct {
	Content string `json:"content"`
	Mode    string `json:"mode,omitempty"`
}
