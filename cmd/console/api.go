package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// TurnClient talks to the turn API. It remembers the session id handed
// back by the server so every turn after the first continues the same
// session.
type TurnClient struct {
	baseURL   string
	client    *http.Client
	sessionID string
}

func NewTurnClient(baseURL string, client *http.Client) *TurnClient {
	return &TurnClient{baseURL: baseURL, client: client}
}

func testConnection(client *http.Client, baseURL string) bool {
	resp, err := client.Get(baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

// SendTurn posts one turn and streams the resulting chunks onto the
// returned channel. The channel closes when the stream ends; a stream
// failure is delivered as an error chunk so the UI has one path.
func (c *TurnClient) SendTurn(ctx context.Context, req chat.TurnRequest) (<-chan chat.StreamChunk, error) {
	req.SessionID = c.sessionID

	jsonData, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/turn", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("turn failed: %s", errorResp.Error)
	}

	if sid := resp.Header.Get("X-Session-Id"); sid != "" {
		c.sessionID = sid
	}

	chunks := make(chan chat.StreamChunk, 8)
	go func() {
		defer close(chunks)
		defer func() {
			_ = resp.Body.Close()
		}()

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var chunk chat.StreamChunk
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &chunk); err != nil {
				continue
			}
			select {
			case chunks <- chunk:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			chunks <- chat.ErrorChunk("Stream interrupted: " + err.Error())
		}
	}()
	return chunks, nil
}
