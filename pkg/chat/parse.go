package chat

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/backroomlabs/backroom-engine/pkg/game"
)

// DMResponse is the structured portion of a narrative generator reply.
// Every field beyond Message is optional; a reply that parses as
// nothing but prose is still valid.
type DMResponse struct {
	Message      string           `json:"message"`
	UpdatedState *game.GameState  `json:"updated_state,omitempty"`
	Event        *game.LogicEvent `json:"event,omitempty"`
	Suggestions  []string         `json:"suggestions,omitempty"`
}

var fencedBlock = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// ExtractJSON pulls a JSON object out of LLM output. Models wrap JSON
// in markdown fences or surround it with prose, so extraction falls
// back through three strategies: parse the whole text, parse the first
// fenced block, parse the outermost brace span. Returns false when no
// strategy yields valid JSON.
func ExtractJSON(text string) (json.RawMessage, bool) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) && strings.HasPrefix(trimmed, "{") {
		return json.RawMessage(trimmed), true
	}

	if m := fencedBlock.FindStringSubmatch(text); m != nil {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return json.RawMessage(candidate), true
		}
	}

	return nil, false
}

// ParseDMResponse interprets raw narrative generator output. Malformed
// or non-JSON output degrades to narrative-only: the raw text becomes
// the message and no structured directives are extracted. This is a
// recovery path, never an error.
func ParseDMResponse(raw string) *DMResponse {
	resp := &DMResponse{Message: strings.TrimSpace(raw)}

	data, ok := ExtractJSON(raw)
	if !ok {
		return resp
	}

	var parsed DMResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return resp
	}
	if parsed.Message == "" {
		parsed.Message = resp.Message
	}
	return &parsed
}

// ParseSuggestions interprets suggestion-step output: either a bare
// JSON string array or an object with a "suggestions" key. Anything
// else yields nil and the caller applies its fallback set.
func ParseSuggestions(raw string) []string {
	trimmed := strings.TrimSpace(raw)

	var list []string
	if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
		return prune(list)
	}

	if data, ok := ExtractJSON(raw); ok {
		var obj struct {
			Suggestions []string `json:"suggestions"`
		}
		if err := json.Unmarshal(data, &obj); err == nil {
			return prune(obj.Suggestions)
		}
	}

	if m := fencedBlock.FindStringSubmatch(raw); m != nil {
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &list); err == nil {
			return prune(list)
		}
	}

	return nil
}

func prune(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
