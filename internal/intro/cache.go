// Package intro memoizes level-entry narration so that re-entering a
// level (or replaying an init event) returns identical text without
// another collaborator call.
package intro

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/prompts"
)

const (
	keyPrefix = "intro:"

	// snippetLen is how much of the level context participates in the
	// cache key. Enough to distinguish levels, small enough to hash
	// cheaply.
	snippetLen = 1000
)

// DefaultTTL for cached intros.
const DefaultTTL = 24 * time.Hour

// Payload is the cached level-entry narration.
type Payload struct {
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// Cache is the idempotency cache for level-entry narration. Backend
// unavailability degrades to always-miss: the collaborator is called
// every time, never a hard error.
type Cache struct {
	cache  services.Cache
	llm    services.LLMService
	logger *slog.Logger
	ttl    time.Duration
}

// NewCache creates an intro cache over the given backend and
// narrative generator.
func NewCache(cache services.Cache, llm services.LLMService, ttl time.Duration, logger *slog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		cache:  cache,
		llm:    llm,
		logger: logger,
		ttl:    ttl,
	}
}

// Key derives the stable cache key from the level id, a context
// snippet, and the prompt version hash. Changing the prompt template
// changes the hash, invalidating stale entries automatically.
func Key(levelID, levelContext, promptHash string) string {
	if len(levelContext) > snippetLen {
		levelContext = levelContext[:snippetLen]
	}
	sum := md5.Sum([]byte(levelID + ":" + levelContext + ":" + promptHash))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// GetOrGenerate returns the cached intro for the key, generating and
// caching it on a miss. Identical keys invoke the collaborator at
// most once while the entry lives.
func (c *Cache) GetOrGenerate(ctx context.Context, levelID, levelContext, promptHash string) (*Payload, error) {
	key := Key(levelID, levelContext, promptHash)

	cached, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Intro cache read failed, falling through to generation",
			"level", levelID, "error", err)
	} else if cached != "" {
		var p Payload
		if err := json.Unmarshal([]byte(cached), &p); err == nil {
			c.logger.Debug("Intro cache hit", "level", levelID)
			return &p, nil
		}
		c.logger.Warn("Intro cache entry corrupt, regenerating", "level", levelID)
	}

	p, err := c.generate(ctx, levelID, levelContext)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(p); err == nil {
		if err := c.cache.Set(ctx, key, string(data), c.ttl); err != nil {
			c.logger.Warn("Intro cache write failed", "level", levelID, "error", err)
		}
	}
	return p, nil
}

// generate asks the collaborator for the intro. Malformed output
// degrades to a truncated-narrative fallback payload.
func (c *Cache) generate(ctx context.Context, levelID, levelContext string) (*Payload, error) {
	c.logger.Info("Intro cache miss, generating", "level", levelID)

	messages := []chat.ChatMessage{{
		Role:    chat.ChatRoleSystem,
		Content: prompts.RenderInitPrompt(levelID, levelContext),
	}}

	raw, err := c.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("intro generation failed: %w", err)
	}

	if data, ok := chat.ExtractJSON(raw); ok {
		var p Payload
		if err := json.Unmarshal(data, &p); err == nil && p.Message != "" {
			return &p, nil
		}
	}

	c.logger.Warn("Intro generation returned invalid JSON, using fallback", "level", levelID)
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return &Payload{
		Message:     fmt.Sprintf("You have entered %s. %s", levelID, raw),
		Suggestions: []string{"Look around"},
	}, nil
}
