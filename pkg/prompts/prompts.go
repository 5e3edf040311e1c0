// Package prompts builds the message lists sent to the narrative
// generator and owns the prompt templates. Template content is
// versioned by hash so downstream caches invalidate automatically when
// wording changes.
package prompts

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// DMSystemPrompt frames the collaborator as the Dungeon Master and
// pins the structured reply contract. The engine tolerates replies
// that ignore the contract (they degrade to narrative-only).
const DMSystemPrompt = `You are the Dungeon Master of a Backrooms survival text adventure.
The player message arrives as a JSON object carrying the full game state
(level, time, attributes, vitals, inventory) plus a "message" field with
the player's latest input or a dice result report.

Respond with a single JSON object:
{
  "message": "second-person narration of what happens",
  "updated_state": { ...full game state, only when it changed... },
  "event": {
    "name": "short situation name",
    "die_type": "d6" | "d20" | "d100",
    "outcomes": [
      {"range": [1, 10], "result": {"content": "what happens", "updates": {"hp_change": -2}}}
    ]
  },
  "suggestions": ["optional next actions"]
}

Only include "event" when the situation genuinely calls for a probability
check. Keep outcome updates to hp_change, sanity_change, new_level,
add_items and remove_items. Never roll dice yourself; the engine rolls
and reports the result back to you.`

// InitPromptTemplate generates the level-entry narration. The level id
// and scraped level context are substituted in.
const InitPromptTemplate = `You are the Dungeon Master of a Backrooms survival text adventure.
The player has just entered %s. Using the level documentation below,
write an atmospheric arrival narration (120-200 words) and propose three
opening actions.

Respond with a single JSON object:
{"message": "...", "suggestions": ["...", "...", "..."]}

Level documentation:
%s`

// SuggestionPrompt asks for the bounded next-action list. The current
// level context and recent narration are supplied as the user message.
const SuggestionPrompt = `You suggest next actions for a Backrooms survival text adventure.
Given the level context and the most recent narration, propose exactly
three short imperative actions the player could take next. Respond with
a JSON string array only, for example: ["Search the desk", "Listen at the door", "Drink almond water"]`

// ContextBudget caps how much level documentation is inlined into the
// init prompt, to stay within token limits.
const ContextBudget = 15000

// InitPromptHash is the version hash for the intro cache key. Editing
// InitPromptTemplate changes the hash and invalidates stale entries.
func InitPromptHash() string {
	sum := md5.Sum([]byte(InitPromptTemplate))
	return hex.EncodeToString(sum[:])
}

// RenderInitPrompt substitutes the level id and (truncated) level
// context into the init template.
func RenderInitPrompt(levelID, levelContext string) string {
	if len(levelContext) > ContextBudget {
		levelContext = levelContext[:ContextBudget]
	}
	return fmt.Sprintf(InitPromptTemplate, levelID, strings.TrimSpace(levelContext))
}
