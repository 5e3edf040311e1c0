// Package engine drives turn resolution: routing an incoming game
// event to the correct sub-flow, running the generate/dice loop to
// convergence, settling mechanical effects, and closing the turn with
// a state snapshot and suggestions.
//
// The original system expressed this pipeline as a state graph with a
// mutable loop counter; here it is an explicit iterative driver with
// the iteration cap as a local variable, preserving the exact state
// and edge semantics without a graph framework.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/backroomlabs/backroom-engine/internal/intro"
	"github.com/backroomlabs/backroom-engine/internal/levels"
	"github.com/backroomlabs/backroom-engine/internal/services"
	"github.com/backroomlabs/backroom-engine/internal/session"
	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/dice"
	"github.com/backroomlabs/backroom-engine/pkg/game"
	"github.com/backroomlabs/backroom-engine/pkg/prompts"
	"github.com/backroomlabs/backroom-engine/pkg/settle"
)

const (
	// DefaultMaxTurnLoops caps the generate->dice cycle. The dice step
	// clears the pending logic event by construction, but the
	// narrative collaborator is not trusted to always behave, so the
	// cap force-exits to settlement.
	DefaultMaxTurnLoops = 6

	// DefaultTurnMinutes is the in-game time advanced per resolved turn.
	DefaultTurnMinutes = 10

	DefaultLevel = "Level 0"
)

// fallbackSuggestions guarantee the caller never sees zero options.
var fallbackSuggestions = []string{"Look around", "Check inventory"}

// EmitFunc receives typed chunks as they become available during a
// turn. Implementations must not block indefinitely.
type EmitFunc func(chat.StreamChunk)

// Config tunes the engine.
type Config struct {
	MaxTurnLoops int
	TurnMinutes  int
	DefaultLevel string
	LLMTimeout   time.Duration
}

// Engine is the turn resolution pipeline. All collaborators are
// injected at construction; the engine holds no global state.
type Engine struct {
	llm      services.LLMService
	sessions *session.Store
	intros   *intro.Cache
	levels   levels.Source
	dice     dice.Source
	logger   *slog.Logger

	maxLoops     int
	turnMinutes  int
	defaultLevel string
	llmTimeout   time.Duration
}

// New constructs an engine.
func New(llm services.LLMService, sessions *session.Store, intros *intro.Cache, lvls levels.Source, roller dice.Source, cfg Config, logger *slog.Logger) *Engine {
	if cfg.MaxTurnLoops <= 0 {
		cfg.MaxTurnLoops = DefaultMaxTurnLoops
	}
	if cfg.TurnMinutes <= 0 {
		cfg.TurnMinutes = DefaultTurnMinutes
	}
	if cfg.DefaultLevel == "" {
		cfg.DefaultLevel = DefaultLevel
	}
	return &Engine{
		llm:          llm,
		sessions:     sessions,
		intros:       intros,
		levels:       lvls,
		dice:         roller,
		logger:       logger,
		maxLoops:     cfg.MaxTurnLoops,
		turnMinutes:  cfg.TurnMinutes,
		defaultLevel: cfg.DefaultLevel,
		llmTimeout:   cfg.LLMTimeout,
	}
}

// ResolveTurn routes one incoming event through the pipeline, emitting
// chunks as they become available, and returns the session id the turn
// ran under. Collaborator failures abort the turn before any session
// commit; unknown event types terminate quietly with no chunks.
func (e *Engine) ResolveTurn(ctx context.Context, req chat.TurnRequest, emit EmitFunc) (string, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	log := e.logger.With("session_id", sessionID, "event", string(req.Event.Type))

	switch req.Event.Type {
	case game.EventInit:
		return sessionID, e.runInit(ctx, sessionID, req, emit, log)
	case game.EventMessage, game.EventUse, game.EventDrop:
		return sessionID, e.runEvent(ctx, sessionID, req, emit, log)
	default:
		// Forward-incompatible event types end the turn with no
		// effect rather than erroring.
		log.Warn("Unknown event type, terminating turn")
		return sessionID, nil
	}
}

// runInit resets the session and plays the cached level-entry
// narration.
func (e *Engine) runInit(ctx context.Context, sessionID string, req chat.TurnRequest, emit EmitFunc, log *slog.Logger) error {
	gs := req.GameState
	if gs == nil {
		gs = game.NewGameState(e.defaultLevel)
	}
	sess := e.sessions.CreateOrReset(ctx, sessionID, gs)

	levelContext, err := e.levels.Context(gs.Level)
	if err != nil {
		log.Warn("Failed to load level context", "level", gs.Level, "error", err)
		levelContext = ""
	}

	cctx, cancel := e.llmContext(ctx)
	payload, err := e.intros.GetOrGenerate(cctx, gs.Level, levelContext, prompts.InitPromptHash())
	cancel()
	if err != nil {
		return fmt.Errorf("level intro failed: %w", err)
	}

	emit(chat.MessageChunk(payload.Message, chat.SenderDM))
	history := append(sess.Messages, chat.ChatMessage{
		Role:    chat.ChatRoleAgent,
		Content: payload.Message,
	})

	ns, err := gs.DeepCopy()
	if err != nil {
		return err
	}
	ns.Time += e.turnMinutes
	emit(chat.StateChunk(ns))

	suggestions := payload.Suggestions
	if len(suggestions) == 0 {
		suggestions = fallbackSuggestions
	}
	emit(chat.SuggestionsChunk(suggestions))

	e.sessions.Update(ctx, sessionID, history, ns)
	log.Info("Init turn resolved", "level", ns.Level)
	return nil
}

// runEvent handles message/use/drop events: the generate->dice loop,
// residual settlement, the time advance, and suggestions.
func (e *Engine) runEvent(ctx context.Context, sessionID string, req chat.TurnRequest, emit EmitFunc, log *slog.Logger) error {
	input, residual := routeInput(req)

	sess := e.sessions.GetOrCreate(ctx, sessionID, req.GameState)
	gs := sess.GameState
	if req.GameState != nil {
		// The client's snapshot replaces the stored one wholesale.
		gs = req.GameState
	}
	if gs == nil {
		gs = game.NewGameState(e.defaultLevel)
	}

	history := make([]chat.ChatMessage, len(sess.Messages))
	copy(history, sess.Messages)

	var lastResp *chat.DMResponse
	userMsg := input

	// The generate->dice loop. The pending logic event is a local of
	// each iteration, so it cannot leak across iterations; the cap is
	// the defensive guard against a collaborator that proposes an
	// event on every pass.
	for loops := 1; ; loops++ {
		if loops > e.maxLoops {
			log.Warn("Turn loop cap reached, forcing settlement", "max_loops", e.maxLoops)
			break
		}

		messages, err := prompts.New().
			WithGameState(gs).
			WithHistory(history).
			WithUserMessage(userMsg).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build prompt: %w", err)
		}

		cctx, cancel := e.llmContext(ctx)
		raw, err := e.llm.Chat(cctx, messages)
		cancel()
		if err != nil {
			// Surfaced to the transport layer, which owns retries. No
			// partial state is committed.
			return fmt.Errorf("narrative generation failed: %w", err)
		}

		resp := chat.ParseDMResponse(raw)
		lastResp = resp
		if resp.Message != "" {
			emit(chat.MessageChunk(resp.Message, chat.SenderDM))
		}
		history = append(history,
			chat.ChatMessage{Role: chat.ChatRoleUser, Content: userMsg},
			chat.ChatMessage{Role: chat.ChatRoleAgent, Content: resp.Message},
		)

		if resp.UpdatedState != nil {
			gs = resp.UpdatedState
		}

		pending := resp.Event
		if pending == nil {
			break
		}

		feedback, ns := e.resolveDice(pending, gs, emit, log, &history)
		gs = ns
		userMsg = feedback
	}

	// Residual settlement for flows that did not go through dice
	// (drop events remove the item deterministically).
	if !residual.IsZero() {
		ns, delta, err := settle.Apply(gs, residual)
		if err != nil {
			log.Error("Residual settlement failed", "error", err)
		} else {
			gs = ns
			if delta != nil {
				emit(chat.SettlementChunk(delta))
				history = append(history, chat.ChatMessage{
					Role:    chat.ChatRoleSystem,
					Content: delta.Summary(),
				})
			}
		}
	}

	// Summary: advance in-game time and publish the final snapshot.
	ns, err := gs.DeepCopy()
	if err != nil {
		return err
	}
	ns.Time += e.turnMinutes
	gs = ns
	emit(chat.StateChunk(gs))

	emit(chat.SuggestionsChunk(e.suggest(ctx, gs, lastResp, log)))

	e.sessions.Update(ctx, sessionID, history, gs)
	log.Info("Turn resolved", "level", gs.Level, "time", gs.Time)
	return nil
}

// resolveDice runs one dice sub-step: roll, report, match, and apply
// the matched outcome's updates immediately so subsequent narrative
// passes see the mutated state. The pending event is consumed here
// unconditionally, matched or not, which guarantees convergence.
func (e *Engine) resolveDice(pending *game.LogicEvent, gs *game.GameState, emit EmitFunc, log *slog.Logger, history *[]chat.ChatMessage) (string, *game.GameState) {
	roll, outcome := dice.ResolveEvent(e.dice, pending)
	emit(chat.DiceChunk(roll))
	log.Info("Dice resolved", "reason", roll.Reason, "die", string(roll.Type), "result", roll.Result)

	feedback := fmt.Sprintf("Dice Roll Result: [%s] %d. Reason: %s.",
		strings.ToUpper(string(roll.Type)), roll.Result, pending.Name)

	if outcome == nil {
		// A roll in a gap between authored ranges is reported but has
		// no mechanical effect. Intentional; do not "fix".
		return feedback, gs
	}

	if outcome.Result.Content != "" {
		feedback += " Outcome: " + outcome.Result.Content
	}

	if outcome.Result.Updates.IsZero() {
		return feedback, gs
	}

	ns, delta, err := settle.Apply(gs, outcome.Result.Updates)
	if err != nil {
		log.Error("Dice settlement failed", "error", err)
		return feedback, gs
	}
	if delta != nil {
		emit(chat.SettlementChunk(delta))
		*history = append(*history, chat.ChatMessage{
			Role:    chat.ChatRoleSystem,
			Content: delta.Summary(),
		})
	}
	return feedback, ns
}

// suggest produces the bounded next-action list. Preference order:
// suggestions already present in the final narrative reply, a
// dedicated collaborator call, the fixed fallback set. The engine
// never surfaces zero suggestions.
func (e *Engine) suggest(ctx context.Context, gs *game.GameState, lastResp *chat.DMResponse, log *slog.Logger) []string {
	if lastResp != nil && len(lastResp.Suggestions) > 0 {
		return capSuggestions(lastResp.Suggestions)
	}

	levelContext, err := e.levels.Context(gs.Level)
	if err != nil {
		log.Warn("Failed to load level context for suggestions", "error", err)
	}
	if len(levelContext) > 2000 {
		levelContext = levelContext[:2000]
	}

	narration := ""
	if lastResp != nil {
		narration = lastResp.Message
	}

	messages := []chat.ChatMessage{
		{Role: chat.ChatRoleSystem, Content: prompts.SuggestionPrompt},
		{Role: chat.ChatRoleUser, Content: fmt.Sprintf(
			"Level: %s\n\nLevel context:\n%s\n\nMost recent narration:\n%s",
			gs.Level, levelContext, narration)},
	}

	cctx, cancel := e.llmContext(ctx)
	raw, err := e.llm.Chat(cctx, messages)
	cancel()
	if err != nil {
		// By this point narrative and state chunks are already
		// committed, so degrade instead of aborting the turn.
		log.Warn("Suggestion generation failed, using fallback", "error", err)
		return fallbackSuggestions
	}

	if sugs := chat.ParseSuggestions(raw); len(sugs) > 0 {
		return capSuggestions(sugs)
	}
	log.Warn("Suggestion generation returned no usable options, using fallback")
	return fallbackSuggestions
}

// routeInput maps the event to the player input fed to the generator.
// Item events become synthesized directive messages; drop events also
// carry a residual removal applied at the settlement step.
func routeInput(req chat.TurnRequest) (string, *game.Updates) {
	switch req.Event.Type {
	case game.EventUse:
		return fmt.Sprintf("I used item: %s", req.Event.ItemID), nil
	case game.EventDrop:
		qty := req.Event.Quantity
		if qty < 1 {
			qty = 1
		}
		removals := make([]string, qty)
		for i := range removals {
			removals[i] = req.Event.ItemID
		}
		return fmt.Sprintf("I dropped item: %s (x%d)", req.Event.ItemID, qty),
			&game.Updates{RemoveItems: removals}
	default:
		return req.PlayerInput, nil
	}
}

func capSuggestions(sugs []string) []string {
	if len(sugs) > 3 {
		return sugs[:3]
	}
	return sugs
}

// llmContext derives the per-call collaborator context. The request
// context is the parent, so client disconnects cancel in-flight
// generation instead of wasting work.
func (e *Engine) llmContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.llmTimeout > 0 {
		return context.WithTimeout(ctx, e.llmTimeout)
	}
	return context.WithCancel(ctx)
}
