package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/backroomlabs/backroom-engine/pkg/chat"
	"github.com/backroomlabs/backroom-engine/pkg/game"
)

const (
	AgentName       = "DM"
	PlaceHolderText = "Type your message, or /use <item>, /drop <item> [qty]..."
)

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingBottom(1).
			PaddingLeft(2).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(1).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	dmStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("86"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	diceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	settleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("147"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	suggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	turns        *TurnClient
	gameState    *game.GameState
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	transcript  []string
	suggestions []string

	stream <-chan chat.StreamChunk
	cancel context.CancelFunc
}

type chunkMsg struct {
	chunk chat.StreamChunk
	ok    bool
}

type turnStartedMsg struct {
	stream <-chan chat.StreamChunk
	err    error
}

func NewConsoleUI(cfg *ConsoleConfig, turns *TurnClient) *ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.SetHeight(3)
	ta.CharLimit = chat.MaxMessageLength
	ta.ShowLineNumbers = false

	return &ConsoleUI{
		config:   cfg,
		turns:    turns,
		textarea: ta,
	}
}

func (m *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.startTurn(chat.TurnRequest{
		Event: game.GameEvent{Type: game.EventInit},
	}))
}

// startTurn opens the turn stream. The stream channel is delivered via
// turnStartedMsg; chunks are then pumped one message at a time.
func (m *ConsoleUI) startTurn(req chat.TurnRequest) tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	return func() tea.Msg {
		stream, err := m.turns.SendTurn(ctx, req)
		return turnStartedMsg{stream: stream, err: err}
	}
}

func (m *ConsoleUI) pump() tea.Cmd {
	stream := m.stream
	return func() tea.Msg {
		chunk, ok := <-stream
		return chunkMsg{chunk: chunk, ok: ok}
	}
}

func (m *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case tea.KeyCtrlY:
			_ = clipboard.WriteAll(strings.Join(m.transcript, "\n"))
			return m, nil
		case tea.KeyTab:
			if len(m.suggestions) > 0 && !m.loading {
				m.textarea.SetValue(m.suggestions[0])
				m.suggestions = append(m.suggestions[1:], m.suggestions[0])
			}
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()
			return m, m.submit(input)
		}

	case turnStartedMsg:
		if msg.err != nil {
			m.loading = false
			m.appendLine(errorStyle.Render("Error: " + msg.err.Error()))
			return m, nil
		}
		m.stream = msg.stream
		return m, m.pump()

	case chunkMsg:
		if !msg.ok {
			m.loading = false
			m.stream = nil
			return m, nil
		}
		m.renderChunk(msg.chunk)
		return m, m.pump()
	}

	var (
		taCmd tea.Cmd
		vpCmd tea.Cmd
	)
	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	return m, tea.Batch(taCmd, vpCmd)
}

// submit turns player input into a turn request. Slash commands map to
// item events; everything else is a narrative message.
func (m *ConsoleUI) submit(input string) tea.Cmd {
	m.loading = true
	m.suggestions = nil

	req := chat.TurnRequest{
		Event:       game.GameEvent{Type: game.EventMessage},
		PlayerInput: input,
	}

	fields := strings.Fields(input)
	switch {
	case strings.HasPrefix(input, "/use ") && len(fields) >= 2:
		req = chat.TurnRequest{Event: game.GameEvent{
			Type:   game.EventUse,
			ItemID: strings.Join(fields[1:], " "),
		}}
	case strings.HasPrefix(input, "/drop ") && len(fields) >= 2:
		itemFields := fields[1:]
		qty := 1
		if n, err := strconv.Atoi(itemFields[len(itemFields)-1]); err == nil && len(itemFields) > 1 {
			qty = n
			itemFields = itemFields[:len(itemFields)-1]
		}
		req = chat.TurnRequest{Event: game.GameEvent{
			Type:     game.EventDrop,
			ItemID:   strings.Join(itemFields, " "),
			Quantity: qty,
		}}
	}

	m.appendLine(speakerStyle.Render("You: ") + userStyle.Render(input))
	return m.startTurn(req)
}

func (m *ConsoleUI) renderChunk(c chat.StreamChunk) {
	switch c.Type {
	case chat.ChunkMessage:
		m.appendLine(speakerStyle.Render(AgentName+": ") + dmStyle.Render(c.Text))
	case chat.ChunkDiceRoll:
		if c.Dice != nil {
			m.appendLine(diceStyle.Render(fmt.Sprintf("  [%s] %d  %s",
				strings.ToUpper(string(c.Dice.Type)), c.Dice.Result, c.Dice.Reason)))
		}
	case chat.ChunkSettlement:
		if c.Delta != nil {
			m.appendLine(settleStyle.Render("  " + c.Delta.Summary()))
		}
	case chat.ChunkState:
		m.gameState = c.State
		m.renderMeta()
	case chat.ChunkSuggestions:
		m.suggestions = c.Options
	case chat.ChunkError:
		m.appendLine(errorStyle.Render("Error: " + c.Text))
	}
}

func (m *ConsoleUI) appendLine(line string) {
	m.transcript = append(m.transcript, line, "")
	if m.ready {
		m.chatViewport.SetContent(m.wrapTranscript())
		m.chatViewport.GotoBottom()
	}
}

func (m *ConsoleUI) wrapTranscript() string {
	width := m.chatViewport.Width
	if width <= 0 {
		width = 80
	}
	return wordwrap.String(strings.Join(m.transcript, "\n"), width)
}

func (m *ConsoleUI) renderMeta() {
	if !m.ready || m.gameState == nil {
		return
	}
	gs := m.gameState

	var b strings.Builder
	b.WriteString(titleStyle.Render(gs.Level) + "\n")
	b.WriteString(fmt.Sprintf("Time: %02d:%02d\n\n", gs.Time/60%24, gs.Time%60))
	b.WriteString(fmt.Sprintf("HP:     %d/%d\n", gs.Vitals.HP, gs.Vitals.MaxHP))
	b.WriteString(fmt.Sprintf("Sanity: %d\n\n", gs.Vitals.Sanity))
	b.WriteString(fmt.Sprintf("STR %d  DEX %d  CON %d\n", gs.Attributes.STR, gs.Attributes.DEX, gs.Attributes.CON))
	b.WriteString(fmt.Sprintf("INT %d  WIS %d  CHA %d\n\n", gs.Attributes.INT, gs.Attributes.WIS, gs.Attributes.CHA))

	b.WriteString(titleStyle.Render("Inventory") + "\n")
	empty := true
	for _, item := range gs.Inventory {
		if item == nil {
			continue
		}
		empty = false
		b.WriteString("  " + item.DisplayName() + "\n")
	}
	if empty {
		b.WriteString("  (empty)\n")
	}

	m.metaViewport.SetContent(b.String())
}

func (m *ConsoleUI) layout() {
	metaWidth := m.width / 4
	if metaWidth < 24 {
		metaWidth = 24
	}
	chatWidth := m.width - metaWidth
	bodyHeight := m.height - m.textarea.Height() - 3

	if !m.ready {
		m.chatViewport = viewport.New(chatWidth-4, bodyHeight)
		m.metaViewport = viewport.New(metaWidth-3, bodyHeight)
		m.ready = true
	} else {
		m.chatViewport.Width = chatWidth - 4
		m.chatViewport.Height = bodyHeight
		m.metaViewport.Width = metaWidth - 3
		m.metaViewport.Height = bodyHeight
	}
	m.textarea.SetWidth(chatWidth - 4)

	m.chatViewport.SetContent(m.wrapTranscript())
	m.chatViewport.GotoBottom()
	m.renderMeta()
}

func (m *ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := ""
	if m.loading {
		status = loadingStyle.Render("The DM is thinking...")
	} else if len(m.suggestions) > 0 {
		status = suggestionStyle.Render("Try: " + strings.Join(m.suggestions, "  |  ") + "  (tab to fill)")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		chatPanelStyle.Render(m.chatViewport.View()),
		metaPanelStyle.Render(m.metaViewport.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		status,
		m.textarea.View(),
	)
}
