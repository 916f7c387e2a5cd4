package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/driftworld/turncore/pkg/chat"
	"github.com/driftworld/turncore/pkg/schema"
	"github.com/driftworld/turncore/pkg/state"
)

const (
	chatPanelRatio = 0.75
	inputHeight    = 3
	statusHeight   = 1
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	chatPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	metaPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	playerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	systemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	metaLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true)

	metaValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	gridStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("114"))

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(1, 2)

	selectedOptionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	progressStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))
)

var progressFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Messages delivered back into the Update loop by async commands.
type onboardingStepMsg struct{ step *schema.OnboardingStep }

type sessionCreatedMsg struct{ gs *state.GameState }

type turnResultMsg struct{ resp *chat.TurnResponse }

type gameStateMsg struct{ gs *state.GameState }

type optionsMsg struct{ opts *schema.ActionOptionsResponse }

type errMsg struct{ err error }

type progressTickMsg struct{}

type chatEntry struct {
	role    string // "player", "narrator", "system", "error"
	content string
}

// ConsoleUI is the bubbletea model for the interactive console.
type ConsoleUI struct {
	client  *http.Client
	baseURL string

	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model

	gameState *state.GameState
	entries   []chatEntry

	// Onboarding interview state. The console starts in the interview
	// and flips to play mode once a session exists.
	onboarding   bool
	obHistory    []chat.ChatMessage
	obStep       *schema.OnboardingStep
	obSelection  int

	processing    bool
	progressFrame int
	statusMsg     string

	showQuitModal bool

	width  int
	height int
	ready  bool
}

func NewConsoleUI(client *http.Client, baseURL string) *ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = "What do you do?"
	ta.Focus()
	ta.Prompt = "> "
	ta.CharLimit = 2000
	ta.SetHeight(inputHeight - 2)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	return &ConsoleUI{
		client:     client,
		baseURL:    baseURL,
		textarea:   ta,
		onboarding: true,
		statusMsg:  "connecting...",
	}
}

func (m *ConsoleUI) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, m.fetchOnboardingStep(""), progressTick())
}

func progressTick() tea.Cmd {
	return tea.Tick(120*time.Millisecond, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}

func (m *ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refreshChat()
		m.refreshMeta()

	case tea.KeyMsg:
		if cmd, handled := m.handleKey(msg); handled {
			return m, cmd
		}

	case progressTickMsg:
		if m.processing {
			m.progressFrame = (m.progressFrame + 1) % len(progressFrames)
		}
		cmds = append(cmds, progressTick())

	case onboardingStepMsg:
		m.processing = false
		m.obStep = msg.step
		m.obSelection = 0
		if msg.step.IsComplete && msg.step.FinalConfig != nil {
			m.statusMsg = "creating session..."
			m.processing = true
			cmds = append(cmds, m.createSessionCmd(*msg.step.FinalConfig))
		} else {
			m.obHistory = append(m.obHistory, chat.ChatMessage{
				Role:    chat.ChatRoleAgent,
				Content: msg.step.Question,
			})
			m.statusMsg = "story setup"
		}

	case sessionCreatedMsg:
		m.processing = false
		m.onboarding = false
		m.obStep = nil
		m.gameState = msg.gs
		m.statusMsg = "session " + shortID(msg.gs.ID.String())
		for _, cm := range msg.gs.Messages {
			if cm.Role == chat.ChatRoleAgent {
				m.entries = append(m.entries, chatEntry{role: "narrator", content: cm.Content})
			}
		}
		m.entries = append(m.entries, chatEntry{
			role:    "system",
			content: "Session started. Type your action, or /help for commands.",
		})
		m.refreshChat()
		m.refreshMeta()

	case turnResultMsg:
		m.processing = false
		m.entries = append(m.entries, chatEntry{role: "narrator", content: msg.resp.Message})
		m.statusMsg = fmt.Sprintf("turn %d", msg.resp.TurnCount)
		m.refreshChat()
		if m.gameState != nil {
			cmds = append(cmds, m.refreshStateCmd())
		}

	case gameStateMsg:
		m.gameState = msg.gs
		m.refreshMeta()

	case optionsMsg:
		var b strings.Builder
		b.WriteString("Suggested actions:\n")
		for i, opt := range msg.opts.Options {
			fmt.Fprintf(&b, "  %d. %s (good %d%% / bad %d%%)\n", i+1, opt.Text, opt.GoodChance, opt.BadChance)
		}
		m.processing = false
		m.entries = append(m.entries, chatEntry{role: "system", content: b.String()})
		m.refreshChat()

	case errMsg:
		m.processing = false
		m.entries = append(m.entries, chatEntry{role: "error", content: msg.err.Error()})
		m.statusMsg = "error"
		m.refreshChat()
	}

	var taCmd, chatCmd tea.Cmd
	m.textarea, taCmd = m.textarea.Update(msg)
	m.chatViewport, chatCmd = m.chatViewport.Update(msg)
	cmds = append(cmds, taCmd, chatCmd)

	return m, tea.Batch(cmds...)
}

func (m *ConsoleUI) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.showQuitModal {
		switch msg.String() {
		case "y", "Y", "enter":
			return tea.Quit, true
		case "n", "N", "esc":
			m.showQuitModal = false
			return nil, true
		}
		return nil, true
	}

	switch msg.String() {
	case "ctrl+c", "esc":
		m.showQuitModal = true
		return nil, true

	case "up", "down":
		// Option navigation during select-style onboarding questions.
		if m.onboarding && m.obStep != nil && m.obStep.ControlType == "select" && len(m.obStep.Options) > 0 {
			if msg.String() == "up" && m.obSelection > 0 {
				m.obSelection--
			}
			if msg.String() == "down" && m.obSelection < len(m.obStep.Options)-1 {
				m.obSelection++
			}
			return nil, true
		}

	case "enter":
		if m.processing {
			return nil, true
		}
		if m.onboarding {
			return m.submitOnboardingAnswer(), true
		}
		return m.submitInput(), true
	}

	return nil, false
}

func (m *ConsoleUI) submitOnboardingAnswer() tea.Cmd {
	if m.obStep == nil {
		return nil
	}

	var answer string
	if m.obStep.ControlType == "select" && len(m.obStep.Options) > 0 {
		answer = m.obStep.Options[m.obSelection]
	} else {
		answer = strings.TrimSpace(m.textarea.Value())
		if answer == "" {
			return nil
		}
		m.textarea.Reset()
	}

	m.obHistory = append(m.obHistory, chat.ChatMessage{
		Role:    chat.ChatRoleUser,
		Content: answer,
	})
	m.processing = true
	m.statusMsg = "thinking..."
	return m.fetchOnboardingStep(answer)
}

func (m *ConsoleUI) submitInput() tea.Cmd {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return nil
	}
	m.textarea.Reset()

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.entries = append(m.entries, chatEntry{role: "player", content: input})
	m.processing = true
	m.statusMsg = "narrating..."
	m.refreshChat()
	return m.sendTurnCmd(input)
}

func (m *ConsoleUI) handleCommand(input string) tea.Cmd {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/help":
		m.entries = append(m.entries, chatEntry{role: "system", content: helpText()})
		m.refreshChat()
		return nil

	case "/copy":
		text := m.lastNarration()
		if text == "" {
			m.entries = append(m.entries, chatEntry{role: "system", content: "Nothing to copy yet."})
			m.refreshChat()
			return nil
		}
		if err := clipboard.WriteAll(text); err != nil {
			m.entries = append(m.entries, chatEntry{role: "error", content: "clipboard: " + err.Error()})
		} else {
			m.entries = append(m.entries, chatEntry{role: "system", content: "Copied last narration to clipboard."})
		}
		m.refreshChat()
		return nil

	case "/options":
		if m.gameState == nil {
			return nil
		}
		m.processing = true
		m.statusMsg = "fetching options..."
		return m.fetchOptionsCmd()

	case "/state":
		if m.gameState == nil {
			return nil
		}
		return m.refreshStateCmd()

	case "/quit":
		m.showQuitModal = true
		return nil

	default:
		m.entries = append(m.entries, chatEntry{role: "system", content: "Unknown command. Try /help."})
		m.refreshChat()
		return nil
	}
}

func helpText() string {
	return strings.Join([]string{
		"Commands:",
		"  /help     show this help",
		"  /options  suggest five actions for this moment",
		"  /copy     copy the last narration to the clipboard",
		"  /state    refresh the session panel",
		"  /quit     exit the console",
	}, "\n")
}

func (m *ConsoleUI) lastNarration() string {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].role == "narrator" {
			return m.entries[i].content
		}
	}
	return ""
}

// Async commands

func (m *ConsoleUI) fetchOnboardingStep(answer string) tea.Cmd {
	history := make([]chat.ChatMessage, len(m.obHistory))
	copy(history, m.obHistory)
	return func() tea.Msg {
		step, err := nextOnboardingStep(m.client, m.baseURL, history, answer)
		if err != nil {
			return errMsg{err}
		}
		return onboardingStepMsg{step}
	}
}

func (m *ConsoleUI) createSessionCmd(cfg schema.StoryConfig) tea.Cmd {
	return func() tea.Msg {
		gs, err := createSession(m.client, m.baseURL, cfg, "")
		if err != nil {
			return errMsg{err}
		}
		return sessionCreatedMsg{gs}
	}
}

func (m *ConsoleUI) sendTurnCmd(message string) tea.Cmd {
	sessionID := m.gameState.ID
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.baseURL, sessionID, message)
		if err != nil {
			return errMsg{err}
		}
		return turnResultMsg{resp}
	}
}

func (m *ConsoleUI) refreshStateCmd() tea.Cmd {
	sessionID := m.gameState.ID
	return func() tea.Msg {
		gs, err := getSession(m.client, m.baseURL, sessionID)
		if err != nil {
			return errMsg{err}
		}
		return gameStateMsg{gs}
	}
}

func (m *ConsoleUI) fetchOptionsCmd() tea.Cmd {
	sessionID := m.gameState.ID
	return func() tea.Msg {
		opts, err := getActionOptions(m.client, m.baseURL, sessionID)
		if err != nil {
			return errMsg{err}
		}
		return optionsMsg{opts}
	}
}

// Layout and rendering

func (m *ConsoleUI) layout() {
	chatWidth := int(float64(m.width) * chatPanelRatio)
	metaWidth := m.width - chatWidth - 4
	panelHeight := m.height - inputHeight - statusHeight - 3

	if !m.ready {
		m.chatViewport = viewport.New(chatWidth, panelHeight)
		m.metaViewport = viewport.New(metaWidth, panelHeight)
	} else {
		m.chatViewport.Width = chatWidth
		m.chatViewport.Height = panelHeight
		m.metaViewport.Width = metaWidth
		m.metaViewport.Height = panelHeight
	}
	m.textarea.SetWidth(m.width - 4)
}

func (m *ConsoleUI) refreshChat() {
	if !m.ready {
		return
	}
	width := m.chatViewport.Width - 2
	if width < 20 {
		width = 20
	}

	var b strings.Builder
	for _, e := range m.entries {
		switch e.role {
		case "player":
			b.WriteString(playerStyle.Render("You: ") + wordwrap.String(e.content, width-5))
		case "narrator":
			b.WriteString(narratorStyle.Render(wordwrap.String(e.content, width)))
		case "system":
			b.WriteString(systemStyle.Render(wordwrap.String(e.content, width)))
		case "error":
			b.WriteString(errorStyle.Render(wordwrap.String(e.content, width)))
		}
		b.WriteString("\n\n")
	}
	m.chatViewport.SetContent(b.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) refreshMeta() {
	if !m.ready {
		return
	}
	m.metaViewport.SetContent(m.metadataContent())
}

func (m *ConsoleUI) metadataContent() string {
	if m.gameState == nil {
		return systemStyle.Render("No session yet.")
	}
	gs := m.gameState

	var b strings.Builder
	writeField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(metaLabelStyle.Render(label) + "\n")
		b.WriteString(metaValueStyle.Render(wordwrap.String(value, m.metaViewport.Width-2)) + "\n\n")
	}

	writeField("Session", shortID(gs.ID.String()))
	writeField("Turn", fmt.Sprintf("%d", gs.TurnCount))

	if loc, ok := gs.Locations[gs.CurrentLocationID]; ok {
		writeField("Location", loc.Name)
	}

	if p, ok := gs.Player(); ok {
		writeField("Player", fmt.Sprintf("%s  HP %d/%d  Gold %d",
			p.Name, p.Stats["hp"], p.Stats["maxHp"], p.Stats["gold"]))
	}

	if gs.PacingState != nil {
		pacing := gs.PacingState.CurrentLevel
		if gs.PacingState.Trend != "" {
			pacing += " (" + gs.PacingState.Trend + ")"
		}
		writeField("Pacing", pacing)
	}

	writeField("Mission", gs.HeavyContext.CurrentMission)
	if len(gs.HeavyContext.ActiveProblems) > 0 {
		writeField("Problems", strings.Join(gs.HeavyContext.ActiveProblems, "; "))
	}

	open := 0
	for _, t := range gs.NarrativeThreads {
		if t.Status != state.ThreadStatusResolved {
			open++
		}
	}
	if open > 0 {
		writeField("Threads", fmt.Sprintf("%d open", open))
	}

	if snap := gs.LatestGridSnapshot(); snap != nil {
		b.WriteString(metaLabelStyle.Render("Map") + "\n")
		b.WriteString(gridStyle.Render(renderGrid(snap)) + "\n")
		for _, e := range snap.Elements {
			b.WriteString(metaValueStyle.Render(fmt.Sprintf("  %s %s", e.Symbol, e.Name)) + "\n")
		}
	}

	return b.String()
}

// renderGrid draws the latest snapshot as a 10x10 character map.
// The player is '@', other characters 'o', elements their symbol.
func renderGrid(snap *state.GridSnapshot) string {
	var cells [state.GridSize][state.GridSize]rune
	for y := 0; y < state.GridSize; y++ {
		for x := 0; x < state.GridSize; x++ {
			cells[y][x] = '·'
		}
	}
	for _, e := range snap.Elements {
		if e.Position.InBounds() {
			cells[e.Position.Y][e.Position.X] = rune(e.Symbol[0])
		}
	}
	for _, cp := range snap.CharacterPositions {
		if !cp.Position.InBounds() {
			continue
		}
		if cp.IsPlayer {
			cells[cp.Position.Y][cp.Position.X] = '@'
		} else {
			cells[cp.Position.Y][cp.Position.X] = 'o'
		}
	}

	var b strings.Builder
	for y := 0; y < state.GridSize; y++ {
		for x := 0; x < state.GridSize; x++ {
			b.WriteRune(cells[y][x])
			b.WriteRune(' ')
		}
		b.WriteRune('\n')
	}
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (m *ConsoleUI) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showQuitModal {
		modal := modalStyle.Render("Leave the story?\n\n  (y) yes   (n) no")
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal)
	}

	if m.onboarding {
		return m.onboardingView()
	}

	chatPanel := chatPanelStyle.Render(m.chatViewport.View())
	metaPanel := metaPanelStyle.Render(m.metaViewport.View())
	panels := lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)

	status := m.statusLine()

	return lipgloss.JoinVertical(lipgloss.Left,
		panels,
		m.textarea.View(),
		status,
	)
}

func (m *ConsoleUI) onboardingView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Story Setup") + "\n\n")

	if m.obStep != nil && m.obStep.Question != "" {
		b.WriteString(wordwrap.String(m.obStep.Question, min(m.width-10, 70)) + "\n\n")

		if m.obStep.ControlType == "select" && len(m.obStep.Options) > 0 {
			for i, opt := range m.obStep.Options {
				cursor := "  "
				line := opt
				if i == m.obSelection {
					cursor = "> "
					line = selectedOptionStyle.Render(opt)
				}
				b.WriteString(cursor + line + "\n")
			}
			b.WriteString("\n" + systemStyle.Render("up/down to choose, enter to confirm"))
		} else {
			b.WriteString(m.textarea.View())
		}
	} else if m.processing {
		b.WriteString(progressStyle.Render(progressFrames[m.progressFrame]) + " thinking...")
	}

	modal := modalStyle.Width(min(m.width-6, 76)).Render(b.String())
	content := lipgloss.Place(m.width, m.height-statusHeight, lipgloss.Center, lipgloss.Center, modal)
	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusLine())
}

func (m *ConsoleUI) statusLine() string {
	status := m.statusMsg
	if m.processing {
		status = progressStyle.Render(progressFrames[m.progressFrame]) + " " + status
	}
	return statusStyle.Render(" " + status)
}
