package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/spetersoncode/fresco/buffer"
	"github.com/spetersoncode/fresco/client"
	"github.com/spetersoncode/fresco/engine"
)

// Messages delivered through the event channel by client callbacks.
type (
	connectedMsg  struct{ c *client.Client }
	connectErrMsg struct{ err error }
	streamDoneMsg struct{ c *client.Client }

	runStartedMsg  struct{ threadID, runID string }
	runFinishedMsg struct{ threadID, runID string }
	runErrorMsg    struct{ message, code string }

	textStartMsg struct{ messageID, role string }
	textChunkMsg struct{ messageID, content string }
	textDoneMsg  struct{ messageID, content string }

	toolStartMsg  struct{ toolCallID, name string }
	toolResultMsg struct{ toolCallID, result string }
	toolDoneMsg   struct{ call buffer.ToolCall }

	renderTreeMsg struct {
		surfaceID string
		tree      *engine.RenderNode
	}
	surfaceGoneMsg struct{ surfaceID string }

	clientErrMsg struct {
		err     error
		context string
	}
)

type entryKind int

const (
	entryChat entryKind = iota
	entryTool
	entryNote
)

// transcriptEntry is one timeline line. Streaming entries are found by
// id and updated in place as deltas arrive.
type transcriptEntry struct {
	kind    entryKind
	label   string
	id      string
	text    string
	pending bool
}

type model struct {
	cfg    appConfig
	styles styles

	// events carries callback messages from the client's feed goroutine
	// into the Update loop. One channel serves every run.
	events chan tea.Msg

	cli  *client.Client
	busy bool

	transcript []transcriptEntry
	surfaceID  string
	tree       *engine.RenderNode

	timeline viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	statusLine string
	statusErr  bool

	width         int
	height        int
	surfaceWidth  int
	contentHeight int
}

func newModel(cfg appConfig) model {
	st := newStyles()

	ti := textinput.New()
	ti.Placeholder = "prompt for the next run"
	ti.Prompt = "❯ "
	ti.CharLimit = 400
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = st.spinner

	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = true

	return model{
		cfg:        cfg,
		styles:     st,
		events:     make(chan tea.Msg, 256),
		timeline:   vp,
		input:      ti,
		spinner:    sp,
		statusLine: "connecting to " + cfg.endpoint,
		busy:       true,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.connectCmd(m.cfg.prompt),
		waitEventMsg(m.events),
	)
}

// waitEventMsg forwards one message from the event channel. Every
// handled channel message re-arms it, keeping the pump alive.
func waitEventMsg(ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

// connectCmd builds a fresh client for one run and starts its stream.
// Callbacks fire on the feed goroutine and hand off through the event
// channel; when the terminal falls behind, deltas are dropped rather
// than stalling the feed.
func (m model) connectCmd(prompt string) tea.Cmd {
	events := m.events
	endpoint := m.cfg.endpoint
	reg := m.cfg.registry
	return func() tea.Msg {
		send := func(msg tea.Msg) {
			select {
			case events <- msg:
			default:
			}
		}

		body, err := json.Marshal(map[string]string{"prompt": prompt})
		if err != nil {
			return connectErrMsg{err: err}
		}

		c := client.New(client.Config{
			Endpoint: endpoint,
			Body:     body,
			Registry: reg,
			OnRunStarted: func(threadID, runID string) {
				send(runStartedMsg{threadID: threadID, runID: runID})
			},
			OnRunFinished: func(threadID, runID string) {
				send(runFinishedMsg{threadID: threadID, runID: runID})
			},
			OnRunError: func(message, code string) {
				send(runErrorMsg{message: message, code: code})
			},
			OnTextStart: func(messageID, role string) {
				send(textStartMsg{messageID: messageID, role: role})
			},
			OnTextChunk: func(messageID, content, delta string) {
				send(textChunkMsg{messageID: messageID, content: content})
			},
			OnTextComplete: func(messageID, content string) {
				send(textDoneMsg{messageID: messageID, content: content})
			},
			OnToolStart: func(messageID, toolCallID, name string) {
				send(toolStartMsg{toolCallID: toolCallID, name: name})
			},
			OnToolResult: func(messageID, toolCallID, result string) {
				send(toolResultMsg{toolCallID: toolCallID, result: result})
			},
			OnToolEnd: func(messageID, toolCallID string, call buffer.ToolCall) {
				send(toolDoneMsg{call: call})
			},
			OnRenderTree: func(surfaceID string, tree *engine.RenderNode) {
				send(renderTreeMsg{surfaceID: surfaceID, tree: tree})
			},
			OnSurfaceDeleted: func(surfaceID string) {
				send(surfaceGoneMsg{surfaceID: surfaceID})
			},
			OnError: func(err error, context string) {
				send(clientErrMsg{err: err, context: context})
			},
		})

		// The connect context parents the whole stream; Close is the
		// shutdown path, so the stream must not inherit a deadline.
		if err := c.Connect(context.Background()); err != nil {
			return connectErrMsg{err: err}
		}
		return connectedMsg{c: c}
	}
}

// streamDoneCmd resolves when a run's feed goroutine has drained.
func streamDoneCmd(c *client.Client) tea.Cmd {
	return func() tea.Msg {
		<-c.Done()
		return streamDoneMsg{c: c}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case connectedMsg:
		if m.cli != nil {
			m.cli.Close()
		}
		m.cli = msg.c
		m.busy = true
		m.statusErr = false
		m.statusLine = "streaming"
		cmds = append(cmds, streamDoneCmd(msg.c))

	case connectErrMsg:
		m.busy = false
		m.statusErr = true
		m.statusLine = "connect failed"
		m.appendNote("connect failed: " + msg.err.Error())
		m.renderTimeline()

	case streamDoneMsg:
		// A replaced client's Done also lands here; only the live run
		// changes the status.
		if msg.c != m.cli {
			break
		}
		m.busy = false
		if !m.statusErr {
			m.statusLine = "run complete, press enter to start another"
		}

	case runStartedMsg:
		m.appendNote("run " + msg.runID + " started")
		m.renderTimeline()

	case runFinishedMsg:
		m.appendNote("run " + msg.runID + " finished")
		m.renderTimeline()

	case runErrorMsg:
		m.statusErr = true
		m.statusLine = "run error: " + msg.message
		m.appendNote("run error: " + msg.message)
		m.renderTimeline()

	case textStartMsg:
		m.transcript = append(m.transcript, transcriptEntry{
			kind:    entryChat,
			label:   msg.role,
			id:      msg.messageID,
			pending: true,
		})
		m.renderTimeline()

	case textChunkMsg:
		m.updateEntry(entryChat, "assistant", msg.messageID, msg.content, true)
		m.renderTimeline()

	case textDoneMsg:
		m.updateEntry(entryChat, "assistant", msg.messageID, msg.content, false)
		m.renderTimeline()

	case toolStartMsg:
		m.transcript = append(m.transcript, transcriptEntry{
			kind:    entryTool,
			label:   msg.name,
			id:      msg.toolCallID,
			pending: true,
		})
		m.renderTimeline()

	case toolResultMsg:
		m.updateEntry(entryTool, "tool", msg.toolCallID, msg.result, true)
		m.renderTimeline()

	case toolDoneMsg:
		text := msg.call.Args
		if msg.call.Result != "" {
			text = msg.call.Args + " · " + msg.call.Result
		}
		m.updateEntry(entryTool, msg.call.Name, msg.call.ToolCallID, text, false)
		m.renderTimeline()

	case renderTreeMsg:
		m.surfaceID = msg.surfaceID
		m.tree = msg.tree

	case surfaceGoneMsg:
		if msg.surfaceID == m.surfaceID {
			m.tree = nil
		}
		m.appendNote("surface " + msg.surfaceID + " deleted")
		m.renderTimeline()

	case clientErrMsg:
		m.appendNote(fmt.Sprintf("recovered %s error: %v", msg.context, msg.err))
		m.renderTimeline()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		m.renderTimeline()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.cli != nil {
				m.cli.Close()
			}
			return m, tea.Quit
		case "up", "down", "pgup", "pgdown":
			var cmd tea.Cmd
			m.timeline, cmd = m.timeline.Update(msg)
			cmds = append(cmds, cmd)
		case "enter":
			if m.busy {
				m.statusLine = "a run is already streaming"
				break
			}
			prompt := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			m.tree = nil
			m.busy = true
			m.statusErr = false
			m.statusLine = "connecting to " + m.cfg.endpoint
			if prompt != "" {
				m.appendEntry(transcriptEntry{kind: entryChat, label: "user", text: prompt})
			}
			m.renderTimeline()
			cmds = append(cmds, m.connectCmd(prompt))
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	// Anything that arrived through the event channel re-arms the pump.
	switch msg.(type) {
	case runStartedMsg, runFinishedMsg, runErrorMsg,
		textStartMsg, textChunkMsg, textDoneMsg,
		toolStartMsg, toolResultMsg, toolDoneMsg,
		renderTreeMsg, surfaceGoneMsg, clientErrMsg:
		cmds = append(cmds, waitEventMsg(m.events))
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	if m.width == 0 {
		return "starting frescotui..."
	}

	header := m.renderHeader()
	timeline := m.styles.timelinePane.Height(m.contentHeight).Render(
		m.styles.paneTitle.Render("Conversation") + "\n" + m.timeline.View())
	surface := m.styles.surfacePane.Width(m.surfaceWidth).Height(m.contentHeight).Render(
		m.styles.paneTitle.Render("Surface") + "\n" + m.renderSurface())
	body := lipgloss.JoinHorizontal(lipgloss.Top, timeline, surface)
	input := m.styles.inputPane.Width(maxInt(20, m.width-2)).Render(m.input.View())
	footer := m.styles.footer.Render("enter: run · up/down: scroll · esc: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, body, input, footer)
}

func (m model) renderHeader() string {
	left := m.styles.title.Render("fresco") + " " + m.styles.muted.Render(m.cfg.endpoint)
	status := m.styles.status
	if m.statusErr {
		status = m.styles.errorStatus
	}
	line := status.Render(m.statusLine)
	if m.busy {
		line = m.spinner.View() + " " + line
	}
	return m.styles.header.Width(maxInt(20, m.width-2)).Render(left + "\n" + line)
}

func (m model) renderSurface() string {
	if m.tree == nil {
		return m.styles.muted.Render("(no surface yet)")
	}
	return renderNode(m.styles, m.tree, maxInt(8, m.surfaceWidth-4))
}

func (m *model) appendNote(text string) {
	m.appendEntry(transcriptEntry{kind: entryNote, text: text})
}

func (m *model) appendEntry(entry transcriptEntry) {
	m.transcript = append(m.transcript, entry)
}

// updateEntry finds the newest entry with the given id and rewrites its
// text, appending a fresh entry when the start message was dropped.
func (m *model) updateEntry(kind entryKind, label, id, text string, pending bool) {
	for i := len(m.transcript) - 1; i >= 0; i-- {
		if m.transcript[i].id == id && m.transcript[i].id != "" {
			m.transcript[i].text = text
			m.transcript[i].pending = pending
			return
		}
	}
	m.transcript = append(m.transcript, transcriptEntry{
		kind:    kind,
		label:   label,
		id:      id,
		text:    text,
		pending: pending,
	})
}

func (m *model) renderTimeline() {
	width := maxInt(8, m.timeline.Width-1)
	lines := make([]string, 0, len(m.transcript))
	for _, entry := range m.transcript {
		lines = append(lines, m.renderEntry(entry, width))
	}
	m.timeline.SetContent(strings.Join(lines, "\n"))
	m.timeline.GotoBottom()
}

func (m model) renderEntry(entry transcriptEntry, width int) string {
	switch entry.kind {
	case entryChat:
		role, ok := m.styles.chatRole[entry.label]
		if !ok {
			role = m.styles.chatRole["system"]
		}
		text := entry.text
		if entry.pending {
			text += "▌"
		}
		return role.Render(entry.label) + "\n" + m.styles.chatText.Width(width).Render(text) + "\n"
	case entryTool:
		mark := " ✓"
		if entry.pending {
			mark = " …"
		}
		line := m.styles.toolLine.Render("⚙ "+entry.label) + mark
		if entry.text != "" {
			line += "\n" + m.styles.chatText.Width(width).Render(entry.text)
		}
		return line + "\n"
	default:
		return m.styles.note.Width(width).Render("· "+entry.text) + "\n"
	}
}

func (m *model) resize() {
	m.surfaceWidth = clampInt(m.width*2/5, 24, 64)
	m.contentHeight = maxInt(6, m.height-9)
	m.timeline.Width = maxInt(20, m.width-m.surfaceWidth-6)
	m.timeline.Height = maxInt(4, m.contentHeight-1)
	m.input.Width = maxInt(20, m.width-10)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
