// Package tui is the terminal dashboard: a task list pane and a chat widget
// over the task store client and the chat channel. Bubbletea's message loop
// gives the single-threaded, event-driven execution model the coordination
// contract assumes: network calls run as commands, results come back as
// messages, nothing blocks the loop.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskdeck/taskdeck/internal/bus"
	"github.com/taskdeck/taskdeck/internal/chat"
	"github.com/taskdeck/taskdeck/internal/domain"
	"github.com/taskdeck/taskdeck/internal/store"
	"github.com/taskdeck/taskdeck/internal/taskapi"
)

type focusArea int

const (
	focusTasks focusArea = iota
	focusNewTask
	focusChat
)

// Deps are the collaborators the dashboard consumes. All coordination logic
// lives in them; the model only renders state and dispatches commands.
type Deps struct {
	Tasks  *taskapi.Client
	Chat   *chat.Channel
	Cache  store.Cache
	Bus    *bus.Bus
	UserID string
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	deps Deps

	tasks   []domain.Task
	cursor  int
	loading bool

	chatLog   []domain.ChatMessage
	nextMsgID int64
	chatBusy  bool

	chatInput textinput.Model
	taskInput textinput.Model
	spin      spinner.Model

	focus  focusArea
	status string

	width  int
	height int

	// refreshCh receives one token per bus publish; waitForRefresh turns
	// them into tasksChangedMsg. The subscription is released on quit.
	refreshCh   chan struct{}
	unsubscribe func()

	// fetchSeq numbers fetches as they start; appliedSeq is the newest one
	// applied. Overlapping refreshes are safe: last completed fetch wins,
	// stale completions are discarded.
	fetchSeq   int
	appliedSeq int
}

// NewModel creates the dashboard model and subscribes it to the bus.
func NewModel(deps Deps) *Model {
	chatInput := textinput.New()
	chatInput.Placeholder = "Ask the assistant..."
	chatInput.CharLimit = 2000

	taskInput := textinput.New()
	taskInput.Placeholder = "New task title"
	taskInput.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &Model{
		deps:      deps,
		chatInput: chatInput,
		taskInput: taskInput,
		spin:      sp,
		loading:   true,
		refreshCh: make(chan struct{}, 1),
		chatLog: []domain.ChatMessage{
			{ID: 1, Text: "Hello! I'm your task assistant. How can I help?", Sender: domain.SenderAssistant},
		},
		nextMsgID: 2,
	}

	// A publish only means "refetch"; coalescing pending signals is fine
	// because the refresh always fetches current truth.
	m.unsubscribe = deps.Bus.Subscribe(func() {
		select {
		case m.refreshCh <- struct{}{}:
		default:
		}
	})

	return m
}

// Init starts the first fetch, paints the cached snapshot, and arms the bus
// listener.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadCacheCmd(),
		m.fetchCmd(),
		m.waitForRefresh(),
		m.spin.Tick,
		textinput.Blink,
	)
}

// Update handles one message.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case cachedTasksMsg:
		// Only paint the snapshot if no live fetch has landed yet.
		if m.appliedSeq == 0 && len(msg.tasks) > 0 {
			m.tasks = msg.tasks
			m.status = fmt.Sprintf("showing cached tasks from %s", msg.fetchedAt.Format("15:04:05"))
			m.clampCursor()
		}
		return m, nil

	case tasksFetchedMsg:
		if msg.seq <= m.appliedSeq {
			// A newer fetch already won.
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			// Prior list stays intact; the user can retry from the UI.
			m.status = errorText(msg.err)
			return m, nil
		}
		m.appliedSeq = msg.seq
		m.tasks = msg.tasks
		m.status = ""
		m.clampCursor()
		return m, nil

	case taskMutatedMsg:
		if msg.err != nil && !(msg.verb == "delete" && errors.Is(msg.err, domain.ErrNotFound)) {
			m.status = errorText(msg.err)
			return m, nil
		}
		// Refetch over patch: the assistant may have made unseen changes
		// in the meantime, so never patch the list locally.
		return m, m.fetchCmd()

	case chatReplyMsg:
		m.chatBusy = false
		text := msg.reply
		if msg.err != nil {
			text = chatErrorText(msg.err)
		}
		m.appendChat(text, domain.SenderAssistant)
		return m, nil

	case tasksChangedMsg:
		// The bus carries no payload; refresh unconditionally and keep
		// listening.
		return m, tea.Batch(m.fetchCmd(), m.waitForRefresh())
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.unsubscribe()
		return m, tea.Quit

	case "tab":
		m.cycleFocus()
		return m, nil
	}

	switch m.focus {
	case focusTasks:
		return m.handleTasksKey(msg)
	case focusNewTask:
		return m.handleNewTaskKey(msg)
	case focusChat:
		return m.handleChatKey(msg)
	}
	return m, nil
}

func (m *Model) handleTasksKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		m.unsubscribe()
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case "r":
		m.loading = true
		return m, m.fetchCmd()
	case "a":
		m.focus = focusNewTask
		m.taskInput.Focus()
		return m, textinput.Blink
	case " ", "enter":
		if task, ok := m.selectedTask(); ok {
			return m, m.toggleCmd(task.ID)
		}
	case "d":
		if task, ok := m.selectedTask(); ok {
			return m, m.deleteCmd(task.ID)
		}
	}
	return m, nil
}

func (m *Model) handleNewTaskKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.taskInput.Reset()
		m.taskInput.Blur()
		m.focus = focusTasks
		return m, nil
	case "enter":
		title := strings.TrimSpace(m.taskInput.Value())
		if title == "" {
			m.status = "title cannot be empty"
			return m, nil
		}
		m.taskInput.Reset()
		m.taskInput.Blur()
		m.focus = focusTasks
		return m, m.createCmd(title)
	}

	var cmd tea.Cmd
	m.taskInput, cmd = m.taskInput.Update(msg)
	return m, cmd
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chatInput.Blur()
		m.focus = focusTasks
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.chatInput.Value())
		if text == "" {
			// Rejected before any network call.
			return m, nil
		}
		m.chatInput.Reset()
		m.appendChat(text, domain.SenderUser)
		m.chatBusy = true
		// Nothing stops a second turn while this one is outstanding;
		// each publishes independently and refreshes are idempotent.
		return m, m.sendChatCmd(text)
	}

	var cmd tea.Cmd
	m.chatInput, cmd = m.chatInput.Update(msg)
	return m, cmd
}

func (m *Model) cycleFocus() {
	m.chatInput.Blur()
	m.taskInput.Blur()
	switch m.focus {
	case focusTasks:
		m.focus = focusChat
		m.chatInput.Focus()
	default:
		m.focus = focusTasks
	}
}

func (m *Model) selectedTask() (domain.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return domain.Task{}, false
	}
	return m.tasks[m.cursor], true
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) appendChat(text string, sender domain.Sender) {
	m.chatLog = append(m.chatLog, domain.ChatMessage{
		ID:     m.nextMsgID,
		Text:   text,
		Sender: sender,
	})
	m.nextMsgID++
}

// errorText maps taxonomy errors to what the task pane shows.
func errorText(err error) string {
	var verr *domain.ValidationError
	var berr *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "session expired — run `taskdeck login` and try again"
	case errors.Is(err, domain.ErrConnection):
		return "could not reach the server — check your connection and retry"
	case errors.Is(err, domain.ErrNotFound):
		return "that task no longer exists"
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &berr):
		return berr.Message
	default:
		return err.Error()
	}
}

// chatErrorText maps chat failures to what the assistant bubble shows,
// mirroring the task pane but phrased as a reply.
func chatErrorText(err error) string {
	var berr *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return "Please log out and log back in to use the assistant."
	case errors.Is(err, domain.ErrConnection):
		return "Sorry, I couldn't connect to the server. Please try again."
	case errors.As(err, &berr):
		return "Sorry, something went wrong: " + berr.Message
	default:
		return "Sorry, something went wrong: " + err.Error()
	}
}

// loadCacheCmd paints the last snapshot while the first fetch is in flight.
func (m *Model) loadCacheCmd() tea.Cmd {
	return func() tea.Msg {
		if m.deps.Cache == nil {
			return nil
		}
		tasks, fetchedAt, err := m.deps.Cache.Snapshot(context.Background(), m.deps.UserID)
		if err != nil {
			return nil
		}
		return cachedTasksMsg{tasks: tasks, fetchedAt: fetchedAt}
	}
}

// fetchCmd starts a full list fetch. The sequence number is taken now so
// completions can be ordered later.
func (m *Model) fetchCmd() tea.Cmd {
	m.fetchSeq++
	seq := m.fetchSeq
	return func() tea.Msg {
		tasks, err := m.deps.Tasks.List(context.Background())
		if err == nil && m.deps.Cache != nil {
			// Best-effort: a failed cache write never fails the fetch.
			_ = m.deps.Cache.SaveSnapshot(context.Background(), m.deps.UserID, tasks)
		}
		return tasksFetchedMsg{seq: seq, tasks: tasks, err: err}
	}
}

func (m *Model) createCmd(title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.deps.Tasks.Create(context.Background(), title, nil)
		return taskMutatedMsg{verb: "create", err: err}
	}
}

func (m *Model) toggleCmd(taskID string) tea.Cmd {
	return func() tea.Msg {
		err := m.deps.Tasks.ToggleComplete(context.Background(), taskID)
		return taskMutatedMsg{verb: "toggle", err: err}
	}
}

func (m *Model) deleteCmd(taskID string) tea.Cmd {
	return func() tea.Msg {
		err := m.deps.Tasks.Remove(context.Background(), taskID)
		return taskMutatedMsg{verb: "delete", err: err}
	}
}

func (m *Model) sendChatCmd(text string) tea.Cmd {
	return func() tea.Msg {
		reply, err := m.deps.Chat.Send(context.Background(), text)
		return chatReplyMsg{reply: reply, err: err}
	}
}

// waitForRefresh blocks until the bus fires, then re-arms.
func (m *Model) waitForRefresh() tea.Cmd {
	return func() tea.Msg {
		<-m.refreshCh
		return tasksChangedMsg{}
	}
}
