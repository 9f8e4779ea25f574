package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/taskdeck/taskdeck/internal/domain"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("63"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Strikethrough(true)

	cursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// chatLogLines is how many chat entries the widget shows at once.
const chatLogLines = 8

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("taskdeck"))
	if m.loading {
		b.WriteString("  " + m.spin.View() + "loading")
	}
	b.WriteString("\n\n")

	tasks := m.renderTasks()
	chatPane := m.renderChat()

	if m.width >= 100 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tasks, " ", chatPane))
	} else {
		b.WriteString(tasks + "\n" + chatPane)
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status) + "\n")
	}
	b.WriteString(helpStyle.Render("tab: switch pane · a: add · space: toggle · d: delete · r: refresh · q: quit"))
	return b.String()
}

func (m *Model) renderTasks() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks") + "\n")

	if len(m.tasks) == 0 {
		b.WriteString(helpStyle.Render("no tasks — press a to add one or ask the assistant") + "\n")
	}
	for i, task := range m.tasks {
		marker := "[ ]"
		line := task.Title
		if task.Completed {
			marker = "[x]"
			line = doneStyle.Render(line)
		}
		if task.HasDescription() {
			line += helpStyle.Render(" — " + *task.Description)
		}

		prefix := "  "
		if i == m.cursor && m.focus == focusTasks {
			prefix = cursorStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", prefix, marker, line))
	}

	if m.focus == focusNewTask {
		b.WriteString("\nadd: " + m.taskInput.View() + "\n")
	}

	style := paneStyle
	if m.focus == focusTasks || m.focus == focusNewTask {
		style = focusedPaneStyle
	}
	return style.Width(m.paneWidth()).Render(b.String())
}

func (m *Model) renderChat() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Assistant") + "\n")

	log := m.chatLog
	if len(log) > chatLogLines {
		log = log[len(log)-chatLogLines:]
	}
	for _, msg := range log {
		switch msg.Sender {
		case domain.SenderAssistant:
			b.WriteString(assistantStyle.Render("assistant: ") + msg.Text + "\n")
		default:
			b.WriteString(userStyle.Render("you: ") + msg.Text + "\n")
		}
	}
	if m.chatBusy {
		b.WriteString(m.spin.View() + "thinking...\n")
	}

	b.WriteString("\n" + m.chatInput.View() + "\n")

	style := paneStyle
	if m.focus == focusChat {
		style = focusedPaneStyle
	}
	return style.Width(m.paneWidth()).Render(b.String())
}

func (m *Model) paneWidth() int {
	if m.width >= 100 {
		return m.width/2 - 4
	}
	if m.width > 10 {
		return m.width - 4
	}
	return 60
}
