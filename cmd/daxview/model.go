package main

import (
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/daxsystems/dax/cmd/daxview/keytree"
	"github.com/daxsystems/dax/cmd/daxview/valuetable"
	"github.com/daxsystems/dax/dax"
)

var paneStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

// model is the explorer's top-level Bubble Tea model: a keytree.Item list
// on the left, a valuetable detail pane on the right.
type model struct {
	tree *dax.Tree
	list list.Model

	width, height int
	status        string
}

func newModel(tree *dax.Tree) model {
	return model{tree: tree, list: keytree.New(tree, 0, 0)}
}

// clearStatusMsg clears the status line a couple seconds after a copy, the
// same fade-out the teacher's explorer uses for its own status messages.
type clearStatusMsg struct{}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width/2-2, m.height-2)
		return m, nil
	case clearStatusMsg:
		m.status = ""
		return m, nil
	case clipboardResultMsg:
		if msg.ok {
			m.status = "path copied to clipboard"
		} else {
			m.status = "failed to copy path"
		}
		return m, tea.Tick(2*time.Second, func(time.Time) tea.Msg { return clearStatusMsg{} })
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "y":
			return m, m.copySelectedPath()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// copySelectedPath copies the selected node's path to the system clipboard,
// grounded on the teacher explorer's own copy-to-clipboard binding.
func (m model) copySelectedPath() tea.Cmd {
	it, ok := m.list.SelectedItem().(keytree.Item)
	if !ok {
		return nil
	}
	return func() tea.Msg {
		if err := clipboard.WriteAll(it.Path); err != nil {
			return clipboardResultMsg{ok: false}
		}
		return clipboardResultMsg{ok: true}
	}
}

type clipboardResultMsg struct{ ok bool }

func (m model) View() string {
	left := paneStyle.Width(m.width/2 - 2).Height(m.height - 2).Render(m.list.View())

	detail := "select a node"
	if it, ok := m.list.SelectedItem().(keytree.Item); ok {
		detail = valuetable.Render(m.tree, it.Id, it.Path)
	}
	right := paneStyle.Width(m.width/2 - 2).Height(m.height - 2).Render(detail)

	view := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	if m.status != "" {
		view += "\n" + m.status
	}
	return view
}
