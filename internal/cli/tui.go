package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	kgio "github.com/matzehuels/keygraph/pkg/io"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

type treeRow struct {
	node  *kgio.TreeNode
	depth int
}

// TreeModel is the bubbletea model of the document browser. Nodes are
// expanded and collapsed by path.
type TreeModel struct {
	Title    string
	Trees    []*kgio.TreeNode
	Expanded map[string]bool
	Cursor   int
	Offset   int
	Height   int
}

// NewTreeModel creates a browser with the roots expanded.
func NewTreeModel(title string, trees []*kgio.TreeNode) TreeModel {
	m := TreeModel{
		Title:    title,
		Trees:    trees,
		Expanded: make(map[string]bool),
		Height:   20,
	}
	for _, t := range trees {
		m.Expanded[t.Path] = true
	}
	return m
}

// rows returns the visible rows in display order.
func (m TreeModel) rows() []treeRow {
	var out []treeRow
	var walk func(n *kgio.TreeNode, depth int)
	walk = func(n *kgio.TreeNode, depth int) {
		out = append(out, treeRow{node: n, depth: depth})
		if !m.Expanded[n.Path] {
			return
		}
		for _, c := range n.Children {
			walk(c, depth+1)
		}
	}
	for _, t := range m.Trees {
		walk(t, 0)
	}
	return out
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	rows := m.rows()
	switch msg := msg.(type) {
	case tea.KeyMsg:
		key := msg.String()
		if key == "q" || key == "ctrl+c" || key == "esc" {
			return m, tea.Quit
		}
		if len(rows) == 0 {
			return m, nil
		}
		switch key {
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(rows)-1 {
				m.Cursor++
			}
		case "enter", " ":
			if n := rows[m.Cursor].node; len(n.Children) > 0 {
				m.Expanded[n.Path] = !m.Expanded[n.Path]
			}
		case "right", "l":
			if n := rows[m.Cursor].node; len(n.Children) > 0 {
				m.Expanded[n.Path] = true
			}
		case "left", "h":
			row := rows[m.Cursor]
			if m.Expanded[row.node.Path] && len(row.node.Children) > 0 {
				m.Expanded[row.node.Path] = false
				break
			}
			for i := m.Cursor - 1; i >= 0; i-- {
				if rows[i].depth < row.depth {
					m.Cursor = i
					break
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}

	m.Cursor = min(m.Cursor, max(len(m.rows())-1, 0))
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ←/→ collapse/expand  ⏎ toggle  q quit"))
	b.WriteString("\n\n")

	rows := m.rows()
	end := min(m.Offset+m.Height, len(rows))
	for i := m.Offset; i < end; i++ {
		row := rows[i]
		marker := "•"
		if len(row.node.Children) > 0 {
			marker = "▸"
			if m.Expanded[row.node.Path] {
				marker = "▾"
			}
		}
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		name := row.node.Type
		if row.node.Name != row.node.Type {
			name += " " + row.node.Name
		}
		line := fmt.Sprintf("%s%s%s %s", cursor, strings.Repeat("  ", row.depth), marker, name)
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if len(rows) > 0 {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %s", m.Cursor+1, len(rows), rows[m.Cursor].node.Path)))
	}
	return b.String()
}
