package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	kgio "github.com/matzehuels/keygraph/pkg/io"
)

func sampleTrees() []*kgio.TreeNode {
	return []*kgio.TreeNode{{
		Path: "/Server/prod", Type: "Server", Name: "prod",
		Children: []*kgio.TreeNode{
			{Path: "/Server/prod/Login/app", Type: "Login", Name: "app"},
			{
				Path: "/Server/prod/Database/sales", Type: "Database", Name: "sales",
				Children: []*kgio.TreeNode{
					{Path: "/Server/prod/Database/sales/Table/dbo.Orders", Type: "Table", Name: "dbo.Orders"},
				},
			},
		},
	}}
}

func press(m TreeModel, keys ...string) TreeModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(TreeModel)
	}
	return m
}

func TestTreeModelNavigation(t *testing.T) {
	m := NewTreeModel("prod.xml", sampleTrees())
	if n := len(m.rows()); n != 3 {
		t.Fatalf("initial rows = %d, want 3 (root expanded)", n)
	}

	m = press(m, "down", "down", "enter")
	if n := len(m.rows()); n != 4 {
		t.Errorf("rows after expanding database = %d, want 4", n)
	}
	m = press(m, "down")
	if got := m.rows()[m.Cursor].node.Type; got != "Table" {
		t.Errorf("cursor on %s, want Table", got)
	}

	// Left on a leaf jumps to its parent, a second left collapses it.
	m = press(m, "left")
	if got := m.rows()[m.Cursor].node.Name; got != "sales" {
		t.Errorf("cursor on %s, want sales", got)
	}
	m = press(m, "left")
	if n := len(m.rows()); n != 3 {
		t.Errorf("rows after collapse = %d, want 3", n)
	}

	m = press(m, "down", "down", "down")
	if m.Cursor != 2 {
		t.Errorf("cursor = %d, want clamped to 2", m.Cursor)
	}
}

func TestTreeModelView(t *testing.T) {
	m := NewTreeModel("prod.xml", sampleTrees())
	view := m.View()
	for _, want := range []string{"prod.xml", "Server prod", "Login app", "Database sales", "[1/3] /Server/prod"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "dbo.Orders") {
		t.Error("collapsed children must not be shown")
	}
}

func TestTreeModelQuit(t *testing.T) {
	m := NewTreeModel("empty", nil)
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}); cmd != nil {
		t.Error("navigation on an empty tree should be a no-op")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit")
	}
}
