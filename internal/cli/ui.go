package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	kgio "github.com/matzehuels/keygraph/pkg/io"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleType = lipgloss.NewStyle().Foreground(colorGray)
	styleEdge = lipgloss.NewStyle().Foreground(colorDim)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

func (c *CLI) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *CLI) printSuccess(format string, args ...any) {
	c.println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (c *CLI) printError(format string, args ...any) {
	c.println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (c *CLI) printWarning(format string, args ...any) {
	c.println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func (c *CLI) printInfo(format string, args ...any) {
	c.println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line.
func (c *CLI) printDetail(format string, args ...any) {
	c.println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a file output line.
func (c *CLI) printFile(path string) {
	c.println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func (c *CLI) printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(14)
	c.println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printStats prints counts on a single dim line, e.g. "12 objects · v2".
func (c *CLI) printStats(parts ...string) {
	c.println("  " + StyleDim.Render(strings.Join(parts, " · ")))
}

// =============================================================================
// Trees
// =============================================================================

// nodeLabel renders "Type name", or the type alone for singletons.
func nodeLabel(n *kgio.TreeNode) string {
	if n.Name == n.Type {
		return styleType.Render(n.Type)
	}
	return styleType.Render(n.Type) + " " + StyleValue.Render(n.Name)
}

func renderTree(n *kgio.TreeNode) *tree.Tree {
	t := tree.Root(nodeLabel(n)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(styleEdge).
		RootStyle(StyleTitle)
	for _, ch := range n.Children {
		if len(ch.Children) == 0 {
			t.Child(nodeLabel(ch))
			continue
		}
		t.Child(renderTree(ch))
	}
	return t
}

// printTrees prints each containment tree.
func (c *CLI) printTrees(trees []*kgio.TreeNode) {
	for _, t := range trees {
		c.println(renderTree(t).String())
	}
}
