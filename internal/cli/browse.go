package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kgio "github.com/matzehuels/keygraph/pkg/io"
)

func (c *CLI) browseCommand() *cobra.Command {
	var fromStore bool

	cmd := &cobra.Command{
		Use:   "browse INPUT",
		Short: "Explore the containment tree of a document or model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			roots, err := c.loadRoots(ctx, args[0], fromStore)
			if err != nil {
				return err
			}
			e, err := c.discover(ctx, depgraph.IntentSerialize, depgraph.ModeFull, roots)
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewTreeModel(args[0], kgio.Tree(e)), tea.WithContext(ctx))
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "read INPUT from the configured store")
	return cmd
}
