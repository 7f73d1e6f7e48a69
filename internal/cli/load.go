package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kgio "github.com/matzehuels/keygraph/pkg/io"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

func (c *CLI) loadCommand() *cobra.Command {
	var fromStore, asJSON bool

	cmd := &cobra.Command{
		Use:   "load DOCUMENT",
		Short: "Read a document and print its containment tree",
		Long: `Read a document back into linked objects and print the containment tree.

Documents written by an older catalog version are upgraded while reading.
Objects whose paths do not lie below the document root are reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := c.readDocument(ctx, args[0], fromStore)
			if err != nil {
				return err
			}
			e, err := c.discover(ctx, depgraph.IntentSerialize, depgraph.ModeFull, res.Roots())
			if err != nil {
				return err
			}
			trees := kgio.Tree(e)

			if asJSON {
				enc := json.NewEncoder(c.out)
				enc.SetIndent("", "  ")
				return enc.Encode(trees)
			}

			c.printTrees(trees)
			stats := []string{fmt.Sprintf("%d objects", res.Objects), fmt.Sprintf("version %d", res.FileVersion)}
			if res.Upgraded {
				stats = append(stats, "upgraded")
			}
			c.printStats(stats...)
			if n := len(res.Unparented); n > 0 {
				c.printWarning("%d object(s) outside %s", n, res.RootPath)
				for _, u := range res.Unparented {
					if o, ok := u.(depgraph.Object); ok {
						c.printDetail("%s", keychain.Path(o.KeyChain()))
					}
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "read DOCUMENT from the configured store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the tree as JSON")
	return cmd
}
