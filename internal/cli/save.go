package cli

import (
	"bytes"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/keychain"
)

func (c *CLI) saveCommand() *cobra.Command {
	var output, storeName string

	cmd := &cobra.Command{
		Use:   "save MODEL.toml",
		Short: "Write the document of a TOML model",
		Long: `Build the catalog described by a TOML model and serialize it.

The document is written to --output, stored under --store in the configured
document store, or printed to stdout when neither is given.`,
		Example: `  keygraph save testdata/model.toml -o prod.xml
  keygraph save model.toml --store prod.xml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prog := newProgress(c.Logger)

			srv, err := catalog.LoadModel(args[0])
			if err != nil {
				return err
			}
			ser, err := c.serializer()
			if err != nil {
				return err
			}
			var buf bytes.Buffer
			if err := ser.Write(ctx, &buf, srv); err != nil {
				return err
			}

			if output == "" && storeName == "" {
				_, err := c.out.Write(buf.Bytes())
				return err
			}
			root := keychain.Path(srv.KeyChain())
			if output != "" {
				if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
					return err
				}
				c.printSuccess("Wrote %s", root)
				c.printFile(output)
			}
			if storeName != "" {
				s, err := c.openStore(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := s.Put(ctx, storeName, buf.Bytes()); err != nil {
					return err
				}
				c.printSuccess("Stored %s as %s", root, storeName)
			}
			prog.done("Saved", "root", root, "bytes", buf.Len())
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVar(&storeName, "store", "", "store the document under this name")
	return cmd
}
