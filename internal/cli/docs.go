package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// docsCommand manages documents in the configured store.
func (c *CLI) docsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Manage documents in the configured store",
	}

	cmd.AddCommand(c.docsListCommand())
	cmd.AddCommand(c.docsPutCommand())
	cmd.AddCommand(c.docsGetCommand())
	cmd.AddCommand(c.docsRemoveCommand())

	return cmd
}

func (c *CLI) docsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			docs, err := s.List(ctx)
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				c.printInfo("No documents")
				return nil
			}
			for _, d := range docs {
				c.printKeyValue(d.Name, fmt.Sprintf("%d bytes  %s", d.Size, StyleDim.Render(d.Updated.Local().Format("2006-01-02 15:04"))))
			}
			return nil
		},
	}
}

func (c *CLI) docsPutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put NAME FILE",
		Short: "Validate a document file and store it under NAME",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			ser, err := c.serializer()
			if err != nil {
				return err
			}
			res, err := ser.Read(ctx, bytes.NewReader(data))
			if err != nil {
				return err
			}

			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()
			if err := s.Put(ctx, args[0], data); err != nil {
				return err
			}
			c.printSuccess("Stored %s as %s", res.RootPath, args[0])
			c.printStats(fmt.Sprintf("%d objects", res.Objects), fmt.Sprintf("version %d", res.FileVersion))
			return nil
		},
	}
}

func (c *CLI) docsGetCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print or save a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			data, err := s.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if output == "" {
				_, err := c.out.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			c.printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	return cmd
}

func (c *CLI) docsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm NAME...",
		Short: "Delete stored documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			var failed int
			for _, name := range args {
				if err := s.Delete(ctx, name); err != nil {
					c.printError("%s: %v", name, err)
					failed++
					continue
				}
				c.printSuccess("Deleted %s", name)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d deletions failed", failed, len(args))
			}
			return nil
		},
	}
}
