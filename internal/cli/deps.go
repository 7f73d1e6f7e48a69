package cli

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/pkg/depgraph"
	kerrors "github.com/matzehuels/keygraph/pkg/errors"
	kgio "github.com/matzehuels/keygraph/pkg/io"
	"github.com/matzehuels/keygraph/pkg/keychain"
	"github.com/matzehuels/keygraph/pkg/render/dot"
)

// Output formats of the deps command.
const (
	formatText = "text"
	formatJSON = "json"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

var depsFormats = []string{formatText, formatJSON, formatDOT, formatSVG}

type depsOptions struct {
	format    string
	intent    string
	mode      string
	output    string
	detailed  bool
	fromStore bool
}

func (o depsOptions) parse() (depgraph.Intent, depgraph.Mode, error) {
	if !slices.Contains(depsFormats, o.format) {
		return 0, 0, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown format %q (want %s)", o.format, strings.Join(depsFormats, ", "))
	}
	intent, ok := depgraph.ParseIntent(o.intent)
	if !ok || intent == depgraph.IntentUnknown {
		return 0, 0, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown intent %q", o.intent)
	}
	mode, ok := depgraph.ParseMode(o.mode)
	if !ok {
		return 0, 0, kerrors.New(kerrors.ErrCodeInvalidInput, "unknown mode %q", o.mode)
	}
	return intent, mode, nil
}

func (c *CLI) depsCommand() *cobra.Command {
	opts := depsOptions{format: formatText, intent: "create", mode: "full"}

	cmd := &cobra.Command{
		Use:   "deps INPUT",
		Short: "Print objects in dependency order",
		Long: `Discover the dependency graph of a model (.toml) or document and print its
objects so that every object follows the objects it depends on.

Formats:
  text  numbered paths in dependency order
  json  nodes and edges (see the io package)
  dot   Graphviz source
  svg   rendered Graphviz diagram`,
		Example: `  keygraph deps model.toml
  keygraph deps prod.xml --intent drop
  keygraph deps model.toml --format svg -o graph.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			intent, mode, err := opts.parse()
			if err != nil {
				return err
			}
			roots, err := c.loadRoots(ctx, args[0], opts.fromStore)
			if err != nil {
				return err
			}
			e, err := c.discover(ctx, intent, mode, roots)
			if err != nil {
				return err
			}

			w := c.out
			if opts.output != "" {
				f, err := os.Create(opts.output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			switch opts.format {
			case formatJSON:
				err = kgio.WriteJSON(e, w)
			case formatDOT:
				_, err = io.WriteString(w, dot.ToDOT(e, dot.Options{Detailed: opts.detailed}))
			case formatSVG:
				spinner := newSpinner(ctx, "Rendering graph...")
				spinner.Start()
				var svg []byte
				svg, err = dot.RenderSVG(ctx, dot.ToDOT(e, dot.Options{Detailed: opts.detailed}))
				spinner.Stop()
				if err == nil {
					_, err = w.Write(svg)
				}
			default:
				err = writeOrder(w, e)
			}
			if err != nil {
				return err
			}
			if opts.output != "" {
				c.printSuccess("Wrote %d objects (%s, %s)", e.Len(), intent, opts.format)
				c.printFile(opts.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: "+strings.Join(depsFormats, ", "))
	cmd.Flags().StringVar(&opts.intent, "intent", opts.intent, "operation the order is computed for (create, drop, serialize, ...)")
	cmd.Flags().StringVar(&opts.mode, "mode", opts.mode, "relations to discover: children, full, propagate, usedby, uses")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "add type and discovery state to diagram labels")
	cmd.Flags().BoolVar(&opts.fromStore, "store", false, "read INPUT from the configured store")
	return cmd
}

// writeOrder prints one numbered path per line; references that order a
// node after a non-parent are listed beneath it.
func writeOrder(w io.Writer, e *depgraph.Engine) error {
	i := 0
	for n := range e.Ordered() {
		i++
		if _, err := fmt.Fprintf(w, "%s  %s\n", StyleNumber.Render(fmt.Sprintf("%3d", i)), keychain.Path(n.KeyChain())); err != nil {
			return err
		}
		for _, a := range n.AncestorEdges() {
			if a.Physical {
				continue
			}
			if _, err := fmt.Fprintf(w, "       %s %s\n", StyleDim.Render("after"), StyleDim.Render(keychain.Path(a.Node.KeyChain()))); err != nil {
				return err
			}
		}
	}
	return nil
}
