package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/keygraph/pkg/catalog"
	"github.com/matzehuels/keygraph/pkg/depgraph"
	"github.com/matzehuels/keygraph/pkg/serial"
)

// isModel reports whether a file argument names a TOML model.
func isModel(arg string) bool {
	return strings.EqualFold(filepath.Ext(arg), ".toml")
}

// readDocument reads a document from a file, or from the configured
// store when fromStore is set.
func (c *CLI) readDocument(ctx context.Context, arg string, fromStore bool) (*serial.Result, error) {
	var data []byte
	if fromStore {
		s, err := c.openStore(ctx)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		if data, err = s.Get(ctx, arg); err != nil {
			return nil, err
		}
	} else {
		var err error
		if data, err = os.ReadFile(arg); err != nil {
			return nil, err
		}
	}

	ser, err := c.serializer()
	if err != nil {
		return nil, err
	}
	res, err := ser.Read(ctx, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("document read", "source", arg, "objects", res.Objects, "version", res.FileVersion, "upgraded", res.Upgraded)
	return res, nil
}

// loadRoots returns the root objects of a model or a document.
func (c *CLI) loadRoots(ctx context.Context, arg string, fromStore bool) ([]depgraph.Object, error) {
	if !fromStore && isModel(arg) {
		srv, err := catalog.LoadModel(arg)
		if err != nil {
			return nil, err
		}
		return []depgraph.Object{srv}, nil
	}
	res, err := c.readDocument(ctx, arg, fromStore)
	if err != nil {
		return nil, err
	}
	return res.Roots(), nil
}

// discover builds the dependency graph of roots.
func (c *CLI) discover(ctx context.Context, intent depgraph.Intent, mode depgraph.Mode, roots []depgraph.Object) (*depgraph.Engine, error) {
	return depgraph.Build(ctx, intent, roots, depgraph.WithMode(mode), depgraph.WithLogger(c.Logger))
}
