package cli

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/matzehuels/keygraph/internal/server"
	"github.com/matzehuels/keygraph/pkg/observability"
	kgprom "github.com/matzehuels/keygraph/pkg/observability/prometheus"
	"github.com/matzehuels/keygraph/pkg/observability/tracing"
)

func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var trace bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the document API over HTTP",
		Long: `Serve the document store over HTTP.

Uploaded documents are read back before they are stored. Metrics are
exposed at /metrics; --trace logs a span for every discovery, document
read, document write and store access at debug level.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			backends := []observability.Hooks{kgprom.NewHooks(reg)}
			if trace {
				tp := tracing.NewLogTracerProvider(c.Logger)
				defer func() { _ = tp.Shutdown(context.WithoutCancel(ctx)) }()
				backends = append(backends, tracing.NewHooks(tp))
			}
			observability.Install(backends...)
			defer observability.Reset()

			docs, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer docs.Close()
			ser, err := c.serializer()
			if err != nil {
				return err
			}

			srv := server.New(docs, ser,
				server.WithLogger(c.Logger),
				server.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
				server.WithMaxDocumentBytes(cfg.Server.MaxDocumentBytes),
			)
			return srv.Run(ctx, cfg.Server)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides the config file)")
	cmd.Flags().BoolVar(&trace, "trace", false, "log a span per operation at debug level")
	return cmd
}
