package commands

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/slotgrid/internal/server"
	"github.com/Sumatoshi-tech/slotgrid/pkg/config"
	"github.com/Sumatoshi-tech/slotgrid/pkg/observability"
	"github.com/Sumatoshi-tech/slotgrid/pkg/schedule"
)

const (
	addrFlag    = "addr"
	preloadFlag = "preload"
)

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve exposes a schedule board over HTTP:

  GET    /slots              list entries (?label= filters)
  POST   /slots              add or update one entry
  PUT    /slots              replace the board with a schedule document
  DELETE /slots?start=&end=  remove the oldest entry spanning exactly [start, end)
  GET    /slots/{key}        one entry
  PUT    /slots/{key}        add or update the entry under key
  DELETE /slots/{key}        remove the entry under key
  GET    /grid               lay out (?start=&end= window, ?format=json|text|html)
  GET    /at?pos=            entries covering a position
  GET    /healthz, /readyz, /metrics`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().String(addrFlag, "", "listen address host:port (overrides server.host and server.port)")
	cmd.Flags().String(preloadFlag, "", "schedule file loaded before serving (overrides board.preload)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	err = applyServeFlags(cmd, cfg)
	if err != nil {
		return err
	}

	providers, err := observability.InitWithWriter(telemetryConfig(cfg, observability.ModeServe), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	logger := providers.Logger

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if shutdownErr != nil {
			logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	board := schedule.NewBoard(schedule.WithLogger(logger), schedule.WithTracer(providers.Tracer))

	tableMetrics, err := observability.NewTableMetrics(providers.Meter, board.Len)
	if err != nil {
		return fmt.Errorf("table metrics: %w", err)
	}

	defer func() {
		closeErr := tableMetrics.Close()
		if closeErr != nil {
			logger.Warn("close table metrics", "error", closeErr)
		}
	}()

	board.Instrument(tableMetrics)

	red, err := observability.NewREDMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("request metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = preload(ctx, board, cfg.Board.Preload)
	if err != nil {
		return err
	}

	srv := server.New(board, server.Options{
		Tracer:  providers.Tracer,
		RED:     red,
		Metrics: providers.MetricsHandler,
		Logger:  logger,
		Render:  renderOptions(cfg),
	})

	return srv.Run(ctx, cfg.Server)
}

func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	if addr, _ := cmd.Flags().GetString(addrFlag); addr != "" {
		host, portRaw, err := net.SplitHostPort(addr)
		if err != nil {
			return fmt.Errorf("--%s: %w", addrFlag, err)
		}

		port, err := strconv.Atoi(portRaw)
		if err != nil {
			return fmt.Errorf("--%s: %w: %q", addrFlag, config.ErrInvalidPort, portRaw)
		}

		cfg.Server.Host = host
		cfg.Server.Port = port
	}

	if path, _ := cmd.Flags().GetString(preloadFlag); path != "" {
		cfg.Board.Preload = path
	}

	err := cfg.Validate()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

func preload(ctx context.Context, board *schedule.Board, path string) error {
	if path == "" {
		return nil
	}

	doc, err := schedule.LoadFile(path)
	if err != nil {
		return fmt.Errorf("preload: %w", err)
	}

	_, err = board.Reconcile(ctx, doc.Slots)
	if err != nil {
		return fmt.Errorf("preload %s: %w", path, err)
	}

	return nil
}
