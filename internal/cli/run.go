package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/mobtimer/internal/config"
	"github.com/roach88/mobtimer/internal/engine"
	"github.com/roach88/mobtimer/internal/gateway"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Listen  string // overrides the configured listen address
	NATSURL string // overrides the configured NATS URL
	Events  bool   // print every event to stdout
	Start   bool   // start the first turn immediately

	// Ready, if set, receives the gateway address once it is listening
	// (for testing).
	Ready chan<- string
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the timer engine",
		Long: `Start the timer engine.

The stored roster and settings are loaded (and shuffled first when
shuffleMobbersOnStartup is set), then the engine runs until interrupted.
With a listen address it serves WebSocket clients on /ws plus GET /state
and POST /commands; with a NATS URL it publishes events to
<subject>.events.<name> and accepts commands on <subject>.commands.

Examples:
  mobtimer run --listen 127.0.0.1:7331
  mobtimer run --events --start
  mobtimer run --nats nats://127.0.0.1:4222`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "gateway address (overrides config listen)")
	cmd.Flags().StringVar(&opts.NATSURL, "nats", "", "NATS server URL (overrides config nats_url)")
	cmd.Flags().BoolVar(&opts.Events, "events", false, "print events to stdout")
	cmd.Flags().BoolVar(&opts.Start, "start", false, "start the first turn immediately")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if opts.Listen != "" {
		cfg.Listen = opts.Listen
	}
	if opts.NATSURL != "" {
		cfg.NATSURL = opts.NATSURL
	}
	opts.setupLogging(cmd.ErrOrStderr(), cfg)

	p, err := openPersister(cfg)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open state", err)
	}
	defer func() {
		if closeErr := p.Close(); closeErr != nil {
			slog.Error("error closing state", "error", closeErr)
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	eng := newEngine(cfg, p)
	if err := eng.Load(ctx); err != nil {
		return WrapExitError(ExitFailure, "failed to load state", err)
	}
	if eng.State().ShuffleMobbersOnStartup {
		if err := eng.ShuffleMobbers(ctx); err != nil {
			return WrapExitError(ExitFailure, "failed to shuffle mobbers", err)
		}
	}

	if opts.Events {
		eng.Subscribe(eventPrinter(cmd.OutOrStdout(), opts.Format))
	}

	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.NATSURL != "" {
		bridge, err := startBridge(cfg, eng)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start NATS bridge", err)
		}
		defer func() {
			if err := bridge.Close(); err != nil {
				slog.Error("error closing NATS bridge", "error", err)
			}
		}()
	}

	if cfg.Listen != "" {
		shutdown, err := startGateway(cfg, eng, opts.Ready, &wg)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start gateway", err)
		}
		defer shutdown()
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	eng.Enqueue(engine.Initialize{})
	if opts.Start {
		eng.Enqueue(engine.Start{})
	}

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("engine stopped gracefully")
	return nil
}

func startBridge(cfg config.Config, eng *engine.Engine) (*gateway.Bridge, error) {
	nc, err := gateway.DialNATS(cfg.NATSURL)
	if err != nil {
		return nil, err
	}
	bridge := gateway.NewBridge(nc, cfg.NATSSubject, eng)
	if err := bridge.Start(); err != nil {
		nc.Close()
		return nil, err
	}
	eng.Subscribe(bridge.HandleEvent)
	return bridge, nil
}

// startGateway listens on cfg.Listen and serves the hub and HTTP routes
// until the returned shutdown func is called.
func startGateway(cfg config.Config, eng *engine.Engine, ready chan<- string, wg *sync.WaitGroup) (func(), error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, err
	}

	hubCfg := gateway.DefaultConfig()
	hubCfg.AllowedOrigins = cfg.AllowedOrigins
	hub := gateway.NewHub(eng, hubCfg)
	eng.Subscribe(hub.HandleEvent)

	srv := &http.Server{
		Handler:           gateway.NewRouter(eng, hub, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("gateway stopped", "error", err)
		}
	}()

	addr := ln.Addr().String()
	slog.Info("gateway listening", "addr", addr)
	if ready != nil {
		ready <- addr
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("gateway shutdown", "error", err)
		}
		hub.Close()
	}, nil
}

// eventPrinter writes each event on its own line: the JSON envelope in json
// format, "name data" otherwise.
func eventPrinter(w io.Writer, format string) func(engine.Event) {
	return func(ev engine.Event) {
		env, err := engine.EncodeEvent(ev)
		if err != nil {
			slog.Error("failed to encode event", "event", ev.EventName(), "error", err)
			return
		}
		switch {
		case format == "json":
			raw, err := json.Marshal(env)
			if err != nil {
				slog.Error("failed to encode event", "event", env.Event, "error", err)
				return
			}
			fmt.Fprintln(w, string(raw))
		case len(env.Data) == 0:
			fmt.Fprintln(w, env.Event)
		default:
			fmt.Fprintf(w, "%s %s\n", env.Event, env.Data)
		}
	}
}
