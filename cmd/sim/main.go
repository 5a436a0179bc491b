package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/runner"
	"github.com/zeusync/physics2d/internal/core/systems/drive"
	"github.com/zeusync/physics2d/internal/core/systems/physics"
	"github.com/zeusync/physics2d/internal/core/systems/scene"
	"github.com/zeusync/physics2d/internal/injector"
	"github.com/zeusync/physics2d/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "sim:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		sceneName = flag.String("scene", "fourwheel", "built-in scene: "+strings.Join(scene.Names(), ", "))
		file      = flag.String("file", "", "scene file (.yaml, .yml or .json), overrides -scene")
		steps     = flag.Uint64("steps", 0, "stop after this many steps, 0 runs until interrupted")
		hz        = flag.Float64("hz", 60, "fixed steps per simulated second")
		realtime  = flag.Bool("realtime", false, "pace steps against the wall clock")
		throttle  = flag.String("throttle", "", "hold a key from the start: left or right")
		listen    = flag.String("listen", "", "serve snapshots and controls on this address")
		quicAddr  = flag.String("quic", "", "also serve viewers over QUIC on this address, needs -listen")
		token     = flag.String("token", "", "token required on the control socket")
		level     = flag.String("log-level", "info", "debug, info, warn, error or fatal")
		report    = flag.Bool("report", true, "print the final report as JSON on stdout")
		verify    = flag.Int("verify", 0, "step this many replicas of the scene and compare hashes instead of running")
	)
	flag.Parse()

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *verify > 0 {
		return runVerify(ctx, *sceneName, *file, *verify, *steps, *hz)
	}

	opts := injector.Options{
		Scene:    *sceneName,
		File:     *file,
		LogLevel: lvl,
		Torque:   drive.DefaultTorque,
		Runner: runner.Config{
			Hz:             *hz,
			Steps:          *steps,
			Realtime:       *realtime || *listen != "",
			ReportInterval: 5 * time.Second,
		},
	}
	if *listen != "" {
		opts.Server = server.DefaultServerConfig()
		opts.Server.ListenAddr = *listen
		opts.Server.Token = *token
		opts.Server.QUICAddr = *quicAddr
	}

	app, err := injector.InitializeApp(opts)
	if err != nil {
		return err
	}
	defer func() { _ = app.Logger.Sync() }()

	if *throttle != "" {
		key, err := drive.ParseKey(*throttle)
		if err != nil {
			return err
		}
		if err := app.Runner.Throttle().Press(key); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Runner.Run(gctx) })
	if app.Server != nil {
		// Viewers keep the server up after the step budget is spent.
		g.Go(func() error { return app.Server.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if *report {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(app.Runner.Report())
	}
	return nil
}

func runVerify(ctx context.Context, sceneName, path string, replicas int, steps uint64, hz float64) error {
	if hz <= 0 {
		return runner.ErrInvalidRate
	}
	if steps == 0 {
		steps = uint64(10 * hz)
	}
	build := func() (*physics.World, error) {
		var (
			f   *scene.File
			err error
		)
		if path != "" {
			f, err = scene.LoadFile(path)
		} else {
			f, err = scene.Builtin(sceneName)
		}
		if err != nil {
			return nil, err
		}
		sc, err := f.Build(nil)
		if err != nil {
			return nil, err
		}
		return sc.World, nil
	}
	hash, err := runner.Verify(ctx, build, replicas, steps, 1/hz)
	if err != nil {
		return err
	}
	fmt.Printf("%d replicas agree after %d steps: %016x\n", replicas, steps, hash)
	return nil
}
