package injector

import (
	"github.com/google/wire"
	"github.com/pkg/errors"

	"github.com/zeusync/physics2d/internal/core/observability/log"
	"github.com/zeusync/physics2d/internal/core/runner"
	"github.com/zeusync/physics2d/internal/core/systems/drive"
	"github.com/zeusync/physics2d/internal/core/systems/scene"
	"github.com/zeusync/physics2d/internal/server"
)

// Options are the inputs of the sim binary.
type Options struct {
	// Scene names a built-in scene; File, when set, takes precedence.
	Scene    string
	File     string
	LogLevel log.Level
	Torque   float64
	Runner   runner.Config
	Server   server.Config
}

// App is the assembled simulation. Server is nil when no listen address
// is configured, Motor is nil when the scene has no motor wheels.
type App struct {
	Logger *log.Logger
	Scene  *scene.Scene
	Motor  *drive.Motor
	Runner *runner.Runner
	Server *server.Server
}

var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideSceneFile,
	ProvideScene,
	ProvideThrottle,
	ProvideMotor,
	ProvideRunner,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(opts Options) *log.Logger {
	return log.New(opts.LogLevel)
}

func ProvideSceneFile(opts Options) (*scene.File, error) {
	if opts.File != "" {
		return scene.LoadFile(opts.File)
	}
	return scene.Builtin(opts.Scene)
}

func ProvideScene(f *scene.File, logger *log.Logger) (*scene.Scene, error) {
	return f.Build(logger)
}

func ProvideThrottle(opts Options) *drive.Throttle {
	return drive.NewThrottle(opts.Torque)
}

func ProvideMotor(sc *scene.Scene, th *drive.Throttle) (*drive.Motor, error) {
	if len(sc.MotorWheels) == 0 {
		return nil, nil
	}
	m, err := drive.Attach(sc.World, th, sc.MotorWheels)
	return m, errors.Wrap(err, "failed to attach motor")
}

func ProvideRunner(sc *scene.Scene, th *drive.Throttle, opts Options, logger *log.Logger) (*runner.Runner, error) {
	return runner.New(sc.World, th, opts.Runner, logger)
}

func ProvideServer(opts Options, r *runner.Runner, logger *log.Logger) (*server.Server, error) {
	if opts.Server.ListenAddr == "" {
		return nil, nil
	}
	return server.NewServer(opts.Server, r, logger)
}
