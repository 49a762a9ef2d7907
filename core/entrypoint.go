package core

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"reflect"
	"runtime"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/encodeous/tint"
	"github.com/goccy/go-yaml"
	slogmulti "github.com/samber/slog-multi"

	"github.com/weftmesh/weft/perf"
	"github.com/weftmesh/weft/protocol"
	"github.com/weftmesh/weft/state"
	"github.com/weftmesh/weft/transport"
)

func setupDebugging() {
	if state.DBG_debug {
		go func() {
			// serves expvar and the metric history handler
			log.Println(http.ListenAndServe("0.0.0.0:6060", nil))
		}()
	}
}

func ReadMeshConfig(meshPath string) (*state.MeshCfg, error) {
	var meshCfg state.MeshCfg
	file, err := os.ReadFile(meshPath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, &meshCfg); err != nil {
		return nil, err
	}
	return &meshCfg, nil
}

func ReadNodeConfig(nodePath string) (*state.LocalCfg, error) {
	var nodeCfg state.LocalCfg
	file, err := os.ReadFile(nodePath)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(file, &nodeCfg); err != nil {
		return nil, err
	}
	return &nodeCfg, nil
}

// Options lets callers (mainly tests and simulations) swap collaborators.
type Options struct {
	// Transport defaults to Redis built from LocalCfg.
	Transport transport.Transport
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Deliver defaults to a log line.
	Deliver func(s *state.State, p *protocol.Packet)
	// BindEnv observes the Env before the loop starts.
	BindEnv func(e *state.Env)
}

// Bootstrap loads configuration and runs the node until it is signalled
// to stop.
func Bootstrap(meshPath, nodePath string, verbose bool) error {
	meshCfg, err := ReadMeshConfig(meshPath)
	if err != nil {
		return err
	}
	nodeCfg, err := ReadNodeConfig(nodePath)
	if err != nil {
		return err
	}
	if err := state.MeshConfigValidator(meshCfg); err != nil {
		return err
	}
	if err := state.NodeConfigValidator(meshCfg, nodeCfg); err != nil {
		return err
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return Start(*meshCfg, *nodeCfg, level, Options{})
}

func Start(mcfg state.MeshCfg, lcfg state.LocalCfg, logLevel slog.Level, opts Options) error {
	setupDebugging()
	ctx, cancel := context.WithCancelCause(context.Background())

	dispatch := make(chan func(s *state.State) error, 128)

	handlers := []slog.Handler{
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:        logLevel,
			AddSource:    false,
			CustomPrefix: string(lcfg.Id),
		}),
	}
	if lcfg.LogPath != "" {
		if err := os.MkdirAll(path.Dir(lcfg.LogPath), 0o700); err != nil {
			cancel(nil)
			return err
		}
		f, err := os.OpenFile(lcfg.LogPath, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o700)
		if err != nil {
			cancel(nil)
			return err
		}
		defer f.Close()
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: logLevel}))
	}
	logger := slog.New(slogmulti.Fanout(handlers...))

	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}

	s := state.State{
		Modules:    make(map[string]state.Module),
		Neighbours: make(map[state.NodeId]*state.Neighbour),
		Env: &state.Env{
			Context:         ctx,
			Cancel:          cancel,
			DispatchChannel: dispatch,
			MeshCfg:         mcfg,
			LocalCfg:        lcfg,
			Log:             logger,
			Clock:           clk,
		},
	}

	tr := opts.Transport
	if tr == nil {
		tr = transport.NewRedis(lcfg.Redis, mcfg.ChannelOf(lcfg.Id), logger)
	}

	s.Log.Debug("init modules")
	if err := initModules(&s, tr, opts.Deliver); err != nil {
		Stop(&s)
		return err
	}
	if opts.BindEnv != nil {
		opts.BindEnv(s.Env)
	}
	s.Log.Info("weft node initialized", "channel", mcfg.ChannelOf(lcfg.Id))

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer signal.Stop(c)
		select {
		case <-c:
			s.Cancel(errors.New("received shutdown signal"))
		case <-ctx.Done():
		}
	}()

	return MainLoop(&s, dispatch)
}

func initModules(s *state.State, tr transport.Transport, deliver func(*state.State, *protocol.Packet)) error {
	modules := []state.Module{
		&Router{},
		&LinkState{},
		&NeighbourTracker{},
		&Forwarder{Deliver: deliver},
		&Persistor{},
		&Mesh{Transport: tr},
	}
	for _, module := range modules {
		s.Modules[reflect.TypeOf(module).String()] = module
		if err := module.Init(s); err != nil {
			return err
		}
	}
	return nil
}

func MainLoop(s *state.State, dispatch <-chan func(*state.State) error) error {
	s.Log.Debug("started main loop")
	s.Started.Store(true)
	for {
		select {
		case fun := <-dispatch:
			if fun == nil {
				goto endLoop
			}
			start := time.Now()
			err := fun(s)
			if err != nil {
				s.Log.Error("error occurred during dispatch: ", "error", err)
				s.Cancel(err)
			}
			elapsed := time.Since(start)
			perf.DispatchLatency.Add(float64(elapsed.Microseconds()))
			if elapsed > time.Millisecond*50 {
				s.Log.Warn("dispatch took a long time!", "fun", runtime.FuncForPC(reflect.ValueOf(fun).Pointer()).Name(), "elapsed", elapsed)
			}
		case <-s.Context.Done():
			goto endLoop
		}
	}
endLoop:
	s.Log.Info("stopped main loop", "reason", context.Cause(s.Context).Error())
	Stop(s)
	return nil
}

func Stop(s *state.State) {
	if s.Stopping.Swap(true) {
		return // don't stop twice
	}
	s.Cancel(context.Canceled)
	s.Log.Info("cleaning up modules")
	for moduleName, module := range s.Modules {
		if err := module.Cleanup(s); err != nil {
			s.Log.Error("error occurred during cleanup: ", "module", moduleName, "error", err)
		}
	}
	s.Log.Info("stopped")
}
