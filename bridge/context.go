package bridge

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/quadkit/quadhost/audio"
	"github.com/quadkit/quadhost/errors"
	"github.com/quadkit/quadhost/event"
	"github.com/quadkit/quadhost/fetch"
	"github.com/quadkit/quadhost/gl"
	"github.com/quadkit/quadhost/internal/wasmscan"
	"github.com/quadkit/quadhost/plugin"
	"github.com/quadkit/quadhost/quadnet"
	"github.com/quadkit/quadhost/registry"
)

// Context is the bridge. It owns every host-side component the guest can
// reach and is the only place they are wired together.
type Context struct {
	cfg      Config
	log      *zap.Logger
	frontend Frontend

	runtime wazero.Runtime
	runCtx  context.Context

	handles *registry.Table
	objects *registry.ObjectTable
	layer   *gl.Layer
	engine  *audio.Engine
	socket  *quadnet.Socket
	client  *quadnet.Client
	loader  *fetch.Loader
	plugins *plugin.Registry
	loop    *event.Loop

	guest   api.Module
	env     api.Module
	exports guestExports

	width, height int32
	fullscreen    bool
	cursorGrabbed bool
	cursor        string
	clipboard     string
}

// New builds a bridge context over the given graphics backend. The
// capability probe runs here; a missing required capability fails before
// any guest is instantiated. The built-in plugins (graphics, audio,
// network, file, lifecycle, objects) are registered; Register adds more
// before Load.
func New(ctx context.Context, cfg Config, backend gl.Backend, frontend Frontend, log *zap.Logger) (*Context, error) {
	if log == nil {
		log = zap.NewNop()
	}
	cfg = cfg.withDefaults()

	handles := registry.NewTable(log)
	layer, err := gl.New(backend, handles, log)
	if err != nil {
		return nil, err
	}

	c := &Context{
		cfg:      cfg,
		log:      log,
		frontend: frontend,
		runtime:  wazero.NewRuntime(ctx),
		runCtx:   ctx,
		handles:  handles,
		objects:  registry.NewObjectTable(log),
		layer:    layer,
		engine:   audio.NewEngine(cfg.SampleRate, audio.DecodeWAV, log),
		socket:   quadnet.NewSocket(log),
		client:   quadnet.NewClient(log),
		loader:   fetch.NewLoader(log),
		plugins:  plugin.NewRegistry(log),
		width:    cfg.CanvasWidth,
		height:   cfg.CanvasHeight,
	}
	c.loader.Root = cfg.AssetRoot
	c.loop = event.NewLoop(event.Config{
		FPS:    cfg.FPS,
		Scale:  cfg.DPIScale,
		Manual: cfg.ManualLoop,
	}, event.Hooks{
		Deliver:     c.deliver,
		Frame:       c.frame,
		Completions: c.completions,
	}, log)

	builtins := []plugin.Descriptor{
		gl.Plugin(layer, log),
		audio.Plugin(c.engine, log),
		quadnet.Plugin(c.socket, c.client, c.objects, log),
		fetch.Plugin(c.loader, log),
		c.lifecyclePlugin(),
		c.objectPlugin(),
	}
	for _, d := range builtins {
		if err := c.plugins.Add(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Register adds plugins beyond the built-ins. Must happen before Load.
func (c *Context) Register(descs ...plugin.Descriptor) error {
	for _, d := range descs {
		if err := c.plugins.Add(d); err != nil {
			return err
		}
	}
	return nil
}

// Load compiles and instantiates the guest. The merged call table becomes
// the guest's import module; imports no plugin satisfies are stubbed with
// their real signatures so unrelated guest functionality keeps working.
// After instantiation the plugin versions are negotiated, plugin inits
// run and the guest's entry point is called once.
func (c *Context) Load(ctx context.Context, wasmBytes []byte) error {
	c.runCtx = ctx

	table := plugin.NewTable(c.log)
	if err := c.plugins.RegisterAll(table); err != nil {
		return err
	}
	if err := c.stubMissing(table, wasmBytes); err != nil {
		return err
	}

	builder := c.runtime.NewHostModuleBuilder("env")
	for _, f := range table.Funcs() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(f.Handler, f.Params, f.Results).
			Export(f.Name)
	}
	env, err := builder.Instantiate(ctx)
	if err != nil {
		return errors.Wrap(errors.PhaseLink, errors.KindInstantiation, err, "host module")
	}
	c.env = env

	compiled, err := c.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return errors.Wrap(errors.PhaseLoad, errors.KindInvalidData, err, "guest compile")
	}
	guest, err := c.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName("guest"))
	if err != nil {
		return errors.Instantiation(err)
	}
	c.guest = guest
	c.exports = cacheExports(guest)
	if c.exports.frame == nil {
		return errors.New(errors.PhaseLoad, errors.KindMissingFunction).
			Detail("guest exports no frame entry point").Build()
	}

	c.plugins.NegotiateVersions(ctx, guest)
	if err := c.plugins.InitAll(ctx, guest); err != nil {
		return err
	}

	c.call(c.exports.main, "main")
	return nil
}

// stubMissing fills call table gaps with logging no-ops matching each
// unresolved env import's scanned signature.
func (c *Context) stubMissing(table *plugin.Table, wasmBytes []byte) error {
	for _, imp := range wasmscan.FuncImports(wasmBytes) {
		if imp.Module != "env" || table.Has(imp.Name) {
			continue
		}
		name := imp.Name
		resultCount := len(imp.Results)
		var once sync.Once
		stub := func(ctx context.Context, mod api.Module, stack []uint64) {
			once.Do(func() {
				c.log.Warn("missing function, stubbed",
					zap.String("function", name))
			})
			for i := 0; i < resultCount; i++ {
				stack[i] = 0
			}
		}
		if err := table.Define(name, stub, imp.Params, imp.Results); err != nil {
			return err
		}
	}
	return nil
}

// Run drives the loop until the guest or the host orders a quit.
func (c *Context) Run(ctx context.Context, src event.Source) error {
	c.runCtx = ctx
	return c.loop.Run(ctx, src)
}

// Step runs one manual loop turn. Returns whether a frame ran.
func (c *Context) Step(src event.Source) bool {
	return c.loop.Step(src)
}

// Push queues one event for the next loop turn.
func (c *Context) Push(ev event.Event) {
	c.loop.Push(ev)
}

// Loop exposes the driver, mainly for hosts that need Stop or frame
// counters.
func (c *Context) Loop() *event.Loop { return c.loop }

// Engine exposes the audio engine so a host can attach a sink.
func (c *Context) Engine() *audio.Engine { return c.engine }

// Handles reports the number of live graphics handles.
func (c *Context) Handles() int { return c.handles.Len() }

// Close tears everything down. Safe after a failed Load.
func (c *Context) Close(ctx context.Context) error {
	c.loop.Stop()
	c.socket.Close()
	return c.runtime.Close(ctx)
}
