package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine/assets"
	"github.com/spaghettifunk/volchara/engine/config"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/platform"
	"github.com/spaghettifunk/volchara/engine/renderer"
	"github.com/spaghettifunk/volchara/engine/renderer/vulkan"
	"github.com/spaghettifunk/volchara/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config

	isRunning     bool
	isSuspended   bool
	stopRequested atomic.Bool

	input        *core.Input
	platform     *platform.Platform
	assetManager *assets.AssetManager
	renderer     renderer.Backend
	graph        *scene.Graph
	camera       scene.Handle
	frames       *frameBuilder

	clock   *core.Clock
	metrics *core.Metrics
	width   uint32
	height  uint32
}

func New(g *Game, cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g.Name != "" && cfg.Window.Title == config.Default().Window.Title {
		cfg.Window.Title = g.Name
	}

	input := core.NewInput()
	p, err := platform.New(input)
	if err != nil {
		return nil, err
	}
	am, err := assets.NewAssetManager(cfg.Paths.Resources, cfg.Assets.HotReload)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		input:        input,
		platform:     p,
		assetManager: am,
		graph:        scene.NewGraph(),
		clock:        core.NewClock(),
		metrics:      core.NewMetrics(),
		width:        cfg.Window.Width,
		height:       cfg.Window.Height,
	}, nil
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing

	if !core.EventInitialize() {
		return fmt.Errorf("failed to initialize the event system")
	}
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)
	core.EventRegister(core.EVENT_CODE_RESIZED, e, e.onResized)
	core.EventRegister(core.EVENT_CODE_ASSET_CHANGED, e, e.onAssetChanged)

	if err := e.platform.Startup(e.config.Window.Title, e.width, e.height, e.config.Window.CursorDisabled); err != nil {
		return err
	}
	if err := e.assetManager.Initialize(); err != nil {
		return err
	}

	shaders, err := e.loadShaders()
	if err != nil {
		return err
	}

	maxLights := e.config.Renderer.MaxLights
	if maxLights > vulkan.MaxLights {
		core.LogWarn("max lights %d exceeds the light buffer, using %d", maxLights, vulkan.MaxLights)
	}
	cc := e.config.Renderer.ClearColor
	backend, err := renderer.New(renderer.Vulkan, e.platform, vulkan.Options{
		ApplicationName:   e.config.Window.Title,
		Width:             e.width,
		Height:            e.height,
		MaxTextures:       uint32(e.config.Renderer.MaxTextures),
		FramesInFlight:    uint32(e.config.Renderer.FramesInFlight),
		MaxFramerate:      e.config.Renderer.MaxFramerate,
		InitialBufferSize: e.config.Renderer.InitialBufferSize,
		Validation:        e.config.Renderer.Validation,
		ClearColor:        mgl32.Vec4{cc[0], cc[1], cc[2], cc[3]},
	})
	if err != nil {
		return err
	}
	e.renderer = backend
	if err := e.renderer.Initialize(shaders); err != nil {
		return err
	}
	if err := e.loadDefaultTexture(); err != nil {
		return err
	}

	e.camera = e.graph.NewCamera("camera")
	controller := scene.CameraController{Speed: e.config.Camera.Speed, Sensitivity: e.config.Camera.Sensitivity}
	if err := e.graph.AddCallback(e.camera, controller.Callback()); err != nil {
		return err
	}
	if err := e.graph.AddRoot(e.camera); err != nil {
		return err
	}

	e.frames = &frameBuilder{
		graph:    e.graph,
		input:    e.input,
		camera:   e.camera,
		debug:    vulkan.NewDebugFeatures(),
		uploader: e.renderer,
		quit: func() {
			core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, e, core.EventContext{})
		},
	}
	if e.gameInstance.FnUpdate != nil {
		e.frames.update = func(deltaTime float64) error {
			return e.gameInstance.FnUpdate(e, deltaTime)
		}
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(e); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadShaders() (vulkan.ShaderCode, error) {
	var code vulkan.ShaderCode
	stages := []struct {
		name string
		dst  *[]uint32
	}{
		{"shaders/base.vert.spv", &code.BaseVertex},
		{"shaders/base.frag.spv", &code.BaseFragment},
		{"shaders/light.vert.spv", &code.LightVertex},
		{"shaders/light.frag.spv", &code.LightFragment},
		{"shaders/transparency.frag.spv", &code.TransparentFragment},
	}
	names := make([]string, len(stages))
	for i, stage := range stages {
		names[i] = stage.name
	}
	if err := e.assetManager.Preload(names...); err != nil {
		core.LogError("failed to load shaders: %s", err)
		return code, err
	}
	for _, stage := range stages {
		words, err := e.assetManager.LoadShader(stage.name)
		if err != nil {
			core.LogError("failed to load shader %s: %s", stage.name, err)
			return code, err
		}
		*stage.dst = words
	}
	return code, nil
}

// loadDefaultTexture fills texture index 0. A checkerboard stands in when the
// configured image cannot be loaded.
func (e *Engine) loadDefaultTexture() error {
	name := e.config.Paths.DefaultTexture
	image, err := e.assetManager.LoadImage(name)
	if err != nil {
		core.LogWarn("default texture %s unavailable, using checkerboard: %s", name, err)
		width, height, pixels := vulkan.CheckerPixels()
		_, err = e.renderer.CreateTexture("checkerboard", width, height, pixels)
		return err
	}
	index, err := e.renderer.CreateTexture(name, image.Width, image.Height, image.Pixels)
	if err != nil {
		return err
	}
	e.renderer.Textures().Remember(name, index)
	return nil
}

func (e *Engine) Run() error {
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()

	var lastReport float64
	for e.isRunning {
		e.platform.PumpMessages()
		e.assetManager.Drain()
		if e.stopRequested.Load() || e.platform.ShouldClose() {
			break
		}
		if e.isSuspended {
			e.platform.WaitMessages()
			continue
		}

		frameStart := e.platform.Time()
		err := e.renderer.DrawFrame(e.frames.Build)
		switch {
		case errors.Is(err, core.ErrFrameSkipped):
			time.Sleep(time.Millisecond)
			continue
		case err != nil:
			core.LogError("frame failed: %s", err)
			return err
		}
		e.metrics.Update(e.platform.Time() - frameStart)

		e.clock.Update()
		if now := e.clock.Elapsed(); now-lastReport >= 5 {
			fps, ms := e.metrics.Frame()
			core.LogDebug("%.0f fps, %.2f ms/frame, %d frames presented", fps, ms, e.renderer.FramesPresented())
			lastReport = now
		}
	}
	return nil
}

// Stop ends the run loop after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopRequested.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	var errs []error
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	if e.renderer != nil {
		errs = append(errs, e.renderer.Shutdown())
	}
	errs = append(errs,
		e.assetManager.Shutdown(),
		e.platform.Shutdown(),
		core.EventShutdown(),
	)
	return errors.Join(errs...)
}

// Graph is the scene drawn every frame.
func (e *Engine) Graph() *scene.Graph {
	return e.graph
}

func (e *Engine) Camera() scene.Handle {
	return e.camera
}

func (e *Engine) Assets() *assets.AssetManager {
	return e.assetManager
}

func (e *Engine) Config() *config.Config {
	return e.config
}

// GetFramebufferSize returns the width and height (in this order) of the
// application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onQuit(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning = false
	return true
}

func (e *Engine) onResized(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	width, height := context.Data.U32[0], context.Data.U32[1]
	if width == e.width && height == e.height {
		return false
	}
	e.width, e.height = width, height
	core.LogDebug("Window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("Window minimized, suspending application.")
		e.isSuspended = true
		return false
	}
	if e.isSuspended {
		core.LogInfo("Window restored, resuming application.")
		e.isSuspended = false
	}
	if e.renderer != nil {
		e.renderer.Resized(width, height)
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	return false
}

func (e *Engine) onAssetChanged(code core.SystemEventCode, sender interface{}, listener interface{}, context core.EventContext) bool {
	path, kind := context.Data.C[0], context.Data.C[1]
	switch kind {
	case "shader":
		// Pipelines are built once at startup.
		core.LogWarn("shader %s changed, restart to apply", path)
	default:
		core.LogInfo("%s %s changed, next load reads it from disk", kind, path)
	}
	return false
}
