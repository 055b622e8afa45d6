package engine

// Game is the application plugged into the engine. Every hook is optional.
type Game struct {
	Name  string
	State interface{}

	FnInitialize Initialize
	FnUpdate     Update
	FnOnResize   OnResize
	FnShutdown   Shutdown
}

// Initialize builds the initial scene. It runs once the renderer is up.
type Initialize func(e *Engine) error

// Update runs every frame before node callbacks, with the seconds since the
// previous frame. It may mutate the scene graph directly.
type Update func(e *Engine, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
type Shutdown func() error
