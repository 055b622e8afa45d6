package testbed

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/spaghettifunk/volchara/engine"
	"github.com/spaghettifunk/volchara/engine/core"
	"github.com/spaghettifunk/volchara/engine/math"
	"github.com/spaghettifunk/volchara/engine/scene"
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	sun     scene.Handle
	planets []scene.Handle
	moons   int
}

type planet struct {
	name  string
	size  float32
	orbit float32
	speed float32
	color mgl32.Vec3
	moons int
}

var planets = []planet{
	{name: "mercury", size: 0.3, orbit: 3, speed: 47, color: mgl32.Vec3{0.7, 0.7, 0.7}},
	{name: "venus", size: 0.5, orbit: 5, speed: 35, color: mgl32.Vec3{0.9, 0.8, 0.5}},
	{name: "earth", size: 0.55, orbit: 7.5, speed: 30, color: mgl32.Vec3{0.3, 0.5, 1}, moons: 1},
	{name: "mars", size: 0.4, orbit: 10, speed: 24, color: mgl32.Vec3{0.9, 0.4, 0.2}, moons: 2},
}

func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Name:  "Volchara Solar System",
			State: &gameState{},
		},
	}
	tg.FnInitialize = tg.Initialize
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown
	return tg
}

func (g *TestGame) state() *gameState {
	return g.State.(*gameState)
}

func box(size float32, color mgl32.Vec3) math.Shape {
	front := math.PlaneCorners{
		TopLeft:  mgl32.Vec3{-1, 1, 0},
		TopRight: mgl32.Vec3{1, 1, 0},
		BotRight: mgl32.Vec3{1, -1, 0},
	}
	shape := math.BoxFromWorldCoordinates(mgl32.Vec3{}, math.BoxSizes{Width: size, Height: size, Depth: size}, front, true)
	shape.SetColor(color)
	return shape
}

// spin turns a node around its own Y axis.
func spin(degreesPerSecond float32) scene.Callback {
	return func(m *scene.Mutator, ctx scene.FrameContext) {
		m.Transform().Rotation().Left(degreesPerSecond*ctx.Elapsed, false)
	}
}

func (g *TestGame) Initialize(e *engine.Engine) error {
	core.LogInfo("building solar system...")
	graph := e.Graph()
	state := g.state()

	graph.SetAmbient(scene.AmbientLight{Color: mgl32.Vec3{1, 1, 1}, Brightness: 0.08})

	// Pull the camera back so the whole system is in view.
	if cam, err := graph.Node(e.Camera()); err == nil {
		cam.Transform.SetPosition(mgl32.Vec3{0, 6, 22})
	}

	floor := math.PlaneFromWorldCoordinates(math.PlaneCorners{
		TopLeft:  mgl32.Vec3{-20, -2, -20},
		TopRight: mgl32.Vec3{20, -2, -20},
		BotRight: mgl32.Vec3{20, -2, 20},
	}, true)
	floor.SetColor(mgl32.Vec3{0.3, 0.3, 0.3})
	if err := graph.AddRoot(graph.NewShape("floor", floor)); err != nil {
		return err
	}

	state.sun = graph.NewShape("sun", box(2, mgl32.Vec3{1, 0.85, 0.3}))
	if err := graph.AddCallback(state.sun, spin(10)); err != nil {
		return err
	}
	if err := graph.AddRoot(state.sun); err != nil {
		return err
	}
	sunLight := graph.NewPointLight("sun light", mgl32.Vec3{0, 0, 0}, scene.PointLight{Color: mgl32.Vec3{1, 0.95, 0.8}, Brightness: 40})
	if err := graph.Attach(state.sun, sunLight); err != nil {
		return err
	}

	for _, p := range planets {
		// The pivot sits on the sun and rotates; the planet hangs off it at orbit distance.
		pivot := graph.NewNode(p.name+" orbit", math.Mesh{}, math.TransformCreate())
		if err := graph.AddCallback(pivot, spin(p.speed)); err != nil {
			return err
		}
		if err := graph.AddRoot(pivot); err != nil {
			return err
		}

		body := graph.NewNode(p.name, box(p.size, p.color).Mesh, math.TransformFromPosition(mgl32.Vec3{p.orbit, 0, 0}))
		if err := graph.AddCallback(body, spin(90)); err != nil {
			return err
		}
		if err := graph.Attach(pivot, body); err != nil {
			return err
		}
		for i := 0; i < p.moons; i++ {
			g.addMoon(graph, body, p.size, i)
		}
		state.planets = append(state.planets, body)
	}

	blue := graph.NewPointLight("blue light", mgl32.Vec3{-8, 4, 4}, scene.PointLight{Color: mgl32.Vec3{0.3, 0.4, 1}, Brightness: 15})
	if err := graph.AddRoot(blue); err != nil {
		return err
	}

	// Space spawns a moon around a random planet through the command queue.
	spawner := graph.NewNode("moon spawner", math.Mesh{}, math.TransformCreate())
	var armed bool
	if err := graph.AddCallback(spawner, func(m *scene.Mutator, ctx scene.FrameContext) {
		pressed := ctx.Held.Contains(core.KEY_SPACE)
		if pressed && !armed {
			target := state.planets[state.moons%len(state.planets)]
			g.spawnMoon(m, target)
		}
		armed = pressed
	}); err != nil {
		return err
	}
	if err := graph.AddRoot(spawner); err != nil {
		return err
	}

	if _, err := e.SpawnModel("models/ship.glb", math.TransformFromPosition(mgl32.Vec3{0, 4, 0}), scene.InvalidHandle); err != nil {
		core.LogWarn("no ship model: %s", err)
	}
	return nil
}

func (g *TestGame) addMoon(graph *scene.Graph, body scene.Handle, size float32, i int) {
	orbit := graph.NewNode("moon orbit", math.Mesh{}, math.TransformCreate())
	_ = graph.AddCallback(orbit, spin(60+float32(i)*25))
	_ = graph.Attach(body, orbit)
	moon := graph.NewNode("moon", box(size*0.3, mgl32.Vec3{0.8, 0.8, 0.8}).Mesh, math.TransformFromPosition(mgl32.Vec3{size + 0.5 + float32(i)*0.4, 0, 0}))
	_ = graph.Attach(orbit, moon)
	g.state().moons++
}

func (g *TestGame) spawnMoon(m *scene.Mutator, body scene.Handle) {
	state := g.state()
	distance := 1 + float32(state.moons%4)*0.3
	orbit := m.Spawn("spawned orbit", math.Mesh{}, math.TransformCreate(), scene.Material{}, body)
	m.AddCallback(orbit, spin(80))
	m.Spawn("spawned moon", box(0.15, mgl32.Vec3{1, 1, 1}).Mesh, math.TransformFromPosition(mgl32.Vec3{distance, 0, 0}), scene.Material{}, orbit)
	state.moons++
	core.LogInfo("spawned moon %d", state.moons)
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shutting down with %d moons", g.state().moons)
	return nil
}
