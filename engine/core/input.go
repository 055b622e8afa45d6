package core

import (
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/exp/maps"
)

// Key code definitions. Values match GLFW key tokens so the platform layer can
// forward them without a lookup table.
type KeyCode int

const (
	KEY_SPACE KeyCode = 32
	KEY_0     KeyCode = 48
	KEY_1     KeyCode = 49
	KEY_2     KeyCode = 50
	KEY_3     KeyCode = 51
	KEY_4     KeyCode = 52
	KEY_5     KeyCode = 53
	KEY_6     KeyCode = 54
	KEY_7     KeyCode = 55
	KEY_8     KeyCode = 56
	KEY_9     KeyCode = 57
	KEY_A     KeyCode = 65
	KEY_B     KeyCode = 66
	KEY_C     KeyCode = 67
	KEY_D     KeyCode = 68
	KEY_E     KeyCode = 69
	KEY_F     KeyCode = 70
	KEY_G     KeyCode = 71
	KEY_H     KeyCode = 72
	KEY_I     KeyCode = 73
	KEY_J     KeyCode = 74
	KEY_K     KeyCode = 75
	KEY_L     KeyCode = 76
	KEY_M     KeyCode = 77
	KEY_N     KeyCode = 78
	KEY_O     KeyCode = 79
	KEY_P     KeyCode = 80
	KEY_Q     KeyCode = 81
	KEY_R     KeyCode = 82
	KEY_S     KeyCode = 83
	KEY_T     KeyCode = 84
	KEY_U     KeyCode = 85
	KEY_V     KeyCode = 86
	KEY_W     KeyCode = 87
	KEY_X     KeyCode = 88
	KEY_Y     KeyCode = 89
	KEY_Z     KeyCode = 90

	KEY_ESCAPE    KeyCode = 256
	KEY_ENTER     KeyCode = 257
	KEY_TAB       KeyCode = 258
	KEY_BACKSPACE KeyCode = 259
	KEY_RIGHT     KeyCode = 262
	KEY_LEFT      KeyCode = 263
	KEY_DOWN      KeyCode = 264
	KEY_UP        KeyCode = 265

	KEY_LSHIFT   KeyCode = 340
	KEY_LCONTROL KeyCode = 341
	KEY_LALT     KeyCode = 342
	KEY_RSHIFT   KeyCode = 344
	KEY_RCONTROL KeyCode = 345
	KEY_RALT     KeyCode = 346
)

// KeySet is the set of keys currently held down.
type KeySet map[KeyCode]struct{}

func NewKeySet(keys ...KeyCode) KeySet {
	ks := make(KeySet, len(keys))
	for _, k := range keys {
		ks[k] = struct{}{}
	}
	return ks
}

func (ks KeySet) Contains(key KeyCode) bool {
	_, ok := ks[key]
	return ok
}

// ContainsAll reports whether every given key is held.
func (ks KeySet) ContainsAll(keys ...KeyCode) bool {
	for _, k := range keys {
		if !ks.Contains(k) {
			return false
		}
	}
	return true
}

// Input folds discrete key events into a held-key set and cursor motion into a
// delta accumulated since the last reset.
type Input struct {
	held    KeySet
	cursor  mgl32.Vec2
	prev    mgl32.Vec2
	hasPrev bool
}

func NewInput() *Input {
	return &Input{held: NewKeySet()}
}

func (in *Input) ProcessKey(key KeyCode, pressed bool) {
	// Only handle this if the state actually changed.
	if in.held.Contains(key) == pressed {
		return
	}
	var code SystemEventCode
	if pressed {
		in.held[key] = struct{}{}
		code = EVENT_CODE_KEY_PRESSED
	} else {
		delete(in.held, key)
		code = EVENT_CODE_KEY_RELEASED
	}

	ctx := EventContext{}
	ctx.Data.I64[0] = int64(key)
	EventFire(code, in, ctx)
}

func (in *Input) ProcessCursor(x, y float64) {
	pos := mgl32.Vec2{float32(x), float32(y)}
	// The first sample only establishes the reference point.
	if in.hasPrev {
		in.cursor = in.cursor.Add(pos.Sub(in.prev))
	}
	in.prev = pos
	in.hasPrev = true
}

func (in *Input) IsKeyDown(key KeyCode) bool {
	return in.held.Contains(key)
}

// Snapshot returns a copy of the held keys and the accumulated cursor delta.
func (in *Input) Snapshot() (KeySet, mgl32.Vec2) {
	return maps.Clone(in.held), in.cursor
}

// ResetCursor zeroes the accumulated delta. Called once per frame after dispatch.
func (in *Input) ResetCursor() {
	in.cursor = mgl32.Vec2{}
}

// Consume removes keys from the held set so a chord triggers only once.
func (in *Input) Consume(keys ...KeyCode) {
	for _, k := range keys {
		delete(in.held, k)
	}
}
