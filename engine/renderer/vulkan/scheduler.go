package vulkan

import (
	"errors"
	"fmt"
	gomath "math"

	"github.com/spaghettifunk/volchara/engine/core"
)

type FrameState int

const (
	FRAME_STATE_IDLE FrameState = iota
	FRAME_STATE_ACQUIRING
	FRAME_STATE_RECORDING
	FRAME_STATE_SUBMITTED
	FRAME_STATE_PRESENTING
)

func (s FrameState) String() string {
	switch s {
	case FRAME_STATE_ACQUIRING:
		return "acquiring"
	case FRAME_STATE_RECORDING:
		return "recording"
	case FRAME_STATE_SUBMITTED:
		return "submitted"
	case FRAME_STATE_PRESENTING:
		return "presenting"
	default:
		return "idle"
	}
}

// Fence is the CPU visible completion signal of a frame slot.
type Fence interface {
	// Wait blocks until the fence is signaled.
	Wait(timeoutNs uint64) error
	Reset() error
}

// FrameTarget does the GPU work behind each scheduler state. Acquire and
// Present return core.ErrSwapchainOutOfDate when the surface changed.
type FrameTarget interface {
	Acquire(slot uint32) (imageIndex uint32, err error)
	Record(slot, imageIndex uint32) error
	Submit(slot, imageIndex uint32) error
	Present(slot, imageIndex uint32) error
	Recreate() error
}

// FrameSlot is one frame in flight.
type FrameSlot struct {
	Index      uint32
	State      FrameState
	Fence      Fence
	ImageIndex uint32
}

// FrameScheduler drives the slots round robin. A slot is only recorded again
// after its fence signaled, which bounds the GPU to len(slots) frames of work.
type FrameScheduler struct {
	target    FrameTarget
	slots     []*FrameSlot
	current   uint32
	limiter   *core.FrameLimiter
	retire    *RetireTable
	resized   bool
	timeoutNs uint64
	frames    uint64
}

func NewFrameScheduler(target FrameTarget, fences []Fence, limiter *core.FrameLimiter, retire *RetireTable) *FrameScheduler {
	slots := make([]*FrameSlot, len(fences))
	for i, f := range fences {
		slots[i] = &FrameSlot{Index: uint32(i), Fence: f}
	}
	if retire == nil {
		retire = NewRetireTable(uint32(len(fences)))
	}
	return &FrameScheduler{
		target:    target,
		slots:     slots,
		limiter:   limiter,
		retire:    retire,
		timeoutNs: gomath.MaxUint64,
	}
}

// RequestResize makes the next frame rebuild the swapchain before acquiring.
func (fs *FrameScheduler) RequestResize() {
	fs.resized = true
}

func (fs *FrameScheduler) CurrentSlot() uint32 {
	return fs.current
}

func (fs *FrameScheduler) Slot(index uint32) *FrameSlot {
	return fs.slots[index]
}

func (fs *FrameScheduler) SlotCount() uint32 {
	return uint32(len(fs.slots))
}

// Presented is the number of frames that reached the presentation engine.
func (fs *FrameScheduler) Presented() uint64 {
	return fs.frames
}

func (fs *FrameScheduler) Retire() *RetireTable {
	return fs.retire
}

// Frame runs one frame. update is called with the seconds since the previous
// frame before the slot is waited on; it must not touch slot resources. When
// the frame cap has not elapsed yet nothing happens and core.ErrFrameSkipped
// is returned. A stale swapchain is rebuilt and the frame dropped without an
// error; every other failure is fatal.
func (fs *FrameScheduler) Frame(update func(deltaTime float64) error) error {
	var deltaTime float64
	if fs.limiter != nil {
		ready, passed := fs.limiter.Ready()
		if !ready {
			return core.ErrFrameSkipped
		}
		fs.limiter.Mark()
		deltaTime = passed
	}
	if update != nil {
		if err := update(deltaTime); err != nil {
			return err
		}
	}

	slot := fs.slots[fs.current]
	slot.State = FRAME_STATE_ACQUIRING
	if err := slot.Fence.Wait(fs.timeoutNs); err != nil {
		return fmt.Errorf("waiting for frame slot %d: %w", slot.Index, err)
	}
	if err := fs.retire.Retire(slot.Index); err != nil {
		return fmt.Errorf("retiring resources of frame slot %d: %w", slot.Index, err)
	}

	if fs.resized {
		return fs.recreate(slot)
	}

	imageIndex, err := fs.target.Acquire(slot.Index)
	if errors.Is(err, core.ErrSwapchainOutOfDate) {
		return fs.recreate(slot)
	}
	if err != nil {
		slot.State = FRAME_STATE_IDLE
		return fmt.Errorf("acquiring swapchain image: %w", err)
	}
	slot.ImageIndex = imageIndex

	// Reset only once an image was acquired so a dropped frame leaves the
	// fence signaled for the next attempt.
	if err := slot.Fence.Reset(); err != nil {
		return fmt.Errorf("resetting fence of frame slot %d: %w", slot.Index, err)
	}

	slot.State = FRAME_STATE_RECORDING
	if err := fs.target.Record(slot.Index, imageIndex); err != nil {
		return fmt.Errorf("recording frame slot %d: %w", slot.Index, err)
	}

	slot.State = FRAME_STATE_SUBMITTED
	if err := fs.target.Submit(slot.Index, imageIndex); err != nil {
		return fmt.Errorf("submitting frame slot %d: %w", slot.Index, err)
	}

	slot.State = FRAME_STATE_PRESENTING
	err = fs.target.Present(slot.Index, imageIndex)
	fs.current = (fs.current + 1) % uint32(len(fs.slots))
	slot.State = FRAME_STATE_IDLE
	if errors.Is(err, core.ErrSwapchainOutOfDate) || fs.resized {
		return fs.recreate(nil)
	}
	if err != nil {
		return fmt.Errorf("presenting frame slot %d: %w", slot.Index, err)
	}
	fs.frames++
	return nil
}

// recreate rebuilds the swapchain. slot, when set, did not submit anything
// and stays current.
func (fs *FrameScheduler) recreate(slot *FrameSlot) error {
	if slot != nil {
		slot.State = FRAME_STATE_IDLE
	}
	fs.resized = false
	if err := fs.target.Recreate(); err != nil {
		return fmt.Errorf("recreating swapchain: %w", err)
	}
	return nil
}

// WaitAll blocks until every slot's last submission finished.
func (fs *FrameScheduler) WaitAll() error {
	var errs []error
	for _, slot := range fs.slots {
		if err := slot.Fence.Wait(fs.timeoutNs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
