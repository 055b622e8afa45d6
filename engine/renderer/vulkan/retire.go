package vulkan

import (
	"errors"
)

// RetireTable holds releases that must wait for a frame slot's fence. A
// resource replaced while slot N may still read it is queued on N and
// released the next time N's fence signals.
type RetireTable struct {
	pending [][]func() error
}

func NewRetireTable(slots uint32) *RetireTable {
	return &RetireTable{
		pending: make([][]func() error, slots),
	}
}

// Defer queues release on slot.
func (rt *RetireTable) Defer(slot uint32, release func() error) {
	rt.pending[slot] = append(rt.pending[slot], release)
}

// DeferAll queues release on every slot and runs it once all of them retired it.
func (rt *RetireTable) DeferAll(release func() error) {
	remaining := len(rt.pending)
	for slot := range rt.pending {
		rt.Defer(uint32(slot), func() error {
			remaining--
			if remaining > 0 {
				return nil
			}
			return release()
		})
	}
}

// Retire runs the releases queued on slot. Call only after the slot's fence signaled.
func (rt *RetireTable) Retire(slot uint32) error {
	queued := rt.pending[slot]
	rt.pending[slot] = nil

	var errs []error
	for _, release := range queued {
		if err := release(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush retires every slot. The device must be idle.
func (rt *RetireTable) Flush() error {
	var errs []error
	for slot := range rt.pending {
		if err := rt.Retire(uint32(slot)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many releases wait on slot.
func (rt *RetireTable) Pending(slot uint32) int {
	return len(rt.pending[slot])
}
