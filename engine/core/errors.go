package core

import (
	"errors"
)

var (
	ErrSwapchainOutOfDate = errors.New("swapchain out of date, recreating")
	ErrFrameSkipped       = errors.New("frame skipped")
	ErrNoSuitableDevice   = errors.New("no physical device meets the requirements")
	ErrFenceTimeout       = errors.New("fence wait timed out")
	ErrDeviceLost         = errors.New("device lost")

	ErrTextureCapacity = errors.New("texture table is full")
	ErrLightCapacity   = errors.New("light buffer is full")

	ErrUnsupportedPrimitive = errors.New("unsupported primitive mode")
	ErrMissingAttribute     = errors.New("missing required vertex attribute")
	ErrUnknownExtension     = errors.New("unknown extension")

	ErrStaleHandle = errors.New("stale node handle")
	ErrUnknown     = errors.New("unknown")
)
