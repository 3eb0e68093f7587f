package core

import (
	"errors"
)

var (
	// The presentation chain no longer matches the surface and must be rebuilt.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	ErrSwapchainBooting   = errors.New("swapchain resized or recreated, booting")
	// A wait on the device failed or the device was lost. Unrecoverable.
	ErrDeviceLost       = errors.New("device lost")
	ErrAllocationFailed = errors.New("gpu allocation failed")
	ErrNotHostVisible   = errors.New("buffer memory is not host visible")
	ErrBufferOverflow   = errors.New("data does not fit in buffer")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrUnknown          = errors.New("unknown")
)
