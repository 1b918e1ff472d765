package frame

import (
	"context"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/common"
	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/cockroachdb/errors"
)

// DefaultFramesInFlight is the number of frame slots used when no option overrides it.
const DefaultFramesInFlight = 2

// Presenter acquires and presents swapchain images. The surface manager implements it.
type Presenter interface {
	AcquireNextImage(signal gfx.Semaphore) (uint32, gfx.Status, error)
	Present(imageIndex uint32, wait gfx.Semaphore) (gfx.Status, error)
}

// BeginResult is the outcome of BeginFrame.
type BeginResult struct {
	// OK is true when an image was acquired and the frame may be recorded.
	OK bool
	// NeedRecreate is true when the swapchain must be recreated before the next attempt.
	NeedRecreate bool
	// ImageIndex is the acquired image, valid only when OK is true.
	ImageIndex uint32
}

// slot holds the per-frame synchronization objects and command buffer.
type slot struct {
	cmd            gfx.CommandBuffer
	imageAvailable gfx.Semaphore
	renderFinished gfx.Semaphore
	inFlight       gfx.Fence
}

// System paces the CPU against the GPU with a fixed ring of frame slots.
type System interface {
	// BeginFrame waits until slot frameIndex is free, then acquires the next image.
	// Out-of-date or suboptimal acquires report NeedRecreate and leave the slot fence signaled.
	//
	// Parameters:
	//   - ctx: cancels the fence wait
	//   - frameIndex: the slot to use, in [0, FramesInFlight)
	//
	// Returns:
	//   - BeginResult: whether recording may proceed and which image to render to
	//   - error: a fatal acquire or wait failure
	BeginFrame(ctx context.Context, frameIndex int) (BeginResult, error)

	// BeginCommands starts recording the command buffer of slot frameIndex.
	//
	// Parameters:
	//   - frameIndex: the slot returned OK by BeginFrame
	//
	// Returns:
	//   - gfx.CommandBuffer: the command buffer, recording
	//   - error: an error if recording could not start
	BeginCommands(frameIndex int) (gfx.CommandBuffer, error)

	// EndFrame finishes recording, submits and presents imageIndex.
	//
	// Parameters:
	//   - frameIndex: the slot being finished
	//   - imageIndex: the image acquired by BeginFrame
	//
	// Returns:
	//   - bool: true if the swapchain must be recreated
	//   - error: a fatal submit or present failure
	EndFrame(frameIndex int, imageIndex uint32) (bool, error)

	// OnSwapchainRecreated resets every tracked color layout to Undefined and resizes the
	// tracker to imageCount.
	//
	// Parameters:
	//   - imageCount: the number of images in the new swapchain
	OnSwapchainRecreated(imageCount int)

	// ImageLayout returns the tracked layout of swapchain image i.
	ImageLayout(i uint32) gfx.ImageLayout

	// SetImageLayout records the layout of swapchain image i after a barrier.
	SetImageLayout(i uint32, layout gfx.ImageLayout)

	// FramesInFlight returns the number of slots.
	FramesInFlight() int

	// Next returns the slot after frameIndex.
	Next(frameIndex int) int

	// Close waits for the GPU to go idle and releases every slot.
	Close() error
}

// system is the implementation of System.
type system struct {
	mu *sync.Mutex

	device    gfx.Device
	presenter Presenter

	framesInFlight int
	slots          []slot
	layouts        []gfx.ImageLayout
}

var _ System = &system{}

// NewSystem creates the frame slots. Fences start signaled so the first wait on each slot returns
// immediately.
//
// Parameters:
//   - device: the device that owns the synchronization objects
//   - presenter: acquires and presents swapchain images
//   - imageCount: the number of images in the current swapchain
//   - options: functional options to configure the system
//
// Returns:
//   - System: the frame system
//   - error: an error if a synchronization object could not be created
func NewSystem(device gfx.Device, presenter Presenter, imageCount int, options ...SystemBuilderOption) (System, error) {
	s := &system{
		mu:             &sync.Mutex{},
		device:         device,
		presenter:      presenter,
		framesInFlight: DefaultFramesInFlight,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.framesInFlight < 1 {
		s.framesInFlight = 1
	}

	s.slots = make([]slot, 0, s.framesInFlight)
	for i := 0; i < s.framesInFlight; i++ {
		sl, err := newSlot(device)
		if err != nil {
			s.slots = append(s.slots, sl)
			s.release()
			return nil, errors.Wrapf(err, "create frame slot %d", i)
		}
		s.slots = append(s.slots, sl)
	}
	s.layouts = make([]gfx.ImageLayout, imageCount)
	return s, nil
}

func newSlot(device gfx.Device) (slot, error) {
	var sl slot
	var err error
	if sl.cmd, err = device.CreateCommandBuffer(); err != nil {
		return sl, err
	}
	if sl.imageAvailable, err = device.CreateSemaphore(); err != nil {
		return sl, err
	}
	if sl.renderFinished, err = device.CreateSemaphore(); err != nil {
		return sl, err
	}
	if sl.inFlight, err = device.CreateFence(true); err != nil {
		return sl, err
	}
	return sl, nil
}

func (s *system) slotAt(frameIndex int) (*slot, error) {
	if frameIndex < 0 || frameIndex >= len(s.slots) {
		return nil, errors.Newf("frame index %d out of range [0, %d)", frameIndex, len(s.slots))
	}
	return &s.slots[frameIndex], nil
}

func (s *system) BeginFrame(ctx context.Context, frameIndex int) (BeginResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.slotAt(frameIndex)
	if err != nil {
		return BeginResult{}, err
	}
	if err := s.device.WaitForFence(ctx, sl.inFlight); err != nil {
		return BeginResult{}, errors.Wrapf(err, "wait for frame slot %d", frameIndex)
	}

	idx, status, err := s.presenter.AcquireNextImage(sl.imageAvailable)
	if err != nil {
		if errors.Is(err, gfx.ErrOutOfDate) {
			return BeginResult{NeedRecreate: true}, nil
		}
		return BeginResult{}, errors.Wrap(err, "acquire swapchain image")
	}
	if status.NeedsRecreate() {
		common.Logger().Debug("acquire needs recreate", "slot", frameIndex, "status", status.String())
		return BeginResult{NeedRecreate: true}, nil
	}

	// Reset only once work is certain to be submitted, otherwise the next wait never returns.
	if err := s.device.ResetFence(sl.inFlight); err != nil {
		return BeginResult{}, errors.Wrapf(err, "reset fence of frame slot %d", frameIndex)
	}
	return BeginResult{OK: true, ImageIndex: idx}, nil
}

func (s *system) BeginCommands(frameIndex int) (gfx.CommandBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.slotAt(frameIndex)
	if err != nil {
		return nil, err
	}
	if err := sl.cmd.Begin(); err != nil {
		return nil, errors.Wrapf(err, "begin command buffer of frame slot %d", frameIndex)
	}
	return sl.cmd, nil
}

func (s *system) EndFrame(frameIndex int, imageIndex uint32) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, err := s.slotAt(frameIndex)
	if err != nil {
		return false, err
	}
	if err := sl.cmd.End(); err != nil {
		return false, errors.Wrapf(err, "end command buffer of frame slot %d", frameIndex)
	}
	if err := s.device.Submit(sl.cmd, sl.imageAvailable, sl.renderFinished, sl.inFlight); err != nil {
		return false, errors.Mark(errors.Wrapf(err, "submit frame slot %d", frameIndex), gfx.ErrDeviceLost)
	}

	status, err := s.presenter.Present(imageIndex, sl.renderFinished)
	if err != nil {
		if errors.Is(err, gfx.ErrOutOfDate) {
			return true, nil
		}
		return false, errors.Mark(errors.Wrapf(err, "present image %d", imageIndex), gfx.ErrDeviceLost)
	}
	return status.NeedsRecreate(), nil
}

func (s *system) OnSwapchainRecreated(imageCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts = make([]gfx.ImageLayout, imageCount)
}

func (s *system) ImageLayout(i uint32) gfx.ImageLayout {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(i) >= len(s.layouts) {
		return gfx.LayoutUndefined
	}
	return s.layouts[i]
}

func (s *system) SetImageLayout(i uint32, layout gfx.ImageLayout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if int(i) >= len(s.layouts) {
		grown := make([]gfx.ImageLayout, i+1)
		copy(grown, s.layouts)
		s.layouts = grown
	}
	s.layouts[i] = layout
}

func (s *system) FramesInFlight() int {
	return s.framesInFlight
}

func (s *system) Next(frameIndex int) int {
	return (frameIndex + 1) % s.framesInFlight
}

func (s *system) Close() error {
	err := s.device.WaitIdle()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release()
	return errors.Wrap(err, "wait idle before releasing frame slots")
}

// release destroys every created slot object, including those of a partially built slot.
// Caller must hold the mutex or own s exclusively.
func (s *system) release() {
	for _, sl := range s.slots {
		if sl.cmd != nil {
			sl.cmd.Release()
		}
		if sl.imageAvailable != nil {
			sl.imageAvailable.Release()
		}
		if sl.renderFinished != nil {
			sl.renderFinished.Release()
		}
		if sl.inFlight != nil {
			sl.inFlight.Release()
		}
	}
	s.slots = nil
}
