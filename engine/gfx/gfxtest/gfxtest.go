// Package gfxtest provides recording fakes of the gfx interfaces for package tests.
package gfxtest

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-inspect/engine/gfx"
	"github.com/Carmen-Shannon/oxy-inspect/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
)

// ErrDeadlock is returned by WaitForFence when the fence is unsignaled and nothing was
// submitted that would ever signal it.
var ErrDeadlock = errors.New("gfxtest: wait on a fence that will never signal")

// Handle is the common fake resource. Every handle counts towards Device.Live until released.
type Handle struct {
	Kind     string
	ID       int
	Released bool
	dev      *Device
}

func (h *Handle) Release() {
	if h.Released {
		return
	}
	h.Released = true
	if h.dev != nil {
		h.dev.mu.Lock()
		h.dev.live--
		h.dev.mu.Unlock()
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s%d", h.Kind, h.ID)
}

// Fence is a fake fence. Submissions complete instantly, so a submitted fence is signaled.
type Fence struct {
	Handle
	Signaled bool
}

// Mesh is a fake uploaded mesh.
type Mesh struct {
	Handle
	Vertices []gfx.Vertex
	Indices  []uint32
}

func (m *Mesh) IndexCount() int { return len(m.Indices) }

// Pipeline is a fake compiled pipeline.
type Pipeline struct {
	Handle
	Desc        pipeline.Pipeline
	Source      []byte
	ColorFormat gfx.Format
}

// Overlay is a fake overlay that remembers its last upload.
type Overlay struct {
	Handle
	Width, Height uint32
	Pixels        []byte
	Updates       int
}

func (o *Overlay) Update(pixels []byte, width, height uint32) error {
	o.Pixels = append(o.Pixels[:0], pixels...)
	o.Width, o.Height = width, height
	o.Updates++
	return nil
}

// CommandBuffer records every call as a readable op string.
type CommandBuffer struct {
	Handle
	Ops       []string
	Recording bool
	Pushed    []byte
}

func (c *CommandBuffer) Begin() error {
	if c.Recording {
		return errors.New("gfxtest: Begin while recording")
	}
	c.Recording = true
	c.Ops = c.Ops[:0]
	return nil
}

func (c *CommandBuffer) End() error {
	if !c.Recording {
		return errors.New("gfxtest: End without Begin")
	}
	c.Recording = false
	return nil
}

func (c *CommandBuffer) ImageBarrier(image gfx.Image, oldLayout, newLayout gfx.ImageLayout) {
	c.Ops = append(c.Ops, fmt.Sprintf("barrier %v %v->%v", image, oldLayout, newLayout))
}

func (c *CommandBuffer) BeginRendering(info gfx.RenderingInfo) {
	c.Ops = append(c.Ops, fmt.Sprintf("begin %v %dx%d", info.ColorView, info.Extent.Width, info.Extent.Height))
}

func (c *CommandBuffer) EndRendering() {
	c.Ops = append(c.Ops, "end")
}

func (c *CommandBuffer) SetViewport(v gfx.Viewport) {
	c.Ops = append(c.Ops, fmt.Sprintf("viewport %gx%g", v.Width, v.Height))
}

func (c *CommandBuffer) SetScissor(r gfx.Rect) {
	c.Ops = append(c.Ops, fmt.Sprintf("scissor %dx%d", r.Width, r.Height))
}

func (c *CommandBuffer) BindPipeline(p gfx.Pipeline) {
	c.Ops = append(c.Ops, fmt.Sprintf("pipeline %v", p))
}

func (c *CommandBuffer) PushConstants(p gfx.Pipeline, stages gfx.ShaderStage, offset uint32, data []byte) {
	c.Pushed = append(c.Pushed[:0], data...)
	c.Ops = append(c.Ops, fmt.Sprintf("push %d", len(data)))
}

func (c *CommandBuffer) BindMesh(m gfx.Mesh) {
	c.Ops = append(c.Ops, fmt.Sprintf("mesh %v", m))
}

func (c *CommandBuffer) DrawIndexed(indexCount, instanceCount uint32) {
	c.Ops = append(c.Ops, fmt.Sprintf("draw %d", indexCount))
}

func (c *CommandBuffer) DrawOverlay(o gfx.Overlay, dst gfx.Rect) {
	c.Ops = append(c.Ops, fmt.Sprintf("overlay %v", o))
}

// Submission is one recorded Device.Submit call.
type Submission struct {
	Cmd    *CommandBuffer
	Wait   gfx.Semaphore
	Signal gfx.Semaphore
	Fence  *Fence
}

// Device is a fake gfx.Device that also creates meshes, pipelines and overlays.
type Device struct {
	mu     sync.Mutex
	nextID int
	live   int

	// Log records synchronization calls in order, e.g. "wait fence0", "reset fence0", "idle".
	Log         []string
	Submissions []Submission
	IdleCount   int

	SubmitErr   error
	UploadErr   error
	PipelineErr error
}

var _ gfx.Device = &Device{}

// NewDevice returns an empty fake device.
func NewDevice() *Device {
	return &Device{}
}

func (d *Device) newHandle(kind string) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	h := Handle{Kind: kind, ID: d.nextID, dev: d}
	d.nextID++
	d.live++
	return h
}

func (d *Device) record(s string) {
	d.mu.Lock()
	d.Log = append(d.Log, s)
	d.mu.Unlock()
}

// Live returns the number of handles created and not yet released.
func (d *Device) Live() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

func (d *Device) CreateFence(signaled bool) (gfx.Fence, error) {
	return &Fence{Handle: d.newHandle("fence"), Signaled: signaled}, nil
}

func (d *Device) CreateSemaphore() (gfx.Semaphore, error) {
	h := d.newHandle("sem")
	return &h, nil
}

func (d *Device) CreateCommandBuffer() (gfx.CommandBuffer, error) {
	return &CommandBuffer{Handle: d.newHandle("cmd")}, nil
}

func (d *Device) WaitForFence(ctx context.Context, f gfx.Fence) error {
	fence := f.(*Fence)
	d.record("wait " + fence.String())
	if err := ctx.Err(); err != nil {
		return err
	}
	if !fence.Signaled {
		return ErrDeadlock
	}
	return nil
}

func (d *Device) ResetFence(f gfx.Fence) error {
	fence := f.(*Fence)
	d.record("reset " + fence.String())
	fence.Signaled = false
	return nil
}

func (d *Device) Submit(cmd gfx.CommandBuffer, wait, signal gfx.Semaphore, fence gfx.Fence) error {
	if d.SubmitErr != nil {
		return d.SubmitErr
	}
	cb := cmd.(*CommandBuffer)
	if cb.Recording {
		return errors.New("gfxtest: submit of a buffer still recording")
	}
	f, _ := fence.(*Fence)
	d.mu.Lock()
	d.Submissions = append(d.Submissions, Submission{Cmd: cb, Wait: wait, Signal: signal, Fence: f})
	d.Log = append(d.Log, "submit "+cb.String())
	d.mu.Unlock()
	if f != nil {
		f.Signaled = true
	}
	return nil
}

func (d *Device) WaitIdle() error {
	d.mu.Lock()
	d.IdleCount++
	d.Log = append(d.Log, "idle")
	d.mu.Unlock()
	return nil
}

// UploadMesh stores the geometry. Empty input yields a mesh with IndexCount 0.
func (d *Device) UploadMesh(vertices []gfx.Vertex, indices []uint32) (gfx.Mesh, error) {
	if d.UploadErr != nil {
		return nil, d.UploadErr
	}
	d.record(fmt.Sprintf("upload %d", len(indices)))
	if len(vertices) == 0 || len(indices) == 0 {
		return &Mesh{Handle: d.newHandle("mesh")}, nil
	}
	return &Mesh{
		Handle:   d.newHandle("mesh"),
		Vertices: append([]gfx.Vertex(nil), vertices...),
		Indices:  append([]uint32(nil), indices...),
	}, nil
}

func (d *Device) CreatePipeline(desc pipeline.Pipeline, source []byte, colorFormat, depthFormat gfx.Format) (gfx.Pipeline, error) {
	if d.PipelineErr != nil {
		return nil, d.PipelineErr
	}
	d.record("pipeline " + desc.PipelineKey())
	return &Pipeline{Handle: d.newHandle("pipe"), Desc: desc, Source: source, ColorFormat: colorFormat}, nil
}

func (d *Device) CreateOverlay() (gfx.Overlay, error) {
	return &Overlay{Handle: d.newHandle("overlay")}, nil
}

// Surface is a fake presentation surface with scripted acquire and present outcomes.
type Surface struct {
	dev *Device

	ImageCount  int
	ColorFormat gfx.Format
	DepthFormat gfx.Format

	// AcquireStatuses and PresentStatuses are consumed front to back; when empty the
	// operation succeeds.
	AcquireStatuses []gfx.Status
	PresentStatuses []gfx.Status
	AcquireErr      error
	PresentErr      error
	CreateErr       error

	Created   []gfx.Extent2D
	Destroyed int
	Presented []uint32

	next uint32
}

var _ gfx.Surface = &Surface{}

// NewSurface returns a fake surface whose resources are counted on dev.
func NewSurface(dev *Device, imageCount int) *Surface {
	return &Surface{dev: dev, ImageCount: imageCount, ColorFormat: 1, DepthFormat: 2}
}

func (s *Surface) CreateSwapchain(extent gfx.Extent2D) (gfx.SwapchainImages, error) {
	if s.CreateErr != nil {
		return gfx.SwapchainImages{}, s.CreateErr
	}
	s.Created = append(s.Created, extent)
	s.next = 0
	out := gfx.SwapchainImages{
		ColorFormat: s.ColorFormat,
		DepthFormat: s.DepthFormat,
		Extent:      extent,
	}
	for i := 0; i < s.ImageCount; i++ {
		img := s.dev.newHandle("img")
		view := s.dev.newHandle("view")
		out.Images = append(out.Images, &img)
		out.Views = append(out.Views, &view)
	}
	depth := s.dev.newHandle("depth")
	depthView := s.dev.newHandle("depthview")
	out.Depth = &depth
	out.DepthView = &depthView
	return out, nil
}

func (s *Surface) DestroySwapchain(images gfx.SwapchainImages) {
	s.Destroyed++
	for _, v := range images.Views {
		v.Release()
	}
	for _, img := range images.Images {
		img.Release()
	}
	if images.DepthView != nil {
		images.DepthView.Release()
	}
	if images.Depth != nil {
		images.Depth.Release()
	}
}

func (s *Surface) AcquireNextImage(signal gfx.Semaphore) (uint32, gfx.Status, error) {
	if s.AcquireErr != nil {
		return 0, gfx.StatusSuccess, s.AcquireErr
	}
	if len(s.AcquireStatuses) > 0 {
		st := s.AcquireStatuses[0]
		s.AcquireStatuses = s.AcquireStatuses[1:]
		if st != gfx.StatusSuccess {
			s.dev.record("acquire " + st.String())
			return 0, st, nil
		}
	}
	idx := s.next
	s.next = (s.next + 1) % uint32(max(s.ImageCount, 1))
	s.dev.record(fmt.Sprintf("acquire %d", idx))
	return idx, gfx.StatusSuccess, nil
}

func (s *Surface) Present(imageIndex uint32, wait gfx.Semaphore) (gfx.Status, error) {
	if s.PresentErr != nil {
		return gfx.StatusSuccess, s.PresentErr
	}
	s.Presented = append(s.Presented, imageIndex)
	st := gfx.StatusSuccess
	if len(s.PresentStatuses) > 0 {
		st = s.PresentStatuses[0]
		s.PresentStatuses = s.PresentStatuses[1:]
	}
	s.dev.record(fmt.Sprintf("present %d %v", imageIndex, st))
	return st, nil
}
