package gfx

import "context"

// Releaser is implemented by every GPU handle that owns backend resources.
type Releaser interface {
	Release()
}

// Fence is a CPU-visible completion marker for one submission.
type Fence interface {
	Releaser
}

// Semaphore orders GPU work between acquire, submit and present.
type Semaphore interface {
	Releaser
}

// Image is a GPU image that layout barriers can target.
type Image interface {
	Releaser
}

// ImageView is a render target view of an Image.
type ImageView interface {
	Releaser
}

// Mesh is an uploaded vertex and index buffer pair. A zero IndexCount means nothing to draw.
type Mesh interface {
	Releaser
	IndexCount() int
}

// Pipeline is a compiled graphics pipeline.
type Pipeline interface {
	Releaser
}

// Overlay is a screen space RGBA image composited on top of the scene.
type Overlay interface {
	Releaser

	// Update replaces the overlay pixels. Width and height may change between calls.
	//
	// Parameters:
	//   - pixels: tightly packed RGBA8 data, premultiplied alpha
	//   - width: the image width in pixels
	//   - height: the image height in pixels
	//
	// Returns:
	//   - error: an error if the upload fails
	Update(pixels []byte, width, height uint32) error
}

// RenderingInfo describes the attachments of a dynamic rendering scope.
type RenderingInfo struct {
	ColorView  ImageView
	DepthView  ImageView
	Extent     Extent2D
	ClearColor [4]float32
	ClearDepth float32
}

// CommandBuffer records GPU work for one frame slot.
type CommandBuffer interface {
	Releaser

	// Begin resets the buffer and starts recording.
	Begin() error

	// End finishes recording. The buffer can then be submitted.
	End() error

	// ImageBarrier transitions image from oldLayout to newLayout.
	ImageBarrier(image Image, oldLayout, newLayout ImageLayout)

	// BeginRendering opens a rendering scope that clears the attachments in info.
	BeginRendering(info RenderingInfo)

	// EndRendering closes the scope opened by BeginRendering.
	EndRendering()

	SetViewport(v Viewport)
	SetScissor(r Rect)
	BindPipeline(p Pipeline)

	// PushConstants uploads a small block of data visible to the given stages of p.
	PushConstants(p Pipeline, stages ShaderStage, offset uint32, data []byte)

	// BindMesh binds the vertex and index buffers of m.
	BindMesh(m Mesh)

	DrawIndexed(indexCount, instanceCount uint32)

	// DrawOverlay composites o into the current rendering scope at the pixel rectangle dst.
	DrawOverlay(o Overlay, dst Rect)
}

// Device is the GPU device used for synchronization, submission and resource creation.
type Device interface {
	// CreateFence creates a fence, optionally already signaled so the first wait returns at once.
	CreateFence(signaled bool) (Fence, error)

	CreateSemaphore() (Semaphore, error)

	CreateCommandBuffer() (CommandBuffer, error)

	// WaitForFence blocks until f is signaled or ctx is done.
	WaitForFence(ctx context.Context, f Fence) error

	// ResetFence returns f to the unsignaled state.
	ResetFence(f Fence) error

	// Submit queues cmd. The GPU waits on wait before executing it, then signals signal and fence.
	Submit(cmd CommandBuffer, wait, signal Semaphore, fence Fence) error

	// WaitIdle blocks until every submitted command buffer has finished executing.
	WaitIdle() error
}

// SwapchainImages are the presentable images of one swapchain generation plus the shared depth target.
type SwapchainImages struct {
	Images      []Image
	Views       []ImageView
	Depth       Image
	DepthView   ImageView
	ColorFormat Format
	DepthFormat Format
	Extent      Extent2D
}

// Surface is the presentation engine of a window.
type Surface interface {
	// CreateSwapchain builds the images, views and depth target for extent.
	CreateSwapchain(extent Extent2D) (SwapchainImages, error)

	// DestroySwapchain releases everything CreateSwapchain returned.
	DestroySwapchain(images SwapchainImages)

	// AcquireNextImage obtains the index of the next presentable image and signals signal
	// when it is ready to be rendered to.
	AcquireNextImage(signal Semaphore) (uint32, Status, error)

	// Present queues imageIndex for display once wait is signaled.
	Present(imageIndex uint32, wait Semaphore) (Status, error)
}
