package main

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"shaderplayground/internal/gpu"
	"shaderplayground/internal/shell"
)

// surface is a hidden GLFW window whose 3.3 core context renders the shader
// output into a framebuffer that is read back for the fyne raster.
//
// fyne draws through its own context on the same thread, so every use of
// ours goes through Run, which restores whatever context was current.
type surface struct {
	mu     sync.Mutex
	window *glfw.Window
	gl     gpu.GL

	fbo, rbo      uint32
	width, height int
	pixels        []byte
}

// newSurface creates the offscreen context. GLFW must be initialized and
// the caller must be on the main thread.
func newSurface() (*surface, error) {
	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.ContextVersionMajor, 3)
	glfw.WindowHint(glfw.ContextVersionMinor, 3)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(16, 16, "shader output", nil, nil)
	// Leave the hints clean for the windows fyne creates.
	glfw.DefaultWindowHints()
	if err != nil {
		return nil, fmt.Errorf("creating offscreen window: %w", err)
	}

	s := &surface{window: window}
	var initErr error
	s.Run(func() {
		s.gl, initErr = gpu.Init()
		if initErr == nil {
			gl.Disable(gl.DEPTH_TEST)
		}
	})
	if initErr != nil {
		window.Destroy()
		return nil, fmt.Errorf("initializing OpenGL: %w", initErr)
	}
	return s, nil
}

// Run calls fn with the offscreen context current. After release it does
// nothing.
func (s *surface) Run(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window == nil {
		return
	}

	prev := glfw.GetCurrentContext()
	s.window.MakeContextCurrent()
	defer func() {
		if prev != nil {
			prev.MakeContextCurrent()
		} else {
			glfw.DetachCurrentContext()
		}
	}()
	fn()
}

// Context returns the GL entry points bound to this surface.
func (s *surface) Context() gpu.Context { return s.gl }

// graphicsContext returns the surface as a shell.GraphicsContext, or an
// untyped nil once it has been released.
func (s *surface) graphicsContext() shell.GraphicsContext {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window == nil {
		return nil
	}
	return s
}

var (
	errFramebuffer = errors.New("offscreen framebuffer incomplete")
	errReleased    = errors.New("offscreen surface released")
)

// ensureTarget (re)allocates the color target for a w×h frame.
// Must run with the context current.
func (s *surface) ensureTarget(w, h int) error {
	if s.fbo != 0 && s.width == w && s.height == h {
		return nil
	}
	s.releaseTarget()

	gl.GenRenderbuffers(1, &s.rbo)
	gl.BindRenderbuffer(gl.RENDERBUFFER, s.rbo)
	gl.RenderbufferStorage(gl.RENDERBUFFER, gl.RGBA8, int32(w), int32(h))
	gl.BindRenderbuffer(gl.RENDERBUFFER, 0)

	gl.GenFramebuffers(1, &s.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
	gl.FramebufferRenderbuffer(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.RENDERBUFFER, s.rbo)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		s.releaseTarget()
		return fmt.Errorf("%w: status 0x%x (%dx%d)", errFramebuffer, status, w, h)
	}

	s.width, s.height = w, h
	s.pixels = make([]byte, w*h*4)
	return nil
}

func (s *surface) releaseTarget() {
	if s.fbo != 0 {
		gl.DeleteFramebuffers(1, &s.fbo)
		s.fbo = 0
	}
	if s.rbo != 0 {
		gl.DeleteRenderbuffers(1, &s.rbo)
		s.rbo = 0
	}
	s.width, s.height = 0, 0
}

// paintFrame runs the frame's paint callbacks into a w×h target and reads
// the result back, top row first.
func (s *surface) paintFrame(f *canvasFrame) (*image.RGBA, error) {
	w, h := f.width, f.height
	var img *image.RGBA
	err := errReleased
	s.Run(func() {
		if err = s.ensureTarget(w, h); err != nil {
			return
		}
		gl.BindFramebuffer(gl.FRAMEBUFFER, s.fbo)
		gl.Viewport(0, 0, int32(w), int32(h))
		gl.ClearColor(0.0, 0.0, 0.0, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		f.run()

		gl.PixelStorei(gl.PACK_ALIGNMENT, 1)
		gl.ReadPixels(0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(&s.pixels[0]))
		gl.BindFramebuffer(gl.FRAMEBUFFER, 0)

		img = image.NewRGBA(image.Rect(0, 0, w, h))
		stride := w * 4
		// GL rows start at the bottom.
		for y := 0; y < h; y++ {
			src := s.pixels[(h-1-y)*stride : (h-y)*stride]
			copy(img.Pix[y*img.Stride:y*img.Stride+stride], src)
		}
	})
	return img, err
}

// release frees the framebuffer and destroys the hidden window. The
// renderer must have been destroyed first.
func (s *surface) release() {
	s.Run(s.releaseTarget)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.window != nil {
		s.window.Destroy()
		s.window = nil
	}
}

// canvasFrame is one raster generation: the output rectangle is the whole
// raster, so Allocate only clamps to it.
type canvasFrame struct {
	width, height int
	paints        []func()
}

func (f *canvasFrame) Allocate(available shell.Rect) shell.Rect {
	w := min(available.Width, float32(f.width))
	h := min(available.Height, float32(f.height))
	return shell.Rect{Width: max(w, 0), Height: max(h, 0)}
}

func (f *canvasFrame) AddPaintCallback(rect shell.Rect, paint func(shell.Rect)) {
	f.paints = append(f.paints, func() { paint(rect) })
}

func (f *canvasFrame) run() {
	for _, p := range f.paints {
		p()
	}
}
