// Package shell connects editor events and the per-frame paint hook to the
// shared renderer. It knows nothing about the GUI toolkit.
package shell

import (
	"log/slog"
	"time"

	"shaderplayground/internal/renderer"
	"shaderplayground/internal/telemetry"
)

// Rect is a target rectangle in framebuffer pixels.
type Rect = renderer.Rect

// Renderer is the shared renderer handle. *renderer.Shared implements it.
type Renderer interface {
	RecompileFragmentShader(src string) error
	Error() (string, bool)
	Paint(rect Rect)
	Destroy()
}

// Frame is the host's layout and paint pipeline for one displayed frame.
type Frame interface {
	// Allocate reserves the output canvas inside the available area.
	Allocate(available Rect) Rect
	// AddPaintCallback registers paint to be run by the render pipeline,
	// with the rectangle it resolved for rect.
	AddPaintCallback(rect Rect, paint func(resolved Rect))
}

// GraphicsContext runs fn with the GL context current.
type GraphicsContext interface {
	Run(fn func())
}

// Option configures a Shell.
type Option func(*Shell)

// WithGLSLVersion sets the version directive used in the preamble.
func WithGLSLVersion(v string) Option {
	return func(s *Shell) { s.version = v }
}

// WithSource sets the initial editor text.
func WithSource(src string) Option {
	return func(s *Shell) { s.source = src }
}

// WithContext makes compiles run with gc current.
func WithContext(gc GraphicsContext) Option {
	return func(s *Shell) { s.gc = gc }
}

// WithCompileLog records every compile attempt to l.
func WithCompileLog(l *telemetry.CompileLog) Option {
	return func(s *Shell) { s.compileLog = l }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Shell) {
		if l != nil {
			s.log = l
		}
	}
}

// Shell owns the editable shader text and the compile status.
// Its methods are called from the GUI goroutine.
type Shell struct {
	renderer   Renderer
	gc         GraphicsContext
	compileLog *telemetry.CompileLog
	log        *slog.Logger

	version string
	source  string
	status  Status
}

// New returns a shell driving r, starting from DefaultShader.
func New(r Renderer, opts ...Option) *Shell {
	s := &Shell{
		renderer: r,
		log:      slog.New(slog.DiscardHandler),
		version:  DefaultGLSLVersion,
		source:   DefaultShader(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the current editor text.
func (s *Shell) Source() string { return s.source }

// SetSource applies an edit.
func (s *Shell) SetSource(text string) { s.source = text }

// Status returns the compile status to display.
func (s *Shell) Status() Status { return s.status }

// OnCompileClicked recompiles the fragment stage from the editor text and
// updates the status from the renderer's error state.
func (s *Shell) OnCompileClicked() {
	src := FragmentSource(s.version, s.source)
	start := time.Now()

	var (
		msg    string
		failed bool
	)
	s.withContext(func() {
		// The result is read back through Error, like the status panel does.
		_ = s.renderer.RecompileFragmentShader(src)
		msg, failed = s.renderer.Error()
	})
	elapsed := time.Since(start)

	s.status = nextStatus(msg, failed)
	s.log.Debug("compile finished", "status", s.status.Kind, "duration", elapsed)

	rec := telemetry.NewCompileRecord(start, elapsed, len(s.source), failed, msg)
	if err := s.compileLog.Write(rec); err != nil {
		s.log.Warn("compile log write failed", "error", err)
	}
}

// RenderFrame reserves the output canvas and schedules this frame's paint.
func (s *Shell) RenderFrame(frame Frame, available Rect) {
	rect := frame.Allocate(available)
	r := s.renderer
	frame.AddPaintCallback(rect, func(resolved Rect) {
		r.Paint(resolved)
	})
}

// OnTeardown destroys the renderer if the graphics context is still
// around. With the context already gone there is nothing left to release.
func (s *Shell) OnTeardown(gc GraphicsContext) {
	if gc == nil {
		s.log.Debug("teardown without graphics context")
		return
	}
	gc.Run(s.renderer.Destroy)
	s.log.Info("renderer released")
}

func (s *Shell) withContext(fn func()) {
	if s.gc == nil {
		fn()
		return
	}
	s.gc.Run(fn)
}
