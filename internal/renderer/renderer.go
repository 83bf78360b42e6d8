// Package renderer draws the current fragment program over a quad inside a
// target rectangle.
package renderer

import (
	"fmt"
	"log/slog"

	"shaderplayground/internal/gpu"
	"shaderplayground/internal/program"
)

// ResolutionUniform is the vec2 uniform set to the target size on every paint.
const ResolutionUniform = "u_resolution"

// Rect is a target rectangle in framebuffer pixels, origin bottom-left.
type Rect struct {
	X, Y          float32
	Width, Height float32
}

// Renderer owns the quad mesh and the program. It is not safe for
// concurrent use; share it through Shared.
type Renderer struct {
	gl      gpu.Context
	log     *slog.Logger
	mesh    *Mesh
	program *program.Program
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger used by the renderer and its program.
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.log = l
		}
	}
}

// New builds the mesh and the initial program. Both sources must already
// carry their preamble.
func New(ctx gpu.Context, vertexSrc, fragmentSrc string, opts ...Option) (*Renderer, error) {
	r := &Renderer{gl: ctx, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(r)
	}

	mesh, err := newMesh(ctx)
	if err != nil {
		return nil, fmt.Errorf("building quad: %w", err)
	}
	prog, err := program.New(ctx, vertexSrc, fragmentSrc, program.WithLogger(r.log))
	if err != nil {
		mesh.release(ctx)
		return nil, fmt.Errorf("building program: %w", err)
	}
	r.mesh, r.program = mesh, prog
	return r, nil
}

// RecompileFragmentShader swaps in a new fragment stage.
func (r *Renderer) RecompileFragmentShader(src string) error {
	return r.program.RecompileFragment(src)
}

// Error reports the diagnostic of the last failed recompile, if any.
func (r *Renderer) Error() (string, bool) {
	return r.program.Error()
}

// Paint draws the quad into rect with the current program.
func (r *Renderer) Paint(rect Rect) {
	gl := r.gl
	gl.Viewport(int32(rect.X), int32(rect.Y), int32(rect.Width), int32(rect.Height))

	prog := r.program.Handle()
	gl.UseProgram(prog)
	if loc, ok := gl.UniformLocation(prog, ResolutionUniform); ok {
		gl.Uniform2f(loc, rect.Width, rect.Height)
	}

	gl.BindVertexArray(r.mesh.vao)
	gl.DrawTriangles(r.mesh.indexCount())
	gl.BindVertexArray(0)
	gl.UseProgram(0)
}

// Destroy releases the mesh and the program. Call it once, while the
// context is still current, and never paint afterwards.
func (r *Renderer) Destroy() {
	r.program.Teardown()
	r.mesh.release(r.gl)
	r.log.Debug("renderer destroyed")
}
