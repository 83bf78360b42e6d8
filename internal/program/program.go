// Package program owns a linked GPU program whose fragment stage can be
// swapped at runtime while the vertex stage stays fixed.
package program

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"shaderplayground/internal/gpu"
)

var (
	ErrCompile = errors.New("shader compile failed")
	ErrLink    = errors.New("program link failed")
)

// StageError carries the driver diagnostic for a failed compile or link.
type StageError struct {
	Stage gpu.ShaderType
	Log   string
	err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Stage, e.err, e.Log)
}

func (e *StageError) Unwrap() error { return e.err }

// Option configures a Program.
type Option func(*Program)

// WithLogger routes build and swap diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(p *Program) {
		if l != nil {
			p.log = l
		}
	}
}

// Program is one linked program with a fixed vertex stage and a live
// fragment stage. It is not safe for concurrent use.
type Program struct {
	gl  gpu.Context
	log *slog.Logger

	program gpu.Program
	vert    gpu.Shader
	frag    gpu.Shader

	errMsg string
	hasErr bool
}

// New compiles both stages and links them. Any failure releases what was
// created and is meant to be fatal for the caller.
func New(ctx gpu.Context, vertexSrc, fragmentSrc string, opts ...Option) (*Program, error) {
	p := &Program{gl: ctx, log: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(p)
	}

	vert, err := compileShader(ctx, gpu.Vertex, vertexSrc)
	if err != nil {
		return nil, err
	}
	frag, err := compileShader(ctx, gpu.Fragment, fragmentSrc)
	if err != nil {
		ctx.DeleteShader(vert)
		return nil, err
	}

	prog, err := ctx.CreateProgram()
	if err != nil {
		ctx.DeleteShader(vert)
		ctx.DeleteShader(frag)
		return nil, fmt.Errorf("creating program: %w", err)
	}
	ctx.AttachShader(prog, vert)
	ctx.AttachShader(prog, frag)
	if err := link(ctx, prog); err != nil {
		ctx.DetachShader(prog, vert)
		ctx.DetachShader(prog, frag)
		ctx.DeleteShader(vert)
		ctx.DeleteShader(frag)
		ctx.DeleteProgram(prog)
		return nil, err
	}

	p.program, p.vert, p.frag = prog, vert, frag
	p.validate()
	p.log.Debug("program built", "program", prog, "vertex_bytes", len(vertexSrc), "fragment_bytes", len(fragmentSrc))
	return p, nil
}

// Handle returns the linked program for binding.
func (p *Program) Handle() gpu.Program { return p.program }

// Error returns the diagnostic of the most recent failed recompile. It is
// cleared by the next successful one.
func (p *Program) Error() (string, bool) { return p.errMsg, p.hasErr }

func (p *Program) setError(msg string) {
	p.errMsg, p.hasErr = msg, true
}

func (p *Program) clearError() {
	p.errMsg, p.hasErr = "", false
}

// RecompileFragment compiles src as the new fragment stage and swaps it in.
// A compile failure leaves the program exactly as it was. A link failure
// after a clean compile puts the previous stage back and relinks, so the
// program stays drawable either way.
func (p *Program) RecompileFragment(src string) error {
	start := time.Now()

	frag, err := compileShader(p.gl, gpu.Fragment, src)
	if err != nil {
		p.setError(diagnostic(err))
		p.log.Info("fragment compile failed", "duration", time.Since(start), "error", err)
		return err
	}
	p.clearError()

	old := p.frag
	p.gl.DetachShader(p.program, old)
	p.gl.AttachShader(p.program, frag)
	if err := link(p.gl, p.program); err != nil {
		p.gl.DetachShader(p.program, frag)
		p.gl.DeleteShader(frag)
		p.gl.AttachShader(p.program, old)
		if rerr := link(p.gl, p.program); rerr != nil {
			// The previous stage linked before; a failure here means the
			// driver lost state underneath us.
			p.log.Error("relinking previous fragment stage failed", "error", rerr)
		}
		p.setError(diagnostic(err))
		p.log.Info("fragment link failed, previous stage restored", "duration", time.Since(start), "error", err)
		return err
	}
	p.gl.DeleteShader(old)
	p.frag = frag
	p.validate()

	p.log.Info("fragment recompiled", "duration", time.Since(start), "bytes", len(src))
	return nil
}

// Teardown releases both stages and the program. Call it exactly once.
func (p *Program) Teardown() {
	p.gl.DetachShader(p.program, p.vert)
	p.gl.DetachShader(p.program, p.frag)
	p.gl.DeleteShader(p.vert)
	p.gl.DeleteShader(p.frag)
	p.gl.DeleteProgram(p.program)
	p.log.Debug("program released", "program", p.program)
}

func (p *Program) validate() {
	p.gl.ValidateProgram(p.program)
	if !p.gl.ProgramValidateStatus(p.program) {
		p.log.Warn("program validation failed", "program", p.program, "log", p.gl.ProgramInfoLog(p.program))
	}
}

// diagnostic prefers the raw driver log and falls back to the error text
// when the driver reports nothing.
func diagnostic(err error) string {
	var se *StageError
	if errors.As(err, &se) && strings.TrimSpace(se.Log) != "" {
		return se.Log
	}
	return err.Error()
}

func compileShader(ctx gpu.Context, kind gpu.ShaderType, src string) (gpu.Shader, error) {
	s, err := ctx.CreateShader(kind)
	if err != nil {
		return 0, fmt.Errorf("creating %s shader: %w", kind, err)
	}
	ctx.ShaderSource(s, src)
	ctx.CompileShader(s)
	if !ctx.ShaderCompileStatus(s) {
		info := ctx.ShaderInfoLog(s)
		ctx.DeleteShader(s)
		return 0, &StageError{Stage: kind, Log: info, err: ErrCompile}
	}
	return s, nil
}

func link(ctx gpu.Context, prog gpu.Program) error {
	ctx.LinkProgram(prog)
	if !ctx.ProgramLinkStatus(prog) {
		return &StageError{Stage: gpu.Fragment, Log: ctx.ProgramInfoLog(prog), err: ErrLink}
	}
	return nil
}
