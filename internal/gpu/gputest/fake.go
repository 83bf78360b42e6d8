// Package gputest provides a recording, driver-free gpu.Context for tests.
package gputest

import (
	"fmt"
	"sort"
	"strings"

	"shaderplayground/internal/gpu"
)

// Call is one recorded state-changing or draw command.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// CompileFunc decides whether a shader source compiles. A non-empty log is
// reported on failure.
type CompileFunc func(kind gpu.ShaderType, src string) (ok bool, log string)

// BraceCheck fails sources whose braces or parentheses do not balance, or that
// contain an #error directive. It is enough to tell "unterminated statement"
// sources from good ones.
func BraceCheck(kind gpu.ShaderType, src string) (bool, string) {
	if i := strings.Index(src, "#error"); i >= 0 {
		return false, "0:1: '#error' : " + strings.TrimSpace(firstLine(src[i+len("#error"):]))
	}
	if strings.Count(src, "{") != strings.Count(src, "}") {
		return false, "0:1: '' : syntax error, unexpected end of file"
	}
	if strings.Count(src, "(") != strings.Count(src, ")") {
		return false, "0:1: '' : syntax error, unbalanced parentheses"
	}
	return true, ""
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

type shader struct {
	kind     gpu.ShaderType
	src      string
	compiled bool
	ok       bool
	log      string
}

type program struct {
	attached  map[gpu.Shader]bool
	linked    bool
	linkedSrc map[gpu.ShaderType]string
	validated bool
	log       string
	uniforms  map[string]gpu.UniformLocation
}

// Context is a fake gpu.Context that tracks object lifetimes and records
// every command that would reach the driver.
type Context struct {
	Compile CompileFunc
	// LinkFails, when set, is consulted on every link. Returning true makes
	// the link fail with LinkLog.
	LinkFails func(fragmentSrc string) bool
	LinkLog   string
	// Uniforms lists the uniform names a linked program exposes. When nil,
	// any name that appears in a uniform declaration of an attached source
	// resolves.
	Uniforms []string
	// FailCreate makes the next Create* call of that kind fail.
	FailCreate map[string]bool

	next int

	shaders  map[gpu.Shader]*shader
	programs map[gpu.Program]*program
	buffers  map[gpu.Buffer]bool
	arrays   map[gpu.VertexArray]bool

	bound struct {
		program gpu.Program
		array   gpu.VertexArray
		buffers map[gpu.BufferTarget]gpu.Buffer
	}

	// Deleted counts delete calls per handle kind+name, to catch double releases.
	Deleted map[string]int
	Calls   []Call
}

// New returns a fake context using BraceCheck as the compiler.
func New() *Context {
	c := &Context{
		Compile:  BraceCheck,
		LinkLog:  "error: fragment shader output not linked",
		shaders:  map[gpu.Shader]*shader{},
		programs: map[gpu.Program]*program{},
		buffers:  map[gpu.Buffer]bool{},
		arrays:   map[gpu.VertexArray]bool{},
		Deleted:  map[string]int{},
	}
	c.bound.buffers = map[gpu.BufferTarget]gpu.Buffer{}
	return c
}

func (c *Context) name() uint32 {
	c.next++
	return uint32(c.next)
}

func (c *Context) record(op string, args ...any) {
	c.Calls = append(c.Calls, Call{Op: op, Args: args})
}

func (c *Context) failCreate(kind string) bool {
	if c.FailCreate[kind] {
		delete(c.FailCreate, kind)
		return true
	}
	return false
}

func (c *Context) CreateShader(kind gpu.ShaderType) (gpu.Shader, error) {
	if c.failCreate("shader") {
		return 0, gpu.ErrCreate
	}
	s := gpu.Shader(c.name())
	c.shaders[s] = &shader{kind: kind}
	return s, nil
}

func (c *Context) ShaderSource(s gpu.Shader, src string) {
	c.mustShader(s).src = src
}

func (c *Context) CompileShader(s gpu.Shader) {
	sh := c.mustShader(s)
	sh.compiled = true
	sh.ok, sh.log = c.Compile(sh.kind, sh.src)
	if !sh.ok && sh.log == "" {
		sh.log = "compile failed"
	}
}

func (c *Context) ShaderCompileStatus(s gpu.Shader) bool {
	sh := c.mustShader(s)
	return sh.compiled && sh.ok
}

func (c *Context) ShaderInfoLog(s gpu.Shader) string { return c.mustShader(s).log }

func (c *Context) DeleteShader(s gpu.Shader) {
	c.Deleted[fmt.Sprintf("shader:%d", s)]++
	if _, ok := c.shaders[s]; !ok {
		return
	}
	for _, p := range c.programs {
		if p.attached[s] {
			panic(fmt.Sprintf("gputest: shader %d deleted while attached", s))
		}
	}
	delete(c.shaders, s)
}

func (c *Context) CreateProgram() (gpu.Program, error) {
	if c.failCreate("program") {
		return 0, gpu.ErrCreate
	}
	p := gpu.Program(c.name())
	c.programs[p] = &program{attached: map[gpu.Shader]bool{}}
	return p, nil
}

func (c *Context) AttachShader(p gpu.Program, s gpu.Shader) {
	pr := c.mustProgram(p)
	c.mustShader(s)
	if pr.attached[s] {
		panic(fmt.Sprintf("gputest: shader %d attached twice to program %d", s, p))
	}
	pr.attached[s] = true
	c.record("AttachShader", p, s)
}

func (c *Context) DetachShader(p gpu.Program, s gpu.Shader) {
	pr := c.mustProgram(p)
	if !pr.attached[s] {
		panic(fmt.Sprintf("gputest: shader %d not attached to program %d", s, p))
	}
	delete(pr.attached, s)
	c.record("DetachShader", p, s)
}

func (c *Context) LinkProgram(p gpu.Program) {
	pr := c.mustProgram(p)
	pr.linked, pr.log = false, ""
	srcs := map[gpu.ShaderType]string{}
	for s := range pr.attached {
		sh := c.shaders[s]
		if !sh.compiled || !sh.ok {
			pr.log = "error: attached shader not compiled"
			return
		}
		if _, dup := srcs[sh.kind]; dup {
			pr.log = "error: multiple " + sh.kind.String() + " shaders attached"
			return
		}
		srcs[sh.kind] = sh.src
	}
	if len(srcs) != 2 {
		pr.log = "error: program needs a vertex and a fragment shader"
		return
	}
	if c.LinkFails != nil && c.LinkFails(srcs[gpu.Fragment]) {
		pr.log = c.LinkLog
		return
	}
	pr.linked = true
	pr.linkedSrc = srcs
	pr.uniforms = c.resolveUniforms(srcs)
	c.record("LinkProgram", p)
}

func (c *Context) resolveUniforms(srcs map[gpu.ShaderType]string) map[string]gpu.UniformLocation {
	names := c.Uniforms
	if names == nil {
		for _, src := range srcs {
			for _, line := range strings.Split(src, "\n") {
				f := strings.Fields(strings.TrimSuffix(strings.TrimSpace(line), ";"))
				if len(f) == 3 && f[0] == "uniform" {
					names = append(names, f[2])
				}
			}
		}
	}
	sort.Strings(names)
	out := map[string]gpu.UniformLocation{}
	for i, n := range names {
		out[n] = gpu.UniformLocation(i)
	}
	return out
}

func (c *Context) ProgramLinkStatus(p gpu.Program) bool { return c.mustProgram(p).linked }

func (c *Context) ValidateProgram(p gpu.Program) {
	pr := c.mustProgram(p)
	pr.validated = pr.linked
}

func (c *Context) ProgramValidateStatus(p gpu.Program) bool { return c.mustProgram(p).validated }

func (c *Context) ProgramInfoLog(p gpu.Program) string { return c.mustProgram(p).log }

func (c *Context) DeleteProgram(p gpu.Program) {
	c.Deleted[fmt.Sprintf("program:%d", p)]++
	delete(c.programs, p)
}

func (c *Context) UseProgram(p gpu.Program) {
	if p != 0 {
		c.mustProgram(p)
	}
	c.bound.program = p
	c.record("UseProgram", p)
}

func (c *Context) UniformLocation(p gpu.Program, name string) (gpu.UniformLocation, bool) {
	pr := c.mustProgram(p)
	loc, ok := pr.uniforms[name]
	return loc, ok
}

func (c *Context) Uniform2f(loc gpu.UniformLocation, x, y float32) {
	if c.bound.program == 0 {
		panic("gputest: uniform set with no program bound")
	}
	c.record("Uniform2f", loc, x, y)
}

func (c *Context) CreateVertexArray() (gpu.VertexArray, error) {
	if c.failCreate("vertexarray") {
		return 0, gpu.ErrCreate
	}
	va := gpu.VertexArray(c.name())
	c.arrays[va] = true
	return va, nil
}

func (c *Context) BindVertexArray(va gpu.VertexArray) {
	if va != 0 && !c.arrays[va] {
		panic(fmt.Sprintf("gputest: unknown vertex array %d", va))
	}
	c.bound.array = va
	c.record("BindVertexArray", va)
}

func (c *Context) DeleteVertexArray(va gpu.VertexArray) {
	c.Deleted[fmt.Sprintf("vertexarray:%d", va)]++
	delete(c.arrays, va)
}

func (c *Context) CreateBuffer() (gpu.Buffer, error) {
	if c.failCreate("buffer") {
		return 0, gpu.ErrCreate
	}
	b := gpu.Buffer(c.name())
	c.buffers[b] = true
	return b, nil
}

func (c *Context) BindBuffer(target gpu.BufferTarget, b gpu.Buffer) {
	c.bound.buffers[target] = b
	c.record("BindBuffer", target, b)
}

func (c *Context) BufferFloat32(target gpu.BufferTarget, data []float32) {
	c.record("BufferFloat32", target, append([]float32(nil), data...))
}

func (c *Context) BufferUint32(target gpu.BufferTarget, data []uint32) {
	c.record("BufferUint32", target, append([]uint32(nil), data...))
}

func (c *Context) DeleteBuffer(b gpu.Buffer) {
	c.Deleted[fmt.Sprintf("buffer:%d", b)]++
	delete(c.buffers, b)
}

func (c *Context) EnableVertexAttribArray(index uint32) {
	c.record("EnableVertexAttribArray", index)
}

func (c *Context) VertexAttribFloat32(index uint32, size, stride int32, offset int) {
	c.record("VertexAttribFloat32", index, size, stride, offset)
}

func (c *Context) Viewport(x, y, width, height int32) {
	c.record("Viewport", x, y, width, height)
}

func (c *Context) DrawTriangles(count int32) {
	pr, ok := c.programs[c.bound.program]
	if !ok || !pr.linked {
		panic("gputest: draw without a linked program")
	}
	if c.bound.array == 0 {
		panic("gputest: draw without a vertex array")
	}
	c.record("DrawTriangles", count, pr.linkedSrc[gpu.Fragment])
}

func (c *Context) mustShader(s gpu.Shader) *shader {
	sh, ok := c.shaders[s]
	if !ok {
		panic(fmt.Sprintf("gputest: unknown shader %d", s))
	}
	return sh
}

func (c *Context) mustProgram(p gpu.Program) *program {
	pr, ok := c.programs[p]
	if !ok {
		panic(fmt.Sprintf("gputest: unknown program %d", p))
	}
	return pr
}

// LiveShaders reports the shader names not yet deleted.
func (c *Context) LiveShaders() []gpu.Shader {
	out := make([]gpu.Shader, 0, len(c.shaders))
	for s := range c.shaders {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Live reports how many objects of each kind are still allocated.
func (c *Context) Live() (shaders, programs, buffers, arrays int) {
	return len(c.shaders), len(c.programs), len(c.buffers), len(c.arrays)
}

// Attached returns the shaders attached to p, grouped by stage.
func (c *Context) Attached(p gpu.Program) map[gpu.ShaderType][]gpu.Shader {
	pr := c.mustProgram(p)
	out := map[gpu.ShaderType][]gpu.Shader{}
	for s := range pr.attached {
		kind := c.shaders[s].kind
		out[kind] = append(out[kind], s)
	}
	return out
}

// LinkedFragment returns the fragment source of p's last successful link.
func (c *Context) LinkedFragment(p gpu.Program) string {
	pr := c.mustProgram(p)
	if !pr.linked {
		return ""
	}
	return pr.linkedSrc[gpu.Fragment]
}

// DoubleDeletes lists handles released more than once.
func (c *Context) DoubleDeletes() []string {
	var out []string
	for k, n := range c.Deleted {
		if n > 1 {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Reset drops the recorded call log.
func (c *Context) Reset() { c.Calls = nil }
