// Package gpu is the narrow slice of OpenGL the playground drives.
//
// Handles are plain identifiers with explicit create/delete pairs. Nothing is
// released automatically: the component that created an object deletes it.
package gpu

import "errors"

// ErrCreate is returned when the driver refuses to hand out a new object name.
var ErrCreate = errors.New("gpu: object creation failed")

// ShaderType tags a shader stage.
type ShaderType int

const (
	Vertex ShaderType = iota
	Fragment
)

func (t ShaderType) String() string {
	switch t {
	case Vertex:
		return "vertex"
	case Fragment:
		return "fragment"
	}
	return "unknown"
}

type (
	Shader      uint32
	Program     uint32
	Buffer      uint32
	VertexArray uint32
)

// UniformLocation is a resolved uniform slot. Lookups for names the linked
// program does not use report ok == false instead of returning -1.
type UniformLocation int32

// BufferTarget selects the binding point for BindBuffer and the data uploads.
type BufferTarget int

const (
	ArrayBuffer BufferTarget = iota
	ElementArrayBuffer
)

// Context is the set of GL entry points used by the program and renderer.
// Implementations are not safe for concurrent use: the caller makes the
// backing context current and serializes access.
type Context interface {
	CreateShader(kind ShaderType) (Shader, error)
	ShaderSource(s Shader, src string)
	CompileShader(s Shader)
	ShaderCompileStatus(s Shader) bool
	ShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() (Program, error)
	AttachShader(p Program, s Shader)
	DetachShader(p Program, s Shader)
	LinkProgram(p Program)
	ProgramLinkStatus(p Program) bool
	ValidateProgram(p Program)
	ProgramValidateStatus(p Program) bool
	ProgramInfoLog(p Program) string
	DeleteProgram(p Program)
	// UseProgram binds p; zero unbinds.
	UseProgram(p Program)

	UniformLocation(p Program, name string) (UniformLocation, bool)
	Uniform2f(loc UniformLocation, x, y float32)

	CreateVertexArray() (VertexArray, error)
	// BindVertexArray binds va; zero unbinds.
	BindVertexArray(va VertexArray)
	DeleteVertexArray(va VertexArray)

	CreateBuffer() (Buffer, error)
	BindBuffer(target BufferTarget, b Buffer)
	BufferFloat32(target BufferTarget, data []float32)
	BufferUint32(target BufferTarget, data []uint32)
	DeleteBuffer(b Buffer)

	EnableVertexAttribArray(index uint32)
	// VertexAttribFloat32 describes a float attribute. Stride and offset are in bytes.
	VertexAttribFloat32(index uint32, size, stride int32, offset int)

	Viewport(x, y, width, height int32)
	// DrawTriangles issues an indexed triangle draw of count uint32 indices
	// from the bound element buffer.
	DrawTriangles(count int32)
}
