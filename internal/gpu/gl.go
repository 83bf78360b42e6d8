package gpu

import (
	"strings"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// GL implements Context on top of the go-gl 3.3 core bindings.
// Init must have succeeded with a 3.3 core context current.
type GL struct{}

// Init loads the GL function pointers for the current context.
func Init() (GL, error) {
	if err := gl.Init(); err != nil {
		return GL{}, err
	}
	return GL{}, nil
}

func shaderEnum(kind ShaderType) uint32 {
	if kind == Fragment {
		return gl.FRAGMENT_SHADER
	}
	return gl.VERTEX_SHADER
}

func bufferEnum(target BufferTarget) uint32 {
	if target == ElementArrayBuffer {
		return gl.ELEMENT_ARRAY_BUFFER
	}
	return gl.ARRAY_BUFFER
}

func (GL) CreateShader(kind ShaderType) (Shader, error) {
	s := gl.CreateShader(shaderEnum(kind))
	if s == 0 {
		return 0, ErrCreate
	}
	return Shader(s), nil
}

func (GL) ShaderSource(s Shader, src string) {
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(uint32(s), 1, csources, nil)
	free()
}

func (GL) CompileShader(s Shader) { gl.CompileShader(uint32(s)) }

func (GL) ShaderCompileStatus(s Shader) bool {
	var status int32
	gl.GetShaderiv(uint32(s), gl.COMPILE_STATUS, &status)
	return status == gl.TRUE
}

func (GL) ShaderInfoLog(s Shader) string {
	var logLength int32
	gl.GetShaderiv(uint32(s), gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	logBytes := make([]byte, logLength)
	gl.GetShaderInfoLog(uint32(s), logLength, nil, &logBytes[0])
	return strings.TrimRight(string(logBytes), "\x00")
}

func (GL) DeleteShader(s Shader) { gl.DeleteShader(uint32(s)) }

func (GL) CreateProgram() (Program, error) {
	p := gl.CreateProgram()
	if p == 0 {
		return 0, ErrCreate
	}
	return Program(p), nil
}

func (GL) AttachShader(p Program, s Shader) { gl.AttachShader(uint32(p), uint32(s)) }
func (GL) DetachShader(p Program, s Shader) { gl.DetachShader(uint32(p), uint32(s)) }
func (GL) LinkProgram(p Program)            { gl.LinkProgram(uint32(p)) }
func (GL) ValidateProgram(p Program)        { gl.ValidateProgram(uint32(p)) }
func (GL) DeleteProgram(p Program)          { gl.DeleteProgram(uint32(p)) }
func (GL) UseProgram(p Program)             { gl.UseProgram(uint32(p)) }

func (GL) ProgramLinkStatus(p Program) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.LINK_STATUS, &status)
	return status == gl.TRUE
}

func (GL) ProgramValidateStatus(p Program) bool {
	var status int32
	gl.GetProgramiv(uint32(p), gl.VALIDATE_STATUS, &status)
	return status == gl.TRUE
}

func (GL) ProgramInfoLog(p Program) string {
	var logLength int32
	gl.GetProgramiv(uint32(p), gl.INFO_LOG_LENGTH, &logLength)
	if logLength <= 0 {
		return ""
	}
	logBytes := make([]byte, logLength)
	gl.GetProgramInfoLog(uint32(p), logLength, nil, &logBytes[0])
	return strings.TrimRight(string(logBytes), "\x00")
}

func (GL) UniformLocation(p Program, name string) (UniformLocation, bool) {
	loc := gl.GetUniformLocation(uint32(p), gl.Str(name+"\x00"))
	if loc < 0 {
		return 0, false
	}
	return UniformLocation(loc), true
}

func (GL) Uniform2f(loc UniformLocation, x, y float32) { gl.Uniform2f(int32(loc), x, y) }

func (GL) CreateVertexArray() (VertexArray, error) {
	var vao uint32
	gl.GenVertexArrays(1, &vao)
	if vao == 0 {
		return 0, ErrCreate
	}
	return VertexArray(vao), nil
}

func (GL) BindVertexArray(va VertexArray) { gl.BindVertexArray(uint32(va)) }

func (GL) DeleteVertexArray(va VertexArray) {
	vao := uint32(va)
	gl.DeleteVertexArrays(1, &vao)
}

func (GL) CreateBuffer() (Buffer, error) {
	var b uint32
	gl.GenBuffers(1, &b)
	if b == 0 {
		return 0, ErrCreate
	}
	return Buffer(b), nil
}

func (GL) BindBuffer(target BufferTarget, b Buffer) { gl.BindBuffer(bufferEnum(target), uint32(b)) }

func (GL) BufferFloat32(target BufferTarget, data []float32) {
	gl.BufferData(bufferEnum(target), len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (GL) BufferUint32(target BufferTarget, data []uint32) {
	gl.BufferData(bufferEnum(target), len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
}

func (GL) DeleteBuffer(b Buffer) {
	name := uint32(b)
	gl.DeleteBuffers(1, &name)
}

func (GL) EnableVertexAttribArray(index uint32) { gl.EnableVertexAttribArray(index) }

func (GL) VertexAttribFloat32(index uint32, size, stride int32, offset int) {
	gl.VertexAttribPointerWithOffset(index, size, gl.FLOAT, false, stride, uintptr(offset))
}

func (GL) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }

func (GL) DrawTriangles(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_INT, gl.PtrOffset(0))
}
