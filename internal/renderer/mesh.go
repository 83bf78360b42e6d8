package renderer

import (
	"fmt"

	"shaderplayground/internal/gpu"
)

// Unit quad centered on the origin, position only (location 0, vec3).
var quadVertices = []float32{
	0.5, 0.5, 0.0, // top right
	0.5, -0.5, 0.0, // bottom right
	-0.5, -0.5, 0.0, // bottom left
	-0.5, 0.5, 0.0, // top left
}

var quadIndices = []uint32{
	0, 1, 3,
	1, 2, 3,
}

// Mesh is the static quad and the GPU objects holding it.
type Mesh struct {
	vao gpu.VertexArray
	vbo gpu.Buffer
	ebo gpu.Buffer
}

func newMesh(ctx gpu.Context) (*Mesh, error) {
	m := &Mesh{}
	var err error
	if m.vao, err = ctx.CreateVertexArray(); err != nil {
		return nil, fmt.Errorf("creating vertex array: %w", err)
	}
	if m.vbo, err = ctx.CreateBuffer(); err != nil {
		ctx.DeleteVertexArray(m.vao)
		return nil, fmt.Errorf("creating vertex buffer: %w", err)
	}
	if m.ebo, err = ctx.CreateBuffer(); err != nil {
		ctx.DeleteBuffer(m.vbo)
		ctx.DeleteVertexArray(m.vao)
		return nil, fmt.Errorf("creating index buffer: %w", err)
	}

	ctx.BindVertexArray(m.vao)

	ctx.BindBuffer(gpu.ArrayBuffer, m.vbo)
	ctx.BufferFloat32(gpu.ArrayBuffer, quadVertices)

	// Position (location 0)
	ctx.EnableVertexAttribArray(0)
	ctx.VertexAttribFloat32(0, 3, 3*4, 0)

	// The element binding is recorded in the vertex array.
	ctx.BindBuffer(gpu.ElementArrayBuffer, m.ebo)
	ctx.BufferUint32(gpu.ElementArrayBuffer, quadIndices)

	ctx.BindVertexArray(0)
	return m, nil
}

func (m *Mesh) indexCount() int32 { return int32(len(quadIndices)) }

func (m *Mesh) release(ctx gpu.Context) {
	ctx.DeleteVertexArray(m.vao)
	ctx.DeleteBuffer(m.vbo)
	ctx.DeleteBuffer(m.ebo)
}
