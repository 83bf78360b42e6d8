package shell

import (
	_ "embed"
	"strings"
)

// DefaultGLSLVersion matches the 3.3 core context the host creates.
const DefaultGLSLVersion = "330 core"

//go:embed shaders/quad.vert
var quadVertexBody string

//go:embed shaders/default.frag
var defaultFragmentBody string

// DefaultShader is the editable text the editor starts with.
func DefaultShader() string { return defaultFragmentBody }

// Preamble is the fixed text prepended to every fragment source: version
// directive, precision qualifier and the resolution uniform.
func Preamble(version string) string {
	var b strings.Builder
	b.WriteString("#version ")
	b.WriteString(version)
	b.WriteString("\nprecision mediump float;\nuniform vec2 u_resolution;\n")
	return b.String()
}

// FragmentSource wraps user text with the preamble.
func FragmentSource(version, userText string) string {
	return Preamble(version) + userText
}

// VertexSource is the fixed, non-editable vertex stage.
func VertexSource(version string) string {
	return "#version " + version + "\n" + quadVertexBody
}
