package shell

import (
	"bytes"
	"strings"
	"testing"

	"shaderplayground/internal/gpu/gputest"
	"shaderplayground/internal/renderer"
	"shaderplayground/internal/telemetry"
)

// fakeFrame allocates a fixed inset of the available area and runs the
// paint callbacks when flushed, like a host render pass.
type fakeFrame struct {
	inset     float32
	callbacks []func()
}

func (f *fakeFrame) Allocate(available Rect) Rect {
	return Rect{
		X:      available.X + f.inset,
		Y:      available.Y + f.inset,
		Width:  available.Width - 2*f.inset,
		Height: available.Height - 2*f.inset,
	}
}

func (f *fakeFrame) AddPaintCallback(rect Rect, paint func(Rect)) {
	f.callbacks = append(f.callbacks, func() { paint(rect) })
}

func (f *fakeFrame) flush() {
	for _, cb := range f.callbacks {
		cb()
	}
	f.callbacks = nil
}

type countingContext struct{ runs int }

func (c *countingContext) Run(fn func()) {
	c.runs++
	fn()
}

func newShell(t *testing.T, opts ...Option) (*Shell, *gputest.Context, *renderer.Shared) {
	t.Helper()
	ctx := gputest.New()
	r, err := renderer.New(ctx, VertexSource(DefaultGLSLVersion), FragmentSource(DefaultGLSLVersion, DefaultShader()))
	if err != nil {
		t.Fatalf("renderer.New: %v", err)
	}
	ctx.Reset()
	shared := renderer.NewShared(r)
	return New(shared, opts...), ctx, shared
}

func drawnFragments(ctx *gputest.Context) []string {
	var out []string
	for _, c := range ctx.Calls {
		if c.Op == "DrawTriangles" {
			out = append(out, c.Args[1].(string))
		}
	}
	return out
}

func TestPreamble(t *testing.T) {
	got := Preamble("300 es")
	want := "#version 300 es\nprecision mediump float;\nuniform vec2 u_resolution;\n"
	if got != want {
		t.Errorf("Preamble = %q, want %q", got, want)
	}
	if src := FragmentSource("330 core", "void main() {}"); !strings.HasSuffix(src, "uniform vec2 u_resolution;\nvoid main() {}") {
		t.Errorf("FragmentSource = %q", src)
	}
	if v := VertexSource("330 core"); !strings.HasPrefix(v, "#version 330 core\n") || !strings.Contains(v, "layout(location = 0) in vec3") {
		t.Errorf("VertexSource = %q", v)
	}
}

func TestShell_StartsUnknownWithDefaultShader(t *testing.T) {
	s, _, _ := newShell(t)
	if s.Status().Kind != StatusUnknown {
		t.Errorf("initial status = %v", s.Status().Kind)
	}
	if s.Source() != DefaultShader() || s.Source() == "" {
		t.Error("editor should start with the default shader")
	}
}

func TestShell_StatusTransitions(t *testing.T) {
	gc := &countingContext{}
	s, _, _ := newShell(t, WithContext(gc))

	steps := []struct {
		source string
		want   StatusKind
	}{
		{"out vec4 fragColor;\nvoid main() { fragColor = vec4(1.0); }\n", StatusSuccess},
		{"out vec4 fragColor;\nvoid main() { fragColor = vec4(1.0)\n", StatusFailed},
		{"out vec4 fragColor;\nvoid main() { fragColor = vec4(1.0\n", StatusFailed},
		{"out vec4 fragColor;\nvoid main() { fragColor = vec4(0.5); }\n", StatusSuccess},
		{"out vec4 fragColor;\nvoid main() { fragColor = vec4(0.25); }\n", StatusSuccess},
	}
	for i, step := range steps {
		s.SetSource(step.source)
		s.OnCompileClicked()
		st := s.Status()
		if st.Kind != step.want {
			t.Fatalf("step %d: status = %v, want %v", i, st.Kind, step.want)
		}
		if st.Kind == StatusFailed && st.Message == "" {
			t.Fatalf("step %d: failed status without message", i)
		}
		if st.Kind == StatusSuccess && st.Message != "" {
			t.Fatalf("step %d: success status carries %q", i, st.Message)
		}
	}
	if gc.runs != len(steps) {
		t.Errorf("compiles ran with context %d times, want %d", gc.runs, len(steps))
	}
}

func TestShell_FailedCompileKeepsRendering(t *testing.T) {
	s, ctx, _ := newShell(t)
	frame := &fakeFrame{}

	s.RenderFrame(frame, Rect{Width: 200, Height: 100})
	frame.flush()
	before := drawnFragments(ctx)
	if len(before) != 1 {
		t.Fatalf("draws = %d, want 1", len(before))
	}

	s.SetSource("void main() { broken(\n")
	s.OnCompileClicked()
	if s.Status().Kind != StatusFailed {
		t.Fatalf("status = %v, want failed", s.Status().Kind)
	}
	if !strings.HasPrefix(s.Status().Text(), "Failed to compile shader\nerror: ") {
		t.Errorf("status text = %q", s.Status().Text())
	}

	ctx.Reset()
	s.RenderFrame(frame, Rect{Width: 200, Height: 100})
	frame.flush()
	after := drawnFragments(ctx)
	if len(after) != 1 || after[0] != before[0] {
		t.Errorf("drew %q after failed compile, want the previous program", after)
	}
}

func TestShell_RenderFramePaintsResolvedRect(t *testing.T) {
	s, ctx, _ := newShell(t)
	frame := &fakeFrame{inset: 10}

	s.RenderFrame(frame, Rect{X: 0, Y: 0, Width: 820, Height: 620})
	if len(ctx.Calls) != 0 {
		t.Fatal("RenderFrame must defer painting to the pipeline")
	}
	frame.flush()

	var vp, uni []any
	for _, c := range ctx.Calls {
		switch c.Op {
		case "Viewport":
			vp = c.Args
		case "Uniform2f":
			uni = c.Args[1:]
		}
	}
	if len(vp) != 4 || vp[0] != int32(10) || vp[1] != int32(10) || vp[2] != int32(800) || vp[3] != int32(600) {
		t.Errorf("viewport = %v, want [10 10 800 600]", vp)
	}
	if len(uni) != 2 || uni[0] != float32(800) || uni[1] != float32(600) {
		t.Errorf("u_resolution = %v, want [800 600]", uni)
	}
}

func TestShell_Teardown(t *testing.T) {
	t.Run("context alive", func(t *testing.T) {
		s, ctx, shared := newShell(t)
		gc := &countingContext{}
		s.OnTeardown(gc)
		if gc.runs != 1 || !shared.Destroyed() {
			t.Fatalf("runs = %d, destroyed = %v", gc.runs, shared.Destroyed())
		}
		if sh, p, b, a := ctx.Live(); sh+p+b+a != 0 {
			t.Errorf("objects alive after teardown: %d %d %d %d", sh, p, b, a)
		}
	})
	t.Run("context gone", func(t *testing.T) {
		s, ctx, shared := newShell(t)
		s.OnTeardown(nil)
		if shared.Destroyed() {
			t.Fatal("renderer destroyed without a context")
		}
		if _, p, _, _ := ctx.Live(); p != 1 {
			t.Errorf("programs alive = %d, want 1", p)
		}
	})
}

func TestShell_CompileLog(t *testing.T) {
	var buf bytes.Buffer
	s, _, _ := newShell(t, WithCompileLog(telemetry.NewCompileLog(&buf)))

	s.OnCompileClicked()
	s.SetSource("void main() {")
	s.OnCompileClicked()

	raw := buf.String()
	if strings.Contains(raw, "void main") {
		t.Error("shader text must not be logged")
	}
	records, err := telemetry.ReadCompileLog(&buf)
	if err != nil {
		t.Fatalf("ReadCompileLog: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Outcome != telemetry.OutcomeSuccess || records[1].Outcome != telemetry.OutcomeFailed {
		t.Errorf("outcomes = %q, %q", records[0].Outcome, records[1].Outcome)
	}
	if records[1].SourceBytes != len("void main() {") || records[1].Message == "" {
		t.Errorf("failed record = %+v", records[1])
	}
}

func TestShell_PreambleVersion(t *testing.T) {
	s, ctx, _ := newShell(t, WithGLSLVersion("300 es"), WithSource("out vec4 c;\nvoid main() { c = vec4(1.0); }\n"))
	s.OnCompileClicked()

	frame := &fakeFrame{}
	s.RenderFrame(frame, Rect{Width: 8, Height: 8})
	frame.flush()
	got := drawnFragments(ctx)
	if len(got) != 1 || !strings.HasPrefix(got[0], "#version 300 es\n") {
		t.Errorf("drawn fragment = %q", got)
	}
}
