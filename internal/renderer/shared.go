package renderer

import (
	"log/slog"
	"sync"
)

// Shared is the handle the compile handler and the paint callback both hold.
// Every method runs under one mutex, so a paint never observes a half-done
// fragment swap and a swap never starts mid-draw.
type Shared struct {
	mu        sync.Mutex
	r         *Renderer
	destroyed bool
}

// NewShared wraps r. r must not be used directly afterwards.
func NewShared(r *Renderer) *Shared {
	return &Shared{r: r}
}

// RecompileFragmentShader forwards to the renderer. After Destroy it does
// nothing and returns nil.
func (s *Shared) RecompileFragmentShader(src string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		s.r.log.Warn("recompile after destroy ignored")
		return nil
	}
	return s.r.RecompileFragmentShader(src)
}

// Error forwards to the renderer.
func (s *Shared) Error() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Error()
}

// Paint forwards to the renderer. Painting after Destroy is a caller bug;
// it is dropped instead of touching released objects.
func (s *Shared) Paint(rect Rect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		s.r.log.Warn("paint after destroy ignored", slog.Any("rect", rect))
		return
	}
	s.r.Paint(rect)
}

// Destroy releases the renderer's GPU objects. Only the first call does work.
func (s *Shared) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.r.Destroy()
	s.destroyed = true
}

// Destroyed reports whether Destroy has run.
func (s *Shared) Destroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}
