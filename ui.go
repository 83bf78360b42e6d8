package main

import (
	"context"
	"image"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"shaderplayground/internal/config"
	"shaderplayground/internal/shell"
)

const glslReferenceURL = "https://registry.khronos.org/OpenGL-Refpages/gl4/"

// outputSurface is where the shader output is painted. *surface is the
// real one.
type outputSurface interface {
	paintFrame(f *canvasFrame) (*image.RGBA, error)
	graphicsContext() shell.GraphicsContext
	release()
}

// fixedHeightLayout gives its first object the container width and a
// fixed height.
type fixedHeightLayout struct {
	height float32
}

func (l *fixedHeightLayout) Layout(objects []fyne.CanvasObject, containerSize fyne.Size) {
	if len(objects) > 0 {
		obj := objects[0]
		obj.Resize(fyne.NewSize(containerSize.Width, l.height))
		obj.Move(fyne.NewPos(0, 0))
	}
}

func (l *fixedHeightLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	var w float32
	if len(objects) > 0 {
		w = objects[0].MinSize().Width
	}
	return fyne.NewSize(w, l.height)
}

// playground is the main window: shader editor on the left, live output
// on the right.
type playground struct {
	app     fyne.App
	window  fyne.Window
	shell   *shell.Shell
	surface outputSurface
	log     *slog.Logger

	editor  *widget.Entry
	compile *widget.Button
	status  *widget.RichText
	output  *canvas.Raster

	menu       *fyne.MainMenu
	themeItems map[string]*fyne.MenuItem
	themeName  string

	stopTicker context.CancelFunc
	once       sync.Once
	mu         sync.Mutex
	released   bool
}

func newPlayground(a fyne.App, w fyne.Window, sh *shell.Shell, out outputSurface, cfg *config.Config, logger *slog.Logger) *playground {
	p := &playground{
		app:     a,
		window:  w,
		shell:   sh,
		surface: out,
		log:     logger,
	}

	p.editor = widget.NewMultiLineEntry()
	p.editor.TextStyle = fyne.TextStyle{Monospace: true}
	p.editor.Wrapping = fyne.TextWrapOff
	p.editor.SetText(sh.Source())
	p.editor.OnChanged = sh.SetSource

	p.compile = widget.NewButtonWithIcon("Compile", theme.MediaPlayIcon(), p.compileShader)
	p.compile.Importance = widget.HighImportance

	p.status = widget.NewRichText()
	p.status.Wrapping = fyne.TextWrapWord
	p.refreshStatus()

	p.output = canvas.NewRaster(p.renderOutput)

	editorHeading := widget.NewLabelWithStyle("Shader Editor", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})
	outputHeading := widget.NewLabelWithStyle("Shader Output", fyne.TextAlignLeading, fyne.TextStyle{Bold: true})

	statusPanel := container.New(&fixedHeightLayout{height: float32(cfg.Editor.StatusHeight)},
		container.NewVScroll(p.status))
	left := container.NewBorder(
		container.NewBorder(nil, nil, nil, p.compile, editorHeading),
		statusPanel, nil, nil,
		p.editor,
	)
	right := container.NewBorder(outputHeading, nil, nil, nil, p.output)

	split := container.NewHSplit(left, right)
	split.Offset = cfg.Editor.Split
	w.SetContent(split)

	p.menu = p.mainMenu()
	w.SetMainMenu(p.menu)
	p.applyTheme(cfg.Theme)
	return p
}

func (p *playground) mainMenu() *fyne.MainMenu {
	quit := fyne.NewMenuItem("Quit", p.quit)
	quit.IsQuit = true
	file := fyne.NewMenu("File",
		fyne.NewMenuItem("Compile", p.compileShader),
		fyne.NewMenuItemSeparator(),
		quit,
	)

	p.themeItems = map[string]*fyne.MenuItem{}
	var themeItems []*fyne.MenuItem
	for _, t := range []struct{ label, name string }{
		{"System Theme", config.ThemeSystem},
		{"Light Theme", config.ThemeLight},
		{"Dark Theme", config.ThemeDark},
	} {
		name := t.name
		item := fyne.NewMenuItem(t.label, func() { p.applyTheme(name) })
		p.themeItems[name] = item
		themeItems = append(themeItems, item)
	}
	view := fyne.NewMenu("View", themeItems...)

	help := fyne.NewMenu("Help", fyne.NewMenuItem("GLSL Reference", p.openReference))
	return fyne.NewMainMenu(file, view, help)
}

func (p *playground) applyTheme(name string) {
	p.app.Settings().SetTheme(themeFor(name))
	p.themeName = name
	for n, item := range p.themeItems {
		item.Checked = n == name
	}
	if p.menu != nil {
		p.menu.Refresh()
	}
	p.log.Debug("theme applied", "theme", name)
}

func (p *playground) openReference() {
	u, err := url.Parse(glslReferenceURL)
	if err != nil {
		p.log.Error("bad reference URL", "error", err)
		return
	}
	if err := p.app.OpenURL(u); err != nil {
		p.log.Warn("opening GLSL reference failed", "url", glslReferenceURL, "error", err)
	}
}

func (p *playground) compileShader() {
	if p.isReleased() {
		p.log.Warn("compile ignored after teardown")
		return
	}
	p.shell.OnCompileClicked()
	p.refreshStatus()
}

func (p *playground) refreshStatus() {
	st := p.shell.Status()
	color := theme.ColorNameForeground
	switch st.Kind {
	case shell.StatusSuccess:
		color = theme.ColorNameSuccess
	case shell.StatusFailed:
		color = theme.ColorNameError
	}
	p.status.Segments = []widget.RichTextSegment{
		&widget.TextSegment{
			Text: st.Text(),
			Style: widget.RichTextStyle{
				ColorName: color,
				TextStyle: fyne.TextStyle{Monospace: true},
			},
		},
	}
	p.status.Refresh()
}

// renderOutput is the raster generator. Each call is one frame: the shell
// lays out and schedules its paint, then the surface runs it.
func (p *playground) renderOutput(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return placeholder(w, h)
	}
	if p.isReleased() {
		return placeholder(w, h, "Renderer released")
	}

	frame := &canvasFrame{width: w, height: h}
	p.shell.RenderFrame(frame, shell.Rect{Width: float32(w), Height: float32(h)})
	img, err := p.surface.paintFrame(frame)
	if err != nil {
		p.log.Debug("output frame unavailable", "error", err, "width", w, "height", h)
		return placeholder(w, h, "Shader output unavailable", err.Error())
	}
	return img
}

// startTicker refreshes the output raster fps times a second until
// teardown.
func (p *playground) startTicker(fps int) {
	ctx, cancel := context.WithCancel(context.Background())
	p.stopTicker = cancel
	go func() {
		ticker := time.NewTicker(time.Second / time.Duration(fps))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fyne.Do(p.output.Refresh)
			}
		}
	}()
}

func (p *playground) isReleased() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

// teardown releases the renderer and then the surface, once. gc is nil
// when the graphics context is already gone.
func (p *playground) teardown(gc shell.GraphicsContext) {
	p.once.Do(func() {
		if p.stopTicker != nil {
			p.stopTicker()
		}
		p.mu.Lock()
		p.released = true
		p.mu.Unlock()
		p.shell.OnTeardown(gc)
		if gc != nil {
			p.surface.release()
		}
	})
}

func (p *playground) close() {
	p.teardown(p.surface.graphicsContext())
	p.window.Close()
}

func (p *playground) quit() {
	p.teardown(p.surface.graphicsContext())
	p.app.Quit()
}
