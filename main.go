// Shader playground.
//
// A window with a GLSL fragment shader editor on the left and the live
// output of the last successfully compiled shader on the right.
//
// Rendering pipeline:
//  1. A hidden GLFW window provides an OpenGL 3.3 core context.
//  2. The renderer draws a full-viewport quad with the current program
//     into an offscreen framebuffer every frame.
//  3. The pixels are read back into a fyne raster.
//  4. Compile replaces only the fragment stage; a failed compile keeps
//     the previous program on screen.
package main

import (
	"flag"
	"log/slog"
	"os"
	"runtime"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"github.com/go-gl/glfw/v3.3/glfw"

	"shaderplayground/internal/config"
	"shaderplayground/internal/renderer"
	"shaderplayground/internal/shell"
	"shaderplayground/internal/telemetry"
)

const appID = "dev.shaderplayground"

func init() {
	runtime.LockOSThread() // GLFW and OpenGL calls must stay on the main thread
}

// readOptionalAsset looks for fileName in the usual asset directories.
// The playground runs fine without any of them.
func readOptionalAsset(fileName string) []byte {
	candidates := []string{
		"assets/" + fileName,
		"../assets/" + fileName,
	}
	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err == nil && len(data) > 0 {
			return data
		}
	}
	return nil
}

func main() {
	configPath := flag.String("config", "", "path to YAML config file (defaults are embedded)")
	compileLogPath := flag.String("compile-log", "", "append compile attempts to this CSV file")
	logLevel := flag.String("log-level", "", "override log.level (debug, info, warn, error)")
	dumpConfig := flag.String("dump-config", "", "write the effective config to this YAML file and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		slog.Error("bad log level", "error", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *dumpConfig != "" {
		if err := cfg.WriteYAML(*dumpConfig); err != nil {
			logger.Error("writing config", "error", err)
			os.Exit(1)
		}
		logger.Info("config written", "path", *dumpConfig)
		return
	}

	if err := run(cfg, *compileLogPath, logger); err != nil {
		logger.Error("shader playground failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, compileLogPath string, logger *slog.Logger) error {
	compileLog, err := telemetry.OpenCompileLog(compileLogPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := compileLog.Close(); err != nil {
			logger.Warn("closing compile log", "error", err)
		}
	}()

	// fyne's driver initializes GLFW again on the same thread; the second
	// call is a no-op.
	if err := glfw.Init(); err != nil {
		return err
	}
	out, err := newSurface()
	if err != nil {
		return err
	}

	version := cfg.Render.GLSLVersion
	var (
		r      *renderer.Renderer
		newErr error
	)
	out.Run(func() {
		r, newErr = renderer.New(out.Context(),
			shell.VertexSource(version),
			shell.FragmentSource(version, shell.DefaultShader()),
			renderer.WithLogger(logger.With("component", "renderer")),
		)
	})
	if newErr != nil {
		out.release()
		return newErr
	}
	shared := renderer.NewShared(r)

	sh := shell.New(shared,
		shell.WithGLSLVersion(version),
		shell.WithContext(out),
		shell.WithCompileLog(compileLog),
		shell.WithLogger(logger.With("component", "shell")),
	)

	a := app.NewWithID(appID)
	if icon := readOptionalAsset("icon.png"); icon != nil {
		a.SetIcon(fyne.NewStaticResource("icon.png", icon))
	}
	w := a.NewWindow(cfg.Window.Title)
	w.Resize(fyne.NewSize(float32(cfg.Window.Width), float32(cfg.Window.Height)))
	w.CenterOnScreen()
	w.SetMaster()

	p := newPlayground(a, w, sh, out, cfg, logger)
	w.SetCloseIntercept(p.close)
	p.startTicker(cfg.Render.FPS)

	logger.Info("playground started",
		"glsl_version", version,
		"fps", cfg.Render.FPS,
		"compile_log", compileLogPath,
	)
	w.ShowAndRun()

	// The driver has shut GLFW down by now if the window was closed some
	// other way, so the GL objects went with the context.
	p.teardown(nil)
	logger.Info("playground stopped")
	return nil
}
