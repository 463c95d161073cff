// Command mudra runs the hand-gesture recognizers against the camera and
// serves the HTTP API.
package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/log"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

// journalKeep bounds the event journal kept across restarts.
const journalKeep = 10000

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Init("info")
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log.Init(cfg.Log.Level)

	if err := run(cfg); err != nil {
		log.Error("mudra exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
		return err
	}
	st, err := store.New(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	if n, err := st.Events().Prune(journalKeep); err != nil {
		log.Warn("journal prune failed", "error", err)
	} else if n > 0 {
		log.Info("journal pruned", "removed", n)
	}

	plugins := plugin.NewManager(cfg.Plugins.Dir)
	if err := plugins.Discover(); err != nil {
		log.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
	}
	dispatcher := plugin.NewDispatcher(plugins, plugin.NewExecutor(cfg.Plugins.Timeout), cfg.Plugins.Queue, nil)
	dispatcher.Start(cfg.Plugins.Workers)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Plugins.Timeout)
		defer cancel()
		dispatcher.Close(shutdownCtx)
	}()

	sensor := capture.NewLandmarkSensor(
		capture.NewCamera(capture.CameraConfig{Device: cfg.Camera.Device, FPS: cfg.Camera.FPS}),
		newDetector(),
		capture.NewMotionDetector(capture.DefaultMotionThreshold),
	)

	var tr *tray.Tray
	a := app.New(app.Config{
		Store:            st,
		Sensor:           sensor,
		Dispatcher:       dispatcher,
		FrameInterval:    cfg.Detection.FrameInterval(),
		EnabledByDefault: cfg.Detection.Enabled,
		OnEvent: func(ev app.Event) {
			if tr != nil && ev.Kind == gesture.Activated {
				tr.SetLastGesture(ev.Recognizer)
			}
		},
	})
	if cfg.Tray.Enabled {
		tr = tray.New(a.IsEnabled())
	}

	if err := a.Load(); err != nil {
		return err
	}
	if err := a.Start(ctx); err != nil {
		return err
	}
	defer a.Stop()

	webDir := cfg.Web.Dir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		log.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir: webDir,
		Store:     st,
		Runtime:   a,
		Events:    a,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Server.Addr)
	}()

	if tr != nil {
		tr.OnToggle(func(enabled bool) {
			if err := a.SetEnabled(enabled); err != nil {
				log.Warn("toggle detection failed", "error", err)
				tr.SetEnabled(a.IsEnabled())
			}
		})
		tr.OnSettings(func() { openBrowser(localURL(cfg.Server.Addr)) })
		tr.OnQuit(stop)
		go func() {
			select {
			case <-ctx.Done():
			case <-errCh:
				stop()
			}
			tr.Quit()
		}()
		// The tray must own the main thread on macOS.
		tr.Run()
	} else {
		select {
		case <-ctx.Done():
		case err := <-errCh:
			if err != nil {
				return err
			}
		}
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newDetector prefers MediaPipe and falls back to a detector that never
// finds hands.
func newDetector() detector.Detector {
	mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig())
	if err != nil {
		log.Warn("MediaPipe not available, hand tracking disabled", "error", err)
		return detector.NewMockDetector()
	}
	log.Info("using MediaPipe hand detection")
	return mp
}

// findWebDir searches web, ../web, ../../web and ~/.mudra/web in order.
func findWebDir() string {
	for _, p := range []string{"web", "../web", "../../web"} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".mudra", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
	}
}
