// Better Steps Recorder
// Records annotated click-by-click walkthroughs into portable .bsr archives.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"bsr/internal/api"
	"bsr/internal/autostart"
	"bsr/internal/config"
	"bsr/internal/export"
	"bsr/internal/hotkey"
	"bsr/internal/project"
	"bsr/internal/recorder"
	"bsr/internal/session"
	"bsr/internal/step"
	"bsr/internal/tray"
	"bsr/internal/ui"
	"bsr/internal/uiauto"
)

var (
	version   = "1.0.0"
	newPath   = flag.String("new", "", "Create a new .bsr project at the given path")
	openPath  = flag.String("open", "", "Open an existing .bsr project")
	exportFmt = flag.String("export", "", "Export the opened project and exit (html, rtf, odt, obsidian)")
	exportOut = flag.String("out", "", "Export target path")
	noBrowser = flag.Bool("no-browser", false, "Do not open the editor page in a browser")
	showVer   = flag.Bool("version", false, "Show version")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("bsr version %s\n", version)
		return
	}

	cfgMgr, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to initialize config: %v", err)
	}
	if err := cfgMgr.Load(); err != nil {
		log.Printf("Warning: failed to load config: %v", err)
	}

	sess := session.New()
	defer sess.Close()

	path := projectPath(cfgMgr)
	switch {
	case *newPath != "":
		if err := sess.NewProject(path); err != nil {
			log.Fatalf("Failed to create project: %v", err)
		}
		log.Printf("Created project %s", path)
	case path != "":
		openProject(sess, path)
	}

	if path != "" {
		rememberProject(cfgMgr, path)
	}

	if *exportFmt != "" {
		runExport(sess, *exportFmt, *exportOut)
		return
	}

	runService(cfgMgr, sess)
}

// projectPath resolves which archive to work on: an explicit flag wins,
// then the last project if reopening is enabled.
func projectPath(cfgMgr *config.Manager) string {
	if *newPath != "" {
		return withExtension(*newPath)
	}
	if *openPath != "" {
		return withExtension(*openPath)
	}
	cfg := cfgMgr.Get()
	if cfg.General.ReopenLastProject && cfg.General.LastProject != "" {
		if _, err := os.Stat(cfg.General.LastProject); err == nil {
			return cfg.General.LastProject
		}
	}
	return ""
}

func withExtension(path string) string {
	if strings.EqualFold(filepath.Ext(path), project.Extension) {
		return path
	}
	return path + project.Extension
}

func openProject(sess *session.Session, path string) {
	res, err := sess.OpenProject(path)
	if err != nil {
		log.Fatalf("Failed to open project: %v", err)
	}
	log.Printf("Opened %s: %d steps", path, len(res.Steps))
	if len(res.Skipped) > 0 {
		log.Printf("Warning: skipped %d unreadable records", len(res.Skipped))
	}
	if res.Migrated > 0 {
		log.Printf("Migrated %d legacy records", res.Migrated)
	}
}

func rememberProject(cfgMgr *config.Manager, path string) {
	cfgMgr.Update(func(c *config.Config) {
		c.General.LastProject = path
	})
	if err := cfgMgr.Save(); err != nil {
		log.Printf("Warning: failed to save config: %v", err)
	}
}

func runExport(sess *session.Session, format, target string) {
	if sess.ProjectPath() == "" {
		log.Fatal("Export requires a project: pass -open <file.bsr>")
	}
	if target == "" {
		log.Fatal("Export requires a target: pass -out <path>")
	}
	title := strings.TrimSuffix(filepath.Base(sess.ProjectPath()), project.Extension)
	exp, err := export.ForFormat(format, title)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	if err := exp.Render(sess.Snapshot(), target); err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	fmt.Printf("Exported %s to %s\n", format, target)
}

func runService(cfgMgr *config.Manager, sess *session.Session) {
	log.Println("Better Steps Recorder starting...")

	rec := recorder.New(uiauto.System(), nil, sess)

	apiServer := api.NewServer(sess, rec)
	sess.AddListener(apiServer)

	cfg := cfgMgr.Get()
	if err := apiServer.Start(cfg.General.APIPort); err != nil {
		log.Fatalf("Failed to start editor server: %v", err)
	}
	defer apiServer.Stop()

	editorURL := "http://" + apiServer.Addr()
	if cfg.General.OpenBrowser && !*noBrowser {
		go ui.OpenBrowser(editorURL)
	}

	toggleRecording := func() {
		if sess.Recording() {
			rec.Stop()
			sess.SetRecording(false)
		} else {
			if err := rec.Start(); err != nil {
				log.Printf("Failed to start recording: %v", err)
				return
			}
			sess.SetRecording(true)
		}
	}

	// Hotkey for the record toggle, debounced so key repeat does not
	// flap the recorder.
	hkMgr := hotkey.NewManager()
	if err := hkMgr.Start(); err != nil {
		log.Printf("Warning: hotkey engine failed to start: %v", err)
	}
	var lastHkTime time.Time
	var hkMux sync.Mutex
	debounce := func() bool {
		hkMux.Lock()
		defer hkMux.Unlock()
		if time.Since(lastHkTime) < 500*time.Millisecond {
			return false
		}
		lastHkTime = time.Now()
		return true
	}
	if cfg.General.RecordHotkey != "" {
		if _, err := hkMgr.Register(cfg.General.RecordHotkey, func() {
			if !debounce() {
				return
			}
			toggleRecording()
		}); err != nil {
			log.Printf("Warning: failed to register record hotkey: %v", err)
		}
	}

	t := tray.New("Better Steps Recorder")

	recordItem := t.AddMenuItem("Start Recording", toggleRecording)
	t.AddMenuItem("Open Editor", func() {
		go ui.OpenBrowser(editorURL)
	})
	t.AddSeparator()
	t.AddMenuItem("Save Now", func() {
		if err := sess.SaveNow(); err != nil {
			log.Printf("Save failed: %v", err)
		}
	})
	t.AddSeparator()
	var autostartItem int
	autostartItem = t.AddMenuItem("Start at Login", func() {
		if autostart.IsEnabled() {
			if err := autostart.Disable(); err != nil {
				log.Printf("Failed to disable auto-start: %v", err)
				return
			}
		} else {
			if err := autostart.Enable(); err != nil {
				log.Printf("Failed to enable auto-start: %v", err)
				return
			}
		}
		t.SetItemChecked(autostartItem, autostart.IsEnabled())
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", func() {
		t.Stop()
	})

	sess.AddListener(&trayListener{tray: t, recordItem: recordItem})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Shutting down...")
		t.Stop()
	}()

	log.Printf("Service running, editor at %s. Press Ctrl+C to stop.", editorURL)
	t.Run()

	rec.Stop()
	if sess.ProjectPath() != "" {
		if err := sess.SaveNow(); err != nil {
			log.Printf("Final save failed: %v", err)
		}
	}
}

// trayListener mirrors recording state onto the tray menu.
type trayListener struct {
	tray       *tray.Tray
	recordItem int
}

func (l *trayListener) StepAdded(*step.Step)       {}
func (l *trayListener) StepsReplaced([]*step.Step) {}
func (l *trayListener) SyncError(err error)        { log.Printf("[ERROR] autosave: %v", err) }
func (l *trayListener) RecordingChanged(on bool) {
	if on {
		l.tray.SetItemTitle(l.recordItem, recorder.PauseControlLabel)
	} else {
		l.tray.SetItemTitle(l.recordItem, "Start Recording")
	}
	l.tray.SetItemChecked(l.recordItem, on)
}
