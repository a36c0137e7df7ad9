package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/shellpad/internal/config"
	"github.com/dshills/shellpad/internal/history"
	"github.com/dshills/shellpad/internal/key"
	"github.com/dshills/shellpad/internal/log"
	"github.com/dshills/shellpad/internal/router"
	"github.com/dshills/shellpad/internal/screen"
	"github.com/dshills/shellpad/internal/session"
)

// redrawInterval paces display refreshes while shell output streams in.
const redrawInterval = 50 * time.Millisecond

type options struct {
	ConfigPath string
	Dir        string
	LogPath    string
	LogLevel   string
}

// app owns the tcell display, the session manager, and the browse
// viewport state. All event handling runs on the PollEvent goroutine;
// the session's processing loop only touches its own state.
type app struct {
	tscreen tcell.Screen
	manager *session.Manager
	sess    *session.Session
	logger  *log.Logger
	logFile *os.File
	watcher *config.Watcher

	// viewTop is the absolute row at the top of the viewport, or -1
	// when the view follows live output.
	viewTop   int
	recordIdx int // selected command record, -1 when none

	pasting  bool
	pasteBuf []rune
	quit     bool
}

// newLogger builds the app logger. Without a log path it returns a
// private discard logger rather than the shared log.Null, so config
// reloads can adjust the level without mutating package state.
func newLogger(opts options) (*log.Logger, *os.File, error) {
	if opts.LogPath == "" {
		return log.New(log.Config{
			Level:  log.ParseLevel(opts.LogLevel),
			Output: io.Discard,
			Prefix: "shellpad",
		}), nil, nil
	}
	logFile, err := os.OpenFile(opts.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := log.New(log.Config{
		Level:  log.ParseLevel(opts.LogLevel),
		Output: logFile,
		Prefix: "shellpad",
	})
	return logger, logFile, nil
}

func newApp(opts options) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger, logFile, err := newLogger(opts)
	if err != nil {
		return nil, err
	}

	tscreen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("create display: %w", err)
	}
	if err := tscreen.Init(); err != nil {
		return nil, fmt.Errorf("init display: %w", err)
	}
	tscreen.EnablePaste()
	tscreen.EnableMouse()

	a := &app{
		tscreen:   tscreen,
		manager:   session.NewManager(cfg, logger),
		logger:    logger,
		logFile:   logFile,
		viewTop:   -1,
		recordIdx: -1,
	}

	width, height := tscreen.Size()
	sess, err := a.manager.Open(opts.Dir, height-1, width)
	if err != nil {
		tscreen.Fini()
		return nil, err
	}
	a.sess = sess

	if opts.ConfigPath != "" {
		watcher, err := config.Watch(opts.ConfigPath, a.applyConfig, logger)
		if err != nil {
			logger.Warn("config watch: %v", err)
		} else {
			a.watcher = watcher
		}
	}

	return a, nil
}

// applyConfig picks up a live config edit: new sessions get the full
// config, the running session only the knobs that can change mid-run.
func (a *app) applyConfig(cfg config.Config) {
	a.manager.SetConfig(cfg)
	a.sess.Router().SetTrimPolicy(router.ParseTrimPolicy(cfg.TrimPolicy))
	a.logger.SetLevel(log.ParseLevel(cfg.LogLevel))
}

// Quit asks the event loop to exit.
func (a *app) Quit() {
	_ = a.tscreen.PostEvent(tcell.NewEventInterrupt("quit"))
}

// Shutdown releases the display and terminates the session.
func (a *app) Shutdown() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	a.tscreen.Fini()
	a.manager.Shutdown(10 * time.Second)
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// Run drives the event loop until quit or shell exit.
func (a *app) Run() error {
	ticker := time.NewTicker(redrawInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			_ = a.tscreen.PostEvent(tcell.NewEventInterrupt(nil))
		}
	}()

	a.draw()
	for !a.quit {
		ev := a.tscreen.PollEvent()
		if ev == nil {
			break
		}

		switch e := ev.(type) {
		case *tcell.EventInterrupt:
			if e.Data() == "quit" {
				a.quit = true
			}
		case *tcell.EventResize:
			w, h := e.Size()
			if err := a.sess.Resize(h-1, w); err != nil {
				a.logger.Warn("resize: %v", err)
			}
			a.tscreen.Sync()
		case *tcell.EventPaste:
			a.handlePaste(e)
		case *tcell.EventKey:
			a.handleKey(e)
		case *tcell.EventMouse:
			a.handleMouse(e)
		}

		select {
		case <-a.sess.Done():
			a.quit = true
		default:
		}

		if !a.quit {
			a.draw()
		}
	}

	if code, exited := a.sess.ExitStatus(); exited && code != 0 {
		return fmt.Errorf("shell exited with code %d", code)
	}
	return nil
}

func (a *app) handlePaste(e *tcell.EventPaste) {
	if e.Start() {
		a.pasting = true
		a.pasteBuf = a.pasteBuf[:0]
		return
	}
	a.pasting = false
	if len(a.pasteBuf) == 0 {
		return
	}
	a.route(router.Input{Class: router.ClassPaste, Text: string(a.pasteBuf)})
}

func (a *app) handleKey(e *tcell.EventKey) {
	if a.pasting {
		switch e.Key() {
		case tcell.KeyRune:
			a.pasteBuf = append(a.pasteBuf, e.Rune())
		case tcell.KeyEnter:
			a.pasteBuf = append(a.pasteBuf, '\n')
		case tcell.KeyTab:
			a.pasteBuf = append(a.pasteBuf, '\t')
		}
		return
	}

	if e.Key() == tcell.KeyCtrlQ {
		a.quit = true
		return
	}

	in, ok := a.classify(e)
	if !ok {
		return
	}
	a.route(in)
}

// classify maps one keystroke to an input class. Navigation chords are
// claimed by the host; everything else is a candidate shell keystroke.
func (a *app) classify(e *tcell.EventKey) (router.Input, bool) {
	mode := a.sess.Router().Mode()

	switch e.Key() {
	case tcell.KeyCtrlC:
		return router.Input{Class: router.ClassInterrupt}, true
	case tcell.KeyPgUp, tcell.KeyHome:
		return router.Input{
			Class: router.ClassNavigate,
			Event: key.NewSpecialEvent(translateKey(e.Key()), translateMods(e.Modifiers())),
		}, true
	case tcell.KeyPgDn:
		if mode == router.ModeBrowse {
			return router.Input{
				Class: router.ClassNavigate,
				Event: key.NewSpecialEvent(key.KeyPageDown, translateMods(e.Modifiers())),
			}, true
		}
	case tcell.KeyEnd, tcell.KeyEscape:
		if mode == router.ModeBrowse {
			return router.Input{
				Class: router.ClassNavigateToEnd,
				Event: key.NewSpecialEvent(translateKey(e.Key()), translateMods(e.Modifiers())),
			}, true
		}
	case tcell.KeyUp:
		if e.Modifiers()&tcell.ModAlt != 0 {
			return router.Input{Class: router.ClassSelectPrevious}, true
		}
	case tcell.KeyDown:
		if e.Modifiers()&tcell.ModAlt != 0 {
			return router.Input{Class: router.ClassSelectNext}, true
		}
	case tcell.KeyEnter:
		// Enter on a selected record re-runs its command line.
		if mode == router.ModeBrowse && a.recordIdx >= 0 {
			if rec, err := a.sess.Records().RecordAt(a.recordIdx); err == nil && rec.Command != "" {
				return router.Input{Class: router.ClassReplacePrompt, Text: rec.Command}, true
			}
		}
	case tcell.KeyBackspace2:
		if e.Modifiers()&tcell.ModAlt != 0 {
			return router.Input{Class: router.ClassDeletePrompt}, true
		}
	}

	ev, ok := translateEvent(e)
	if !ok {
		return router.Input{}, false
	}
	return router.Input{Class: router.ClassPrintable, Event: ev}, true
}

func (a *app) handleMouse(e *tcell.EventMouse) {
	_, y := e.Position()

	switch {
	case e.Buttons()&tcell.WheelUp != 0:
		a.route(router.Input{Class: router.ClassNavigate, Event: key.NewSpecialEvent(key.KeyUp, key.ModNone)})
	case e.Buttons()&tcell.WheelDown != 0:
		if a.sess.Router().Mode() == router.ModeBrowse {
			a.route(router.Input{Class: router.ClassNavigate, Event: key.NewSpecialEvent(key.KeyDown, key.ModNone)})
		}
	case e.Buttons()&tcell.Button1 != 0:
		snap := a.sess.Snapshot()
		if a.sess.Router().Mode() == router.ModeTerminal && y < snap.Cursor.Row {
			a.route(router.Input{Class: router.ClassClickAbove})
		}
	}
}

// route runs one input through the session router and performs the
// host-side part of the decision.
func (a *app) route(in router.Input) {
	d, err := a.sess.Router().Route(in)
	if err != nil {
		a.logger.Error("route: %v", err)
	}

	switch d.Action {
	case router.ActionHostNavigate:
		a.navigate(in)
	case router.ActionSelectRecord:
		a.selectRecord(d.SelectDir)
	case router.ActionCopySelection:
		a.copySelection()
	}

	if d.NextMode == router.ModeTerminal {
		a.viewTop = -1
		a.recordIdx = -1
	}
}

// navigate moves the browse viewport.
func (a *app) navigate(in router.Input) {
	_, height := a.tscreen.Size()
	view := height - 1
	if view < 1 {
		view = 1
	}

	scr := a.sess.Screen()
	liveTop := scr.TotalRows() - view
	if a.viewTop < 0 {
		a.viewTop = liveTop
	}

	switch in.Event.Key {
	case key.KeyPageUp:
		a.viewTop -= view - 1
	case key.KeyPageDown:
		a.viewTop += view - 1
	case key.KeyHome:
		a.viewTop = scr.EvictedRows()
	case key.KeyUp:
		a.viewTop -= 3
	case key.KeyDown:
		a.viewTop += 3
	}

	if a.viewTop > liveTop {
		a.viewTop = liveTop
	}
	if floor := scr.EvictedRows(); a.viewTop < floor {
		a.viewTop = floor
	}
}

// selectRecord moves the record selection and scrolls its prompt line
// into view. Selection past either end stays put.
func (a *app) selectRecord(dir int) {
	trk := a.sess.Records()

	if a.recordIdx < 0 {
		i, r, err := trk.Latest()
		if err != nil {
			return
		}
		a.recordIdx = i
		a.scrollToRow(r.Start)
		return
	}

	var (
		i   int
		r   history.Record
		err error
	)
	if dir < 0 {
		i, r, err = trk.Previous(a.recordIdx)
	} else {
		i, r, err = trk.Next(a.recordIdx)
	}
	if err != nil {
		return
	}
	a.recordIdx = i
	a.scrollToRow(r.Start)
}

func (a *app) scrollToRow(abs int) {
	_, height := a.tscreen.Size()
	view := height - 1
	if view < 1 {
		view = 1
	}

	scr := a.sess.Screen()
	a.viewTop = abs
	if liveTop := scr.TotalRows() - view; a.viewTop > liveTop {
		a.viewTop = liveTop
	}
	if floor := scr.EvictedRows(); a.viewTop < floor {
		a.viewTop = floor
	}
}

// copySelection puts the selected record's full output on the system
// clipboard via OSC 52.
func (a *app) copySelection() {
	if a.recordIdx < 0 {
		return
	}
	rec, err := a.sess.Records().RecordAt(a.recordIdx)
	if err != nil || rec.Open() {
		return
	}
	text := strings.Join(a.sess.Screen().TextRange(rec.Start, rec.End), "\n")
	a.tscreen.SetClipboard([]byte(text))
	a.logger.Debug("copied record %d (%d bytes)", a.recordIdx, len(text))
}

// draw renders either the live grid or the browse viewport, plus the
// status line.
func (a *app) draw() {
	width, height := a.tscreen.Size()
	view := height - 1
	if view < 1 {
		return
	}

	snap := a.sess.Snapshot()
	browsing := a.sess.Router().Mode() == router.ModeBrowse && a.viewTop >= 0

	selStart, selEnd := -1, -1
	if a.recordIdx >= 0 {
		if rec, err := a.sess.Records().RecordAt(a.recordIdx); err == nil {
			selStart, selEnd = rec.Start, rec.End
		}
	}

	a.tscreen.Clear()
	for y := 0; y < view; y++ {
		var line screen.Line
		var abs int
		if browsing {
			abs = a.viewTop + y
			line, _ = a.sess.Screen().LineAt(abs)
		} else {
			if y < len(snap.Lines) {
				line = snap.Lines[y]
			}
			abs = a.sess.Screen().AbsoluteRow(y)
		}

		selected := browsing && selStart >= 0 && abs >= selStart && (abs < selEnd || selEnd < 0)
		a.drawLine(y, width, line, selected)
	}

	a.drawStatus(view, width, snap)

	if !browsing && snap.CursorVisible {
		a.tscreen.ShowCursor(snap.Cursor.Col, snap.Cursor.Row)
	} else {
		a.tscreen.HideCursor()
	}
	a.tscreen.Show()
}

func (a *app) drawLine(y, width int, line screen.Line, selected bool) {
	x := 0
	for _, cell := range line {
		if x >= width {
			break
		}
		if cell.Width == 0 {
			continue // spacer for a preceding wide rune
		}
		style := toTcellStyle(cell.Style)
		if selected {
			style = style.Reverse(true)
		}
		a.tscreen.SetContent(x, y, cell.Rune, nil, style)
		x += cell.Width
	}
}

func (a *app) drawStatus(y, width int, snap screen.Snapshot) {
	mode := a.sess.Router().Mode()
	status := fmt.Sprintf(" %s ", strings.ToUpper(mode.String()))
	if snap.Title != "" {
		status += "| " + snap.Title + " "
	}
	status += "| " + a.sess.Workdir() + " "
	if a.recordIdx >= 0 {
		if rec, err := a.sess.Records().RecordAt(a.recordIdx); err == nil {
			status += fmt.Sprintf("| #%d %s ", a.recordIdx, rec.Command)
			if rec.ExitCode != nil {
				status += fmt.Sprintf("(exit %d) ", *rec.ExitCode)
			}
		}
	}
	if code, exited := a.sess.ExitStatus(); exited {
		status += fmt.Sprintf("| exited %d ", code)
	}

	style := tcell.StyleDefault.Reverse(true)
	runes := []rune(status)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		a.tscreen.SetContent(x, y, r, nil, style)
	}
}

// translateEvent converts a tcell keystroke into an engine key event.
func translateEvent(e *tcell.EventKey) (key.Event, bool) {
	mods := translateMods(e.Modifiers())

	switch e.Key() {
	case tcell.KeyRune:
		return key.NewRuneEvent(e.Rune(), mods), true
	case tcell.KeyEnter:
		return key.NewSpecialEvent(key.KeyEnter, mods), true
	case tcell.KeyTab:
		return key.NewSpecialEvent(key.KeyTab, mods), true
	case tcell.KeyEscape:
		return key.NewSpecialEvent(key.KeyEscape, mods), true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.NewSpecialEvent(key.KeyBackspace, mods), true
	case tcell.KeyDelete:
		return key.NewSpecialEvent(key.KeyDelete, mods), true
	case tcell.KeyInsert:
		return key.NewSpecialEvent(key.KeyInsert, mods), true
	case tcell.KeyHome:
		return key.NewSpecialEvent(key.KeyHome, mods), true
	case tcell.KeyEnd:
		return key.NewSpecialEvent(key.KeyEnd, mods), true
	case tcell.KeyPgUp:
		return key.NewSpecialEvent(key.KeyPageUp, mods), true
	case tcell.KeyPgDn:
		return key.NewSpecialEvent(key.KeyPageDown, mods), true
	case tcell.KeyUp:
		return key.NewSpecialEvent(key.KeyUp, mods), true
	case tcell.KeyDown:
		return key.NewSpecialEvent(key.KeyDown, mods), true
	case tcell.KeyLeft:
		return key.NewSpecialEvent(key.KeyLeft, mods), true
	case tcell.KeyRight:
		return key.NewSpecialEvent(key.KeyRight, mods), true
	}

	// Ctrl chords arrive as dedicated key codes carrying the C0 byte.
	if k := e.Key(); k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		return key.NewRuneEvent(rune('a'+k-tcell.KeyCtrlA), mods|key.ModCtrl), true
	}

	return key.Event{}, false
}

func translateKey(k tcell.Key) key.Key {
	switch k {
	case tcell.KeyHome:
		return key.KeyHome
	case tcell.KeyEnd:
		return key.KeyEnd
	case tcell.KeyPgUp:
		return key.KeyPageUp
	case tcell.KeyPgDn:
		return key.KeyPageDown
	case tcell.KeyEscape:
		return key.KeyEscape
	default:
		return key.KeyNone
	}
}

func translateMods(m tcell.ModMask) key.Modifier {
	var mods key.Modifier
	if m&tcell.ModShift != 0 {
		mods |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mods |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mods |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		mods |= key.ModMeta
	}
	return mods
}
