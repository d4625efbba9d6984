// Package shell is the imperative boundary of the controller.
//
// It owns the single AppState value, merges every input source (MIDI
// callbacks, inbound OSC, the blink ticker, recording timeouts, config
// reloads) into one serialized event stream, executes the effects the
// pure transitions return, and repaints the LEDs. I/O failures are
// logged and swallowed: live performance must never halt because one
// message was dropped.
package shell

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/vjkit/gridlearn/internal/config"
	"github.com/vjkit/gridlearn/internal/display"
	"github.com/vjkit/gridlearn/internal/fsm"
	"github.com/vjkit/gridlearn/internal/model"
)

// BlinkInterval is the LED animation period.
const BlinkInterval = 200 * time.Millisecond

// Event is one unit of the serialized input stream.
type Event interface {
	isEvent()
}

// PadPressEvent is a pad going down.
type PadPressEvent struct {
	Pad      model.PadID
	Velocity int
}

// PadReleaseEvent is a pad coming up.
type PadReleaseEvent struct {
	Pad model.PadID
}

// OscReceivedEvent is an inbound, classifier-enriched OSC message.
type OscReceivedEvent struct {
	Event model.OscEvent
}

// BlinkTickEvent advances the LED animation phase.
type BlinkTickEvent struct{}

// RecordTimeoutEvent is the recording window expiring. Session guards
// against a stale timer finishing a later recording.
type RecordTimeoutEvent struct {
	Session int
}

// ReloadConfigEvent asks for the config file to be re-read from disk.
type ReloadConfigEvent struct{}

func (PadPressEvent) isEvent()     {}
func (PadReleaseEvent) isEvent()   {}
func (OscReceivedEvent) isEvent()  {}
func (BlinkTickEvent) isEvent()    {}
func (RecordTimeoutEvent) isEvent() {}
func (ReloadConfigEvent) isEvent()  {}

// LedWriter is the narrow hardware interface the shell paints through.
type LedWriter interface {
	SetLED(pad model.PadID, color model.Color) error
}

// OscSender is the narrow outbound OSC interface.
type OscSender interface {
	Send(cmd model.OscCommand) error
}

// Shell runs the event loop.
type Shell struct {
	leds       LedWriter
	osc        OscSender
	log        *logrus.Logger
	configPath string

	state  model.AppState
	events chan Event

	// frame mirrors what the hardware currently shows so repaints only
	// touch pads that changed.
	frame map[model.PadID]model.Color

	timeout *time.Timer
}

// New builds a shell around an initial state.
func New(state model.AppState, leds LedWriter, osc OscSender, log *logrus.Logger, configPath string) *Shell {
	return &Shell{
		leds:       leds,
		osc:        osc,
		log:        log,
		configPath: configPath,
		state:      state,
		events:     make(chan Event, 128),
		frame:      map[model.PadID]model.Color{},
	}
}

// State returns the current application state snapshot.
func (s *Shell) State() model.AppState {
	return s.state
}

// Post queues an event onto the serialized stream. Safe to call from
// adapter callbacks and timer goroutines.
func (s *Shell) Post(ev Event) {
	select {
	case s.events <- ev:
	default:
		// A full queue means the loop is wedged; dropping is the only
		// option that keeps hardware callbacks from blocking.
		s.log.Warn("event queue full, dropping event")
	}
}

// Run processes events until the context is cancelled. All state
// mutation happens on this goroutine.
func (s *Shell) Run(ctx context.Context) {
	ticker := time.NewTicker(BlinkInterval)
	defer ticker.Stop()

	s.render()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Dispatch(BlinkTickEvent{})
		case ev := <-s.events:
			s.Dispatch(ev)
		}
	}
}

// Dispatch runs one event through the FSM, executes the resulting
// effects and repaints. Exported so tests can drive the loop
// synchronously.
func (s *Shell) Dispatch(ev Event) {
	prevPhase := s.state.Learn.Phase
	prevSession := s.state.Learn.Session

	var effects []model.Effect
	switch e := ev.(type) {
	case PadPressEvent:
		s.state, effects = fsm.HandlePadPress(s.state, e.Pad)
	case PadReleaseEvent:
		s.state, effects = fsm.HandlePadRelease(s.state, e.Pad)
	case OscReceivedEvent:
		s.state, effects = fsm.RecordOscEvent(s.state, e.Event)
	case BlinkTickEvent:
		s.state = fsm.ToggleBlink(s.state)
	case RecordTimeoutEvent:
		s.state, effects = fsm.HandleRecordTimeout(s.state, e.Session)
	case ReloadConfigEvent:
		s.reloadConfig()
	}

	s.execute(effects)
	s.armRecordTimeout(prevPhase, prevSession)
	s.render()
}

// armRecordTimeout schedules the one-shot recording timer whenever a
// new recording session has just started. The timer posts back into
// the event stream; it never touches state directly.
func (s *Shell) armRecordTimeout(prevPhase model.Phase, prevSession int) {
	learn := s.state.Learn
	if learn.Phase != model.PhaseRecordOsc {
		return
	}
	if prevPhase == model.PhaseRecordOsc && prevSession == learn.Session {
		return
	}
	if s.timeout != nil {
		s.timeout.Stop()
	}
	session := learn.Session
	s.timeout = time.AfterFunc(fsm.RecordTimeout, func() {
		s.Post(RecordTimeoutEvent{Session: session})
	})
}

func (s *Shell) execute(effects []model.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case model.LedEffect:
			s.writeLED(e.Pad, e.Color)
		case model.SendOscEffect:
			if err := s.osc.Send(e.Command); err != nil {
				s.log.WithError(err).Warn("OSC send failed")
			}
		case model.SaveConfigEffect:
			if err := config.Save(e.Config, s.configPath); err != nil {
				// In-memory state keeps the edit; the user can retry Save.
				s.log.WithError(err).Error("failed to save config")
			} else {
				s.log.WithField("path", s.configPath).Debug("config saved")
			}
		case model.LogEffect:
			s.logAt(e.Level, e.Message)
		}
	}
}

// render recomputes the full LED image and writes only the pads whose
// color changed since the last paint.
func (s *Shell) render() {
	desired := make(map[model.PadID]model.Color, len(s.frame))
	for _, e := range display.Render(s.state) {
		desired[e.Pad] = e.Color
	}

	for pad, color := range desired {
		if s.frame[pad] != color {
			s.writeLED(pad, color)
		}
	}
}

func (s *Shell) writeLED(pad model.PadID, color model.Color) {
	if err := s.leds.SetLED(pad, color); err != nil {
		s.log.WithError(err).Warn("LED write failed")
		return
	}
	s.frame[pad] = color
}

// reloadConfig re-reads the config file after an external edit. Ignored
// outside IDLE so a live learn session is never clobbered.
func (s *Shell) reloadConfig() {
	if s.state.Learn.Phase != model.PhaseIdle {
		s.log.Debug("config changed on disk, deferring reload until idle")
		return
	}
	cfg, err := config.Load(s.configPath)
	if err != nil {
		s.log.WithError(err).Warn("failed to reload config")
		return
	}
	s.state.Config = cfg
	s.log.WithField("pads", len(cfg.Pads)).Info("config reloaded from disk")
}

// WatchConfig posts a ReloadConfigEvent whenever the config file is
// rewritten externally. Blocks until the context is cancelled.
func (s *Shell) WatchConfig(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: editors and atomic saves replace the file,
	// which would invalidate a watch on the path itself.
	if err := watcher.Add(filepath.Dir(s.configPath)); err != nil {
		return err
	}

	name := filepath.Base(s.configPath)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				s.Post(ReloadConfigEvent{})
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.WithError(err).Warn("config watcher error")
		}
	}
}

func (s *Shell) logAt(level, msg string) {
	switch level {
	case "warning", "warn":
		s.log.Warn(msg)
	case "error":
		s.log.Error(msg)
	case "debug":
		s.log.Debug(msg)
	default:
		s.log.Info(msg)
	}
}
