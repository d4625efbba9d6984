package shell

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vjkit/gridlearn/internal/classify"
	"github.com/vjkit/gridlearn/internal/config"
	"github.com/vjkit/gridlearn/internal/display"
	"github.com/vjkit/gridlearn/internal/model"
)

type fakeLeds struct {
	writes int
	frame  map[model.PadID]model.Color
}

func newFakeLeds() *fakeLeds {
	return &fakeLeds{frame: map[model.PadID]model.Color{}}
}

func (f *fakeLeds) SetLED(pad model.PadID, color model.Color) error {
	f.writes++
	f.frame[pad] = color
	return nil
}

type fakeOsc struct {
	sent []model.OscCommand
	err  error
}

func (f *fakeOsc) Send(cmd model.OscCommand) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, cmd)
	return nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestShell(t *testing.T, cfg model.ControllerConfig) (*Shell, *fakeLeds, *fakeOsc) {
	t.Helper()
	leds := newFakeLeds()
	osc := &fakeOsc{}
	path := filepath.Join(t.TempDir(), "config.yaml")
	sh := New(model.NewAppState(cfg), leds, osc, quietLogger(), path)
	return sh, leds, osc
}

func togglePad() model.PadConfig {
	return model.PadConfig{
		Pad:         model.PadID{X: 2, Y: 3},
		Mode:        model.ModeToggle,
		On:          model.OscCommand{Address: "/controls/global/invert", Args: []any{1.0}},
		Off:         &model.OscCommand{Address: "/controls/global/invert", Args: []any{0.0}},
		IdleColor:   model.ColorGreenDim,
		ActiveColor: model.ColorGreen,
	}
}

func TestDispatchPressSendsOscAndPaints(t *testing.T) {
	pc := togglePad()
	sh, leds, osc := newTestShell(t, model.NewControllerConfig().WithPad(pc))

	sh.Dispatch(PadPressEvent{Pad: pc.Pad, Velocity: 100})

	require.Len(t, osc.sent, 1)
	assert.Equal(t, "/controls/global/invert", osc.sent[0].Address)
	assert.Equal(t, []any{1.0}, osc.sent[0].Args)
	assert.True(t, sh.State().RuntimeFor(pc.Pad).On)
	assert.Equal(t, model.ColorGreen, leds.frame[pc.Pad])
}

func TestDispatchRendersOnlyChanges(t *testing.T) {
	sh, leds, _ := newTestShell(t, model.NewControllerConfig())

	// First dispatch paints the whole surface.
	sh.Dispatch(BlinkTickEvent{})
	initial := leds.writes
	assert.Greater(t, initial, 0)

	// Idle rendering does not depend on the blink phase, so another tick
	// changes nothing.
	sh.Dispatch(BlinkTickEvent{})
	assert.Equal(t, initial, leds.writes)
}

func TestDispatchBlinkRepaintsInWaitPad(t *testing.T) {
	sh, leds, _ := newTestShell(t, model.NewControllerConfig())

	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})
	require.Equal(t, model.PhaseWaitPad, sh.State().Learn.Phase)

	sh.Dispatch(BlinkTickEvent{})
	on := leds.frame[model.PadID{X: 0, Y: 0}]
	sh.Dispatch(BlinkTickEvent{})
	off := leds.frame[model.PadID{X: 0, Y: 0}]
	assert.NotEqual(t, on, off, "unconfigured pads alternate while waiting")
}

func TestRecordTimeoutEventEndsEmptySession(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())

	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})
	sh.Dispatch(PadPressEvent{Pad: model.PadID{X: 4, Y: 4}})
	require.Equal(t, model.PhaseRecordOsc, sh.State().Learn.Phase)

	sh.Dispatch(RecordTimeoutEvent{Session: sh.State().Learn.Session})
	assert.Equal(t, model.PhaseIdle, sh.State().Learn.Phase)
}

func TestStaleRecordTimeoutEventIsIgnored(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())

	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})
	sh.Dispatch(PadPressEvent{Pad: model.PadID{X: 4, Y: 4}})
	session := sh.State().Learn.Session

	sh.Dispatch(RecordTimeoutEvent{Session: session - 1})
	assert.Equal(t, model.PhaseRecordOsc, sh.State().Learn.Phase)
}

func TestLearnFlowPersistsConfig(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())
	pad := model.PadID{X: 3, Y: 2}

	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})
	sh.Dispatch(PadPressEvent{Pad: pad})
	sh.Dispatch(OscReceivedEvent{Event: classify.Enrich("/scenes/AlienCavern", nil, time.Now())})
	require.Equal(t, model.PhaseConfig, sh.State().Learn.Phase)
	sh.Dispatch(PadPressEvent{Pad: display.SavePad})

	require.Equal(t, model.PhaseIdle, sh.State().Learn.Phase)

	loaded, err := config.Load(sh.configPath)
	require.NoError(t, err)
	pc, ok := loaded.Pad(pad)
	require.True(t, ok)
	assert.Equal(t, "/scenes/AlienCavern", pc.On.Address)
	assert.Equal(t, model.ModeSelector, pc.Mode)
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	leds := newFakeLeds()
	osc := &fakeOsc{}
	// The config path sits below a regular file, so MkdirAll fails.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, "config.yaml")
	sh := New(model.NewAppState(model.NewControllerConfig()), leds, osc, quietLogger(), path)

	pad := model.PadID{X: 1, Y: 1}
	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})
	sh.Dispatch(PadPressEvent{Pad: pad})
	sh.Dispatch(OscReceivedEvent{Event: classify.Enrich("/scenes/X", nil, time.Now())})
	sh.Dispatch(PadPressEvent{Pad: display.SavePad})

	// Disk write failed, but the mapping stays live for this session.
	_, ok := sh.State().Config.Pad(pad)
	assert.True(t, ok)
}

func TestOscSendFailureDoesNotBlockState(t *testing.T) {
	pc := togglePad()
	sh, _, osc := newTestShell(t, model.NewControllerConfig().WithPad(pc))
	osc.err = assert.AnError

	sh.Dispatch(PadPressEvent{Pad: pc.Pad})
	assert.True(t, sh.State().RuntimeFor(pc.Pad).On, "state advances even when the send fails")
}

func TestReloadConfigEventPicksUpExternalEdit(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())

	edited := model.NewControllerConfig().WithPad(togglePad())
	require.NoError(t, config.Save(edited, sh.configPath))

	sh.Dispatch(ReloadConfigEvent{})
	_, ok := sh.State().Config.Pad(togglePad().Pad)
	assert.True(t, ok)
}

func TestReloadConfigDeferredDuringLearn(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())
	sh.Dispatch(PadPressEvent{Pad: display.LearnButton})

	edited := model.NewControllerConfig().WithPad(togglePad())
	require.NoError(t, config.Save(edited, sh.configPath))

	sh.Dispatch(ReloadConfigEvent{})
	_, ok := sh.State().Config.Pad(togglePad().Pad)
	assert.False(t, ok, "reload must not clobber an active learn session")
}

func TestPostDropsWhenQueueFull(t *testing.T) {
	sh, _, _ := newTestShell(t, model.NewControllerConfig())

	// Nothing is draining the queue; filling past capacity must not block.
	for i := 0; i < cap(sh.events)+10; i++ {
		sh.Post(BlinkTickEvent{})
	}
	assert.Len(t, sh.events, cap(sh.events))
}
