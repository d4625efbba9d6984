package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPadIDClassification(t *testing.T) {
	assert.True(t, PadID{X: 0, Y: 0}.IsGrid())
	assert.True(t, PadID{X: 7, Y: 7}.IsGrid())
	assert.False(t, PadID{X: 8, Y: 0}.IsGrid())
	assert.False(t, PadID{X: -1, Y: 3}.IsGrid())

	assert.True(t, PadID{X: 8, Y: 0}.IsScene())
	assert.True(t, PadID{X: 8, Y: 7}.IsScene())
	assert.False(t, PadID{X: 8, Y: 8}.IsScene())
	assert.False(t, PadID{X: 3, Y: 3}.IsScene())
}

func TestPadIDString(t *testing.T) {
	assert.Equal(t, "(3,2)", PadID{X: 3, Y: 2}.String())
	assert.Equal(t, "Scene5", PadID{X: 8, Y: 5}.String())
}

func TestNormalizeArgs(t *testing.T) {
	got := NormalizeArgs([]any{int(1), int32(2), int64(3), float32(0.5), float64(0.25), "name", true})

	require.Len(t, got, 7)
	assert.Equal(t, float64(1), got[0])
	assert.Equal(t, float64(2), got[1])
	assert.Equal(t, float64(3), got[2])
	assert.Equal(t, float64(0.5), got[3])
	assert.Equal(t, 0.25, got[4])
	assert.Equal(t, "name", got[5])
	assert.Equal(t, true, got[6])

	assert.Nil(t, NormalizeArgs(nil))
	assert.Nil(t, NormalizeArgs([]any{}))
}

func TestOffCommand(t *testing.T) {
	explicit := PadConfig{
		On:  OscCommand{Address: "/controls/global/invert", Args: []any{1.0}},
		Off: &OscCommand{Address: "/controls/global/invert", Args: []any{0.0}},
	}
	assert.Equal(t, *explicit.Off, explicit.OffCommand())

	derived := PadConfig{On: OscCommand{Address: "/controls/global/strobe", Args: []any{1.0}}}
	off := derived.OffCommand()
	assert.Equal(t, "/controls/global/strobe", off.Address)
	assert.Equal(t, []any{0.0}, off.Args)
}

func TestWithPadDoesNotMutateOriginal(t *testing.T) {
	base := NewControllerConfig()
	pc := PadConfig{Pad: PadID{X: 1, Y: 1}, Mode: ModeOneShot, On: OscCommand{Address: "/playlist/next"}}

	with := base.WithPad(pc)
	assert.Empty(t, base.Pads)
	assert.Len(t, with.Pads, 1)

	without := with.WithoutPad(pc.Pad)
	assert.Len(t, with.Pads, 1)
	assert.Empty(t, without.Pads)
}

func TestWithRuntimeDoesNotMutateOriginal(t *testing.T) {
	s := NewAppState(NewControllerConfig())
	pad := PadID{X: 2, Y: 2}

	next := s.WithRuntime(pad, PadRuntime{Active: true})
	assert.False(t, s.RuntimeFor(pad).Active)
	assert.True(t, next.RuntimeFor(pad).Active)
}

func TestOscEventCommand(t *testing.T) {
	ev := OscEvent{Address: "/scenes/X", Args: []any{1.0}}
	cmd := ev.Command()
	assert.Equal(t, "/scenes/X", cmd.Address)
	assert.Equal(t, []any{1.0}, cmd.Args)
}
