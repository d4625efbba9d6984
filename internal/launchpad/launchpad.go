// Package launchpad drives a Launchpad Mini Mk3 in programmer mode.
//
// The rest of the application only sees PadIDs and palette colors; all
// note/CC numbering and SysEx framing is contained here.
package launchpad

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // register rtmidi driver

	"github.com/vjkit/gridlearn/internal/model"
)

// defaultPortHint matches the Mk3's MIDI port when no name is given.
const defaultPortHint = "Launchpad"

// programmerMode is the Mk3 SysEx payload selecting programmer mode.
var programmerMode = []byte{0x00, 0x20, 0x29, 0x02, 0x0D, 0x0E, 0x01}

// Device is an open connection to a Launchpad.
type Device struct {
	in   drivers.In
	out  drivers.Out
	send func(midi.Message) error
	stop func()
}

// Open connects to the first MIDI in/out port pair whose names contain
// the given hints (empty hints match any Launchpad port).
func Open(inHint, outHint string) (*Device, error) {
	if inHint == "" {
		inHint = defaultPortHint
	}
	if outHint == "" {
		outHint = defaultPortHint
	}

	var in drivers.In
	for _, port := range midi.GetInPorts() {
		if strings.Contains(port.String(), inHint) {
			in = port
			break
		}
	}
	if in == nil {
		return nil, fmt.Errorf("no MIDI input port matching %q", inHint)
	}

	var out drivers.Out
	for _, port := range midi.GetOutPorts() {
		if strings.Contains(port.String(), outHint) {
			out = port
			break
		}
	}
	if out == nil {
		return nil, fmt.Errorf("no MIDI output port matching %q", outHint)
	}

	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("failed to create sender: %w", err)
	}

	return &Device{in: in, out: out, send: send}, nil
}

// EnterProgrammerMode switches the device to programmer mode so pads
// report raw notes and accept direct LED writes.
func (d *Device) EnterProgrammerMode() error {
	if err := d.send(midi.SysEx(programmerMode)); err != nil {
		return fmt.Errorf("failed to enter programmer mode: %w", err)
	}
	return nil
}

// Listen starts delivering pad events to the callbacks. Grid pads
// arrive as notes, scene buttons as control changes with value 127 on
// press and 0 on release.
func (d *Device) Listen(onPress func(model.PadID, int), onRelease func(model.PadID)) error {
	stop, err := midi.ListenTo(d.in, func(msg midi.Message, timestampms int32) {
		var channel, key, velocity uint8

		switch {
		case msg.GetNoteOn(&channel, &key, &velocity):
			if pad, ok := NoteToPad(key); ok {
				if velocity > 0 {
					onPress(pad, int(velocity))
				} else {
					onRelease(pad)
				}
			}
		case msg.GetNoteOff(&channel, &key, &velocity):
			if pad, ok := NoteToPad(key); ok {
				onRelease(pad)
			}
		case msg.GetControlChange(&channel, &key, &velocity):
			if pad, ok := ControlToPad(key); ok {
				if velocity > 0 {
					onPress(pad, int(velocity))
				} else {
					onRelease(pad)
				}
			}
		}
	})
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.in, err)
	}
	d.stop = stop
	return nil
}

// SetLED writes a palette color to one pad.
func (d *Device) SetLED(pad model.PadID, color model.Color) error {
	if pad.IsScene() {
		return d.send(midi.ControlChange(0, sceneControl(pad), uint8(color)&0x7F))
	}
	if !pad.IsGrid() {
		return nil
	}
	return d.send(midi.NoteOn(0, PadToNote(pad), uint8(color)&0x7F))
}

// Clear turns every modeled LED off.
func (d *Device) Clear() error {
	for y := 0; y <= 7; y++ {
		for x := 0; x <= 7; x++ {
			if err := d.SetLED(model.PadID{X: x, Y: y}, model.ColorOff); err != nil {
				return err
			}
		}
		if err := d.SetLED(model.PadID{X: 8, Y: y}, model.ColorOff); err != nil {
			return err
		}
	}
	return nil
}

// Close stops listening and releases the MIDI driver.
func (d *Device) Close() {
	if d.stop != nil {
		d.stop()
	}
	midi.CloseDriver()
}

// PadToNote maps a grid pad to its programmer-mode note number.
// Bottom-left (0,0) is note 11, top-right (7,7) is note 88.
func PadToNote(pad model.PadID) uint8 {
	return uint8(10*(pad.Y+1) + pad.X + 1)
}

// NoteToPad inverts PadToNote. ok is false for notes outside the grid.
func NoteToPad(note uint8) (model.PadID, bool) {
	if note < 11 || note > 88 {
		return model.PadID{}, false
	}
	col := int(note % 10)
	if col < 1 || col > 8 {
		return model.PadID{}, false
	}
	return model.PadID{X: col - 1, Y: int(note/10) - 1}, true
}

// sceneControl maps a scene button to its CC number (19, 29, ... 89).
func sceneControl(pad model.PadID) uint8 {
	return uint8(10*(pad.Y+1) + 9)
}

// ControlToPad maps a control-change number to a scene button. The top
// function row (91-98) is not part of the model and is ignored.
func ControlToPad(cc uint8) (model.PadID, bool) {
	if cc >= 19 && cc <= 89 && cc%10 == 9 {
		return model.PadID{X: 8, Y: int(cc/10) - 1}, true
	}
	return model.PadID{}, false
}
