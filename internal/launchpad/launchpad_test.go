package launchpad

import (
	"testing"

	"github.com/vjkit/gridlearn/internal/model"
)

func TestPadToNote(t *testing.T) {
	tests := []struct {
		pad  model.PadID
		note uint8
	}{
		{model.PadID{X: 0, Y: 0}, 11},
		{model.PadID{X: 7, Y: 0}, 18},
		{model.PadID{X: 0, Y: 7}, 81},
		{model.PadID{X: 7, Y: 7}, 88},
		{model.PadID{X: 3, Y: 2}, 34},
	}
	for _, tt := range tests {
		if got := PadToNote(tt.pad); got != tt.note {
			t.Errorf("PadToNote(%s) = %d, want %d", tt.pad, got, tt.note)
		}
	}
}

func TestNoteToPadRoundTrip(t *testing.T) {
	for y := 0; y <= 7; y++ {
		for x := 0; x <= 7; x++ {
			pad := model.PadID{X: x, Y: y}
			got, ok := NoteToPad(PadToNote(pad))
			if !ok || got != pad {
				t.Errorf("round trip for %s gave %s, ok=%v", pad, got, ok)
			}
		}
	}
}

func TestNoteToPadRejectsNonGridNotes(t *testing.T) {
	// Column 9 of each row is the scene button, sent as CC not a note,
	// and values outside 11-88 are other surfaces entirely.
	for _, note := range []uint8{0, 10, 19, 29, 89, 90, 99, 127} {
		if _, ok := NoteToPad(note); ok {
			t.Errorf("note %d must not map to a grid pad", note)
		}
	}
}

func TestControlToPad(t *testing.T) {
	tests := []struct {
		cc  uint8
		pad model.PadID
		ok  bool
	}{
		{19, model.PadID{X: 8, Y: 0}, true},
		{89, model.PadID{X: 8, Y: 7}, true},
		{49, model.PadID{X: 8, Y: 3}, true},
		{18, model.PadID{}, false},
		{9, model.PadID{}, false},
		{91, model.PadID{}, false}, // top function row, not modeled
		{99, model.PadID{}, false},
	}
	for _, tt := range tests {
		pad, ok := ControlToPad(tt.cc)
		if ok != tt.ok {
			t.Errorf("ControlToPad(%d) ok = %v, want %v", tt.cc, ok, tt.ok)
			continue
		}
		if ok && pad != tt.pad {
			t.Errorf("ControlToPad(%d) = %s, want %s", tt.cc, pad, tt.pad)
		}
	}
}

func TestSceneControlRoundTrip(t *testing.T) {
	for y := 0; y <= 7; y++ {
		pad := model.PadID{X: 8, Y: y}
		got, ok := ControlToPad(sceneControl(pad))
		if !ok || got != pad {
			t.Errorf("round trip for %s gave %s, ok=%v", pad, got, ok)
		}
	}
}
