package display

import "github.com/vjkit/gridlearn/internal/model"

// Control-surface layout. Grid coordinates have (0,0) at the bottom
// left; the scene column is x=8.
var (
	// LearnButton toggles learn mode (bottom-right scene button).
	LearnButton = model.PadID{X: 8, Y: 0}
	// CancelButton aborts learn mode (top scene button).
	CancelButton = model.PadID{X: 8, Y: 7}

	// Bottom action row during RECORD_OSC and CONFIG.
	SavePad   = model.PadID{X: 0, Y: 0}
	TestPad   = model.PadID{X: 1, Y: 0}
	DeletePad = model.PadID{X: 6, Y: 0}
	CancelPad = model.PadID{X: 7, Y: 0}

	// Top row register selectors during CONFIG.
	RegisterOscPad   = model.PadID{X: 0, Y: 7}
	RegisterModePad  = model.PadID{X: 1, Y: 7}
	RegisterColorPad = model.PadID{X: 2, Y: 7}

	// OSC candidate pagination (top row).
	OscPagePrev = model.PadID{X: 6, Y: 7}
	OscPageNext = model.PadID{X: 7, Y: 7}
)

// OscPageSize is the number of candidate commands shown per page, one
// per column of the selection row.
const OscPageSize = 8

// OscSelectRow is the grid row used for candidate selection.
const OscSelectRow = 3

// ModeSelectRow is the grid row used for mode selection.
const ModeSelectRow = 3

// ModeOrder maps mode-select columns 0-3 to pad modes.
var ModeOrder = [4]model.PadMode{
	model.ModeToggle, model.ModePush, model.ModeOneShot, model.ModeSelector,
}

// ColorAt returns the palette color for a position inside one of the
// two 4x4 color-select blocks (rows 2-5). ok is false outside a block.
// The idle block occupies columns 0-3, the active block columns 4-7.
func ColorAt(pad model.PadID) (color model.Color, active bool, ok bool) {
	if pad.Y < 2 || pad.Y > 5 || pad.X < 0 || pad.X > 7 {
		return 0, false, false
	}
	col := pad.X
	active = col >= 4
	if active {
		col -= 4
	}
	idx := (5-pad.Y)*4 + col
	return model.PreviewPalette[idx], active, true
}
