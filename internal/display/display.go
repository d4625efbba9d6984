// Package display renders application state to LED instructions.
//
// Render is pure: state in, full-grid paint list out. Later entries in
// the list override earlier ones for the same pad; the shell folds the
// list into a frame and diffs it against the hardware.
package display

import "github.com/vjkit/gridlearn/internal/model"

// Render computes the desired LED image for the current state.
func Render(state model.AppState) []model.LedEffect {
	switch state.Learn.Phase {
	case model.PhaseWaitPad:
		return renderWaitPad(state)
	case model.PhaseRecordOsc:
		return renderRecordOsc(state)
	case model.PhaseConfig:
		return renderConfig(state)
	default:
		return renderIdle(state)
	}
}

// clearAll paints every modeled pad off: the 8x8 grid plus the scene
// column.
func clearAll() []model.LedEffect {
	effects := make([]model.LedEffect, 0, 72)
	for y := 0; y <= 7; y++ {
		for x := 0; x <= 7; x++ {
			effects = append(effects, model.LedEffect{Pad: model.PadID{X: x, Y: y}, Color: model.ColorOff})
		}
	}
	for y := 0; y <= 7; y++ {
		effects = append(effects, model.LedEffect{Pad: model.PadID{X: 8, Y: y}, Color: model.ColorOff})
	}
	return effects
}

func renderIdle(state model.AppState) []model.LedEffect {
	effects := clearAll()

	for _, pc := range state.Config.Pads {
		color := pc.IdleColor
		if state.RuntimeFor(pc.Pad).Active {
			color = pc.ActiveColor
		}
		effects = append(effects, model.LedEffect{Pad: pc.Pad, Color: color})
	}

	// Learn button dim green: available.
	effects = append(effects, model.LedEffect{Pad: LearnButton, Color: model.ColorGreenDim})
	return effects
}

func renderWaitPad(state model.AppState) []model.LedEffect {
	effects := clearAll()

	// Unconfigured pads blink red (available for recording), configured
	// pads hold their idle color.
	blink := model.ColorOff
	if state.BlinkOn {
		blink = model.ColorRed
	}
	for y := 0; y <= 7; y++ {
		for x := 0; x <= 7; x++ {
			pad := model.PadID{X: x, Y: y}
			if pc, ok := state.Config.Pad(pad); ok {
				effects = append(effects, model.LedEffect{Pad: pad, Color: pc.IdleColor})
			} else {
				effects = append(effects, model.LedEffect{Pad: pad, Color: blink})
			}
		}
	}

	effects = append(effects,
		model.LedEffect{Pad: LearnButton, Color: model.ColorOrange},
		model.LedEffect{Pad: CancelButton, Color: model.ColorRed},
	)
	return effects
}

func renderRecordOsc(state model.AppState) []model.LedEffect {
	effects := clearAll()
	learn := state.Learn

	if learn.SelectedPad != nil {
		color := model.ColorOff
		if state.BlinkOn {
			color = model.ColorOrange
		}
		effects = append(effects, model.LedEffect{Pad: *learn.SelectedPad, Color: color})
	}

	effects = append(effects, model.LedEffect{Pad: LearnButton, Color: model.ColorOrange})

	// Scene column shows how many distinct addresses have been heard.
	unique := map[string]struct{}{}
	for _, ev := range learn.Recorded {
		unique[ev.Address] = struct{}{}
	}
	n := len(unique)
	if n > 6 {
		n = 6
	}
	for i := 0; i < n; i++ {
		effects = append(effects, model.LedEffect{Pad: model.PadID{X: 8, Y: i + 1}, Color: model.ColorCyan})
	}

	if len(learn.Recorded) > 0 {
		effects = append(effects, model.LedEffect{Pad: SavePad, Color: model.ColorGreen})
	}
	effects = append(effects, model.LedEffect{Pad: CancelPad, Color: model.ColorRed})
	return effects
}

func renderConfig(state model.AppState) []model.LedEffect {
	effects := clearAll()
	learn := state.Learn

	registerColor := func(r model.Register) model.Color {
		if learn.Register == r {
			return model.ColorOrange
		}
		return model.ColorYellow
	}
	effects = append(effects,
		model.LedEffect{Pad: RegisterOscPad, Color: registerColor(model.RegisterOsc)},
		model.LedEffect{Pad: RegisterModePad, Color: registerColor(model.RegisterMode)},
		model.LedEffect{Pad: RegisterColorPad, Color: registerColor(model.RegisterColor)},
	)

	switch learn.Register {
	case model.RegisterOsc:
		effects = append(effects, renderOscSelect(learn)...)
	case model.RegisterMode:
		effects = append(effects, renderModeSelect(learn)...)
	case model.RegisterColor:
		effects = append(effects, renderColorSelect(learn)...)
	}

	// Test pad auditions the mapping: alternates between blue and the
	// candidate active color.
	testColor := learn.ActiveColor
	if state.BlinkOn {
		testColor = model.ColorBlue
	}
	effects = append(effects,
		model.LedEffect{Pad: SavePad, Color: model.ColorGreen},
		model.LedEffect{Pad: TestPad, Color: testColor},
		model.LedEffect{Pad: DeletePad, Color: model.ColorRedDim},
		model.LedEffect{Pad: CancelPad, Color: model.ColorRed},
		model.LedEffect{Pad: LearnButton, Color: model.ColorRedDim},
	)
	return effects
}

func renderOscSelect(learn model.LearnState) []model.LedEffect {
	var effects []model.LedEffect

	start := learn.OscPage * OscPageSize
	for i := 0; i < OscPageSize && start+i < len(learn.Candidates); i++ {
		color := model.ColorCyan
		if start+i == learn.OscIndex {
			color = model.ColorWhite
		}
		effects = append(effects, model.LedEffect{Pad: model.PadID{X: i, Y: OscSelectRow}, Color: color})
	}

	if learn.OscPage > 0 {
		effects = append(effects, model.LedEffect{Pad: OscPagePrev, Color: model.ColorBlue})
	}
	if start+OscPageSize < len(learn.Candidates) {
		effects = append(effects, model.LedEffect{Pad: OscPageNext, Color: model.ColorBlue})
	}
	return effects
}

func renderModeSelect(learn model.LearnState) []model.LedEffect {
	base := [4]model.Color{model.ColorPurple, model.ColorCyan, model.ColorOrange, model.ColorGreen}

	var effects []model.LedEffect
	for x, mode := range ModeOrder {
		color := base[x]
		if learn.Mode == mode {
			color = model.ColorWhite
		}
		effects = append(effects, model.LedEffect{Pad: model.PadID{X: x, Y: ModeSelectRow}, Color: color})
	}
	return effects
}

func renderColorSelect(learn model.LearnState) []model.LedEffect {
	var effects []model.LedEffect

	for y := 2; y <= 5; y++ {
		for x := 0; x <= 7; x++ {
			pad := model.PadID{X: x, Y: y}
			color, active, ok := ColorAt(pad)
			if !ok {
				continue
			}
			selected := learn.IdleColor
			if active {
				selected = learn.ActiveColor
			}
			shown := color
			if color == selected {
				shown = model.ColorWhite
			}
			effects = append(effects, model.LedEffect{Pad: pad, Color: shown})
		}
	}

	// Row 6 previews the current choices.
	effects = append(effects,
		model.LedEffect{Pad: model.PadID{X: 1, Y: 6}, Color: learn.IdleColor},
		model.LedEffect{Pad: model.PadID{X: 5, Y: 6}, Color: learn.ActiveColor},
	)
	return effects
}
