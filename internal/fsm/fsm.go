// Package fsm holds the pure state machine behind the pad controller.
//
// Every transition takes the current AppState and returns a new state
// plus a list of effects for the shell to execute. Transitions never
// perform I/O and never fail: an event that is not meaningful in the
// current phase returns the unchanged state and no effects.
package fsm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/vjkit/gridlearn/internal/classify"
	"github.com/vjkit/gridlearn/internal/display"
	"github.com/vjkit/gridlearn/internal/model"
)

// RecordTimeout is the wall-clock window for an OSC recording session.
// The shell schedules a one-shot timer for it; the timer firing is just
// another event in the serialized stream.
const RecordTimeout = 5 * time.Second

func freshLearn(session int) model.LearnState {
	return model.LearnState{
		Phase:       model.PhaseIdle,
		Session:     session,
		Mode:        model.ModeToggle,
		IdleColor:   model.ColorGreenDim,
		ActiveColor: model.ColorGreen,
	}
}

// EnterLearnMode starts the learn flow. Valid only from IDLE.
func EnterLearnMode(s model.AppState) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseIdle {
		return s, nil
	}
	learn := freshLearn(s.Learn.Session)
	learn.Phase = model.PhaseWaitPad
	s.Learn = learn
	return s, []model.Effect{model.Log("entered learn mode - press a pad to configure")}
}

// ExitLearnMode returns to IDLE from any phase, discarding in-progress
// edits. This is the universal cancel.
func ExitLearnMode(s model.AppState) (model.AppState, []model.Effect) {
	s.Learn = freshLearn(s.Learn.Session)
	return s, []model.Effect{model.Log("exited learn mode")}
}

// SelectPad picks the pad to configure. Valid only from WAIT_PAD. A pad
// that already has a configuration skips recording: the stored command,
// mode and colors seed the CONFIG phase directly.
func SelectPad(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseWaitPad || !pad.IsGrid() {
		return s, nil
	}

	if pc, ok := s.Config.Pad(pad); ok {
		learn := s.Learn
		learn.Phase = model.PhaseConfig
		learn.SelectedPad = &pad
		learn.Recorded = nil
		learn.Candidates = []model.OscCommand{pc.On}
		learn.OscIndex = 0
		learn.OscPage = 0
		learn.Register = model.RegisterOsc
		learn.Mode = pc.Mode
		learn.IdleColor = pc.IdleColor
		learn.ActiveColor = pc.ActiveColor
		s.Learn = learn
		return s, []model.Effect{model.Log(fmt.Sprintf("editing pad %s", pad))}
	}

	learn := s.Learn
	learn.Phase = model.PhaseRecordOsc
	learn.SelectedPad = &pad
	learn.Session++
	learn.Recorded = nil
	s.Learn = learn
	return s, []model.Effect{model.Log(fmt.Sprintf("recording OSC for pad %s", pad))}
}

// RecordOscEvent feeds one inbound OSC event into an active recording
// session. Noise addresses are dropped; a decisive event (priority 1-3)
// finishes the session immediately.
func RecordOscEvent(s model.AppState, ev model.OscEvent) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseRecordOsc {
		return s, nil
	}
	if !classify.IsControllable(ev.Address) {
		return s, nil
	}

	learn := s.Learn
	learn.Recorded = append(append([]model.OscEvent{}, learn.Recorded...), ev)
	s.Learn = learn

	if classify.ShouldStopRecording(ev) {
		return finishRecording(s)
	}

	unique := map[string]struct{}{}
	for _, e := range learn.Recorded {
		unique[e.Address] = struct{}{}
	}
	return s, []model.Effect{model.Log(fmt.Sprintf("recorded (%d): %s", len(unique), ev.Address))}
}

// HandleRecordTimeout ends a recording session when its timer fires.
// The session token makes a stale timer a no-op once the phase has
// already advanced.
func HandleRecordTimeout(s model.AppState, session int) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseRecordOsc || s.Learn.Session != session {
		return s, nil
	}
	return finishRecording(s)
}

// finishRecording sorts the recorded events by priority, dedupes by
// address and moves to CONFIG. With nothing recorded there is nothing
// to configure, so the session ends back in IDLE.
func finishRecording(s model.AppState) (model.AppState, []model.Effect) {
	events := s.Learn.Recorded
	if len(events) == 0 {
		return ExitLearnMode(s)
	}

	sorted := append([]model.OscEvent{}, events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	seen := map[string]struct{}{}
	var candidates []model.OscCommand
	for _, ev := range sorted {
		if _, dup := seen[ev.Address]; dup {
			continue
		}
		seen[ev.Address] = struct{}{}
		candidates = append(candidates, ev.Command())
	}

	learn := s.Learn
	learn.Phase = model.PhaseConfig
	learn.Candidates = candidates
	learn.OscIndex = 0
	learn.OscPage = 0
	learn.Register = model.RegisterOsc
	learn.Mode = classify.Classify(candidates[0].Address).Mode
	s.Learn = learn

	return s, []model.Effect{model.Log(fmt.Sprintf("recorded %d unique commands", len(candidates)))}
}

// HandlePadPress is the top-level dispatcher for pad presses.
func HandlePadPress(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	if pad == display.LearnButton {
		if s.Learn.Phase == model.PhaseIdle {
			return EnterLearnMode(s)
		}
		return ExitLearnMode(s)
	}

	switch s.Learn.Phase {
	case model.PhaseIdle:
		return handleNormalPress(s, pad)
	case model.PhaseWaitPad:
		if pad == display.CancelButton {
			return ExitLearnMode(s)
		}
		return SelectPad(s, pad)
	case model.PhaseRecordOsc:
		switch pad {
		case display.SavePad:
			return saveFromRecording(s)
		case display.CancelPad, display.CancelButton:
			return ExitLearnMode(s)
		}
		return s, nil
	case model.PhaseConfig:
		return HandleConfigPadPress(s, pad)
	}
	return s, nil
}

// handleNormalPress executes a configured pad during normal operation.
func handleNormalPress(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	pc, ok := s.Config.Pad(pad)
	if !ok {
		return s, nil
	}

	switch pc.Mode {
	case model.ModeOneShot:
		return s, []model.Effect{model.SendOscEffect{Command: pc.On}}

	case model.ModeToggle:
		on := !s.RuntimeFor(pad).On
		cmd := pc.On
		if !on {
			cmd = pc.OffCommand()
		}
		s = s.WithRuntime(pad, model.PadRuntime{On: on, Active: on})
		return s, []model.Effect{model.SendOscEffect{Command: cmd}}

	case model.ModePush:
		s = s.WithRuntime(pad, model.PadRuntime{Held: true, Active: true})
		return s, []model.Effect{model.SendOscEffect{Command: pc.On}}

	case model.ModeSelector:
		effects := []model.Effect{model.SendOscEffect{Command: pc.On}}
		if pc.Group != "" {
			if prev, ok := s.ActiveByGroup[pc.Group]; ok && prev != pad {
				s = s.WithRuntime(prev, model.PadRuntime{})
			}
			groups := make(map[string]model.PadID, len(s.ActiveByGroup)+1)
			for k, v := range s.ActiveByGroup {
				groups[k] = v
			}
			groups[pc.Group] = pad
			s.ActiveByGroup = groups
		}
		s = s.WithRuntime(pad, model.PadRuntime{Active: true})
		return s, effects
	}
	return s, nil
}

// HandlePadRelease completes the momentary cycle of a held PUSH pad.
func HandlePadRelease(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseIdle {
		return s, nil
	}
	pc, ok := s.Config.Pad(pad)
	if !ok || pc.Mode != model.ModePush || !s.RuntimeFor(pad).Held {
		return s, nil
	}
	s = s.WithRuntime(pad, model.PadRuntime{})
	return s, []model.Effect{model.SendOscEffect{Command: pc.OffCommand()}}
}

// HandleConfigPadPress dispatches a press during the CONFIG phase by
// surface region: action row, register row, then the active register's
// content area.
func HandleConfigPadPress(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	if s.Learn.Phase != model.PhaseConfig {
		return s, nil
	}

	switch pad {
	case display.SavePad:
		return saveConfig(s)
	case display.TestPad:
		return testConfig(s)
	case display.DeletePad:
		return deleteSelected(s)
	case display.CancelPad, display.CancelButton:
		return ExitLearnMode(s)
	case display.RegisterOscPad:
		s.Learn.Register = model.RegisterOsc
		return s, nil
	case display.RegisterModePad:
		s.Learn.Register = model.RegisterMode
		return s, nil
	case display.RegisterColorPad:
		s.Learn.Register = model.RegisterColor
		return s, nil
	}

	switch s.Learn.Register {
	case model.RegisterOsc:
		return handleOscSelect(s, pad)
	case model.RegisterMode:
		return handleModeSelect(s, pad)
	case model.RegisterColor:
		return handleColorSelect(s, pad)
	}
	return s, nil
}

func handleOscSelect(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	learn := s.Learn

	if pad == display.OscPagePrev && learn.OscPage > 0 {
		s.Learn.OscPage--
		return s, nil
	}
	if pad == display.OscPageNext && (learn.OscPage+1)*display.OscPageSize < len(learn.Candidates) {
		s.Learn.OscPage++
		return s, nil
	}

	if pad.Y == display.OscSelectRow && pad.X >= 0 && pad.X <= 7 {
		idx := learn.OscPage*display.OscPageSize + pad.X
		if idx < len(learn.Candidates) {
			s.Learn.OscIndex = idx
			s.Learn.Mode = classify.Classify(learn.Candidates[idx].Address).Mode
		}
		return s, nil
	}
	return s, nil
}

func handleModeSelect(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	if pad.Y == display.ModeSelectRow && pad.X >= 0 && pad.X < len(display.ModeOrder) {
		s.Learn.Mode = display.ModeOrder[pad.X]
	}
	return s, nil
}

func handleColorSelect(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	color, active, ok := display.ColorAt(pad)
	if !ok {
		return s, nil
	}
	if active {
		s.Learn.ActiveColor = color
	} else {
		s.Learn.IdleColor = color
	}
	return s, nil
}

// testConfig auditions the current candidate without leaving CONFIG.
func testConfig(s model.AppState) (model.AppState, []model.Effect) {
	learn := s.Learn
	if len(learn.Candidates) == 0 || learn.OscIndex >= len(learn.Candidates) {
		return s, nil
	}
	cmd := learn.Candidates[learn.OscIndex]
	if learn.Mode == model.ModeToggle || learn.Mode == model.ModePush {
		cmd = model.OscCommand{Address: cmd.Address, Args: []any{1.0}}
	}
	return s, []model.Effect{
		model.SendOscEffect{Command: cmd},
		model.Log(fmt.Sprintf("test: %s", cmd)),
	}
}

// saveConfig commits the candidate selections as a PadConfig and
// returns to IDLE.
func saveConfig(s model.AppState) (model.AppState, []model.Effect) {
	learn := s.Learn
	if learn.SelectedPad == nil || len(learn.Candidates) == 0 || learn.OscIndex >= len(learn.Candidates) {
		return ExitLearnMode(s)
	}

	pc := buildPadConfig(*learn.SelectedPad, learn.Candidates[learn.OscIndex], learn.Mode, learn.IdleColor, learn.ActiveColor)
	s.Config = s.Config.WithPad(pc)

	s, effects := ExitLearnMode(s)
	effects = append(effects,
		model.SaveConfigEffect{Config: s.Config},
		model.Log(fmt.Sprintf("saved %s for pad %s", pc.On.Address, pc.Pad)),
	)
	return s, effects
}

// saveFromRecording commits directly from RECORD_OSC using the last
// recorded controllable event, skipping the CONFIG phase.
func saveFromRecording(s model.AppState) (model.AppState, []model.Effect) {
	learn := s.Learn
	if learn.SelectedPad == nil || len(learn.Recorded) == 0 {
		return ExitLearnMode(s)
	}

	last := learn.Recorded[len(learn.Recorded)-1]
	cat := classify.Classify(last.Address)
	pc := buildPadConfig(*learn.SelectedPad, last.Command(), cat.Mode, learn.IdleColor, learn.ActiveColor)
	s.Config = s.Config.WithPad(pc)

	s, effects := ExitLearnMode(s)
	effects = append(effects,
		model.SaveConfigEffect{Config: s.Config},
		model.Log(fmt.Sprintf("saved %s for pad %s", pc.On.Address, pc.Pad)),
	)
	return s, effects
}

// buildPadConfig assembles the persisted mapping. Toggle and push pads
// get synthesized on/off value commands; other modes replay the
// captured command verbatim.
func buildPadConfig(pad model.PadID, cmd model.OscCommand, mode model.PadMode, idle, active model.Color) model.PadConfig {
	pc := model.PadConfig{
		Pad:         pad,
		Mode:        mode,
		On:          model.OscCommand{Address: cmd.Address, Args: model.NormalizeArgs(cmd.Args)},
		IdleColor:   idle,
		ActiveColor: active,
		Label:       lastSegment(cmd.Address),
		Group:       classify.Classify(cmd.Address).Group,
	}
	if mode == model.ModeToggle || mode == model.ModePush {
		pc.On = model.OscCommand{Address: cmd.Address, Args: []any{1.0}}
		pc.Off = &model.OscCommand{Address: cmd.Address, Args: []any{0.0}}
	}
	return pc
}

// deleteSelected unmaps the pad being edited and leaves learn mode.
func deleteSelected(s model.AppState) (model.AppState, []model.Effect) {
	if s.Learn.SelectedPad == nil {
		return ExitLearnMode(s)
	}
	pad := *s.Learn.SelectedPad
	s, effects := DeletePad(s, pad)
	s, exitEffects := ExitLearnMode(s)
	return s, append(effects, exitEffects...)
}

// DeletePad removes a pad's configuration. A no-op for unconfigured
// pads.
func DeletePad(s model.AppState, pad model.PadID) (model.AppState, []model.Effect) {
	pc, ok := s.Config.Pad(pad)
	if !ok {
		return s, nil
	}
	s.Config = s.Config.WithoutPad(pad)
	s = s.WithRuntime(pad, model.PadRuntime{})
	if pc.Group != "" && s.ActiveByGroup[pc.Group] == pad {
		groups := make(map[string]model.PadID, len(s.ActiveByGroup))
		for k, v := range s.ActiveByGroup {
			if k != pc.Group {
				groups[k] = v
			}
		}
		s.ActiveByGroup = groups
	}
	return s, []model.Effect{
		model.SaveConfigEffect{Config: s.Config},
		model.Log(fmt.Sprintf("deleted mapping for pad %s", pad)),
	}
}

// ToggleBlink flips the LED animation phase.
func ToggleBlink(s model.AppState) model.AppState {
	s.BlinkOn = !s.BlinkOn
	return s
}

func lastSegment(address string) string {
	if i := strings.LastIndex(address, "/"); i >= 0 {
		return address[i+1:]
	}
	return address
}
