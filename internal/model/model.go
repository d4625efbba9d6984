package model

import (
	"fmt"
	"time"
)

// PadID identifies a single button on the controller. The main grid is
// 8x8 with (0,0) at the bottom left; x=8 is the scene-launch column on
// the right edge.
type PadID struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// IsGrid reports whether the pad is part of the main 8x8 grid.
func (p PadID) IsGrid() bool {
	return p.X >= 0 && p.X <= 7 && p.Y >= 0 && p.Y <= 7
}

// IsScene reports whether the pad is a right-column scene button.
func (p PadID) IsScene() bool {
	return p.X == 8 && p.Y >= 0 && p.Y <= 7
}

// Key returns the stable map key used for config and runtime lookups.
func (p PadID) Key() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

func (p PadID) String() string {
	if p.IsScene() {
		return fmt.Sprintf("Scene%d", p.Y)
	}
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// PadMode describes how a configured pad reacts to presses.
type PadMode string

const (
	// ModeSelector gives radio-button semantics within a group.
	ModeSelector PadMode = "selector"
	// ModeToggle alternates between an on and an off command.
	ModeToggle PadMode = "toggle"
	// ModeOneShot sends a single command per press.
	ModeOneShot PadMode = "one_shot"
	// ModePush sends 1.0 on press and 0.0 on release.
	ModePush PadMode = "push"
)

// OscCommand is an outbound OSC message: address plus typed arguments.
type OscCommand struct {
	Address string `yaml:"address"`
	Args    []any  `yaml:"args,omitempty"`
}

func (c OscCommand) String() string {
	if len(c.Args) == 0 {
		return c.Address
	}
	return fmt.Sprintf("%s %v", c.Address, c.Args)
}

// OscEvent is an inbound OSC message enriched with a classifier
// priority. Lower priority numbers are more decisive for learn mode.
type OscEvent struct {
	Timestamp time.Time
	Address   string
	Args      []any
	Priority  int
}

// Command strips the event down to a sendable command.
func (e OscEvent) Command() OscCommand {
	return OscCommand{Address: e.Address, Args: e.Args}
}

// NormalizeArgs converts numeric OSC/YAML argument values to float64 so
// that a config survives a save/load cycle unchanged. YAML writes 1.0
// as "1" and reads it back as an int; OSC carries float32. Strings and
// bools pass through untouched.
func NormalizeArgs(args []any) []any {
	if len(args) == 0 {
		return nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		switch v := a.(type) {
		case int:
			out[i] = float64(v)
		case int32:
			out[i] = float64(v)
		case int64:
			out[i] = float64(v)
		case float32:
			out[i] = float64(v)
		default:
			out[i] = a
		}
	}
	return out
}

// PadConfig is the persisted mapping for one pad.
type PadConfig struct {
	Pad         PadID       `yaml:",inline"`
	Mode        PadMode     `yaml:"mode"`
	On          OscCommand  `yaml:"on"`
	Off         *OscCommand `yaml:"off,omitempty"` // toggle/push only
	IdleColor   Color       `yaml:"idle_color"`
	ActiveColor Color       `yaml:"active_color"`
	Label       string      `yaml:"label,omitempty"`
	Group       string      `yaml:"group,omitempty"` // selector exclusivity group
}

// OffCommand returns the command to send when the pad turns off,
// deriving address+0.0 when no explicit off command is stored.
func (c PadConfig) OffCommand() OscCommand {
	if c.Off != nil {
		return *c.Off
	}
	return OscCommand{Address: c.On.Address, Args: []any{0.0}}
}

// ControllerConfig is the full persisted state: every configured pad
// keyed by PadID.Key, plus an id used as bank/version metadata.
type ControllerConfig struct {
	ID   string               `yaml:"id,omitempty"`
	Pads map[string]PadConfig `yaml:"pads"`
}

// NewControllerConfig returns an empty configuration.
func NewControllerConfig() ControllerConfig {
	return ControllerConfig{Pads: map[string]PadConfig{}}
}

// Pad looks up the configuration for a pad.
func (c ControllerConfig) Pad(id PadID) (PadConfig, bool) {
	pc, ok := c.Pads[id.Key()]
	return pc, ok
}

// WithPad returns a copy of the config with one pad added or replaced.
func (c ControllerConfig) WithPad(pc PadConfig) ControllerConfig {
	out := c.clone()
	out.Pads[pc.Pad.Key()] = pc
	return out
}

// WithoutPad returns a copy of the config with one pad removed.
func (c ControllerConfig) WithoutPad(id PadID) ControllerConfig {
	out := c.clone()
	delete(out.Pads, id.Key())
	return out
}

func (c ControllerConfig) clone() ControllerConfig {
	pads := make(map[string]PadConfig, len(c.Pads)+1)
	for k, v := range c.Pads {
		pads[k] = v
	}
	return ControllerConfig{ID: c.ID, Pads: pads}
}

// Phase is the top-level learn mode phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseWaitPad
	PhaseRecordOsc
	PhaseConfig
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseWaitPad:
		return "wait_pad"
	case PhaseRecordOsc:
		return "record_osc"
	case PhaseConfig:
		return "config"
	}
	return "unknown"
}

// Register is a configuration sub-section selectable during CONFIG.
type Register int

const (
	RegisterOsc Register = iota
	RegisterMode
	RegisterColor
)

// LearnState is the transient state of the learn flow. It is never
// persisted; cancelling learn mode discards it wholesale.
type LearnState struct {
	Phase       Phase
	SelectedPad *PadID
	// Session increments on every new recording so a stale timeout
	// event cannot finish a later session.
	Session     int
	Recorded    []OscEvent
	Candidates  []OscCommand
	Register    Register
	OscIndex    int
	OscPage     int
	Mode        PadMode
	IdleColor   Color
	ActiveColor Color
}

// PadRuntime holds non-persisted per-pad flags.
type PadRuntime struct {
	Active bool // lit with the active color
	On     bool // toggle state
	Held   bool // push pad currently pressed
}

// AppState is the complete application state. Transitions never mutate
// it in place; they return a new value plus an effect list.
type AppState struct {
	Config        ControllerConfig
	Learn         LearnState
	Runtime       map[string]PadRuntime
	ActiveByGroup map[string]PadID
	BlinkOn       bool
}

// NewAppState returns an idle state around the given config.
func NewAppState(cfg ControllerConfig) AppState {
	return AppState{
		Config:        cfg,
		Learn:         LearnState{Phase: PhaseIdle, Mode: ModeToggle, IdleColor: ColorGreenDim, ActiveColor: ColorGreen},
		Runtime:       map[string]PadRuntime{},
		ActiveByGroup: map[string]PadID{},
	}
}

// RuntimeFor returns the runtime flags for a pad (zero value if unset).
func (s AppState) RuntimeFor(id PadID) PadRuntime {
	return s.Runtime[id.Key()]
}

// WithRuntime returns a copy of the state with one pad's runtime flags
// replaced.
func (s AppState) WithRuntime(id PadID, rt PadRuntime) AppState {
	out := s
	out.Runtime = make(map[string]PadRuntime, len(s.Runtime)+1)
	for k, v := range s.Runtime {
		out.Runtime[k] = v
	}
	out.Runtime[id.Key()] = rt
	return out
}
