// Package classify assigns recording priorities to OSC addresses.
//
// All address pattern matching lives here so no other component
// re-implements it. Priorities decide when a learn-mode recording
// session can stop early: a single deliberate user action (scene,
// preset or control change) fully identifies the target command.
package classify

import (
	"strings"
	"time"

	"github.com/vjkit/gridlearn/internal/model"
)

// Priority levels. Lower number = more decisive.
const (
	PriorityScene   = 1
	PriorityPreset  = 2
	PriorityControl = 3
	PriorityUnknown = 50
	PriorityNoise   = 99 // never recorded
)

// Category is the classification result for one address.
type Category struct {
	Priority int
	// Mode is the suggested pad mode for this address family.
	Mode model.PadMode
	// Group names the SELECTOR exclusivity group, empty otherwise.
	Group string
}

// Classify maps an OSC address to its category.
func Classify(address string) Category {
	switch {
	case strings.HasPrefix(address, "/scenes/"):
		return Category{Priority: PriorityScene, Mode: model.ModeSelector, Group: "scenes"}
	case strings.HasPrefix(address, "/presets/"):
		return Category{Priority: PriorityPreset, Mode: model.ModeSelector, Group: "presets"}
	case strings.HasPrefix(address, "/favslots/"):
		return Category{Priority: PriorityPreset, Mode: model.ModeSelector, Group: "favslots"}
	case strings.HasPrefix(address, "/playlist/"):
		return Category{Priority: PriorityControl, Mode: model.ModeOneShot}
	case strings.HasPrefix(address, "/controls/global/"):
		return Category{Priority: PriorityControl, Mode: model.ModeToggle}
	case strings.HasPrefix(address, "/controls/meta/"):
		if strings.Contains(address, "hue") {
			return Category{Priority: PriorityControl, Mode: model.ModeSelector, Group: "colors"}
		}
		return Category{Priority: PriorityControl, Mode: model.ModeToggle}
	case strings.HasPrefix(address, "/audio/"):
		// High-frequency telemetry, never a mapping candidate.
		return Category{Priority: PriorityNoise, Mode: model.ModeOneShot}
	}
	return Category{Priority: PriorityUnknown, Mode: model.ModeToggle}
}

// IsControllable reports whether an address can be mapped to a pad.
func IsControllable(address string) bool {
	return Classify(address).Priority < PriorityNoise
}

// ShouldStopRecording reports whether receiving this event ends an
// active recording session immediately.
func ShouldStopRecording(ev model.OscEvent) bool {
	return ev.Priority <= PriorityControl
}

// Enrich builds an OscEvent carrying the classifier priority.
func Enrich(address string, args []any, ts time.Time) model.OscEvent {
	return model.OscEvent{
		Timestamp: ts,
		Address:   address,
		Args:      model.NormalizeArgs(args),
		Priority:  Classify(address).Priority,
	}
}
