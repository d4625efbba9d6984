package model

// Effect is a one-shot side-effect instruction returned by a pure
// transition for the shell to execute.
type Effect interface {
	isEffect()
}

// LedEffect sets a single LED.
type LedEffect struct {
	Pad   PadID
	Color Color
}

// SendOscEffect sends an OSC command.
type SendOscEffect struct {
	Command OscCommand
}

// SaveConfigEffect persists the configuration to disk.
type SaveConfigEffect struct {
	Config ControllerConfig
}

// LogEffect writes a log line. Level is a logrus level name.
type LogEffect struct {
	Level   string
	Message string
}

func (LedEffect) isEffect()        {}
func (SendOscEffect) isEffect()    {}
func (SaveConfigEffect) isEffect() {}
func (LogEffect) isEffect()        {}

// Log is shorthand for an info-level LogEffect.
func Log(msg string) LogEffect {
	return LogEffect{Level: "info", Message: msg}
}
