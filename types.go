// Package pdm holds the domain types shared by every control-loop
// component: channels, groups, the persisted configuration shape and the
// small tagged-variant enums the spec calls for (Mode, InputMode,
// LEDState).
package pdm

const NumChannels = 4

// Mode is the per-channel activation behaviour.
type Mode int

const (
	Momentary Mode = iota
	Latch
)

func (m Mode) String() string {
	if m == Latch {
		return "LATCH"
	}
	return "MOMENTARY"
}

// InputMode is the last-active input surface, mutated only by the Input
// Arbiter and only on an actual input event (spec.md §3 invariant 6).
type InputMode int

const (
	InputNone InputMode = iota
	InputDigital
	InputCanKeypad
	InputCanDigout
)

func (m InputMode) String() string {
	switch m {
	case InputDigital:
		return "DIGITAL"
	case InputCanKeypad:
		return "CAN_KEYPAD"
	case InputCanDigout:
		return "CAN_DIGOUT"
	default:
		return "NONE"
	}
}

// LEDState is the six-state indicator computed by the indicator emitter.
type LEDState int

const (
	LEDOff LEDState = iota
	LEDGreen
	LEDAmber
	LEDRed
	LEDRedFlash
	LEDBlue
)

// Channel is the mutable, boot-reset state of one of the four PDM outputs.
type Channel struct {
	Active          bool
	OnSinceMs       uint64
	InrushScore     float64
	OCScore         float64
	FaultOC         bool
	FaultThermal    bool
	WarnUC          bool
	ClearedJustNow  bool
	LockDigout      bool
	LastCurrentA    float64
	Config          ChannelConfig
}

// ChannelConfig is the persisted, per-channel tunable configuration.
type ChannelConfig struct {
	OCThresholdA     float64
	InrushThresholdA float64
	InrushTimeMs     uint32
	UnderWarnA       float64
	Mode             Mode
	Group            uint8
}

// GlobalConfig is the persisted, board-wide tunable configuration.
type GlobalConfig struct {
	TempWarnC    float64
	TempTripC    float64
	CanKbps      uint16
	PdmNodeID    uint8
	KeypadNodeID uint8
	DigoutCobID  uint16
}

// Configuration is the full persisted parameter set of spec.md §3.
type Configuration struct {
	Channels [NumChannels]ChannelConfig
	Global   GlobalConfig
}

// DefaultConfiguration returns sane defaults used whenever no valid
// persisted configuration is available (boot with no store, or a failed
// integrity check — spec.md §3 "Lifecycles").
func DefaultConfiguration() Configuration {
	var cfg Configuration
	for i := range cfg.Channels {
		cfg.Channels[i] = ChannelConfig{
			OCThresholdA:     10.0,
			InrushThresholdA: 20.0,
			InrushTimeMs:     500,
			UnderWarnA:       0.2,
			Mode:             Latch,
			Group:            uint8(i + 1),
		}
	}
	cfg.Global = GlobalConfig{
		TempWarnC:    70,
		TempTripC:    85,
		CanKbps:      500,
		PdmNodeID:    0x10,
		KeypadNodeID: 0x20,
		DigoutCobID:  0x680,
	}
	return cfg
}

// GroupMembers returns the indices of every channel sharing ch's group,
// including ch itself.
func GroupMembers(cfg *Configuration, ch int) []int {
	g := cfg.Channels[ch].Group
	members := make([]int, 0, NumChannels)
	for i, c := range cfg.Channels {
		if c.Group == g {
			members = append(members, i)
		}
	}
	return members
}

// TemperatureState is the filtered board temperature, persisted across
// ticks but never to non-volatile storage.
type TemperatureState struct {
	FilteredC   float64
	LastUpdated uint64
	BadCount    uint8
	Initialized bool
	SensorError bool
}

// DiagnosticsSnapshot is a read-only per-tick projection of controller
// state served by the diagnostics API. It must never be mutated by a
// consumer.
type DiagnosticsSnapshot struct {
	TickMs         uint64               `json:"tick_ms"`
	Channels       [NumChannels]Channel `json:"channels"`
	Temperature    TemperatureState     `json:"temperature"`
	LastInputMode  InputMode            `json:"last_input_mode"`
	KeypadDegraded bool                 `json:"keypad_degraded"`
	DigoutWatchdog bool                 `json:"digout_watchdog"`
	BatteryMilliV  uint16               `json:"battery_milli_v"`
}
