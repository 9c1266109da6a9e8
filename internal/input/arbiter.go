// Package input implements the Input Arbiter (spec.md §4.E): it fuses
// three asynchronous input surfaces — local debounced buttons, a CAN
// keypad PDO, and a remote CAN DIGOUT frame — into channel/group
// activation intents, and tracks which surface was last active.
//
// Concurrent surfaces are not explicitly arbitrated: the most recent
// event on any surface wins (spec.md §4.E "Priority & last-writer-wins"),
// and within one tick CAN is applied before buttons (spec.md §5).
package input

import (
	"github.com/pdmcore/pdm-core/internal/fuse"

	"github.com/pdmcore/pdm-core/canbus"

	pdm "github.com/pdmcore/pdm-core"
)

const longPressMs = 1000

// Arbiter owns the edge-tracking state for all three input surfaces plus
// the last-active input mode. It is a plain owned value, not a
// goroutine: every method runs to completion within the tick that calls
// it (Design Notes §9 "single Controller value").
type Arbiter struct {
	lastMode pdm.InputMode

	buttons buttonSurface
	keypad  keypadSurface
	digout  digoutSurface

	keypadBootPending bool

	// lastButtonsMs is the timestamp of the most recent ApplyButtons call.
	lastButtonsMs uint64
}

// LastInputMode returns the surface that most recently produced an actual
// input event.
func (a *Arbiter) LastInputMode() pdm.InputMode { return a.lastMode }

func (a *Arbiter) setMode(m pdm.InputMode) { a.lastMode = m }

// KeypadBootPending reports (and clears) a pending keypad re-init
// request raised by a boot-up frame, for the control loop to act on by
// sending the NMT/backlight/heartbeat-enable sequence of spec.md §6.
func (a *Arbiter) KeypadBootPending() bool {
	pending := a.keypadBootPending
	a.keypadBootPending = false
	return pending
}

// ApplyCANFrame dispatches a single received CAN frame to whichever
// surface (keypad or DIGOUT) it belongs to, based on CoB-ID. Frames
// belonging to neither are ignored.
func (a *Arbiter) ApplyCANFrame(f canbus.Frame, cfg *pdm.Configuration, channels []*pdm.Channel, now uint64) {
	keypadPDO := uint32(0x180) + uint32(cfg.Global.KeypadNodeID)
	keypadBoot := uint32(0x700) + uint32(cfg.Global.KeypadNodeID)
	digoutID := uint32(cfg.Global.DigoutCobID)

	switch f.ID {
	case digoutID:
		if len(f.Data) < 8 {
			return
		}
		a.applyDigout(f, cfg, channels, now)
	case keypadPDO:
		if len(f.Data) < 1 {
			return
		}
		a.applyKeypad(f.Data[0], cfg, channels, now)
	case keypadBoot:
		if len(f.Data) < 1 {
			return
		}
		switch f.Data[0] {
		case 0x00:
			a.keypadBootPending = true
		case 0x05:
			a.keypad.heartbeatSeen = true
			a.keypad.lastHeartbeatMs = now
			a.keypad.degraded = false
		}
	}
}

// ApplyButtons feeds the debounced local button mask into the button
// surface. Must be called after ApplyCANFrame within the same tick
// (spec.md §5 ordering).
func (a *Arbiter) ApplyButtons(mask uint8, cfg *pdm.Configuration, channels []*pdm.Channel, now uint64) {
	a.lastButtonsMs = now
	a.buttons.apply(a, mask, cfg, channels, now)
}

// ResetPressTiming restarts the press-start clock for channel ch's local
// button at the time of the latest ApplyButtons call, called by the
// control loop when the fuse engine's steady-state integrator blows on
// ch, to avoid a spurious long-press firing immediately afterward
// (spec.md §4.D).
func (a *Arbiter) ResetPressTiming(ch int) {
	a.buttons.states[ch].pressStartMs = a.lastButtonsMs
	a.buttons.states[ch].longDone = false
}

// --- liveness.InputTimestamps implementation ---

func (a *Arbiter) KeypadHeartbeatSeen() bool      { return a.keypad.heartbeatSeen }
func (a *Arbiter) LastKeypadHeartbeatMs() uint64  { return a.keypad.lastHeartbeatMs }
func (a *Arbiter) LastDigoutFrameMs() uint64      { return a.digout.lastFrameMs }
func (a *Arbiter) SetKeypadDegraded(degraded bool) { a.keypad.degraded = degraded }
func (a *Arbiter) KeypadDegraded() bool           { return a.keypad.degraded }

// ResetDigoutEdges clears the DIGOUT surface's per-channel last-seen bits
// so that the next received bit=1 is treated as a rising edge, called by
// the liveness supervisor when the DIGOUT watchdog fires (spec.md §4.G).
func (a *Arbiter) ResetDigoutEdges() {
	a.digout.lastBits = [pdm.NumChannels]bool{}
}

// --- group helpers shared by the button and keypad surfaces ---

func groupHasFault(cfg *pdm.Configuration, channels []*pdm.Channel, ch int) bool {
	for _, m := range pdm.GroupMembers(cfg, ch) {
		if channels[m].FaultOC || channels[m].FaultThermal {
			return true
		}
	}
	return false
}

func groupHasActive(cfg *pdm.Configuration, channels []*pdm.Channel, ch int) bool {
	for _, m := range pdm.GroupMembers(cfg, ch) {
		if channels[m].Active {
			return true
		}
	}
	return false
}

func activateGroup(cfg *pdm.Configuration, channels []*pdm.Channel, ch int, now uint64) {
	for _, m := range pdm.GroupMembers(cfg, ch) {
		fuse.Activate(channels[m], now)
	}
}

func deactivateGroup(cfg *pdm.Configuration, channels []*pdm.Channel, ch int) {
	for _, m := range pdm.GroupMembers(cfg, ch) {
		fuse.Deactivate(channels[m])
	}
}

// clearGroupFaults clears latched faults for every group member and
// forces them off, per spec.md §4.E's group fault-clear semantics.
func clearGroupFaults(cfg *pdm.Configuration, channels []*pdm.Channel, ch int) {
	for _, m := range pdm.GroupMembers(cfg, ch) {
		fuse.ClearFaults(channels[m])
		fuse.Deactivate(channels[m])
	}
}
