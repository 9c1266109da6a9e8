package input

import pdm "github.com/pdmcore/pdm-core"

// keypadSurface tracks the CAN keypad TPDO (spec.md §4.E "CAN keypad")
// plus the liveness bookkeeping the heartbeat frame updates.
type keypadSurface struct {
	states [pdm.NumChannels]buttonEdgeState

	heartbeatSeen   bool
	lastHeartbeatMs uint64
	degraded        bool
}

// applyKeypad mirrors the local button edge logic with one deliberate
// divergence: long-press fault clear is unconditional regardless of mode
// (spec.md §4.E "matches existing behavior" — see DESIGN.md Open
// Question decision #1).
func (a *Arbiter) applyKeypad(mask byte, cfg *pdm.Configuration, channels []*pdm.Channel, now uint64) {
	k := &a.keypad
	for ch := 0; ch < pdm.NumChannels; ch++ {
		pressed := mask&(1<<uint(ch)) != 0
		st := &k.states[ch]
		mode := cfg.Channels[ch].Mode

		switch {
		case pressed && !st.pressed:
			st.pressStartMs = now
			st.longDone = false
			a.setMode(pdm.InputCanKeypad)
			if mode == pdm.Momentary {
				activateGroup(cfg, channels, ch, now)
			}

		case pressed && st.pressed && !st.longDone && now-st.pressStartMs >= longPressMs:
			clearGroupFaults(cfg, channels, ch)
			a.setMode(pdm.InputCanKeypad)
			st.longDone = true

		case !pressed && st.pressed:
			a.setMode(pdm.InputCanKeypad)
			if !st.longDone {
				if mode == pdm.Latch {
					if groupHasActive(cfg, channels, ch) {
						deactivateGroup(cfg, channels, ch)
					} else if !groupHasFault(cfg, channels, ch) {
						activateGroup(cfg, channels, ch, now)
					}
				} else {
					deactivateGroup(cfg, channels, ch)
				}
			}
		}

		st.pressed = pressed
	}
}
