package input

import pdm "github.com/pdmcore/pdm-core"

// buttonSurface tracks the local, debounced digital button path
// (spec.md §4.E "Digital buttons"): press-start time and whether a long
// press has already fired, per channel.
type buttonSurface struct {
	states [pdm.NumChannels]buttonEdgeState
}

type buttonEdgeState struct {
	pressed      bool
	pressStartMs uint64
	longDone     bool
}

func (b *buttonSurface) apply(a *Arbiter, mask uint8, cfg *pdm.Configuration, channels []*pdm.Channel, now uint64) {
	for ch := 0; ch < pdm.NumChannels; ch++ {
		pressed := mask&(1<<uint(ch)) != 0
		st := &b.states[ch]
		mode := cfg.Channels[ch].Mode

		switch {
		case pressed && !st.pressed:
			// Press edge.
			st.pressStartMs = now
			st.longDone = false
			a.setMode(pdm.InputDigital)
			if mode == pdm.Momentary {
				activateGroup(cfg, channels, ch, now)
			}

		case pressed && st.pressed && !st.longDone && now-st.pressStartMs >= longPressMs:
			// Held >= 1000ms: long press.
			if mode == pdm.Latch || (mode == pdm.Momentary && groupHasFault(cfg, channels, ch)) {
				clearGroupFaults(cfg, channels, ch)
				a.setMode(pdm.InputDigital)
			}
			st.longDone = true

		case !pressed && st.pressed:
			// Release edge.
			a.setMode(pdm.InputDigital)
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
