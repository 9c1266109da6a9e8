package input

import (
	"github.com/pdmcore/pdm-core/canbus"
	"github.com/pdmcore/pdm-core/internal/fuse"

	pdm "github.com/pdmcore/pdm-core"
)

// digoutSurface tracks the remote DIGOUT frame's per-channel last-seen
// level for edge detection, and the timestamp the liveness watchdog is
// scoped to (spec.md §4.E "Remote DIGOUT frame", §4.G).
type digoutSurface struct {
	lastBits    [pdm.NumChannels]bool
	lastFrameMs uint64
}

// digoutByteForChannel maps channel index to the frame byte carrying its
// commanded level (bytes 0, 2, 4, 6 for ch 0..3).
func digoutByteForChannel(ch int) int { return ch * 2 }

func (a *Arbiter) applyDigout(f canbus.Frame, cfg *pdm.Configuration, channels []*pdm.Channel, now uint64) {
	d := &a.digout
	d.lastFrameMs = now

	for ch := 0; ch < pdm.NumChannels; ch++ {
		bit := f.Bit(digoutByteForChannel(ch), 0)
		last := d.lastBits[ch]

		switch {
		case bit && !last:
			// Rising edge.
			if !channels[ch].LockDigout {
				fuse.Activate(channels[ch], now)
				a.setMode(pdm.InputCanDigout)
			}

		case !bit && last:
			// Falling edge.
			fuse.Deactivate(channels[ch])
			channels[ch].LockDigout = false
			channels[ch].FaultOC = false
			a.setMode(pdm.InputCanDigout)
		}

		d.lastBits[ch] = bit
	}

	// Any channel already (or newly) latched with an overcurrent fault
	// gets locked out of auto-reassert: a falling edge must arrive first
	// to rearm it, so a repeated or resumed rising edge can't chatter the
	// load straight back into the fuse (spec.md §4.E).
	for ch := 0; ch < pdm.NumChannels; ch++ {
		if channels[ch].FaultOC {
			channels[ch].LockDigout = true
		}
	}
}
