// Package liveness implements the Liveness Supervisor (spec.md §4.G):
// two independent watchdogs, scoped to the last-active input surface,
// that force all channels off when their timeout expires.
package liveness

import pdm "github.com/pdmcore/pdm-core"

const (
	keypadHeartbeatTimeoutMs = 1500
	digoutTimeoutMs          = 2000
)

// InputTimestamps is the narrow view the supervisor needs of the input
// arbiter: the timestamps input events maintain, and the two mutations a
// watchdog firing is allowed to make back into arbiter state.
type InputTimestamps interface {
	LastInputMode() pdm.InputMode
	KeypadHeartbeatSeen() bool
	LastKeypadHeartbeatMs() uint64
	LastDigoutFrameMs() uint64
	SetKeypadDegraded(bool)
	ResetDigoutEdges()
}

// Status reports which watchdog(s), if any, fired this tick.
type Status struct {
	KeypadDegraded          bool
	DigoutWatchdogTriggered bool
}

// Step evaluates both watchdogs against now and forces every channel off
// for whichever one is armed and expired. Firing is idempotent: calling
// Step again in the same tick with unchanged timestamps repeats the same
// (already-applied) verdict harmlessly.
func Step(ts InputTimestamps, channels []*pdm.Channel, now uint64) Status {
	var status Status

	if ts.LastInputMode() == pdm.InputCanKeypad && ts.KeypadHeartbeatSeen() {
		if now-ts.LastKeypadHeartbeatMs() >= keypadHeartbeatTimeoutMs {
			forceAllOff(channels)
			ts.SetKeypadDegraded(true)
			status.KeypadDegraded = true
		}
	}

	if ts.LastInputMode() == pdm.InputCanDigout {
		if now-ts.LastDigoutFrameMs() >= digoutTimeoutMs {
			forceAllOff(channels)
			ts.ResetDigoutEdges()
			status.DigoutWatchdogTriggered = true
		}
	}

	return status
}

func forceAllOff(channels []*pdm.Channel) {
	for _, ch := range channels {
		ch.Active = false
	}
}
