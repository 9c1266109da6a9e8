// Package fuse implements the Channel Fuse Engine (spec.md §4.D): two
// independent I²t-style integrators per channel — inrush and steady-state
// — with reset-on-return-below-threshold, group shutdown, and the
// undercurrent advisory warning.
package fuse

import pdm "github.com/pdmcore/pdm-core"

// Result reports what Step did to a single channel this tick, so the
// input arbiter can react to a steady-state trip (spec.md §4.D "for the
// steady-state path also request button-timing reset").
type Result struct {
	Blown       bool
	SteadyState bool
}

// Step advances channel ch's active integrator by dtSeconds given
// measured current amps, at absolute time nowMs. It does not perform
// group shutdown — call GroupShutdown after Step for every member of a
// group in which any channel blew.
func Step(ch *pdm.Channel, amps float64, dtSeconds float64, nowMs uint64) Result {
	if amps < 0 {
		amps = 0
	}
	// LastCurrentA is sampled every tick regardless of Active so
	// telemetry (indicator.TelemetryFrame) always reports the live ADC
	// reading rather than freezing at the value from the last tick the
	// channel was on.
	ch.LastCurrentA = amps

	if !ch.Active {
		ch.WarnUC = false
		return Result{}
	}

	ch.WarnUC = amps < ch.Config.UnderWarnA

	windowMs := uint64(ch.Config.InrushTimeMs)
	inWindow := windowMs > 0 && nowMs-ch.OnSinceMs < windowMs

	var threshold float64
	var score *float64
	steadyState := !inWindow
	if inWindow {
		threshold = ch.Config.InrushThresholdA
		score = &ch.InrushScore
	} else {
		threshold = ch.Config.OCThresholdA
		score = &ch.OCScore
	}

	if threshold <= 0 {
		// A zero threshold means "always over" by definition (spec.md
		// §4.D): refuse to run the channel rather than divide by zero.
		ch.Active = false
		ch.FaultOC = true
		ch.InrushScore = 0
		ch.OCScore = 0
		return Result{Blown: true, SteadyState: steadyState}
	}

	if amps > threshold {
		excess := amps/threshold - 1
		*score += dtSeconds * excess * excess
	} else {
		*score = 0
	}
	if *score < 0 {
		*score = 0
	}

	if *score >= 1.0 {
		ch.Active = false
		ch.FaultOC = true
		*score = 0
		return Result{Blown: true, SteadyState: steadyState}
	}

	return Result{SteadyState: steadyState}
}

// GroupShutdown forces every channel in members to active=false,
// fault_oc=true, atomically within the caller's tick (spec.md §3
// invariant 5, §4.D "group shutdown").
func GroupShutdown(channels []*pdm.Channel, members []int) {
	for _, i := range members {
		channels[i].Active = false
		channels[i].FaultOC = true
		channels[i].InrushScore = 0
		channels[i].OCScore = 0
	}
}

// Activate transitions a channel to ON, recording on_since for the
// inrush-window calculation and clearing cleared_just_now per spec.md §3
// invariant 3.
func Activate(ch *pdm.Channel, nowMs uint64) {
	if ch.Active {
		return
	}
	ch.Active = true
	ch.OnSinceMs = nowMs
	ch.InrushScore = 0
	ch.OCScore = 0
	ch.ClearedJustNow = false
}

// Deactivate transitions a channel to OFF without touching fault state.
func Deactivate(ch *pdm.Channel) {
	ch.Active = false
}

// ClearFaults clears both latched fault flags and marks the channel as
// just-cleared; it does not change Active. Callers (the input arbiter)
// are responsible for forcing Active=false alongside this per the
// group-clear semantics of spec.md §4.E.
func ClearFaults(ch *pdm.Channel) {
	ch.FaultOC = false
	ch.FaultThermal = false
	ch.ClearedJustNow = true
}
