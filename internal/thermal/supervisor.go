// Package thermal implements the Temperature Supervisor (spec.md §4.F):
// a range-gated, slew-limited filter over the board temperature sensor,
// with bad-reading hysteresis and warn/trip decisions.
//
// The physical sensor is modeled as a TMP235-style linear analog device
// (DESIGN.md Open Question decision #3) rather than the source's
// LM335-with-pull-up variant, since the trip/warn control path only
// depends on a filtered Celsius value, not the sensor's raw transfer
// function.
package thermal

import pdm "github.com/pdmcore/pdm-core"

const (
	minValidC   = -40.0
	maxValidC   = 150.0
	slewCPerSec = 10.0
	badReadingsToFault = 3
)

// Decision is the supervisor's per-tick verdict.
type Decision struct {
	ThermalTrip bool // sensor_error or filtered >= trip: shut down all channels
	Warn        bool // temp_warn_c <= filtered < temp_trip_c
}

// Step updates the filter with a new raw reading and returns the
// resulting trip/warn decision. dtSeconds is the time since the previous
// call (spec.md requires updates spaced >=100ms; smaller spacing simply
// tightens the slew clamp proportionally and is harmless).
func Step(st *pdm.TemperatureState, rawC float64, dtSeconds float64, warnC, tripC float64) Decision {
	if rawC < minValidC || rawC > maxValidC {
		st.BadCount++
		if st.BadCount >= badReadingsToFault {
			st.SensorError = true
		}
		return decide(st, warnC, tripC)
	}
	st.BadCount = 0
	st.SensorError = false

	if !st.Initialized {
		st.FilteredC = rawC
		st.Initialized = true
	} else {
		maxStep := slewCPerSec * dtSeconds
		delta := rawC - st.FilteredC
		if delta > maxStep {
			delta = maxStep
		} else if delta < -maxStep {
			delta = -maxStep
		}
		st.FilteredC += delta
	}

	return decide(st, warnC, tripC)
}

func decide(st *pdm.TemperatureState, warnC, tripC float64) Decision {
	if st.SensorError || st.FilteredC >= tripC {
		return Decision{ThermalTrip: true}
	}
	if st.FilteredC >= warnC {
		return Decision{Warn: true}
	}
	return Decision{}
}
