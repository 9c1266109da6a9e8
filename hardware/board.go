// Package hardware is the ADC/GPIO adapter boundary: per-channel current
// reads, board temperature and battery voltage, switch writes, and the
// debounced digital button mask. The real ADC/GPIO drivers are out of
// scope per spec.md §1 — Board is the narrow contract the control loop
// consumes, grounded on onboard/hardware/node.go's ControlNode acting as
// the sole owner of its pins.
package hardware

// Board is owned exclusively by the adapter that implements it; every
// hardware access from the control loop is routed through it (spec.md
// §5 "Shared resources").
type Board interface {
	// ReadCurrent returns the measured current in amps for channel ch
	// (0..3). Negative readings are the adapter's noise floor; the fuse
	// engine clamps them to zero before integrating.
	ReadCurrent(ch int) float64
	// ReadTemperature returns the raw board temperature in degrees C,
	// before the Temperature Supervisor's range gate and slew limiting.
	ReadTemperature() float64
	// ReadBatteryMilliVolts returns the sensed battery rail voltage.
	ReadBatteryMilliVolts() uint16
	// WriteSwitch drives channel ch's high-side switch pin.
	WriteSwitch(ch int, on bool)
	// ReadButtonMask returns the debounced (>=50ms) 4-bit local button
	// state, bit ch = button ch pressed.
	ReadButtonMask() uint8
	// NowMs returns a free-running monotonic millisecond counter, widened
	// to 64 bits per spec.md §5 "Time source".
	NowMs() uint64
}
