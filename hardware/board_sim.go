package hardware

import (
	"math/rand"
	"sync"
	"time"

	pdm "github.com/pdmcore/pdm-core"
)

// SimulatedBoard is a bench/test stand-in for the real ADC/GPIO adapter,
// grounded on onboard/simulator.go's SimulatedSensor random-walk. Currents
// and temperature can be driven directly by a test (SetCurrent,
// SetTemperature); switch writes and the button mask are recorded so a
// test can assert on control-loop output.
type SimulatedBoard struct {
	mu sync.Mutex

	currents    [pdm.NumChannels]float64
	temperature float64
	batteryMV   uint16
	switches    [pdm.NumChannels]bool
	buttonMask  uint8

	start time.Time
	noise bool
}

func NewSimulatedBoard() *SimulatedBoard {
	return &SimulatedBoard{
		temperature: 25,
		batteryMV:   13200,
		start:       time.Now(),
	}
}

// EnableNoise turns on the small random walk used to exercise slew
// limiting and hysteresis in longer-running tests/demos.
func (b *SimulatedBoard) EnableNoise(on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.noise = on
}

func (b *SimulatedBoard) SetCurrent(ch int, amps float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currents[ch] = amps
}

func (b *SimulatedBoard) SetTemperature(c float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.temperature = c
}

func (b *SimulatedBoard) SetBatteryMilliVolts(mv uint16) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.batteryMV = mv
}

func (b *SimulatedBoard) SetButtonMask(mask uint8) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buttonMask = mask
}

func (b *SimulatedBoard) ReadCurrent(ch int) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	v := b.currents[ch]
	if b.noise {
		v += (rand.Float64() - 0.5) * 0.05
	}
	return v
}

func (b *SimulatedBoard) ReadTemperature() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.temperature
}

func (b *SimulatedBoard) ReadBatteryMilliVolts() uint16 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.batteryMV
}

func (b *SimulatedBoard) WriteSwitch(ch int, on bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.switches[ch] = on
}

func (b *SimulatedBoard) SwitchState(ch int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.switches[ch]
}

func (b *SimulatedBoard) ReadButtonMask() uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buttonMask
}

func (b *SimulatedBoard) NowMs() uint64 {
	return uint64(time.Since(b.start).Milliseconds())
}
