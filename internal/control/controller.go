// Package control implements the Control Loop (spec.md §4.I): the single
// cooperative Tick that orders input arbitration, temperature and
// liveness supervision, fuse enforcement, and LED/telemetry emission.
//
// Controller is the single mutable value owned by the event loop that
// Design Notes §9 calls for, replacing the source's process-wide static
// state: every other component is either a pure function over its state,
// or a per-tick-borrowed adapter (Board, canbus.Bus).
package control

import (
	"sync"
	"sync/atomic"
	"time"

	pdm "github.com/pdmcore/pdm-core"
	"github.com/pdmcore/pdm-core/canbus"
	"github.com/pdmcore/pdm-core/hardware"
	"github.com/pdmcore/pdm-core/internal/fuse"
	"github.com/pdmcore/pdm-core/internal/indicator"
	"github.com/pdmcore/pdm-core/internal/input"
	"github.com/pdmcore/pdm-core/internal/liveness"
	"github.com/pdmcore/pdm-core/internal/logger"
	"github.com/pdmcore/pdm-core/internal/thermal"
)

const (
	ledRefreshIntervalMs  = 1000
	telemetryIntervalMs   = 250
)

// Controller owns every piece of per-tick state and the adapters it
// borrows from for the duration of a Tick call.
type Controller struct {
	cfgMu  sync.Mutex
	config pdm.Configuration

	Channels [pdm.NumChannels]pdm.Channel

	Temperature pdm.TemperatureState
	Arbiter     input.Arbiter

	Board hardware.Board
	Bus   canbus.Bus
	Log   *logger.Logger

	lastTickMs      uint64
	lastTelemetryMs uint64
	lastLedMs       uint64
	lastLedStates   [pdm.NumChannels]pdm.LEDState

	DigoutWatchdogTriggered bool

	// keypadInitPending is set at construction so the first Tick sends
	// the NMT-start/backlight/heartbeat-enable sequence unconditionally,
	// matching CANHandler::begin() sending it at boot as well as on
	// keypad boot-up (spec.md §6).
	keypadInitPending bool

	// latest is the tick loop's published snapshot, read by the CLI's
	// STATUS command and the diagnostics API from a different
	// goroutine without reaching into tick-owned state directly
	// (SPEC_FULL.md §5).
	latest atomic.Pointer[pdm.DiagnosticsSnapshot]
}

// New builds a Controller from cfg, wiring each channel's config copy.
func New(cfg pdm.Configuration, board hardware.Board, bus canbus.Bus, log *logger.Logger) *Controller {
	c := &Controller{config: cfg, Board: board, Bus: bus, Log: log, keypadInitPending: true}
	c.syncChannelConfigs(cfg)
	return c
}

func (c *Controller) syncChannelConfigs(cfg pdm.Configuration) {
	for i := range c.Channels {
		c.Channels[i].Config = cfg.Channels[i]
	}
}

// ApplyConfig installs a new configuration, propagating per-channel
// settings into live channel state. Called from the CLI on parameter
// changes and on LOAD, which may run on a goroutine distinct from the
// tick loop (SPEC_FULL.md §5): config.Global/Channels is the only
// controller state reachable from outside the tick, so it alone is
// guarded by cfgMu.
func (c *Controller) ApplyConfig(cfg pdm.Configuration) {
	c.cfgMu.Lock()
	c.config = cfg
	c.cfgMu.Unlock()
	c.syncChannelConfigs(cfg)
}

// ConfigSnapshot returns a value copy of the live configuration, safe to
// call from the CLI or diagnostics goroutine while Tick runs concurrently.
func (c *Controller) ConfigSnapshot() pdm.Configuration {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	return c.config
}

func (c *Controller) channelPointers() []*pdm.Channel {
	ptrs := make([]*pdm.Channel, pdm.NumChannels)
	for i := range c.Channels {
		ptrs[i] = &c.Channels[i]
	}
	return ptrs
}

// Tick executes one pass of the seven-step order in spec.md §4.I. It
// never blocks beyond the bounded, non-blocking adapter reads.
func (c *Controller) Tick(nowMs uint64) {
	if c.lastTickMs == 0 {
		c.lastTickMs = nowMs
	}
	dtSeconds := float64(nowMs-c.lastTickMs) / 1000.0
	c.lastTickMs = nowMs

	cfg := c.ConfigSnapshot()
	channels := c.channelPointers()

	// 1. Poll CAN adapter.
	if c.Bus != nil {
		for {
			f, ok := c.Bus.Recv()
			if !ok {
				break
			}
			c.Arbiter.ApplyCANFrame(f, &cfg, channels, nowMs)
		}
		if c.keypadInitPending || c.Arbiter.KeypadBootPending() {
			c.sendKeypadInitSequence(cfg)
			c.keypadInitPending = false
		}
	}

	// 2. Poll debounced button mask.
	if c.Board != nil {
		c.Arbiter.ApplyButtons(c.Board.ReadButtonMask(), &cfg, channels, nowMs)
	}

	// 3. Temperature Supervisor.
	if c.Board != nil {
		raw := c.Board.ReadTemperature()
		decision := thermal.Step(&c.Temperature, raw, dtSeconds, cfg.Global.TempWarnC, cfg.Global.TempTripC)
		for i := range c.Channels {
			c.Channels[i].FaultThermal = decision.ThermalTrip
			if decision.ThermalTrip {
				c.Channels[i].Active = false
			}
		}
		if decision.Warn && c.Log != nil {
			c.Log.Warnf("board temperature %.1fC at or above warn threshold", c.Temperature.FilteredC)
		}
	}

	// 4. Liveness Supervisor.
	status := liveness.Step(&c.Arbiter, channels, nowMs)
	c.DigoutWatchdogTriggered = status.DigoutWatchdogTriggered

	// 5. Per-channel fuse step (including any group shutdown it
	// triggers), then switch write. The write pass runs only after
	// every channel's fuse step has settled so a higher-indexed
	// channel's group shutdown reaches the pins of already-processed,
	// lower-indexed members within the same tick (spec.md §3
	// invariant 1).
	for ch := 0; ch < pdm.NumChannels; ch++ {
		var amps float64
		if c.Board != nil {
			amps = c.Board.ReadCurrent(ch)
		}
		res := fuse.Step(&c.Channels[ch], amps, dtSeconds, nowMs)
		if res.Blown {
			members := pdm.GroupMembers(&cfg, ch)
			fuse.GroupShutdown(channels, members)
			if res.SteadyState {
				c.Arbiter.ResetPressTiming(ch)
			}
		}
	}
	if c.Board != nil {
		for ch := 0; ch < pdm.NumChannels; ch++ {
			c.Board.WriteSwitch(ch, c.Channels[ch].Active)
		}
	}

	// 6. Indicator emitter.
	c.emitIndicators(nowMs, cfg)

	// 7. Telemetry emitter.
	c.emitTelemetry(nowMs, cfg)

	c.publishSnapshot(nowMs)
}

// publishSnapshot copies the freshly-updated tick state into the
// atomically-swapped pointer any other goroutine reads via Snapshot.
func (c *Controller) publishSnapshot(nowMs uint64) {
	var batteryMV uint16
	if c.Board != nil {
		batteryMV = c.Board.ReadBatteryMilliVolts()
	}
	snap := pdm.DiagnosticsSnapshot{
		TickMs:         nowMs,
		Channels:       c.Channels,
		Temperature:    c.Temperature,
		LastInputMode:  c.Arbiter.LastInputMode(),
		KeypadDegraded: c.Arbiter.KeypadDegraded(),
		DigoutWatchdog: c.DigoutWatchdogTriggered,
		BatteryMilliV:  batteryMV,
	}
	c.latest.Store(&snap)
}

func (c *Controller) sendKeypadInitSequence(cfg pdm.Configuration) {
	id := uint32(cfg.Global.KeypadNodeID)
	c.Bus.Send(canbus.Frame{ID: 0x000, Data: []byte{0x01, byte(id)}})
	c.Bus.Send(canbus.Frame{ID: 0x500 + id, Data: []byte{0x0C, 0x07, 0, 0, 0, 0, 0, 0}})
	c.Bus.Send(canbus.Frame{ID: 0x600 + id, Data: []byte{0x2B, 0x17, 0x10, 0x00, 0xF4, 0x01, 0x00, 0x00}})
}

func (c *Controller) emitIndicators(nowMs uint64, cfg pdm.Configuration) {
	if c.Bus == nil {
		return
	}

	var states [pdm.NumChannels]pdm.LEDState
	changed := false
	for i := range c.Channels {
		states[i] = indicator.LEDStateFor(&c.Channels[i])
		if states[i] != c.lastLedStates[i] {
			changed = true
		}
	}

	if !changed && nowMs-c.lastLedMs < ledRefreshIntervalMs {
		return
	}

	steady, flashing := indicator.LEDFrames(states, cfg.Global.KeypadNodeID)
	c.Bus.Send(steady)
	c.Bus.Send(flashing)
	c.lastLedStates = states
	c.lastLedMs = nowMs
}

func (c *Controller) emitTelemetry(nowMs uint64, cfg pdm.Configuration) {
	if c.Bus == nil {
		return
	}
	if nowMs-c.lastTelemetryMs < telemetryIntervalMs {
		return
	}

	var batteryMV uint16
	if c.Board != nil {
		batteryMV = c.Board.ReadBatteryMilliVolts()
	}
	f := indicator.TelemetryFrame(c.Channels, c.Temperature.FilteredC, batteryMV, cfg.Global.PdmNodeID)
	c.Bus.Send(f)
	c.lastTelemetryMs = nowMs
}

// Snapshot returns the tick loop's last published projection of state
// for the CLI and the diagnostics API (SPEC_FULL.md §4.L). Safe to call
// concurrently with Tick: it never reaches into tick-owned fields
// directly, only the atomically-swapped pointer Tick publishes.
func (c *Controller) Snapshot() pdm.DiagnosticsSnapshot {
	if snap := c.latest.Load(); snap != nil {
		return *snap
	}
	return pdm.DiagnosticsSnapshot{}
}

// Run drives Tick at the given period until ctx-like stop channel closes
// or the ticker is stopped; grounded on main.go's single top-level
// goroutine driving the device rather than a request/response server
// loop. period should fall within spec.md §4.I's 50-200Hz target (5-20ms).
// The tick timestamp comes from Board.NowMs, the adapter-owned time
// source (spec.md §5), falling back to a local clock only when Run is
// driving a Controller with no Board (bench use of the loop in
// isolation).
func (c *Controller) Run(period time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	start := time.Now()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			nowMs := uint64(time.Since(start).Milliseconds())
			if c.Board != nil {
				nowMs = c.Board.NowMs()
			}
			c.Tick(nowMs)
		}
	}
}
