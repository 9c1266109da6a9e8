package control

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	pdm "github.com/pdmcore/pdm-core"
	"github.com/pdmcore/pdm-core/canbus"
	"github.com/pdmcore/pdm-core/hardware"
)

func newTestController() (*Controller, *hardware.SimulatedBoard, *canbus.SimulatedBus) {
	cfg := pdm.DefaultConfiguration()
	for i := range cfg.Channels {
		cfg.Channels[i].OCThresholdA = 3.0
		cfg.Channels[i].InrushThresholdA = 5.0
		cfg.Channels[i].InrushTimeMs = 1000
		cfg.Channels[i].Mode = pdm.Latch
		cfg.Channels[i].Group = uint8(i + 1)
	}
	board := hardware.NewSimulatedBoard()
	bus := canbus.NewSimulatedBus()
	c := New(cfg, board, bus, nil)
	return c, board, bus
}

func TestInvariantActiveImpliesSwitchHigh(t *testing.T) {
	Convey("a latch channel commanded on via a button press and release", t, func() {
		c, board, _ := newTestController()
		board.SetButtonMask(0b0001)
		c.Tick(0)
		board.SetButtonMask(0)
		c.Tick(50)

		Convey("the switch output is high after the tick", func() {
			So(c.Channels[0].Active, ShouldBeTrue)
			So(board.SwitchState(0), ShouldBeTrue)
		})
	})
}

func TestInvariantFaultImpliesNotActive(t *testing.T) {
	Convey("a channel driven into an overcurrent trip", t, func() {
		c, board, _ := newTestController()
		board.SetButtonMask(0b0001)
		c.Tick(0)
		board.SetButtonMask(0)

		board.SetCurrent(0, 6.0)
		now := uint64(0)
		for now < 3000 && !c.Channels[0].FaultOC {
			now += 50
			c.Tick(now)
		}

		Convey("fault_oc implies not active at tick end", func() {
			So(c.Channels[0].FaultOC, ShouldBeTrue)
			So(c.Channels[0].Active, ShouldBeFalse)
			So(board.SwitchState(0), ShouldBeFalse)
		})
	})
}

func TestTelemetrySpacedAtLeast250ms(t *testing.T) {
	Convey("ticks every 10ms", t, func() {
		c, _, bus := newTestController()
		for ms := uint64(0); ms <= 1000; ms += 10 {
			c.Tick(ms)
		}

		Convey("telemetry frames are spaced >= 250ms apart", func() {
			count := 0
			for _, f := range bus.Sent() {
				if f.ID == 0x380+uint32(c.ConfigSnapshot().Global.PdmNodeID) {
					count++
				}
			}
			// 1000ms of ticks at a 250ms cadence should yield ~4-5 frames.
			So(count, ShouldBeBetween, 3, 6)
		})
	})
}

func TestLastInputModeOnlyChangesOnRealEvents(t *testing.T) {
	Convey("a controller driven only by timer ticks", t, func() {
		c, _, _ := newTestController()
		for ms := uint64(0); ms <= 500; ms += 10 {
			c.Tick(ms)
		}

		Convey("last_input_mode stays None", func() {
			So(c.Arbiter.LastInputMode(), ShouldEqual, pdm.InputNone)
		})
	})
}

func TestGroupShutdownWritesLowerIndexedMemberPinWithinSameTick(t *testing.T) {
	Convey("two channels sharing a group, both already on", t, func() {
		c, board, _ := newTestController()
		c.config.Channels[0].Group = 9
		c.config.Channels[3].Group = 9
		// One latch press+release of ch0's button toggles the whole group on.
		board.SetButtonMask(0b0001)
		c.Tick(0)
		board.SetButtonMask(0)
		c.Tick(10)
		So(board.SwitchState(0), ShouldBeTrue)
		So(board.SwitchState(3), ShouldBeTrue)

		Convey("ch3 tripping this tick also drives ch0's pin low, not just its state", func() {
			board.SetCurrent(3, 6.0)
			now := uint64(0)
			for now < 3000 && !c.Channels[3].FaultOC {
				now += 50
				c.Tick(now)
			}

			So(c.Channels[3].FaultOC, ShouldBeTrue)
			So(c.Channels[0].Active, ShouldBeFalse)
			So(c.Channels[0].FaultOC, ShouldBeTrue)
			So(board.SwitchState(0), ShouldBeFalse)
			So(board.SwitchState(3), ShouldBeFalse)
		})
	})
}

func TestKeypadInitSequenceSentOnFirstTick(t *testing.T) {
	Convey("a freshly constructed controller", t, func() {
		c, _, bus := newTestController()

		c.Tick(0)

		Convey("the NMT start, backlight and heartbeat-enable frames go out before any keypad boot-up frame arrives", func() {
			id := uint32(c.ConfigSnapshot().Global.KeypadNodeID)
			var sawNMT, sawBacklight, sawHeartbeatEnable bool
			for _, f := range bus.Sent() {
				switch f.ID {
				case 0x000:
					sawNMT = true
				case 0x500 + id:
					sawBacklight = true
				case 0x600 + id:
					sawHeartbeatEnable = true
				}
			}
			So(sawNMT, ShouldBeTrue)
			So(sawBacklight, ShouldBeTrue)
			So(sawHeartbeatEnable, ShouldBeTrue)
		})

		Convey("a second tick does not repeat it", func() {
			before := len(bus.Sent())
			c.Tick(10)
			after := len(bus.Sent())
			// only telemetry/LED bookkeeping frames may follow, never another
			// NMT start.
			for _, f := range bus.Sent()[before:after] {
				So(f.ID, ShouldNotEqual, uint32(0x000))
			}
		})
	})
}

func TestDigoutRisingEdgeThenWatchdog(t *testing.T) {
	Convey("a rising-edge DIGOUT frame activates ch0", t, func() {
		c, _, bus := newTestController()
		data := make([]byte, 8)
		data[0] = 1
		bus.Inject(canbus.Frame{ID: uint32(c.ConfigSnapshot().Global.DigoutCobID), Data: data})
		c.Tick(0)

		So(c.Channels[0].Active, ShouldBeTrue)
		So(c.Arbiter.LastInputMode(), ShouldEqual, pdm.InputCanDigout)

		Convey("2000ms without another frame forces all channels off", func() {
			c.Tick(2000)
			So(c.Channels[0].Active, ShouldBeFalse)
			So(c.DigoutWatchdogTriggered, ShouldBeTrue)
		})
	})
}
