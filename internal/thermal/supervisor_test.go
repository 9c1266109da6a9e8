package thermal

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	pdm "github.com/pdmcore/pdm-core"
)

func TestScenario6TemperatureStepSlewLimitsThenTrips(t *testing.T) {
	Convey("filtered temperature at 60C, raw jumps to 90C", t, func() {
		st := &pdm.TemperatureState{FilteredC: 60, Initialized: true}
		d := Step(st, 90, 0.05, 70, 85)

		Convey("the first tick advances by at most 0.5C and does not trip", func() {
			So(st.FilteredC, ShouldBeBetween, 60.0, 60.51)
			So(d.ThermalTrip, ShouldBeFalse)
		})

		Convey("sustained raw=90 eventually trips after about 2.5s", func() {
			var last Decision
			for i := 0; i < 100 && !last.ThermalTrip; i++ {
				last = Step(st, 90, 0.05, 70, 85)
			}
			So(last.ThermalTrip, ShouldBeTrue)
			So(st.FilteredC, ShouldBeGreaterThanOrEqualTo, 85.0)
		})
	})
}

func TestBadReadingHysteresis(t *testing.T) {
	Convey("three consecutive out-of-range readings", t, func() {
		st := &pdm.TemperatureState{}
		Step(st, 200, 0.1, 70, 85)
		Step(st, -100, 0.1, 70, 85)
		d := Step(st, 999, 0.1, 70, 85)

		Convey("sensor_error is raised and reported as a thermal trip", func() {
			So(st.SensorError, ShouldBeTrue)
			So(d.ThermalTrip, ShouldBeTrue)
		})

		Convey("a single valid reading clears it", func() {
			d = Step(st, 25, 0.1, 70, 85)
			So(st.SensorError, ShouldBeFalse)
			So(d.ThermalTrip, ShouldBeFalse)
		})
	})
}

func TestTripAtExactlyTempTripC(t *testing.T) {
	Convey("filtered temperature arriving at exactly temp_trip_c", t, func() {
		st := &pdm.TemperatureState{FilteredC: 85, Initialized: true}
		d := Step(st, 85, 0.1, 70, 85)

		Convey("thermal trip fires", func() {
			So(d.ThermalTrip, ShouldBeTrue)
		})
	})
}

func TestWarnBand(t *testing.T) {
	Convey("filtered temperature between warn and trip", t, func() {
		st := &pdm.TemperatureState{FilteredC: 75, Initialized: true}
		d := Step(st, 75, 0.1, 70, 85)

		Convey("a warning is reported without a trip", func() {
			So(d.Warn, ShouldBeTrue)
			So(d.ThermalTrip, ShouldBeFalse)
		})
	})
}
