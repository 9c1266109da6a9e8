package cli

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseNumberAcceptsDecimalAndHex(t *testing.T) {
	Convey("parseNumber on a decimal string", t, func() {
		v, err := parseNumber("42")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 42)
	})

	Convey("parseNumber on a 0x-prefixed hex string", t, func() {
		v, err := parseNumber("0x680")
		So(err, ShouldBeNil)
		So(v, ShouldEqual, 0x680)
	})

	Convey("parseNumber on garbage", t, func() {
		_, err := parseNumber("not-a-number")
		So(err, ShouldNotBeNil)
	})
}

func TestParseChannelRange(t *testing.T) {
	Convey("parseChannel within range", t, func() {
		ch, err := parseChannel("3")
		So(err, ShouldBeNil)
		So(ch, ShouldEqual, 3)
	})

	Convey("parseChannel out of range", t, func() {
		_, err := parseChannel("4")
		So(err, ShouldNotBeNil)
	})

	Convey("parseChannel hex", t, func() {
		ch, err := parseChannel("0x2")
		So(err, ShouldBeNil)
		So(ch, ShouldEqual, 2)
	})
}
