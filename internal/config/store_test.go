package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	pdm "github.com/pdmcore/pdm-core"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	Convey("a configuration encoded then decoded", t, func() {
		cfg := pdm.DefaultConfiguration()
		cfg.Channels[0].OCThresholdA = 7.5
		cfg.Global.DigoutCobID = 0x681

		blob := Encode(cfg)
		got, err := Decode(blob)

		Convey("is byte-identical to the original", func() {
			So(err, ShouldBeNil)
			So(got, ShouldResemble, cfg)
		})
	})
}

func TestDecodeBadMagic(t *testing.T) {
	Convey("a blob with a corrupted magic", t, func() {
		blob := Encode(pdm.DefaultConfiguration())
		blob[0] = 0x00

		_, err := Decode(blob)

		Convey("reports ErrBadMagic", func() {
			So(err, ShouldEqual, ErrBadMagic)
		})
	})
}

func TestDecodeBadCRC(t *testing.T) {
	Convey("a blob with a flipped payload byte", t, func() {
		blob := Encode(pdm.DefaultConfiguration())
		blob[10] ^= 0xFF

		_, err := Decode(blob)

		Convey("reports ErrBadCRC rather than returning a partial config", func() {
			So(err, ShouldEqual, ErrBadCRC)
		})
	})
}

func TestStoreSaveLoadRoundTrip(t *testing.T) {
	Convey("a store backed by a temp file", t, func() {
		dir := t.TempDir()
		store, err := OpenStore(filepath.Join(dir, "pdm.db"))
		So(err, ShouldBeNil)
		defer store.Close()

		cfg := pdm.DefaultConfiguration()
		cfg.Channels[2].Mode = pdm.Momentary

		Convey("save then load yields identical configuration", func() {
			So(store.Save(cfg), ShouldBeNil)
			got, err := store.Load()
			So(err, ShouldBeNil)
			So(got, ShouldResemble, cfg)
		})

		Convey("loading before any save reports ErrBadMagic", func() {
			_, err := store.Load()
			So(err, ShouldEqual, ErrBadMagic)
		})
	})
}

func TestLoadHardwareMap(t *testing.T) {
	Convey("a minimal hardware map file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "hwmap.yaml")
		yaml := "can_interface: can0\npdm_node_id: 0x10\nkeypad_node_id: 0x20\ndigout_cob_id: 0x680\n"
		So(os.WriteFile(path, []byte(yaml), 0o644), ShouldBeNil)

		hw, err := LoadHardwareMap(path)

		Convey("it parses hex-prefixed values", func() {
			So(err, ShouldBeNil)
			So(hw.CANInterface, ShouldEqual, "can0")
			So(hw.PdmNodeID, ShouldEqual, uint8(0x10))
			So(hw.DigoutCobID, ShouldEqual, uint16(0x680))
		})
	})
}
