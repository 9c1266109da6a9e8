package config

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"
)

// HardwareMap is the boot-time wiring description: which CAN interface to
// open and the initial node-id/DIGOUT-id seed values used before a
// persisted Configuration has ever been saved. It is loaded once and
// never written back, unlike the tunable Configuration blob (SPEC_FULL.md
// §4.A) — the same separation the teacher draws between
// onboard/config.go's YAML platform layout and main.go's storm-backed
// user database.
type HardwareMap struct {
	CANInterface string `yaml:"can_interface"`
	PdmNodeID    uint8  `yaml:"pdm_node_id"`
	KeypadNodeID uint8  `yaml:"keypad_node_id"`
	DigoutCobID  uint16 `yaml:"digout_cob_id"`
}

// LoadHardwareMap reads and unmarshals the YAML hardware map at path.
func LoadHardwareMap(path string) (HardwareMap, error) {
	var hw HardwareMap
	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return hw, err
	}
	if err := yaml.Unmarshal(raw, &hw); err != nil {
		return hw, err
	}
	return hw, nil
}
