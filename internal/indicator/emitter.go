// Package indicator implements the Indicator/Telemetry Emitter (spec.md
// §4.H): per-channel LED state selection, the two CAN LED frames, and the
// periodic telemetry frame.
package indicator

import (
	"encoding/binary"

	pdm "github.com/pdmcore/pdm-core"
	"github.com/pdmcore/pdm-core/canbus"
)

// LEDStateFor returns the six-state indicator for a single channel, first
// match wins per spec.md §4.H's table.
func LEDStateFor(ch *pdm.Channel) pdm.LEDState {
	switch {
	case !ch.Active && ch.FaultThermal:
		return pdm.LEDRedFlash
	case !ch.Active && ch.FaultOC:
		return pdm.LEDRed
	case !ch.Active:
		return pdm.LEDOff
	case ch.Active && ch.FaultOC:
		return pdm.LEDRed
	case ch.Active && ch.WarnUC:
		return pdm.LEDBlue
	case ch.Active && ch.LastCurrentA > ch.Config.OCThresholdA:
		return pdm.LEDAmber
	default:
		return pdm.LEDGreen
	}
}

// LEDFrames packs the four channels' LED states into the steady-state
// frame (0x200+keypadNodeID) and the flashing frame (0x300+keypadNodeID).
// Byte 0 = RED, byte 1 = GREEN, byte 2 = BLUE; amber sets both RED and
// GREEN (spec.md §4.H byte/bit layout).
func LEDFrames(states [pdm.NumChannels]pdm.LEDState, keypadNodeID uint8) (steady, flashing canbus.Frame) {
	steadyData := make([]byte, 8)
	flashData := make([]byte, 8)

	for ch, s := range states {
		bit := byte(1) << uint(ch)
		switch s {
		case pdm.LEDGreen:
			steadyData[1] |= bit
		case pdm.LEDAmber:
			steadyData[0] |= bit
			steadyData[1] |= bit
		case pdm.LEDRed:
			steadyData[0] |= bit
		case pdm.LEDBlue:
			steadyData[2] |= bit
		case pdm.LEDRedFlash:
			flashData[0] |= bit
		}
	}

	steady = canbus.Frame{ID: 0x200 + uint32(keypadNodeID), Data: steadyData}
	flashing = canbus.Frame{ID: 0x300 + uint32(keypadNodeID), Data: flashData}
	return
}

// TelemetryFrame builds the 8-byte periodic telemetry frame
// (0x380+pdmNodeID) per spec.md §4.H's byte layout.
func TelemetryFrame(channels [pdm.NumChannels]pdm.Channel, boardTempC float64, batteryMV uint16, pdmNodeID uint8) canbus.Frame {
	data := make([]byte, 8)

	for ch := 0; ch < pdm.NumChannels; ch++ {
		data[ch] = saturatingByte(channels[ch].LastCurrentA / 0.2)
	}
	data[4] = saturatingByte(boardTempC)

	var faultMask byte
	for ch := 0; ch < pdm.NumChannels; ch++ {
		if channels[ch].WarnUC {
			faultMask |= 1 << uint(ch)
		}
		if channels[ch].FaultOC {
			faultMask |= 1 << uint(ch+4)
		}
	}
	data[5] = faultMask

	binary.LittleEndian.PutUint16(data[6:8], batteryMV)

	return canbus.Frame{ID: 0x380 + uint32(pdmNodeID), Data: data}
}

func saturatingByte(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
