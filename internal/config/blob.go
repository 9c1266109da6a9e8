// Package config is the Config Store adapter: encode/decode of the
// persisted byte-addressable configuration blob (magic + CRC16/IBM +
// fixed-order fields, spec.md §6), a storm/bbolt-backed Store for it, and
// the boot-time YAML hardware map (distinct from the tunable blob — see
// SPEC_FULL.md §4.A).
package config

import (
	"encoding/binary"
	"errors"
	"math"

	pdm "github.com/pdmcore/pdm-core"
)

const (
	magic = uint16(0xBEEF)

	channelRecordSize = 4 + 4 + 4 + 4 + 1 + 1 // two f32 thresholds, u32 time, f32 warn, mode, group
	globalRecordSize  = 4 + 4 + 2 + 1 + 1 + 2
	payloadSize       = pdm.NumChannels*channelRecordSize + globalRecordSize
	blobSize          = 2 + 2 + payloadSize // magic + crc + payload
)

// ErrBadMagic means the store holds no recognizable saved configuration.
var ErrBadMagic = errors.New("config: bad magic, no saved configuration")

// ErrBadCRC means the payload's checksum does not match: per spec.md §6,
// the stricter behavior is to discard and warn, never silently loading a
// possibly-corrupt payload over the in-memory defaults.
var ErrBadCRC = errors.New("config: CRC mismatch, discarding possibly-corrupt payload")

// Encode serializes cfg into the fixed magic+CRC+payload blob layout.
func Encode(cfg pdm.Configuration) []byte {
	payload := make([]byte, payloadSize)
	off := 0
	for _, ch := range cfg.Channels {
		off += putChannel(payload[off:], ch)
	}
	putGlobal(payload[off:], cfg.Global)

	blob := make([]byte, blobSize)
	binary.LittleEndian.PutUint16(blob[0:2], magic)
	binary.LittleEndian.PutUint16(blob[2:4], crc16IBM(payload))
	copy(blob[4:], payload)
	return blob
}

// Decode parses a persisted blob. It returns ErrBadMagic or ErrBadCRC
// rather than a partially-trusted Configuration.
func Decode(blob []byte) (pdm.Configuration, error) {
	var cfg pdm.Configuration

	if len(blob) != blobSize {
		return cfg, ErrBadMagic
	}
	if binary.LittleEndian.Uint16(blob[0:2]) != magic {
		return cfg, ErrBadMagic
	}
	storedCRC := binary.LittleEndian.Uint16(blob[2:4])
	payload := blob[4:]
	if crc16IBM(payload) != storedCRC {
		return cfg, ErrBadCRC
	}

	off := 0
	for i := range cfg.Channels {
		var n int
		cfg.Channels[i], n = getChannel(payload[off:])
		off += n
	}
	cfg.Global = getGlobal(payload[off:])
	return cfg, nil
}

func putChannel(b []byte, ch pdm.ChannelConfig) int {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(float32(ch.OCThresholdA)))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(float32(ch.InrushThresholdA)))
	binary.LittleEndian.PutUint32(b[8:12], ch.InrushTimeMs)
	binary.LittleEndian.PutUint32(b[12:16], math.Float32bits(float32(ch.UnderWarnA)))
	b[16] = byte(ch.Mode)
	b[17] = ch.Group
	return channelRecordSize
}

func getChannel(b []byte) (pdm.ChannelConfig, int) {
	var ch pdm.ChannelConfig
	ch.OCThresholdA = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])))
	ch.InrushThresholdA = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])))
	ch.InrushTimeMs = binary.LittleEndian.Uint32(b[8:12])
	ch.UnderWarnA = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[12:16])))
	ch.Mode = pdm.Mode(b[16])
	ch.Group = b[17]
	return ch, channelRecordSize
}

func putGlobal(b []byte, g pdm.GlobalConfig) int {
	binary.LittleEndian.PutUint32(b[0:4], math.Float32bits(float32(g.TempWarnC)))
	binary.LittleEndian.PutUint32(b[4:8], math.Float32bits(float32(g.TempTripC)))
	binary.LittleEndian.PutUint16(b[8:10], g.CanKbps)
	b[10] = g.PdmNodeID
	b[11] = g.KeypadNodeID
	binary.LittleEndian.PutUint16(b[12:14], g.DigoutCobID)
	return globalRecordSize
}

func getGlobal(b []byte) pdm.GlobalConfig {
	var g pdm.GlobalConfig
	g.TempWarnC = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:4])))
	g.TempTripC = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:8])))
	g.CanKbps = binary.LittleEndian.Uint16(b[8:10])
	g.PdmNodeID = b[10]
	g.KeypadNodeID = b[11]
	g.DigoutCobID = binary.LittleEndian.Uint16(b[12:14])
	return g
}
