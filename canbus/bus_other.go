//go:build !linux

package canbus

import "errors"

// NewSocketCANBus is unavailable outside Linux; SocketCAN is a
// Linux-kernel facility. Grounded on onboard/canbus/bus_darwin.go's role
// as the non-Linux stand-in that keeps the rest of the tree buildable on
// a development machine, generalized from "returns a working loopback"
// to "returns a clear error" since this codec has no wire-protocol
// substitute worth faking.
func NewSocketCANBus(ifname string) (Bus, error) {
	return nil, errors.New("SocketCAN is only available on linux; run with -sim")
}
