package main

import (
	"errors"
	"net/http"

	"github.com/pdmcore/pdm-core/hardware"
)

// newRealBoard is the extension point for a genuine ADC/GPIO adapter.
// The driver itself is out of scope (spec.md §1); non-simulated runs
// fail fast until one is wired in here.
func newRealBoard() (hardware.Board, error) {
	return nil, errors.New("no real hardware adapter compiled in; run with -sim")
}

func serveHTTP(addr string, handler http.Handler) error {
	return http.ListenAndServe(addr, handler)
}
