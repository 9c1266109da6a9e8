// Command pdmctl wires the adapters, control loop, CLI shell and
// diagnostics API together. Grounded on main.go: flag parsing plus a
// caarlos0/env/v6 EnvConfig, a storm-backed database opened once at
// boot, and a top-level goroutine driving the device while the shell
// takes over the foreground.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"

	pdm "github.com/pdmcore/pdm-core"
	"github.com/pdmcore/pdm-core/canbus"
	"github.com/pdmcore/pdm-core/hardware"
	"github.com/pdmcore/pdm-core/internal/cli"
	"github.com/pdmcore/pdm-core/internal/config"
	"github.com/pdmcore/pdm-core/internal/control"
	"github.com/pdmcore/pdm-core/internal/diagnostics"
	"github.com/pdmcore/pdm-core/internal/logger"
)

// EnvConfig mirrors main.go's EnvConfig: process-wide settings sourced
// from the environment rather than flags or the CLI.
type EnvConfig struct {
	JWTIssuer string `env:"PDM_JWT_ISSUER" envDefault:"pdm-core"`
	Debug     bool   `env:"PDM_DEBUG" envDefault:"0"`
	DataDir   string `env:"PDM_DATA_DIR" envDefault:"./data"`
}

func main() {
	simulated := flag.Bool("sim", false, "run against simulated hardware and CAN bus")
	hwmapPath := flag.String("hwmap", "hwmap.yaml", "path to the boot-time hardware map")
	httpAddr := flag.String("http", "127.0.0.1:8080", "diagnostics API listen address")
	tickPeriod := flag.Duration("tick", 10*time.Millisecond, "control loop tick period")
	logLevel := flag.Int("log", logger.LevelWarn, "initial log level (0=error,1=warn,2=debug)")
	flag.Parse()

	var envCfg EnvConfig
	if err := env.Parse(&envCfg); err != nil {
		fmt.Fprintf(os.Stderr, "env parse: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(*logLevel)

	if err := os.MkdirAll(envCfg.DataDir, 0o755); err != nil {
		log.Errorf("creating data dir: %v", err)
		os.Exit(1)
	}

	hw, err := config.LoadHardwareMap(*hwmapPath)
	if err != nil {
		log.Warnf("no usable hardware map at %s (%v); starting from in-memory defaults", *hwmapPath, err)
	}

	cfg := pdm.DefaultConfiguration()
	if hw.PdmNodeID != 0 {
		cfg.Global.PdmNodeID = hw.PdmNodeID
	}
	if hw.KeypadNodeID != 0 {
		cfg.Global.KeypadNodeID = hw.KeypadNodeID
	}
	if hw.DigoutCobID != 0 {
		cfg.Global.DigoutCobID = hw.DigoutCobID
	}

	store, err := config.OpenStore(filepath.Join(envCfg.DataDir, "pdm.db"))
	if err != nil {
		log.Errorf("opening configuration store: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	if saved, err := store.Load(); err != nil {
		log.Warnf("persisted configuration unusable (%v); retaining defaults", err)
	} else {
		cfg = saved
	}

	var board hardware.Board
	var bus canbus.Bus
	if *simulated {
		log.Infof("running in simulator mode")
		board = hardware.NewSimulatedBoard()
		bus = canbus.NewSimulatedBus()
	} else {
		realBoard, err := newRealBoard()
		if err != nil {
			log.Errorf("hardware adapter unavailable: %v", err)
			os.Exit(1)
		}
		board = realBoard

		socketBus, err := canbus.NewSocketCANBus(hw.CANInterface)
		if err != nil {
			log.Errorf("opening CAN interface %s: %v", hw.CANInterface, err)
			os.Exit(1)
		}
		bus = socketBus
	}

	ctrl := control.New(cfg, board, bus, log)

	diagDB, err := storm.Open(filepath.Join(envCfg.DataDir, "diagnostics.db"))
	if err != nil {
		log.Errorf("opening diagnostics database: %v", err)
		os.Exit(1)
	}
	defer diagDB.Close()

	jwtSecret := []byte(os.Getenv("PDM_JWT_SECRET"))
	router := diagnostics.New(ctrl, diagDB, jwtSecret, envCfg.JWTIssuer, envCfg.Debug || *simulated)

	go func() {
		log.Infof("diagnostics API listening on %s", *httpAddr)
		if err := serveHTTP(*httpAddr, router); err != nil {
			log.Errorf("diagnostics API stopped: %v", err)
		}
	}()

	stop := make(chan struct{})
	go ctrl.Run(*tickPeriod, stop)
	defer close(stop)

	shell := cli.New(ctrl, store, log)
	shell.Run()
}
