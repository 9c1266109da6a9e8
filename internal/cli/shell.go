// Package cli implements the CLI surface of spec.md §6: a text command
// set parsed by github.com/abiosoft/ishell/v2, exactly as onboard/main.go
// and main.go build their development shells. Every command responds
// with a line starting "OK:" or "ERR:".
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell/v2"

	pdm "github.com/pdmcore/pdm-core"
	"github.com/pdmcore/pdm-core/internal/config"
	"github.com/pdmcore/pdm-core/internal/control"
	"github.com/pdmcore/pdm-core/internal/logger"
)

// New builds the shell bound to ctrl's live configuration and store. log
// and store may be nil (LOG/SAVE/LOAD degrade to an ERR: response).
func New(ctrl *control.Controller, store *config.Store, log *logger.Logger) *ishell.Shell {
	shell := ishell.New()
	shell.Println("pdm-core control shell")
	shell.ShowPrompt(true)

	shell.AddCmd(thresholdCmd(ctrl, "OC", "oc_threshold_a", func(cc *pdm.ChannelConfig, v float64) { cc.OCThresholdA = v }))
	shell.AddCmd(thresholdCmd(ctrl, "INRUSH", "inrush_threshold_a", func(cc *pdm.ChannelConfig, v float64) { cc.InrushThresholdA = v }))
	shell.AddCmd(inrushTimeCmd(ctrl))
	shell.AddCmd(thresholdCmd(ctrl, "UNDERWARN", "underwarn_a", func(cc *pdm.ChannelConfig, v float64) { cc.UnderWarnA = v }))
	shell.AddCmd(tempCmd(ctrl, "TEMPWARN", func(g *pdm.GlobalConfig, v float64) { g.TempWarnC = v }))
	shell.AddCmd(tempCmd(ctrl, "TEMPTRIP", func(g *pdm.GlobalConfig, v float64) { g.TempTripC = v }))
	shell.AddCmd(modeCmd(ctrl))
	shell.AddCmd(groupCmd(ctrl))
	shell.AddCmd(canspeedCmd(ctrl))
	shell.AddCmd(nodeidCmd(ctrl))
	shell.AddCmd(digoutCmd(ctrl))
	shell.AddCmd(logCmd(log))
	shell.AddCmd(showCmd(ctrl))
	shell.AddCmd(statusCmd(ctrl))
	shell.AddCmd(saveCmd(ctrl, store))
	shell.AddCmd(loadCmd(ctrl, store))

	return shell
}

func respondOK(c *ishell.Context, format string, args ...interface{}) {
	c.Printf("OK: "+format+"\n", args...)
}

func respondErr(c *ishell.Context, format string, args ...interface{}) {
	c.Printf("ERR: "+format+"\n", args...)
}

// parseNumber accepts decimal or 0x-prefixed hex, per spec.md §6.
func parseNumber(s string) (int64, error) {
	return strconv.ParseInt(s, 0, 64)
}

func parseChannel(s string) (int, error) {
	n, err := parseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("bad channel %q", s)
	}
	if n < 0 || n >= pdm.NumChannels {
		return 0, fmt.Errorf("channel out of range 0-%d", pdm.NumChannels-1)
	}
	return int(n), nil
}

func thresholdCmd(ctrl *control.Controller, name, field string, set func(*pdm.ChannelConfig, float64)) *ishell.Cmd {
	return &ishell.Cmd{
		Name: strings.ToLower(name),
		Help: fmt.Sprintf("%s <ch> <value> — set %s", name, field),
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				respondErr(c, "usage: %s <ch> <value>", name)
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				respondErr(c, "%s", err)
				return
			}
			v, err := strconv.ParseFloat(c.Args[1], 64)
			if err != nil {
				respondErr(c, "bad value %q", c.Args[1])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			set(&cfg.Channels[ch], v)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "%s[%d]=%.3f", field, ch, v)
		},
	}
}

func inrushTimeCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "inrushtime",
		Help: "INRUSHTIME <ch> <ms>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				respondErr(c, "usage: INRUSHTIME <ch> <ms>")
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				respondErr(c, "%s", err)
				return
			}
			v, err := parseNumber(c.Args[1])
			if err != nil || v < 0 {
				respondErr(c, "bad value %q", c.Args[1])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			cfg.Channels[ch].InrushTimeMs = uint32(v)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "inrush_time_ms[%d]=%d", ch, v)
		},
	}
}

func tempCmd(ctrl *control.Controller, name string, set func(*pdm.GlobalConfig, float64)) *ishell.Cmd {
	return &ishell.Cmd{
		Name: strings.ToLower(name),
		Help: fmt.Sprintf("%s <c>", name),
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				respondErr(c, "usage: %s <c>", name)
				return
			}
			v, err := strconv.ParseFloat(c.Args[0], 64)
			if err != nil {
				respondErr(c, "bad value %q", c.Args[0])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			set(&cfg.Global, v)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "%s=%.1f", name, v)
		},
	}
}

func modeCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "mode",
		Help: "MODE <ch> LATCH|MOMENTARY",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				respondErr(c, "usage: MODE <ch> LATCH|MOMENTARY")
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				respondErr(c, "%s", err)
				return
			}
			var mode pdm.Mode
			switch strings.ToUpper(c.Args[1]) {
			case "LATCH":
				mode = pdm.Latch
			case "MOMENTARY":
				mode = pdm.Momentary
			default:
				respondErr(c, "mode must be LATCH or MOMENTARY")
				return
			}
			cfg := ctrl.ConfigSnapshot()
			cfg.Channels[ch].Mode = mode
			ctrl.ApplyConfig(cfg)
			respondOK(c, "mode[%d]=%s", ch, mode)
		},
	}
}

func groupCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "group",
		Help: "GROUP <ch> <n>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				respondErr(c, "usage: GROUP <ch> <n>")
				return
			}
			ch, err := parseChannel(c.Args[0])
			if err != nil {
				respondErr(c, "%s", err)
				return
			}
			n, err := parseNumber(c.Args[1])
			if err != nil || n < 0 || n > 255 {
				respondErr(c, "bad group %q", c.Args[1])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			cfg.Channels[ch].Group = uint8(n)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "group[%d]=%d", ch, n)
		},
	}
}

func canspeedCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "canspeed",
		Help: "CANSPEED 125|250|500|1000",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				respondErr(c, "usage: CANSPEED 125|250|500|1000")
				return
			}
			n, err := parseNumber(c.Args[0])
			if err != nil {
				respondErr(c, "bad speed %q", c.Args[0])
				return
			}
			switch n {
			case 125, 250, 500, 1000:
			default:
				respondErr(c, "speed must be one of 125, 250, 500, 1000")
				return
			}
			cfg := ctrl.ConfigSnapshot()
			cfg.Global.CanKbps = uint16(n)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "canspeed=%d (takes effect on restart)", n)
		},
	}
}

func nodeidCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "nodeid",
		Help: "NODEID PDM|KEYPAD <id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				respondErr(c, "usage: NODEID PDM|KEYPAD <id>")
				return
			}
			id, err := parseNumber(c.Args[1])
			if err != nil || id < 0 || id > 0x7F {
				respondErr(c, "bad node id %q", c.Args[1])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			switch strings.ToUpper(c.Args[0]) {
			case "PDM":
				cfg.Global.PdmNodeID = uint8(id)
			case "KEYPAD":
				cfg.Global.KeypadNodeID = uint8(id)
			default:
				respondErr(c, "target must be PDM or KEYPAD")
				return
			}
			ctrl.ApplyConfig(cfg)
			respondOK(c, "nodeid[%s]=0x%02X", strings.ToUpper(c.Args[0]), id)
		},
	}
}

func digoutCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "digout",
		Help: "DIGOUT <id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				respondErr(c, "usage: DIGOUT <id>")
				return
			}
			id, err := parseNumber(c.Args[0])
			if err != nil || id < 0 || id > 0x7FF {
				respondErr(c, "bad CoB-ID %q", c.Args[0])
				return
			}
			cfg := ctrl.ConfigSnapshot()
			cfg.Global.DigoutCobID = uint16(id)
			ctrl.ApplyConfig(cfg)
			respondOK(c, "digout_cob_id=0x%03X", id)
		},
	}
}

func logCmd(log *logger.Logger) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "log",
		Help: "LOG 0|1|2 (error|warn|debug)",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				respondErr(c, "usage: LOG 0|1|2")
				return
			}
			level, err := parseNumber(c.Args[0])
			if err != nil || level < 0 || level > 2 {
				respondErr(c, "level must be 0, 1 or 2")
				return
			}
			if log == nil {
				respondErr(c, "no logger attached")
				return
			}
			log.SetLevel(int(level))
			respondOK(c, "log level=%d", level)
		},
	}
}

func showCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "show",
		Help: "SHOW — print the live tunable configuration",
		Func: func(c *ishell.Context) {
			cfg := ctrl.ConfigSnapshot()
			for i, ch := range cfg.Channels {
				c.Printf("ch%d: oc=%.2f inrush=%.2f inrush_ms=%d underwarn=%.2f mode=%s group=%d\n",
					i, ch.OCThresholdA, ch.InrushThresholdA, ch.InrushTimeMs, ch.UnderWarnA, ch.Mode, ch.Group)
			}
			c.Printf("global: tempwarn=%.1f temptrip=%.1f canspeed=%d pdm_node=0x%02X keypad_node=0x%02X digout=0x%03X\n",
				cfg.Global.TempWarnC, cfg.Global.TempTripC, cfg.Global.CanKbps,
				cfg.Global.PdmNodeID, cfg.Global.KeypadNodeID, cfg.Global.DigoutCobID)
			respondOK(c, "")
		},
	}
}

func statusCmd(ctrl *control.Controller) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "status",
		Help: "STATUS — print live channel/board state",
		Func: func(c *ishell.Context) {
			snap := ctrl.Snapshot()
			for i, ch := range snap.Channels {
				c.Printf("ch%d: active=%t i=%.2fA fault_oc=%t fault_thermal=%t warn_uc=%t lock_digout=%t\n",
					i, ch.Active, ch.LastCurrentA, ch.FaultOC, ch.FaultThermal, ch.WarnUC, ch.LockDigout)
			}
			c.Printf("board: temp=%.1fC battery=%dmV last_input=%s keypad_degraded=%t digout_watchdog=%t\n",
				snap.Temperature.FilteredC, snap.BatteryMilliV, snap.LastInputMode, snap.KeypadDegraded, snap.DigoutWatchdog)
			respondOK(c, "")
		},
	}
}

func saveCmd(ctrl *control.Controller, store *config.Store) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "save",
		Help: "SAVE — persist the live configuration",
		Func: func(c *ishell.Context) {
			if store == nil {
				respondErr(c, "no configuration store attached")
				return
			}
			if err := store.Save(ctrl.ConfigSnapshot()); err != nil {
				respondErr(c, "%s", err)
				return
			}
			respondOK(c, "configuration saved")
		},
	}
}

func loadCmd(ctrl *control.Controller, store *config.Store) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "load",
		Help: "LOAD — reload configuration from the store",
		Func: func(c *ishell.Context) {
			if store == nil {
				respondErr(c, "no configuration store attached")
				return
			}
			cfg, err := store.Load()
			if err != nil {
				respondErr(c, "%s (keeping current configuration)", err)
				return
			}
			ctrl.ApplyConfig(cfg)
			respondOK(c, "configuration loaded")
		},
	}
}
