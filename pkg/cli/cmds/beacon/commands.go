// Package beacon exposes the beacon commands in the console.
package beacon

import (
	"fmt"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/beacon.go/pkg/beacon/msgs"
	"github.com/robotalks/beacon.go/pkg/cli/sh"
	"github.com/robotalks/beacon.go/pkg/params"
)

func parseUint(c *ishell.Context, index int, name string, bits int) (uint32, bool) {
	if len(c.Args) <= index {
		c.Err(fmt.Errorf("%s required", name))
		return 0, false
	}
	val, err := strconv.ParseUint(c.Args[index], 0, bits)
	if err != nil {
		c.Err(fmt.Errorf("Invalid %s: %v", name, err))
		return 0, false
	}
	return uint32(val), true
}

func paramNames() []string {
	names := make([]string, len(params.DefaultLayout.Fields))
	for n, f := range params.DefaultLayout.Fields {
		names[n] = f.Name
	}
	return names
}

var (
	// StatusCmd exposes StatusQuery command.
	StatusCmd = ishell.Cmd{
		Name:    "status",
		Aliases: []string{"st"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.StatusQuery{})
		}),
	}

	// ParamGetCmd exposes ParamGet command.
	ParamGetCmd = ishell.Cmd{
		Name:      "param.get",
		Aliases:   []string{"pget"},
		Help:      "NAME",
		Completer: func([]string) []string { return paramNames() },
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			sh.DoCommand(c, &msgs.ParamGet{Name: c.Args[0]})
		}),
	}

	// ParamListCmd exposes ParamList command.
	ParamListCmd = ishell.Cmd{
		Name:    "param.list",
		Aliases: []string{"plist"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			reply, err := s.Exec(&msgs.ParamList{})
			if err != nil {
				c.Err(err)
				return
			}
			values, ok := reply.(*msgs.ParamValues)
			if !ok || s.OutputJSON {
				s.Print(c, reply)
				return
			}
			for _, v := range values.Values {
				if v.Valid {
					c.Printf("%-34s %d\n", v.Name, v.Value)
				} else {
					c.Printf("%-34s CORRUPTED\n", v.Name)
				}
			}
		}),
	}

	// ParamSetCmd exposes ParamSet command.
	ParamSetCmd = ishell.Cmd{
		Name:      "param.set",
		Aliases:   []string{"pset"},
		Help:      "NAME VALUE",
		Completer: func([]string) []string { return paramNames() },
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("NAME required"))
				return
			}
			val, ok := parseUint(c, 1, "VALUE", 32)
			if !ok {
				return
			}
			sh.DoCommand(c, &msgs.ParamSet{Name: c.Args[0], Value: val})
		}),
	}

	// ParamsResetCmd exposes ParamsReset command.
	ParamsResetCmd = ishell.Cmd{
		Name: "params.reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.ParamsReset{})
		}),
	}

	// ParamsSaveCmd exposes ParamsSave command.
	ParamsSaveCmd = ishell.Cmd{
		Name:    "params.save",
		Aliases: []string{"save"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.ParamsSave{})
		}),
	}

	// HibernationEnterCmd exposes HibernationEnter command.
	HibernationEnterCmd = ishell.Cmd{
		Name:    "hib.enter",
		Aliases: []string{"sleep"},
		Help:    "[SECONDS]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			var msg msgs.HibernationEnter
			if len(c.Args) > 0 {
				val, ok := parseUint(c, 0, "SECONDS", 32)
				if !ok {
					return
				}
				msg.DurationSec = val
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// HibernationLeaveCmd exposes HibernationLeave command.
	HibernationLeaveCmd = ishell.Cmd{
		Name:    "hib.leave",
		Aliases: []string{"wake"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.HibernationLeave{})
		}),
	}

	// DeployTickCmd exposes DeployTick command.
	DeployTickCmd = ishell.Cmd{
		Name:    "deploy.tick",
		Aliases: []string{"deploy"},
		Help:    "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.DeployTick{})
		}),
	}

	// DeployResetCmd exposes DeployReset command.
	DeployResetCmd = ishell.Cmd{
		Name: "deploy.reset",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.DoCommand(c, &msgs.DeployReset{})
		}),
	}

	// SubsystemReportCmd exposes SubsystemReport command.
	SubsystemReportCmd = ishell.Cmd{
		Name:    "subsys.report",
		Aliases: []string{"report"},
		Help:    "eps|obdh valid|invalid [LEVEL]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 2 {
				c.Err(fmt.Errorf("SUBSYSTEM and valid|invalid required"))
				return
			}
			msg := msgs.SubsystemReport{Subsystem: c.Args[0]}
			switch c.Args[1] {
			case "valid":
				msg.Valid = true
			case "invalid":
			default:
				c.Err(fmt.Errorf("Invalid packet state %q", c.Args[1]))
				return
			}
			if len(c.Args) > 2 {
				val, ok := parseUint(c, 2, "LEVEL", 8)
				if !ok {
					return
				}
				msg.EnergyLevel = val
			}
			sh.DoCommand(c, &msg)
		}),
	}

	// FaultInjectCmd exposes FaultInject command.
	FaultInjectCmd = ishell.Cmd{
		Name: "nvm.flip",
		Help: "REGION OFFSET [MASK]",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			region, ok := parseUint(c, 0, "REGION", 8)
			if !ok {
				return
			}
			offset, ok := parseUint(c, 1, "OFFSET", 16)
			if !ok {
				return
			}
			msg := msgs.FaultInject{Region: region, Offset: offset, Mask: 0x01}
			if len(c.Args) > 2 {
				if msg.Mask, ok = parseUint(c, 2, "MASK", 8); !ok {
					return
				}
			}
			sh.DoCommand(c, &msg)
		}),
	}
)

func init() {
	sh.AddCmds(
		&StatusCmd,
		&ParamGetCmd,
		&ParamListCmd,
		&ParamSetCmd,
		&ParamsResetCmd,
		&ParamsSaveCmd,
		&HibernationEnterCmd,
		&HibernationLeaveCmd,
		&DeployTickCmd,
		&DeployResetCmd,
		&SubsystemReportCmd,
		&FaultInjectCmd,
	)
}
