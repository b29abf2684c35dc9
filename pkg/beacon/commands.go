package beacon

import (
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/robotalks/beacon.go/pkg/beacon/msgs"
	fx "github.com/robotalks/beacon.go/pkg/framework"
	linkmsgs "github.com/robotalks/beacon.go/pkg/link/msgs"
	"github.com/robotalks/beacon.go/pkg/nvm"
	"github.com/robotalks/beacon.go/pkg/params"
)

// handleCommand returns the reply, or nil if msg is not a beacon command.
func (c *Controller) handleCommand(cc fx.ControlContext, msg fx.Message) fx.Message {
	switch m := msg.(type) {
	case *msgs.StatusQuery:
		return &msgs.StatusReply{Status: c.Status()}
	case *msgs.ParamGet:
		f, ok := c.store.Layout().Lookup(m.Name)
		if !ok {
			return linkmsgs.NewCommandErr(errors.Wrapf(params.ErrUnknownField, "%q", m.Name))
		}
		value, err := c.paramValue(f)
		if err != nil {
			return linkmsgs.NewCommandErr(err)
		}
		return value
	case *msgs.ParamList:
		return c.paramList()
	case *msgs.ParamSet:
		return reply(c.setParam(m.Name, m.Value))
	case *msgs.ParamsReset:
		return reply(c.resetParams())
	case *msgs.ParamsSave:
		return reply(c.save())
	case *msgs.HibernationEnter:
		d := time.Duration(m.DurationSec) * time.Second
		if d == 0 {
			d = c.Settings.HibernationPeriod
		}
		return reply(c.enterHibernation(d))
	case *msgs.HibernationLeave:
		if !c.hibernating() {
			return linkmsgs.NewCommandErr(ErrNotHibernating)
		}
		return reply(c.leaveHibernation(true))
	case *msgs.DeployTick:
		if c.hibernating() {
			return linkmsgs.NewCommandErr(ErrHibernating)
		}
		state, err := c.tickDeploy(cc)
		res := &msgs.DeployResult{State: state.String()}
		if attempts, e := c.machine.Attempts(); e == nil {
			res.Attempts = attempts
		}
		if err != nil {
			res.Error = err.Error()
		}
		return res
	case *msgs.DeployReset:
		c.machine.Reset()
		return linkmsgs.NewCommandOK()
	case *msgs.SubsystemReport:
		return reply(c.report(m.Subsystem, m.Valid, m.EnergyLevel))
	case *msgs.FaultInject:
		return reply(c.injectFault(m.Region, m.Offset, m.Mask))
	}
	return nil
}

func reply(err error) fx.Message {
	if err != nil {
		return linkmsgs.NewCommandErr(err)
	}
	return linkmsgs.NewCommandOK()
}

// paramValue reads the persisted value, not the RAM copy.
func (c *Controller) paramValue(f *params.Field) (*msgs.ParamValue, error) {
	value, err := c.store.Get(f.ID)
	if err != nil && !params.IsIntegrity(err) {
		return nil, err
	}
	return &msgs.ParamValue{Name: f.Name, Value: value, Valid: err == nil}, nil
}

func (c *Controller) paramList() fx.Message {
	layout := c.store.Layout()
	list := &msgs.ParamValues{}
	for n := range layout.Fields {
		value, err := c.paramValue(&layout.Fields[n])
		if err != nil {
			return linkmsgs.NewCommandErr(err)
		}
		list.Values = append(list.Values, value)
	}
	return list
}

func (c *Controller) setParam(name string, value uint32) error {
	f, ok := c.store.Layout().Lookup(name)
	if !ok {
		return errors.Wrapf(params.ErrUnknownField, "%q", name)
	}
	glog.Infof("set %s=%d", f.Name, value)
	switch f.ID {
	case params.DeploymentAttempts, params.ParamsSaved:
		return c.store.Set(f.ID, value)
	case params.TimeCount:
		if err := c.mirror.persist(f.ID, value); err != nil {
			return err
		}
		c.rebase(value)
		return nil
	}
	if err := c.mirror.persist(f.ID, value); err != nil {
		return err
	}
	c.faults = removeField(c.faults, f.ID)
	return nil
}

// resetParams writes all defaults and restarts the deployment cycle,
// including the deployment delay.
func (c *Controller) resetParams() error {
	glog.Info("resetting parameters")
	if err := c.store.Reset(); err != nil {
		return err
	}
	if _, err := c.mirror.load(params.DeploymentAttempts); err != nil {
		return err
	}
	c.faults = nil
	c.rebase(c.mirror.get(params.TimeCount))
	c.machine.Reset()
	c.deployTicked = false
	return nil
}

func (c *Controller) injectFault(region, offset, mask uint32) error {
	inj, ok := c.medium.(nvm.Injector)
	if !ok {
		return ErrNoFaultInjection
	}
	if region > 0xff || mask == 0 || mask > 0xff {
		return errors.Errorf("invalid fault region %d mask %#x", region, mask)
	}
	glog.Warningf("flipping %#02x at %s+%d", mask, nvm.Region(region), offset)
	return inj.Flip(nvm.Region(region), int(offset), byte(mask))
}

func removeField(ids []params.FieldID, id params.FieldID) []params.FieldID {
	for n, v := range ids {
		if v == id {
			return append(ids[:n:n], ids[n+1:]...)
		}
	}
	return ids
}
