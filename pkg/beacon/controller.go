// Package beacon implements the beacon node: boot and parameter
// recovery, hibernation, the deployment schedule, subsystem health and
// energy level, telemetry, and ground commands.
package beacon

import (
	"errors"
	"time"

	"github.com/golang/glog"
	pkgerrors "github.com/pkg/errors"

	"github.com/robotalks/beacon.go/pkg/antenna"
	"github.com/robotalks/beacon.go/pkg/beacon/msgs"
	"github.com/robotalks/beacon.go/pkg/deploy"
	fx "github.com/robotalks/beacon.go/pkg/framework"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/nvm"
	"github.com/robotalks/beacon.go/pkg/params"
)

// Subsystem names.
const (
	SubsystemEPS  = "eps"
	SubsystemOBDH = "obdh"
)

var (
	// ErrNotBooted indicates Boot hasn't succeeded.
	ErrNotBooted = errors.New("not booted")
	// ErrUnknownSubsystem indicates the subsystem name is unknown.
	ErrUnknownSubsystem = errors.New("unknown subsystem")
	// ErrHibernating rejects activity during hibernation.
	ErrHibernating = errors.New("hibernating")
	// ErrNotHibernating indicates there is no hibernation to leave.
	ErrNotHibernating = errors.New("not hibernating")
	// ErrNoFaultInjection indicates the medium can't inject faults.
	ErrNoFaultInjection = errors.New("medium doesn't support fault injection")
)

type subsystem struct {
	name       string
	lastValid  params.FieldID
	errorCount params.FieldID
	isDead     params.FieldID

	// energyLevel is the last reported level, 0 if unknown.
	energyLevel uint32
}

// Controller runs the beacon in a loop. Every method must be called from
// the loop goroutine, or before/after the loop runs.
type Controller struct {
	Settings Settings

	store     *params.Store
	medium    nvm.Medium
	machine   *deploy.Machine
	registrar link.Registrar
	mirror    *mirror

	eps, obdh *subsystem

	booted    bool
	started   bool
	firstBoot bool
	faults    []params.FieldID

	bootTime  time.Time
	baseCount uint32
	now       time.Time

	deployTicked bool
	lastTick     time.Time
	lastSave     time.Time
	nextTx       time.Time
}

// NewController creates a Controller. reg may be nil for no telemetry.
func NewController(settings Settings, store *params.Store, medium nvm.Medium, machine *deploy.Machine, reg link.Registrar) *Controller {
	return &Controller{
		Settings:  settings,
		store:     store,
		medium:    medium,
		machine:   machine,
		registrar: reg,
		mirror:    newMirror(store),
		eps: &subsystem{
			name:       SubsystemEPS,
			lastValid:  params.EPSLastTimeValidPacket,
			errorCount: params.EPSErrorCount,
			isDead:     params.EPSIsDead,
		},
		obdh: &subsystem{
			name:       SubsystemOBDH,
			lastValid:  params.OBDHLastTimeValidPacket,
			errorCount: params.OBDHErrorCount,
			isDead:     params.OBDHIsDead,
		},
	}
}

// Machine returns the deployment machine.
func (c *Controller) Machine() *deploy.Machine {
	return c.machine
}

// Boot loads the parameters. Corrupted parameters other than the
// deployment attempts are restored to defaults, the attempts are left to
// the deployment integrity policy.
func (c *Controller) Boot() error {
	if c.Settings.ResetParamsOnBoot {
		glog.Info("resetting parameters on boot")
		if err := c.store.Reset(); err != nil {
			return err
		}
	}
	if err := c.store.Init(); err != nil && !params.IsIntegrity(err) {
		return err
	}
	c.firstBoot = c.store.FirstBoot()
	repaired, err := c.mirror.load(params.DeploymentAttempts)
	if err != nil {
		return err
	}
	c.faults = repaired
	attempts, err := c.machine.Attempts()
	if params.IsIntegrity(err) {
		c.faults = append(c.faults, params.DeploymentAttempts)
	} else if err != nil {
		return err
	}
	c.baseCount = c.mirror.get(params.TimeCount)
	c.booted = true
	glog.Infof("booted: time count %ds, first boot %v, deployment attempts %d, hibernating %v",
		c.baseCount, c.firstBoot, attempts, c.hibernating())
	return nil
}

// AddToLoop implements LoopAdder.
func (c *Controller) AddToLoop(loop *fx.Loop) {
	loop.AddController(fx.PrLvSense, fx.ControlFunc(c.sense))
	loop.AddController(fx.PrLvControl, c)
	loop.AddController(fx.PrLvPostProc, fx.ControlFunc(c.postProc))
}

// Control implements Controller. It handles commands and schedules
// deployment.
func (c *Controller) Control(cc fx.ControlContext) error {
	if !c.started {
		return nil
	}
	cc.Messages().ProcessMessages(fx.ProcessMessageFunc(func(mctx fx.MessageProcessingContext) {
		cmdMsg, ok := mctx.CurrentMessage().(*link.CommandMsg)
		if !ok {
			return
		}
		reply := c.handleCommand(cc, cmdMsg.Command.Msg())
		if reply == nil {
			return
		}
		mctx.MessageTaken()
		if err := cmdMsg.Command.Done(reply); err != nil {
			glog.Warningf("reply command: %v", err)
		}
	}))
	return c.scheduleDeploy(cc)
}

// Shutdown persists the volatile parameters. It must be called after the
// loop stops.
func (c *Controller) Shutdown() error {
	if !c.booted {
		return nil
	}
	c.mirror.set(params.TimeCount, c.timeCount())
	n, err := c.mirror.flush()
	glog.Infof("shutdown: saved %d parameters, time count %ds", n, c.timeCount())
	return pkgerrors.Wrap(err, "save parameters")
}

// Status builds the telemetry.
func (c *Controller) Status() *msgs.BeaconStatus {
	level := c.mirror.get(params.EnergyLevel)
	st := &msgs.BeaconStatus{
		TimeCount:                 c.timeCount(),
		FirstBoot:                 c.firstBoot,
		Hibernating:               c.hibernating(),
		EnergyLevel:               level,
		TxPeriodSec:               uint32(c.Settings.TxPeriod(level) / time.Second),
		DeployState:               c.machine.State().String(),
		DeployHibernationExecuted: c.mirror.getBool(params.DeployHibernationExecuted),
		Eps:                       c.subsystemStatus(c.eps),
		Obdh:                      c.subsystemStatus(c.obdh),
		AntennaStatus:             c.antennaStatus().String(),
	}
	if err := c.machine.LastError(); err != nil {
		st.DeployError = err.Error()
	}
	if st.Hibernating {
		if end, now := c.hibernationEnd(), uint64(st.TimeCount); end > now {
			st.HibernationRemainingSec = uint32(end - now)
		}
	}
	faults := append([]params.FieldID(nil), c.faults...)
	if attempts, err := c.machine.Attempts(); err == nil {
		st.DeployAttempts = attempts
	} else if params.IsIntegrity(err) && !containsField(faults, params.DeploymentAttempts) {
		faults = append(faults, params.DeploymentAttempts)
	}
	for _, id := range faults {
		st.IntegrityFaults = append(st.IntegrityFaults, id.String())
	}
	return st
}

func (c *Controller) sense(cc fx.ControlContext) error {
	if !c.booted {
		return ErrNotBooted
	}
	c.now = cc.Time()
	if !c.started {
		c.started = true
		c.bootTime, c.lastSave, c.nextTx = c.now, c.now, c.now
	}
	c.mirror.set(params.TimeCount, c.timeCount())
	var err error
	if c.hibernating() && uint64(c.timeCount()) >= c.hibernationEnd() {
		err = c.leaveHibernation(false)
	}
	c.updateSubsystems()
	c.updateEnergyLevel()
	return err
}

func (c *Controller) postProc(cc fx.ControlContext) error {
	if !c.started {
		return nil
	}
	var errs fx.AggregatedError
	if c.now.Sub(c.lastSave) >= c.Settings.SaveInterval {
		errs.Add(c.save())
	}
	if c.registrar != nil && !c.hibernating() && !c.now.Before(c.nextTx) {
		c.nextTx = c.now.Add(c.Settings.TxPeriod(c.mirror.get(params.EnergyLevel)))
		errs.Add(c.registrar.SendEvent(cc.Context(), c.Status()))
	}
	return errs.Aggregate()
}

func (c *Controller) save() error {
	c.lastSave = c.now
	n, err := c.mirror.flush()
	if n > 0 {
		glog.V(2).Infof("saved %d parameters", n)
	}
	return pkgerrors.Wrap(err, "save parameters")
}

// timeCount is the seconds since first boot.
func (c *Controller) timeCount() uint32 {
	return c.baseCount + uint32(c.now.Sub(c.bootTime)/time.Second)
}

// rebase makes timeCount return value from now on.
func (c *Controller) rebase(value uint32) {
	c.baseCount, c.bootTime = value, c.now
}

func (c *Controller) scheduleDeploy(cc fx.ControlContext) error {
	if c.hibernating() {
		return nil
	}
	if !c.mirror.getBool(params.DeployHibernationExecuted) {
		if c.Settings.DeploySleep >= time.Second {
			glog.Infof("delaying deployment by %s", c.Settings.DeploySleep)
			return c.enterHibernation(c.Settings.DeploySleep)
		}
		if err := c.mirror.persistBool(params.DeployHibernationExecuted, true); err != nil {
			return err
		}
	}
	if c.machine.State() != deploy.Idle {
		return nil
	}
	if c.deployTicked {
		retry := c.Settings.DeployRetryInterval
		if retry <= 0 || c.now.Sub(c.lastTick) < retry {
			return nil
		}
	}
	c.tickDeploy(cc)
	return nil
}

// tickDeploy runs the machine which logs its own failures. A tick only
// counts once it reached the actuator, a storage failure is retried on
// the next cycle.
func (c *Controller) tickDeploy(cc fx.ControlContext) (deploy.State, error) {
	c.lastTick = c.now
	state, err := c.machine.Tick(cc.Context())
	if _, actuated := err.(*antenna.ActuationError); err == nil || actuated {
		c.deployTicked = true
	}
	return state, err
}

func (c *Controller) antennaStatus() antenna.Status {
	switch {
	case c.machine.State() == deploy.Released:
		return antenna.StatusDeployed
	case c.deployTicked:
		return antenna.StatusNotDeployed
	}
	return antenna.StatusUnknown
}
