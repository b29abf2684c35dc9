package beacon

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/params"
)

func (c *Controller) hibernating() bool {
	return c.mirror.getBool(params.HibernationFlag)
}

func (c *Controller) hibernationEnd() uint64 {
	return uint64(c.mirror.get(params.HibernationInitialTime)) + uint64(c.mirror.get(params.HibernationDuration))
}

// enterHibernation persists the window before raising the flag.
func (c *Controller) enterHibernation(d time.Duration) error {
	if err := c.mirror.persist(params.HibernationInitialTime, c.timeCount()); err != nil {
		return err
	}
	if err := c.mirror.persist(params.HibernationDuration, uint32(d/time.Second)); err != nil {
		return err
	}
	if err := c.mirror.persistBool(params.HibernationFlag, true); err != nil {
		return err
	}
	glog.Infof("hibernating for %s", d)
	return nil
}

// leaveHibernation ends the hibernation. The deployment delay completes
// once a hibernation lasted deploy_sleep, or when the ground ends it.
func (c *Controller) leaveHibernation(byGround bool) error {
	var elapsed uint32
	if now, start := c.timeCount(), c.mirror.get(params.HibernationInitialTime); now > start {
		elapsed = now - start
	}
	if err := c.mirror.persistBool(params.HibernationFlag, false); err != nil {
		return err
	}
	glog.Infof("hibernation ended after %ds", elapsed)
	if c.mirror.getBool(params.DeployHibernationExecuted) {
		return nil
	}
	if byGround || time.Duration(elapsed)*time.Second >= c.Settings.DeploySleep {
		glog.Info("deployment delay completed")
		return c.mirror.persistBool(params.DeployHibernationExecuted, true)
	}
	return nil
}
