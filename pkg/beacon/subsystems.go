package beacon

import (
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/beacon.go/pkg/beacon/msgs"
	"github.com/robotalks/beacon.go/pkg/params"
)

func (c *Controller) subsystem(name string) *subsystem {
	switch name {
	case SubsystemEPS:
		return c.eps
	case SubsystemOBDH:
		return c.obdh
	}
	return nil
}

// report records a packet of a subsystem. Valid packets clear the error
// count, those carrying an energy level in 1-5 update the level of the
// subsystem.
func (c *Controller) report(name string, valid bool, level uint32) error {
	s := c.subsystem(name)
	if s == nil {
		return ErrUnknownSubsystem
	}
	if !valid {
		if n := c.mirror.get(s.errorCount); n < 0xff {
			c.mirror.set(s.errorCount, n+1)
		}
		c.updateEnergyLevel()
		return nil
	}
	c.mirror.set(s.lastValid, c.timeCount())
	c.mirror.set(s.errorCount, 0)
	if level >= 1 && level <= NumEnergyLevels {
		s.energyLevel = level
	}
	if c.mirror.getBool(s.isDead) {
		glog.Infof("%s is alive", s.name)
		c.mirror.setBool(s.isDead, false)
	}
	c.updateEnergyLevel()
	return nil
}

func (c *Controller) updateSubsystems() {
	timeout := uint32(c.Settings.DeviceTimeout / time.Second)
	now := c.timeCount()
	for _, s := range []*subsystem{c.eps, c.obdh} {
		last := c.mirror.get(s.lastValid)
		dead := now > last && now-last > timeout
		if dead == c.mirror.getBool(s.isDead) {
			continue
		}
		if dead {
			glog.Warningf("%s silent for %ds", s.name, now-last)
		}
		c.mirror.setBool(s.isDead, dead)
	}
}

// energyLevel picks OBDH, then EPS, then the lowest level. A subsystem
// is only a source while it's alive and has no pending errors.
func (c *Controller) energyLevel() uint32 {
	for _, s := range []*subsystem{c.obdh, c.eps} {
		if s.energyLevel != 0 && c.mirror.get(s.errorCount) == 0 && !c.mirror.getBool(s.isDead) {
			return s.energyLevel
		}
	}
	return NumEnergyLevels
}

func (c *Controller) updateEnergyLevel() {
	level, current := c.energyLevel(), c.mirror.get(params.EnergyLevel)
	if level == current {
		return
	}
	glog.Infof("energy level %d -> %d", current, level)
	c.mirror.set(params.LastEnergyLevelSet, current)
	c.mirror.set(params.EnergyLevel, level)
}

func (c *Controller) subsystemStatus(s *subsystem) *msgs.SubsystemStatus {
	return &msgs.SubsystemStatus{
		LastTimeValidPacket: c.mirror.get(s.lastValid),
		ErrorCount:          c.mirror.get(s.errorCount),
		IsDead:              c.mirror.getBool(s.isDead),
	}
}
