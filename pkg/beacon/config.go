package beacon

import (
	"flag"
	"io/ioutil"
	"math"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/robotalks/beacon.go/pkg/antenna"
	"github.com/robotalks/beacon.go/pkg/deploy"
	"github.com/robotalks/beacon.go/pkg/link"
	"github.com/robotalks/beacon.go/pkg/nvm"
	"github.com/robotalks/beacon.go/pkg/nvm/modbus"
	"github.com/robotalks/beacon.go/pkg/params"
)

// NumEnergyLevels is the number of energy levels, 1 being the highest.
const NumEnergyLevels = 5

// Settings are the mission settings of the beacon.
type Settings struct {
	MaxAttempts         int             `yaml:"max_attempts"`
	IntegrityPolicy     string          `yaml:"integrity_policy"`
	DeploySleep         time.Duration   `yaml:"deploy_sleep"`
	DeployRetryInterval time.Duration   `yaml:"deploy_retry_interval"`
	HibernationPeriod   time.Duration   `yaml:"hibernation_period"`
	DeviceTimeout       time.Duration   `yaml:"device_timeout"`
	SaveInterval        time.Duration   `yaml:"save_interval"`
	ResetParamsOnBoot   bool            `yaml:"reset_params_on_boot"`
	TxPeriods           []time.Duration `yaml:"tx_periods"`
}

// MediumConfig selects the non-volatile memory.
type MediumConfig struct {
	// Kind is one of file, memory, modbus.
	Kind     string        `yaml:"kind"`
	Path     string        `yaml:"path"`
	Endpoint string        `yaml:"endpoint"`
	UnitID   uint8         `yaml:"unit_id"`
	Timeout  time.Duration `yaml:"timeout"`
	Bases    []uint16      `yaml:"bases"`
}

// AntennaConfig selects the release mechanism.
type AntennaConfig struct {
	// Kind is one of sim, modbus.
	Kind          string        `yaml:"kind"`
	ReleaseAfter  int           `yaml:"release_after"`
	BurnTime      time.Duration `yaml:"burn_time"`
	Endpoint      string        `yaml:"endpoint"`
	UnitID        uint8         `yaml:"unit_id"`
	Timeout       time.Duration `yaml:"timeout"`
	ReleaseCoil   uint16        `yaml:"release_coil"`
	DeployedInput uint16        `yaml:"deployed_input"`
}

// Config defines the configurations of the beacon node.
type Config struct {
	Settings `yaml:",inline"`

	Medium  MediumConfig  `yaml:"medium"`
	Antenna AntennaConfig `yaml:"antenna"`

	// File is the YAML file loaded by NewConfig, its values override flags.
	File string `yaml:"-"`
}

// Medium kinds.
const (
	MediumFile   = "file"
	MediumMemory = "memory"
	MediumModbus = "modbus"
)

// Antenna kinds.
const (
	AntennaSim    = "sim"
	AntennaModbus = "modbus"
)

// NodeType is the link node type of the beacon.
const NodeType = "beacon"

// NodeMeta describes the beacon in the registry.
var NodeMeta = link.NodeMeta{
	Description: "FSAT beacon",
	Labels:      map[string]string{"subsystem": "ttc-beacon"},
}

var defaultConfig = Config{
	Settings: Settings{
		MaxAttempts:         deploy.DefaultMaxAttempts,
		IntegrityPolicy:     deploy.Halt.String(),
		DeploySleep:         55 * time.Minute,
		DeployRetryInterval: 0,
		HibernationPeriod:   24 * time.Hour,
		DeviceTimeout:       60 * time.Second,
		SaveInterval:        10 * time.Minute,
		TxPeriods: []time.Duration{
			10 * time.Second,
			10 * time.Second,
			20 * time.Second,
			30 * time.Second,
			30 * time.Second,
		},
	},
	Medium: MediumConfig{
		Kind:    MediumFile,
		Path:    "beacon-nvm.img",
		Timeout: time.Second,
	},
	Antenna: AntennaConfig{
		Kind:         AntennaSim,
		ReleaseAfter: 1,
		BurnTime:     3 * time.Second,
		Timeout:      time.Second,
	},
}

func init() {
	if val := os.Getenv("BEACON_CONFIG"); val != "" {
		defaultConfig.File = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	c := &defaultConfig
	flag.StringVar(&c.File, "config", c.File, "YAML config file, overrides flags.")
	flag.IntVar(&c.MaxAttempts, "max-attempts", c.MaxAttempts, "Maximum antenna release attempts.")
	flag.StringVar(&c.IntegrityPolicy, "integrity-policy", c.IntegrityPolicy, "Corrupted attempt counter policy: halt, assume-exhausted, assume-none.")
	flag.DurationVar(&c.DeploySleep, "deploy-sleep", c.DeploySleep, "Hibernation before the first deployment.")
	flag.DurationVar(&c.DeployRetryInterval, "deploy-retry", c.DeployRetryInterval, "Deployment retry interval, 0 for once per boot.")
	flag.DurationVar(&c.HibernationPeriod, "hibernation", c.HibernationPeriod, "Default hibernation period.")
	flag.DurationVar(&c.DeviceTimeout, "device-timeout", c.DeviceTimeout, "Subsystem silence before it is considered dead.")
	flag.DurationVar(&c.SaveInterval, "save-interval", c.SaveInterval, "Interval of saving volatile parameters.")
	flag.BoolVar(&c.ResetParamsOnBoot, "reset-params", c.ResetParamsOnBoot, "Write parameter defaults on boot.")
	flag.StringVar(&c.Medium.Kind, "nvm", c.Medium.Kind, "Non-volatile memory: file, memory, modbus.")
	flag.StringVar(&c.Medium.Path, "nvm-file", c.Medium.Path, "Image file of the file memory.")
	flag.StringVar(&c.Medium.Endpoint, "nvm-modbus", c.Medium.Endpoint, "Modbus TCP endpoint of the modbus memory.")
	flag.StringVar(&c.Antenna.Kind, "antenna", c.Antenna.Kind, "Antenna release mechanism: sim, modbus.")
	flag.StringVar(&c.Antenna.Endpoint, "antenna-modbus", c.Antenna.Endpoint, "Modbus TCP endpoint of the release I/O module.")
	flag.DurationVar(&c.Antenna.BurnTime, "burn-time", c.Antenna.BurnTime, "Burn wire energizing time.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults, loading File if specified.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	conf.TxPeriods = append([]time.Duration(nil), defaultConfig.TxPeriods...)
	if conf.File != "" {
		if err := conf.LoadFile(conf.File); err != nil {
			return nil, err
		}
	}
	return &conf, nil
}

// LoadFile decodes a YAML file over the current values.
func (c *Config) LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	return c.Load(data)
}

// Load decodes YAML over the current values.
func (c *Config) Load(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "parse config")
	}
	return nil
}

// Policy returns the parsed integrity policy.
func (s *Settings) Policy() (deploy.IntegrityPolicy, error) {
	return deploy.ParsePolicy(s.IntegrityPolicy)
}

// TxPeriod returns the telemetry period of an energy level.
func (s *Settings) TxPeriod(level uint32) time.Duration {
	if level < 1 || int(level) > len(s.TxPeriods) {
		level = uint32(len(s.TxPeriods))
	}
	return s.TxPeriods[level-1]
}

// Validate checks the settings.
func (s *Settings) Validate() error {
	if s.MaxAttempts < 1 || s.MaxAttempts > 0xff {
		return errors.Errorf("max_attempts %d out of range 1-255", s.MaxAttempts)
	}
	if _, err := s.Policy(); err != nil {
		return err
	}
	durations := []struct {
		name     string
		value    time.Duration
		positive bool
	}{
		{"deploy_sleep", s.DeploySleep, false},
		{"deploy_retry_interval", s.DeployRetryInterval, false},
		{"hibernation_period", s.HibernationPeriod, true},
		{"device_timeout", s.DeviceTimeout, true},
		{"save_interval", s.SaveInterval, true},
	}
	for _, d := range durations {
		if err := checkSeconds(d.name, d.value, d.positive); err != nil {
			return err
		}
	}
	if len(s.TxPeriods) != NumEnergyLevels {
		return errors.Errorf("tx_periods requires %d periods, got %d", NumEnergyLevels, len(s.TxPeriods))
	}
	for n, p := range s.TxPeriods {
		if p <= 0 {
			return errors.Errorf("tx_periods[%d] must be positive", n)
		}
	}
	return nil
}

func checkSeconds(name string, d time.Duration, positive bool) error {
	switch {
	case d < 0:
		return errors.Errorf("%s must not be negative", name)
	case positive && d < time.Second:
		return errors.Errorf("%s must be at least 1s", name)
	case d/time.Second > math.MaxUint32:
		return errors.Errorf("%s too long", name)
	}
	return nil
}

// Validate checks the whole config.
func (c *Config) Validate() error {
	if err := c.Settings.Validate(); err != nil {
		return err
	}
	switch c.Medium.Kind {
	case MediumFile:
		if c.Medium.Path == "" {
			return errors.New("medium path required")
		}
	case MediumMemory:
	case MediumModbus:
		if c.Medium.Endpoint == "" {
			return errors.New("medium endpoint required")
		}
	default:
		return errors.Errorf("unknown medium kind %q", c.Medium.Kind)
	}
	switch c.Antenna.Kind {
	case AntennaSim:
	case AntennaModbus:
		if c.Antenna.Endpoint == "" {
			return errors.New("antenna endpoint required")
		}
	default:
		return errors.Errorf("unknown antenna kind %q", c.Antenna.Kind)
	}
	return nil
}

// OpenMedium opens the configured non-volatile memory. The result may
// implement io.Closer.
func (c *Config) OpenMedium() (nvm.Medium, error) {
	geometry := params.DefaultGeometry
	switch c.Medium.Kind {
	case MediumFile:
		return nvm.OpenFile(c.Medium.Path, geometry)
	case MediumMemory:
		return nvm.NewMemory(geometry), nil
	case MediumModbus:
		bases := c.Medium.Bases
		if len(bases) == 0 {
			bases = modbus.DefaultBases(geometry)
		}
		return modbus.Dial(modbus.Config{
			Endpoint: c.Medium.Endpoint,
			UnitID:   c.Medium.UnitID,
			Timeout:  c.Medium.Timeout,
			Bases:    bases,
		}, geometry)
	}
	return nil, errors.Errorf("unknown medium kind %q", c.Medium.Kind)
}

// NewActuator creates the configured release mechanism. The result may
// implement io.Closer.
func (c *Config) NewActuator() (antenna.Actuator, error) {
	switch c.Antenna.Kind {
	case AntennaSim:
		sim := antenna.NewSim(c.Antenna.ReleaseAfter)
		sim.BurnTime = c.Antenna.BurnTime
		return sim, nil
	case AntennaModbus:
		return antenna.DialModbus(antenna.ModbusConfig{
			Endpoint:      c.Antenna.Endpoint,
			UnitID:        c.Antenna.UnitID,
			Timeout:       c.Antenna.Timeout,
			ReleaseCoil:   c.Antenna.ReleaseCoil,
			DeployedInput: c.Antenna.DeployedInput,
			BurnTime:      c.Antenna.BurnTime,
		})
	}
	return nil, errors.Errorf("unknown antenna kind %q", c.Antenna.Kind)
}

// NewController creates the controller over medium and actuator.
func (c *Config) NewController(medium nvm.Medium, actuator antenna.Actuator, reg link.Registrar) (*Controller, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	store, err := params.NewStore(medium, &params.DefaultLayout)
	if err != nil {
		return nil, err
	}
	machine := deploy.New(store, actuator)
	machine.MaxAttempts = c.MaxAttempts
	machine.Policy = policy
	return NewController(c.Settings, store, medium, machine, reg), nil
}
